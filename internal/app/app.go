// Package app runs the capture → detect → gesture → effector frame loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/airmouse/internal/capture"
	"github.com/ayusman/airmouse/internal/detector"
	"github.com/ayusman/airmouse/internal/effector"
	"github.com/ayusman/airmouse/internal/gesture"
	"github.com/ayusman/airmouse/internal/metrics"
)

// Loop defaults.
const (
	// DefaultIdleAfter is how long the scene must stay still before the
	// governor drops to the idle rate.
	DefaultIdleAfter = 2 * time.Second
	// DefaultMaxConsecutiveFailures is the read failure budget.
	DefaultMaxConsecutiveFailures = 30
	// subscriberBuffer is the channel depth given to each subscriber.
	subscriberBuffer = 16
)

var (
	// ErrCaptureLost is returned by Run when the camera can no longer deliver frames.
	ErrCaptureLost = errors.New("capture lost")
	// ErrRunning is returned by Run when the loop is already running.
	ErrRunning = errors.New("frame loop already running")
)

// Config holds the collaborators and loop settings of an App.
type Config struct {
	Session  gesture.Config
	Camera   capture.Camera
	Detector detector.Detector
	Effector effector.Effector
	// Metrics is optional; a private collector is used when nil.
	Metrics *metrics.Collector
	Logger  *slog.Logger

	FPS     int
	IdleFPS int
	// IdleAfter defaults to DefaultIdleAfter.
	IdleAfter       time.Duration
	MotionThreshold float64
	Mirror          bool
	// MaxConsecutiveFailures defaults to DefaultMaxConsecutiveFailures.
	MaxConsecutiveFailures int
	// Preview keeps the latest frame as JPEG for Snapshot.
	Preview bool
	// Enabled is the initial enabled state.
	Enabled bool
	// DetectScreen asks the effector for the display size on Run instead of
	// using Session.Cursor's screen.
	DetectScreen bool

	Now func() time.Time
}

// Event reports one fired action.
type Event struct {
	Time      time.Time      `json:"time"`
	Session   string         `json:"session"`
	Signature string         `json:"signature"`
	Action    gesture.Action `json:"action"`
	FPS       float64        `json:"fps"`
}

// Status is a point-in-time view of the loop.
type Status struct {
	Session    string         `json:"session"`
	Running    bool           `json:"running"`
	Enabled    bool           `json:"enabled"`
	FPS        float64        `json:"fps"`
	CaptureFPS int            `json:"capture_fps"`
	LastAction gesture.Action `json:"last_action"`
	LastFired  time.Time      `json:"last_fired,omitzero"`
}

// App is the gesture mouse: it owns the session and drives the collaborators.
type App struct {
	cfg      Config
	logger   *slog.Logger
	metrics  *metrics.Collector
	session  *gesture.Session
	camera   capture.Camera
	detector detector.Detector
	effector effector.Effector
	motion   *capture.MotionDetector
	governor *capture.Governor
	now      func() time.Time

	enabled atomic.Bool
	running atomic.Bool

	mu         sync.RWMutex
	fps        float64
	lastAction gesture.Action
	lastFired  time.Time
	preview    []byte

	subMu  sync.Mutex
	subs   map[int]chan Event
	nextID int
}

// New creates an App. Camera, Detector and Effector are required.
func New(cfg Config) (*App, error) {
	if cfg.Camera == nil {
		return nil, errors.New("app: camera is required")
	}
	if cfg.Detector == nil {
		return nil, errors.New("app: detector is required")
	}
	if cfg.Effector == nil {
		return nil, errors.New("app: effector is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New()
	}
	if cfg.FPS <= 0 {
		cfg.FPS = capture.DefaultConfig().FPS
	}
	if cfg.IdleAfter <= 0 {
		cfg.IdleAfter = DefaultIdleAfter
	}
	if cfg.MaxConsecutiveFailures <= 0 {
		cfg.MaxConsecutiveFailures = DefaultMaxConsecutiveFailures
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	a := &App{
		cfg:      cfg,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		camera:   cfg.Camera,
		detector: cfg.Detector,
		effector: cfg.Effector,
		governor: capture.NewGovernor(cfg.FPS, cfg.IdleFPS, cfg.IdleAfter),
		now:      cfg.Now,
		subs:     make(map[int]chan Event),
	}
	a.session = gesture.NewSession(cfg.Session, cfg.Metrics.Hooks(), cfg.Logger)
	if a.governor.Enabled() {
		a.motion = capture.NewMotionDetector(cfg.MotionThreshold)
	}
	a.SetEnabled(cfg.Enabled)

	return a, nil
}

// SessionID returns the gesture session's identifier.
func (a *App) SessionID() string {
	return a.session.ID()
}

// Rules returns the active rule table in priority order.
func (a *App) Rules() []gesture.Rule {
	return a.session.Rules()
}

// SetEnabled turns gesture handling on or off. Frames are still captured
// while disabled so the preview stays live.
func (a *App) SetEnabled(enabled bool) {
	if a.enabled.Swap(enabled) != enabled {
		a.logger.Info("gesture control toggled", "enabled", enabled)
	}
	a.metrics.SetEnabled(enabled)
}

// IsEnabled reports whether gestures are turned into actions.
func (a *App) IsEnabled() bool {
	return a.enabled.Load()
}

// Status returns the current loop state.
func (a *App) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return Status{
		Session:    a.session.ID(),
		Running:    a.running.Load(),
		Enabled:    a.IsEnabled(),
		FPS:        a.fps,
		CaptureFPS: a.camera.FPS(),
		LastAction: a.lastAction,
		LastFired:  a.lastFired,
	}
}

// Snapshot returns the latest preview frame as JPEG. It reports false when
// preview is off or no frame has been captured yet.
func (a *App) Snapshot() ([]byte, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if len(a.preview) == 0 {
		return nil, false
	}
	return a.preview, true
}

// Subscribe registers for fired-action events. Slow subscribers miss events
// rather than stall the loop. The returned func unsubscribes and closes the channel.
func (a *App) Subscribe() (<-chan Event, func()) {
	a.subMu.Lock()
	defer a.subMu.Unlock()

	id := a.nextID
	a.nextID++
	ch := make(chan Event, subscriberBuffer)
	a.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			a.subMu.Lock()
			defer a.subMu.Unlock()
			delete(a.subs, id)
			close(ch)
		})
	}
}

func (a *App) publish(ev Event) {
	a.subMu.Lock()
	defer a.subMu.Unlock()
	for _, ch := range a.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Run opens the camera and processes frames until ctx is cancelled, which
// returns nil. It returns an error wrapping ErrCaptureLost when the camera
// cannot be opened, is closed underneath the loop, or fails
// MaxConsecutiveFailures reads in a row. Camera and detector are released
// on return.
func (a *App) Run(ctx context.Context) error {
	if !a.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer a.running.Store(false)
	defer a.release()

	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("%w: %w", ErrCaptureLost, err)
	}

	a.loadVolumeRange(ctx)
	if a.cfg.DetectScreen {
		a.loadScreenSize(ctx)
	}

	fps := a.governor.FPS()
	a.camera.SetFPS(fps)
	ticker := time.NewTicker(frameInterval(fps))
	defer ticker.Stop()

	a.logger.Info("frame loop started", "session", a.session.ID(), "fps", fps, "enabled", a.IsEnabled())

	failures := 0
	for {
		select {
		case <-ctx.Done():
			a.logger.Info("frame loop stopped")
			return nil
		case <-ticker.C:
		}

		frame, err := a.camera.ReadFrame()
		if err != nil {
			a.metrics.Frame(metrics.OutcomeReadFailed)
			if errors.Is(err, capture.ErrCameraNotOpen) {
				return fmt.Errorf("%w: %w", ErrCaptureLost, err)
			}
			failures++
			if failures >= a.cfg.MaxConsecutiveFailures {
				return fmt.Errorf("%w: %d consecutive read failures: %w", ErrCaptureLost, failures, err)
			}
			a.logger.Warn("frame read failed", "err", err, "consecutive", failures)
			continue
		}
		failures = 0

		if next, changed := a.processFrame(ctx, frame); changed {
			a.logger.Debug("capture rate changed", "fps", next)
			a.camera.SetFPS(next)
			ticker.Reset(frameInterval(next))
		}
	}
}
