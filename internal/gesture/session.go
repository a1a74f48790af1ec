package gesture

import (
	"log/slog"
	"slices"
	"time"

	"github.com/ayusman/airmouse/internal/detector"
	"github.com/google/uuid"
)

// Config bundles everything a Session needs.
type Config struct {
	Classifier ClassifierConfig
	Router     RouterConfig
	Cursor     CursorConfig
	// CursorStart is the smoothed pointer position before the first move.
	CursorStart Point
	Volume      VolumeRange
}

// DefaultConfig returns stock settings with a 0..1 volume range.
func DefaultConfig() Config {
	return Config{
		Classifier: DefaultClassifierConfig(),
		Router:     DefaultRouterConfig(),
		Cursor:     DefaultCursorConfig(),
		Volume:     VolumeRange{Min: 0, Max: 1},
	}
}

// Result describes how one frame was handled.
type Result struct {
	Signature Signature `json:"signature"`
	Action    Action    `json:"action"`
	// Landmarks is the number of landmarks the frame carried.
	Landmarks int `json:"landmarks"`
}

// Session owns the state that persists across frames: the smoothed cursor
// and the cooldown timestamps. It is not safe for concurrent use; frames must
// be fed in arrival order from a single goroutine.
type Session struct {
	id        string
	cfg       Config
	router    *Router
	cooldowns *CooldownGate
	cursor    *CursorMapper
	logger    *slog.Logger

	lastFrame time.Time
	fps       float64
	seeded    bool
}

// NewSession creates a session over the default rule table.
func NewSession(cfg Config, hooks Hooks, logger *slog.Logger) *Session {
	id := uuid.NewString()
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("session", id)

	return &Session{
		id:        id,
		cfg:       cfg,
		router:    NewRouter(DefaultRules(cfg.Router), hooks, logger),
		cooldowns: NewCooldownGate(),
		cursor:    NewCursorMapper(cfg.Cursor, cfg.CursorStart),
		logger:    logger,
	}
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// Rules returns the session's rule table in priority order.
func (s *Session) Rules() []Rule {
	return s.router.Rules()
}

// SetVolumeRange replaces the device volume range used by the volume rule.
func (s *Session) SetVolumeRange(r VolumeRange) {
	s.cfg.Volume = r
}

// SetScreenSize replaces the display size the cursor maps onto.
func (s *Session) SetScreenSize(size ScreenSize) {
	if !size.Valid() {
		return
	}
	s.cfg.Cursor.ScreenWidth = size.Width
	s.cfg.Cursor.ScreenHeight = size.Height
	s.cursor.SetScreenSize(size)
}

// SetFrameSize sets the size of the frames passed to Process. The cursor
// maps fingertip positions against it.
func (s *Session) SetFrameSize(width, height int) {
	s.cursor.SetFrameSize(width, height)
}

// CursorConfig returns the cursor mapping currently in use.
func (s *Session) CursorConfig() CursorConfig {
	return s.cursor.Config()
}

// Cursor returns the current smoothed pointer position.
func (s *Session) Cursor() Point {
	return s.cursor.Position()
}

// FPS returns a smoothed estimate of the frame rate seen by Process.
func (s *Session) FPS() float64 {
	return s.fps
}

// Process classifies one frame and routes it.
//
// An empty frame means no hand and yields no action. A frame with some but
// not all landmarks classifies as all fingers down and is not routed.
func (s *Session) Process(frame detector.Frame, now time.Time) Result {
	s.tick(now)
	if s.cfg.Router.SeedCooldowns && !s.seeded {
		s.cooldowns.SeedAt(now, s.cooldownClasses()...)
		s.seeded = true
	}

	res := Result{
		Signature: Classify(frame, s.cfg.Classifier),
		Action:    NoAction(),
		Landmarks: len(frame),
	}

	if !frame.Complete() {
		if len(frame) > 0 {
			s.logger.Debug("incomplete hand, frame skipped", "landmarks", len(frame))
		}
		return res
	}

	res.Action = s.router.Route(res.Signature, RouteContext{
		Now:       now,
		Frame:     frame,
		Distance:  Measurer(frame),
		Cursor:    s.cursor,
		Cooldowns: s.cooldowns,
		Volume:    s.cfg.Volume,
	})

	return res
}

// Reset clears cooldowns and returns the cursor to its start position.
func (s *Session) Reset() {
	s.cooldowns.Reset()
	s.cursor.Reset()
	s.lastFrame = time.Time{}
	s.fps = 0
	s.seeded = false
}

func (s *Session) cooldownClasses() []CooldownClass {
	var classes []CooldownClass
	for _, r := range s.router.Rules() {
		if r.Class != ClassNone && !slices.Contains(classes, r.Class) {
			classes = append(classes, r.Class)
		}
	}
	return classes
}

func (s *Session) tick(now time.Time) {
	if !s.lastFrame.IsZero() {
		if dt := now.Sub(s.lastFrame).Seconds(); dt > 0 {
			inst := 1 / dt
			if s.fps == 0 {
				s.fps = inst
			} else {
				s.fps += (inst - s.fps) / 10
			}
		}
	}
	s.lastFrame = now
}
