package effector

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/ayusman/airmouse/internal/gesture"
)

const hotkeyKind gesture.ActionKind = "hotkey"

// Recorder is an Effector that records actions instead of performing them.
// It backs dry runs and tests.
type Recorder struct {
	mu      sync.Mutex
	actions []gesture.Action
	limit   int
	volume  gesture.VolumeRange
	screen  gesture.ScreenSize
	err     error
	logger  *slog.Logger
}

// NewRecorder keeps the most recent limit actions (all of them when limit <= 0).
// A non-nil logger logs every action at info level.
func NewRecorder(limit int, logger *slog.Logger) *Recorder {
	return &Recorder{
		limit:  limit,
		volume: gesture.VolumeRange{Min: 0, Max: 100},
		screen: gesture.ScreenSize{Width: 1920, Height: 1080},
		logger: logger,
	}
}

// SetVolumeRange sets the range VolumeRange reports.
func (r *Recorder) SetVolumeRange(v gesture.VolumeRange) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.volume = v
}

// SetScreenSize sets the size ScreenSize reports.
func (r *Recorder) SetScreenSize(s gesture.ScreenSize) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.screen = s
}

// SetError makes every subsequent call fail with err. Nil clears it.
func (r *Recorder) SetError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Actions returns a copy of the recorded actions, oldest first.
func (r *Recorder) Actions() []gesture.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]gesture.Action, len(r.actions))
	copy(out, r.actions)
	return out
}

// Reset forgets recorded actions.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = nil
}

func (r *Recorder) record(a gesture.Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}

	r.actions = append(r.actions, a)
	if r.limit > 0 && len(r.actions) > r.limit {
		r.actions = r.actions[len(r.actions)-r.limit:]
	}
	if r.logger != nil {
		r.logger.Info("action", "action", a.String())
	}
	return nil
}

func (r *Recorder) MoveTo(_ context.Context, x, y float64) error {
	return r.record(gesture.MoveTo(gesture.Point{X: x, Y: y}))
}

func (r *Recorder) Click(_ context.Context, button gesture.Button) error {
	return r.record(gesture.Click(button))
}

func (r *Recorder) Scroll(_ context.Context, delta int) error {
	return r.record(gesture.Scroll(delta))
}

// Hotkey records the zoom action matching keys, or a hotkey action otherwise.
func (r *Recorder) Hotkey(_ context.Context, keys []string) error {
	switch {
	case slices.Equal(keys, gesture.ZoomInKeys):
		return r.record(gesture.ZoomIn())
	case slices.Equal(keys, gesture.ZoomOutKeys):
		return r.record(gesture.ZoomOut())
	default:
		return r.record(gesture.Action{Kind: hotkeyKind, Keys: slices.Clone(keys)})
	}
}

func (r *Recorder) SetVolume(_ context.Context, level float64) error {
	return r.record(gesture.SetVolume(level))
}

func (r *Recorder) VolumeRange(context.Context) (gesture.VolumeRange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return gesture.VolumeRange{}, r.err
	}
	return r.volume, nil
}

func (r *Recorder) ScreenSize(context.Context) (gesture.ScreenSize, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return gesture.ScreenSize{}, r.err
	}
	return r.screen, nil
}

func (r *Recorder) Screenshot(_ context.Context, path string) error {
	return r.record(gesture.Screenshot(path))
}
