package gesture

import (
	"time"

	"github.com/ayusman/airmouse/internal/detector"
)

// RouterConfig holds the thresholds and cooldowns of the rule table.
type RouterConfig struct {
	ClickDistance      int // left click fires when index and middle tips are closer than this
	VolumeMinDistance  int // thumb-index distance mapped to the minimum volume
	VolumeMaxDistance  int // thumb-index distance mapped to the maximum volume
	ZoomSpread         int // zoom-in fires when thumb and pinky tips are farther apart than this
	ScrollStep         int
	LeftClickCooldown  time.Duration
	RightClickCooldown time.Duration
	ScrollCooldown     time.Duration
	ZoomCooldown       time.Duration // zero leaves the zoom rules ungated
	ZoomExclusive      bool          // stop evaluation after a zoom rule matches
	SeedCooldowns      bool          // start every cooldown at the session's first frame
	ScreenshotPath     string
}

// DefaultRouterConfig returns the stock thresholds.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		ClickDistance:      30,
		VolumeMinDistance:  30,
		VolumeMaxDistance:  150,
		ZoomSpread:         100,
		ScrollStep:         40,
		LeftClickCooldown:  300 * time.Millisecond,
		RightClickCooldown: 500 * time.Millisecond,
		ScrollCooldown:     500 * time.Millisecond,
		ScreenshotPath:     "screenshot.png",
	}
}

// VolumeRange is the device's volume range as reported by the audio interface.
type VolumeRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// verdict is the outcome of evaluating a matched rule.
type verdict int

const (
	fired verdict = iota
	declined
	unmeasurable
)

// Rule is one row of the gesture table.
type Rule struct {
	Name     string
	Pattern  Signature
	Kind     ActionKind
	Class    CooldownClass
	Cooldown time.Duration
	// Terminal rules end evaluation once their pattern matches with the
	// cooldown idle, whether or not they fire.
	Terminal bool

	eval func(rc *RouteContext) (Action, verdict)
}

// DefaultRules returns the gesture table in priority order.
//
// The zoom rules are not terminal unless cfg.ZoomExclusive is set; no later
// rule shares their patterns, so a frame still yields at most one action.
// The screenshot rule shares the scroll-down pattern and cooldown class and
// sits below it, so it never fires.
func DefaultRules(cfg RouterConfig) []Rule {
	zoomClass := ClassNone
	if cfg.ZoomCooldown > 0 {
		zoomClass = ClassZoom
	}

	return []Rule{
		{
			Name:     "move",
			Pattern:  Sig(0, 1, 0, 0, 0),
			Kind:     ActionMove,
			Terminal: true,
			eval: func(rc *RouteContext) (Action, verdict) {
				if len(rc.Frame) <= detector.IndexTip || rc.Cursor == nil {
					return NoAction(), unmeasurable
				}
				tip := rc.Frame[detector.IndexTip]
				return MoveTo(rc.Cursor.Update(tip.X, tip.Y)), fired
			},
		},
		{
			Name:     "left-click",
			Pattern:  Sig(0, 1, 1, 0, 0),
			Kind:     ActionClick,
			Class:    ClassClick,
			Cooldown: cfg.LeftClickCooldown,
			Terminal: true,
			eval: func(rc *RouteContext) (Action, verdict) {
				m, ok := rc.measure(detector.IndexTip, detector.MiddleTip)
				if !ok {
					return NoAction(), unmeasurable
				}
				if m.Length < cfg.ClickDistance {
					return Click(ButtonLeft), fired
				}
				return NoAction(), declined
			},
		},
		{
			Name:     "right-click",
			Pattern:  Sig(0, 1, 1, 1, 0),
			Kind:     ActionClick,
			Class:    ClassClick,
			Cooldown: cfg.RightClickCooldown,
			Terminal: true,
			eval: func(rc *RouteContext) (Action, verdict) {
				return Click(ButtonRight), fired
			},
		},
		{
			Name:     "volume",
			Pattern:  Sig(1, 1, 0, 0, 0),
			Kind:     ActionVolume,
			Terminal: true,
			eval: func(rc *RouteContext) (Action, verdict) {
				m, ok := rc.measure(detector.ThumbTip, detector.IndexTip)
				if !ok {
					return NoAction(), unmeasurable
				}
				level := interp(float64(m.Length),
					float64(cfg.VolumeMinDistance), float64(cfg.VolumeMaxDistance),
					rc.Volume.Min, rc.Volume.Max, true)
				return SetVolume(level), fired
			},
		},
		{
			Name:     "zoom-in",
			Pattern:  Sig(1, 0, 0, 0, 1),
			Kind:     ActionZoomIn,
			Class:    zoomClass,
			Cooldown: cfg.ZoomCooldown,
			Terminal: cfg.ZoomExclusive,
			eval: func(rc *RouteContext) (Action, verdict) {
				m, ok := rc.measure(detector.ThumbTip, detector.PinkyTip)
				if !ok {
					return NoAction(), unmeasurable
				}
				if m.Length > cfg.ZoomSpread {
					return ZoomIn(), fired
				}
				return NoAction(), declined
			},
		},
		{
			Name:     "zoom-out",
			Pattern:  Sig(1, 0, 0, 0, 0),
			Kind:     ActionZoomOut,
			Class:    zoomClass,
			Cooldown: cfg.ZoomCooldown,
			Terminal: cfg.ZoomExclusive,
			eval: func(rc *RouteContext) (Action, verdict) {
				return ZoomOut(), fired
			},
		},
		{
			Name:     "scroll-up",
			Pattern:  Sig(1, 1, 1, 1, 1),
			Kind:     ActionScroll,
			Class:    ClassScroll,
			Cooldown: cfg.ScrollCooldown,
			Terminal: true,
			eval: func(rc *RouteContext) (Action, verdict) {
				return Scroll(cfg.ScrollStep), fired
			},
		},
		{
			Name:     "scroll-down",
			Pattern:  Sig(0, 0, 0, 0, 0),
			Kind:     ActionScroll,
			Class:    ClassScroll,
			Cooldown: cfg.ScrollCooldown,
			Terminal: true,
			eval: func(rc *RouteContext) (Action, verdict) {
				return Scroll(-cfg.ScrollStep), fired
			},
		},
		{
			Name:     "screenshot",
			Pattern:  Sig(0, 0, 0, 0, 0),
			Kind:     ActionScreenshot,
			Class:    ClassScroll,
			Cooldown: cfg.ScrollCooldown,
			Terminal: true,
			eval: func(rc *RouteContext) (Action, verdict) {
				return Screenshot(cfg.ScreenshotPath), fired
			},
		},
	}
}
