package gesture

import "fmt"

// ActionKind identifies the external effect an Action requests.
type ActionKind string

const (
	ActionNone       ActionKind = "none"
	ActionMove       ActionKind = "move"
	ActionClick      ActionKind = "click"
	ActionVolume     ActionKind = "volume"
	ActionZoomIn     ActionKind = "zoom-in"
	ActionZoomOut    ActionKind = "zoom-out"
	ActionScroll     ActionKind = "scroll"
	ActionScreenshot ActionKind = "screenshot"
)

// Button is a pointer button.
type Button string

const (
	ButtonLeft  Button = "left"
	ButtonRight Button = "right"
)

// Action is the single effect to perform for a frame.
// Only the fields relevant to Kind are set.
type Action struct {
	Kind   ActionKind `json:"kind"`
	X      float64    `json:"x,omitempty"`
	Y      float64    `json:"y,omitempty"`
	Button Button     `json:"button,omitempty"`
	Level  float64    `json:"level,omitempty"`
	Delta  int        `json:"delta,omitempty"`
	Keys   []string   `json:"keys,omitempty"`
	Path   string     `json:"path,omitempty"`
}

// Zoom hotkey combinations.
var (
	ZoomInKeys  = []string{"ctrl", "+"}
	ZoomOutKeys = []string{"ctrl", "-"}
)

// NoAction is the empty result.
func NoAction() Action { return Action{Kind: ActionNone} }

// MoveTo requests a pointer move.
func MoveTo(p Point) Action { return Action{Kind: ActionMove, X: p.X, Y: p.Y} }

// Click requests a button click.
func Click(b Button) Action { return Action{Kind: ActionClick, Button: b} }

// SetVolume requests an absolute volume level in the device's range.
func SetVolume(level float64) Action { return Action{Kind: ActionVolume, Level: level} }

// ZoomIn requests the zoom-in hotkey.
func ZoomIn() Action { return Action{Kind: ActionZoomIn, Keys: ZoomInKeys} }

// ZoomOut requests the zoom-out hotkey.
func ZoomOut() Action { return Action{Kind: ActionZoomOut, Keys: ZoomOutKeys} }

// Scroll requests a wheel scroll; positive is up.
func Scroll(delta int) Action { return Action{Kind: ActionScroll, Delta: delta} }

// Screenshot requests a screen capture written to path.
func Screenshot(path string) Action { return Action{Kind: ActionScreenshot, Path: path} }

// IsNone reports whether the action requests nothing.
func (a Action) IsNone() bool {
	return a.Kind == "" || a.Kind == ActionNone
}

func (a Action) String() string {
	switch a.Kind {
	case ActionMove:
		return fmt.Sprintf("move(%.1f,%.1f)", a.X, a.Y)
	case ActionClick:
		return fmt.Sprintf("click(%s)", a.Button)
	case ActionVolume:
		return fmt.Sprintf("volume(%.2f)", a.Level)
	case ActionScroll:
		return fmt.Sprintf("scroll(%d)", a.Delta)
	case ActionScreenshot:
		return fmt.Sprintf("screenshot(%s)", a.Path)
	case ActionZoomIn, ActionZoomOut:
		return string(a.Kind)
	default:
		return string(ActionNone)
	}
}
