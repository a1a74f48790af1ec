// Package effector performs gesture actions on the operating system.
package effector

import (
	"context"
	"fmt"

	"github.com/ayusman/airmouse/internal/gesture"
)

// Effector is the set of OS operations the gesture table can request.
type Effector interface {
	MoveTo(ctx context.Context, x, y float64) error
	Click(ctx context.Context, button gesture.Button) error
	Scroll(ctx context.Context, delta int) error
	Hotkey(ctx context.Context, keys []string) error
	SetVolume(ctx context.Context, level float64) error
	VolumeRange(ctx context.Context) (gesture.VolumeRange, error)
	ScreenSize(ctx context.Context) (gesture.ScreenSize, error)
	Screenshot(ctx context.Context, path string) error
}

// Apply dispatches one action to eff. A none action is a no-op.
func Apply(ctx context.Context, eff Effector, a gesture.Action) error {
	switch a.Kind {
	case gesture.ActionNone, "":
		return nil
	case gesture.ActionMove:
		return eff.MoveTo(ctx, a.X, a.Y)
	case gesture.ActionClick:
		return eff.Click(ctx, a.Button)
	case gesture.ActionScroll:
		return eff.Scroll(ctx, a.Delta)
	case gesture.ActionZoomIn, gesture.ActionZoomOut:
		return eff.Hotkey(ctx, a.Keys)
	case gesture.ActionVolume:
		return eff.SetVolume(ctx, a.Level)
	case gesture.ActionScreenshot:
		return eff.Screenshot(ctx, a.Path)
	default:
		return fmt.Errorf("unknown action kind %q", a.Kind)
	}
}
