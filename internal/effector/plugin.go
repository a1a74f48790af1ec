package effector

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ayusman/airmouse/internal/gesture"
	"github.com/ayusman/airmouse/internal/plugin"
)

// Plugin action names.
const (
	ActionMove        = "move"
	ActionClick       = "click"
	ActionScroll      = "scroll"
	ActionHotkey      = "hotkey"
	ActionSetVolume   = "set-volume"
	ActionVolumeRange = "volume-range"
	ActionScreenshot  = "screenshot"
	ActionScreenSize  = "screen-size"
)

// Provider finds the plugin that handles an action.
type Provider interface {
	Provider(action string) (*plugin.Plugin, error)
}

// Runner executes a plugin request.
type Runner interface {
	Execute(ctx context.Context, p *plugin.Plugin, req *plugin.Request) (*plugin.Response, error)
}

// PluginEffector performs actions by running the plugin that provides each one.
type PluginEffector struct {
	plugins Provider
	runner  Runner
}

// NewPluginEffector creates an effector over discovered plugins.
func NewPluginEffector(plugins Provider, runner Runner) *PluginEffector {
	return &PluginEffector{plugins: plugins, runner: runner}
}

func (e *PluginEffector) call(ctx context.Context, action string, params any) (*plugin.Response, error) {
	p, err := e.plugins.Provider(action)
	if err != nil {
		return nil, err
	}

	req, err := plugin.NewRequest(action, params)
	if err != nil {
		return nil, err
	}

	return e.runner.Execute(ctx, p, req)
}

// MoveTo moves the pointer to an absolute screen position.
func (e *PluginEffector) MoveTo(ctx context.Context, x, y float64) error {
	_, err := e.call(ctx, ActionMove, map[string]float64{"x": x, "y": y})
	return err
}

// Click presses and releases button.
func (e *PluginEffector) Click(ctx context.Context, button gesture.Button) error {
	_, err := e.call(ctx, ActionClick, map[string]gesture.Button{"button": button})
	return err
}

// Scroll turns the wheel by delta; positive is up.
func (e *PluginEffector) Scroll(ctx context.Context, delta int) error {
	_, err := e.call(ctx, ActionScroll, map[string]int{"delta": delta})
	return err
}

// Hotkey presses a key combination.
func (e *PluginEffector) Hotkey(ctx context.Context, keys []string) error {
	_, err := e.call(ctx, ActionHotkey, map[string][]string{"keys": keys})
	return err
}

// SetVolume sets the absolute output level.
func (e *PluginEffector) SetVolume(ctx context.Context, level float64) error {
	_, err := e.call(ctx, ActionSetVolume, map[string]float64{"level": level})
	return err
}

// VolumeRange asks the volume plugin for the range SetVolume accepts.
func (e *PluginEffector) VolumeRange(ctx context.Context) (gesture.VolumeRange, error) {
	resp, err := e.call(ctx, ActionVolumeRange, nil)
	if err != nil {
		return gesture.VolumeRange{}, err
	}

	var r gesture.VolumeRange
	if err := json.Unmarshal(resp.Data, &r); err != nil {
		return gesture.VolumeRange{}, fmt.Errorf("failed to parse volume range: %w", err)
	}
	if r.Max <= r.Min {
		return gesture.VolumeRange{}, fmt.Errorf("invalid volume range %v..%v", r.Min, r.Max)
	}
	return r, nil
}

// ScreenSize asks the pointer plugin for the display size.
func (e *PluginEffector) ScreenSize(ctx context.Context) (gesture.ScreenSize, error) {
	resp, err := e.call(ctx, ActionScreenSize, nil)
	if err != nil {
		return gesture.ScreenSize{}, err
	}

	var size gesture.ScreenSize
	if err := json.Unmarshal(resp.Data, &size); err != nil {
		return gesture.ScreenSize{}, fmt.Errorf("failed to parse screen size: %w", err)
	}
	if !size.Valid() {
		return gesture.ScreenSize{}, fmt.Errorf("invalid screen size %dx%d", size.Width, size.Height)
	}
	return size, nil
}

// Screenshot captures the screen to path.
func (e *PluginEffector) Screenshot(ctx context.Context, path string) error {
	_, err := e.call(ctx, ActionScreenshot, map[string]string{"path": path})
	return err
}
