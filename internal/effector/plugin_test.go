package effector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/ayusman/airmouse/internal/gesture"
	"github.com/ayusman/airmouse/internal/plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePlugins provides one plugin per action and records requests.
type fakePlugins struct {
	missing  map[string]bool
	requests []*plugin.Request
	data     map[string]string
	err      error
}

func (f *fakePlugins) Provider(action string) (*plugin.Plugin, error) {
	if f.missing[action] {
		return nil, fmt.Errorf("%w: %s", plugin.ErrNoProvider, action)
	}
	return &plugin.Plugin{Manifest: plugin.Manifest{Name: "fake-" + action, Actions: []string{action}}}, nil
}

func (f *fakePlugins) Execute(_ context.Context, p *plugin.Plugin, req *plugin.Request) (*plugin.Response, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	resp := &plugin.Response{Success: true}
	if d, ok := f.data[req.Action]; ok {
		resp.Data = json.RawMessage(d)
	}
	return resp, nil
}

func TestPluginEffector_Requests(t *testing.T) {
	fake := &fakePlugins{}
	eff := NewPluginEffector(fake, fake)
	ctx := context.Background()

	require.NoError(t, eff.MoveTo(ctx, 960, 540.5))
	require.NoError(t, eff.Click(ctx, gesture.ButtonRight))
	require.NoError(t, eff.Scroll(ctx, -40))
	require.NoError(t, eff.Hotkey(ctx, gesture.ZoomInKeys))
	require.NoError(t, eff.SetVolume(ctx, 25))
	require.NoError(t, eff.Screenshot(ctx, "screenshot.png"))

	want := []struct {
		action string
		params string
	}{
		{ActionMove, `{"x":960,"y":540.5}`},
		{ActionClick, `{"button":"right"}`},
		{ActionScroll, `{"delta":-40}`},
		{ActionHotkey, `{"keys":["ctrl","+"]}`},
		{ActionSetVolume, `{"level":25}`},
		{ActionScreenshot, `{"path":"screenshot.png"}`},
	}

	require.Len(t, fake.requests, len(want))
	for i, w := range want {
		assert.Equal(t, w.action, fake.requests[i].Action)
		assert.JSONEq(t, w.params, string(fake.requests[i].Params))
	}
}

func TestPluginEffector_VolumeRange(t *testing.T) {
	fake := &fakePlugins{data: map[string]string{ActionVolumeRange: `{"min":0,"max":100}`}}
	eff := NewPluginEffector(fake, fake)

	r, err := eff.VolumeRange(context.Background())
	require.NoError(t, err)
	assert.Equal(t, gesture.VolumeRange{Min: 0, Max: 100}, r)
	assert.Nil(t, fake.requests[0].Params)
}

func TestPluginEffector_VolumeRangeInvalid(t *testing.T) {
	for _, data := range []string{`{"min":5,"max":5}`, `"loud"`} {
		fake := &fakePlugins{data: map[string]string{ActionVolumeRange: data}}
		_, err := NewPluginEffector(fake, fake).VolumeRange(context.Background())
		assert.Error(t, err, data)
	}
}

func TestPluginEffector_NoProvider(t *testing.T) {
	fake := &fakePlugins{missing: map[string]bool{ActionScroll: true}}
	eff := NewPluginEffector(fake, fake)

	err := eff.Scroll(context.Background(), 40)
	assert.ErrorIs(t, err, plugin.ErrNoProvider)
	assert.Empty(t, fake.requests)
}

func TestPluginEffector_ExecuteError(t *testing.T) {
	boom := errors.New("exit status 1")
	fake := &fakePlugins{err: boom}

	err := Apply(context.Background(), NewPluginEffector(fake, fake), gesture.Click(gesture.ButtonLeft))
	assert.ErrorIs(t, err, boom)
}

func TestPluginEffector_ScreenSize(t *testing.T) {
	fake := &fakePlugins{data: map[string]string{ActionScreenSize: `{"width":2560,"height":1440}`}}
	eff := NewPluginEffector(fake, fake)

	size, err := eff.ScreenSize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, gesture.ScreenSize{Width: 2560, Height: 1440}, size)
	assert.Equal(t, ActionScreenSize, fake.requests[0].Action)
}

func TestPluginEffector_ScreenSizeInvalid(t *testing.T) {
	for _, data := range []string{`{"width":0,"height":1080}`, `[1920,1080]`} {
		fake := &fakePlugins{data: map[string]string{ActionScreenSize: data}}
		_, err := NewPluginEffector(fake, fake).ScreenSize(context.Background())
		assert.Error(t, err, data)
	}
}
