package plugin

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// builtPluginsDir returns the repo's plugins directory when the named
// plugin has been built next to its manifest.
func builtPluginsDir(t *testing.T, name string) string {
	t.Helper()

	for _, dir := range []string{"../../plugins", "../../../plugins"} {
		if _, err := os.Stat(filepath.Join(dir, name, name)); err == nil {
			return dir
		}
	}
	t.Skipf("%s plugin not built", name)
	return ""
}

func TestPlugin_Keyboard_RejectsEmptyHotkey(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	m := newTestManager(builtPluginsDir(t, "keyboard"))
	if err := m.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	p, err := m.Provider("hotkey")
	if err != nil {
		t.Fatalf("Provider() error = %v", err)
	}

	req, _ := NewRequest("hotkey", map[string][]string{"keys": {}})
	resp, err := NewExecutor(5*time.Second).Execute(context.Background(), p, req)
	if !errors.Is(err, ErrPluginFailed) {
		t.Fatalf("Execute() error = %v, want ErrPluginFailed", err)
	}
	if resp == nil || resp.Success {
		t.Error("expected failure response for empty hotkey")
	}
}

func TestPlugin_SystemControl_UnknownAction(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	m := newTestManager(builtPluginsDir(t, "system-control"))
	if err := m.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	p, err := m.Get("system-control")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	_, err = NewExecutor(5*time.Second).Execute(context.Background(), p, &Request{Action: "self-destruct"})
	if !errors.Is(err, ErrPluginFailed) {
		t.Errorf("Execute() error = %v, want ErrPluginFailed", err)
	}
}
