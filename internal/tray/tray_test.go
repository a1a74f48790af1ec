package tray

import (
	"sync"
	"testing"

	"github.com/ayusman/airmouse/internal/app"
	"github.com/ayusman/airmouse/internal/gesture"
)

type fakeController struct {
	mu      sync.Mutex
	enabled bool
}

func (f *fakeController) SetEnabled(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enabled = on
}

func (f *fakeController) IsEnabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enabled
}

func (f *fakeController) Subscribe() (<-chan app.Event, func()) {
	ch := make(chan app.Event)
	return ch, func() { close(ch) }
}

func TestTray_Toggle(t *testing.T) {
	ctrl := &fakeController{enabled: true}
	tr := New(ctrl)

	if got := tr.Toggle(); got {
		t.Errorf("Toggle() = %v, want false", got)
	}
	if ctrl.IsEnabled() {
		t.Error("controller should be disabled")
	}

	if got := tr.Toggle(); !got {
		t.Errorf("Toggle() = %v, want true", got)
	}
	if !ctrl.IsEnabled() {
		t.Error("controller should be enabled")
	}
}

func TestTray_FollowShowsLastAction(t *testing.T) {
	tr := New(&fakeController{})
	if tr.LastAction() != "" {
		t.Fatalf("LastAction() = %q, want empty", tr.LastAction())
	}

	events := make(chan app.Event, 2)
	events <- app.Event{Action: gesture.Click(gesture.ButtonLeft)}
	events <- app.Event{Action: gesture.Scroll(-40)}
	close(events)

	tr.follow(events)

	if got := tr.LastAction(); got != "scroll(-40)" {
		t.Errorf("LastAction() = %q, want scroll(-40)", got)
	}
}

func TestTitles(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{toggleTitle(true), "● Enabled"},
		{toggleTitle(false), "○ Disabled"},
		{lastTitle(""), "Last: none"},
		{lastTitle("click(left)"), "Last: click(left)"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
