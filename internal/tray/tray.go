// Package tray provides the system tray menu: an enable toggle and the last fired action.
package tray

import (
	"sync"

	"github.com/ayusman/airmouse/internal/app"
	"github.com/getlantern/systray"
)

// Controller is the frame loop as seen by the tray.
type Controller interface {
	SetEnabled(bool)
	IsEnabled() bool
	Subscribe() (<-chan app.Event, func())
}

// Tray represents the system tray application.
type Tray struct {
	ctrl       Controller
	onSettings func()
	onQuit     func()
	mu         sync.RWMutex
	lastAction string

	// Menu items stored for later updates
	menuToggle     *systray.MenuItem
	menuLastAction *systray.MenuItem
}

// New creates a Tray bound to ctrl.
func New(ctrl Controller) *Tray {
	return &Tray{ctrl: ctrl}
}

// OnSettings sets the callback function to be called when the settings menu item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application. It must be called from the main
// goroutine and blocks until Quit.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("AirMouse")
	systray.SetTooltip("AirMouse hand gesture control")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.ctrl.IsEnabled()), "Toggle gesture control")
	systray.AddSeparator()
	t.menuLastAction = systray.AddMenuItem(lastTitle(t.lastAction), "Last fired action")
	t.menuLastAction.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit AirMouse")

	events, unsubscribe := t.ctrl.Subscribe()
	go t.follow(events)

	go func() {
		defer unsubscribe()
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.Toggle()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// Toggle flips gesture control and returns the new state.
func (t *Tray) Toggle() bool {
	enabled := !t.ctrl.IsEnabled()
	t.ctrl.SetEnabled(enabled)

	t.mu.RLock()
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	t.mu.RUnlock()

	return enabled
}

// follow shows each fired action until events is closed.
func (t *Tray) follow(events <-chan app.Event) {
	for ev := range events {
		t.setLastAction(ev.Action.String())
	}
}

func (t *Tray) setLastAction(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.lastAction = name
	if t.menuLastAction != nil {
		t.menuLastAction.SetTitle(lastTitle(name))
	}
}

// LastAction returns the label of the most recent fired action.
func (t *Tray) LastAction() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastAction
}

func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

func lastTitle(name string) string {
	if name == "" {
		return "Last: none"
	}
	return "Last: " + name
}
