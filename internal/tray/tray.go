// Package tray provides a system tray interface for AirSync.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/airsync/internal/app"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle func(enabled bool)
	onQuit   func()
	enabled  bool
	mode     string
	last     string
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuToggle *systray.MenuItem
	menuMode   *systray.MenuItem
	menuLast   *systray.MenuItem
}

// New creates a Tray showing mode and the given enabled state.
func New(mode string, enabled bool) *Tray {
	return &Tray{
		enabled: enabled,
		mode:    mode,
	}
}

// OnToggle sets the callback function to be called when the enabled state is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit closes the tray, unblocking Run.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("AirSync")
	systray.SetTooltip("AirSync hand gesture game control")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleLabel(t.enabled), "Toggle gesture input")
	systray.AddSeparator()

	t.menuMode = systray.AddMenuItem(modeLabel(t.mode), "Active controller")
	t.menuMode.Disable()
	t.menuLast = systray.AddMenuItem(lastLabel(t.last), "Last recognized action")
	t.menuLast.Disable()
	systray.AddSeparator()
	toggle := t.menuToggle
	t.mu.Unlock()

	menuQuit := systray.AddMenuItem("Quit", "Quit AirSync")

	go func() {
		for {
			select {
			case <-toggle.ClickedCh:
				t.handleToggle()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleLabel(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// Observe updates the labels and the toggle from pipeline telemetry, so
// changes made through the HTTP API show up in the menu. It is meant to be
// registered with app.App.Observe.
func (t *Tray) Observe(tel app.Telemetry) {
	t.SetEnabled(tel.Enabled)

	t.mu.Lock()
	defer t.mu.Unlock()

	if mode := tel.State.Controller; mode != "" {
		if tel.State.Mode != "" {
			mode += " (" + tel.State.Mode + ")"
		}
		if mode != t.mode {
			t.mode = mode
			if t.menuMode != nil {
				t.menuMode.SetTitle(modeLabel(mode))
			}
		}
	}
	if a := tel.State.Action; a != "" && a != t.last {
		t.last = a
		if t.menuLast != nil {
			t.menuLast.SetTitle(lastLabel(a))
		}
	}
}

// SetEnabled reflects an enabled change made elsewhere.
func (t *Tray) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.enabled == enabled {
		return
	}
	t.enabled = enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleLabel(enabled))
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// Labels returns the current mode and last action texts.
func (t *Tray) Labels() (mode, last string) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return modeLabel(t.mode), lastLabel(t.last)
}

func toggleLabel(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

func modeLabel(mode string) string {
	if mode == "" {
		return "Mode: none"
	}
	return "Mode: " + mode
}

func lastLabel(action string) string {
	if action == "" {
		return "Last: none"
	}
	return "Last: " + action
}
