package input

import (
	"fmt"
	"sort"
)

// Key names understood by every backend.
const (
	KeyW     = "w"
	KeyA     = "a"
	KeyS     = "s"
	KeyD     = "d"
	KeyE     = "e"
	KeyR     = "r"
	KeyF     = "f"
	KeyC     = "c"
	KeyX     = "x"
	KeyH     = "h"
	KeySpace = "space"
	KeyShift = "shift"
	KeyCtrl  = "ctrl"
	KeyEsc   = "esc"
	KeyEnter = "enter"
	KeyUp    = "up"
	KeyDown  = "down"
	KeyLeft  = "left"
	KeyRight = "right"
)

var keyTable = map[string]struct{}{
	KeyW: {}, KeyA: {}, KeyS: {}, KeyD: {},
	KeyE: {}, KeyR: {}, KeyF: {}, KeyC: {}, KeyX: {}, KeyH: {},
	KeySpace: {}, KeyShift: {}, KeyCtrl: {}, KeyEsc: {}, KeyEnter: {},
	KeyUp: {}, KeyDown: {}, KeyLeft: {}, KeyRight: {},
}

// ValidKey reports whether name is in the key table.
func ValidKey(name string) bool {
	_, ok := keyTable[name]
	return ok
}

// CheckKey returns ErrUnknownKey for names outside the key table.
func CheckKey(name string) error {
	if !ValidKey(name) {
		return fmt.Errorf("%w: %q", ErrUnknownKey, name)
	}
	return nil
}

// KeyNames returns every known key name, sorted.
func KeyNames() []string {
	names := make([]string, 0, len(keyTable))
	for k := range keyTable {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
