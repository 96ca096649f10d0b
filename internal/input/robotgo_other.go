//go:build !linux

package input

import (
	"fmt"

	"github.com/go-vgo/robotgo"
)

var robotgoKeys = map[string]string{
	KeyW:     "w",
	KeyA:     "a",
	KeyS:     "s",
	KeyD:     "d",
	KeyE:     "e",
	KeyR:     "r",
	KeyF:     "f",
	KeyC:     "c",
	KeyX:     "x",
	KeyH:     "h",
	KeySpace: "space",
	KeyShift: "shift",
	KeyCtrl:  "control",
	KeyEsc:   "escape",
	KeyEnter: "enter",
	KeyUp:    "up",
	KeyDown:  "down",
	KeyLeft:  "left",
	KeyRight: "right",
}

var robotgoButtons = map[Button]string{
	ButtonLeft:   "left",
	ButtonRight:  "right",
	ButtonMiddle: "center",
}

// openPlatform drives the keyboard and mouse through robotgo. There is no
// virtual gamepad outside linux, so asking for one fails with ErrUnsupported.
func openPlatform(opts Options) (*Devices, error) {
	if opts.Gamepad {
		return nil, fmt.Errorf("virtual gamepad: %w", ErrUnsupported)
	}
	d := &Devices{}
	if opts.Keyboard {
		d.Keyboard = robotgoKeyboard{}
	}
	if opts.Mouse {
		d.Mouse = robotgoMouse{}
	}
	return d, nil
}

type robotgoKeyboard struct{}

func (robotgoKeyboard) toggle(key, dir string) error {
	name, ok := robotgoKeys[key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return robotgo.KeyToggle(name, dir)
}

func (k robotgoKeyboard) KeyDown(key string) error { return k.toggle(key, "down") }
func (k robotgoKeyboard) KeyUp(key string) error   { return k.toggle(key, "up") }
func (robotgoKeyboard) Close() error               { return nil }

type robotgoMouse struct{}

func (robotgoMouse) Move(dx, dy int) error {
	robotgo.MoveRelative(dx, dy)
	return nil
}

func (robotgoMouse) Scroll(delta int) error {
	if delta != 0 {
		robotgo.Scroll(0, delta)
	}
	return nil
}

func (robotgoMouse) button(b Button) (string, error) {
	name, ok := robotgoButtons[b]
	if !ok {
		return "", fmt.Errorf("unknown mouse button %v", b)
	}
	return name, nil
}

func (m robotgoMouse) ButtonDown(b Button) error {
	name, err := m.button(b)
	if err != nil {
		return err
	}
	return robotgo.Toggle(name, "down")
}

func (m robotgoMouse) ButtonUp(b Button) error {
	name, err := m.button(b)
	if err != nil {
		return err
	}
	return robotgo.Toggle(name, "up")
}

func (m robotgoMouse) Click(b Button) error {
	if err := m.ButtonDown(b); err != nil {
		return err
	}
	return m.ButtonUp(b)
}

func (robotgoMouse) Close() error { return nil }
