//go:build linux

package input

import (
	"errors"
	"fmt"

	"github.com/bendahl/uinput"
)

// Xbox 360 controller ids; games recognize the virtual pad without remapping.
const (
	gamepadVendor  = 0x045e
	gamepadProduct = 0x028e
)

// triggerThreshold is the trigger value at which the digital trigger button
// is pressed.
const triggerThreshold = 0.5

var uinputKeys = map[string]int{
	KeyW:     uinput.KeyW,
	KeyA:     uinput.KeyA,
	KeyS:     uinput.KeyS,
	KeyD:     uinput.KeyD,
	KeyE:     uinput.KeyE,
	KeyR:     uinput.KeyR,
	KeyF:     uinput.KeyF,
	KeyC:     uinput.KeyC,
	KeyX:     uinput.KeyX,
	KeyH:     uinput.KeyH,
	KeySpace: uinput.KeySpace,
	KeyShift: uinput.KeyLeftshift,
	KeyCtrl:  uinput.KeyLeftctrl,
	KeyEsc:   uinput.KeyEsc,
	KeyEnter: uinput.KeyEnter,
	KeyUp:    uinput.KeyUp,
	KeyDown:  uinput.KeyDown,
	KeyLeft:  uinput.KeyLeft,
	KeyRight: uinput.KeyRight,
}

func openPlatform(opts Options) (_ *Devices, err error) {
	d := &Devices{}
	defer func() {
		if err != nil {
			err = errors.Join(err, d.Close())
		}
	}()

	if opts.Keyboard {
		kb, err := uinput.CreateKeyboard(opts.Path, []byte(opts.Name+" keyboard"))
		if err != nil {
			return nil, fmt.Errorf("create keyboard: %w", err)
		}
		d.Keyboard = &uinputKeyboard{dev: kb}
	}
	if opts.Mouse {
		m, err := uinput.CreateMouse(opts.Path, []byte(opts.Name+" mouse"))
		if err != nil {
			return nil, fmt.Errorf("create mouse: %w", err)
		}
		d.Mouse = &uinputMouse{dev: m}
	}
	if opts.Gamepad {
		gp, err := uinput.CreateGamepad(opts.Path, []byte(opts.Name+" wheel"), gamepadVendor, gamepadProduct)
		if err != nil {
			return nil, fmt.Errorf("create gamepad: %w", err)
		}
		d.Gamepad = &uinputGamepad{dev: gp}
	}
	return d, nil
}

type uinputKeyboard struct {
	dev uinput.Keyboard
}

func (k *uinputKeyboard) code(key string) (int, error) {
	code, ok := uinputKeys[key]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return code, nil
}

func (k *uinputKeyboard) KeyDown(key string) error {
	code, err := k.code(key)
	if err != nil {
		return err
	}
	return k.dev.KeyDown(code)
}

func (k *uinputKeyboard) KeyUp(key string) error {
	code, err := k.code(key)
	if err != nil {
		return err
	}
	return k.dev.KeyUp(code)
}

func (k *uinputKeyboard) Close() error { return k.dev.Close() }

type uinputMouse struct {
	dev uinput.Mouse
}

func (m *uinputMouse) Move(dx, dy int) error {
	var err error
	switch {
	case dx > 0:
		err = m.dev.MoveRight(int32(dx))
	case dx < 0:
		err = m.dev.MoveLeft(int32(-dx))
	}
	if err != nil {
		return err
	}
	switch {
	case dy > 0:
		err = m.dev.MoveDown(int32(dy))
	case dy < 0:
		err = m.dev.MoveUp(int32(-dy))
	}
	return err
}

func (m *uinputMouse) Scroll(delta int) error {
	if delta == 0 {
		return nil
	}
	return m.dev.Wheel(false, int32(delta))
}

func (m *uinputMouse) ButtonDown(b Button) error {
	switch b {
	case ButtonLeft:
		return m.dev.LeftPress()
	case ButtonRight:
		return m.dev.RightPress()
	case ButtonMiddle:
		return m.dev.MiddlePress()
	}
	return fmt.Errorf("unknown mouse button %v", b)
}

func (m *uinputMouse) ButtonUp(b Button) error {
	switch b {
	case ButtonLeft:
		return m.dev.LeftRelease()
	case ButtonRight:
		return m.dev.RightRelease()
	case ButtonMiddle:
		return m.dev.MiddleRelease()
	}
	return fmt.Errorf("unknown mouse button %v", b)
}

func (m *uinputMouse) Click(b Button) error {
	switch b {
	case ButtonLeft:
		return m.dev.LeftClick()
	case ButtonRight:
		return m.dev.RightClick()
	case ButtonMiddle:
		return m.dev.MiddleClick()
	}
	return fmt.Errorf("unknown mouse button %v", b)
}

func (m *uinputMouse) Close() error { return m.dev.Close() }

// uinputGamepad drives the left stick as analog axes. Triggers are sent as
// the digital trigger buttons, pressed at triggerThreshold.
type uinputGamepad struct {
	dev      uinput.Gamepad
	stick    [2]float64
	triggers [2]float64
	held     [2]bool
}

func (g *uinputGamepad) SetLeftStick(x, y float64) {
	g.stick = [2]float64{ClampStick(x), ClampStick(y)}
}

func (g *uinputGamepad) SetTriggers(left, right float64) {
	g.triggers = [2]float64{ClampTrigger(left), ClampTrigger(right)}
}

func (g *uinputGamepad) Update() error {
	if err := g.dev.LeftStickMoveX(float32(g.stick[0])); err != nil {
		return fmt.Errorf("stick x: %w", err)
	}
	if err := g.dev.LeftStickMoveY(float32(g.stick[1])); err != nil {
		return fmt.Errorf("stick y: %w", err)
	}
	buttons := [2]int{uinput.ButtonTriggerLeft, uinput.ButtonTriggerRight}
	for i, v := range g.triggers {
		want := v >= triggerThreshold
		if want == g.held[i] {
			continue
		}
		var err error
		if want {
			err = g.dev.ButtonDown(buttons[i])
		} else {
			err = g.dev.ButtonUp(buttons[i])
		}
		if err != nil {
			return fmt.Errorf("trigger: %w", err)
		}
		g.held[i] = want
	}
	return nil
}

func (g *uinputGamepad) Reset() error {
	g.stick = [2]float64{}
	g.triggers = [2]float64{}
	return g.Update()
}

func (g *uinputGamepad) Close() error { return g.dev.Close() }
