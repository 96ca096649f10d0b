// Package input injects synthetic keyboard, mouse and gamepad events.
//
// Controllers talk to the Keyboard, Mouse and Gamepad interfaces. Open picks
// the platform backend: uinput on linux, robotgo elsewhere, or an in-memory
// Recorder for dry runs and tests.
package input

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var (
	// ErrUnknownKey is returned for key names outside the key table.
	ErrUnknownKey = errors.New("unknown key")
	// ErrUnsupported is returned when the platform lacks a device type.
	ErrUnsupported = errors.New("device not supported on this platform")
)

// DefaultDevicePath is the uinput control node on linux.
const DefaultDevicePath = "/dev/uinput"

// Button identifies a mouse button.
type Button int

const (
	ButtonLeft Button = iota
	ButtonRight
	ButtonMiddle
)

func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonRight:
		return "right"
	case ButtonMiddle:
		return "middle"
	default:
		return fmt.Sprintf("button(%d)", int(b))
	}
}

// Keyboard presses and releases keys by name.
type Keyboard interface {
	KeyDown(key string) error
	KeyUp(key string) error
	Close() error
}

// Mouse moves the pointer relatively, scrolls and presses buttons.
type Mouse interface {
	Move(dx, dy int) error
	Scroll(delta int) error
	ButtonDown(b Button) error
	ButtonUp(b Button) error
	Click(b Button) error
	Close() error
}

// Gamepad buffers stick and trigger values until Update sends them.
type Gamepad interface {
	// SetLeftStick sets the left stick, each axis in [-1, 1].
	SetLeftStick(x, y float64)
	// SetTriggers sets the triggers, each in [0, 1].
	SetTriggers(left, right float64)
	Update() error
	// Reset centers the stick, releases the triggers and sends the result.
	Reset() error
	Close() error
}

// Devices bundles the opened devices. Unrequested devices are nil.
type Devices struct {
	Keyboard Keyboard
	Mouse    Mouse
	Gamepad  Gamepad
}

// Close closes every opened device.
func (d *Devices) Close() error {
	var errs []error
	if d.Keyboard != nil {
		errs = append(errs, d.Keyboard.Close())
	}
	if d.Mouse != nil {
		errs = append(errs, d.Mouse.Close())
	}
	if d.Gamepad != nil {
		errs = append(errs, d.Gamepad.Close())
	}
	return errors.Join(errs...)
}

// Options selects which devices Open creates.
type Options struct {
	Keyboard bool
	Mouse    bool
	Gamepad  bool

	// DryRun records events in memory instead of injecting them.
	DryRun bool
	// Path is the uinput node; empty means DefaultDevicePath.
	Path string
	// Name prefixes virtual device names.
	Name   string
	Logger *zap.Logger
}

// Open creates the requested devices on the platform backend.
// Devices opened before a failure are closed again.
func Open(opts Options) (*Devices, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Path == "" {
		opts.Path = DefaultDevicePath
	}
	if opts.Name == "" {
		opts.Name = "airsync"
	}
	logger := opts.Logger.Named("input")

	if opts.DryRun {
		rec := NewRecorder(logger)
		d := &Devices{}
		if opts.Keyboard {
			d.Keyboard = rec
		}
		if opts.Mouse {
			d.Mouse = rec
		}
		if opts.Gamepad {
			d.Gamepad = rec
		}
		logger.Info("dry run, input events are recorded only")
		return d, nil
	}

	d, err := openPlatform(opts)
	if err != nil {
		return nil, err
	}
	logger.Info("input devices opened",
		zap.Bool("keyboard", d.Keyboard != nil),
		zap.Bool("mouse", d.Mouse != nil),
		zap.Bool("gamepad", d.Gamepad != nil))
	return d, nil
}

// ClampStick limits a stick axis to [-1, 1].
func ClampStick(v float64) float64 { return clamp(v, -1, 1) }

// ClampTrigger limits a trigger to [0, 1].
func ClampTrigger(v float64) float64 { return clamp(v, 0, 1) }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
