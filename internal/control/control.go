// Package control maps detected hands onto game input. Each Controller
// implements one play style: a steering wheel on a virtual gamepad, WASD
// driving, finger-pattern game controls, the hand simulator and menu
// navigation.
package control

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/airsync/internal/detector"
	"github.com/ayusman/airsync/internal/input"
)

// Controller names.
const (
	NameWheel     = "wheel"
	NameDrive     = "drive"
	NameFingers   = "fingers"
	NameSimulator = "simulator"
	NameMenu      = "menu"
)

var (
	// ErrUnknownController is returned for names outside Names.
	ErrUnknownController = errors.New("unknown controller")
	// ErrUnknownSlot is returned when binding a slot a controller lacks.
	ErrUnknownSlot = errors.New("unknown binding slot")
	// ErrMissingDevice is returned when a controller is built without the
	// input device it drives.
	ErrMissingDevice = errors.New("missing input device")
)

// Frame is one detector result handed to a controller.
type Frame struct {
	Hands  []detector.HandLandmarks
	Width  int
	Height int
	Time   time.Time
}

// State is a snapshot of what a controller is doing.
type State struct {
	Controller string     `json:"controller"`
	Mode       string     `json:"mode,omitempty"`
	Action     string     `json:"action,omitempty"`
	Hands      int        `json:"hands"`
	Keys       []string   `json:"keys,omitempty"`
	Buttons    []string   `json:"buttons,omitempty"`
	Joystick   float64    `json:"joystick"`
	Triggers   [2]float64 `json:"triggers"`
	Fingers    string     `json:"fingers,omitempty"`
	// Angles is the middle joint bend of each finger in degrees.
	Angles     []float64  `json:"angles,omitempty"`
	Rotation   float64    `json:"rotation,omitempty"`
	Predicted  bool       `json:"predicted,omitempty"`
}

// Controller turns frames into input events.
type Controller interface {
	Name() string
	// Process handles one frame. Errors come from the input backend; the
	// caller logs them and carries on with the next frame.
	Process(f Frame) error
	// Release lets go of every held key and button and centers the gamepad.
	Release() error
	State() State
}

// Bindable is implemented by controllers whose keys can be rebound.
type Bindable interface {
	Bind(slot, key string) error
}

// Config groups the per-controller settings.
type Config struct {
	Wheel     WheelConfig     `yaml:"wheel"`
	Drive     DriveConfig     `yaml:"drive"`
	Fingers   FingersConfig   `yaml:"fingers"`
	Simulator SimulatorConfig `yaml:"simulator"`
	Menu      MenuConfig      `yaml:"menu"`
}

// DefaultConfig returns the defaults for every controller.
func DefaultConfig() Config {
	return Config{
		Wheel:     DefaultWheelConfig(),
		Drive:     DefaultDriveConfig(),
		Fingers:   DefaultFingersConfig(),
		Simulator: DefaultSimulatorConfig(),
		Menu:      DefaultMenuConfig(),
	}
}

// Names lists the controllers New can build.
func Names() []string {
	return []string{NameWheel, NameDrive, NameFingers, NameSimulator, NameMenu}
}

// Devices returns which input devices the named controller drives.
func Devices(name string) (input.Options, error) {
	switch name {
	case NameWheel:
		return input.Options{Gamepad: true}, nil
	case NameDrive, NameMenu:
		return input.Options{Keyboard: true}, nil
	case NameFingers, NameSimulator:
		return input.Options{Keyboard: true, Mouse: true}, nil
	}
	return input.Options{}, fmt.Errorf("%w: %q", ErrUnknownController, name)
}

// New builds the named controller on devs.
func New(name string, cfg Config, devs *input.Devices, logger *zap.Logger) (Controller, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named(name)

	need, err := Devices(name)
	if err != nil {
		return nil, err
	}
	if devs == nil ||
		(need.Keyboard && devs.Keyboard == nil) ||
		(need.Mouse && devs.Mouse == nil) ||
		(need.Gamepad && devs.Gamepad == nil) {
		return nil, fmt.Errorf("%s: %w", name, ErrMissingDevice)
	}

	switch name {
	case NameWheel:
		return NewWheel(cfg.Wheel, devs.Gamepad, logger), nil
	case NameDrive:
		return NewDrive(cfg.Drive, devs.Keyboard, logger), nil
	case NameFingers:
		return NewFingers(cfg.Fingers, devs.Keyboard, devs.Mouse, logger), nil
	case NameSimulator:
		return NewSimulator(cfg.Simulator, devs.Keyboard, devs.Mouse, logger), nil
	default:
		return NewMenu(cfg.Menu, devs.Keyboard, logger), nil
	}
}

// defaultBindings holds the default key of every rebindable slot.
var defaultBindings = map[string]map[string]string{
	NameDrive: {
		"forward": input.KeyW,
		"left":    input.KeyA,
		"right":   input.KeyD,
		"reverse": input.KeyS,
	},
	NameFingers: {
		"forward": input.KeyW,
		"left":    input.KeyA,
		"right":   input.KeyD,
		"reverse": input.KeyS,
		"menu":    input.KeyEsc,
	},
	NameSimulator: {
		"thumb":       input.KeySpace,
		"index":       input.KeyF,
		"middle":      input.KeyD,
		"ring":        input.KeyS,
		"pinky":       input.KeyA,
		"hand_switch": input.KeyShift,
		"up":          input.KeyUp,
		"down":        input.KeyDown,
		"left":        input.KeyLeft,
		"right":       input.KeyRight,
	},
	NameMenu: {
		"thumb":  input.KeySpace,
		"index":  input.KeyF,
		"middle": input.KeyD,
		"ring":   input.KeyS,
		"pinky":  input.KeyA,
		"submit": input.KeyEnter,
		"cancel": input.KeyEsc,
		"up":     input.KeyUp,
		"down":   input.KeyDown,
		"left":   input.KeyLeft,
		"right":  input.KeyRight,
	},
}

// Slots returns the rebindable slots of the named controller, sorted.
// Controllers without keys have none.
func Slots(name string) ([]string, error) {
	if _, err := Devices(name); err != nil {
		return nil, err
	}
	slots := make([]string, 0, len(defaultBindings[name]))
	for s := range defaultBindings[name] {
		slots = append(slots, s)
	}
	sort.Strings(slots)
	return slots, nil
}

// ValidateBinding checks that slot exists for the controller and key is known.
func ValidateBinding(name, slot, key string) error {
	defaults, ok := defaultBindings[name]
	if !ok {
		if _, err := Devices(name); err != nil {
			return err
		}
		return fmt.Errorf("%w: %s has no bindings", ErrUnknownSlot, name)
	}
	if _, ok := defaults[slot]; !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownSlot, name, slot)
	}
	return input.CheckKey(key)
}

// DefaultKey returns the key slot is bound to when no override exists.
func DefaultKey(name, slot string) (string, bool) {
	k, ok := defaultBindings[name][slot]
	return k, ok
}

// keymap resolves slots to keys, starting from a controller's defaults.
type keymap struct {
	name string
	keys map[string]string
}

func newKeymap(name string) keymap {
	keys := make(map[string]string, len(defaultBindings[name]))
	for s, k := range defaultBindings[name] {
		keys[s] = k
	}
	return keymap{name: name, keys: keys}
}

func (m *keymap) bind(slot, key string) error {
	if err := ValidateBinding(m.name, slot, key); err != nil {
		return err
	}
	m.keys[slot] = key
	return nil
}

func (m *keymap) key(slot string) string { return m.keys[slot] }

func (m *keymap) keysFor(slots ...string) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, m.keys[s])
	}
	return out
}

func buttonNames(bs []input.Button) []string {
	if len(bs) == 0 {
		return nil
	}
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.String()
	}
	return out
}

func nonEmpty(keys []string) []string {
	if len(keys) == 0 {
		return nil
	}
	return keys
}
