package control

import (
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/ayusman/airsync/internal/detector"
	"github.com/ayusman/airsync/internal/gesture"
	"github.com/ayusman/airsync/internal/input"
)

// SimulatorConfig tunes the hand simulator.
type SimulatorConfig struct {
	// ThumbWhenOpen holds the thumb key while the thumb is extended. The
	// other finger keys are held while their finger is curled.
	ThumbWhenOpen bool    `yaml:"thumb_when_open"`
	Low           float64 `yaml:"low"`
	High          float64 `yaml:"high"`
	MoveScale     float64 `yaml:"move_scale"`
	DepthScale    float64 `yaml:"depth_scale"`
	WheelScale    float64 `yaml:"wheel_scale"`
	Smoothing     float64 `yaml:"smoothing"`
	History       int     `yaml:"history"`
}

// DefaultSimulatorConfig returns the simulator defaults.
func DefaultSimulatorConfig() SimulatorConfig {
	return SimulatorConfig{
		ThumbWhenOpen: true,
		Low:           gesture.DefaultLow,
		High:          gesture.DefaultHigh,
		MoveScale:     1000,
		DepthScale:    1000,
		WheelScale:    500,
		Smoothing:     0.6,
		History:       gesture.DefaultHistory,
	}
}

type motion struct{ dx, dy, wheel float64 }

// Simulator plays hand simulator games with the most prominent hand: finger
// keys, arrow keys from the wrist position, a fist for the left button and
// wrist motion for the pointer and wheel.
type Simulator struct {
	mu      sync.Mutex
	cfg     SimulatorConfig
	keys    *input.KeySet
	buttons *input.ButtonSet
	mouse   input.Mouse
	keymap  keymap
	logger  *zap.Logger

	bounds   *gesture.Bounds
	active   string
	prev     *detector.Point3D
	history  []motion
	rotation gesture.RotationTracker
	state    State
}

// NewSimulator returns a simulator on kb and mouse. The right hand starts
// as the active hand.
func NewSimulator(cfg SimulatorConfig, kb input.Keyboard, mouse input.Mouse, logger *zap.Logger) *Simulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulator{
		cfg:     cfg,
		keys:    input.NewKeySet(kb),
		buttons: input.NewButtonSet(mouse),
		mouse:   mouse,
		keymap:  newKeymap(NameSimulator),
		logger:  logger,
		active:  detector.Right,
		state:   State{Controller: NameSimulator, Mode: detector.Right},
	}
}

func (s *Simulator) Name() string { return NameSimulator }

// Bind maps a finger, hand_switch or arrow slot to a key.
func (s *Simulator) Bind(slot, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keymap.bind(slot, key)
}

// UpdateConfig applies new tunables.
func (s *Simulator) UpdateConfig(cfg SimulatorConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
}

// SetBounds sets the calibrated wrist bounds; nil uses raw coordinates.
func (s *Simulator) SetBounds(b *gesture.Bounds) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bounds = b
	s.prev = nil
	s.history = nil
}

func (s *Simulator) Process(f Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Hands = len(f.Hands)
	hand := MainHand(f.Hands)
	if hand == nil {
		s.prev = nil
		s.history = nil
		s.rotation.Reset()
		s.state.Action = ""
		s.state.Fingers = ""
		return s.releaseLocked()
	}

	handedness := detector.Left
	if hand.IsRight() {
		handedness = detector.Right
	}
	if handedness != s.active {
		s.logger.Debug("hand switch", zap.String("from", s.active), zap.String("to", handedness))
		s.active = handedness
		s.state.Mode = handedness
		if err := s.keys.Tap(s.keymap.key("hand_switch")); err != nil {
			return err
		}
	}

	fingers := gesture.FingerStates(hand)
	s.state.Fingers = fingers.String()
	s.state.Rotation = s.rotation.Add(gesture.Rotation(hand))

	pos := hand.Wrist()
	if s.bounds != nil {
		pos = s.bounds.Normalize(pos)
	}

	want := s.fingerKeys(fingers)
	want = append(want, s.arrowKeys(pos)...)
	if err := s.keys.Sync(want...); err != nil {
		return err
	}
	s.state.Keys = nonEmpty(s.keys.Pressed())

	var buttons []input.Button
	s.state.Action = ""
	if fingers.None() {
		buttons = append(buttons, input.ButtonLeft)
		s.state.Action = "fist"
	}
	if err := s.buttons.Sync(buttons...); err != nil {
		return err
	}
	s.state.Buttons = buttonNames(s.buttons.Pressed())

	return s.moveMouse(pos)
}

func (s *Simulator) fingerKeys(fingers gesture.Fingers) []string {
	var keys []string
	for i, name := range gesture.FingerNames {
		held := !fingers[i]
		if i == gesture.Thumb && s.cfg.ThumbWhenOpen {
			held = fingers[i]
		}
		if held {
			keys = append(keys, s.keymap.key(name))
		}
	}
	return keys
}

func (s *Simulator) arrowKeys(pos detector.Point3D) []string {
	dirs := gesture.Movement(pos.X, pos.Y, s.cfg.Low, s.cfg.High)
	var keys []string
	for _, d := range dirs.Keys() {
		keys = append(keys, s.keymap.key(d))
	}
	return keys
}

func (s *Simulator) moveMouse(pos detector.Point3D) error {
	prev := s.prev
	s.prev = &pos
	if prev == nil {
		return nil
	}

	s.history = append(s.history, motion{
		dx:    (pos.X - prev.X) * s.cfg.MoveScale,
		dy:    (pos.Z - prev.Z) * s.cfg.DepthScale,
		wheel: (prev.Y - pos.Y) * s.cfg.WheelScale,
	})
	size := s.cfg.History
	if size <= 0 {
		size = gesture.DefaultHistory
	}
	if len(s.history) > size {
		s.history = s.history[len(s.history)-size:]
	}

	var m motion
	for _, h := range s.history {
		m.dx += h.dx
		m.dy += h.dy
		m.wheel += h.wheel
	}
	n := float64(len(s.history))
	m.dx = m.dx / n * s.cfg.Smoothing
	m.dy = m.dy / n * s.cfg.Smoothing
	m.wheel = m.wheel / n * s.cfg.Smoothing

	if math.Abs(m.dx) > 1 || math.Abs(m.dy) > 1 {
		if err := s.mouse.Move(int(math.Round(m.dx)), int(math.Round(m.dy))); err != nil {
			return err
		}
	}
	if math.Abs(m.wheel) > 1 {
		return s.mouse.Scroll(int(math.Round(m.wheel)))
	}
	return nil
}

// MainHand picks the hand with the largest bounding box.
func MainHand(hands []detector.HandLandmarks) *detector.HandLandmarks {
	var best *detector.HandLandmarks
	area := -1.0
	for i := range hands {
		if a := hands[i].BoundingBoxArea(); a > area {
			best, area = &hands[i], a
		}
	}
	return best
}

// releaseLocked is called with the lock held.
func (s *Simulator) releaseLocked() error {
	kerr := s.keys.ReleaseAll()
	berr := s.buttons.ReleaseAll()
	s.state.Keys = nonEmpty(s.keys.Pressed())
	s.state.Buttons = buttonNames(s.buttons.Pressed())
	if kerr != nil {
		return kerr
	}
	return berr
}

func (s *Simulator) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prev = nil
	s.history = nil
	s.state.Action = ""
	return s.releaseLocked()
}

func (s *Simulator) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.Keys = nonEmpty(append([]string(nil), st.Keys...))
	st.Buttons = nonEmpty(append([]string(nil), st.Buttons...))
	return st
}
