package control

import (
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/airsync/internal/detector"
	"github.com/ayusman/airsync/internal/gesture"
	"github.com/ayusman/airsync/internal/input"
)

// Fingers modes.
const (
	ModeKeyboard = "keyboard"
	ModeMouse    = "mouse"
)

// FingersConfig tunes the finger-pattern controller.
type FingersConfig struct {
	// ToggleDebounce is the minimum time between two mode switches.
	ToggleDebounce time.Duration `yaml:"toggle_debounce"`
	// MouseGain converts normalized index tip motion to pointer pixels.
	MouseGain  float64 `yaml:"mouse_gain"`
	ScrollStep int     `yaml:"scroll_step"`
}

// DefaultFingersConfig returns the finger controller defaults.
func DefaultFingersConfig() FingersConfig {
	return FingersConfig{
		ToggleDebounce: 5 * time.Second,
		MouseGain:      1500,
		ScrollStep:     1,
	}
}

var (
	toggleFingers = gesture.Fingers{gesture.Thumb: true, gesture.Pinky: true}

	// fingerPatterns are the keyboard mode poses, named after the slots
	// whose keys they hold.
	fingerPatterns = []gesture.Pattern{
		{Name: "forward", Fingers: gesture.Fingers{gesture.Index: true}},
		{Name: "forward_left", Fingers: gesture.Fingers{gesture.Thumb: true, gesture.Index: true}},
		{Name: "forward_right", Fingers: gesture.Fingers{gesture.Index: true, gesture.Middle: true}},
		{Name: "reverse", Fingers: gesture.Fingers{true, true, true, true, true}},
		{Name: "menu", Fingers: gesture.Fingers{gesture.Thumb: true, gesture.Ring: true}},
	}
)

// Fingers drives keys from finger patterns of the first detected hand and
// can switch to steering the mouse. Thumb and pinky alone toggle the mode.
type Fingers struct {
	mu      sync.Mutex
	cfg     FingersConfig
	keys    *input.KeySet
	buttons *input.ButtonSet
	mouse   input.Mouse
	keymap  keymap
	matcher *gesture.Matcher
	logger  *zap.Logger

	mode       string
	lastToggle time.Time
	clicked    bool
	lastTip    *detector.Point3D
	state      State
}

// NewFingers returns a finger controller starting in keyboard mode.
func NewFingers(cfg FingersConfig, kb input.Keyboard, mouse input.Mouse, logger *zap.Logger) *Fingers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fingers{
		cfg:     cfg,
		keys:    input.NewKeySet(kb),
		buttons: input.NewButtonSet(mouse),
		mouse:   mouse,
		keymap:  newKeymap(NameFingers),
		matcher: gesture.NewMatcher(fingerPatterns...),
		logger:  logger,
		mode:    ModeKeyboard,
		state:   State{Controller: NameFingers, Mode: ModeKeyboard},
	}
}

func (c *Fingers) Name() string { return NameFingers }

// Bind maps a slot (forward, left, right, reverse, menu) to a key.
func (c *Fingers) Bind(slot, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.keymap.bind(slot, key)
}

// UpdateConfig applies new tunables.
func (c *Fingers) UpdateConfig(cfg FingersConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = cfg
}

// Mode returns the current mode.
func (c *Fingers) Mode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func (c *Fingers) Process(f Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// The debounce window starts with the first frame.
	if c.lastToggle.IsZero() {
		c.lastToggle = f.Time
	}
	c.state.Hands = len(f.Hands)
	if len(f.Hands) == 0 {
		c.state.Fingers = ""
		c.state.Angles = nil
		c.state.Action = ""
		return c.releaseLocked()
	}

	hand := &f.Hands[0]
	fingers := gesture.FingerStates(hand)
	c.state.Fingers = fingers.String()
	angles := gesture.FingerAngles(hand)
	c.state.Angles = angles[:]

	if fingers == toggleFingers {
		if f.Time.Sub(c.lastToggle) > c.cfg.ToggleDebounce {
			return c.toggle(f.Time)
		}
		return nil
	}

	if c.mode == ModeMouse {
		return c.mouseFrame(hand, fingers)
	}
	return c.keyboardFrame(fingers)
}

func (c *Fingers) toggle(now time.Time) error {
	err := c.releaseLocked()
	c.lastToggle = now
	if c.mode == ModeKeyboard {
		c.mode = ModeMouse
	} else {
		c.mode = ModeKeyboard
	}
	c.state.Mode = c.mode
	c.state.Action = "switch " + c.mode
	c.logger.Info("mode switched", zap.String("mode", c.mode))
	return err
}

func (c *Fingers) keyboardFrame(fingers gesture.Fingers) error {
	var want []string
	name, ok := c.matcher.Match(fingers)
	if ok {
		switch name {
		case "forward_left":
			want = c.keymap.keysFor("forward", "left")
		case "forward_right":
			want = c.keymap.keysFor("forward", "right")
		default:
			want = c.keymap.keysFor(name)
		}
	}
	if err := c.keys.Sync(want...); err != nil {
		return err
	}
	c.state.Action = name
	c.state.Keys = nonEmpty(c.keys.Pressed())
	return nil
}

func (c *Fingers) mouseFrame(hand *detector.HandLandmarks, fingers gesture.Fingers) error {
	c.state.Action = ""

	if fingers[gesture.Thumb] && !fingers[gesture.Index] {
		if !c.clicked {
			if err := c.buttons.Click(input.ButtonLeft); err != nil {
				return err
			}
			c.clicked = true
			c.state.Action = "click"
		}
	} else {
		c.clicked = false
	}

	switch {
	case fingers.All():
		c.lastTip = nil
		if err := c.mouse.Scroll(c.cfg.ScrollStep); err != nil {
			return err
		}
		c.state.Action = "scroll"
	case fingers.Only(gesture.Index):
		tip := hand.Points[detector.IndexTip]
		last := c.lastTip
		c.lastTip = &tip
		c.state.Action = "move"
		if last == nil {
			return nil
		}
		dx := int(math.Round((tip.X - last.X) * c.cfg.MouseGain))
		dy := int(math.Round((tip.Y - last.Y) * c.cfg.MouseGain))
		if dx == 0 && dy == 0 {
			return nil
		}
		return c.mouse.Move(dx, dy)
	default:
		c.lastTip = nil
	}
	return nil
}

// releaseLocked is called with the lock held.
func (c *Fingers) releaseLocked() error {
	kerr := c.keys.ReleaseAll()
	berr := c.buttons.ReleaseAll()
	c.clicked = false
	c.lastTip = nil
	c.state.Keys = nonEmpty(c.keys.Pressed())
	if kerr != nil {
		return kerr
	}
	return berr
}

func (c *Fingers) Release() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Action = ""
	return c.releaseLocked()
}

func (c *Fingers) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.Keys = nonEmpty(append([]string(nil), s.Keys...))
	s.Angles = append([]float64(nil), s.Angles...)
	return s
}
