package control

import (
	"sync"

	"go.uber.org/zap"

	"github.com/ayusman/airsync/internal/detector"
	"github.com/ayusman/airsync/internal/gesture"
	"github.com/ayusman/airsync/internal/input"
)

// MenuConfig tunes menu navigation.
type MenuConfig struct {
	Low  float64 `yaml:"low"`
	High float64 `yaml:"high"`
}

// DefaultMenuConfig returns the menu defaults.
func DefaultMenuConfig() MenuConfig {
	return MenuConfig{Low: gesture.DefaultLow, High: gesture.DefaultHigh}
}

// Menu navigates game menus: hand position holds an arrow key, extended
// fingers hold their keys, two open palms submit and a left fist cancels.
type Menu struct {
	mu     sync.Mutex
	cfg    MenuConfig
	keys   *input.KeySet
	keymap keymap
	logger *zap.Logger

	submitted bool
	cancelled bool
	state     State
}

// NewMenu returns a menu controller on kb.
func NewMenu(cfg MenuConfig, kb input.Keyboard, logger *zap.Logger) *Menu {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Menu{
		cfg:    cfg,
		keys:   input.NewKeySet(kb),
		keymap: newKeymap(NameMenu),
		logger: logger,
		state:  State{Controller: NameMenu},
	}
}

func (m *Menu) Name() string { return NameMenu }

// Bind maps a finger, submit, cancel or arrow slot to a key.
func (m *Menu) Bind(slot, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.keymap.bind(slot, key)
}

// UpdateConfig applies new tunables.
func (m *Menu) UpdateConfig(cfg MenuConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = cfg
}

func (m *Menu) Process(f Frame) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Hands = len(f.Hands)
	left, right := detector.SplitHands(f.Hands)
	if left == nil && right == nil {
		m.submitted, m.cancelled = false, false
		m.state.Action = ""
		m.state.Fingers = ""
		return m.releaseLocked()
	}

	lf, rf := gesture.FingerStates(left), gesture.FingerStates(right)
	fingers := lf.Or(rf)
	m.state.Fingers = fingers.String()

	var want []string
	if dir := gesture.TwoHandMovement(left, right, m.cfg.Low, m.cfg.High); dir != gesture.DirNone {
		want = append(want, m.keymap.key(string(dir)))
	}
	for i, name := range gesture.FingerNames {
		if fingers[i] {
			want = append(want, m.keymap.key(name))
		}
	}
	if err := m.keys.Sync(want...); err != nil {
		return err
	}
	m.state.Keys = nonEmpty(m.keys.Pressed())
	m.state.Action = ""

	both := left != nil && right != nil
	submit := both && lf.All() && rf.All()
	cancel := both && lf.None()

	if submit && !m.submitted {
		if err := m.keys.Tap(m.keymap.key("submit")); err != nil {
			return err
		}
		m.state.Action = "submit"
		m.logger.Debug("submit")
	}
	if cancel && !m.cancelled {
		if err := m.keys.Tap(m.keymap.key("cancel")); err != nil {
			return err
		}
		m.state.Action = "cancel"
		m.logger.Debug("cancel")
	}
	m.submitted, m.cancelled = submit, cancel
	return nil
}

// releaseLocked is called with the lock held.
func (m *Menu) releaseLocked() error {
	err := m.keys.ReleaseAll()
	m.state.Keys = nonEmpty(m.keys.Pressed())
	return err
}

func (m *Menu) Release() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitted, m.cancelled = false, false
	m.state.Action = ""
	return m.releaseLocked()
}

func (m *Menu) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.state
	s.Keys = nonEmpty(append([]string(nil), s.Keys...))
	return s
}
