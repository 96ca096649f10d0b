package control

import (
	"sync"

	"go.uber.org/zap"

	"github.com/ayusman/airsync/internal/detector"
	"github.com/ayusman/airsync/internal/gesture"
	"github.com/ayusman/airsync/internal/input"
)

// DriveConfig tunes the two-wrist motion controller.
type DriveConfig struct {
	// Threshold is the wrist height difference in pixels that turns.
	Threshold int `yaml:"threshold"`
}

// DefaultDriveConfig returns the drive defaults.
func DefaultDriveConfig() DriveConfig {
	return DriveConfig{Threshold: gesture.DefaultTurnThreshold}
}

// Drive holds WASD keys from the slope between both wrists: one hand
// reverses, two hands drive forward and steer toward the lower wrist.
type Drive struct {
	mu     sync.Mutex
	cfg    DriveConfig
	keys   *input.KeySet
	keymap keymap
	logger *zap.Logger
	turn   gesture.Turn
	state  State
}

// NewDrive returns a drive controller on kb.
func NewDrive(cfg DriveConfig, kb input.Keyboard, logger *zap.Logger) *Drive {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Drive{
		cfg:    cfg,
		keys:   input.NewKeySet(kb),
		keymap: newKeymap(NameDrive),
		logger: logger,
		state:  State{Controller: NameDrive},
	}
}

func (d *Drive) Name() string { return NameDrive }

// Bind maps a slot (forward, left, right, reverse) to a key.
func (d *Drive) Bind(slot, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.keymap.bind(slot, key)
}

// UpdateConfig applies new tunables.
func (d *Drive) UpdateConfig(cfg DriveConfig) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cfg = cfg
}

func (d *Drive) Process(f Frame) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	wrists := make([]gesture.Pixel, 0, len(f.Hands))
	for _, h := range f.Hands {
		x, y, ok := detector.PixelCoords(h.Wrist(), f.Width, f.Height)
		if !ok {
			continue
		}
		wrists = append(wrists, gesture.Pixel{X: x, Y: y})
	}
	d.state.Hands = len(f.Hands)

	turn := gesture.ClassifyTurn(wrists, d.cfg.Threshold)
	if turn == gesture.TurnUndetermined {
		return nil
	}

	var want []string
	switch turn {
	case gesture.TurnLeft:
		want = d.keymap.keysFor("forward", "left")
	case gesture.TurnRight:
		want = d.keymap.keysFor("forward", "right")
	case gesture.TurnStraight:
		want = d.keymap.keysFor("forward")
	case gesture.TurnReverse:
		want = d.keymap.keysFor("reverse")
	}
	if turn != d.turn {
		d.logger.Debug("turn", zap.Stringer("turn", turn), zap.Strings("keys", want))
	}
	if err := d.keys.Sync(want...); err != nil {
		return err
	}
	d.turn = turn
	d.state.Action = turn.String()
	if turn == gesture.TurnNone {
		d.state.Action = ""
	}
	d.state.Keys = nonEmpty(d.keys.Pressed())
	return nil
}

func (d *Drive) Release() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	err := d.keys.ReleaseAll()
	d.turn = gesture.TurnNone
	d.state.Action = ""
	d.state.Keys = nonEmpty(d.keys.Pressed())
	return err
}

func (d *Drive) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.state
	s.Keys = nonEmpty(append([]string(nil), s.Keys...))
	return s
}
