package control

import (
	"sync"

	"go.uber.org/zap"

	"github.com/ayusman/airsync/internal/detector"
	"github.com/ayusman/airsync/internal/gesture"
	"github.com/ayusman/airsync/internal/input"
)

// WheelConfig tunes the steering wheel.
type WheelConfig struct {
	DeadZone          float64 `yaml:"dead_zone"`
	FullTurn          float64 `yaml:"full_turn"`
	SmoothingFactor   float64 `yaml:"smoothing_factor"`
	SmoothingHistory  int     `yaml:"smoothing_history"`
	ThumbThreshold    float64 `yaml:"thumb_threshold"`
	PredictFrames     int     `yaml:"predict_frames"`
	CalibrationFrames int     `yaml:"calibration_frames"`
}

// DefaultWheelConfig returns the wheel defaults.
func DefaultWheelConfig() WheelConfig {
	return WheelConfig{
		DeadZone:          gesture.DefaultDeadZone,
		FullTurn:          gesture.DefaultFullTurn,
		SmoothingFactor:   gesture.DefaultSmoothingFactor,
		SmoothingHistory:  gesture.DefaultHistory,
		ThumbThreshold:    gesture.DefaultThumbThreshold,
		PredictFrames:     3,
		CalibrationFrames: gesture.DefaultCalibrationFrames,
	}
}

// Wheel steers the left stick of a virtual gamepad with a wheel held between
// both wrists. Both thumbs out brakes, otherwise it accelerates.
type Wheel struct {
	mu     sync.Mutex
	cfg    WheelConfig
	pad    input.Gamepad
	logger *zap.Logger

	neutral  float64
	smoother *gesture.Smoother
	left     gesture.Track
	right    gesture.Track
	lost     int
	braking  bool
	centered bool
	state    State
}

// NewWheel returns a wheel controller driving pad.
func NewWheel(cfg WheelConfig, pad input.Gamepad, logger *zap.Logger) *Wheel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Wheel{
		cfg:      cfg,
		pad:      pad,
		logger:   logger,
		smoother: gesture.NewSmoother(cfg.SmoothingFactor, cfg.SmoothingHistory),
		left:     gesture.Track{Size: gesture.DefaultHistory},
		right:    gesture.Track{Size: gesture.DefaultHistory},
		centered: true,
		state:    State{Controller: NameWheel},
	}
}

func (w *Wheel) Name() string { return NameWheel }

// SetNeutral sets the calibrated neutral wheel angle in degrees.
func (w *Wheel) SetNeutral(angle float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.neutral = angle
}

// Neutral returns the neutral wheel angle.
func (w *Wheel) Neutral() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.neutral
}

// UpdateConfig applies new tunables; history buffers are kept.
func (w *Wheel) UpdateConfig(cfg WheelConfig) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cfg = cfg
	w.smoother.Factor = cfg.SmoothingFactor
	w.smoother.Size = cfg.SmoothingHistory
}

func (w *Wheel) Process(f Frame) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.state.Hands = len(f.Hands)
	left, right := detector.SplitHands(f.Hands)
	if left != nil && right != nil {
		w.lost = 0
		lw, rw := left.Wrist(), right.Wrist()
		w.left.Add(lw)
		w.right.Add(rw)
		w.braking = !gesture.IsAccelerating(left, right, w.cfg.ThumbThreshold)
		w.state.Predicted = false
		return w.steer(lw, rw)
	}

	w.lost++
	if w.lost <= w.cfg.PredictFrames {
		lw, lok := w.left.Predict()
		rw, rok := w.right.Predict()
		if lok && rok {
			w.left.Add(lw)
			w.right.Add(rw)
			w.state.Predicted = true
			return w.steer(lw, rw)
		}
	}
	if w.centered {
		return nil
	}
	w.logger.Debug("hands lost, centering wheel", zap.Int("frames", w.lost))
	return w.center()
}

func (w *Wheel) steer(lw, rw detector.Point3D) error {
	wheel := gesture.DetectWheel(lw, rw)
	angle := gesture.SteeringFromNeutral(wheel.Angle, w.neutral)
	angle = gesture.ApplyDeadZone(angle, w.cfg.DeadZone)
	angle = w.smoother.Add(angle)
	x := gesture.MapToJoystick(angle, w.cfg.FullTurn)

	trig := [2]float64{0, 1}
	action := "accelerate"
	if w.braking {
		trig = [2]float64{1, 0}
		action = "brake"
	}

	w.pad.SetLeftStick(x, 0)
	w.pad.SetTriggers(trig[0], trig[1])
	if err := w.pad.Update(); err != nil {
		return err
	}
	w.centered = false
	w.state.Joystick = x
	w.state.Triggers = trig
	w.state.Action = action
	return nil
}

// center is called with the lock held.
func (w *Wheel) center() error {
	w.smoother.Reset()
	w.left.Reset()
	w.right.Reset()
	w.braking = false
	w.state.Predicted = false
	w.state.Joystick = 0
	w.state.Triggers = [2]float64{}
	w.state.Action = ""
	if err := w.pad.Reset(); err != nil {
		return err
	}
	w.centered = true
	return nil
}

func (w *Wheel) Release() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lost = 0
	w.centered = false
	return w.center()
}

func (w *Wheel) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}
