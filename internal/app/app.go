// Package app runs the AirSync pipeline: camera frames go through the hand
// detector and the active controller turns the hands into game input.
package app

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/airsync/internal/capture"
	"github.com/ayusman/airsync/internal/config"
	"github.com/ayusman/airsync/internal/control"
	"github.com/ayusman/airsync/internal/detector"
)

const (
	// FPSWindow is the number of frames the reported frame rate averages over.
	FPSWindow = 30
	// DefaultIdleAfter is how long the frame must stay still before the
	// pipeline drops to the idle frame rate.
	DefaultIdleAfter = 2 * time.Second
)

var (
	// ErrNotRunning is returned by calibration when the pipeline is stopped.
	ErrNotRunning = errors.New("pipeline is not running")
	// ErrBusy is returned when a calibration is already in progress.
	ErrBusy = errors.New("calibration already in progress")
)

// Options wires an App.
type Options struct {
	Camera     capture.Camera
	Detector   detector.Detector
	Controller control.Controller
	Pipeline   config.Pipeline
	Logger     *zap.Logger
}

// HandSummary is a compact description of one detected hand.
type HandSummary struct {
	Handedness string           `json:"handedness"`
	Score      float64          `json:"score"`
	Wrist      detector.Point3D `json:"wrist"`
	Fingers    string           `json:"fingers"`
	Extended   int              `json:"extended"`
}

// Telemetry is published after every processed frame and whenever input is
// switched on or off.
type Telemetry struct {
	Time    time.Time     `json:"time"`
	Hands   []HandSummary `json:"hands"`
	State   control.State `json:"state"`
	FPS     float64       `json:"fps"`
	Active  bool          `json:"active"`
	Enabled bool          `json:"enabled"`
}

// Status is a snapshot of the pipeline.
type Status struct {
	Running     bool          `json:"running"`
	Enabled     bool          `json:"enabled"`
	Active      bool          `json:"active"`
	Calibrating string        `json:"calibrating,omitempty"`
	// Collected and Required count calibration samples.
	Collected   int           `json:"collected,omitempty"`
	Required    int           `json:"required,omitempty"`
	FPS         float64       `json:"fps"`
	Frames      uint64        `json:"frames"`
	Errors      uint64        `json:"errors"`
	State       control.State `json:"state"`
}

// App owns the camera, the detector and the active controller.
type App struct {
	mu         sync.RWMutex
	camera     capture.Camera
	motion     *capture.MotionDetector
	detector   detector.Detector
	controller control.Controller
	pipeline   config.Pipeline
	logger     *zap.Logger

	enabled   bool
	active    bool
	frames    uint64
	errors    uint64
	stamps    []time.Time
	observers map[int]func(Telemetry)
	nextObs   int
	calib     *calibration

	stopCh  chan struct{}
	doneCh  chan struct{}
	resetCh chan struct{}
}

// New creates an App. It starts disabled and stopped.
func New(opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	p := withDefaults(opts.Pipeline, capture.DefaultFPS)
	threshold := p.MotionThreshold
	if threshold <= 0 {
		threshold = 1.0 // 1% of pixels
	}

	return &App{
		camera:     opts.Camera,
		motion:     capture.NewMotionDetector(threshold),
		detector:   opts.Detector,
		controller: opts.Controller,
		pipeline:   p,
		logger:     logger.Named("app"),
		observers:  make(map[int]func(Telemetry)),
		resetCh:    make(chan struct{}, 1),
	}
}

// SetEnabled turns input on or off and tells the observers. Disabling
// releases everything the controller holds.
func (a *App) SetEnabled(enabled bool) error {
	a.mu.Lock()
	if a.enabled == enabled {
		a.mu.Unlock()
		return nil
	}
	a.enabled = enabled
	a.logger.Info("input toggled", zap.Bool("enabled", enabled))

	var err error
	t := Telemetry{Time: time.Now(), FPS: a.fpsLocked(), Active: a.active, Enabled: enabled}
	if a.controller != nil {
		if !enabled {
			err = a.controller.Release()
		}
		t.State = a.controller.State()
	}
	observers := a.observersLocked()
	a.mu.Unlock()

	for _, fn := range observers {
		fn(t)
	}
	return err
}

// IsEnabled reports whether frames drive input.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetController swaps the active controller, releasing the old one.
func (a *App) SetController(c control.Controller) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	var err error
	if a.controller != nil {
		err = a.controller.Release()
	}
	a.controller = c
	if c != nil {
		a.logger.Info("controller set", zap.String("controller", c.Name()))
	}
	return err
}

// Controller returns the active controller.
func (a *App) Controller() control.Controller {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.controller
}

// SetPipeline applies new frame-rate settings to a running pipeline.
func (a *App) SetPipeline(p config.Pipeline) {
	a.mu.Lock()
	p = withDefaults(p, a.pipeline.ActiveFPS)
	a.pipeline = p
	a.mu.Unlock()

	a.motion.SetThreshold(p.MotionThreshold)
	select {
	case a.resetCh <- struct{}{}:
	default:
	}
}

// Observe registers fn for telemetry and returns a function that removes it.
// fn runs on the pipeline goroutine, or on the caller of SetEnabled, and must
// not block.
func (a *App) Observe(fn func(Telemetry)) func() {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.nextObs
	a.nextObs++
	a.observers[id] = fn
	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		delete(a.observers, id)
	}
}

// Status returns a snapshot of the pipeline.
func (a *App) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s := Status{
		Running: a.stopCh != nil,
		Enabled: a.enabled,
		Active:  a.active,
		FPS:     a.fpsLocked(),
		Frames:  a.frames,
		Errors:  a.errors,
	}
	if a.calib != nil {
		s.Calibrating = a.calib.kind
		s.Collected, s.Required = a.calib.Progress()
	}
	if a.controller != nil {
		s.State = a.controller.State()
	}
	return s
}

// Start opens the camera and starts the pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}
	if a.camera == nil || a.detector == nil {
		return fmt.Errorf("start pipeline: camera and detector are required")
	}
	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("start pipeline: %w", err)
	}
	a.camera.SetFPS(a.pipeline.ActiveFPS)
	a.motion.Reset()
	a.active = true
	a.stamps = a.stamps[:0]

	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.run(a.stopCh, a.doneCh)

	a.logger.Info("pipeline started",
		zap.Int("active_fps", a.pipeline.ActiveFPS),
		zap.Int("idle_fps", a.pipeline.IdleFPS),
		zap.Bool("motion_gating", a.pipeline.MotionGating))
	return nil
}

// Stop halts the pipeline, waits for the loop to exit and releases input.
// It is safe to call on a stopped App.
func (a *App) Stop() error {
	a.mu.Lock()
	stopCh, doneCh := a.stopCh, a.doneCh
	a.stopCh, a.doneCh = nil, nil
	a.mu.Unlock()

	if stopCh == nil {
		return nil
	}
	close(stopCh)
	<-doneCh

	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []error
	if a.controller != nil {
		errs = append(errs, a.controller.Release())
	}
	if a.calib != nil {
		a.calib.finish(ErrNotRunning)
		a.calib = nil
	}
	errs = append(errs, a.camera.Close())
	a.motion.Close()

	a.logger.Info("pipeline stopped", zap.Uint64("frames", a.frames))
	return errors.Join(errs...)
}

// Close stops the pipeline and closes the detector.
func (a *App) Close() error {
	err := a.Stop()
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.detector != nil {
		err = errors.Join(err, a.detector.Close())
	}
	return err
}

func withDefaults(p config.Pipeline, activeFPS int) config.Pipeline {
	if p.ActiveFPS <= 0 {
		p.ActiveFPS = activeFPS
	}
	if p.IdleFPS <= 0 || p.IdleFPS > p.ActiveFPS {
		p.IdleFPS = p.ActiveFPS
	}
	if p.IdleAfter <= 0 {
		p.IdleAfter = DefaultIdleAfter
	}
	return p
}

func (a *App) observersLocked() []func(Telemetry) {
	out := make([]func(Telemetry), 0, len(a.observers))
	for _, fn := range a.observers {
		out = append(out, fn)
	}
	return out
}

// fpsLocked averages the frame rate over the recorded stamps.
func (a *App) fpsLocked() float64 {
	n := len(a.stamps)
	if n < 2 {
		return 0
	}
	span := a.stamps[n-1].Sub(a.stamps[0])
	if span <= 0 {
		return 0
	}
	return float64(n-1) / span.Seconds()
}
