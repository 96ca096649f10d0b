package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/airsync/internal/control"
	"github.com/ayusman/airsync/internal/detector"
	"github.com/ayusman/airsync/internal/gesture"
)

// run is the frame loop. It ticks at the active frame rate and drops to the
// idle rate when motion gating sees nothing move for IdleAfter.
func (a *App) run(stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	fps := a.targetFPS()
	ticker := time.NewTicker(interval(fps))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-a.resetCh:
			fps = a.targetFPS()
			ticker.Reset(interval(fps))
			a.camera.SetFPS(fps)
		case now := <-ticker.C:
			a.step(now)
			if want := a.targetFPS(); want != fps {
				fps = want
				ticker.Reset(interval(fps))
				a.camera.SetFPS(fps)
			}
		}
	}
}

func interval(fps int) time.Duration {
	return time.Second / time.Duration(fps)
}

func (a *App) targetFPS() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.active || a.calib != nil {
		return a.pipeline.ActiveFPS
	}
	return a.pipeline.IdleFPS
}

// step processes one frame. Camera and detector errors skip the frame.
func (a *App) step(now time.Time) {
	a.mu.RLock()
	enabled, calib, det, p := a.enabled, a.calib, a.detector, a.pipeline
	a.mu.RUnlock()

	if !enabled && calib == nil {
		return
	}

	frame, err := a.camera.ReadFrame()
	if err != nil {
		a.fail("read frame", err)
		return
	}
	width, height := frame.Cols(), frame.Rows()

	active := true
	if p.MotionGating {
		a.motion.Detect(frame)
		active = !a.motion.Idle(p.IdleAfter)
	}

	hands, err := det.Detect(frame)
	frame.Close()
	if err != nil {
		a.fail("detect hands", err)
		return
	}

	var state control.State
	if calib != nil {
		if calib.step(hands, now) {
			a.mu.Lock()
			if a.calib == calib {
				a.calib = nil
			}
			a.mu.Unlock()
			calib.finish(nil)
		}
	} else {
		a.mu.RLock()
		if a.enabled && a.controller != nil {
			f := control.Frame{Hands: hands, Width: width, Height: height, Time: now}
			if err := a.controller.Process(f); err != nil {
				a.logger.Warn("controller failed", zap.String("controller", a.controller.Name()), zap.Error(err))
			}
			state = a.controller.State()
		}
		a.mu.RUnlock()
	}

	a.mu.Lock()
	if active != a.active {
		a.logger.Debug("motion gate", zap.Bool("active", active))
		a.active = active
	}
	a.frames++
	a.stamps = append(a.stamps, now)
	if len(a.stamps) > FPSWindow {
		a.stamps = a.stamps[len(a.stamps)-FPSWindow:]
	}
	t := Telemetry{
		Time:    now,
		Hands:   summarize(hands),
		State:   state,
		FPS:     a.fpsLocked(),
		Active:  active,
		Enabled: a.enabled,
	}
	observers := a.observersLocked()
	a.mu.Unlock()

	for _, fn := range observers {
		fn(t)
	}
}

func (a *App) fail(what string, err error) {
	a.mu.Lock()
	a.errors++
	a.mu.Unlock()
	a.logger.Debug("frame skipped", zap.String("stage", what), zap.Error(err))
}

func summarize(hands []detector.HandLandmarks) []HandSummary {
	out := make([]HandSummary, len(hands))
	for i := range hands {
		fingers := gesture.FingerStates(&hands[i])
		out[i] = HandSummary{
			Handedness: hands[i].Handedness,
			Score:      hands[i].Score,
			Wrist:      hands[i].Wrist(),
			Fingers:    fingers.String(),
			Extended:   fingers.Count(),
		}
	}
	return out
}

// calibration diverts frames from the controller until add reports done.
// mu serializes add on the pipeline goroutine with progress readers.
type calibration struct {
	kind     string
	mu       sync.Mutex
	add      func(hands []detector.HandLandmarks, now time.Time) bool
	progress func() (int, int)
	done     chan error
	once     sync.Once
}

func newCalibration(kind string, add func([]detector.HandLandmarks, time.Time) bool, progress func() (int, int)) *calibration {
	return &calibration{kind: kind, add: add, progress: progress, done: make(chan error, 1)}
}

func (c *calibration) step(hands []detector.HandLandmarks, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.add(hands, now)
}

// Progress returns collected and required sample counts.
func (c *calibration) Progress() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progress()
}

func (c *calibration) finish(err error) {
	c.once.Do(func() { c.done <- err })
}

func (a *App) beginCalibration(c *calibration) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopCh == nil {
		return ErrNotRunning
	}
	if a.calib != nil {
		return ErrBusy
	}
	if a.controller != nil {
		if err := a.controller.Release(); err != nil {
			a.logger.Warn("release before calibration", zap.Error(err))
		}
	}
	a.calib = c
	a.logger.Info("calibration started", zap.String("kind", c.kind))
	return nil
}

func (a *App) awaitCalibration(ctx context.Context, c *calibration) error {
	select {
	case err := <-c.done:
		if err == nil {
			a.logger.Info("calibration finished", zap.String("kind", c.kind))
		}
		return err
	case <-ctx.Done():
		a.mu.Lock()
		if a.calib == c {
			a.calib = nil
		}
		a.mu.Unlock()
		return ctx.Err()
	}
}

// CalibrateWheel averages frames wheel samples taken while both hands hold
// the wheel level. The pipeline must be running; input pauses meanwhile.
func (a *App) CalibrateWheel(ctx context.Context, frames int) (gesture.Wheel, error) {
	cal := gesture.NewWheelCalibrator(frames)
	c := newCalibration("wheel", func(hands []detector.HandLandmarks, _ time.Time) bool {
		left, right := detector.SplitHands(hands)
		if left == nil || right == nil {
			return false
		}
		return cal.Add(gesture.DetectWheel(left.Wrist(), right.Wrist()))
	}, cal.Progress)
	if err := a.beginCalibration(c); err != nil {
		return gesture.Wheel{}, err
	}
	if err := a.awaitCalibration(ctx, c); err != nil {
		return gesture.Wheel{}, err
	}
	return cal.Result()
}

// CalibrateBounds samples the wrist of the main hand at most once per
// interval until samples have been taken, and returns the padded range.
func (a *App) CalibrateBounds(ctx context.Context, samples int, interval time.Duration) (gesture.Bounds, error) {
	cal := gesture.NewBoundsCalibrator()
	if samples > 0 {
		cal.Samples = samples
	}
	if interval >= 0 {
		cal.Interval = interval
	}
	c := newCalibration("bounds", func(hands []detector.HandLandmarks, now time.Time) bool {
		hand := control.MainHand(hands)
		if hand == nil {
			return false
		}
		cal.Add(hand.Wrist(), now)
		return cal.Done()
	}, cal.Progress)
	if err := a.beginCalibration(c); err != nil {
		return gesture.Bounds{}, err
	}
	if err := a.awaitCalibration(ctx, c); err != nil {
		return gesture.Bounds{}, err
	}
	return cal.Result()
}
