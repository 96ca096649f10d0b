package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gocv.io/x/gocv"

	"github.com/ayusman/airsync/internal/capture"
	"github.com/ayusman/airsync/internal/config"
	"github.com/ayusman/airsync/internal/control"
	"github.com/ayusman/airsync/internal/detector"
	"github.com/ayusman/airsync/internal/input"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixture struct {
	app      *App
	camera   *capture.MockCamera
	detector *detector.MockDetector
	rec      *input.Recorder
}

func newFixture(t *testing.T, name string) *fixture {
	t.Helper()
	return newPipelineFixture(t, name, config.Pipeline{ActiveFPS: 100, IdleFPS: 100})
}

func newPipelineFixture(t *testing.T, name string, p config.Pipeline) *fixture {
	t.Helper()

	mat := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { mat.Close() })

	cam := capture.NewMockCamera([]*gocv.Mat{&mat}, true)
	det := detector.NewMockDetector()
	rec := input.NewRecorder(nil)
	devs := &input.Devices{Keyboard: rec, Mouse: rec, Gamepad: rec}
	ctrl, err := control.New(name, control.DefaultConfig(), devs, nil)
	require.NoError(t, err)

	a := New(Options{
		Camera:     cam,
		Detector:   det,
		Controller: ctrl,
		Pipeline:   p,
	})
	t.Cleanup(func() { _ = a.Close() })
	return &fixture{app: a, camera: cam, detector: det, rec: rec}
}

func (f *fixture) waitFrames(t *testing.T, n uint64) {
	t.Helper()
	start := f.app.Status().Frames
	require.Eventually(t, func() bool {
		return f.app.Status().Frames >= start+n
	}, 2*time.Second, 5*time.Millisecond)
}

func TestApp_DrivesController(t *testing.T) {
	f := newFixture(t, control.NameDrive)
	f.detector.SetHands(
		detector.HandAt(detector.Left, 0.3, 0.5),
		detector.HandAt(detector.Right, 0.7, 0.7),
	)

	require.NoError(t, f.app.Start())
	require.NoError(t, f.app.SetEnabled(true))
	f.waitFrames(t, 2)

	assert.Equal(t, []string{"d", "w"}, f.rec.HeldKeys())
	st := f.app.Status()
	assert.True(t, st.Running)
	assert.True(t, st.Enabled)
	assert.Equal(t, "right", st.State.Action)

	require.NoError(t, f.app.Stop())
	assert.Empty(t, f.rec.HeldKeys(), "stop releases input")
	assert.False(t, f.camera.IsOpen())
	assert.False(t, f.app.Status().Running)
}

func TestApp_DisabledReadsNothing(t *testing.T) {
	f := newFixture(t, control.NameDrive)
	require.NoError(t, f.app.Start())

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, f.camera.Reads())
	assert.Zero(t, f.detector.Calls())
	require.NoError(t, f.app.Stop())
}

func TestApp_DisableReleases(t *testing.T) {
	f := newFixture(t, control.NameDrive)
	f.detector.SetHands(detector.HandAt(detector.Right, 0.5, 0.5))

	require.NoError(t, f.app.Start())
	require.NoError(t, f.app.SetEnabled(true))
	f.waitFrames(t, 1)
	require.Equal(t, []string{"s"}, f.rec.HeldKeys())

	require.NoError(t, f.app.SetEnabled(false))
	assert.Empty(t, f.rec.HeldKeys())
	assert.False(t, f.app.IsEnabled())
}

func TestApp_DetectorErrorSkipsFrame(t *testing.T) {
	f := newFixture(t, control.NameDrive)
	f.detector.SetError(errors.New("model crashed"))

	require.NoError(t, f.app.Start())
	require.NoError(t, f.app.SetEnabled(true))
	require.Eventually(t, func() bool { return f.app.Status().Errors >= 3 }, 2*time.Second, 5*time.Millisecond)

	assert.Zero(t, f.app.Status().Frames)
	assert.Empty(t, f.rec.Events())

	f.detector.SetError(nil)
	f.waitFrames(t, 1)
}

func TestApp_SetControllerReleasesOld(t *testing.T) {
	f := newFixture(t, control.NameDrive)
	f.detector.SetHands(detector.HandAt(detector.Right, 0.5, 0.5))

	require.NoError(t, f.app.Start())
	require.NoError(t, f.app.SetEnabled(true))
	f.waitFrames(t, 1)
	require.NotEmpty(t, f.rec.HeldKeys())

	rec := input.NewRecorder(nil)
	require.NoError(t, f.app.SetController(control.NewMenu(control.DefaultMenuConfig(), rec, nil)))
	assert.Empty(t, f.rec.HeldKeys())
	assert.Equal(t, control.NameMenu, f.app.Controller().Name())

	f.waitFrames(t, 1)
	assert.NotEmpty(t, rec.HeldKeys())
}

func TestApp_Observe(t *testing.T) {
	f := newFixture(t, control.NameMenu)
	f.detector.SetHands(detector.HandAt(detector.Right, 0.5, 0.5))

	got := make(chan Telemetry, 64)
	unsubscribe := f.app.Observe(func(tm Telemetry) {
		select {
		case got <- tm:
		default:
		}
	})

	require.NoError(t, f.app.Start())
	require.NoError(t, f.app.SetEnabled(true))

	select {
	case tm := <-got:
		require.Len(t, tm.Hands, 1)
		assert.Equal(t, detector.Right, tm.Hands[0].Handedness)
		assert.Equal(t, "11111", tm.Hands[0].Fingers)
		assert.Equal(t, 5, tm.Hands[0].Extended)
		assert.Equal(t, control.NameMenu, tm.State.Controller)
	case <-time.After(2 * time.Second):
		t.Fatal("no telemetry")
	}

	unsubscribe()
	f.waitFrames(t, 5)
	assert.Greater(t, f.app.Status().FPS, 0.0)
}

func TestApp_SetEnabledNotifiesObservers(t *testing.T) {
	f := newFixture(t, control.NameDrive)
	f.detector.SetHands(detector.HandAt(detector.Right, 0.5, 0.5))

	var got []Telemetry
	defer f.app.Observe(func(tm Telemetry) { got = append(got, tm) })()

	// Observers hear about toggles even while the loop is stopped.
	require.NoError(t, f.app.SetEnabled(true))
	require.NoError(t, f.app.SetEnabled(true))
	require.NoError(t, f.app.SetEnabled(false))

	require.Len(t, got, 2)
	assert.True(t, got[0].Enabled)
	assert.False(t, got[1].Enabled)
	assert.Equal(t, control.NameDrive, got[1].State.Controller)
}

func TestApp_TelemetryCarriesEnabled(t *testing.T) {
	f := newFixture(t, control.NameMenu)

	got := make(chan Telemetry, 64)
	defer f.app.Observe(func(tm Telemetry) {
		select {
		case got <- tm:
		default:
		}
	})()

	require.NoError(t, f.app.Start())
	require.NoError(t, f.app.SetEnabled(true))
	f.waitFrames(t, 2)
	require.NoError(t, f.app.Stop())

	close(got)
	n := 0
	for tm := range got {
		assert.True(t, tm.Enabled)
		n++
	}
	assert.GreaterOrEqual(t, n, 2)
}

func TestApp_MotionGating(t *testing.T) {
	f := newPipelineFixture(t, control.NameDrive, config.Pipeline{
		ActiveFPS:       100,
		IdleFPS:         10,
		MotionGating:    true,
		MotionThreshold: 1,
		IdleAfter:       100 * time.Millisecond,
	})

	require.NoError(t, f.app.Start())
	require.NoError(t, f.app.SetEnabled(true))
	assert.True(t, f.app.Status().Active)
	assert.Equal(t, 100, f.camera.FPS())

	// A still frame drops the loop to the idle rate.
	require.Eventually(t, func() bool {
		return !f.app.Status().Active && f.camera.FPS() == 10
	}, 2*time.Second, 5*time.Millisecond)

	before := f.camera.Reads()
	time.Sleep(300 * time.Millisecond)
	idleReads := f.camera.Reads() - before
	assert.LessOrEqual(t, idleReads, 6, "idle loop reads at about 10 fps")

	// Alternating black and white frames is motion on every read.
	white := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0), 480, 640, gocv.MatTypeCV8UC3)
	defer white.Close()
	black := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer black.Close()
	f.camera.SetFrames([]*gocv.Mat{&white, &black})

	require.Eventually(t, func() bool {
		return f.app.Status().Active && f.camera.FPS() == 100
	}, 2*time.Second, 5*time.Millisecond)

	before = f.camera.Reads()
	time.Sleep(300 * time.Millisecond)
	assert.Greater(t, f.camera.Reads()-before, idleReads, "active loop reads faster than idle")

	require.NoError(t, f.app.Stop())
}

func TestApp_FPSAverage(t *testing.T) {
	a := New(Options{})
	assert.Zero(t, a.Status().FPS)

	start := time.Now()
	for i := 0; i < FPSWindow; i++ {
		a.stamps = append(a.stamps, start.Add(time.Duration(i)*40*time.Millisecond))
	}
	assert.InDelta(t, 25, a.Status().FPS, 1e-6)

	a.stamps = []time.Time{start, start}
	assert.Zero(t, a.Status().FPS, "no elapsed time")
}

func TestApp_FPSWindow(t *testing.T) {
	f := newFixture(t, control.NameDrive)
	require.NoError(t, f.app.Start())
	require.NoError(t, f.app.SetEnabled(true))
	f.waitFrames(t, FPSWindow+10)

	f.app.mu.RLock()
	n := len(f.app.stamps)
	f.app.mu.RUnlock()
	assert.Equal(t, FPSWindow, n)
	assert.Greater(t, f.app.Status().FPS, 0.0)
}

func TestApp_CalibrationProgress(t *testing.T) {
	f := newFixture(t, control.NameWheel)
	f.detector.SetHands(
		detector.HandAt(detector.Left, 0.3, 0.5),
		detector.HandAt(detector.Right, 0.7, 0.5),
	)
	require.NoError(t, f.app.Start())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := f.app.CalibrateWheel(ctx, 100000)
		done <- err
	}()

	require.Eventually(t, func() bool {
		st := f.app.Status()
		return st.Calibrating == "wheel" && st.Collected >= 3
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 100000, f.app.Status().Required)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	st := f.app.Status()
	assert.Empty(t, st.Calibrating)
	assert.Zero(t, st.Required)
}

func TestApp_CalibrateWheel(t *testing.T) {
	f := newFixture(t, control.NameWheel)
	f.detector.SetHands(
		detector.HandAt(detector.Left, 0.3, 0.5),
		detector.HandAt(detector.Right, 0.7, 0.5),
	)

	_, err := f.app.CalibrateWheel(context.Background(), 5)
	assert.ErrorIs(t, err, ErrNotRunning)

	require.NoError(t, f.app.Start())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	wheel, err := f.app.CalibrateWheel(ctx, 5)
	require.NoError(t, err)
	assert.InDelta(t, 0, wheel.Angle, 1e-6)
	assert.InDelta(t, 0.5, wheel.Center.X, 1e-6)
	assert.InDelta(t, 0.2, wheel.Radius, 1e-6)
	x, _ := f.rec.Stick()
	assert.Zero(t, x, "calibration does not steer")
	assert.Empty(t, f.app.Status().Calibrating)
}

func TestApp_CalibrateBounds(t *testing.T) {
	f := newFixture(t, control.NameSimulator)
	f.detector.SetHands(detector.HandAt(detector.Right, 0.4, 0.6))

	require.NoError(t, f.app.Start())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	b, err := f.app.CalibrateBounds(ctx, 3, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.4, b.MinX, 1e-6)
	assert.InDelta(t, 0.4, b.MaxX, 1e-6)
	assert.InDelta(t, 0.6, b.MinY, 1e-6)
}

func TestApp_CalibrationCancelled(t *testing.T) {
	f := newFixture(t, control.NameWheel)
	require.NoError(t, f.app.Start())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := f.app.CalibrateWheel(ctx, 5)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, f.app.Status().Calibrating)
}

func TestApp_StopIsIdempotent(t *testing.T) {
	f := newFixture(t, control.NameWheel)
	require.NoError(t, f.app.Stop())
	require.NoError(t, f.app.Start())
	require.NoError(t, f.app.Start())
	require.NoError(t, f.app.Stop())
	require.NoError(t, f.app.Stop())
}
