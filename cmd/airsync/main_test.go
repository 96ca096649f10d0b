package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ayusman/airsync/internal/app"
	"github.com/ayusman/airsync/internal/config"
	"github.com/ayusman/airsync/internal/control"
	"github.com/ayusman/airsync/internal/detector"
	"github.com/ayusman/airsync/internal/gesture"
	"github.com/ayusman/airsync/internal/input"
	"github.com/ayusman/airsync/internal/store"
)

func testStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func newController(t *testing.T, name string) control.Controller {
	t.Helper()
	rec := input.NewRecorder(nil)
	c, err := control.New(name, control.DefaultConfig(), &input.Devices{Keyboard: rec, Mouse: rec, Gamepad: rec}, nil)
	require.NoError(t, err)
	return c
}

func TestCommands(t *testing.T) {
	want := append(append([]string(nil), control.Names()...), "serve", "calibrate")
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}

	wheel, _, err := rootCmd.Find([]string{control.NameWheel})
	require.NoError(t, err)
	for _, flag := range []string{"camera", "dry-run", "tray", "addr", "no-watch"} {
		assert.NotNil(t, wheel.Flags().Lookup(flag), flag)
	}
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("verbose"))
}

func TestRunFlags_Apply(t *testing.T) {
	f := &runFlags{}
	cmd := &cobra.Command{Use: "x"}
	f.register(cmd)
	require.NoError(t, cmd.Flags().Parse([]string{"--camera", "2", "--dry-run", "--addr", ":9000"}))

	cfg := config.Default()
	f.apply(cmd, cfg)
	assert.Equal(t, 2, cfg.Camera.Device)
	assert.True(t, cfg.Input.DryRun)
	assert.True(t, cfg.Server.Enabled)
	assert.Equal(t, ":9000", cfg.Server.Addr)

	// Unset flags leave the file's values alone.
	cfg = config.Default()
	cfg.Camera.Device = 3
	f = &runFlags{}
	cmd = &cobra.Command{Use: "y"}
	f.register(cmd)
	require.NoError(t, cmd.Flags().Parse(nil))
	f.apply(cmd, cfg)
	assert.Equal(t, 3, cfg.Camera.Device)
	assert.False(t, cfg.Server.Enabled)
}

func TestApplyStored_Wheel(t *testing.T) {
	st := testStore(t)
	_, err := st.Calibrations().Save(store.KindWheel, gesture.Wheel{Angle: 7.5, Radius: 0.2})
	require.NoError(t, err)

	c := newController(t, control.NameWheel)
	applyStored(st, c)
	assert.Equal(t, 7.5, c.(*control.Wheel).Neutral())
}

func TestApplyStored_Bindings(t *testing.T) {
	st := testStore(t)
	require.NoError(t, st.Bindings().Create(&store.Binding{Mode: control.NameDrive, Slot: "forward", Key: "up"}))
	// Not a drive slot; ignored.
	require.NoError(t, st.Bindings().Create(&store.Binding{Mode: control.NameDrive, Slot: "jump", Key: "space"}))

	rec := input.NewRecorder(nil)
	c, err := control.New(control.NameDrive, control.DefaultConfig(), &input.Devices{Keyboard: rec}, nil)
	require.NoError(t, err)
	applyStored(st, c)

	f := control.Frame{
		Hands:  []detector.HandLandmarks{detector.HandAt(detector.Left, 0.3, 0.5), detector.HandAt(detector.Right, 0.7, 0.5)},
		Width:  640,
		Height: 480,
		Time:   time.Now(),
	}
	require.NoError(t, c.Process(f))
	assert.Equal(t, []string{"up"}, rec.HeldKeys())
}

func TestApplyStored_Bounds(t *testing.T) {
	st := testStore(t)
	_, err := st.Calibrations().Save(store.KindBounds, gesture.Bounds{MinX: 0.4, MaxX: 0.6, MinY: 0.4, MaxY: 0.6, MaxZ: 1})
	require.NoError(t, err)

	rec := input.NewRecorder(nil)
	c, err := control.New(control.NameSimulator, control.DefaultConfig(), &input.Devices{Keyboard: rec, Mouse: rec}, nil)
	require.NoError(t, err)
	applyStored(st, c)

	// 0.65 is past the calibrated right edge, so the wrist maps to 1.
	f := control.Frame{
		Hands:  []detector.HandLandmarks{detector.HandAt(detector.Right, 0.65, 0.5)},
		Width:  640,
		Height: 480,
		Time:   time.Now(),
	}
	require.NoError(t, c.Process(f))
	assert.Contains(t, rec.HeldKeys(), input.KeyRight)
}

func TestReloader_Apply(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	prev := logger
	logger = zap.New(core)
	t.Cleanup(func() { logger = prev })

	c := newController(t, control.NameFingers)
	a := app.New(app.Options{Controller: c})
	r := &reloader{app: a, ctrl: c, controller: control.NameWheel}

	// `airsync fingers` with a file still naming the wheel: reloads that
	// leave the file's controller alone stay quiet.
	cfg := config.Default()
	cfg.Pipeline.ActiveFPS = 15
	cfg.Pipeline.IdleFPS = 3
	cfg.Fingers.ScrollStep = 4
	r.apply(cfg)
	r.apply(cfg)
	assert.Zero(t, logs.FilterMessage("controller change needs a restart").Len())

	cfg.Controller = control.NameDrive
	r.apply(cfg)
	r.apply(cfg)
	restarts := logs.FilterMessage("controller change needs a restart").All()
	require.Len(t, restarts, 1)
	assert.Equal(t, control.NameDrive, restarts[0].ContextMap()["configured"])
	assert.Equal(t, control.NameFingers, restarts[0].ContextMap()["running"])

	assert.Equal(t, control.NameFingers, a.Controller().Name())
}
