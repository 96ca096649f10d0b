package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/airsync/internal/control"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, control.NameWheel, cfg.Controller)
	assert.Equal(t, 30, cfg.Pipeline.ActiveFPS)
	assert.Equal(t, 5, cfg.Pipeline.IdleFPS)
	assert.Equal(t, 5.0, cfg.Wheel.DeadZone)
	assert.True(t, cfg.Camera.Mirror)
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_PartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
controller: drive
wheel:
  dead_zone: 8
fingers:
  toggle_debounce: 2s
camera:
  device: 1
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, control.NameDrive, cfg.Controller)
	assert.Equal(t, 8.0, cfg.Wheel.DeadZone)
	assert.Equal(t, 90.0, cfg.Wheel.FullTurn, "unset keys keep defaults")
	assert.Equal(t, 2*time.Second, cfg.Fingers.ToggleDebounce)
	assert.Equal(t, 1, cfg.Camera.Device)
	assert.Equal(t, 640, cfg.Camera.Width)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("controller: [oops"), 0o644))
	_, err := Load(bad)
	assert.Error(t, err)

	wrong := filepath.Join(dir, "wrong.yaml")
	require.NoError(t, os.WriteFile(wrong, []byte("controller: racing\nwheel:\n  full_turn: 0\n"), 0o644))
	_, err = Load(wrong)
	assert.ErrorIs(t, err, control.ErrUnknownController)
	assert.ErrorContains(t, err, "wheel.full_turn")
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Controller = control.NameMenu
	cfg.Pipeline.IdleAfter = 3 * time.Second
	cfg.Simulator.ThumbWhenOpen = false

	require.NoError(t, cfg.Save(path))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Pipeline.IdleFPS = 60
	cfg.Menu.Low = 0.8
	err := cfg.Validate()
	assert.ErrorContains(t, err, "pipeline.idle_fps")
	assert.ErrorContains(t, err, "menu.low")

	require.NoError(t, Default().Validate())
}

func TestValidate_ControllerRanges(t *testing.T) {
	cases := map[string]func(c *Config){
		"fingers.mouse_gain":    func(c *Config) { c.Fingers.MouseGain = 0 },
		"fingers.scroll_step":   func(c *Config) { c.Fingers.ScrollStep = -1 },
		"wheel.thumb_threshold": func(c *Config) { c.Wheel.ThumbThreshold = 0 },
		"simulator.move_scale":  func(c *Config) { c.Simulator.MoveScale = 0 },
		"simulator.depth_scale": func(c *Config) { c.Simulator.DepthScale = -5 },
		"simulator.wheel_scale": func(c *Config) { c.Simulator.WheelScale = 0 },
		"simulator.smoothing":   func(c *Config) { c.Simulator.Smoothing = 1.5 },
		"simulator.history":     func(c *Config) { c.Simulator.History = 0 },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), field)
		})
	}
}

func TestWatcher_Reloads(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping filesystem watcher test")
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, Default().Save(path))

	got := make(chan *Config, 4)
	w := &Watcher{Path: path, Debounce: 20 * time.Millisecond, OnChange: func(c *Config) { got <- c }}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	cfg := Default()
	cfg.Wheel.DeadZone = 12
	require.NoError(t, cfg.Save(path))

	select {
	case c := <-got:
		assert.Equal(t, 12.0, c.Wheel.DeadZone)
	case <-time.After(3 * time.Second):
		t.Fatal("no reload")
	}

	cancel()
	require.NoError(t, <-done)
}
