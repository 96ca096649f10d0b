// Package config loads and saves the AirSync YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/airsync/internal/capture"
	"github.com/ayusman/airsync/internal/control"
	"github.com/ayusman/airsync/internal/detector"
)

// Pipeline tunes the frame loop.
type Pipeline struct {
	ActiveFPS int `yaml:"active_fps"`
	IdleFPS   int `yaml:"idle_fps"`
	// MotionGating drops to IdleFPS after IdleAfter without motion.
	MotionGating    bool          `yaml:"motion_gating"`
	MotionThreshold float64       `yaml:"motion_threshold"`
	IdleAfter       time.Duration `yaml:"idle_after"`
}

// Input selects the injection backend.
type Input struct {
	DryRun bool   `yaml:"dry_run"`
	Path   string `yaml:"path"`
	Name   string `yaml:"name"`
}

// Server configures the HTTP API.
type Server struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Store configures the sqlite database.
type Store struct {
	Path string `yaml:"path"`
}

// Config is the full configuration file.
type Config struct {
	Controller string          `yaml:"controller"`
	Camera     capture.Config  `yaml:"camera"`
	Detector   detector.Config `yaml:"detector"`
	Pipeline   Pipeline        `yaml:"pipeline"`
	Input      Input           `yaml:"input"`
	Server     Server          `yaml:"server"`
	Store      Store           `yaml:"store"`

	control.Config `yaml:",inline"`
}

// Dir returns ~/.airsync, or .airsync when the home directory is unknown.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".airsync"
	}
	return filepath.Join(home, ".airsync")
}

// DefaultPath returns the default configuration file path.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Controller: control.NameWheel,
		Camera:     capture.DefaultConfig(),
		Detector:   detector.DefaultConfig(),
		Pipeline: Pipeline{
			ActiveFPS:       capture.DefaultFPS,
			IdleFPS:         5,
			MotionGating:    true,
			MotionThreshold: 1.0,
			IdleAfter:       2 * time.Second,
		},
		Input: Input{
			Name: "airsync",
		},
		Server: Server{
			Addr: "127.0.0.1:8077",
		},
		Store: Store{
			Path: filepath.Join(Dir(), "airsync.db"),
		},
		Config: control.DefaultConfig(),
	}
}

// Load reads the configuration at path on top of the defaults. A missing
// file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to path, creating its directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate checks ranges that would otherwise misbehave at runtime.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	if _, err := control.Devices(c.Controller); err != nil {
		errs = append(errs, err)
	}
	check(c.Camera.Width > 0 && c.Camera.Height > 0, "camera size must be positive, got %dx%d", c.Camera.Width, c.Camera.Height)
	check(c.Detector.MaxHands >= 1 && c.Detector.MaxHands <= 4, "detector.max_hands must be 1-4, got %d", c.Detector.MaxHands)
	check(unit(c.Detector.MinConfidence), "detector.min_confidence must be in [0,1], got %g", c.Detector.MinConfidence)
	check(unit(c.Detector.MinTrackingConf), "detector.min_tracking_confidence must be in [0,1], got %g", c.Detector.MinTrackingConf)
	check(c.Pipeline.ActiveFPS > 0, "pipeline.active_fps must be positive, got %d", c.Pipeline.ActiveFPS)
	check(c.Pipeline.IdleFPS > 0 && c.Pipeline.IdleFPS <= c.Pipeline.ActiveFPS,
		"pipeline.idle_fps must be in [1, active_fps], got %d", c.Pipeline.IdleFPS)

	w := c.Wheel
	check(w.DeadZone >= 0, "wheel.dead_zone must not be negative, got %g", w.DeadZone)
	check(w.FullTurn > 0 && w.FullTurn <= 180, "wheel.full_turn must be in (0,180], got %g", w.FullTurn)
	check(w.SmoothingFactor > 0 && w.SmoothingFactor <= 1, "wheel.smoothing_factor must be in (0,1], got %g", w.SmoothingFactor)
	check(w.SmoothingHistory > 0, "wheel.smoothing_history must be positive, got %d", w.SmoothingHistory)
	check(w.PredictFrames >= 0, "wheel.predict_frames must not be negative, got %d", w.PredictFrames)
	check(w.CalibrationFrames > 0, "wheel.calibration_frames must be positive, got %d", w.CalibrationFrames)
	check(w.ThumbThreshold > 0, "wheel.thumb_threshold must be positive, got %g", w.ThumbThreshold)

	check(c.Drive.Threshold > 0, "drive.threshold must be positive, got %d", c.Drive.Threshold)
	check(c.Fingers.ToggleDebounce >= 0, "fingers.toggle_debounce must not be negative, got %s", c.Fingers.ToggleDebounce)
	check(c.Fingers.MouseGain > 0, "fingers.mouse_gain must be positive, got %g", c.Fingers.MouseGain)
	check(c.Fingers.ScrollStep > 0, "fingers.scroll_step must be positive, got %d", c.Fingers.ScrollStep)

	s := c.Simulator
	check(s.Low < s.High, "simulator.low must be below simulator.high")
	check(s.MoveScale > 0, "simulator.move_scale must be positive, got %g", s.MoveScale)
	check(s.DepthScale > 0, "simulator.depth_scale must be positive, got %g", s.DepthScale)
	check(s.WheelScale > 0, "simulator.wheel_scale must be positive, got %g", s.WheelScale)
	check(s.Smoothing > 0 && s.Smoothing <= 1, "simulator.smoothing must be in (0,1], got %g", s.Smoothing)
	check(s.History > 0, "simulator.history must be positive, got %d", s.History)
	check(c.Menu.Low < c.Menu.High, "menu.low must be below menu.high")

	return errors.Join(errs...)
}

func unit(v float64) bool { return v >= 0 && v <= 1 }
