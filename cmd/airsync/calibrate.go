package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ayusman/airsync/internal/app"
	"github.com/ayusman/airsync/internal/capture"
	"github.com/ayusman/airsync/internal/config"
	"github.com/ayusman/airsync/internal/detector"
	"github.com/ayusman/airsync/internal/gesture"
	"github.com/ayusman/airsync/internal/store"
)

type calibrateFlags struct {
	camera   int
	frames   int
	samples  int
	interval time.Duration
	timeout  time.Duration
}

func newCalibrateCmd() *cobra.Command {
	f := &calibrateFlags{}
	cmd := &cobra.Command{
		Use:   "calibrate (wheel|bounds)",
		Short: "Record a calibration and store it for later runs",
		Long: `Records a calibration with the camera and saves it to the database.

  wheel   hold both fists level on an imaginary wheel; sets the neutral angle
  bounds  move one hand around the space you want to use; sets the simulator
          position range`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{store.KindWheel, store.KindBounds},
		RunE: func(cmd *cobra.Command, args []string) error {
			return calibrate(cmd, args[0], f)
		},
	}
	cmd.Flags().IntVar(&f.camera, "camera", 0, "Camera device index")
	cmd.Flags().IntVar(&f.frames, "frames", 0, "Wheel frames to average (default from config)")
	cmd.Flags().IntVar(&f.samples, "samples", gesture.DefaultBoundsSamples, "Bounds samples to collect")
	cmd.Flags().DurationVar(&f.interval, "interval", gesture.DefaultBoundsInterval, "Minimum time between bounds samples")
	cmd.Flags().DurationVar(&f.timeout, "timeout", time.Minute, "Give up after this long")
	return cmd
}

func calibrate(cmd *cobra.Command, kind string, f *calibrateFlags) error {
	if kind != store.KindWheel && kind != store.KindBounds {
		return fmt.Errorf("unknown calibration %q, want %s or %s", kind, store.KindWheel, store.KindBounds)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("camera") {
		cfg.Camera.Device = f.camera
	}
	frames := f.frames
	if frames <= 0 {
		frames = cfg.Wheel.CalibrationFrames
	}

	st, err := store.New(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	det, err := detector.NewMediaPipeDetector(cfg.Detector, logger)
	if err != nil {
		return fmt.Errorf("create detector: %w", err)
	}

	// No controller: frames only feed the calibration.
	a := app.New(app.Options{
		Camera:   capture.NewCamera(cfg.Camera, logger),
		Detector: det,
		Pipeline: cfg.Pipeline,
		Logger:   logger,
	})
	defer a.Close()
	if err := a.Start(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	var result any
	switch kind {
	case store.KindWheel:
		fmt.Fprintln(cmd.OutOrStdout(), "Hold both fists level on the wheel...")
		result, err = a.CalibrateWheel(ctx, frames)
	case store.KindBounds:
		fmt.Fprintln(cmd.OutOrStdout(), "Move one hand slowly around your play area...")
		result, err = a.CalibrateBounds(ctx, f.samples, f.interval)
	}
	if err != nil {
		return fmt.Errorf("calibrate %s: %w", kind, err)
	}

	saved, err := st.Calibrations().Save(kind, result)
	if err != nil {
		return fmt.Errorf("save calibration: %w", err)
	}
	logger.Info("calibration saved", zap.String("kind", kind), zap.String("id", saved.ID))

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
