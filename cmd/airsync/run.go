package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ayusman/airsync/internal/app"
	"github.com/ayusman/airsync/internal/capture"
	"github.com/ayusman/airsync/internal/config"
	"github.com/ayusman/airsync/internal/control"
	"github.com/ayusman/airsync/internal/detector"
	"github.com/ayusman/airsync/internal/gesture"
	"github.com/ayusman/airsync/internal/input"
	"github.com/ayusman/airsync/internal/server"
	"github.com/ayusman/airsync/internal/store"
	"github.com/ayusman/airsync/internal/tray"
)

// runFlags are shared by every command that runs the pipeline.
type runFlags struct {
	camera  int
	dryRun  bool
	tray    bool
	addr    string
	noWatch bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.camera, "camera", 0, "Camera device index")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Record input events instead of injecting them")
	cmd.Flags().BoolVar(&f.tray, "tray", false, "Show a system tray icon")
	cmd.Flags().StringVar(&f.addr, "addr", "", "Serve the HTTP API on this address")
	cmd.Flags().BoolVar(&f.noWatch, "no-watch", false, "Do not reload the config file on change")
}

// apply overrides cfg with the flags the user set.
func (f *runFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("camera") {
		cfg.Camera.Device = f.camera
	}
	if cmd.Flags().Changed("dry-run") {
		cfg.Input.DryRun = f.dryRun
	}
	if cmd.Flags().Changed("addr") {
		cfg.Server.Enabled = f.addr != ""
		cfg.Server.Addr = f.addr
	}
}

func newRunCmd(name, short string) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			fileController := cfg.Controller
			cfg.Controller = name
			return run(cmd.Context(), cfg, fileController, f)
		},
	}
	f.register(cmd)
	return cmd
}

func newServeCmd() *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the controller from the config file with the HTTP API enabled",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			cfg.Server.Enabled = true
			return run(cmd.Context(), cfg, cfg.Controller, f)
		},
	}
	f.register(cmd)
	return cmd
}

func loadConfig(cmd *cobra.Command, f *runFlags) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	f.apply(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// run wires the pipeline for cfg.Controller and blocks until interrupted.
// fileController is the controller the config file named when it was loaded.
func run(parent context.Context, cfg *config.Config, fileController string, f *runFlags) error {
	name := cfg.Controller

	st, err := store.New(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	opts, err := control.Devices(name)
	if err != nil {
		return err
	}
	opts.DryRun = cfg.Input.DryRun
	opts.Path = cfg.Input.Path
	opts.Name = cfg.Input.Name
	opts.Logger = logger
	devs, err := input.Open(opts)
	if err != nil {
		return fmt.Errorf("open input devices: %w", err)
	}
	defer devs.Close()

	ctrl, err := control.New(name, cfg.Config, devs, logger.Named(name))
	if err != nil {
		return err
	}
	applyStored(st, ctrl)

	det, err := detector.NewMediaPipeDetector(cfg.Detector, logger)
	if err != nil {
		return fmt.Errorf("create detector: %w", err)
	}

	a := app.New(app.Options{
		Camera:     capture.NewCamera(cfg.Camera, logger),
		Detector:   det,
		Controller: ctrl,
		Pipeline:   cfg.Pipeline,
		Logger:     logger,
	})
	defer a.Close()

	if err := a.Start(); err != nil {
		return err
	}
	if err := a.SetEnabled(true); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	if cfg.Server.Enabled {
		srv := server.New(server.Config{
			StaticDir: findWebDir(),
			Store:     st,
			App:       a,
			Logger:    logger,
		})
		g.Go(func() error { return srv.Run(ctx, cfg.Server.Addr) })
	}

	if !f.noWatch {
		r := &reloader{app: a, ctrl: ctrl, controller: fileController}
		w := &config.Watcher{
			Path:     configPath,
			Logger:   logger,
			OnChange: r.apply,
		}
		g.Go(func() error { return w.Run(ctx) })
	}

	g.Go(func() error {
		<-ctx.Done()
		return nil
	})

	logger.Info("running", zap.String("controller", name), zap.Bool("dry_run", cfg.Input.DryRun))

	if f.tray {
		t := tray.New(name, true)
		t.OnToggle(func(enabled bool) {
			if err := a.SetEnabled(enabled); err != nil {
				logger.Warn("toggle input", zap.Error(err))
			}
		})
		t.OnQuit(stop)
		unobserve := a.Observe(t.Observe)
		defer unobserve()
		go func() {
			<-ctx.Done()
			t.Quit()
		}()
		// The tray owns the main goroutine until it quits.
		t.Run()
		stop()
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	logger.Info("shutting down", zap.Uint64("frames", a.Status().Frames))
	return err
}

// applyStored loads saved key bindings and the latest calibration into c.
func applyStored(st *store.Store, c control.Controller) {
	if b, ok := c.(control.Bindable); ok {
		overrides, err := st.Bindings().ForMode(c.Name())
		if err != nil {
			logger.Warn("load bindings", zap.Error(err))
		}
		for slot, key := range overrides {
			if err := b.Bind(slot, key); err != nil {
				logger.Warn("ignoring stored binding", zap.String("slot", slot), zap.Error(err))
			}
		}
	}

	switch c := c.(type) {
	case *control.Wheel:
		var w gesture.Wheel
		if loadCalibration(st, store.KindWheel, &w) {
			c.SetNeutral(w.Angle)
			logger.Info("wheel calibration loaded", zap.Float64("neutral", w.Angle))
		}
	case *control.Simulator:
		var b gesture.Bounds
		if loadCalibration(st, store.KindBounds, &b) {
			c.SetBounds(&b)
			logger.Info("bounds calibration loaded")
		}
	}
}

func loadCalibration(st *store.Store, kind string, v any) bool {
	cal, err := st.Calibrations().Latest(kind)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logger.Warn("load calibration", zap.String("kind", kind), zap.Error(err))
		}
		return false
	}
	if err := cal.Decode(v); err != nil {
		logger.Warn("decode calibration", zap.String("kind", kind), zap.Error(err))
		return false
	}
	return true
}

// reloader hot-reloads tunables. The controller kind and devices stay.
type reloader struct {
	app  *app.App
	ctrl control.Controller
	// controller is what the file named at the previous load.
	controller string
}

func (r *reloader) apply(cfg *config.Config) {
	switch c := r.ctrl.(type) {
	case *control.Wheel:
		c.UpdateConfig(cfg.Wheel)
	case *control.Drive:
		c.UpdateConfig(cfg.Drive)
	case *control.Fingers:
		c.UpdateConfig(cfg.Fingers)
	case *control.Simulator:
		c.UpdateConfig(cfg.Simulator)
	case *control.Menu:
		c.UpdateConfig(cfg.Menu)
	}
	r.app.SetPipeline(cfg.Pipeline)
	if cfg.Controller != r.controller {
		logger.Info("controller change needs a restart",
			zap.String("configured", cfg.Controller),
			zap.String("running", r.ctrl.Name()))
		r.controller = cfg.Controller
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web" and ~/.airsync/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	for _, p := range []string{"web", "../web", filepath.Join(config.Dir(), "web")} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}
