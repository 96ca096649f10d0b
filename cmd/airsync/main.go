// Command airsync turns webcam hand gestures into keyboard, mouse and
// gamepad input for games.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ayusman/airsync/internal/config"
	"github.com/ayusman/airsync/internal/control"
)

var (
	// Global flags
	verbose    bool
	configPath string

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "airsync",
	Short: "Play games with hand gestures in front of a webcam",
	Long: `AirSync watches your hands through a webcam and turns them into game input.

Pick a controller subcommand:
  wheel      two fists hold a virtual steering wheel (gamepad)
  drive      two wrists steer, mapped to WASD
  fingers    finger patterns to keys, with a mouse mode
  simulator  per-finger keys and wrist-driven pointer for hand simulators
  menu       two-hand arrows, finger keys, submit and cancel`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		l, err := cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

var controllerHelp = map[string]string{
	control.NameWheel:     "Steer a virtual gamepad with two fists on an imaginary wheel",
	control.NameDrive:     "Steer with both wrists, mapped to forward/left/right/reverse keys",
	control.NameFingers:   "Map finger patterns to keys; thumb+pinky toggles mouse mode",
	control.NameSimulator: "Per-finger keys, arrows from wrist position and a wrist-driven pointer",
	control.NameMenu:      "Navigate menus with two-hand arrows, finger keys, submit and cancel",
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "Configuration file")

	for _, name := range control.Names() {
		rootCmd.AddCommand(newRunCmd(name, controllerHelp[name]))
	}
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newCalibrateCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
