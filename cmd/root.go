package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/hrms-time-calc/internal/config"
	"github.com/Tiliavir/hrms-time-calc/internal/logging"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "htc",
	Short: "HRMS time calculator – hours worked from a portal screenshot",
	Long: `htc reads clock-in/clock-out pairs from an HRMS portal screenshot using a
multimodal AI service, merges them with entries you type in and reports the
time worked against an 8-hour target, including when you can leave.

Nothing is stored between runs. Settings live in ~/.htc/config.toml.`,
	SilenceUsage: true,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.htc/config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(calcCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(durationCmd)
	rootCmd.AddCommand(serveCmd)
}

// loadRuntime reads the config and builds the logger shared by commands.
func loadRuntime() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := logging.NewFromConfig(&cfg, logLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}
