package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/trendscreen/internal/app"
	"github.com/newthinker/trendscreen/internal/config"
	"github.com/newthinker/trendscreen/internal/logger"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "trendscreen",
	Short: "trendscreen - monthly trend-following ETF screener",
	Long: `trendscreen ranks a universe of ETFs once a month by trend and momentum,
removes illiquid and near-duplicate funds, and emits the orders that move
the portfolio from last month's picks to this month's.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads --config, or falls back to defaults.
func loadConfig(log *zap.Logger) (*config.Config, error) {
	if cfgFile == "" {
		log.Warn("no config file specified, using defaults")
		return config.Defaults(), nil
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// setup builds the logger and the application from flags and config.
func setup(ctx context.Context) (*zap.Logger, *config.Config, *app.App, error) {
	boot := logger.Must(debug)

	cfg, err := loadConfig(boot)
	if err != nil {
		return boot, nil, nil, err
	}

	log := boot
	if !debug {
		if log, err = logger.Build(logger.Options{
			Level:    cfg.Logging.Level,
			Encoding: cfg.Logging.Encoding,
		}); err != nil {
			return boot, nil, nil, err
		}
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return log, nil, nil, fmt.Errorf("initializing: %w", err)
	}
	a.SetVersion(Version)
	return log, cfg, a, nil
}
