package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/logivations/zulip-status-watcher/internal/config"
	"github.com/logivations/zulip-status-watcher/internal/log"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "zulip-status-watcher",
	Short: "Keep Zulip statuses in sync with Google Calendar",
	Long: `zulip-status-watcher reads each watched user's calendar once a minute and
sets their Zulip status from it:

  vacation > meeting > lunch > working location (office / remote) > clear

Anything a user writes before a "|" in their status is kept.

Commands:
  init      Write a starter config
  auth      Authorize Google Calendar access (oauth mode)
  watch     Run the poll loop
  check     Show what status would be set right now, without setting it
  history   Show published status changes`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath, "Path to the config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level (debug, info, warn, error)")
}

// loadConfig loads and validates the config named by --config and applies
// the log level.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s:\n%w", configPath, err)
	}

	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	log.SetLevel(lvl)
	return cfg, nil
}

// openLogFile tees log output to path in addition to stderr. The returned
// closer must be called on exit.
func openLogFile(path string) (io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	log.SetOutput(io.MultiWriter(os.Stderr, f))
	return f, nil
}
