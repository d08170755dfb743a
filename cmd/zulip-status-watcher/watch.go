package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/logivations/zulip-status-watcher/internal/log"
	"github.com/logivations/zulip-status-watcher/internal/watcher"
)

var watchOnce bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the poll loop",
	Long: `Poll every watched user's calendar on the configured schedule and update
their Zulip status whenever the resolved status changes.

Runs in the foreground until interrupted (SIGINT or SIGTERM). Output goes to
stderr and to the log file (log.file, or watcher.log in runtime_dir).

Examples:
  zulip-status-watcher watch
  zulip-status-watcher watch --once                 # single pass, then exit
  zulip-status-watcher watch --log-level=debug`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().BoolVar(&watchOnce, "once", false, "Run a single pass over all users and exit")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logPath := cfg.Log.File
	if logPath == "" {
		logPath = filepath.Join(cfg.RuntimeDir, logFileName)
	}
	logFile, err := openLogFile(logPath)
	if err != nil {
		return err
	}
	defer logFile.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.bus.Close()

	loop := watcher.NewLoop(a.roster(), a.factory(ctx))
	loop.Schedule = cfg.Schedule
	loop.Location = a.loc

	logger := log.New("watch")
	logger.Info("starting", "version", Version, "config", configPath, "log", logPath, "pid", os.Getpid())

	if watchOnce {
		sum := loop.Tick(ctx)
		fmt.Fprintf(cmd.OutOrStdout(), "%d published, %d unchanged, %d failed\n", sum.Published, sum.Skipped, sum.Failed)
		if sum.Failed > 0 {
			return fmt.Errorf("%d user(s) failed", sum.Failed)
		}
		return nil
	}

	if err := loop.Run(ctx); err != nil {
		return err
	}
	logger.Info("stopped")
	return nil
}
