package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/logivations/zulip-status-watcher/internal/config"
	"github.com/logivations/zulip-status-watcher/internal/events"
	"github.com/logivations/zulip-status-watcher/internal/zulip"
)

var (
	historyTailN   int
	historyJSONOut bool
	historyUser    string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show published status changes",
	Long: `Show the status changes published by the watcher, oldest first.

Examples:
  zulip-status-watcher history               # Show last 50 changes
  zulip-status-watcher history --tail=200
  zulip-status-watcher history --user ann@example.com --json`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVar(&historyTailN, "tail", 50, "Number of changes to show (0 for all)")
	historyCmd.Flags().BoolVar(&historyJSONOut, "json", false, "Output as JSON")
	historyCmd.Flags().StringVar(&historyUser, "user", "", "Only show changes for this user")
}

func runHistory(cmd *cobra.Command, args []string) error {
	// The journal location is all that is needed; credentials may be unset.
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	n := historyTailN
	if historyUser != "" {
		n = 0
	}
	ts, err := events.ReadJournal(filepath.Join(cfg.RuntimeDir, events.JournalFile), n)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	if historyUser != "" {
		ts = filterUser(ts, historyUser)
		if historyTailN > 0 && len(ts) > historyTailN {
			ts = ts[len(ts)-historyTailN:]
		}
	}

	if historyJSONOut {
		if ts == nil {
			ts = []events.Transition{}
		}
		data, err := json.MarshalIndent(ts, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	writeHistory(cmd.OutOrStdout(), ts)
	return nil
}

func filterUser(ts []events.Transition, user string) []events.Transition {
	var out []events.Transition
	for _, t := range ts {
		if t.User == user {
			out = append(out, t)
		}
	}
	return out
}

func writeHistory(w io.Writer, ts []events.Transition) {
	if len(ts) == 0 {
		fmt.Fprintln(w, "No status changes recorded yet.")
		return
	}
	for _, t := range ts {
		text := "(clear)"
		if !t.To.IsClear() {
			text = zulip.Compose("", t.Text)
		}
		fmt.Fprintf(w, "%s  %-28s %s -> %s  %s\n",
			t.At.Local().Format("2006-01-02 15:04:05"), t.User, t.From, t.To, text)
	}
}
