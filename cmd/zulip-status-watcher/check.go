package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/logivations/zulip-status-watcher/internal/classify"
	"github.com/logivations/zulip-status-watcher/internal/model"
	"github.com/logivations/zulip-status-watcher/internal/status"
	"github.com/logivations/zulip-status-watcher/internal/watcher"
	"github.com/logivations/zulip-status-watcher/internal/zulip"
)

var (
	checkUser string
	checkAt   string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Show the status each user would get, without setting it",
	Long: `Fetch today's calendar, classify every event and resolve the status the
watcher would publish. Nothing is sent to Zulip.

Each event is listed with its category, the rule that decided it, and a "*"
when it is active at the evaluation time.

Examples:
  zulip-status-watcher check
  zulip-status-watcher check --user ann@example.com
  zulip-status-watcher check --user ann@example.com --at 2026-10-19T12:30:00+02:00`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkUser, "user", "", "Only check this user")
	checkCmd.Flags().StringVar(&checkAt, "at", "", "Evaluation time (RFC3339), defaults to now")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}

	now := time.Now().In(a.loc)
	if checkAt != "" {
		t, err := time.Parse(time.RFC3339, checkAt)
		if err != nil {
			return fmt.Errorf("invalid --at time: %w", err)
		}
		now = t.In(a.loc)
	}

	users := []string{checkUser}
	if checkUser == "" {
		users, err = a.roster()(ctx)
		if err != nil {
			return fmt.Errorf("unable to load roster: %w", err)
		}
	}
	if len(users) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No users to check.")
		return nil
	}

	c := classify.Default()
	out := cmd.OutOrStdout()
	var failed int
	for i, user := range users {
		if i > 0 {
			fmt.Fprintln(out)
		}
		src, err := a.source(ctx, user)
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", user, err)
			failed++
			continue
		}

		w := watcher.New(user, src, nil)
		w.Resolver = status.NewResolver(c)
		st, evs, err := w.Evaluate(ctx, now)
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", user, err)
			failed++
			continue
		}
		writeCheck(out, user, now, evs, st, c)
	}

	if failed > 0 {
		return fmt.Errorf("%d user(s) could not be checked", failed)
	}
	return nil
}

// writeCheck prints the decision table of one user.
func writeCheck(w io.Writer, user string, now time.Time, evs []model.CalendarEvent, st status.Status, c *classify.Classifier) {
	fmt.Fprintf(w, "%s at %s\n", user, now.Format("Mon Jan 2 15:04 MST"))

	if len(evs) == 0 {
		fmt.Fprintln(w, "  No events today.")
	}
	for _, ev := range evs {
		cat, rule := c.Explain(ev)
		if rule == "" {
			rule = "-"
		}
		active := " "
		if ev.ActiveAt(now) {
			active = "*"
		}
		fmt.Fprintf(w, "  %s %-13s %-24s %-16s %s\n", active, eventSpan(ev), cat, rule, ev.Title)
	}

	text := "(clear)"
	if !st.IsClear() {
		text = zulip.Compose("", st.Text())
		if st.Emoji.Name != "" {
			text += "  :" + st.Emoji.Name + ":"
		}
	}
	fmt.Fprintf(w, "  => %s  %s\n", st, text)
}

func eventSpan(ev model.CalendarEvent) string {
	if ev.AllDay {
		return "all day"
	}
	if ev.Start.IsZero() || ev.End.IsZero() {
		return "?"
	}
	return ev.Start.Format("15:04") + "-" + ev.End.Format("15:04")
}
