package watcher

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/logivations/zulip-status-watcher/internal/log"
)

// DefaultSchedule is the poll interval used when none is configured.
const DefaultSchedule = "@every 60s"

// RosterFunc returns the email addresses to watch.
type RosterFunc func(ctx context.Context) ([]string, error)

// Factory builds the watcher for a newly seen user.
type Factory func(user string) (*Watcher, error)

// StaticRoster returns a roster that always yields users.
func StaticRoster(users ...string) RosterFunc {
	return func(context.Context) ([]string, error) {
		return users, nil
	}
}

// Summary counts the outcomes of one tick.
type Summary struct {
	Published int
	Skipped   int
	Failed    int
}

// Loop polls every user of the roster on a cron schedule.
type Loop struct {
	Roster   RosterFunc
	Factory  Factory
	Schedule string
	Location *time.Location

	watchers map[string]*Watcher
	order    []string
}

// NewLoop creates a loop with the default schedule.
func NewLoop(roster RosterFunc, factory Factory) *Loop {
	return &Loop{
		Roster:   roster,
		Factory:  factory,
		Schedule: DefaultSchedule,
		watchers: make(map[string]*Watcher),
	}
}

// Watchers returns the current watchers in roster order.
func (l *Loop) Watchers() []*Watcher {
	out := make([]*Watcher, 0, len(l.order))
	for _, u := range l.order {
		out = append(out, l.watchers[u])
	}
	return out
}

// refresh reconciles watchers with the roster. Users that stay keep their
// state; users that leave lose it. When the roster cannot be loaded the
// previous set of watchers is kept.
func (l *Loop) refresh(ctx context.Context) {
	users, err := l.Roster(ctx)
	if err != nil {
		logger.Error("unable to load roster, keeping previous users", err, "users", len(l.order))
		return
	}

	next := make(map[string]*Watcher, len(users))
	var order []string
	for _, u := range users {
		if _, dup := next[u]; dup {
			continue
		}
		w, ok := l.watchers[u]
		if !ok {
			w, err = l.Factory(u)
			if err != nil {
				logger.Error("unable to set up watcher", err, "user", u)
				continue
			}
			logger.Info("watching user", "user", u)
		}
		next[u] = w
		order = append(order, u)
	}
	for _, u := range l.order {
		if _, ok := next[u]; !ok {
			logger.Info("user left roster", "user", u)
		}
	}
	l.watchers = next
	l.order = order
}

// Tick runs one cycle for every user, one after another. Cycle errors are
// counted and logged but never stop the tick.
func (l *Loop) Tick(ctx context.Context) Summary {
	if l.watchers == nil {
		l.watchers = make(map[string]*Watcher)
	}
	l.refresh(ctx)

	var sum Summary
	for _, u := range l.order {
		if ctx.Err() != nil {
			break
		}
		outcome, _ := l.watchers[u].Cycle(ctx)
		switch outcome {
		case Published:
			sum.Published++
		case Skipped:
			sum.Skipped++
		default:
			sum.Failed++
		}
	}
	logger.Debug("tick done", "published", sum.Published, "skipped", sum.Skipped, "failed", sum.Failed)
	return sum
}

// Run ticks once immediately, then on every schedule firing until ctx is
// done. A tick that is still running when the next one is due makes cron
// skip the new one. Run waits for a running tick before returning.
func (l *Loop) Run(ctx context.Context) error {
	schedule := l.Schedule
	if schedule == "" {
		schedule = DefaultSchedule
	}

	cronLog := log.CronLogger{Logger: log.New("cron")}
	opts := []cron.Option{
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	}
	if l.Location != nil {
		opts = append(opts, cron.WithLocation(l.Location))
	}
	c := cron.New(opts...)

	if _, err := c.AddFunc(schedule, func() { l.Tick(ctx) }); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	l.Tick(ctx)

	c.Start()
	logger.Info("watch loop started", "schedule", schedule)

	<-ctx.Done()
	logger.Info("shutting down, waiting for running tick")
	<-c.Stop().Done()
	return nil
}
