// Package watcher drives the calendar to status pipeline for each watched
// user: fetch today's events, resolve a status, gate it against what was
// last published, publish, and only then remember it.
package watcher

import (
	"context"
	"errors"
	"time"

	"github.com/logivations/zulip-status-watcher/internal/events"
	"github.com/logivations/zulip-status-watcher/internal/log"
	"github.com/logivations/zulip-status-watcher/internal/model"
	"github.com/logivations/zulip-status-watcher/internal/status"
)

var logger = log.New("watcher")

// Source produces the events of the day containing now. An empty day must
// be reported as an empty, non-nil slice.
type Source interface {
	FetchToday(ctx context.Context, now time.Time) ([]model.CalendarEvent, error)
}

// Publisher pushes a status to the chat platform.
type Publisher interface {
	Publish(ctx context.Context, st status.Status) error
}

// named is implemented by sources that want to appear by name in errors.
type named interface {
	Name() string
}

// Outcome is what a single cycle did.
type Outcome int

const (
	Skipped Outcome = iota
	Published
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Skipped:
		return "skipped"
	case Published:
		return "published"
	default:
		return "failed"
	}
}

// Watcher owns the status state of one user. It is not safe for concurrent
// use; the loop runs cycles one at a time.
type Watcher struct {
	User      string
	Source    Source
	Publisher Publisher
	Resolver  *status.Resolver
	Bus       *events.Bus
	Now       func() time.Time

	state status.State
}

// New creates a watcher with the default resolver and a fresh state, so its
// first cycle always publishes.
func New(user string, src Source, pub Publisher) *Watcher {
	return &Watcher{
		User:      user,
		Source:    src,
		Publisher: pub,
		Resolver:  status.NewResolver(nil),
		Now:       time.Now,
		state:     status.NewState(),
	}
}

// State returns the last committed state.
func (w *Watcher) State() status.State {
	return w.state
}

// Evaluate fetches today's events and resolves them without touching the
// gate or the publisher.
func (w *Watcher) Evaluate(ctx context.Context, now time.Time) (status.Status, []model.CalendarEvent, error) {
	evs, err := w.Source.FetchToday(ctx, now)
	if err != nil {
		var fe *model.FetchError
		if !errors.As(err, &fe) {
			err = &model.FetchError{Source: sourceName(w.Source), User: w.User, Err: err}
		}
		return status.Status{}, nil, err
	}

	st, err := w.resolver().Resolve(now, evs)
	if err != nil {
		return status.Status{}, evs, err
	}
	return st, evs, nil
}

// Cycle runs one evaluation. State is committed only after a successful
// publish, so a failed publish is retried with the same target next cycle.
func (w *Watcher) Cycle(ctx context.Context) (Outcome, error) {
	now := w.Now()

	next, evs, err := w.Evaluate(ctx, now)
	if err != nil {
		var fe *model.FetchError
		if errors.As(err, &fe) {
			logger.Warn("calendar fetch failed, skipping cycle", "user", w.User, "err", err)
		} else {
			logger.Error("unable to resolve status", err, "user", w.User, "events", len(evs))
		}
		return Failed, err
	}

	decision := status.Apply(next, w.state)
	if decision.Action == status.Skip {
		logger.Debug("status unchanged", "user", w.User, "status", next)
		return Skipped, nil
	}

	if err := w.Publisher.Publish(ctx, decision.Status); err != nil {
		perr := &model.PublishError{User: w.User, Target: decision.Status.Text(), Err: err}
		logger.Error("unable to publish status", err, "user", w.User, "status", decision.Status)
		return Failed, perr
	}

	prev := w.state.Last
	w.state = status.Commit(w.state, decision.Status, now)
	logger.Info("status published", "user", w.User, "from", prev, "to", decision.Status)

	w.Bus.Publish(events.Transition{
		User: w.User,
		From: prev,
		To:   decision.Status,
		Text: decision.Status.Text(),
		At:   now,
	})
	return Published, nil
}

func (w *Watcher) resolver() *status.Resolver {
	if w.Resolver == nil {
		return status.NewResolver(nil)
	}
	return w.Resolver
}

func sourceName(src Source) string {
	if n, ok := src.(named); ok {
		return n.Name()
	}
	return "calendar"
}
