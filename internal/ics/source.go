// Package ics reads a user's calendar from an iCalendar feed, for users
// whose calendar does not live in Google Workspace.
package ics

import (
	"context"
	"fmt"
	"time"

	"github.com/logivations/zulip-status-watcher/internal/log"
	"github.com/logivations/zulip-status-watcher/internal/model"
)

// SourceName identifies events and errors coming from ICS feeds.
const SourceName = "ics"

var logger = log.New("ics")

// Source reads one user's feed.
type Source struct {
	fetcher *Fetcher
	user    string
	url     string
}

// NewSource reads url for user through f.
func NewSource(f *Fetcher, user, url string) *Source {
	return &Source{fetcher: f, user: user, url: url}
}

func (s *Source) Name() string { return SourceName }

// FetchToday downloads and parses the feed and returns the events that
// overlap the day containing now, in now's time zone.
func (s *Source) FetchToday(ctx context.Context, now time.Time) ([]model.CalendarEvent, error) {
	body, err := s.fetcher.Fetch(ctx, s.url)
	if err != nil {
		return nil, &model.FetchError{Source: SourceName, User: s.user, Err: err}
	}

	parsed, err := parse(body, now.Location())
	if err != nil {
		return nil, &model.FetchError{Source: SourceName, User: s.user, Err: fmt.Errorf("unable to parse feed: %w", err)}
	}

	dayStart, dayEnd := model.DayBounds(now)
	evs := expand(parsed, s.user, dayStart, dayEnd)
	logger.Debug("feed expanded", "user", s.user, "vevents", len(parsed), "today", len(evs))
	return evs, nil
}
