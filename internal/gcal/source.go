// Package gcal reads a user's Google Calendar for the current day and turns
// it into model.CalendarEvent values.
package gcal

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/logivations/zulip-status-watcher/internal/log"
	"github.com/logivations/zulip-status-watcher/internal/model"
)

// SourceName identifies events and errors coming from Google Calendar.
const SourceName = "google-calendar"

// maxResults is generous for a single day; pages beyond it are followed.
const maxResults = 250

var logger = log.New("gcal")

// eventTypes are requested explicitly; the API omits working-location
// entries unless asked for them.
var eventTypes = []string{
	model.EventTypeDefault,
	model.EventTypeOutOfOffice,
	model.EventTypeWorkingLocation,
	model.EventTypeFocusTime,
}

// Source fetches one user's calendar.
type Source struct {
	svc        *calendar.Service
	user       string
	calendarID string
}

// NewSource reads calendarID through svc on behalf of user. An empty
// calendarID means the user's primary calendar.
func NewSource(svc *calendar.Service, user, calendarID string) *Source {
	if calendarID == "" {
		calendarID = "primary"
	}
	return &Source{svc: svc, user: user, calendarID: calendarID}
}

func (s *Source) Name() string { return SourceName }

// FetchToday lists the single (expanded) events overlapping the day that
// contains now, in now's time zone. The bounds carry their offsets, so no
// timeZone parameter is sent.
func (s *Source) FetchToday(ctx context.Context, now time.Time) ([]model.CalendarEvent, error) {
	dayStart, dayEnd := model.DayBounds(now)

	call := s.svc.Events.List(s.calendarID).
		Context(ctx).
		ShowDeleted(false).
		SingleEvents(true).
		TimeMin(dayStart.Format(time.RFC3339)).
		TimeMax(dayEnd.Format(time.RFC3339)).
		OrderBy("startTime").
		EventTypes(eventTypes...).
		MaxResults(maxResults)

	out := make([]model.CalendarEvent, 0)
	err := call.Pages(ctx, func(page *calendar.Events) error {
		for _, item := range page.Items {
			ev, ok := Convert(item, now.Location())
			if !ok {
				continue
			}
			out = append(out, ev)
		}
		return nil
	})
	if err != nil {
		return nil, &model.FetchError{Source: SourceName, User: s.user, Err: fmt.Errorf("unable to retrieve events: %w", err)}
	}

	logger.Debug("fetched events", "user", s.user, "calendar", s.calendarID, "count", len(out))
	return out, nil
}
