package gcal

import (
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/logivations/zulip-status-watcher/internal/model"
)

const statusCancelled = "cancelled"

// Convert maps an API event to a CalendarEvent. It reports false for events
// that must not take part in resolution at all (cancelled instances).
// Unparseable times are left zero so the classifier drops the event as
// malformed.
func Convert(item *calendar.Event, loc *time.Location) (model.CalendarEvent, bool) {
	if item == nil || item.Status == statusCancelled {
		return model.CalendarEvent{}, false
	}

	ev := model.CalendarEvent{
		ID:       item.Id,
		Title:    item.Summary,
		Metadata: map[string]string{model.MetaSource: SourceName},
	}

	if item.Start != nil && item.End != nil {
		start, allDay, err := model.ParseEventTime(item.Start.DateTime, item.Start.Date, loc)
		if err != nil {
			logger.Warn("unparseable start", "id", item.Id, "err", err)
		}
		end, _, err := model.ParseEventTime(item.End.DateTime, item.End.Date, loc)
		if err != nil {
			logger.Warn("unparseable end", "id", item.Id, "err", err)
		}
		ev.Start, ev.End, ev.AllDay = start, end, allDay
	}

	eventType := item.EventType
	if eventType == "" {
		eventType = model.EventTypeDefault
	}
	ev.Metadata[model.MetaEventType] = eventType

	if item.Visibility != "" {
		ev.Metadata[model.MetaVisibility] = item.Visibility
	}

	if rs := selfResponse(item); rs != "" {
		ev.Metadata[model.MetaResponseStatus] = rs
	}

	if wl := item.WorkingLocationProperties; wl != nil {
		if wl.Type != "" {
			ev.Metadata[model.MetaWorkingLocation] = wl.Type
		}
		if label := locationLabel(wl); label != "" {
			ev.Metadata[model.MetaWorkingLocationLabel] = label
		}
	}

	return ev, true
}

// selfResponse is the watched user's own answer to the invitation. Events
// the user organises without attendees have none.
func selfResponse(item *calendar.Event) string {
	for _, a := range item.Attendees {
		if a != nil && a.Self {
			return a.ResponseStatus
		}
	}
	return ""
}

func locationLabel(wl *calendar.EventWorkingLocationProperties) string {
	if wl.OfficeLocation != nil && wl.OfficeLocation.Label != "" {
		return wl.OfficeLocation.Label
	}
	if wl.CustomLocation != nil {
		return wl.CustomLocation.Label
	}
	return ""
}
