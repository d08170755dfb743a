// Package model holds the calendar snapshot types shared by the calendar
// sources, the status engine and the watcher loop.
package model

import (
	"time"
)

// Metadata keys understood by the classifier. Calendar sources translate
// their own fields into these keys so the classifier never needs to know
// where an event came from.
const (
	MetaSource               = "source"
	MetaEventType            = "event_type"
	MetaWorkingLocation      = "working_location"
	MetaWorkingLocationLabel = "working_location_label"
	MetaResponseStatus       = "response_status"
	MetaVisibility           = "visibility"
	MetaBusyStatus           = "busy_status"
)

// Values for MetaEventType. They mirror the Google Calendar eventType field.
const (
	EventTypeDefault         = "default"
	EventTypeWorkingLocation = "workingLocation"
	EventTypeOutOfOffice     = "outOfOffice"
	EventTypeFocusTime       = "focusTime"
)

// Values for MetaWorkingLocation.
const (
	LocationOffice     = "officeLocation"
	LocationHomeOffice = "homeOffice"
	LocationHome       = "homeLocation"
	LocationCustom     = "customLocation"
	LocationOther      = "otherLocation"
)

// Values for MetaResponseStatus.
const (
	ResponseAccepted    = "accepted"
	ResponseTentative   = "tentative"
	ResponseNeedsAction = "needsAction"
	ResponseDeclined    = "declined"
)

// Values for MetaVisibility that hide an event's details.
const (
	VisibilityPrivate      = "private"
	VisibilityConfidential = "confidential"
)

// dateLayout is the layout of all-day dates in calendar payloads.
const dateLayout = "2006-01-02"

// CalendarEvent is one event of today's calendar snapshot.
//
// For all-day events Start and End are midnights and End is exclusive, the
// way both Google Calendar and iCalendar express date ranges. A zero-length
// all-day event is treated as covering its start date.
type CalendarEvent struct {
	ID       string
	Title    string
	Start    time.Time
	End      time.Time
	AllDay   bool
	Metadata map[string]string
}

// Meta returns a metadata value, or "" when absent.
func (e CalendarEvent) Meta(key string) string {
	if e.Metadata == nil {
		return ""
	}
	return e.Metadata[key]
}

// Private reports whether the event's details must not be shown to others.
func (e CalendarEvent) Private() bool {
	v := e.Meta(MetaVisibility)
	return v == VisibilityPrivate || v == VisibilityConfidential
}

// Malformed reports whether the event lacks the fields needed to place it in
// time or to recognise it at all.
func (e CalendarEvent) Malformed() bool {
	if e.Start.IsZero() || e.End.IsZero() {
		return true
	}
	if e.End.Before(e.Start) {
		return true
	}
	return e.Title == "" && len(e.Metadata) == 0
}

// ActiveAt reports whether now falls inside the event.
// Timed events are half-open [Start, End). All-day events are compared by
// calendar date in now's location.
func (e CalendarEvent) ActiveAt(now time.Time) bool {
	if e.Malformed() {
		return false
	}
	if !e.AllDay {
		return !now.Before(e.Start) && now.Before(e.End)
	}

	today := dateOf(now, now.Location())
	startDate := dateOf(e.Start, now.Location())
	endDate := dateOf(e.End, now.Location())
	if !endDate.After(startDate) {
		endDate = startDate.AddDate(0, 0, 1)
	}
	return !today.Before(startDate) && today.Before(endDate)
}

// dateOf truncates t to midnight of its calendar date. All-day events are
// anchored to their own date, not shifted into loc.
func dateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// ParseEventTime parses a calendar start/end value that is either an RFC3339
// date-time or a date-only string. Date-only values are placed at midnight in
// loc and reported as all-day.
func ParseEventTime(dateTime, date string, loc *time.Location) (time.Time, bool, error) {
	if dateTime != "" {
		t, err := time.Parse(time.RFC3339, dateTime)
		return t, false, err
	}
	if date != "" {
		if loc == nil {
			loc = time.Local
		}
		t, err := time.ParseInLocation(dateLayout, date, loc)
		return t, true, err
	}
	return time.Time{}, false, nil
}

// DayBounds returns local midnight of now's date and the following midnight.
func DayBounds(now time.Time) (time.Time, time.Time) {
	start := dateOf(now, now.Location())
	return start, start.AddDate(0, 0, 1)
}
