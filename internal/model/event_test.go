package model

import (
	"testing"
	"time"
)

func TestActiveAt(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	at := func(h, m int) time.Time { return time.Date(2026, 1, 28, h, m, 0, 0, loc) }
	day := func(d int) time.Time { return time.Date(2026, 1, d, 0, 0, 0, 0, loc) }

	tests := []struct {
		name  string
		event CalendarEvent
		now   time.Time
		want  bool
	}{
		{
			name:  "inside timed event",
			event: CalendarEvent{Title: "Standup", Start: at(9, 0), End: at(9, 30)},
			now:   at(9, 10),
			want:  true,
		},
		{
			name:  "start is inclusive",
			event: CalendarEvent{Title: "Standup", Start: at(9, 0), End: at(9, 30)},
			now:   at(9, 0),
			want:  true,
		},
		{
			name:  "end is exclusive",
			event: CalendarEvent{Title: "Standup", Start: at(9, 0), End: at(9, 30)},
			now:   at(9, 30),
			want:  false,
		},
		{
			name:  "all-day covers the whole date",
			event: CalendarEvent{Title: "Out", Start: day(28), End: day(29), AllDay: true},
			now:   at(23, 59),
			want:  true,
		},
		{
			name:  "all-day end date is exclusive",
			event: CalendarEvent{Title: "Out", Start: day(27), End: day(28), AllDay: true},
			now:   at(9, 0),
			want:  false,
		},
		{
			name:  "zero-length all-day marker covers its start date",
			event: CalendarEvent{Title: "Out", Start: day(28), End: day(28), AllDay: true},
			now:   at(12, 0),
			want:  true,
		},
		{
			name:  "multi-day all-day",
			event: CalendarEvent{Title: "Vacation", Start: day(26), End: day(31), AllDay: true},
			now:   at(8, 0),
			want:  true,
		},
		{
			name:  "missing end is never active",
			event: CalendarEvent{Title: "Broken", Start: at(9, 0)},
			now:   at(9, 10),
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.ActiveAt(tt.now); got != tt.want {
				t.Errorf("ActiveAt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMalformed(t *testing.T) {
	start := time.Date(2026, 1, 28, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		event CalendarEvent
		want  bool
	}{
		{"complete", CalendarEvent{Title: "x", Start: start, End: start.Add(time.Hour)}, false},
		{"metadata only", CalendarEvent{Start: start, End: start.Add(time.Hour), Metadata: map[string]string{MetaEventType: EventTypeWorkingLocation}}, false},
		{"no start", CalendarEvent{Title: "x", End: start}, true},
		{"end before start", CalendarEvent{Title: "x", Start: start, End: start.Add(-time.Minute)}, true},
		{"no title or metadata", CalendarEvent{Start: start, End: start.Add(time.Hour)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.Malformed(); got != tt.want {
				t.Errorf("Malformed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseEventTime(t *testing.T) {
	loc := time.FixedZone("CET", 3600)

	got, allDay, err := ParseEventTime("2026-01-28T10:00:00-05:00", "", loc)
	if err != nil {
		t.Fatalf("ParseEventTime() error = %v", err)
	}
	if allDay {
		t.Error("date-time value reported as all-day")
	}
	if want := time.Date(2026, 1, 28, 15, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("ParseEventTime() = %v, want %v", got, want)
	}

	got, allDay, err = ParseEventTime("", "2026-01-28", loc)
	if err != nil {
		t.Fatalf("ParseEventTime() error = %v", err)
	}
	if !allDay {
		t.Error("date value not reported as all-day")
	}
	if want := time.Date(2026, 1, 28, 0, 0, 0, 0, loc); !got.Equal(want) {
		t.Errorf("ParseEventTime() = %v, want %v", got, want)
	}

	got, _, err = ParseEventTime("", "", loc)
	if err != nil || !got.IsZero() {
		t.Errorf("ParseEventTime(empty) = %v, %v; want zero time, nil", got, err)
	}

	if _, _, err := ParseEventTime("not-a-time", "", loc); err == nil {
		t.Error("ParseEventTime() expected error for garbage input")
	}
}
