package status

import (
	"errors"
	"testing"
	"time"

	"github.com/logivations/zulip-status-watcher/internal/model"
)

var loc = time.FixedZone("CET", 3600)

func at(h, m int) time.Time {
	return time.Date(2026, 1, 28, h, m, 0, 0, loc)
}

func meeting(title string, sh, sm, eh, em int) model.CalendarEvent {
	return model.CalendarEvent{Title: title, Start: at(sh, sm), End: at(eh, em)}
}

func wholeDay(title string, meta map[string]string) model.CalendarEvent {
	d := time.Date(2026, 1, 28, 0, 0, 0, 0, loc)
	return model.CalendarEvent{Title: title, Start: d, End: d.AddDate(0, 0, 1), AllDay: true, Metadata: meta}
}

func location(where string) map[string]string {
	return map[string]string{model.MetaEventType: model.EventTypeWorkingLocation, model.MetaWorkingLocation: where}
}

func TestResolveScenarios(t *testing.T) {
	tests := []struct {
		name   string
		now    time.Time
		events []model.CalendarEvent
		want   Status
	}{
		{
			name:   "no events clears",
			now:    at(9, 0),
			events: []model.CalendarEvent{},
			want:   ClearStatus(),
		},
		{
			name:   "single meeting",
			now:    at(9, 10),
			events: []model.CalendarEvent{meeting("Standup", 9, 0, 9, 30)},
			want:   MeetingStatus("Standup"),
		},
		{
			name: "vacation masks meeting",
			now:  at(9, 10),
			events: []model.CalendarEvent{
				wholeDay("Out", map[string]string{model.MetaEventType: model.EventTypeOutOfOffice}),
				meeting("Standup", 9, 0, 9, 30),
			},
			want: VacationStatus("Out"),
		},
		{
			name:   "office working location",
			now:    at(9, 10),
			events: []model.CalendarEvent{wholeDay("Office", location(model.LocationOffice))},
			want:   OfficeStatus(""),
		},
		{
			name: "meeting outranks lunch",
			now:  at(12, 45),
			events: []model.CalendarEvent{
				meeting("Lunch", 12, 0, 13, 0),
				meeting("Review", 12, 30, 13, 0),
			},
			want: MeetingStatus("Review"),
		},
		{
			name: "lunch outranks working location",
			now:  at(12, 15),
			events: []model.CalendarEvent{
				wholeDay("Home", location(model.LocationHomeOffice)),
				meeting("Lunch", 12, 0, 13, 0),
			},
			want: LunchStatus(),
		},
		{
			name: "all-day lunch reminder keeps working location",
			now:  at(12, 15),
			events: []model.CalendarEvent{
				wholeDay("Office", location(model.LocationOffice)),
				wholeDay("Team lunch Friday", nil),
			},
			want: OfficeStatus(""),
		},
		{
			name: "holiday party planning is a meeting",
			now:  at(15, 10),
			events: []model.CalendarEvent{
				wholeDay("Office", location(model.LocationOffice)),
				meeting("Holiday party planning", 15, 0, 16, 0),
			},
			want: MeetingStatus("Holiday party planning"),
		},
		{
			name: "meeting outranks working location",
			now:  at(10, 0),
			events: []model.CalendarEvent{
				wholeDay("Office", location(model.LocationOffice)),
				meeting("1:1", 10, 0, 10, 30),
			},
			want: MeetingStatus("1:1"),
		},
		{
			name: "vacation masks working location",
			now:  at(10, 0),
			events: []model.CalendarEvent{
				wholeDay("Office", location(model.LocationOffice)),
				wholeDay("Vacation", nil),
			},
			want: VacationStatus("Vacation"),
		},
		{
			name: "events not active now are ignored",
			now:  at(11, 0),
			events: []model.CalendarEvent{
				meeting("Standup", 9, 0, 9, 30),
				meeting("Lunch", 12, 0, 13, 0),
			},
			want: ClearStatus(),
		},
		{
			name: "declined meeting falls through to location",
			now:  at(9, 10),
			events: []model.CalendarEvent{
				{Title: "Planning", Start: at(9, 0), End: at(10, 0), Metadata: map[string]string{model.MetaResponseStatus: model.ResponseDeclined}},
				wholeDay("Home", location(model.LocationHome)),
			},
			want: RemoteStatus(""),
		},
		{
			name: "timed working location reports its end",
			now:  at(9, 10),
			events: []model.CalendarEvent{
				{Title: "Office", Start: at(8, 0), End: at(13, 0), Metadata: location(model.LocationOffice)},
			},
			want: OfficeStatus("until 13:00"),
		},
		{
			name: "malformed events are neutralised",
			now:  at(9, 10),
			events: []model.CalendarEvent{
				{Title: "Vacation"},
				{Title: "Standup", Start: at(9, 0)},
			},
			want: ClearStatus(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.now, tt.events)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Resolve() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveMeetingTieBreak(t *testing.T) {
	tests := []struct {
		name   string
		events []model.CalendarEvent
		want   string
	}{
		{
			name:   "earliest start wins",
			events: []model.CalendarEvent{meeting("Planning", 9, 5, 10, 0), meeting("Standup", 9, 0, 9, 30)},
			want:   "Standup",
		},
		{
			name:   "same start keeps input order",
			events: []model.CalendarEvent{meeting("First", 9, 0, 9, 30), meeting("Second", 9, 0, 10, 0)},
			want:   "First",
		},
		{
			name:   "same start keeps input order reversed",
			events: []model.CalendarEvent{meeting("Second", 9, 0, 10, 0), meeting("First", 9, 0, 9, 30)},
			want:   "Second",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, err := Resolve(at(9, 10), tt.events)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			second, _ := Resolve(at(9, 10), tt.events)
			if !first.Equal(second) {
				t.Errorf("Resolve() not deterministic: %v then %v", first, second)
			}
			if first.Kind != InMeeting || first.Detail != tt.want {
				t.Errorf("Resolve() = %v, want in-meeting(%s)", first, tt.want)
			}
		})
	}
}

func TestResolveWorkingLocationConflict(t *testing.T) {
	office := model.CalendarEvent{Title: "Office", Start: at(8, 0), End: at(17, 0), Metadata: location(model.LocationOffice)}
	home := model.CalendarEvent{Title: "Home", Start: at(13, 0), End: at(18, 0), Metadata: location(model.LocationHomeOffice)}
	homeSameStart := model.CalendarEvent{Title: "Home", Start: at(8, 0), End: at(18, 0), Metadata: location(model.LocationHomeOffice)}

	tests := []struct {
		name   string
		events []model.CalendarEvent
		want   Status
	}{
		{"latest start wins", []model.CalendarEvent{office, home}, RemoteStatus("until 18:00")},
		{"latest start wins regardless of order", []model.CalendarEvent{home, office}, RemoteStatus("until 18:00")},
		{"tie keeps input order", []model.CalendarEvent{homeSameStart, office}, RemoteStatus("until 18:00")},
		{"tie keeps input order reversed", []model.CalendarEvent{office, homeSameStart}, OfficeStatus("until 17:00")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(at(14, 0), tt.events)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Resolve() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveVacationPreference(t *testing.T) {
	events := []model.CalendarEvent{
		meeting("Sick", 8, 0, 12, 0),
		wholeDay("Vacation", nil),
	}
	got, err := Resolve(at(9, 0), events)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Detail != "Vacation" {
		t.Errorf("Resolve() = %v, want the all-day vacation", got)
	}
}

func TestResolveVacationMasksEverything(t *testing.T) {
	others := []model.CalendarEvent{
		meeting("Standup", 9, 0, 9, 30),
		meeting("Review", 9, 0, 10, 0),
		meeting("Lunch", 9, 0, 13, 0),
		wholeDay("Office", location(model.LocationOffice)),
		wholeDay("Home", location(model.LocationHome)),
	}
	vacation := wholeDay("Day off", nil)

	for n := 0; n <= len(others); n++ {
		for pos := 0; pos <= n; pos++ {
			events := append([]model.CalendarEvent(nil), others[:n]...)
			events = append(events[:pos], append([]model.CalendarEvent{vacation}, events[pos:]...)...)

			got, err := Resolve(at(9, 15), events)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got.Kind != Vacation {
				t.Errorf("Resolve(%d others, vacation at %d) = %v, want vacation", n, pos, got)
			}
		}
	}
}

func TestResolvePrivateMeetingShowsBusy(t *testing.T) {
	private := meeting("1:1 with HR", 10, 0, 11, 0)
	private.Metadata = map[string]string{model.MetaVisibility: model.VisibilityPrivate}
	vacation := wholeDay("Vacation in Rome", map[string]string{model.MetaVisibility: model.VisibilityConfidential})

	got, err := Resolve(at(10, 30), []model.CalendarEvent{private})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if want := MeetingStatus("Busy"); !got.Equal(want) {
		t.Errorf("Resolve(private meeting) = %v, want %v", got, want)
	}

	got, _ = Resolve(at(10, 30), []model.CalendarEvent{private, vacation})
	if got.Kind != Vacation {
		t.Errorf("Resolve(private vacation) = %v, want vacation", got)
	}
}

func TestResolveErrors(t *testing.T) {
	if _, err := Resolve(time.Time{}, []model.CalendarEvent{}); !errors.Is(err, ErrInvalidTime) {
		t.Errorf("Resolve(zero time) error = %v, want ErrInvalidTime", err)
	}
	if _, err := Resolve(at(9, 0), nil); !errors.Is(err, ErrNoEvents) {
		t.Errorf("Resolve(nil events) error = %v, want ErrNoEvents", err)
	}
}
