package classify

import (
	"testing"
	"time"

	"github.com/logivations/zulip-status-watcher/internal/model"
)

var (
	nine = time.Date(2026, 1, 28, 9, 0, 0, 0, time.UTC)
	day  = time.Date(2026, 1, 28, 0, 0, 0, 0, time.UTC)
)

func timed(title string, meta map[string]string) model.CalendarEvent {
	return model.CalendarEvent{Title: title, Start: nine, End: nine.Add(30 * time.Minute), Metadata: meta}
}

func allDay(title string, meta map[string]string) model.CalendarEvent {
	return model.CalendarEvent{Title: title, Start: day, End: day.AddDate(0, 0, 1), AllDay: true, Metadata: meta}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		event model.CalendarEvent
		want  Category
		rule  string
	}{
		{"timed meeting", timed("Standup", nil), Meeting, "meeting"},
		{"lunch", timed("Team Lunch", nil), Lunch, "lunch-keyword"},
		{"lunch upper case", timed("LUNCH", nil), Lunch, "lunch-keyword"},
		{"vacation all-day", allDay("Vacation", nil), Vacation, "vacation-keyword"},
		{"out of office", allDay("Out of office - back Monday", nil), Vacation, "vacation-keyword"},
		{"ooo abbreviation", timed("OOO", nil), Vacation, "vacation-keyword"},
		{"ooo inside a word is not vacation", timed("Fooo review", nil), Meeting, "meeting"},
		{"pto abbreviation", allDay("PTO", nil), Vacation, "vacation-keyword"},
		{"day off", allDay("Day off", nil), Vacation, "vacation-keyword"},
		{"sick", allDay("Sick", nil), Vacation, "vacation-keyword"},
		{"workation", allDay("Workation in Lisbon", nil), Vacation, "vacation-keyword"},
		{"calendar out-of-office type", timed("Away", map[string]string{model.MetaEventType: model.EventTypeOutOfOffice}), Vacation, "out-of-office"},
		{"ics OOF busy status", timed("Conference", map[string]string{model.MetaBusyStatus: "OOF"}), Vacation, "out-of-office"},
		{"vacation beats declined", timed("Vacation", map[string]string{model.MetaResponseStatus: model.ResponseDeclined}), Vacation, "vacation-keyword"},
		{"declined meeting", timed("Planning", map[string]string{model.MetaResponseStatus: model.ResponseDeclined}), Irrelevant, "declined"},
		{"declined lunch", timed("Lunch", map[string]string{model.MetaResponseStatus: model.ResponseDeclined}), Irrelevant, "declined"},
		{"tentative meeting", timed("Planning", map[string]string{model.MetaResponseStatus: model.ResponseTentative}), Meeting, "meeting"},
		{"other all-day", allDay("Alice's birthday", nil), Irrelevant, "all-day"},
		{"all-day lunch reminder", allDay("Team lunch Friday", nil), Irrelevant, "all-day"},
		{"holiday title", allDay("Holiday", nil), Vacation, "vacation-keyword"},
		{"holiday after whitespace", allDay("  holiday in Spain", nil), Vacation, "vacation-keyword"},
		{"holiday later in the title", timed("Holiday party planning", nil), Meeting, "meeting"},
		{"sick leave", allDay("Sick leave", nil), Vacation, "vacation-keyword"},
		{"sick later in the title", timed("Sick-leave policy review", nil), Meeting, "meeting"},
		{
			name:  "office location",
			event: allDay("Office", map[string]string{model.MetaEventType: model.EventTypeWorkingLocation, model.MetaWorkingLocation: model.LocationOffice}),
			want:  WorkingLocationOffice,
			rule:  "working-location",
		},
		{
			name:  "home office location",
			event: allDay("Home", map[string]string{model.MetaEventType: model.EventTypeWorkingLocation, model.MetaWorkingLocation: model.LocationHomeOffice}),
			want:  WorkingLocationRemote,
			rule:  "working-location",
		},
		{
			name:  "home location",
			event: timed("", map[string]string{model.MetaEventType: model.EventTypeWorkingLocation, model.MetaWorkingLocation: model.LocationHome}),
			want:  WorkingLocationRemote,
			rule:  "working-location",
		},
		{
			name: "custom location with office label",
			event: allDay("Munich", map[string]string{
				model.MetaEventType:            model.EventTypeWorkingLocation,
				model.MetaWorkingLocation:      model.LocationCustom,
				model.MetaWorkingLocationLabel: "Munich office",
			}),
			want: WorkingLocationOffice,
			rule: "working-location",
		},
		{
			name: "custom location mentioning home",
			event: allDay("Parents", map[string]string{
				model.MetaEventType:            model.EventTypeWorkingLocation,
				model.MetaWorkingLocation:      model.LocationCustom,
				model.MetaWorkingLocationLabel: "Parents' home",
			}),
			want: WorkingLocationRemote,
			rule: "working-location",
		},
		{
			name: "unrecognised custom location",
			event: allDay("Train", map[string]string{
				model.MetaEventType:       model.EventTypeWorkingLocation,
				model.MetaWorkingLocation: model.LocationOther,
			}),
			want: Irrelevant,
			rule: "working-location",
		},
		{"missing end time", model.CalendarEvent{Title: "Standup", Start: nine}, Irrelevant, "malformed"},
		{"end before start", model.CalendarEvent{Title: "Vacation", Start: nine, End: nine.Add(-time.Hour)}, Irrelevant, "malformed"},
		{"empty event", model.CalendarEvent{Start: nine, End: nine.Add(time.Hour)}, Irrelevant, "malformed"},
	}

	c := Default()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rule := c.Explain(tt.event)
			if got != tt.want {
				t.Errorf("Explain() category = %v, want %v", got, tt.want)
			}
			if rule != tt.rule {
				t.Errorf("Explain() rule = %q, want %q", rule, tt.rule)
			}
			if pkg := Classify(tt.event); pkg != tt.want {
				t.Errorf("Classify() = %v, want %v", pkg, tt.want)
			}
		})
	}
}

func TestDefaultRulesOrder(t *testing.T) {
	want := []string{
		"malformed",
		"working-location",
		"out-of-office",
		"vacation-keyword",
		"declined",
		"lunch-keyword",
		"all-day",
		"meeting",
	}

	rules := Default().Rules()
	if len(rules) != len(want) {
		t.Fatalf("Rules() has %d entries, want %d", len(rules), len(want))
	}
	for i, r := range rules {
		if r.Name != want[i] {
			t.Errorf("rule %d = %q, want %q", i, r.Name, want[i])
		}
	}
}

func TestEmptyTableIsIrrelevant(t *testing.T) {
	c := New(nil)
	got, rule := c.Explain(timed("Standup", nil))
	if got != Irrelevant || rule != "" {
		t.Errorf("Explain() = %v, %q; want irrelevant with no rule", got, rule)
	}
}

func TestCategoryString(t *testing.T) {
	if got := WorkingLocationRemote.String(); got != "working-location-remote" {
		t.Errorf("String() = %q", got)
	}
	if !WorkingLocationOffice.IsWorkingLocation() || Meeting.IsWorkingLocation() {
		t.Error("IsWorkingLocation() misreports categories")
	}
}
