package classify

import (
	"regexp"
	"strings"

	"github.com/logivations/zulip-status-watcher/internal/model"
)

// Keyword patterns. Short abbreviations are matched as whole words so that
// titles such as "Foooo sync" or "Laptop setup" do not trip them. "Holiday"
// and "sick" only count at the start of a title: "Holiday party planning"
// is a meeting.
var (
	vacationPattern = regexp.MustCompile(`(?i)vacation|^\s*(?:holiday|sick)|out of office|day off|workation|\booo\b|\bpto\b`)
	lunchPattern    = regexp.MustCompile(`(?i)lunch`)
	officePattern   = regexp.MustCompile(`(?i)office|building|campus|hq`)
	remotePattern   = regexp.MustCompile(`(?i)home|remote`)
)

// DefaultRules is the fixed classification table, evaluated top to bottom:
//
//  1. malformed         events without usable times or identity -> Irrelevant
//  2. working-location  calendar working-location entries       -> Office / Remote
//  3. out-of-office     calendar out-of-office entries          -> Vacation
//  4. vacation-keyword  vacation, OOO, day off, sick, ...       -> Vacation
//  5. declined          meetings the user declined              -> Irrelevant
//  6. lunch-keyword     timed entry with "lunch" in the title   -> Lunch
//  7. all-day           any other all-day entry                 -> Irrelevant
//  8. meeting           any other timed entry                   -> Meeting
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:     "malformed",
			Category: Irrelevant,
			Match:    model.CalendarEvent.Malformed,
		},
		{
			Name:   "working-location",
			Match:  isWorkingLocation,
			Decide: workingLocation,
		},
		{
			Name:     "out-of-office",
			Category: Vacation,
			Match:    isOutOfOffice,
		},
		{
			Name:     "vacation-keyword",
			Category: Vacation,
			Match:    titleMatches(vacationPattern),
		},
		{
			Name:     "declined",
			Category: Irrelevant,
			Match: func(ev model.CalendarEvent) bool {
				return ev.Meta(model.MetaResponseStatus) == model.ResponseDeclined
			},
		},
		{
			Name:     "lunch-keyword",
			Category: Lunch,
			Match: func(ev model.CalendarEvent) bool {
				return !ev.AllDay && lunchPattern.MatchString(ev.Title)
			},
		},
		{
			Name:     "all-day",
			Category: Irrelevant,
			Match:    func(ev model.CalendarEvent) bool { return ev.AllDay },
		},
		{
			Name:     "meeting",
			Category: Meeting,
			Match:    func(ev model.CalendarEvent) bool { return true },
		},
	}
}

func titleMatches(re *regexp.Regexp) func(model.CalendarEvent) bool {
	return func(ev model.CalendarEvent) bool {
		return re.MatchString(ev.Title)
	}
}

func isWorkingLocation(ev model.CalendarEvent) bool {
	return ev.Meta(model.MetaEventType) == model.EventTypeWorkingLocation
}

func isOutOfOffice(ev model.CalendarEvent) bool {
	if ev.Meta(model.MetaEventType) == model.EventTypeOutOfOffice {
		return true
	}
	return strings.EqualFold(ev.Meta(model.MetaBusyStatus), "OOF")
}

// workingLocation sub-classifies a working-location entry. The explicit
// location type wins; custom and other locations fall back to keywords in
// their label, then in the title.
func workingLocation(ev model.CalendarEvent) Category {
	switch ev.Meta(model.MetaWorkingLocation) {
	case model.LocationOffice:
		return WorkingLocationOffice
	case model.LocationHomeOffice, model.LocationHome:
		return WorkingLocationRemote
	}

	for _, text := range []string{ev.Meta(model.MetaWorkingLocationLabel), ev.Title} {
		switch {
		case text == "":
			continue
		case remotePattern.MatchString(text):
			return WorkingLocationRemote
		case officePattern.MatchString(text):
			return WorkingLocationOffice
		}
	}
	return Irrelevant
}
