package ics

import (
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/logivations/zulip-status-watcher/internal/model"
)

// maxOccurrences caps how many instances of one rule are examined for a
// single day.
const maxOccurrences = 500

// partstat maps iCalendar PARTSTAT values to response statuses.
var partstat = map[string]string{
	"ACCEPTED":     model.ResponseAccepted,
	"TENTATIVE":    model.ResponseTentative,
	"NEEDS-ACTION": model.ResponseNeedsAction,
	"DECLINED":     model.ResponseDeclined,
}

// expand turns parsed VEVENTs into the concrete events overlapping
// [dayStart, dayEnd). Recurring events are expanded with their EXDATEs;
// instances replaced by a RECURRENCE-ID override are taken from the
// override instead. Cancelled events and instances are dropped.
func expand(events []vevent, user string, dayStart, dayEnd time.Time) []model.CalendarEvent {
	overridden := make(map[string][]time.Time)
	for _, ev := range events {
		if ev.Recurrence != nil {
			overridden[ev.UID] = append(overridden[ev.UID], *ev.Recurrence)
		}
	}

	out := make([]model.CalendarEvent, 0)
	for _, ev := range events {
		if ev.Cancelled {
			continue
		}
		if ev.RRule == "" || ev.Recurrence != nil {
			if overlaps(ev.Start, ev.End, ev.AllDay, dayStart, dayEnd) {
				out = append(out, toEvent(ev, ev.Start, ev.End, user))
			}
			continue
		}

		for _, start := range occurrences(ev, overridden[ev.UID], dayStart, dayEnd) {
			end := start.Add(ev.End.Sub(ev.Start))
			if ev.AllDay {
				end = start.AddDate(0, 0, days(ev.Start, ev.End))
			}
			if overlaps(start, end, ev.AllDay, dayStart, dayEnd) {
				out = append(out, toEvent(ev, start, end, user))
			}
		}
	}
	return out
}

// occurrences returns the instance starts of a recurring event that may
// overlap the day, minus EXDATEs and overridden instances.
func occurrences(ev vevent, overridden []time.Time, dayStart, dayEnd time.Time) []time.Time {
	r, err := rrule.StrToRRule(ev.RRule)
	if err != nil {
		logger.Warn("unparseable RRULE", "uid", ev.UID, "rrule", ev.RRule, "err", err)
		return nil
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}
	for _, rid := range overridden {
		set.ExDate(rid.In(ev.Start.Location()))
	}

	// An instance that started before today can still be running.
	from := dayStart.Add(-ev.End.Sub(ev.Start)).In(ev.Start.Location())
	to := dayEnd.In(ev.Start.Location())
	starts := set.Between(from, to, true)
	if len(starts) > maxOccurrences {
		logger.Warn("too many occurrences, truncating", "uid", ev.UID, "count", len(starts))
		starts = starts[:maxOccurrences]
	}
	return starts
}

func overlaps(start, end time.Time, allDay bool, dayStart, dayEnd time.Time) bool {
	if allDay && !end.After(start) {
		end = start.AddDate(0, 0, 1)
	}
	return start.Before(dayEnd) && end.After(dayStart)
}

// days is the length of an all-day span in calendar days, at least one.
func days(start, end time.Time) int {
	n := int(end.Sub(start).Round(24*time.Hour) / (24 * time.Hour))
	if n < 1 {
		return 1
	}
	return n
}

func toEvent(ev vevent, start, end time.Time, user string) model.CalendarEvent {
	out := model.CalendarEvent{
		ID:       ev.UID,
		Title:    ev.Summary,
		Start:    start,
		End:      end,
		AllDay:   ev.AllDay,
		Metadata: map[string]string{model.MetaSource: SourceName},
	}
	if ev.RRule != "" {
		out.ID = ev.UID + "_" + start.UTC().Format(utcLayout)
	}
	if ev.Class == model.VisibilityPrivate || ev.Class == model.VisibilityConfidential {
		out.Metadata[model.MetaVisibility] = ev.Class
	}
	if ev.BusyStatus != "" {
		out.Metadata[model.MetaBusyStatus] = ev.BusyStatus
	}
	if ps, ok := ev.Attendees[strings.ToLower(user)]; ok {
		if rs, ok := partstat[strings.ToUpper(ps)]; ok {
			out.Metadata[model.MetaResponseStatus] = rs
		}
	}
	return out
}
