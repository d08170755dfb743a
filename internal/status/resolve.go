package status

import (
	"fmt"
	"time"

	"github.com/logivations/zulip-status-watcher/internal/classify"
	"github.com/logivations/zulip-status-watcher/internal/model"
)

// untilLayout formats the end of a timed working-location entry.
const untilLayout = "15:04"

// privateTitle replaces the title of private meetings.
const privateTitle = "Busy"

// Resolver resolves a calendar snapshot to a single Status.
type Resolver struct {
	Classifier *classify.Classifier
}

// NewResolver returns a resolver using the given classifier, or the default
// rule table when c is nil.
func NewResolver(c *classify.Classifier) *Resolver {
	if c == nil {
		c = classify.Default()
	}
	return &Resolver{Classifier: c}
}

var defaultResolver = NewResolver(nil)

// Resolve resolves events at now with the default rule table.
func Resolve(now time.Time, events []model.CalendarEvent) (Status, error) {
	return defaultResolver.Resolve(now, events)
}

// candidate is an active event together with its position in the input,
// used for stable tie-breaks.
type candidate struct {
	event model.CalendarEvent
	cat   classify.Category
	index int
}

// Resolve picks exactly one status for now.
//
// A nil events slice means the calendar source produced nothing at all and
// is reported as ErrNoEvents; an empty slice resolves to Clear.
func (r *Resolver) Resolve(now time.Time, events []model.CalendarEvent) (Status, error) {
	if now.IsZero() {
		return Status{}, ErrInvalidTime
	}
	if events == nil {
		return Status{}, ErrNoEvents
	}

	active := make(map[classify.Category][]candidate)
	for i, ev := range events {
		cat := r.Classifier.Classify(ev)
		if cat == classify.Irrelevant || !ev.ActiveAt(now) {
			continue
		}
		active[cat] = append(active[cat], candidate{event: ev, cat: cat, index: i})
	}

	st := r.pick(now, active)
	if !st.Kind.Valid() {
		return Status{}, fmt.Errorf("%w: %v", ErrInvariant, st)
	}
	return st, nil
}

func (r *Resolver) pick(now time.Time, active map[classify.Category][]candidate) Status {
	if vs := active[classify.Vacation]; len(vs) > 0 {
		ev := best(vs, vacationFirst)
		return VacationStatus(ev.Title)
	}

	if ms := active[classify.Meeting]; len(ms) > 0 {
		ev := best(ms, earliestStart)
		if ev.Private() {
			return MeetingStatus(privateTitle)
		}
		return MeetingStatus(ev.Title)
	}

	if len(active[classify.Lunch]) > 0 {
		return LunchStatus()
	}

	locations := append(append([]candidate(nil), active[classify.WorkingLocationOffice]...), active[classify.WorkingLocationRemote]...)
	if len(locations) > 0 {
		c := bestCandidate(locations, latestStart)
		until := ""
		if !c.event.AllDay {
			until = "until " + c.event.End.In(now.Location()).Format(untilLayout)
		}
		if c.cat == classify.WorkingLocationOffice {
			return OfficeStatus(until)
		}
		return RemoteStatus(until)
	}

	return ClearStatus()
}

// better orders two events: negative when a is preferred, zero when they
// tie.
type better func(a, b model.CalendarEvent) int

func best(cs []candidate, cmp better) model.CalendarEvent {
	return bestCandidate(cs, cmp).event
}

// bestCandidate returns the preferred candidate; among equals the one that
// came first in the input wins.
func bestCandidate(cs []candidate, cmp better) candidate {
	winner := cs[0]
	for _, c := range cs[1:] {
		switch d := cmp(c.event, winner.event); {
		case d < 0:
			winner = c
		case d == 0 && c.index < winner.index:
			winner = c
		}
	}
	return winner
}

// earliestStart prefers the event that started first.
func earliestStart(a, b model.CalendarEvent) int {
	return a.Start.Compare(b.Start)
}

// latestStart prefers the event that started last.
func latestStart(a, b model.CalendarEvent) int {
	return b.Start.Compare(a.Start)
}

// vacationFirst prefers all-day vacations over timed ones, then the earliest.
func vacationFirst(a, b model.CalendarEvent) int {
	if a.AllDay != b.AllDay {
		if a.AllDay {
			return -1
		}
		return 1
	}
	return earliestStart(a, b)
}
