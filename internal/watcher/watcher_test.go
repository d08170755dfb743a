package watcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/logivations/zulip-status-watcher/internal/events"
	"github.com/logivations/zulip-status-watcher/internal/model"
	"github.com/logivations/zulip-status-watcher/internal/status"
)

var day = time.Date(2026, 1, 28, 0, 0, 0, 0, time.UTC)

type fakeSource struct {
	events []model.CalendarEvent
	err    error
	calls  int
}

func (f *fakeSource) FetchToday(context.Context, time.Time) ([]model.CalendarEvent, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

func (f *fakeSource) Name() string { return "fake" }

type fakePublisher struct {
	mu        sync.Mutex
	published []status.Status
	fail      []error
	notify    chan status.Status
}

func (f *fakePublisher) Publish(_ context.Context, st status.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.fail) > 0 {
		err := f.fail[0]
		f.fail = f.fail[1:]
		if err != nil {
			return err
		}
	}
	f.published = append(f.published, st)
	if f.notify != nil {
		select {
		case f.notify <- st:
		default:
		}
	}
	return nil
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.published)
}

func officeDay() []model.CalendarEvent {
	return []model.CalendarEvent{{
		ID:     "wl",
		Title:  "Office",
		Start:  day,
		End:    day.Add(24 * time.Hour),
		AllDay: true,
		Metadata: map[string]string{
			model.MetaEventType:       model.EventTypeWorkingLocation,
			model.MetaWorkingLocation: model.LocationOffice,
		},
	}}
}

func standup() model.CalendarEvent {
	return model.CalendarEvent{
		ID:    "m1",
		Title: "Standup",
		Start: day.Add(10 * time.Hour),
		End:   day.Add(10*time.Hour + 30*time.Minute),
	}
}

func newTestWatcher(src Source, pub Publisher, now *time.Time) *Watcher {
	w := New("a@example.com", src, pub)
	w.Now = func() time.Time { return *now }
	return w
}

func TestCycleSkipsRepeatedStatus(t *testing.T) {
	now := day.Add(9 * time.Hour)
	src := &fakeSource{events: officeDay()}
	pub := &fakePublisher{}
	w := newTestWatcher(src, pub, &now)

	want := []Outcome{Published, Skipped, Skipped}
	for i, o := range want {
		got, err := w.Cycle(context.Background())
		if err != nil {
			t.Fatalf("cycle %d: Cycle() error = %v", i, err)
		}
		if got != o {
			t.Errorf("cycle %d: Cycle() = %v, want %v", i, got, o)
		}
		now = now.Add(time.Minute)
	}
	if pub.count() != 1 {
		t.Errorf("published %d times, want 1", pub.count())
	}
	if w.State().Last.Kind != status.Office {
		t.Errorf("state = %v, want office", w.State().Last)
	}
}

func TestCycleMeetingAndBack(t *testing.T) {
	now := day.Add(9*time.Hour + 59*time.Minute)
	src := &fakeSource{events: append(officeDay(), standup())}
	pub := &fakePublisher{}
	w := newTestWatcher(src, pub, &now)

	kinds := []status.Kind{}
	for _, at := range []time.Duration{9*time.Hour + 59*time.Minute, 10 * time.Hour, 10*time.Hour + 15*time.Minute, 10*time.Hour + 30*time.Minute} {
		now = day.Add(at)
		if _, err := w.Cycle(context.Background()); err != nil {
			t.Fatalf("Cycle() error = %v", err)
		}
	}
	for _, st := range pub.published {
		kinds = append(kinds, st.Kind)
	}
	want := []status.Kind{status.Office, status.InMeeting, status.Office}
	if len(kinds) != len(want) {
		t.Fatalf("published %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("publish %d = %v, want %v", i, kinds[i], want[i])
		}
	}
}

func TestCyclePublishFailureRetries(t *testing.T) {
	now := day.Add(9 * time.Hour)
	src := &fakeSource{events: officeDay()}
	pub := &fakePublisher{fail: []error{errors.New("503 service unavailable")}}
	w := newTestWatcher(src, pub, &now)

	got, err := w.Cycle(context.Background())
	if got != Failed {
		t.Errorf("first Cycle() = %v, want failed", got)
	}
	var perr *model.PublishError
	if !errors.As(err, &perr) {
		t.Fatalf("first Cycle() error = %v, want *model.PublishError", err)
	}
	if perr.User != "a@example.com" || perr.Target != "In office" {
		t.Errorf("PublishError = %+v", perr)
	}
	if w.State().Applied() {
		t.Error("state committed after failed publish")
	}

	now = now.Add(time.Minute)
	got, err = w.Cycle(context.Background())
	if err != nil || got != Published {
		t.Fatalf("second Cycle() = %v, %v, want published", got, err)
	}
	if !w.State().AppliedAt.Equal(now) {
		t.Errorf("AppliedAt = %v, want %v", w.State().AppliedAt, now)
	}

	got, _ = w.Cycle(context.Background())
	if got != Skipped {
		t.Errorf("third Cycle() = %v, want skipped", got)
	}
}

func TestCycleFetchFailure(t *testing.T) {
	now := day.Add(9 * time.Hour)
	src := &fakeSource{err: errors.New("token expired")}
	pub := &fakePublisher{}
	w := newTestWatcher(src, pub, &now)

	got, err := w.Cycle(context.Background())
	if got != Failed {
		t.Errorf("Cycle() = %v, want failed", got)
	}
	var ferr *model.FetchError
	if !errors.As(err, &ferr) {
		t.Fatalf("Cycle() error = %v, want *model.FetchError", err)
	}
	if ferr.Source != "fake" || ferr.User != "a@example.com" {
		t.Errorf("FetchError = %+v", ferr)
	}
	if pub.count() != 0 {
		t.Error("publisher called after fetch failure")
	}
	if w.State().Applied() {
		t.Error("state changed after fetch failure")
	}
}

func TestCycleNilEventsIsResolveError(t *testing.T) {
	now := day.Add(9 * time.Hour)
	w := newTestWatcher(&fakeSource{}, &fakePublisher{}, &now)

	got, err := w.Cycle(context.Background())
	if got != Failed || !errors.Is(err, status.ErrNoEvents) {
		t.Errorf("Cycle() = %v, %v, want failed with ErrNoEvents", got, err)
	}
}

func TestCycleFirstClearPublishes(t *testing.T) {
	now := day.Add(9 * time.Hour)
	pub := &fakePublisher{}
	w := newTestWatcher(&fakeSource{events: []model.CalendarEvent{}}, pub, &now)

	got, err := w.Cycle(context.Background())
	if err != nil || got != Published {
		t.Fatalf("Cycle() = %v, %v, want published", got, err)
	}
	if !pub.published[0].IsClear() {
		t.Errorf("published %v, want clear", pub.published[0])
	}
	got, _ = w.Cycle(context.Background())
	if got != Skipped {
		t.Errorf("second Cycle() = %v, want skipped", got)
	}
}

func TestCycleEmitsTransition(t *testing.T) {
	now := day.Add(10 * time.Hour)
	bus := events.NewBus()
	var seen []events.Transition
	bus.Subscribe(func(tr events.Transition) error {
		seen = append(seen, tr)
		return nil
	})

	w := newTestWatcher(&fakeSource{events: []model.CalendarEvent{standup()}}, &fakePublisher{}, &now)
	w.Bus = bus

	if _, err := w.Cycle(context.Background()); err != nil {
		t.Fatalf("Cycle() error = %v", err)
	}
	if len(seen) != 1 {
		t.Fatalf("got %d transitions, want 1", len(seen))
	}
	tr := seen[0]
	if tr.User != "a@example.com" || !tr.From.IsClear() || tr.To.Kind != status.InMeeting || tr.Text != "meet: Standup" || !tr.At.Equal(now) {
		t.Errorf("transition = %+v", tr)
	}
}

func TestOutcomeString(t *testing.T) {
	tests := []struct {
		o    Outcome
		want string
	}{
		{Skipped, "skipped"},
		{Published, "published"},
		{Failed, "failed"},
	}
	for _, tt := range tests {
		if got := tt.o.String(); got != tt.want {
			t.Errorf("Outcome(%d).String() = %q, want %q", tt.o, got, tt.want)
		}
	}
}
