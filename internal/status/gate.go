package status

import "time"

// State is what the watcher last pushed for one user. It lives for one run
// of the process; a fresh process starts from NewState and therefore always
// publishes on its first cycle.
type State struct {
	Last      Status    `json:"last"`
	AppliedAt time.Time `json:"applied_at"`
}

// NewState returns the start-of-process state: Clear, never applied.
func NewState() State {
	return State{Last: ClearStatus()}
}

// Applied reports whether anything has been published since start.
func (s State) Applied() bool {
	return !s.AppliedAt.IsZero()
}

// Action is the gate's verdict.
type Action int

const (
	Skip Action = iota
	Publish
)

func (a Action) String() string {
	if a == Publish {
		return "publish"
	}
	return "skip"
}

// Decision is the outcome of Apply.
type Decision struct {
	Action Action
	Status Status
}

// Apply decides whether next has to be pushed given st.
//
// A status is pushed when it differs from the last applied one in kind,
// detail or emoji. Moving to Clear is a change like any other; Clear to
// Clear is skipped. Apply does not change st: the caller publishes and then
// calls Commit, so a failed publish is retried on the next cycle.
func Apply(next Status, st State) Decision {
	if st.Applied() && next.Equal(st.Last) {
		return Decision{Action: Skip, Status: next}
	}
	return Decision{Action: Publish, Status: next}
}

// Commit records that applied was successfully published at at.
func Commit(st State, applied Status, at time.Time) State {
	st.Last = applied
	st.AppliedAt = at
	return st
}
