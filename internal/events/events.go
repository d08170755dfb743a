// Package events carries status transitions from the watcher to anything
// that wants to record or react to them, without the watcher knowing who
// listens.
package events

import (
	"time"

	"github.com/logivations/zulip-status-watcher/internal/status"
)

// Transition is emitted after a status was successfully published.
type Transition struct {
	User string        `json:"user"`
	From status.Status `json:"from"`
	To   status.Status `json:"to"`
	Text string        `json:"text"`
	At   time.Time     `json:"at"`
}

// Handler processes a transition. A returned error is logged by the bus and
// never reaches the publisher of the transition.
type Handler func(Transition) error
