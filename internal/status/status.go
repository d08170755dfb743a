// Package status turns today's calendar into exactly one presence status and
// decides when that status has to be pushed to the chat platform.
//
// Resolve picks the status with a fixed priority:
//
//	vacation > meeting > lunch > working location > clear
//
// Apply and Commit form the change gate. The gate works on an explicit State
// value owned by the caller, so the engine has no package-level state.
package status

import (
	"errors"
	"fmt"
)

// Kind is the category of a resolved status.
type Kind int

const (
	Clear Kind = iota
	Vacation
	InMeeting
	Lunch
	Office
	Remote
)

func (k Kind) String() string {
	switch k {
	case Clear:
		return "clear"
	case Vacation:
		return "vacation"
	case InMeeting:
		return "in-meeting"
	case Lunch:
		return "lunch"
	case Office:
		return "office"
	case Remote:
		return "remote"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k >= Clear && k <= Remote
}

// Reaction types understood by Zulip.
const (
	UnicodeEmoji = "unicode_emoji"
	RealmEmoji   = "realm_emoji"
)

// Emoji is the icon shown next to a status.
type Emoji struct {
	Name         string `json:"emoji_name,omitempty"`
	Code         string `json:"emoji_code,omitempty"`
	ReactionType string `json:"reaction_type,omitempty"`
}

// IsZero reports whether no emoji is set.
func (e Emoji) IsZero() bool {
	return e == Emoji{}
}

// Status is the single outcome of one evaluation cycle.
//
// Detail is the payload that distinguishes two statuses of the same kind:
// the meeting or vacation title, or "until 15:00" for a working location
// that ends during the day.
type Status struct {
	Kind   Kind   `json:"kind"`
	Detail string `json:"detail,omitempty"`
	Emoji  Emoji  `json:"emoji"`
}

// Equal reports whether two statuses would display identically.
func (s Status) Equal(o Status) bool {
	return s.Kind == o.Kind && s.Detail == o.Detail && s.Emoji == o.Emoji
}

// IsClear reports whether s removes the status.
func (s Status) IsClear() bool {
	return s.Kind == Clear
}

func (s Status) String() string {
	if s.Detail == "" {
		return s.Kind.String()
	}
	return fmt.Sprintf("%s(%s)", s.Kind, s.Detail)
}

// Errors returned by Resolve.
var (
	ErrInvalidTime = errors.New("status: evaluation time is not set")
	ErrNoEvents    = errors.New("status: no event list from calendar source")
	ErrInvariant   = errors.New("status: resolver produced an invalid status")
)
