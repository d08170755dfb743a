// Package classify labels calendar events with the category the status
// resolver cares about.
//
// Classification is an ordered rule table: the first rule whose Match
// returns true decides the category. Events no rule claims are Irrelevant.
// The table is fixed; it exists as data so the order can be read, audited
// and tested in one place.
package classify

import (
	"github.com/logivations/zulip-status-watcher/internal/model"
)

// Category is the classification of a single calendar event.
type Category int

const (
	Irrelevant Category = iota
	Vacation
	Meeting
	Lunch
	WorkingLocationOffice
	WorkingLocationRemote
)

func (c Category) String() string {
	switch c {
	case Vacation:
		return "vacation"
	case Meeting:
		return "meeting"
	case Lunch:
		return "lunch"
	case WorkingLocationOffice:
		return "working-location-office"
	case WorkingLocationRemote:
		return "working-location-remote"
	default:
		return "irrelevant"
	}
}

// IsWorkingLocation reports whether c is one of the working-location categories.
func (c Category) IsWorkingLocation() bool {
	return c == WorkingLocationOffice || c == WorkingLocationRemote
}

// Rule maps events to a category. Decide may refine the category (working
// locations are split into office and remote); when nil, Category is used.
type Rule struct {
	Name     string
	Category Category
	Match    func(model.CalendarEvent) bool
	Decide   func(model.CalendarEvent) Category
}

func (r Rule) decide(ev model.CalendarEvent) Category {
	if r.Decide != nil {
		return r.Decide(ev)
	}
	return r.Category
}

// Classifier evaluates a rule table in order.
type Classifier struct {
	rules []Rule
}

// New returns a classifier for the given rules. The slice is copied.
func New(rules []Rule) *Classifier {
	return &Classifier{rules: append([]Rule(nil), rules...)}
}

// Default returns a classifier over DefaultRules.
func Default() *Classifier {
	return New(DefaultRules())
}

// Classify returns the category of ev. It never fails.
func (c *Classifier) Classify(ev model.CalendarEvent) Category {
	cat, _ := c.Explain(ev)
	return cat
}

// Explain returns the category of ev and the name of the rule that decided
// it. The rule name is "" when no rule matched.
func (c *Classifier) Explain(ev model.CalendarEvent) (Category, string) {
	for _, r := range c.rules {
		if r.Match(ev) {
			return r.decide(ev), r.Name
		}
	}
	return Irrelevant, ""
}

// Rules returns a copy of the classifier's rule table.
func (c *Classifier) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}

var defaultClassifier = Default()

// Classify labels ev using the default rule table.
func Classify(ev model.CalendarEvent) Category {
	return defaultClassifier.Classify(ev)
}
