package model

import "fmt"

// FetchError is returned when a calendar source cannot produce today's
// events (network, auth, or payload failure). The cycle is skipped.
type FetchError struct {
	Source string
	User   string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s events for %s: %v", e.Source, e.User, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// PublishError is returned when the status platform rejects or never
// receives an update. Watcher state is left untouched so the next cycle
// retries the same target.
type PublishError struct {
	User   string
	Target string
	Err    error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish %q for %s: %v", e.Target, e.User, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }
