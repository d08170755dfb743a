package events

import (
	"sync"

	"github.com/logivations/zulip-status-watcher/internal/log"
)

var logger = log.New("events")

// Bus is a synchronous in-process fan-out of transitions.
type Bus struct {
	handlers []Handler
	mu       sync.RWMutex
	closed   bool
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler. Handlers run in registration order.
func (b *Bus) Subscribe(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, handler)
}

// Publish hands t to every handler and returns the number of handlers that
// failed. A nil or closed bus drops the transition.
func (b *Bus) Publish(t Transition) int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return 0
	}

	failed := 0
	for _, handler := range b.handlers {
		if err := handler(t); err != nil {
			failed++
			logger.Error("handler failed", err, "user", t.User)
		}
	}
	return failed
}

// Close stops delivery; later Publish calls are no-ops.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
}
