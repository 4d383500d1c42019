package events

import (
	"context"
	"sync"

	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/logger"
)

// Handler reacts to one event. Errors are logged by the bus and do not stop
// the remaining handlers.
type Handler func(ctx context.Context, e Event) error

// Bus calls the handlers subscribed to an event type, in subscription order,
// on the goroutine that fires the event.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Type][]Handler
	logger   logger.Logger
}

// NewBus creates an empty bus.
func NewBus(log logger.Logger) *Bus {
	return &Bus{
		handlers: make(map[Type][]Handler),
		logger:   log,
	}
}

// Subscribe adds h for events of type t.
func (b *Bus) Subscribe(t Type, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[t] = append(b.handlers[t], h)
}

// Fire runs every handler for e and returns how many failed.
func (b *Bus) Fire(ctx context.Context, e Event) int {
	b.mu.RLock()
	handlers := b.handlers[e.Type()]
	b.mu.RUnlock()

	failed := 0
	for _, h := range handlers {
		if err := h(ctx, e); err != nil {
			failed++
			b.logger.Error("event handler failed",
				logger.String("event", string(e.Type())),
				logger.Error(err))
		}
	}
	return failed
}
