// Package events provides cross-module event notification. Subscribers are a
// statically known set fixed at construction, which keeps delivery ordering
// and failure handling tractable: handlers run synchronously in registration
// order, and handler errors are logged, never propagated to the publisher.
package events

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Event names emitted by the tasks module.
const (
	TaskCreated   = "task.created"
	TaskCompleted = "task.completed"
	TaskDeleted   = "task.deleted"
)

// Event represents a published event.
type Event struct {
	// Name is the event name (e.g., "task.completed").
	Name string

	// Module is the bounded context that emitted the event.
	Module string

	// Data contains the event payload.
	Data map[string]any

	// At is when the event was emitted.
	At time.Time
}

// Handler processes an event. Returning an error only affects logging.
type Handler func(ctx context.Context, event Event) error

// Subscription binds a handler to an event name.
type Subscription struct {
	Event   string
	Handler Handler
}

// Bus delivers events to a fixed subscriber set. The set is resolved once at
// startup; there is no runtime Subscribe, so Publish reads without locking.
type Bus struct {
	handlers map[string][]Handler
	logger   zerolog.Logger
}

// NewBus creates an event bus with the given static subscriptions.
func NewBus(logger zerolog.Logger, subs ...Subscription) *Bus {
	handlers := make(map[string][]Handler)
	for _, s := range subs {
		handlers[s.Event] = append(handlers[s.Event], s.Handler)
	}
	return &Bus{handlers: handlers, logger: logger}
}

// Publish delivers an event to its subscribers synchronously, in
// registration order. Handler errors are logged and delivery continues.
func (b *Bus) Publish(ctx context.Context, event Event) {
	b.logger.Debug().
		Str("event", event.Name).
		Str("module", event.Module).
		Msg("event emitted")

	for _, handler := range b.handlers[event.Name] {
		if err := handler(ctx, event); err != nil {
			b.logger.Error().
				Err(err).
				Str("event", event.Name).
				Msg("event handler error")
		}
	}
}

// HasSubscribers reports whether any handler is registered for an event.
func (b *Bus) HasSubscribers(event string) bool {
	return len(b.handlers[event]) > 0
}
