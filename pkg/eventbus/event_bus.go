// Package eventbus carries typed execution events between the API,
// the scheduler, and the workers over a message broker.
package eventbus

import (
	"context"

	"github.com/zzyra-io/zzyra-sei-sub011/pkg/events"
)

// Event is any message the bus can carry. The type tag selects the
// concrete struct on the consuming side.
type Event interface {
	GetType() events.EventType
}

// EventHandler processes one decoded event. A non-nil error nacks the
// message and lets the broker redeliver it.
type EventHandler func(ctx context.Context, event interface{}) error

type EventPublisher interface {
	Publish(ctx context.Context, key string, event Event) error
}

type EventSubscriber interface {
	// Handle registers a handler for one event type. Events with no
	// registered handler are acked and dropped.
	Handle(eventType events.EventType, handler EventHandler) error
	// Subscribe starts consuming and blocks until ctx is cancelled.
	Subscribe(ctx context.Context) error
}

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
	GenerateID() string
}
