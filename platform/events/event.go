// Package events is the in-process event bus modules use to react to each
// other's state changes (lead assigned, L3 requested, chat closed) without
// importing one another.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event is implemented by every domain event. EventName is the routing key
// handlers subscribe to.
type Event interface {
	EventName() string
	OccurredAt() time.Time
	EventID() uuid.UUID
}

// BaseEvent carries the identity and timestamp shared by all events. Embed it
// and build it with NewBaseEvent.
type BaseEvent struct {
	ID        uuid.UUID `json:"eventId"`
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }
func (e BaseEvent) EventID() uuid.UUID    { return e.ID }

func NewBaseEvent() BaseEvent {
	return BaseEvent{ID: uuid.New(), Timestamp: time.Now().UTC()}
}

type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc lets a plain function subscribe to the bus.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus publishes events to subscribers. Publish is fire-and-forget; PublishSync
// waits and reports the first handler error.
type Bus interface {
	Publish(ctx context.Context, event Event)
	PublishSync(ctx context.Context, event Event) error
	Subscribe(eventName string, handler Handler)
}
