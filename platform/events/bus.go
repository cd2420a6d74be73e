package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"admissions_crm_backend/platform/logger"

	"golang.org/x/sync/errgroup"
)

// InMemoryBus dispatches events to handlers registered in the same process.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	log      *logger.Logger
}

// NewInMemoryBus creates an empty bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return &InMemoryBus{
		handlers: make(map[string][]Handler),
		log:      log,
	}
}

// Subscribe registers handler for eventName.
func (b *InMemoryBus) Subscribe(eventName string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], handler)
}

func (b *InMemoryBus) handlersFor(eventName string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	hs := b.handlers[eventName]
	out := make([]Handler, len(hs))
	copy(out, hs)
	return out
}

// Publish runs every handler in its own goroutine. Handler errors and panics
// are logged and never reach the publisher.
func (b *InMemoryBus) Publish(ctx context.Context, event Event) {
	// Handlers outlive the request that published the event.
	bgCtx := context.WithoutCancel(ctx)
	for _, h := range b.handlersFor(event.EventName()) {
		go func(h Handler) {
			defer func() {
				if r := recover(); r != nil {
					b.log.Error("event handler panicked",
						slog.String("event", event.EventName()),
						slog.String("event_id", event.EventID().String()),
						slog.Any("panic", r),
					)
				}
			}()
			if err := h.Handle(bgCtx, event); err != nil {
				b.log.Error("event handler failed",
					slog.String("event", event.EventName()),
					slog.String("event_id", event.EventID().String()),
					slog.String("error", err.Error()),
				)
			}
		}(h)
	}
}

// PublishSync runs all handlers concurrently and returns the first error.
func (b *InMemoryBus) PublishSync(ctx context.Context, event Event) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, h := range b.handlersFor(event.EventName()) {
		h := h
		g.Go(func() error {
			if err := h.Handle(gctx, event); err != nil {
				return fmt.Errorf("%s: %w", event.EventName(), err)
			}
			return nil
		})
	}
	return g.Wait()
}
