package event

import (
	"context"
	"fmt"

	"github.com/hsa8903-tech/ulsan-daun/internal/domain/shared"
	"go.uber.org/zap"
)

// InMemoryEventBus dispatches events synchronously to registered handlers
// on the publishing goroutine. A failing or panicking handler is logged
// and does not stop delivery to the others.
type InMemoryEventBus struct {
	registry *HandlerRegistry
	logger   *zap.Logger
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryEventBus{
		registry: NewHandlerRegistry(),
		logger:   logger.Named("event"),
	}
}

// Publish delivers events in order to every interested handler
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, event := range events {
		for _, handler := range b.registry.GetHandlers(event.EventType()) {
			if err := b.dispatch(ctx, handler, event); err != nil {
				b.logger.Error("handler failed to process event",
					zap.String("event_type", event.EventType()),
					zap.String("event_id", event.EventID().String()),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}

// Subscribe registers a handler; without explicit types the handler's own
// EventTypes are used
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("handler subscribed", zap.Strings("event_types", eventTypes))
}

func (b *InMemoryEventBus) dispatch(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return handler.Handle(ctx, event)
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)

// HandlerFunc adapts a function to shared.EventHandler
type HandlerFunc struct {
	types []string
	fn    func(ctx context.Context, event shared.DomainEvent) error
}

// NewHandlerFunc wraps fn as a handler for eventTypes (all events when empty)
func NewHandlerFunc(fn func(ctx context.Context, event shared.DomainEvent) error, eventTypes ...string) *HandlerFunc {
	return &HandlerFunc{types: eventTypes, fn: fn}
}

// Handle implements shared.EventHandler
func (h *HandlerFunc) Handle(ctx context.Context, event shared.DomainEvent) error {
	return h.fn(ctx, event)
}

// EventTypes implements shared.EventHandler
func (h *HandlerFunc) EventTypes() []string {
	return h.types
}
