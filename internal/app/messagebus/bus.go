package messagebus

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/burenotti/wearable_backend/internal/domain"
)

type EventHandler func(event domain.Event) error

// MessageBus dispatches domain events to handlers on their own goroutines.
// Handlers must be registered before the first publish.
type MessageBus struct {
	logger   *slog.Logger
	handlers map[string][]EventHandler
	wg       sync.WaitGroup
}

func New(logger *slog.Logger) *MessageBus {
	return &MessageBus{
		logger:   logger,
		handlers: make(map[string][]EventHandler),
	}
}

func (b *MessageBus) Register(eventType string, handler EventHandler) {
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

func (b *MessageBus) RegisterMany(eventTypes []string, handler EventHandler) {
	for _, t := range eventTypes {
		b.Register(t, handler)
	}
}

func (b *MessageBus) PublishEvents(events ...domain.Event) error {
	for _, event := range events {
		event := event
		for _, handler := range b.handlers[event.Type()] {
			handler := handler
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				if err := b.handle(handler, event); err != nil {
					b.logger.Error("failed to handle event", "type", event.Type(), "err", err)
				}
			}()
		}
	}
	return nil
}

func (b *MessageBus) handle(handler EventHandler, event domain.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return handler(event)
}

// Close waits for running handlers to finish.
func (b *MessageBus) Close() {
	b.wg.Wait()
}
