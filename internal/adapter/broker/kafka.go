// Package broker forwards domain events to Kafka.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/burenotti/wearable_backend/internal/domain"
	"github.com/burenotti/wearable_backend/internal/observability"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type envelope struct {
	Type        string       `json:"type"`
	PublishedAt time.Time    `json:"published_at"`
	Payload     domain.Event `json:"payload"`
}

type Publisher struct {
	writer messageWriter
	logger *slog.Logger
}

func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	return newPublisher(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
	}, logger)
}

func newPublisher(w messageWriter, logger *slog.Logger) *Publisher {
	return &Publisher{writer: w, logger: logger}
}

// Publish writes one event. Events implementing domain.Keyed are partitioned
// by their key so that events of one aggregate stay ordered.
func (p *Publisher) Publish(ctx context.Context, event domain.Event) error {
	value, err := json.Marshal(envelope{
		Type:        event.Type(),
		PublishedAt: event.PublishedAt(),
		Payload:     event,
	})
	if err != nil {
		return fmt.Errorf("marshal %s: %w", event.Type(), err)
	}

	msg := kafka.Message{
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type())},
		},
	}
	if keyed, ok := event.(domain.Keyed); ok {
		msg.Key = []byte(keyed.Key())
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		observability.EventsPublished.WithLabelValues(event.Type(), "error").Inc()
		return fmt.Errorf("write %s: %w", event.Type(), err)
	}
	observability.EventsPublished.WithLabelValues(event.Type(), "ok").Inc()
	return nil
}

// Handler adapts the publisher to a message bus handler.
func (p *Publisher) Handler(timeout time.Duration) func(domain.Event) error {
	return func(event domain.Event) error {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := p.Publish(ctx, event); err != nil {
			p.logger.Warn("failed to forward event", "type", event.Type(), "error", err)
			return err
		}
		return nil
	}
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
