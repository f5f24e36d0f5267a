package kafka

import (
	"context"
	"fmt"

	"store-credit-ledger/config"
	"store-credit-ledger/internal/core/domain"

	segkafka "github.com/segmentio/kafka-go"
)

// Writer is the subset of kafka.Writer used by the publisher. The interface
// exists so tests can substitute an in-memory writer.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...segkafka.Message) error
}

// Publisher implements ports.EventPublisher on top of a Kafka writer.
// Messages are keyed by aggregate ID so events for one wallet stay ordered
// within a partition.
type Publisher struct {
	writer Writer
}

// NewWriter builds a kafka.Writer from config.
func NewWriter(cfg config.KafkaConfig) *segkafka.Writer {
	return &segkafka.Writer{
		Addr:     segkafka.TCP(cfg.Brokers...),
		Topic:    cfg.Topic,
		Balancer: &segkafka.LeastBytes{},
	}
}

// NewPublisher creates a Kafka-backed event publisher.
func NewPublisher(writer Writer) *Publisher {
	return &Publisher{writer: writer}
}

// Publish sends a single outbox event to the wallet events topic.
func (p *Publisher) Publish(ctx context.Context, event domain.OutboxEvent) error {
	msg := segkafka.Message{
		Key:   []byte(event.AggregateID.String()),
		Value: event.Payload,
		Headers: []segkafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "event_id", Value: []byte(event.ID.String())},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka publish %s: %w", event.EventType, err)
	}
	return nil
}
