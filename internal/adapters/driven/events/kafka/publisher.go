// Package kafka publishes stage events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure Publisher implements the interface.
var _ driven.EventPublisher = (*Publisher)(nil)

// Event type header values.
const (
	EventCompleted = "stage.completed"
	EventFailed    = "stage.failed"
)

// BatchTimeout bounds how long a synchronous publish waits for its batch
// to fill. Each stage publishes one message, so batches rarely fill.
const BatchTimeout = 10 * time.Millisecond

// Writer is the subset of *kafka.Writer the publisher uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes one JSON message per stage event, keyed by the record
// key so that events for one partition land on one Kafka partition.
type Publisher struct {
	writer Writer
}

// NewPublisher wraps an existing writer.
func NewPublisher(w Writer) *Publisher {
	return &Publisher{writer: w}
}

// NewWriter creates a writer for the configured brokers and topic.
func NewWriter(cfg domain.EventsConfig) (*kafka.Writer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("%w: kafka publisher requires events.brokers", domain.ErrInvalidInput)
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("%w: kafka publisher requires events.topic", domain.ErrInvalidInput)
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           BatchTimeout,
		AllowAutoTopicCreation: true,
	}, nil
}

// Publish sends event to the topic.
func (p *Publisher) Publish(ctx context.Context, event driven.StageEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	eventType := EventCompleted
	if !event.Success {
		eventType = EventFailed
	}

	msg := kafka.Message{
		Key:     []byte(event.Key),
		Value:   value,
		Time:    event.Occurred,
		Headers: []kafka.Header{{Key: "event", Value: []byte(eventType)}},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: publish %s %s/%s: %w", eventType, event.Key, event.Stage, err)
	}
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
