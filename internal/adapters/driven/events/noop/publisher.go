// Package noop provides an EventPublisher that discards every event.
package noop

import (
	"context"

	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure Publisher implements the interface.
var _ driven.EventPublisher = (*Publisher)(nil)

// Publisher discards events.
type Publisher struct{}

// NewPublisher creates a no-op publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// Publish does nothing.
func (p *Publisher) Publish(_ context.Context, _ driven.StageEvent) error {
	return nil
}

// Close does nothing.
func (p *Publisher) Close() error {
	return nil
}
