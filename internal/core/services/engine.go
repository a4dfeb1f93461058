package services

import (
	"context"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
)

// Ensure Engine implements the interface.
var _ driving.Engine = (*Engine)(nil)

// Engine composes scan, registration and dispatch into one tick.
type Engine struct {
	watcher  *Watcher
	registry *PartitionRegistry
}

// NewEngine creates an engine.
func NewEngine(watcher *Watcher, registry *PartitionRegistry) *Engine {
	return &Engine{
		watcher:  watcher,
		registry: registry,
	}
}

// Tick scans the source, registers every discovered key and returns the
// execution requests with the advanced cursor. Every key is registered
// before any request for it is returned. On failure no requests are
// returned and the cursor stays at previous, so the next tick retries.
func (e *Engine) Tick(ctx context.Context, previous domain.Cursor) ([]domain.ExecutionRequest, domain.Cursor, error) {
	delta, next, err := e.watcher.Scan(ctx, previous)
	if err != nil {
		return nil, previous, err
	}

	if err := e.registry.Register(ctx, delta); err != nil {
		return nil, previous, err
	}

	return Dispatch(delta), next, nil
}
