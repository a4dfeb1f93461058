package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// PartitionRegistry tracks the set of partition keys the engine knows.
// Keys are only added during normal operation.
type PartitionRegistry struct {
	store driven.PartitionStore
}

// NewPartitionRegistry creates a registry backed by store.
func NewPartitionRegistry(store driven.PartitionStore) *PartitionRegistry {
	return &PartitionRegistry{store: store}
}

// Register adds every key of delta. Registering a known key is a no-op.
func (r *PartitionRegistry) Register(ctx context.Context, delta []domain.SourceObject) error {
	if len(delta) == 0 {
		return nil
	}
	keys := make([]string, 0, len(delta))
	for _, obj := range delta {
		keys = append(keys, obj.Key)
	}
	if err := r.store.Add(ctx, keys...); err != nil {
		return fmt.Errorf("register partitions: %w", err)
	}
	return nil
}

// Known returns every registered key in ascending order.
func (r *PartitionRegistry) Known(ctx context.Context) ([]string, error) {
	return r.store.List(ctx)
}

// Contains reports whether key is registered.
func (r *PartitionRegistry) Contains(ctx context.Context, key string) (bool, error) {
	return r.store.Contains(ctx, key)
}

// Remove deletes a key. This is an explicit administrative action.
func (r *PartitionRegistry) Remove(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty partition key", domain.ErrInvalidInput)
	}
	return r.store.Remove(ctx, key)
}
