package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure PartitionStore implements the interface.
var _ driven.PartitionStore = (*PartitionStore)(nil)

// PartitionStore is an in-memory implementation of driven.PartitionStore.
type PartitionStore struct {
	mu   sync.RWMutex
	keys map[string]struct{}
}

// NewPartitionStore creates a new in-memory partition store.
func NewPartitionStore() *PartitionStore {
	return &PartitionStore{
		keys: make(map[string]struct{}),
	}
}

// Add inserts keys, ignoring ones already present.
func (s *PartitionStore) Add(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		s.keys[k] = struct{}{}
	}
	return nil
}

// Contains reports whether key is registered.
func (s *PartitionStore) Contains(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.keys[key]
	return ok, nil
}

// List returns all keys in ascending order.
func (s *PartitionStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.keys))
	for k := range s.keys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Remove deletes a key.
func (s *PartitionStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
	return nil
}
