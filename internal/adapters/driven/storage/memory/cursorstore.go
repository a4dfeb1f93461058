package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure CursorStore implements the interface.
var _ driven.CursorStore = (*CursorStore)(nil)

// CursorStore is an in-memory implementation of driven.CursorStore.
type CursorStore struct {
	mu     sync.RWMutex
	states map[string]domain.WatchState
}

// NewCursorStore creates a new in-memory cursor store.
func NewCursorStore() *CursorStore {
	return &CursorStore{
		states: make(map[string]domain.WatchState),
	}
}

// Save stores or updates the state for a watch.
func (s *CursorStore) Save(_ context.Context, state domain.WatchState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.WatchID] = state
	return nil
}

// Get retrieves the state for a watch.
func (s *CursorStore) Get(_ context.Context, watchID string) (*domain.WatchState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[watchID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &state, nil
}

// Delete removes the state for a watch.
func (s *CursorStore) Delete(_ context.Context, watchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, watchID)
	return nil
}
