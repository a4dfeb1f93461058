package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure RelationshipStore implements the interface.
var _ driven.RelationshipStore = (*RelationshipStore)(nil)

type pairKey struct{ a, b string }

// RelationshipStore is an in-memory implementation of driven.RelationshipStore.
// It checks key existence against the RecordStore it was built with.
type RelationshipStore struct {
	mu      sync.RWMutex
	records *RecordStore
	rels    map[pairKey]domain.Relationship
}

// NewRelationshipStore creates a relationship store backed by records.
func NewRelationshipStore(records *RecordStore) *RelationshipStore {
	return &RelationshipStore{
		records: records,
		rels:    make(map[pairKey]domain.Relationship),
	}
}

// Save stores or updates a relationship.
func (s *RelationshipStore) Save(_ context.Context, rel domain.Relationship) error {
	if err := rel.Validate(); err != nil {
		return err
	}
	for _, key := range []string{rel.DocA, rel.DocB} {
		if !s.records.exists(key) {
			return fmt.Errorf("%w: no record for %q", domain.ErrReferentialIntegrity, key)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rels[pairKey{rel.DocA, rel.DocB}] = rel
	return nil
}

// List returns relationships in which key appears on either side.
func (s *RelationshipStore) List(_ context.Context, key string) ([]domain.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Relationship
	for _, rel := range s.rels {
		if rel.DocA == key || rel.DocB == key {
			out = append(out, rel)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DocA != out[j].DocA {
			return out[i].DocA < out[j].DocA
		}
		return out[i].DocB < out[j].DocB
	})
	return out, nil
}

// Delete removes the relationship for the ordered pair.
func (s *RelationshipStore) Delete(_ context.Context, docA, docB string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rels, pairKey{docA, docB})
	return nil
}
