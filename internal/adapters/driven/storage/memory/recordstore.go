package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure RecordStore implements the interface.
var _ driven.RecordStore = (*RecordStore)(nil)

// RecordStore is an in-memory implementation of driven.RecordStore.
type RecordStore struct {
	mu      sync.RWMutex
	records map[string]*domain.Record
}

// NewRecordStore creates a new in-memory record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		records: make(map[string]*domain.Record),
	}
}

// CreateIfAbsent inserts a record holding only its source locator.
func (s *RecordStore) CreateIfAbsent(_ context.Context, key, sourceLocator string) (bool, error) {
	if key == "" || sourceLocator == "" {
		return false, fmt.Errorf("%w: key and source locator are required", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.records[key]; ok {
		if existing.SourceLocator != sourceLocator {
			return false, fmt.Errorf("%w: %q is registered to %q", domain.ErrDuplicateKeyConflict, key, existing.SourceLocator)
		}
		return false, nil
	}
	now := time.Now()
	s.records[key] = &domain.Record{
		Key:           key,
		SourceLocator: sourceLocator,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return true, nil
}

// UpsertColumn writes one derived column of an existing record.
func (s *RecordStore) UpsertColumn(_ context.Context, key string, col domain.Column, value string) error {
	if col == domain.ColumnSourceLocator || !col.Valid() {
		return fmt.Errorf("%w: column %q is not writable", domain.ErrInvalidInput, col)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok {
		return domain.ErrNotFound
	}
	// Copy-on-write so readers holding a previous *Record never observe the change.
	updated := *rec
	v := value
	switch col {
	case domain.ColumnMarkdown:
		updated.Markdown = &v
	case domain.ColumnJSON:
		updated.JSON = &v
	case domain.ColumnPlain:
		updated.Plain = &v
	case domain.ColumnChunks:
		updated.Chunks = &v
	case domain.ColumnEmbeddings:
		updated.Embeddings = &v
	}
	updated.UpdatedAt = time.Now()
	s.records[key] = &updated
	return nil
}

// ReadColumns reads the requested columns of one record.
func (s *RecordStore) ReadColumns(_ context.Context, key string, cols ...domain.Column) (domain.ColumnValues, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	values := make(domain.ColumnValues, len(cols))
	for _, col := range cols {
		if !col.Valid() {
			return nil, fmt.Errorf("%w: unknown column %q", domain.ErrInvalidInput, col)
		}
		if v, ok := rec.Value(col); ok {
			values[col] = &v
		} else {
			values[col] = nil
		}
	}
	return values, nil
}

// Get retrieves a full record.
func (s *RecordStore) Get(_ context.Context, key string) (*domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *rec
	return &out, nil
}

// ListKeys returns all record keys in ascending order.
func (s *RecordStore) ListKeys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.records))
	for k := range s.records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Delete removes a record.
func (s *RecordStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}

// exists reports whether key has a record. Used by RelationshipStore.
func (s *RecordStore) exists(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[key]
	return ok
}
