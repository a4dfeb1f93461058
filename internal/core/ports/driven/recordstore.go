package driven

import (
	"context"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// RecordStore persists document records keyed by partition key.
// Every write is atomic per row: a concurrent reader sees either the
// pre-image or the post-image of a column, never a partial value.
type RecordStore interface {
	// CreateIfAbsent inserts a record with only its source locator set.
	// Returns created=false if a record with the same key and locator exists.
	// Returns domain.ErrDuplicateKeyConflict if the key exists with a
	// different locator.
	CreateIfAbsent(ctx context.Context, key, sourceLocator string) (created bool, err error)

	// UpsertColumn writes one derived column of an existing record.
	// Returns domain.ErrNotFound if the record does not exist and
	// domain.ErrInvalidInput for ColumnSourceLocator or unknown columns.
	UpsertColumn(ctx context.Context, key string, col domain.Column, value string) error

	// ReadColumns reads the requested columns of one record.
	// Returns domain.ErrNotFound if the record does not exist.
	ReadColumns(ctx context.Context, key string, cols ...domain.Column) (domain.ColumnValues, error)

	// Get retrieves a full record.
	// Returns domain.ErrNotFound if the record does not exist.
	Get(ctx context.Context, key string) (*domain.Record, error)

	// ListKeys returns all record keys in ascending order.
	ListKeys(ctx context.Context) ([]string, error)

	// Delete removes a record. Deleting an absent record is not an error.
	Delete(ctx context.Context, key string) error
}
