package driven

import (
	"context"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// CursorStore persists watch cursors between ticks.
type CursorStore interface {
	// Save stores or updates the state for a watch.
	Save(ctx context.Context, state domain.WatchState) error

	// Get retrieves the state for a watch.
	// Returns domain.ErrNotFound if the watch has never ticked.
	Get(ctx context.Context, watchID string) (*domain.WatchState, error)

	// Delete removes the state for a watch.
	Delete(ctx context.Context, watchID string) error
}
