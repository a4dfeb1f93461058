package driven

import (
	"context"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// ObjectSource enumerates and reads objects under a watched root.
// Filesystem and object-store backends expose the same shape.
type ObjectSource interface {
	// Type returns the backend identifier (e.g. "filesystem", "s3").
	Type() string

	// List enumerates every leaf object currently reachable under the root.
	// Objects that vanish mid-listing are omitted, not reported as errors.
	// A missing or empty root yields an empty listing.
	List(ctx context.Context) ([]domain.ObjectInfo, error)

	// Read returns the bytes of the object at locator.
	// Returns domain.ErrNotFound if the object no longer exists.
	Read(ctx context.Context, locator string) ([]byte, error)
}
