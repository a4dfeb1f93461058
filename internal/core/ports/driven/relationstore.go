package driven

import (
	"context"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// RelationshipStore persists relationships between document records.
type RelationshipStore interface {
	// Save stores or updates a relationship.
	// Returns domain.ErrReferentialIntegrity if either key has no record.
	Save(ctx context.Context, rel domain.Relationship) error

	// List returns every relationship in which key appears on either side.
	List(ctx context.Context, key string) ([]domain.Relationship, error)

	// Delete removes the relationship for the ordered pair.
	Delete(ctx context.Context, docA, docB string) error
}
