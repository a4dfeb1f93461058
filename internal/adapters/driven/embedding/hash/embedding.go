// Package hash provides a deterministic, offline embedding service.
//
// Each text maps to a single-component vector whose value is derived from
// an FNV-64a digest of the text, so identical input always embeds to an
// identical score and no model or network access is needed.
package hash

import (
	"context"
	"hash/fnv"

	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// ModelName is reported for records embedded by this service.
const ModelName = "fnv64a"

// EmbeddingService embeds text by hashing it.
type EmbeddingService struct{}

// NewEmbeddingService creates a hash embedding service.
func NewEmbeddingService() *EmbeddingService {
	return &EmbeddingService{}
}

// Embed returns a one-component vector in [0,1).
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []float32{Value(text)}, nil
}

// Value maps text to [0,1) using the top 24 bits of its FNV-64a digest,
// which float32 represents exactly.
func Value(text string) float32 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	return float32(h.Sum64()>>40) / (1 << 24)
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return ModelName
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
