package stages

import (
	"context"
	"fmt"
	"math"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// ScorePrecision is the number of decimals each chunk score keeps.
const ScorePrecision = 3

// Score reduces an embedding vector to one value: its mean, rounded to
// ScorePrecision decimals. An empty vector scores 0.
func Score(vec []float32) float64 {
	if len(vec) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vec {
		sum += float64(v)
	}
	return Round(sum / float64(len(vec)))
}

// Round rounds x to ScorePrecision decimals.
func Round(x float64) float64 {
	scale := math.Pow10(ScorePrecision)
	return math.Round(x*scale) / scale
}

// EmbedChunks scores every chunk of an encoded chunk mapping and returns
// the encoded embedding mapping. The output has exactly the input indices.
func EmbedChunks(ctx context.Context, svc driven.EmbeddingService, encodedChunks string) (string, error) {
	chunks, err := domain.DecodeChunks(encodedChunks)
	if err != nil {
		return "", err
	}
	scores := make([]float64, len(chunks))
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		vec, err := svc.Embed(ctx, chunk)
		if err != nil {
			return "", fmt.Errorf("embedding chunk %d: %w", i, err)
		}
		scores[i] = Score(vec)
	}
	return domain.EncodeEmbeddings(scores), nil
}
