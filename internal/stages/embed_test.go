package stages

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// lengthEmbedder scores text by its length so results are predictable.
type lengthEmbedder struct {
	failOn string
}

func (e *lengthEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if text == e.failOn {
		return nil, errors.New("model unavailable")
	}
	return []float32{float32(len(text)) / 10, 0}, nil
}

func (e *lengthEmbedder) ModelName() string { return "length" }
func (e *lengthEmbedder) Close() error      { return nil }

func TestScore(t *testing.T) {
	assert.Equal(t, 0.0, Score(nil))
	assert.Equal(t, 0.5, Score([]float32{0.25, 0.75}))
	assert.Equal(t, 0.333, Score([]float32{1, 0, 0}))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 0.123, Round(0.12345))
	assert.Equal(t, 0.124, Round(0.1236))
	assert.Equal(t, 1.0, Round(0.9999))
}

func TestEmbedChunks(t *testing.T) {
	ctx := context.Background()
	chunks, err := domain.EncodeChunks([]string{"ab", "abcd", "a"})
	require.NoError(t, err)

	out, err := EmbedChunks(ctx, &lengthEmbedder{}, chunks)
	require.NoError(t, err)
	assert.Equal(t, `{"0":0.1,"1":0.2,"2":0.05}`, out)

	chunkIdx, err := domain.SortedIndices(chunks)
	require.NoError(t, err)
	embIdx, err := domain.SortedIndices(out)
	require.NoError(t, err)
	assert.Equal(t, chunkIdx, embIdx)
}

func TestEmbedChunks_Empty(t *testing.T) {
	out, err := EmbedChunks(context.Background(), &lengthEmbedder{}, "{}")
	require.NoError(t, err)
	assert.Equal(t, "{}", out)
}

func TestEmbedChunks_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := EmbedChunks(ctx, &lengthEmbedder{}, "not json")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = EmbedChunks(ctx, &lengthEmbedder{failOn: "b"}, `{"0":"a","1":"b"}`)
	assert.ErrorContains(t, err, "chunk 1")

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = EmbedChunks(cancelled, &lengthEmbedder{}, `{"0":"a"}`)
	assert.ErrorIs(t, err, context.Canceled)
}
