package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

func TestCursorStore(t *testing.T) {
	store := NewCursorStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "default")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	now := time.Now()
	require.NoError(t, store.Save(ctx, domain.WatchState{WatchID: "default", Cursor: "150", LastTick: now}))

	state, err := store.Get(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, "150", state.Cursor)
	assert.Equal(t, now, state.LastTick)

	require.NoError(t, store.Delete(ctx, "default"))
	_, err = store.Get(ctx, "default")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
