package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

func TestWatcher_Scan(t *testing.T) {
	ctx := context.Background()

	t.Run("empty source keeps cursor", func(t *testing.T) {
		w := NewWatcher(newFakeSource(), "test_bucket")

		delta, cursor, err := w.Scan(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, delta)
		assert.Equal(t, domain.Cursor(0), cursor)
	})

	t.Run("first scan returns everything", func(t *testing.T) {
		src := newFakeSource()
		src.put("a.md", "# A", 100)
		src.put("docs/b.txt", "b", 200)
		w := NewWatcher(src, "test_bucket")

		delta, cursor, err := w.Scan(ctx, 0)
		require.NoError(t, err)
		require.Len(t, delta, 2)
		assert.Equal(t, "/test_bucket/a.md", delta[0].Key)
		assert.Equal(t, testRoot+"/a.md", delta[0].Locator)
		assert.Equal(t, "/test_bucket/docs/b.txt", delta[1].Key)
		assert.Equal(t, domain.Cursor(200), cursor)
	})

	t.Run("only strictly newer objects", func(t *testing.T) {
		src := newFakeSource()
		src.put("old.md", "old", 100)
		src.put("same.md", "same", 150)
		src.put("new.md", "new", 151.5)
		w := NewWatcher(src, "p")

		delta, cursor, err := w.Scan(ctx, 150)
		require.NoError(t, err)
		require.Len(t, delta, 1)
		assert.Equal(t, "/p/new.md", delta[0].Key)
		assert.Equal(t, domain.Cursor(151.5), cursor)
	})

	t.Run("cursor never decreases", func(t *testing.T) {
		src := newFakeSource()
		src.put("a.md", "a", 10)
		w := NewWatcher(src, "p")

		delta, cursor, err := w.Scan(ctx, 500)
		require.NoError(t, err)
		assert.Empty(t, delta)
		assert.Equal(t, domain.Cursor(500), cursor)
	})

	t.Run("list failure returns input cursor", func(t *testing.T) {
		src := newFakeSource()
		src.listErr = errors.New("permission denied")
		w := NewWatcher(src, "p")

		delta, cursor, err := w.Scan(ctx, 42)
		require.Error(t, err)
		assert.Nil(t, delta)
		assert.Equal(t, domain.Cursor(42), cursor)
	})

	t.Run("escaping paths are skipped", func(t *testing.T) {
		src := newFakeSource()
		src.put("../outside.md", "x", 10)
		src.put("inside.md", "y", 20)
		w := NewWatcher(src, "p")

		delta, cursor, err := w.Scan(ctx, 0)
		require.NoError(t, err)
		require.Len(t, delta, 1)
		assert.Equal(t, "/p/inside.md", delta[0].Key)
		assert.Equal(t, domain.Cursor(20), cursor)
	})
}

func TestDispatch(t *testing.T) {
	t.Run("empty delta", func(t *testing.T) {
		assert.Nil(t, Dispatch(nil))
	})

	t.Run("deduplicates keys keeping first occurrence", func(t *testing.T) {
		delta := []domain.SourceObject{
			{Key: "/p/a", Locator: "/r/a", ModTime: 1},
			{Key: "/p/b", Locator: "/r/b", ModTime: 2},
			{Key: "/p/a", Locator: "/r/a2", ModTime: 3},
		}
		reqs := Dispatch(delta)
		assert.Equal(t, []domain.ExecutionRequest{
			{Key: "/p/a", Locator: "/r/a"},
			{Key: "/p/b", Locator: "/r/b"},
		}, reqs)
	})
}

func TestPartitionRegistry(t *testing.T) {
	ctx := context.Background()
	h, err := newHarness()
	require.NoError(t, err)
	defer h.close()

	registry := NewPartitionRegistry(h.partitions)

	require.NoError(t, registry.Register(ctx, nil))
	require.NoError(t, registry.Register(ctx, []domain.SourceObject{{Key: "/p/b"}, {Key: "/p/a"}}))
	require.NoError(t, registry.Register(ctx, []domain.SourceObject{{Key: "/p/a"}}))

	known, err := registry.Known(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"/p/a", "/p/b"}, known)

	ok, err := registry.Contains(ctx, "/p/a")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, registry.Remove(ctx, "/p/a"))
	ok, err = registry.Contains(ctx, "/p/a")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, registry.Remove(ctx, ""), domain.ErrInvalidInput)
}
