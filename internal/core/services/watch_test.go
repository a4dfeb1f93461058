package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

func TestWatchService_RunOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("first tick ingests a small text file", func(t *testing.T) {
		h, err := newHarness()
		require.NoError(t, err)
		defer h.close()
		h.source.put("hello.txt", "Hello World!", 1700000000.25)

		report, err := h.watch.RunOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.Cursor(0), report.Previous)
		assert.Equal(t, domain.Cursor(1700000000.25), report.Current)
		assert.Equal(t, 1, report.Dispatched)
		require.Len(t, report.Results, 1)
		assert.True(t, report.Results[0].Succeeded())

		rec, err := h.records.Get(ctx, "/test_bucket/hello.txt")
		require.NoError(t, err)
		assert.Equal(t, `{"0":"Hello World!"}`, *rec.Chunks)
		assert.Equal(t, `{"0":0.012}`, *rec.Embeddings)

		cursor, err := h.watch.Cursor(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.Cursor(1700000000.25), cursor)
	})

	t.Run("second tick without changes is empty", func(t *testing.T) {
		h, err := newHarness()
		require.NoError(t, err)
		defer h.close()
		h.source.put("hello.txt", "Hello World!", 100)

		_, err = h.watch.RunOnce(ctx)
		require.NoError(t, err)

		report, err := h.watch.RunOnce(ctx)
		require.NoError(t, err)
		assert.Zero(t, report.Dispatched)
		assert.Empty(t, report.Results)
		assert.Equal(t, report.Previous, report.Current)
		assert.Equal(t, 1, h.source.readCount(testRoot+"/hello.txt"))
	})

	t.Run("modified file is reprocessed", func(t *testing.T) {
		h, err := newHarness()
		require.NoError(t, err)
		defer h.close()
		h.source.put("doc.md", "# One", 100)

		_, err = h.watch.RunOnce(ctx)
		require.NoError(t, err)

		h.source.put("doc.md", "# Two", 200)
		report, err := h.watch.RunOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Dispatched)

		rec, err := h.records.Get(ctx, "/test_bucket/doc.md")
		require.NoError(t, err)
		assert.Equal(t, "# Two", *rec.Markdown)
	})

	t.Run("failing partition does not block others", func(t *testing.T) {
		h, err := newHarness()
		require.NoError(t, err)
		defer h.close()
		h.source.put("a.md", "# A", 10)
		h.source.put("b.bin", "zz", 11)
		h.source.put("c.txt", "see", 12)

		report, err := h.watch.RunOnce(ctx)
		require.NoError(t, err)
		require.Len(t, report.Results, 3)
		assert.True(t, report.Results[0].Succeeded())
		assert.False(t, report.Results[1].Succeeded())
		assert.True(t, report.Results[2].Succeeded())
		assert.Equal(t, domain.Cursor(12), report.Current)

		known, err := h.partitions.List(ctx)
		require.NoError(t, err)
		assert.Len(t, known, 3)
	})

	t.Run("list failure keeps persisted cursor", func(t *testing.T) {
		h, err := newHarness()
		require.NoError(t, err)
		defer h.close()
		h.source.put("a.md", "# A", 10)
		_, err = h.watch.RunOnce(ctx)
		require.NoError(t, err)

		h.source.mu.Lock()
		h.source.listErr = errors.New("io timeout")
		h.source.mu.Unlock()

		_, err = h.watch.RunOnce(ctx)
		require.Error(t, err)

		cursor, err := h.watch.Cursor(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.Cursor(10), cursor)
	})

	t.Run("reset rescans everything", func(t *testing.T) {
		h, err := newHarness()
		require.NoError(t, err)
		defer h.close()
		h.source.put("a.md", "# A", 10)
		_, err = h.watch.RunOnce(ctx)
		require.NoError(t, err)

		require.NoError(t, h.watch.Reset(ctx))

		report, err := h.watch.RunOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Dispatched)
		assert.True(t, report.Results[0].Succeeded())
	})

	t.Run("corrupt persisted cursor", func(t *testing.T) {
		h, err := newHarness()
		require.NoError(t, err)
		defer h.close()
		require.NoError(t, h.cursors.Save(ctx, domain.WatchState{WatchID: "test", Cursor: "yesterday"}))

		_, err = h.watch.RunOnce(ctx)
		assert.ErrorIs(t, err, domain.ErrInvalidCursor)
	})
}

func TestWorkerPool_RunAll_Many(t *testing.T) {
	ctx := context.Background()
	h, err := newHarness()
	require.NoError(t, err)
	defer h.close()

	var reqs []domain.ExecutionRequest
	for _, name := range []string{"a.md", "b.md", "c.md", "d.md", "e.md", "f.md"} {
		locator := h.source.put(name, "# "+name, 10)
		reqs = append(reqs, domain.ExecutionRequest{Key: "/test_bucket/" + name, Locator: locator})
	}

	results := h.pool.RunAll(ctx, reqs)
	require.Len(t, results, len(reqs))
	for i, res := range results {
		require.NotNil(t, res)
		assert.Equal(t, reqs[i].Key, res.Key)
		assert.True(t, res.Succeeded())
	}
	assert.Empty(t, h.pool.RunAll(ctx, nil))
}

func TestRelationships_ReferentialIntegrity(t *testing.T) {
	ctx := context.Background()
	h, err := newHarness()
	require.NoError(t, err)
	defer h.close()
	relations := memory.NewRelationshipStore(h.records)

	locator := h.source.put("a.md", "# A", 10)
	require.True(t, h.executor.Run(ctx, domain.ExecutionRequest{Key: "/test_bucket/a.md", Locator: locator}).Succeeded())

	err = relations.Save(ctx, domain.Relationship{
		DocA: "/test_bucket/a.md",
		DocB: "/test_bucket/missing.md",
		Kind: domain.RelationReferences,
	})
	require.ErrorIs(t, err, domain.ErrReferentialIntegrity)
	assert.Equal(t, domain.KindReferentialIntegrity, domain.ErrorKind(err))
}
