package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

func TestSchedulerStore_Tasks(t *testing.T) {
	store := NewSchedulerStore()
	ctx := context.Background()

	task, err := store.GetTask(ctx, domain.TaskIDWatch)
	require.NoError(t, err)
	assert.Nil(t, task)

	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{ID: domain.TaskIDWatch, Interval: time.Second, Enabled: true}))
	assert.ErrorIs(t, store.SaveTask(ctx, nil), domain.ErrInvalidInput)

	tasks, err := store.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, time.Second, tasks[0].Interval)

	require.NoError(t, store.DeleteTask(ctx, domain.TaskIDWatch))
	task, err = store.GetTask(ctx, domain.TaskIDWatch)
	require.NoError(t, err)
	assert.Nil(t, task)
}

func TestSchedulerStore_History(t *testing.T) {
	store := NewSchedulerStore()
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.RecordResult(ctx, &domain.TaskResult{
			TaskID:         domain.TaskIDWatch,
			StartedAt:      base.Add(time.Duration(i) * time.Second),
			ItemsProcessed: i,
		}))
	}

	history, err := store.GetTaskHistory(ctx, domain.TaskIDWatch, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 4, history[0].ItemsProcessed)
	assert.Equal(t, 3, history[1].ItemsProcessed)

	require.NoError(t, store.PruneHistory(ctx, 3))
	history, err = store.GetTaskHistory(ctx, domain.TaskIDWatch, 0)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, 2, history[2].ItemsProcessed)
}
