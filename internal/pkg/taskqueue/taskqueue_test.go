package taskqueue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisc "github.com/marginalia-app/core/internal/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc, err := redisc.Connect("redis://" + mr.Addr())
	require.NoError(t, err)
	return NewService(rc), mr
}

// enqueue with a short sleep so created_at scores stay distinct and the
// newest-first ordering is deterministic.
func enqueueSpaced(t *testing.T, s *Service, taskType, dedupKey, groupKey string) *Task {
	t.Helper()
	task, err := s.Enqueue(context.Background(), taskType, nil, dedupKey, groupKey)
	require.NoError(t, err)
	require.NotNil(t, task)
	time.Sleep(5 * time.Millisecond)
	return task
}

func TestEnqueueAndGetByID(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	task, err := s.Enqueue(ctx, "extract", map[string]string{"paper": "p1"}, "", "p1")
	require.NoError(t, err)
	assert.Equal(t, TaskPending, task.Status)
	assert.Equal(t, "p1", task.GroupKey)

	loaded, err := s.GetByID(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, task.ID, loaded.ID)

	missing, err := s.GetByID(ctx, "no-such-task")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestEnqueueDedupReturnsLiveTask(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	first, err := s.Enqueue(ctx, "extract", nil, "p1", "p1")
	require.NoError(t, err)

	second, err := s.Enqueue(ctx, "extract", nil, "p1", "p1")
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, first.ID, second.ID)
}

func TestEnqueueRecoversFromExpiredTaskKey(t *testing.T) {
	s, mr := newTestService(t)
	ctx := context.Background()

	first, err := s.Enqueue(ctx, "extract", nil, "p1", "p1")
	require.NoError(t, err)

	// Simulate the task key expiring while the dedup hash entry survives.
	mr.Del(s.taskKey(first.ID))

	second, err := s.Enqueue(ctx, "extract", nil, "p1", "p1")
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, TaskPending, second.Status)
}

func TestUpdateStatusReleasesDedupOnTerminal(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	first, err := s.Enqueue(ctx, "extract", nil, "p1", "p1")
	require.NoError(t, err)

	require.NoError(t, s.UpdateStatus(ctx, first.ID, TaskCompleted, nil, ""))

	second, err := s.Enqueue(ctx, "extract", nil, "p1", "p1")
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestUpdateStatusUnknownTask(t *testing.T) {
	s, _ := newTestService(t)
	err := s.UpdateStatus(context.Background(), "no-such-task", TaskFailed, nil, "boom")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestListByGroup(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	a := enqueueSpaced(t, s, "extract", "", "paper-a")
	b := enqueueSpaced(t, s, "extract", "", "paper-a")
	enqueueSpaced(t, s, "extract", "", "paper-b")

	tasks, err := s.ListByGroup(ctx, "paper-a")
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, b.ID, tasks[0].ID)
	assert.Equal(t, a.ID, tasks[1].ID)

	empty, err := s.ListByGroup(ctx, "paper-c")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestListFiltersAndPaginates(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	extract := enqueueSpaced(t, s, "extract", "", "p1")
	enqueueSpaced(t, s, "export", "", "w1")
	failed := enqueueSpaced(t, s, "extract", "", "p2")
	require.NoError(t, s.UpdateStatus(ctx, failed.ID, TaskFailed, nil, "boom"))

	taskType := "extract"
	tasks, total, err := s.List(ctx, 1, 10, &taskType, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, tasks, 2)

	status := TaskFailed
	tasks, total, err = s.List(ctx, 1, 10, nil, &status)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, tasks, 1)
	assert.Equal(t, failed.ID, tasks[0].ID)

	tasks, total, err = s.List(ctx, 2, 2, nil, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, tasks, 1)
	assert.Equal(t, extract.ID, tasks[0].ID)

	tasks, _, err = s.List(ctx, 5, 10, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestDeleteByID(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	task, err := s.Enqueue(ctx, "extract", nil, "p1", "p1")
	require.NoError(t, err)

	require.NoError(t, s.DeleteByID(ctx, task.ID))

	loaded, err := s.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	assert.ErrorIs(t, s.DeleteByID(ctx, task.ID), ErrTaskNotFound)

	// Deleting releases the dedup slot too.
	fresh, err := s.Enqueue(ctx, "extract", nil, "p1", "p1")
	require.NoError(t, err)
	require.NotNil(t, fresh)
	assert.NotEqual(t, task.ID, fresh.ID)
}
