package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/promptq/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTask(t *testing.T) *domain.Task {
	t.Helper()
	task, err := domain.NewTask("chatgpt", "write a haiku", domain.ResultTypeText, nil)
	require.NoError(t, err)
	return task
}

func TestMemoryTaskStore_CreateAndGet(t *testing.T) {
	t.Parallel()

	s := NewMemoryTaskStore()
	ctx := context.Background()
	task := newTestTask(t)

	require.NoError(t, s.CreateTask(ctx, task))

	got, err := s.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)
	assert.Equal(t, domain.TaskStatusPending, got.Status)

	// Duplicate creation is rejected.
	assert.ErrorIs(t, s.CreateTask(ctx, task), ErrDuplicate)

	// Unknown ID maps to the not-found sentinel.
	_, err = s.GetTask(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrTaskNotFound)
	assert.True(t, IsNotFoundError(err))
}

func TestMemoryTaskStore_UpdateTask(t *testing.T) {
	t.Parallel()

	s := NewMemoryTaskStore()
	ctx := context.Background()
	task := newTestTask(t)
	require.NoError(t, s.CreateTask(ctx, task))

	require.NoError(t, s.UpdateTask(ctx, task.ID, FailureUpdate("element not found")))

	got, err := s.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusFailed, got.Status)
	assert.Equal(t, "element not found", got.ErrorMessage)

	// A later status update clears the error message.
	require.NoError(t, s.UpdateTask(ctx, task.ID, StatusUpdate(domain.TaskStatusPending)))
	got, err = s.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusPending, got.Status)
	assert.Empty(t, got.ErrorMessage)

	assert.ErrorIs(t, s.UpdateTask(ctx, uuid.New(), StatusUpdate(domain.TaskStatusFailed)), ErrTaskNotFound)
}

func TestMemoryTaskStore_AppendResult(t *testing.T) {
	t.Parallel()

	s := NewMemoryTaskStore()
	ctx := context.Background()
	task := newTestTask(t)
	require.NoError(t, s.CreateTask(ctx, task))

	first, err := domain.NewTaskResult(task.ID, domain.TextContent("one"))
	require.NoError(t, err)
	second, err := domain.NewTaskResult(task.ID, domain.ImageContent("https://x/a.png"))
	require.NoError(t, err)

	require.NoError(t, s.AppendResult(ctx, first))
	require.NoError(t, s.AppendResult(ctx, second))

	got, err := s.GetTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, got.Results, 2, "history must be append-only")
	assert.Equal(t, first.ID, got.Results[0].ID)
	assert.Equal(t, second.ID, got.Results[1].ID)
	assert.Equal(t, domain.TaskStatusCompleted, got.Status)
}

func TestMemoryTaskStore_AttachCacheHandles(t *testing.T) {
	t.Parallel()

	s := NewMemoryTaskStore()
	ctx := context.Background()
	task := newTestTask(t)
	require.NoError(t, s.CreateTask(ctx, task))

	result, err := domain.NewTaskResult(task.ID, domain.ImageContent("https://x/a.png"))
	require.NoError(t, err)
	require.NoError(t, s.AppendResult(ctx, result))

	handles := []uuid.UUID{uuid.New()}
	require.NoError(t, s.AttachCacheHandles(ctx, task.ID, result.ID, handles))

	got, err := s.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, handles, got.Results[0].CacheHandles)

	assert.ErrorIs(t, s.AttachCacheHandles(ctx, task.ID, uuid.New(), handles), ErrResultNotFound)
}
