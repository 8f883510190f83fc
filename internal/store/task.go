package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/promptq/internal/domain"
)

// TaskUpdate carries a partial task update. Nil fields are left untouched;
// the write as a whole is last-write-wins on the task record.
type TaskUpdate struct {
	Status       *domain.TaskStatus
	ErrorMessage *string
}

// StatusUpdate builds a TaskUpdate setting the status and clearing any
// previous error message.
func StatusUpdate(status domain.TaskStatus) TaskUpdate {
	empty := ""
	return TaskUpdate{Status: &status, ErrorMessage: &empty}
}

// FailureUpdate builds a TaskUpdate marking the task failed with the given
// human-readable message.
func FailureUpdate(message string) TaskUpdate {
	status := domain.TaskStatusFailed
	return TaskUpdate{Status: &status, ErrorMessage: &message}
}

// TaskStore defines the interface for persisting tasks and their result
// history.
// Version: 1.0
type TaskStore interface {
	// CreateTask persists a new task.
	CreateTask(ctx context.Context, task *domain.Task) error

	// GetTask retrieves a task, including its result history, by ID.
	// Returns ErrTaskNotFound if no task exists with the given ID.
	GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// ListTasks retrieves all tasks ordered by creation time, including
	// their result histories.
	ListTasks(ctx context.Context) ([]*domain.Task, error)

	// UpdateTask applies a partial update to a task record.
	// Returns ErrTaskNotFound if no task exists with the given ID.
	UpdateTask(ctx context.Context, id uuid.UUID, update TaskUpdate) error

	// AppendResult appends a result to the task's history and marks the
	// task completed, atomically. The history is append-only: existing
	// entries are never modified or removed.
	AppendResult(ctx context.Context, result *domain.TaskResult) error

	// AttachCacheHandles records the media cache handles that were
	// successfully populated for an existing result. This is the only
	// mutation permitted on a stored result.
	AttachCacheHandles(ctx context.Context, taskID, resultID uuid.UUID, handles []uuid.UUID) error

	// WithTx returns a new TaskStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) TaskStore
}
