package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/promptq/internal/domain"
	"github.com/phrazzld/promptq/internal/platform/logger"
	"github.com/phrazzld/promptq/internal/store"
)

// PostgresTaskStore implements the store.TaskStore interface using PostgreSQL.
// UUID slices and result content are stored as JSONB; content rows written by
// earlier revisions that stored a bare string still parse through
// domain.ParseResultContent.
type PostgresTaskStore struct {
	db store.DBTX
}

var _ store.TaskStore = (*PostgresTaskStore)(nil)

// NewPostgresTaskStore creates a new PostgresTaskStore.
func NewPostgresTaskStore(db store.DBTX) *PostgresTaskStore {
	return &PostgresTaskStore{
		db: db,
	}
}

// WithTx returns a new TaskStore bound to the given transaction.
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{db: tx}
}

// CreateTask persists a new task.
func (s *PostgresTaskStore) CreateTask(ctx context.Context, task *domain.Task) error {
	log := logger.FromContext(ctx)

	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	refIDs, err := json.Marshal(task.ReferenceImageIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal reference image IDs: %w", err)
	}

	query := `
		INSERT INTO tasks (id, tool, prompt, result_type, reference_image_ids,
		                   status, error_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = s.db.ExecContext(ctx, query,
		task.ID,
		task.Tool,
		task.Prompt,
		task.ResultType,
		refIDs,
		task.Status,
		task.ErrorMessage,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create task",
			"task_id", task.ID,
			"tool", task.Tool,
			"error", err)
		return MapError(err)
	}

	return nil
}

// GetTask retrieves a task, including its result history, by ID.
func (s *PostgresTaskStore) GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContext(ctx)

	query := `
		SELECT id, tool, prompt, result_type, reference_image_ids,
		       status, error_message, created_at, updated_at
		FROM tasks
		WHERE id = $1
	`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task", "task_id", id, "error", err)
		return nil, MapError(err)
	}

	results, err := s.loadResults(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	task.Results = results[id]

	return task, nil
}

// ListTasks retrieves all tasks ordered by creation time, including their
// result histories.
func (s *PostgresTaskStore) ListTasks(ctx context.Context) ([]*domain.Task, error) {
	log := logger.FromContext(ctx)

	query := `
		SELECT id, tool, prompt, result_type, reference_image_ids,
		       status, error_message, created_at, updated_at
		FROM tasks
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to list tasks", "error", err)
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []*domain.Task
	var ids []uuid.UUID
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, MapError(err)
		}
		tasks = append(tasks, task)
		ids = append(ids, task.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	if len(ids) == 0 {
		return tasks, nil
	}

	results, err := s.loadResults(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, task := range tasks {
		task.Results = results[task.ID]
	}

	return tasks, nil
}

// UpdateTask applies a partial update to a task record.
func (s *PostgresTaskStore) UpdateTask(ctx context.Context, id uuid.UUID, update store.TaskUpdate) error {
	log := logger.FromContext(ctx)

	if update.Status == nil && update.ErrorMessage == nil {
		return nil
	}

	// Build the SET clause from the populated fields.
	set := "updated_at = $1"
	args := []interface{}{time.Now().UTC()}
	if update.Status != nil {
		args = append(args, *update.Status)
		set += fmt.Sprintf(", status = $%d", len(args))
	}
	if update.ErrorMessage != nil {
		args = append(args, *update.ErrorMessage)
		set += fmt.Sprintf(", error_message = $%d", len(args))
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE tasks SET %s WHERE id = $%d", set, len(args))

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to update task", "task_id", id, "error", err)
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "task"); err != nil {
		if store.IsNotFoundError(err) {
			return store.ErrTaskNotFound
		}
		return err
	}

	return nil
}

// AppendResult appends a result to the task's history and marks the task
// completed. Callers needing atomicity run this inside a transaction via
// WithTx; both statements then commit or roll back together.
func (s *PostgresTaskStore) AppendResult(ctx context.Context, result *domain.TaskResult) error {
	log := logger.FromContext(ctx)

	if err := result.Content.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	content, err := json.Marshal(result.Content)
	if err != nil {
		return fmt.Errorf("failed to marshal result content: %w", err)
	}
	handles, err := json.Marshal(result.CacheHandles)
	if err != nil {
		return fmt.Errorf("failed to marshal cache handles: %w", err)
	}

	insert := `
		INSERT INTO task_results (id, task_id, content, cache_handles, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := s.db.ExecContext(ctx, insert,
		result.ID,
		result.TaskID,
		content,
		handles,
		result.CreatedAt,
	); err != nil {
		log.Error("failed to append result",
			"task_id", result.TaskID,
			"result_id", result.ID,
			"error", err)
		return MapError(err)
	}

	update := `
		UPDATE tasks
		SET status = $1, error_message = '', updated_at = $2
		WHERE id = $3
	`
	res, err := s.db.ExecContext(ctx, update, domain.TaskStatusCompleted, time.Now().UTC(), result.TaskID)
	if err != nil {
		log.Error("failed to mark task completed",
			"task_id", result.TaskID,
			"error", err)
		return MapError(err)
	}
	if err := CheckRowsAffected(res, "task"); err != nil {
		if store.IsNotFoundError(err) {
			return store.ErrTaskNotFound
		}
		return err
	}

	return nil
}

// AttachCacheHandles records the cache handles populated for a stored result.
func (s *PostgresTaskStore) AttachCacheHandles(ctx context.Context, taskID, resultID uuid.UUID, handles []uuid.UUID) error {
	log := logger.FromContext(ctx)

	encoded, err := json.Marshal(handles)
	if err != nil {
		return fmt.Errorf("failed to marshal cache handles: %w", err)
	}

	query := `
		UPDATE task_results
		SET cache_handles = $1
		WHERE id = $2 AND task_id = $3
	`
	result, err := s.db.ExecContext(ctx, query, encoded, resultID, taskID)
	if err != nil {
		log.Error("failed to attach cache handles",
			"task_id", taskID,
			"result_id", resultID,
			"error", err)
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "task result"); err != nil {
		if store.IsNotFoundError(err) {
			return store.ErrResultNotFound
		}
		return err
	}

	return nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanTask.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	var refIDs []byte

	err := row.Scan(
		&task.ID,
		&task.Tool,
		&task.Prompt,
		&task.ResultType,
		&refIDs,
		&task.Status,
		&task.ErrorMessage,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(refIDs) > 0 {
		if err := json.Unmarshal(refIDs, &task.ReferenceImageIDs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal reference image IDs: %w", err)
		}
	}

	return &task, nil
}

// loadResults fetches the ordered result history for the given task IDs.
func (s *PostgresTaskStore) loadResults(ctx context.Context, taskIDs []uuid.UUID) (map[uuid.UUID][]domain.TaskResult, error) {
	log := logger.FromContext(ctx)

	ids, err := json.Marshal(taskIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task IDs: %w", err)
	}

	query := `
		SELECT id, task_id, content, cache_handles, created_at
		FROM task_results
		WHERE task_id IN (SELECT value::uuid FROM jsonb_array_elements_text($1::jsonb))
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, ids)
	if err != nil {
		log.Error("failed to load task results", "error", err)
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	results := make(map[uuid.UUID][]domain.TaskResult)
	for rows.Next() {
		var r domain.TaskResult
		var content, handles []byte

		if err := rows.Scan(&r.ID, &r.TaskID, &content, &handles, &r.CreatedAt); err != nil {
			return nil, MapError(err)
		}

		r.Content = domain.ParseResultContent(content)

		if len(handles) > 0 {
			if err := json.Unmarshal(handles, &r.CacheHandles); err != nil {
				return nil, fmt.Errorf("failed to unmarshal cache handles: %w", err)
			}
		}

		results[r.TaskID] = append(results[r.TaskID], r)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return results, nil
}
