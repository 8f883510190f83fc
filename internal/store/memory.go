package store

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/promptq/internal/domain"
)

// MemoryTaskStore is an in-memory TaskStore used by tests and DB-less runs.
// It is safe for concurrent use.
type MemoryTaskStore struct {
	mu    sync.RWMutex
	tasks map[uuid.UUID]*domain.Task
}

var _ TaskStore = (*MemoryTaskStore)(nil)

// NewMemoryTaskStore creates an empty MemoryTaskStore.
func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{
		tasks: make(map[uuid.UUID]*domain.Task),
	}
}

// CreateTask persists a new task.
func (s *MemoryTaskStore) CreateTask(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return ErrInvalidEntity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.ID]; exists {
		return ErrDuplicate
	}

	clone := cloneTask(task)
	s.tasks[task.ID] = clone
	return nil
}

// GetTask retrieves a task by ID.
func (s *MemoryTaskStore) GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, exists := s.tasks[id]
	if !exists {
		return nil, ErrTaskNotFound
	}
	return cloneTask(task), nil
}

// ListTasks retrieves all tasks ordered by creation time.
func (s *MemoryTaskStore) ListTasks(ctx context.Context) ([]*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]*domain.Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		tasks = append(tasks, cloneTask(task))
	}
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
	return tasks, nil
}

// UpdateTask applies a partial update to a task record.
func (s *MemoryTaskStore) UpdateTask(ctx context.Context, id uuid.UUID, update TaskUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, exists := s.tasks[id]
	if !exists {
		return ErrTaskNotFound
	}

	if update.Status != nil {
		task.Status = *update.Status
	}
	if update.ErrorMessage != nil {
		task.ErrorMessage = *update.ErrorMessage
	}
	task.UpdatedAt = time.Now().UTC()
	return nil
}

// AppendResult appends a result to the task's history and marks the task
// completed.
func (s *MemoryTaskStore) AppendResult(ctx context.Context, result *domain.TaskResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, exists := s.tasks[result.TaskID]
	if !exists {
		return ErrTaskNotFound
	}

	task.Results = append(task.Results, *result)
	task.Status = domain.TaskStatusCompleted
	task.ErrorMessage = ""
	task.UpdatedAt = time.Now().UTC()
	return nil
}

// AttachCacheHandles records cache handles on an existing result.
func (s *MemoryTaskStore) AttachCacheHandles(ctx context.Context, taskID, resultID uuid.UUID, handles []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, exists := s.tasks[taskID]
	if !exists {
		return ErrTaskNotFound
	}

	for i := range task.Results {
		if task.Results[i].ID == resultID {
			task.Results[i].CacheHandles = append([]uuid.UUID(nil), handles...)
			return nil
		}
	}
	return ErrResultNotFound
}

// WithTx returns the store itself: the in-memory store has no transaction
// support and every operation is already atomic under its lock.
func (s *MemoryTaskStore) WithTx(tx *sql.Tx) TaskStore {
	return s
}

func cloneTask(task *domain.Task) *domain.Task {
	clone := *task
	clone.Results = append([]domain.TaskResult(nil), task.Results...)
	clone.ReferenceImageIDs = append([]uuid.UUID(nil), task.ReferenceImageIDs...)
	return &clone
}
