package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the execution state of a task. Status reflects only
// the most recent invocation; the result history is kept independently and is
// append-only.
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// ResultType is the kind of artifact a task expects the target tool to
// produce. ResultTypeMixed accepts whatever the tool actually produced.
type ResultType string

// Possible expected result types
const (
	ResultTypeText  ResultType = "text"
	ResultTypeImage ResultType = "image"
	ResultTypeVideo ResultType = "video"
	ResultTypeMixed ResultType = "mixed"
)

// Common validation errors for Task
var (
	ErrEmptyTaskID     = errors.New("task ID cannot be empty")
	ErrEmptyTaskTool   = errors.New("task tool cannot be empty")
	ErrEmptyTaskPrompt = errors.New("task prompt cannot be empty")
)

// Task represents one queued prompt interaction with an external generation
// tool. The engine reads the fields needed to drive execution and writes
// status updates back through the store; the result history is never
// truncated by the engine.
type Task struct {
	ID                uuid.UUID    `json:"id"`
	Tool              string       `json:"tool"`
	Prompt            string       `json:"prompt"`
	ResultType        ResultType   `json:"result_type"`
	ReferenceImageIDs []uuid.UUID  `json:"reference_image_ids,omitempty"`
	Status            TaskStatus   `json:"status"`
	ErrorMessage      string       `json:"error_message,omitempty"`
	Results           []TaskResult `json:"results,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

// NewTask creates a new Task for the given tool, prompt, and expected result
// type. It generates a new UUID, sets the status to pending, and sets the
// creation/update timestamps. Returns an error if validation fails.
func NewTask(tool, prompt string, resultType ResultType, refImageIDs []uuid.UUID) (*Task, error) {
	task := &Task{
		ID:                uuid.New(),
		Tool:              tool,
		Prompt:            prompt,
		ResultType:        resultType,
		ReferenceImageIDs: refImageIDs,
		Status:            TaskStatusPending,
		CreatedAt:         time.Now().UTC(),
		UpdatedAt:         time.Now().UTC(),
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}

	if t.Tool == "" {
		return ErrEmptyTaskTool
	}

	if t.Prompt == "" {
		return ErrEmptyTaskPrompt
	}

	if !isValidResultType(t.ResultType) {
		return ErrInvalidResultType
	}

	if !isValidTaskStatus(t.Status) {
		return ErrInvalidTaskStatus
	}

	return nil
}

// UpdateStatus updates the task's status and the UpdatedAt timestamp.
// Returns an error if the new status is invalid.
func (t *Task) UpdateStatus(status TaskStatus) error {
	if !isValidTaskStatus(status) {
		return ErrInvalidTaskStatus
	}

	t.Status = status
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// Snapshot returns a copy of the task without its result history, suitable
// for handing to the execution path. The execution path must never observe
// (or mutate) history it does not own.
func (t *Task) Snapshot() Task {
	snap := *t
	snap.Results = nil
	snap.ReferenceImageIDs = append([]uuid.UUID(nil), t.ReferenceImageIDs...)
	return snap
}

// isValidTaskStatus checks if the given status is a valid TaskStatus.
func isValidTaskStatus(status TaskStatus) bool {
	switch status {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// isValidResultType checks if the given type is a valid ResultType.
func isValidResultType(rt ResultType) bool {
	switch rt {
	case ResultTypeText, ResultTypeImage, ResultTypeVideo, ResultTypeMixed:
		return true
	default:
		return false
	}
}
