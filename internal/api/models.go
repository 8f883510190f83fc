package api

import (
	"github.com/google/uuid"

	"github.com/phrazzld/promptq/internal/domain"
	"github.com/phrazzld/promptq/internal/engine/scheduler"
)

// Common request/response structures

// TokenRequest defines the payload for the token issuance endpoint.
type TokenRequest struct {
	APIKey string `json:"api_key" validate:"required"`
}

// TokenResponse defines the successful response for the token endpoint.
type TokenResponse struct {
	// AccessToken is the JWT token used for API authorization
	AccessToken string `json:"token"`
}

// CreateTaskRequest defines the payload for creating a task.
type CreateTaskRequest struct {
	Tool              string      `json:"tool"                          validate:"required"`
	Prompt            string      `json:"prompt"                        validate:"required"`
	ResultType        string      `json:"result_type"                   validate:"required,oneof=text image video mixed"`
	ReferenceImageIDs []uuid.UUID `json:"reference_image_ids,omitempty"`
}

// TaskListResponse wraps the task collection.
type TaskListResponse struct {
	Tasks []*domain.Task `json:"tasks"`
}

// RunRequest defines the payload for starting a queue run.
type RunRequest struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1"`
}

// RunSingleRequest defines the payload for running one task.
type RunSingleRequest struct {
	ID       uuid.UUID `json:"id"                  validate:"required"`
	FillOnly bool      `json:"fill_only,omitempty"`
}

// PolicyRequest updates the scheduler policy toggles.
type PolicyRequest struct {
	AutoAdvance    bool `json:"auto_advance"`
	RetryOnFailure bool `json:"retry_on_failure"`
}

// QueueStateResponse is the observable scheduler state.
type QueueStateResponse struct {
	scheduler.Snapshot
}

// ScanRequest defines the payload for a bulk-import page scan.
type ScanRequest struct {
	Tool   string `json:"tool"             validate:"required"`
	Prompt string `json:"prompt,omitempty"`
}

// ScanResponse lists the tasks created from a page scan.
type ScanResponse struct {
	Imported []*domain.Task `json:"imported"`
}

// UploadResponse carries the cache handle of an uploaded reference image.
type UploadResponse struct {
	Handle uuid.UUID `json:"handle"`
}
