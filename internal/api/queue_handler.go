package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/phrazzld/promptq/internal/api/shared"
	"github.com/phrazzld/promptq/internal/domain"
	"github.com/phrazzld/promptq/internal/engine/scheduler"
	"github.com/phrazzld/promptq/internal/store"
)

// QueueController is the scheduler surface the queue endpoints need.
// Satisfied by *scheduler.Scheduler.
//
// Version: 1.0
type QueueController interface {
	RunAll(ids []uuid.UUID) error
	RunSingle(id uuid.UUID, fillOnly bool) error
	Stop(ctx context.Context) error
	Snapshot() scheduler.Snapshot
	SetPolicy(p scheduler.Policy)
	Policy() scheduler.Policy
}

// Scanner collects the results already visible on the connected page.
// Satisfied by channel implementations that support bulk import.
//
// Version: 1.0
type Scanner interface {
	Scan(ctx context.Context) ([]domain.ResultContent, error)
}

// QueueHandler handles queue control API requests: starting and stopping
// runs, policy updates, state inspection, and page scans for bulk import.
type QueueHandler struct {
	queue     QueueController
	scanner   Scanner
	taskStore store.TaskStore
	validator *validator.Validate
	logger    *slog.Logger
}

// NewQueueHandler creates a new QueueHandler with the given dependencies.
// scanner may be nil when the configured channel does not support scanning.
func NewQueueHandler(
	queue QueueController,
	scanner Scanner,
	taskStore store.TaskStore,
	logger *slog.Logger,
) *QueueHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueueHandler{
		queue:     queue,
		scanner:   scanner,
		taskStore: taskStore,
		validator: validator.New(),
		logger:    logger.With(slog.String("component", "queue_handler")),
	}
}

// Run handles POST /queue/run. It starts a run over the given task IDs.
func (h *QueueHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req RunRequest

	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	if err := h.queue.RunAll(req.IDs); err != nil {
		handleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, h.queue.Snapshot())
}

// RunSingle handles POST /queue/run-single. It runs one task, optionally in
// fill-only mode where the prompt is staged but never sent.
func (h *QueueHandler) RunSingle(w http.ResponseWriter, r *http.Request) {
	var req RunSingleRequest

	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	if err := h.queue.RunSingle(req.ID, req.FillOnly); err != nil {
		handleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, h.queue.Snapshot())
}

// Stop handles POST /queue/stop. The in-flight task is interrupted and no
// further tasks start; the stop is acknowledged immediately.
func (h *QueueHandler) Stop(w http.ResponseWriter, r *http.Request) {
	if err := h.queue.Stop(r.Context()); err != nil {
		handleAPIError(w, r, err, "Failed to stop run")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, h.queue.Snapshot())
}

// State handles GET /queue/state.
func (h *QueueHandler) State(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, QueueStateResponse{Snapshot: h.queue.Snapshot()})
}

// GetPolicy handles GET /queue/policy.
func (h *QueueHandler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, h.queue.Policy())
}

// UpdatePolicy handles PUT /queue/policy.
func (h *QueueHandler) UpdatePolicy(w http.ResponseWriter, r *http.Request) {
	var req PolicyRequest

	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	h.queue.SetPolicy(scheduler.Policy{
		AutoAdvance:    req.AutoAdvance,
		RetryOnFailure: req.RetryOnFailure,
	})

	shared.RespondWithJSON(w, r, http.StatusOK, h.queue.Policy())
}

// Scan handles POST /queue/scan. It collects every result visible on the
// connected page and imports each one as a completed task carrying that
// result. Used to backfill work that happened outside the engine.
func (h *QueueHandler) Scan(w http.ResponseWriter, r *http.Request) {
	if h.scanner == nil {
		shared.RespondWithError(w, r, http.StatusNotImplemented, "Connected channel does not support scanning")
		return
	}

	var req ScanRequest

	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	contents, err := h.scanner.Scan(r.Context())
	if err != nil {
		handleAPIError(w, r, err, "Failed to scan page")
		return
	}

	prompt := req.Prompt
	if prompt == "" {
		prompt = "(imported from page scan)"
	}

	imported := make([]*domain.Task, 0, len(contents))
	for _, content := range contents {
		task, err := domain.NewTask(req.Tool, prompt, resultTypeFor(content.Kind), nil)
		if err != nil {
			handleAPIError(w, r, err, "Failed to import scanned result")
			return
		}

		if err := h.taskStore.CreateTask(r.Context(), task); err != nil {
			handleAPIError(w, r, err, "Failed to import scanned result")
			return
		}

		result, err := domain.NewTaskResult(task.ID, content)
		if err != nil {
			h.logger.Warn("skipping invalid scanned result",
				slog.String("task_id", task.ID.String()),
				slog.String("error", err.Error()))
			continue
		}

		if err := h.taskStore.AppendResult(r.Context(), result); err != nil {
			handleAPIError(w, r, err, "Failed to import scanned result")
			return
		}

		task, err = h.taskStore.GetTask(r.Context(), task.ID)
		if err != nil {
			handleAPIError(w, r, err, "Failed to import scanned result")
			return
		}
		imported = append(imported, task)
	}

	h.logger.Info("page scan imported results", slog.Int("count", len(imported)))
	shared.RespondWithJSON(w, r, http.StatusCreated, ScanResponse{Imported: imported})
}

// resultTypeFor maps a scanned content kind to the task result type it
// fulfills.
func resultTypeFor(kind domain.ResultKind) domain.ResultType {
	switch kind {
	case domain.ResultKindText:
		return domain.ResultTypeText
	case domain.ResultKindImage:
		return domain.ResultTypeImage
	case domain.ResultKindVideo:
		return domain.ResultTypeVideo
	default:
		return domain.ResultTypeMixed
	}
}
