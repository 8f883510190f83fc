package api

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/phrazzld/promptq/internal/api/shared"
	"github.com/phrazzld/promptq/internal/domain"
	"github.com/phrazzld/promptq/internal/store"
)

// TaskHandler handles task CRUD API requests.
type TaskHandler struct {
	taskStore store.TaskStore
	validator *validator.Validate
	logger    *slog.Logger
}

// NewTaskHandler creates a new TaskHandler with the given dependencies.
func NewTaskHandler(taskStore store.TaskStore, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		taskStore: taskStore,
		validator: validator.New(),
		logger:    logger.With(slog.String("component", "task_handler")),
	}
}

// Create handles POST /tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest

	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	task, err := domain.NewTask(req.Tool, req.Prompt, domain.ResultType(req.ResultType), req.ReferenceImageIDs)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task data: "+err.Error())
		return
	}

	if err := h.taskStore.CreateTask(r.Context(), task); err != nil {
		handleAPIError(w, r, err, "Failed to create task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, task)
}

// List handles GET /tasks.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.taskStore.ListTasks(r.Context())
	if err != nil {
		handleAPIError(w, r, err, "Failed to list tasks")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskListResponse{Tasks: tasks})
}

// Get handles GET /tasks/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		handleAPIError(w, r, err, "")
		return
	}

	task, err := h.taskStore.GetTask(r.Context(), id)
	if err != nil {
		handleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, task)
}
