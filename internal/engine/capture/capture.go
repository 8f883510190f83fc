package capture

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/phrazzld/promptq/internal/domain"
	"github.com/phrazzld/promptq/internal/engine/executor"
	"github.com/phrazzld/promptq/internal/events"
	"github.com/phrazzld/promptq/internal/store"
)

// MediaCacheRequestedPayload is the payload of EventMediaCacheRequested.
type MediaCacheRequestedPayload struct {
	TaskID   uuid.UUID `json:"task_id"`
	ResultID uuid.UUID `json:"result_id"`
	URLs     []string  `json:"urls"`
}

// Service persists execution outcomes.
type Service struct {
	tasks   store.TaskStore
	emitter events.Emitter
	logger  *slog.Logger
}

// NewService creates a capture Service. emitter may be nil, in which case
// media caching is skipped entirely.
func NewService(tasks store.TaskStore, emitter events.Emitter, logger *slog.Logger) *Service {
	return &Service{
		tasks:   tasks,
		emitter: emitter,
		logger:  logger.With("component", "capture"),
	}
}

// Record maps one outcome onto the task record. The returned status is the
// task's persisted status after the write.
func (s *Service) Record(ctx context.Context, task *domain.Task, outcome executor.Outcome) (domain.TaskStatus, error) {
	log := s.logger.With("task_id", task.ID, "outcome", outcome.Status)

	switch outcome.Status {
	case executor.OutcomeSuccess:
		// Fill-only runs succeed without producing a result.
		if outcome.Result == nil {
			if err := s.tasks.UpdateTask(ctx, task.ID, store.StatusUpdate(domain.TaskStatusCompleted)); err != nil {
				return task.Status, fmt.Errorf("mark task completed: %w", err)
			}
			return domain.TaskStatusCompleted, nil
		}
		if err := s.recordSuccess(ctx, task, *outcome.Result); err != nil {
			return task.Status, err
		}
		return domain.TaskStatusCompleted, nil

	case executor.OutcomeFailure:
		if err := s.tasks.UpdateTask(ctx, task.ID, store.FailureUpdate(outcome.Reason)); err != nil {
			return task.Status, fmt.Errorf("mark task failed: %w", err)
		}
		log.Info("task failed", "reason", outcome.Reason)
		return domain.TaskStatusFailed, nil

	case executor.OutcomeRedirect, executor.OutcomeCancelled:
		// Not terminal for the task: it stays pending for the next attempt.
		if err := s.tasks.UpdateTask(ctx, task.ID, store.StatusUpdate(domain.TaskStatusPending)); err != nil {
			return task.Status, fmt.Errorf("return task to pending: %w", err)
		}
		return domain.TaskStatusPending, nil

	default:
		return task.Status, fmt.Errorf("unknown outcome status %q", outcome.Status)
	}
}

func (s *Service) recordSuccess(ctx context.Context, task *domain.Task, content domain.ResultContent) error {
	result, err := domain.NewTaskResult(task.ID, content)
	if err != nil {
		return fmt.Errorf("build task result: %w", err)
	}

	if err := s.tasks.AppendResult(ctx, result); err != nil {
		return fmt.Errorf("append result: %w", err)
	}
	s.logger.Info("result captured",
		"task_id", task.ID,
		"result_id", result.ID,
		"kind", content.Kind)

	urls := content.RemoteURLs()
	if s.emitter == nil || len(urls) == 0 {
		return nil
	}

	event, err := events.NewEvent(events.EventMediaCacheRequested, MediaCacheRequestedPayload{
		TaskID:   task.ID,
		ResultID: result.ID,
		URLs:     urls,
	})
	if err != nil {
		s.logger.Warn("failed to build media cache event", "error", err)
		return nil
	}
	// Best-effort: a caching failure must not fail the capture.
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		s.logger.Warn("media cache event failed",
			"task_id", task.ID,
			"result_id", result.ID,
			"error", err)
	}
	return nil
}
