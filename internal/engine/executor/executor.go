// Package executor drives one adapter through the fixed execution step
// sequence for a single task invocation. It owns no side effects of its own:
// DOM mutation and network reads are confined to the adapter, the executor
// only sequences steps, enforces cancellation checkpoints, and turns adapter
// failures into structured outcomes.
package executor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/phrazzld/promptq/internal/domain"
	"github.com/phrazzld/promptq/internal/engine/adapter"
)

// OutcomeStatus discriminates the result of one execution run.
type OutcomeStatus string

// Possible outcome statuses
const (
	OutcomeSuccess   OutcomeStatus = "success"
	OutcomeFailure   OutcomeStatus = "failure"
	OutcomeRedirect  OutcomeStatus = "redirect"
	OutcomeCancelled OutcomeStatus = "cancelled"
)

// Request is the transient, non-persisted unit handed to the executor: a
// task snapshot, the resolved reference-image payloads, and the fill-only
// flag (populate inputs but skip submission, for manual review).
type Request struct {
	Task     domain.Task `json:"task"`
	Images   [][]byte    `json:"images,omitempty"`
	FillOnly bool        `json:"fill_only,omitempty"`
}

// Outcome is the transient result of one execution run.
type Outcome struct {
	Status      OutcomeStatus         `json:"status"`
	Result      *domain.ResultContent `json:"result,omitempty"`
	RedirectURL string                `json:"redirect_url,omitempty"`
	Reason      string                `json:"reason,omitempty"`
}

// Success builds a success outcome. A nil result is legal for fill-only runs.
func Success(result *domain.ResultContent) Outcome {
	return Outcome{Status: OutcomeSuccess, Result: result}
}

// Failure builds a failure outcome carrying the human-readable reason.
func Failure(reason string) Outcome {
	return Outcome{Status: OutcomeFailure, Reason: reason}
}

// Redirect builds a redirect-required outcome: the page must be navigated to
// the target URL and the task retried. Not a failure.
func Redirect(url, reason string) Outcome {
	return Outcome{Status: OutcomeRedirect, RedirectURL: url, Reason: reason}
}

// Cancelled builds a cancelled outcome.
func Cancelled() Outcome {
	return Outcome{Status: OutcomeCancelled}
}

// Executor runs execution requests against whichever adapter claims the
// current page.
type Executor struct {
	registry     *adapter.Registry
	submitSettle time.Duration
	logger       *slog.Logger
}

// New creates an Executor. submitSettle bridges the gap between submission
// being accepted and the page's generation-in-progress indicator appearing.
func New(registry *adapter.Registry, submitSettle time.Duration, logger *slog.Logger) *Executor {
	return &Executor{
		registry:     registry,
		submitSettle: submitSettle,
		logger:       logger.With("component", "executor"),
	}
}

// Execute drives one adapter through the fixed step sequence and returns a
// structured outcome. Every step is gated by a cancellation check; a step
// error becomes a failure outcome with the message preserved for display.
func (e *Executor) Execute(ctx context.Context, req *Request) Outcome {
	log := e.logger.With("task_id", req.Task.ID, "tool", req.Task.Tool)

	if ctx.Err() != nil {
		return Cancelled()
	}

	a, ok, err := e.registry.Select(ctx)
	if err != nil {
		return e.stepOutcome("detect", err)
	}
	if !ok {
		return Failure("no adapter for this page")
	}
	log = log.With("adapter", a.Name())

	if validator, ok := a.(adapter.StateValidator); ok {
		if ctx.Err() != nil {
			return Cancelled()
		}
		v, err := validator.ValidateState(ctx, req.Task)
		if err != nil {
			return e.stepOutcome("validate_state", err)
		}
		if !v.Valid {
			if v.RedirectURL == "" {
				return Failure(v.Reason)
			}
			log.Info("page in wrong mode, redirect required", "redirect_url", v.RedirectURL)
			return Redirect(v.RedirectURL, v.Reason)
		}
	}

	if clearer, ok := a.(adapter.EditorClearer); ok {
		if ctx.Err() != nil {
			return Cancelled()
		}
		if err := clearer.ClearEditor(ctx); err != nil {
			return e.stepOutcome("clear_editor", err)
		}
	}

	if filler, ok := a.(adapter.ImageFiller); ok && len(req.Images) > 0 {
		if ctx.Err() != nil {
			return Cancelled()
		}
		if err := filler.FillImages(ctx, req.Images); err != nil {
			return e.stepOutcome("fill_images", err)
		}
	}

	if ctx.Err() != nil {
		return Cancelled()
	}
	if err := a.FillPrompt(ctx, req.Task.Prompt); err != nil {
		return e.stepOutcome("fill_prompt", err)
	}

	if req.FillOnly {
		log.Info("fill-only run complete, skipping submit")
		return Success(nil)
	}

	if ctx.Err() != nil {
		return Cancelled()
	}
	if err := a.ClickSend(ctx); err != nil {
		return e.stepOutcome("click_send", err)
	}

	if err := e.settle(ctx); err != nil {
		return Cancelled()
	}

	if err := a.WaitForCompletion(ctx); err != nil {
		return e.stepOutcome("wait_for_completion", err)
	}

	if ctx.Err() != nil {
		return Cancelled()
	}
	result, err := a.LatestResult(ctx, req.Task.ResultType)
	if err != nil {
		return e.stepOutcome("latest_result", err)
	}

	log.Info("execution complete", "result_kind", result.Kind)
	return Success(result)
}

// Scan sweeps the current page for every previously generated artifact.
// Returns an error when no adapter claims the page or the claiming adapter
// cannot scan.
func (e *Executor) Scan(ctx context.Context) ([]domain.ResultContent, error) {
	a, ok, err := e.registry.Select(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New("no adapter for this page")
	}
	scanner, ok := a.(adapter.ResultScanner)
	if !ok {
		return nil, errors.New(a.Name() + " does not support result scanning")
	}
	return scanner.ScanAllResults(ctx)
}

// stepOutcome converts a step error into an outcome, distinguishing
// cooperative cancellation from genuine step failures.
func (e *Executor) stepOutcome(step string, err error) Outcome {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		e.logger.Info("execution cancelled", "step", step)
		return Cancelled()
	}
	e.logger.Warn("execution step failed", "step", step, "error", err)
	return Failure(step + ": " + err.Error())
}

func (e *Executor) settle(ctx context.Context) error {
	if e.submitSettle <= 0 {
		return nil
	}
	timer := time.NewTimer(e.submitSettle)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
