// Package adapter implements the per-tool automation capability set. Each
// adapter owns every piece of tool-specific page knowledge (origins,
// selectors, timing quirks) so the rest of the engine stays tool-agnostic.
package adapter

import (
	"context"
	"errors"
	"time"

	"github.com/phrazzld/promptq/internal/domain"
)

// Common adapter errors.
var (
	// ErrCompletionTimeout is returned by WaitForCompletion in strict mode
	// when the safety deadline elapses without the page's busy indicators
	// clearing.
	ErrCompletionTimeout = errors.New("completion wait deadline elapsed")

	// ErrNoResult is returned by LatestResult when the page holds no
	// artifact to capture.
	ErrNoResult = errors.New("no result found on page")
)

// Adapter is the mandatory capability set over one external tool's page:
// one generation round-trip plus result read-back. Optional capabilities
// (state validation, editor clearing, image injection, full-page scanning)
// are separate interfaces detected at runtime via type assertion.
// Version: 1.0
type Adapter interface {
	// Name identifies the tool the adapter drives (matches Task.Tool).
	Name() string

	// Detect reports whether the current page belongs to this tool.
	// Detection keys on the page origin, so at most one registered adapter
	// detects any given page.
	Detect(ctx context.Context) (bool, error)

	// FillPrompt writes prompt text into the tool's input surface,
	// synthesizing the native change/input signals the page's framework
	// expects.
	FillPrompt(ctx context.Context, text string) error

	// ClickSend triggers submission.
	ClickSend(ctx context.Context) error

	// WaitForCompletion polls until the page's generation-in-progress
	// indicators clear. It observes ctx cancellation on every poll tick and
	// is bounded by a safety deadline; see Config.StrictCompletion for what
	// an elapsed deadline means.
	WaitForCompletion(ctx context.Context) error

	// LatestResult reads the most recently produced artifact and normalizes
	// it, preferring the expected type when the page can produce more than
	// one kind, and falling back to whatever was actually produced. It is
	// idempotent: callers may invoke it after WaitForCompletion returned by
	// either genuine completion or deadline fallthrough.
	LatestResult(ctx context.Context, expected domain.ResultType) (*domain.ResultContent, error)
}

// Validation is the outcome of a state check: either the page is in a mode
// compatible with the task, or it is not and RedirectURL (when non-empty)
// names the corrective location.
type Validation struct {
	Valid       bool
	RedirectURL string
	Reason      string
}

// StateValidator is the optional capability of confirming the page is in a
// mode compatible with the task's expected result type before filling it.
type StateValidator interface {
	ValidateState(ctx context.Context, task domain.Task) (Validation, error)
}

// EditorClearer is the optional capability of resetting pre-existing input
// state (previous prompt text, previously attached images) so earlier runs
// cannot contaminate this one.
type EditorClearer interface {
	ClearEditor(ctx context.Context) error
}

// ImageFiller is the optional capability of injecting reference images into
// the tool's upload mechanism. Payloads are injected sequentially with
// settling delays between each; concurrent injection is unreliable on
// reactive UIs.
type ImageFiller interface {
	FillImages(ctx context.Context, images [][]byte) error
}

// ResultScanner is the optional capability of sweeping the whole page for
// every previously generated artifact, used for bulk import rather than
// single-shot execution.
type ResultScanner interface {
	ScanAllResults(ctx context.Context) ([]domain.ResultContent, error)
}

// Config carries the timing policy shared by all adapters.
type Config struct {
	// PollInterval is the tick interval for completion polling.
	PollInterval time.Duration

	// CompletionTimeout is the safety deadline on completion polling.
	CompletionTimeout time.Duration

	// StrictCompletion controls what an elapsed deadline means: false (the
	// historical behavior) treats it as completion, true reports
	// ErrCompletionTimeout.
	StrictCompletion bool

	// ImageSettle is the pause between sequential image injections.
	ImageSettle time.Duration
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		PollInterval:      time.Second,
		CompletionTimeout: 5 * time.Minute,
		StrictCompletion:  false,
		ImageSettle:       500 * time.Millisecond,
	}
}
