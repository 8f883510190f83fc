package executor

import (
	"context"
	"sync"

	"github.com/phrazzld/promptq/internal/domain"
	"github.com/phrazzld/promptq/internal/engine/adapter"
)

// MockAdapter implements only the mandatory capability set, recording calls
// in order. Behavior is overridable per method via the Fn fields.
type MockAdapter struct {
	mu    sync.Mutex
	calls []string

	NameValue string
	DetectFn  func(ctx context.Context) (bool, error)
	FillFn    func(ctx context.Context, text string) error
	SendFn    func(ctx context.Context) error
	WaitFn    func(ctx context.Context) error
	ResultFn  func(ctx context.Context, expected domain.ResultType) (*domain.ResultContent, error)
}

var _ adapter.Adapter = (*MockAdapter)(nil)

// NewMockAdapter creates a MockAdapter that detects every page, performs
// every step successfully, and captures a fixed text result.
func NewMockAdapter(name string) *MockAdapter {
	return &MockAdapter{
		NameValue: name,
		DetectFn:  func(ctx context.Context) (bool, error) { return true, nil },
		FillFn:    func(ctx context.Context, text string) error { return nil },
		SendFn:    func(ctx context.Context) error { return nil },
		WaitFn:    func(ctx context.Context) error { return nil },
		ResultFn: func(ctx context.Context, expected domain.ResultType) (*domain.ResultContent, error) {
			content := domain.TextContent("mock result")
			return &content, nil
		},
	}
}

// Calls returns the step names invoked so far, in order.
func (m *MockAdapter) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MockAdapter) record(step string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, step)
}

func (m *MockAdapter) Name() string { return m.NameValue }

func (m *MockAdapter) Detect(ctx context.Context) (bool, error) {
	return m.DetectFn(ctx)
}

func (m *MockAdapter) FillPrompt(ctx context.Context, text string) error {
	m.record("fill_prompt")
	return m.FillFn(ctx, text)
}

func (m *MockAdapter) ClickSend(ctx context.Context) error {
	m.record("click_send")
	return m.SendFn(ctx)
}

func (m *MockAdapter) WaitForCompletion(ctx context.Context) error {
	m.record("wait_for_completion")
	return m.WaitFn(ctx)
}

func (m *MockAdapter) LatestResult(ctx context.Context, expected domain.ResultType) (*domain.ResultContent, error) {
	m.record("latest_result")
	return m.ResultFn(ctx, expected)
}

// MockCapableAdapter extends MockAdapter with every optional capability.
type MockCapableAdapter struct {
	*MockAdapter

	ValidateFn   func(ctx context.Context, task domain.Task) (adapter.Validation, error)
	ClearFn      func(ctx context.Context) error
	FillImagesFn func(ctx context.Context, images [][]byte) error
	ScanFn       func(ctx context.Context) ([]domain.ResultContent, error)
}

var (
	_ adapter.Adapter        = (*MockCapableAdapter)(nil)
	_ adapter.StateValidator = (*MockCapableAdapter)(nil)
	_ adapter.EditorClearer  = (*MockCapableAdapter)(nil)
	_ adapter.ImageFiller    = (*MockCapableAdapter)(nil)
	_ adapter.ResultScanner  = (*MockCapableAdapter)(nil)
)

// NewMockCapableAdapter creates a MockCapableAdapter where every capability
// succeeds and every validation passes.
func NewMockCapableAdapter(name string) *MockCapableAdapter {
	return &MockCapableAdapter{
		MockAdapter: NewMockAdapter(name),
		ValidateFn: func(ctx context.Context, task domain.Task) (adapter.Validation, error) {
			return adapter.Validation{Valid: true}, nil
		},
		ClearFn:      func(ctx context.Context) error { return nil },
		FillImagesFn: func(ctx context.Context, images [][]byte) error { return nil },
		ScanFn: func(ctx context.Context) ([]domain.ResultContent, error) {
			return nil, nil
		},
	}
}

func (m *MockCapableAdapter) ValidateState(ctx context.Context, task domain.Task) (adapter.Validation, error) {
	m.record("validate_state")
	return m.ValidateFn(ctx, task)
}

func (m *MockCapableAdapter) ClearEditor(ctx context.Context) error {
	m.record("clear_editor")
	return m.ClearFn(ctx)
}

func (m *MockCapableAdapter) FillImages(ctx context.Context, images [][]byte) error {
	m.record("fill_images")
	return m.FillImagesFn(ctx, images)
}

func (m *MockCapableAdapter) ScanAllResults(ctx context.Context) ([]domain.ResultContent, error) {
	m.record("scan_all_results")
	return m.ScanFn(ctx)
}
