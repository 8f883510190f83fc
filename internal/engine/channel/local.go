package channel

import (
	"context"
	"log/slog"
	"sync"

	"github.com/phrazzld/promptq/internal/domain"
	"github.com/phrazzld/promptq/internal/engine/executor"
	"github.com/phrazzld/promptq/internal/engine/page"
)

// Local runs the executor in the scheduler's own process. Used when the
// page driver and the queue share a runtime; also the backing for the HTTP
// Handler on the execution-context side.
type Local struct {
	executor *executor.Executor
	page     page.Page
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

var _ Channel = (*Local)(nil)

// NewLocal creates a Local channel around an executor and its page.
func NewLocal(exec *executor.Executor, p page.Page, logger *slog.Logger) *Local {
	return &Local{
		executor: exec,
		page:     p,
		logger:   logger.With("component", "local_channel"),
	}
}

// Ping always succeeds: an in-process execution context is reachable by
// construction.
func (l *Local) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Execute runs the request on the in-process executor. Only one execution
// runs at a time; Cancel interrupts it.
func (l *Local) Execute(ctx context.Context, req *executor.Request) (executor.Outcome, error) {
	runCtx, cancel := context.WithCancel(ctx)

	l.mu.Lock()
	if l.cancel != nil {
		l.mu.Unlock()
		cancel()
		return executor.Failure("execution already in progress"), nil
	}
	l.cancel = cancel
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.cancel = nil
		l.mu.Unlock()
		cancel()
	}()

	return l.executor.Execute(runCtx, req), nil
}

// Cancel interrupts the in-flight execution, if any.
func (l *Local) Cancel(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.logger.Info("cancelling in-flight execution")
		l.cancel()
	}
	return nil
}

// Navigate points the page at url.
func (l *Local) Navigate(ctx context.Context, url string) error {
	return l.page.Navigate(ctx, url)
}

// Scan sweeps the current page for previously generated artifacts. Exposed
// beyond the Channel interface for the bulk-import API.
func (l *Local) Scan(ctx context.Context) ([]domain.ResultContent, error) {
	return l.executor.Scan(ctx)
}
