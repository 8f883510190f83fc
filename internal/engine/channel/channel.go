// Package channel defines the boundary between the scheduler's context and
// the execution context where the tool page lives. The two sides may share a
// process (Local) or sit across an HTTP hop (Client/Handler); the scheduler
// never sees the difference.
package channel

import (
	"context"
	"errors"

	"github.com/phrazzld/promptq/internal/engine/executor"
)

// ErrUnreachable reports that the execution context did not answer at all.
// It is distinct from an execution failure: the scheduler surfaces it as a
// connectivity problem rather than marking the head task failed.
var ErrUnreachable = errors.New("execution context unreachable")

// Channel is the scheduler's handle on the execution context.
//
// Version: 1.0
type Channel interface {
	// Ping verifies the execution context is alive and listening. A
	// non-nil error wraps ErrUnreachable.
	Ping(ctx context.Context) error

	// Execute runs one request to completion in the execution context and
	// returns its structured outcome. Transport-level delivery failures
	// wrap ErrUnreachable; execution-level failures arrive as a failure
	// outcome with a nil error.
	Execute(ctx context.Context, req *executor.Request) (executor.Outcome, error)

	// Cancel interrupts the in-flight execution, if any. Cancelling an
	// idle execution context is a no-op.
	Cancel(ctx context.Context) error

	// Navigate points the execution context's page at url and waits for
	// the load to settle.
	Navigate(ctx context.Context, url string) error
}
