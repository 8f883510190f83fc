package adapter

import (
	"context"
	"time"
)

// awaitIndicatorClear polls busy until it reports false, checking ctx
// cancellation on every tick. When the safety deadline elapses first, the
// result depends on cfg.StrictCompletion: nil (treated as complete) or
// ErrCompletionTimeout.
func awaitIndicatorClear(ctx context.Context, cfg Config, busy func(context.Context) (bool, error)) error {
	deadline := time.NewTimer(cfg.CompletionTimeout)
	defer deadline.Stop()

	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	for {
		stillBusy, err := busy(ctx)
		if err != nil {
			return err
		}
		if !stillBusy {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			if cfg.StrictCompletion {
				return ErrCompletionTimeout
			}
			return nil
		case <-ticker.C:
		}
	}
}

// settle sleeps for the given duration, returning early if ctx is cancelled.
func settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
