package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

var timeoutLogger = slog.Default().With("component", "resilience-timeout")

// WithTimeout runs fn with a derived context that is cancelled after the
// given timeout. If the function does not complete in time,
// context.DeadlineExceeded is returned. Unlike the sibling retry and
// circuit-breaker primitives in this package, a bare timeout has no other
// observable effect, so it logs the one event worth knowing about: that the
// bound was actually hit.
func WithTimeout(ctx context.Context, timeout time.Duration, name string, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- fn(timeoutCtx)
	}()
	select {
	case err := <-done:
		return err
	case <-timeoutCtx.Done():
		if ctx.Err() != nil {
			return fmt.Errorf("%s: parent context cancelled: %w", name, ctx.Err())
		}
		timeoutLogger.Warn("call exceeded timeout", "name", name, "timeout", timeout)
		return fmt.Errorf("%s: %w (limit: %v)", name, context.DeadlineExceeded, timeout)
	}
}
