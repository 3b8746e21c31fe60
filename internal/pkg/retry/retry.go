// Package retry provides exponential backoff for start-up connections.
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// MaxBackoff caps the delay between two attempts.
const MaxBackoff = 16 * time.Second

// Do calls fn until it succeeds, the attempts are exhausted or ctx is done.
// The delay doubles after every failure starting at one second.
func Do(ctx context.Context, attempts int, what string, fn func(ctx context.Context) error) error {
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			slog.Info("connected", "target", what, "attempts", attempt)
			return nil
		}

		if attempt == attempts {
			break
		}

		backoff := Backoff(attempt)
		slog.Warn("connection failed, retrying",
			"target", what,
			"attempt", attempt,
			"max_attempts", attempts,
			"backoff", backoff,
			"error", lastErr,
		)
		if !sleep(ctx, backoff) {
			return fmt.Errorf("connect to %s cancelled: %w", what, ctx.Err())
		}
	}

	return fmt.Errorf("connect to %s after %d attempts: %w", what, attempts, lastErr)
}

// Backoff returns exponential backoff duration for attempt (1-based) capped at MaxBackoff.
func Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 5 {
		return MaxBackoff
	}
	backoff := time.Duration(1<<(attempt-1)) * time.Second
	if backoff > MaxBackoff {
		backoff = MaxBackoff
	}
	return backoff
}

// sleep waits for duration or context cancellation. Returns false if cancelled.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
