package fallback

import (
	"context"
	"fmt"
	"time"
)

// Retry runs fn up to attempts times, sleeping wait between failures.
// It returns the first success or the last error annotated with the attempt
// count. Context cancellation interrupts the wait.
func Retry(ctx context.Context, attempts int, wait time.Duration, fn func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if lastErr = fn(ctx); lastErr == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}
