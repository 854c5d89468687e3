// Package fallback implements the ordered-fallback chunk processing contract:
// invoke backends in preference order, record every attempt, and either
// return the first success or an aggregate error once the list is exhausted.
package fallback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-multierror"

	"github.com/vasha-ai/vasha/internal/metrics"
)

// ErrNoBackends is returned when the preference list is empty.
var ErrNoBackends = errors.New("no backends available")

// Attempt records one fallback step. Ephemeral: kept for logging and
// metrics, never persisted.
type Attempt struct {
	Backend string
	Err     error
}

// Failed reports whether this attempt errored.
func (a Attempt) Failed() bool {
	return a.Err != nil
}

// Run walks backends in order, invoking fn for each until one succeeds.
// Every step is recorded as an Attempt. When the whole list fails the
// returned error aggregates all per-backend errors; the caller decides
// whether that exhausts the chunk (placeholder result) or the stage.
func Run[T any](ctx context.Context, stage string, backends []string, fn func(ctx context.Context, backend string) (T, error)) (T, string, []Attempt, error) {
	var zero T
	if len(backends) == 0 {
		return zero, "", nil, ErrNoBackends
	}

	attempts := make([]Attempt, 0, len(backends))
	var errs *multierror.Error
	for _, id := range backends {
		if err := ctx.Err(); err != nil {
			return zero, "", attempts, err
		}

		res, err := fn(ctx, id)
		attempts = append(attempts, Attempt{Backend: id, Err: err})
		metrics.RecordAttempt(stage, id, err)
		if err == nil {
			return res, id, attempts, nil
		}

		slog.Warn("backend attempt failed",
			slog.String("stage", stage),
			slog.String("backend", id),
			slog.String("err", err.Error()))
		errs = multierror.Append(errs, fmt.Errorf("%s: %w", id, err))
	}

	return zero, "", attempts, fmt.Errorf("all %s backends failed: %w", stage, errs.ErrorOrNil())
}
