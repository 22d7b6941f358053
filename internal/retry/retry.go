// Package retry provides the bounded-retry wrapper every fetch/validate gate
// in the pipeline runs under.
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Config bounds one call site. Delay is fixed per call site, not backed off:
// the budget is attempts x delay, there is no per-attempt wall clock.
type Config struct {
	Stage       string
	MaxAttempts int
	Delay       time.Duration

	// OnAttempt, when set, observes every attempt's outcome (nil err means
	// success). Used to journal attempts; errors in the observer are the
	// observer's problem, not the pipeline's.
	OnAttempt func(attempt int, err error)
}

func (c Config) validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("retry %s: max attempts must be >= 1, got %d", c.Stage, c.MaxAttempts)
	}
	return nil
}

// Execute calls op up to cfg.MaxAttempts times, sleeping cfg.Delay between
// attempts. The first success wins. An attempt fails when op returns an
// error; callers fold their validation gate into op so a failed gate
// re-runs the whole fetch. Exhausting the budget returns the last error
// wrapped with the stage name, which the orchestrator treats as terminal.
//
// Every attempt emits a diagnostic log record. That is observability only,
// never control flow.
func Execute[T any](ctx context.Context, cfg Config, op func(context.Context) (T, error)) (T, error) {
	var zero T

	if err := cfg.validate(); err != nil {
		return zero, err
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		result, err := op(ctx)
		if cfg.OnAttempt != nil {
			cfg.OnAttempt(attempt, err)
		}
		if err == nil {
			slog.Debug("stage attempt succeeded",
				"stage", cfg.Stage, "attempt", attempt, "max_attempts", cfg.MaxAttempts)
			return result, nil
		}

		lastErr = err
		slog.Warn("stage attempt failed",
			"stage", cfg.Stage, "attempt", attempt, "max_attempts", cfg.MaxAttempts, "reason", err)

		if attempt == cfg.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(cfg.Delay):
		}
	}

	return zero, fmt.Errorf("stage %s: max attempts (%d) exhausted: %w", cfg.Stage, cfg.MaxAttempts, lastErr)
}
