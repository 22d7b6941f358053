package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExecuteSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	cfg := Config{Stage: "fetch", MaxAttempts: 3, Delay: time.Millisecond}

	got, err := Execute(context.Background(), cfg, func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	})

	require.NoError(t, err)
	require.Equal(t, "ok", got)
	require.Equal(t, 1, calls, "a success must not trigger further attempts")
}

func TestExecuteRetriesUntilSuccess(t *testing.T) {
	calls := 0
	cfg := Config{Stage: "fetch", MaxAttempts: 3, Delay: time.Millisecond}

	got, err := Execute(context.Background(), cfg, func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("flaky")
		}
		return 42, nil
	})

	require.NoError(t, err)
	require.Equal(t, 42, got)
	require.Equal(t, 3, calls)
}

func TestExecuteExhaustsBudget(t *testing.T) {
	calls := 0
	sentinel := errors.New("always down")
	cfg := Config{Stage: "fetch", MaxAttempts: 3, Delay: time.Millisecond}

	_, err := Execute(context.Background(), cfg, func(ctx context.Context) (string, error) {
		calls++
		return "", sentinel
	})

	require.Error(t, err)
	require.Equal(t, 3, calls, "exactly max attempts, never more")
	require.ErrorIs(t, err, sentinel, "the last error must be wrapped")
	require.Contains(t, err.Error(), "fetch")
}

func TestExecuteObserverSeesEveryAttempt(t *testing.T) {
	var observed []int
	var outcomes []bool
	cfg := Config{
		Stage:       "fetch",
		MaxAttempts: 3,
		Delay:       time.Millisecond,
		OnAttempt: func(attempt int, err error) {
			observed = append(observed, attempt)
			outcomes = append(outcomes, err == nil)
		},
	}

	calls := 0
	_, err := Execute(context.Background(), cfg, func(ctx context.Context) (int, error) {
		calls++
		if calls < 2 {
			return 0, errors.New("flaky")
		}
		return 1, nil
	})

	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, observed)
	require.Equal(t, []bool{false, true}, outcomes)
}

func TestExecuteRejectsZeroAttempts(t *testing.T) {
	cfg := Config{Stage: "fetch", MaxAttempts: 0}

	_, err := Execute(context.Background(), cfg, func(ctx context.Context) (int, error) {
		t.Fatal("op must not run with an invalid budget")
		return 0, nil
	})

	require.Error(t, err)
}

func TestExecuteStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	cfg := Config{Stage: "fetch", MaxAttempts: 5, Delay: time.Minute}

	_, err := Execute(ctx, cfg, func(ctx context.Context) (int, error) {
		calls++
		cancel()
		return 0, errors.New("down")
	})

	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls, "cancellation during the delay must stop further attempts")
}
