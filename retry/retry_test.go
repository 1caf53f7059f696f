package retry_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nyaws/awsclient/retry"
)

func TestDefaultBackoffFormula(t *testing.T) {
	require.Equal(t, 100*time.Millisecond, retry.DefaultBackoff(0))
	require.Equal(t, 200*time.Millisecond, retry.DefaultBackoff(1))
	require.Equal(t, 400*time.Millisecond, retry.DefaultBackoff(2))
	require.Less(t, retry.DefaultBackoff(3), time.Duration(0))
}

func TestRunRetriesUntilPredicateFalse(t *testing.T) {
	attempts := 0
	result := retry.Run(context.Background(), func(ctx context.Context, attempt int, correlationID string, sink func(retry.Result)) {
		attempts++
		sink(retry.Result{Value: attempt})
	}, func(r retry.Result) bool {
		return r.Value.(int) < 2
	}, func(attempt int) time.Duration { return time.Millisecond })

	require.Equal(t, 2, result.Value)
	require.Equal(t, 3, attempts)
}

func TestRunStopsOnNegativeBackoff(t *testing.T) {
	attempts := 0
	result := retry.Run(context.Background(), func(ctx context.Context, attempt int, correlationID string, sink func(retry.Result)) {
		attempts++
		sink(retry.Result{Value: "retry me"})
	}, func(r retry.Result) bool { return true }, func(attempt int) time.Duration { return -1 })

	require.Equal(t, 1, attempts)
	require.Equal(t, "retry me", result.Value)
}

func TestRunCancelsOnContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := retry.Run(ctx, func(ctx context.Context, attempt int, correlationID string, sink func(retry.Result)) {
		sink(retry.Result{Value: "x"})
	}, func(r retry.Result) bool { return true }, func(attempt int) time.Duration { return time.Hour })

	require.Error(t, result.Err)
}
