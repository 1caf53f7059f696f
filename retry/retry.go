// Package retry runs a non-blocking request function under a
// predicate-driven retry loop with pluggable backoff, cancelable mid-sleep
// via context. Each attempt is tagged with a short correlation id (rs/xid)
// so log lines from the same logical call can be traced across retries.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/nyaws/awsclient/anomaly"
)

// Result is whatever a single attempt produced, paired with the error (if
// any) that Retriable inspects to decide whether to try again.
type Result struct {
	Value interface{}
	Err   error
}

// Func performs one attempt and reports its outcome to sink. It must not
// block past submission; long-running work happens concurrently and sink
// is invoked when it completes.
type Func func(ctx context.Context, attempt int, correlationID string, sink func(Result))

// Retriable decides whether an attempt's result should be retried.
type Retriable func(Result) bool

// Backoff returns how long to wait before the next attempt, or a negative
// duration to stop retrying.
type Backoff func(attempt int) time.Duration

// DefaultBackoff caps a classic exponential backoff at 20 seconds and
// stops after 3 retries (4 attempts in all), matching the control chain's reference policy:
// min(20000, 100*2^attempt) milliseconds for attempt<3, else stop.
func DefaultBackoff(attempt int) time.Duration {
	if attempt >= 3 {
		return -1
	}
	ms := 100 * (1 << uint(attempt))
	if ms > 20000 {
		ms = 20000
	}
	return time.Duration(ms) * time.Millisecond
}

// Run drives fn through attempts until retriable reports false, backoff
// signals stop, or ctx is canceled, returning the final Result. A panic
// escaping fn's synchronous portion is recovered and converted to a
// fault Result rather than crashing the calling goroutine.
func Run(ctx context.Context, fn Func, retriable Retriable, backoff Backoff) Result {
	if backoff == nil {
		backoff = DefaultBackoff
	}
	attempt := 0
	for {
		resultCh := make(chan Result, 1)
		correlationID := xid.New().String()
		func() {
			defer func() {
				if r := recover(); r != nil {
					select {
					case resultCh <- Result{Value: anomaly.AsFault(fmt.Errorf("retry: panic: %v", r))}:
					default:
					}
				}
			}()
			fn(ctx, attempt, correlationID, func(r Result) {
				select {
				case resultCh <- r:
				default:
				}
			})
		}()

		var result Result
		select {
		case result = <-resultCh:
		case <-ctx.Done():
			return Result{Err: ctx.Err()}
		}

		if !retriable(result) {
			return result
		}
		wait := backoff(attempt)
		if wait < 0 {
			return result
		}

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return Result{Err: ctx.Err()}
		}
		attempt++
	}
}
