package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/avid-platform/avid/internal/collab"
)

// RetryPolicy bounds how many times a formalization call is attempted and
// how the delay between attempts grows.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// errRetryableOutcome signals that the engine answered but the outcome is
// worth another attempt within the budget.
var errRetryableOutcome = errors.New("workflow: retryable outcome")

// Do runs fn under the policy. Transient errors and non-permanent failure
// outcomes consume attempts until the budget is exhausted; a permanent
// error or a response marked permanent stops immediately. Do returns the
// last response received (nil when every attempt errored), the number of
// attempts made, and the last error when no response is available.
func (p RetryPolicy) Do(ctx context.Context, fn func(context.Context) (*collab.FormalizeResponse, error)) (*collab.FormalizeResponse, int, error) {
	budget := p.MaxAttempts
	if budget < 1 {
		budget = 1
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.InitialInterval
	bo.MaxInterval = p.MaxInterval
	bo.MaxElapsedTime = 0

	var (
		attempts int
		last     *collab.FormalizeResponse
		lastErr  error
	)

	op := func() error {
		attempts++
		resp, err := fn(ctx)
		if err != nil {
			last, lastErr = nil, err
			if !collab.Transient(err) {
				return backoff.Permanent(err)
			}
			return err
		}

		last, lastErr = resp, nil
		if resp.Outcome == "VERIFIED" || resp.Permanent {
			return nil
		}
		return errRetryableOutcome
	}

	retryErr := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(budget-1)), ctx))
	if last != nil {
		return last, attempts, nil
	}
	if lastErr != nil {
		return nil, attempts, lastErr
	}
	return nil, attempts, retryErr
}
