package llmclient

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/sharoA/document-analyzer-sub000/internal/errs"
)

// RetryPolicy configures the exponential backoff every retrying caller in
// this module (chunk analysis in C4, step calls in C5) shares.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy matches the spec's chunk-retry and LLM-call budgets:
// up to 3 attempts, exponential backoff based at 2s and capped at 8s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 2 * time.Second, MaxDelay: 8 * time.Second}
}

// CallWithRetry runs fn up to policy.MaxAttempts times, retrying only on
// errs.KindTransient failures per component retry policy, with exponential
// backoff bounded by policy.BaseDelay/MaxDelay. Non-transient errors return
// immediately without consuming further attempts.
func CallWithRetry(ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) (string, error)) (string, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = policy.BaseDelay
	b.MaxInterval = policy.MaxDelay
	b.Multiplier = 2
	bo := backoff.WithMaxRetries(b, uint64(policy.MaxAttempts-1))
	bo = backoff.WithContext(bo, ctx)

	var (
		result  string
		lastErr error
	)
	err := backoff.Retry(func() error {
		var err error
		result, err = fn(ctx)
		lastErr = err
		if err == nil {
			return nil
		}
		if errs.KindOf(err) == errs.KindTransient {
			return err
		}
		return backoff.Permanent(err)
	}, bo)

	if err != nil {
		if lastErr != nil {
			return "", lastErr
		}
		return "", err
	}
	return result, nil
}
