package policy

import (
	"context"
	"time"

	"github.com/arloliu/helix/types"
)

// Retrier orchestrates retry attempts with backoff and error classification.
//
// Thread safety: a Retrier is safe for concurrent use through Execute.
// WithOnRetry returns a NEW instance with the callback configured, so each
// caller can attach its own hook without shared state; the original Retrier
// remains unchanged.
type Retrier struct {
	classifier Classifier
	strategy   BackoffStrategy
	onRetry    func(attempt int, err error, delay time.Duration)
}

// NewRetrier creates a retry executor from a classifier and a backoff
// strategy. Panics if either is nil.
//
// Parameters:
//   - classifier: Decides which failures are transient
//   - strategy: Schedules the wait between attempts and bounds the budget
//
// Returns:
//   - *Retrier: A new retry executor
func NewRetrier(classifier Classifier, strategy BackoffStrategy) *Retrier {
	if classifier == nil {
		panic("policy: classifier cannot be nil")
	}
	if strategy == nil {
		panic("policy: backoff strategy cannot be nil")
	}

	return &Retrier{
		classifier: classifier,
		strategy:   strategy,
	}
}

// WithOnRetry returns a new Retrier that invokes the callback before each
// retry wait. The receiver is not modified.
//
// Parameters:
//   - callback: Invoked with the failed attempt number (1-based), the
//     failure, and the upcoming wait
//
// Returns:
//   - *Retrier: A new executor with the callback attached
func (r *Retrier) WithOnRetry(callback func(attempt int, err error, delay time.Duration)) *Retrier {
	clone := *r
	clone.onRetry = callback

	return &clone
}

// Classifier returns the classifier the executor consults.
func (r *Retrier) Classifier() Classifier {
	return r.classifier
}

// Execute runs the operation under the retry policy.
//
// The operation is attempted once, then retried while failures classify as
// transient and the attempt budget allows. Permanent and unknown failures
// return immediately. A spent budget returns *types.RetryExhaustedError
// wrapping the last failure. Context cancellation aborts the backoff wait
// and returns ctx.Err().
//
// Parameters:
//   - ctx: Context bounding all attempts and waits
//   - operation: The work to attempt; must be safe to invoke repeatedly
//
// Returns:
//   - error: nil on success, the permanent failure, ctx.Err(), or
//     *types.RetryExhaustedError
func (r *Retrier) Execute(ctx context.Context, operation func(ctx context.Context) error) error {
	start := time.Now()
	maxAttempts := r.strategy.MaxAttempts()

	var lastErr error
	for attempt := 1; ; attempt++ {
		lastErr = operation(ctx)
		if lastErr == nil {
			return nil
		}

		if r.classifier.Classify(lastErr) != types.ClassTransient {
			return lastErr
		}

		if maxAttempts > 0 && attempt >= maxAttempts {
			return &types.RetryExhaustedError{
				Attempts: attempt,
				Elapsed:  time.Since(start),
				LastErr:  lastErr,
			}
		}

		// Check cancellation before committing to a wait.
		if err := ctx.Err(); err != nil {
			return err
		}

		delay := r.strategy.NextDelay(attempt - 1)
		if r.onRetry != nil {
			r.onRetry(attempt, lastErr, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
