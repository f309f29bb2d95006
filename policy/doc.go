// Package policy provides the pure decision components behind dbconnector's
// failure handling: error classification, backoff scheduling, and the retry
// executor that composes the two.
//
// Nothing in this package performs I/O. Every component is deterministic
// (given a fixed jitter source) and unit-testable in isolation.
//
// # Classification
//
// A Classifier decides whether a failure is transient or permanent.
// All classifiers implement:
//
//	type Classifier interface {
//	    Classify(err error) types.Classification
//	}
//
// [MySQLClassifier] understands go-sql-driver/mysql errors: driver-level
// connectivity failures and a fixed set of recoverable server error codes
// classify as transient; everything else, including authentication and
// schema errors, classifies as permanent.
//
// # Backoff
//
// A BackoffStrategy schedules the wait between attempts:
//
//	type BackoffStrategy interface {
//	    NextDelay(attempt int) time.Duration
//	    MaxAttempts() int
//	}
//
// [ExponentialBackoff] doubles the delay per attempt from an initial value
// up to a cap, with optional jitter to avoid thundering herds.
//
// # Retry Execution
//
// [Retrier] runs an operation under a classifier and backoff strategy:
//
//	retrier := policy.NewRetrier(
//	    policy.NewMySQLClassifier(),
//	    policy.NewExponentialBackoff(5),
//	)
//	err := retrier.Execute(ctx, func(ctx context.Context) error {
//	    return doQuery(ctx)
//	})
//
// Permanent failures return immediately. Transient failures wait and retry
// until the attempt budget is spent, then surface as
// *types.RetryExhaustedError wrapping the last failure.
package policy
