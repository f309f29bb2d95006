package policy

import (
	"math"
	"math/rand/v2"
	"time"
)

// BackoffStrategy schedules the wait between retry attempts.
type BackoffStrategy interface {
	// NextDelay returns the wait before the retry with the given
	// zero-based attempt index.
	NextDelay(attempt int) time.Duration

	// MaxAttempts returns the total attempt budget, counting the first
	// attempt. Zero or negative means unlimited.
	MaxAttempts() int
}

// ExponentialBackoff implements exponential backoff with jitter.
//
// The delay for retry n is initial * multiplier^n, capped at the maximum,
// with an optional jitter fraction applied on top.
type ExponentialBackoff struct {
	// initialDelay is the delay before the first retry.
	initialDelay time.Duration

	// maxDelay caps the delay between attempts.
	maxDelay time.Duration

	// multiplier is the factor by which the delay grows (typically 2.0).
	multiplier float64

	// maxAttempts is the total attempt budget (<= 0 = unlimited).
	maxAttempts int

	// jitter adds randomness to prevent thundering herd (0.0-1.0, typically 0.1).
	// A jitter of 0.1 means +/- 10% randomness.
	jitter float64

	// jitterFunc provides random values in [0, 1) for jitter calculation.
	jitterFunc func() float64
}

// Compile-time assertion that ExponentialBackoff implements BackoffStrategy.
var _ BackoffStrategy = (*ExponentialBackoff)(nil)

// BackoffOption is a functional option for configuring ExponentialBackoff.
type BackoffOption func(*ExponentialBackoff)

// WithInitialDelay sets the delay before the first retry.
//
// Parameters:
//   - d: Delay before the first retry attempt
//
// Returns:
//   - BackoffOption: Configuration option
func WithInitialDelay(d time.Duration) BackoffOption {
	return func(b *ExponentialBackoff) {
		b.initialDelay = d
	}
}

// WithMaxDelay caps the delay between retry attempts.
//
// Parameters:
//   - d: Maximum delay between attempts
//
// Returns:
//   - BackoffOption: Configuration option
func WithMaxDelay(d time.Duration) BackoffOption {
	return func(b *ExponentialBackoff) {
		b.maxDelay = d
	}
}

// WithMultiplier sets the factor by which the delay grows between attempts.
//
// Parameters:
//   - m: Growth factor, typically 2.0
//
// Returns:
//   - BackoffOption: Configuration option
func WithMultiplier(m float64) BackoffOption {
	return func(b *ExponentialBackoff) {
		b.multiplier = m
	}
}

// WithJitter sets the jitter fraction (0.0-1.0) applied to each delay.
//
// Parameters:
//   - j: Jitter fraction; 0 disables jitter
//
// Returns:
//   - BackoffOption: Configuration option
func WithJitter(j float64) BackoffOption {
	return func(b *ExponentialBackoff) {
		b.jitter = j
	}
}

// WithJitterFunc sets a custom source of random values in [0, 1).
//
// Tests use this to make delays deterministic.
//
// Parameters:
//   - f: Function returning values in [0, 1)
//
// Returns:
//   - BackoffOption: Configuration option
func WithJitterFunc(f func() float64) BackoffOption {
	return func(b *ExponentialBackoff) {
		b.jitterFunc = f
	}
}

// NewExponentialBackoff creates an exponential backoff strategy.
//
// Defaults: 500ms initial delay, doubling per attempt, capped at 30s,
// with 10% jitter.
//
// Parameters:
//   - maxAttempts: Total attempt budget, counting the first attempt (<= 0 = unlimited)
//   - opts: Optional configuration options
//
// Returns:
//   - *ExponentialBackoff: A new backoff strategy
//
// Example:
//
//	backoff := policy.NewExponentialBackoff(5,
//	    policy.WithInitialDelay(200*time.Millisecond),
//	    policy.WithMaxDelay(time.Minute),
//	    policy.WithJitter(0.2),
//	)
func NewExponentialBackoff(maxAttempts int, opts ...BackoffOption) *ExponentialBackoff {
	b := &ExponentialBackoff{
		initialDelay: 500 * time.Millisecond,
		maxDelay:     30 * time.Second,
		multiplier:   2.0,
		maxAttempts:  maxAttempts,
		jitter:       0.1,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// NextDelay returns the wait before the retry with the given zero-based
// attempt index.
func (b *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	delay := float64(b.initialDelay) * math.Pow(b.multiplier, float64(attempt))

	if delay > float64(b.maxDelay) {
		delay = float64(b.maxDelay)
	}

	if b.jitter > 0 {
		jitterFunc := b.jitterFunc
		if jitterFunc == nil {
			jitterFunc = rand.Float64
		}

		// Map [0,1) to [-1,1) and scale: delay * (1 +/- jitter).
		randomOffset := (jitterFunc() - 0.5) * 2.0
		delay *= 1.0 + b.jitter*randomOffset
	}

	return time.Duration(delay)
}

// MaxAttempts returns the total attempt budget, counting the first attempt.
func (b *ExponentialBackoff) MaxAttempts() int {
	return b.maxAttempts
}

// InitialDelay returns the configured initial delay.
func (b *ExponentialBackoff) InitialDelay() time.Duration {
	return b.initialDelay
}

// MaxDelay returns the configured delay cap.
func (b *ExponentialBackoff) MaxDelay() time.Duration {
	return b.maxDelay
}

// Multiplier returns the configured growth factor.
func (b *ExponentialBackoff) Multiplier() float64 {
	return b.multiplier
}

// Jitter returns the configured jitter fraction.
func (b *ExponentialBackoff) Jitter() float64 {
	return b.jitter
}
