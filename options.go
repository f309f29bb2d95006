package helix

import (
	"time"

	"github.com/arloliu/helix/internal/logging"
	"github.com/arloliu/helix/internal/metrics"
	"github.com/arloliu/helix/policy"
	"github.com/arloliu/helix/types"
)

// Behavior defaults applied by DefaultConnectorConfig.
const (
	defaultMaxAttempts    = 5
	defaultBatchChunkSize = 1000
	probeTimeout          = 5 * time.Second
	probeAttempts         = 3
)

// RetryHandler is called before each retry wait on the read path.
//
// Parameters:
//   - attempt: The failed attempt number, counting from 1
//   - err: The transient failure that triggered the retry
//   - delay: The wait before the next attempt
type RetryHandler func(attempt int, err error, delay time.Duration)

// ConnectorConfig holds the behavior configuration for a Connector.
type ConnectorConfig struct {
	Logger         types.Logger
	Metrics        types.MetricsCollector
	Classifier     policy.Classifier
	Backoff        policy.BackoffStrategy
	MaxAttempts    int
	Journal        Journal
	StartupProbe   bool
	SessionInit    []string
	BatchChunkSize int
	OnRetry        RetryHandler
}

// DefaultConnectorConfig returns a ConnectorConfig with sensible defaults.
//
// Defaults:
//   - Logger: no-op
//   - Metrics: no-op
//   - Classifier: nil (policy.NewMySQLClassifier() is built at connect time)
//   - Backoff: nil (policy.NewExponentialBackoff(MaxAttempts) is built at connect time)
//   - MaxAttempts: 5
//   - StartupProbe: on
//   - BatchChunkSize: 1000
//
// Returns:
//   - *ConnectorConfig: Configuration with default settings
func DefaultConnectorConfig() *ConnectorConfig {
	return &ConnectorConfig{
		Logger:         logging.NewNopLogger(),
		Metrics:        metrics.NewNopMetrics(),
		MaxAttempts:    defaultMaxAttempts,
		StartupProbe:   true,
		BatchChunkSize: defaultBatchChunkSize,
	}
}

// Option configures a ConnectorConfig.
type Option func(*ConnectorConfig)

// WithLogger sets the logger for connection lifecycle and query events.
//
// The method set matches zap.SugaredLogger, so a sugared zap logger can
// be passed directly. The default logger discards everything.
//
// Parameters:
//   - logger: The logger implementation
//
// Returns:
//   - Option: Configuration option
func WithLogger(logger types.Logger) Option {
	return func(c *ConnectorConfig) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithMetricsCollector sets the metrics collector.
//
// Parameters:
//   - collector: The collector implementation (e.g., contrib/metrics/vm)
//
// Returns:
//   - Option: Configuration option
func WithMetricsCollector(collector types.MetricsCollector) Option {
	return func(c *ConnectorConfig) {
		if collector != nil {
			c.Metrics = collector
		}
	}
}

// WithClassifier sets the error classifier consulted by the retry policy.
//
// Parameters:
//   - classifier: The classifier to use (default: policy.NewMySQLClassifier())
//
// Returns:
//   - Option: Configuration option
func WithClassifier(classifier policy.Classifier) Option {
	return func(c *ConnectorConfig) {
		c.Classifier = classifier
	}
}

// WithBackoff sets the backoff strategy for retries.
//
// The strategy carries its own attempt budget, so WithMaxAttempts is
// ignored when a custom strategy is provided.
//
// Parameters:
//   - backoff: The backoff strategy (default: policy.NewExponentialBackoff(5))
//
// Returns:
//   - Option: Configuration option
func WithBackoff(backoff policy.BackoffStrategy) Option {
	return func(c *ConnectorConfig) {
		c.Backoff = backoff
	}
}

// WithMaxAttempts sets the total attempt budget for the default backoff
// strategy, counting the first attempt. Zero or negative means unlimited.
//
// Parameters:
//   - attempts: Total attempts for retried operations
//
// Returns:
//   - Option: Configuration option
func WithMaxAttempts(attempts int) Option {
	return func(c *ConnectorConfig) {
		c.MaxAttempts = attempts
	}
}

// WithJournal sets the query journal. Every executed statement, including
// failures, is recorded to it.
//
// Parameters:
//   - journal: The journal implementation (e.g., journal.OpenFile)
//
// Returns:
//   - Option: Configuration option
func WithJournal(journal Journal) Option {
	return func(c *ConnectorConfig) {
		c.Journal = journal
	}
}

// WithStartupProbe enables or disables the connect-time reachability
// probe. The probe runs SELECT 1 under a short timeout so an unreachable
// server fails fast instead of at first use.
//
// Parameters:
//   - enabled: Whether to probe at connect time (default: true)
//
// Returns:
//   - Option: Configuration option
func WithStartupProbe(enabled bool) Option {
	return func(c *ConnectorConfig) {
		c.StartupProbe = enabled
	}
}

// WithSessionInit appends statements run on every session after the time
// zone is applied. Useful for SET sql_mode and similar per-session state.
//
// Parameters:
//   - stmts: Statements executed in order on each new session
//
// Returns:
//   - Option: Configuration option
func WithSessionInit(stmts ...string) Option {
	return func(c *ConnectorConfig) {
		c.SessionInit = append(c.SessionInit, stmts...)
	}
}

// WithBatchChunkSize sets how many parameter rows a batched write packs
// into one round trip.
//
// Parameters:
//   - size: Rows per chunk (default: 1000; values < 1 keep the default)
//
// Returns:
//   - Option: Configuration option
func WithBatchChunkSize(size int) Option {
	return func(c *ConnectorConfig) {
		if size >= 1 {
			c.BatchChunkSize = size
		}
	}
}

// WithOnRetry sets a callback invoked before each retry wait.
//
// Use this to hook application-level alerting into the retry loop; the
// connector already logs and counts retries on its own.
//
// Parameters:
//   - handler: Function called with the attempt number, failure, and wait
//
// Returns:
//   - Option: Configuration option
func WithOnRetry(handler RetryHandler) Option {
	return func(c *ConnectorConfig) {
		c.OnRetry = handler
	}
}
