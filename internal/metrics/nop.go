// Package metrics provides internal metrics utilities for dbconnector.
package metrics

import "github.com/arloliu/helix/types"

// NopMetrics is a no-op metrics collector that discards all metrics.
//
// This is used as the default metrics collector when no collector is configured,
// avoiding nil checks throughout the codebase.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements types.MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNopMetrics creates a new no-op metrics collector.
//
// Returns:
//   - *NopMetrics: A collector that discards all metrics
func NewNopMetrics() *NopMetrics {
	return &NopMetrics{}
}

// ----------------------
// Sessions
// ----------------------

// IncSessionOpened discards the metric.
func (m *NopMetrics) IncSessionOpened() {}

// IncSessionClosed discards the metric.
func (m *NopMetrics) IncSessionClosed() {}

// IncSessionOpenError discards the metric.
func (m *NopMetrics) IncSessionOpenError() {}

// ----------------------
// Queries
// ----------------------

// IncQueryTotal discards the metric.
func (m *NopMetrics) IncQueryTotal(_ types.QueryKind) {}

// IncQueryError discards the metric.
func (m *NopMetrics) IncQueryError(_ types.QueryKind) {}

// ObserveQueryDuration discards the metric.
func (m *NopMetrics) ObserveQueryDuration(_ types.QueryKind, _ float64) {}

// ----------------------
// Retry
// ----------------------

// IncRetry discards the metric.
func (m *NopMetrics) IncRetry(_ types.QueryKind) {}

// IncRetryExhausted discards the metric.
func (m *NopMetrics) IncRetryExhausted(_ types.QueryKind) {}

// ----------------------
// Warnings
// ----------------------

// IncServerWarning discards the metric.
func (m *NopMetrics) IncServerWarning() {}

// ----------------------
// Journal
// ----------------------

// IncJournalDropped discards the metric.
func (m *NopMetrics) IncJournalDropped() {}

// SetJournalQueueDepth discards the metric.
func (m *NopMetrics) SetJournalQueueDepth(_ int) {}
