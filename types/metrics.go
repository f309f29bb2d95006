package types

// MetricsCollector defines methods for collecting operational metrics.
//
// Query-scoped methods accept a QueryKind parameter for labeling.
// Implementations should be thread-safe as methods may be called concurrently.
//
// Example usage with VictoriaMetrics (via contrib/metrics/vm):
//
//	import vmmetrics "github.com/arloliu/helix/contrib/metrics/vm"
//
//	collector := vmmetrics.New(vmmetrics.WithPrefix("myapp"))
//	connector, _ := dbconnector.Connect(ctx, cfg,
//	    dbconnector.WithMetricsCollector(collector),
//	)
//
//	// Expose metrics via HTTP
//	http.HandleFunc("/metrics", collector.Handler)
type MetricsCollector interface {
	// ----------------------
	// Sessions
	// ----------------------

	// IncSessionOpened increments the counter of sessions successfully opened.
	IncSessionOpened()

	// IncSessionClosed increments the counter of sessions released.
	IncSessionClosed()

	// IncSessionOpenError increments the counter of failed session opens.
	IncSessionOpenError()

	// ----------------------
	// Queries
	// ----------------------

	// IncQueryTotal increments the total statement counter for the kind.
	IncQueryTotal(kind QueryKind)

	// IncQueryError increments the failed statement counter for the kind.
	IncQueryError(kind QueryKind)

	// ObserveQueryDuration records a statement duration in seconds.
	ObserveQueryDuration(kind QueryKind, seconds float64)

	// ----------------------
	// Retry
	// ----------------------

	// IncRetry increments the counter when an attempt is retried after
	// a transient failure.
	IncRetry(kind QueryKind)

	// IncRetryExhausted increments the counter when the retry budget is
	// consumed without success.
	IncRetryExhausted(kind QueryKind)

	// ----------------------
	// Warnings
	// ----------------------

	// IncServerWarning increments the counter of server warnings surfaced.
	IncServerWarning()

	// ----------------------
	// Journal
	// ----------------------

	// IncJournalDropped increments the counter when a journal entry is
	// dropped because the queue is full. This indicates audit-record loss.
	IncJournalDropped()

	// SetJournalQueueDepth sets the current journal queue depth gauge.
	SetJournalQueueDepth(depth int)
}
