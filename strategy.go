package helix

import (
	"github.com/arloliu/helix/types"
)

// Journal records per-query audit entries.
//
// The dispatcher records one entry for every executed statement, including
// failures. Implementations include journal.File (asynchronous, file
// backed) and journal.Memory (bounded, for tests) from the journal
// package.
//
// Implementations MUST be safe for concurrent use from multiple goroutines.
// Record may be called concurrently from different operations, and MUST
// NOT block the query path: a journal under pressure should drop the
// entry and report it rather than stall callers.
type Journal interface {
	// Record adds one entry to the journal.
	//
	// Parameters:
	//   - entry: The audit record to append
	//
	// Returns:
	//   - error: nil on success, types.ErrJournalFull when the entry was
	//     dropped, types.ErrJournalClosed after Close
	Record(entry types.JournalEntry) error

	// Close flushes pending entries and releases the journal.
	// Close is idempotent.
	//
	// Returns:
	//   - error: nil on success, error if the flush fails
	Close() error
}
