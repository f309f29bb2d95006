// Package types provides shared types and error definitions for the dbconnector library.
//
// This is a leaf package with zero dbconnector imports to prevent import cycles.
// All packages in dbconnector can safely import this package.
//
// # Types
//
// QueryKind identifies which execution path a statement takes:
//
//	const (
//	    KindRead  QueryKind = "read"
//	    KindWrite QueryKind = "write"
//	    KindProc  QueryKind = "proc"
//	)
//
// Classification is the retry policy's verdict on a failure:
//
//	const (
//	    ClassUnknown Classification = iota
//	    ClassTransient
//	    ClassPermanent
//	)
//
// QueryResult, ExecResult and ProcResult carry the outcome of read, write
// and stored-procedure execution respectively. Warning mirrors one row of
// SHOW WARNINGS output.
//
// # Errors
//
// Sentinel errors are provided for common failure scenarios:
//
//   - ErrClosed: An operation was attempted on a closed connector
//   - ErrNotOpen: An operation was attempted on a session that is not open
//   - ErrNilConfig: A nil configuration was provided
//   - ErrEmptyStatement: An empty SQL statement was provided
//   - ErrJournalFull: The journal queue has reached capacity
//
// Structured error types carry failure context and unwrap to their cause:
//
//   - ConnectionError: A session could not be established or re-established
//   - QueryError: A statement failed, tagged with its transience classification
//   - ConfigError: Invalid or conflicting configuration
//   - ReleaseError: A connection or resource could not be returned cleanly
//   - RetryExhaustedError: The retry budget was consumed without success
//   - WarningError: The server reported warnings and RaiseOnWarnings is set
package types
