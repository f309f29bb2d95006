// Package types provides shared types and errors for the dbconnector library.
//
// This is a "leaf" package with no imports from other dbconnector packages,
// allowing it to be imported by any package without causing import cycles.
package types

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// QueryKind identifies the execution path of a statement.
type QueryKind string

// String returns the string representation of the QueryKind.
func (k QueryKind) String() string {
	return string(k)
}

const (
	// KindRead identifies SELECT-style statements that produce rows.
	KindRead QueryKind = "read"
	// KindWrite identifies INSERT/UPDATE/DELETE statements.
	KindWrite QueryKind = "write"
	// KindProc identifies stored procedure invocations.
	KindProc QueryKind = "proc"
)

// Classification is the retry policy's verdict on a failure.
type Classification int

const (
	// ClassUnknown means the classifier could not identify the error.
	// Unknown errors are treated like permanent errors: retrying them
	// is not safe without knowing what they are.
	ClassUnknown Classification = iota
	// ClassTransient marks failures that a reconnect-and-retry cycle
	// can reasonably be expected to clear (lost connections, timeouts,
	// deadlocks, server restarts).
	ClassTransient
	// ClassPermanent marks failures that will recur on every attempt
	// (syntax errors, access denied, unknown database).
	ClassPermanent
)

// String returns the string representation of the Classification.
func (c Classification) String() string {
	switch c {
	case ClassTransient:
		return "transient"
	case ClassPermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// Row is a single result row with one value per column.
//
// Temporal columns decode to time.Time in the session's configured zone.
// NULL values are nil.
type Row []any

// QueryResult holds the fully buffered outcome of a read statement.
type QueryResult struct {
	// Columns are the result column names in select order.
	Columns []string

	// Rows are the decoded result rows.
	Rows []Row

	// Warnings are the server warnings reported for the statement,
	// when warning collection is enabled.
	Warnings []Warning
}

// NumRows returns the number of rows in the result.
func (r *QueryResult) NumRows() int {
	return len(r.Rows)
}

// NumCols returns the number of columns in the result.
func (r *QueryResult) NumCols() int {
	return len(r.Columns)
}

// ExecResult holds the outcome of a write statement or batch.
type ExecResult struct {
	// RowsAffected is the total number of rows changed. For a batch it
	// is the sum across all chunks that were applied.
	RowsAffected int64

	// LastInsertID is the auto-increment id of the last inserted row,
	// when the statement produced one.
	LastInsertID int64

	// Warnings are the server warnings reported for the statement,
	// when warning collection is enabled.
	Warnings []Warning
}

// ProcResult holds the outcome of a stored procedure call.
type ProcResult struct {
	// ResultSets are the row sets produced by the procedure body, in order.
	ResultSets []QueryResult

	// OutParams are the values of the procedure's OUT and INOUT
	// parameters after the call, in declaration order. Empty when the
	// procedure was invoked without output parameters.
	OutParams []any

	// Warnings are the server warnings reported for the call,
	// when warning collection is enabled.
	Warnings []Warning
}

// Warning mirrors one row of SHOW WARNINGS output.
type Warning struct {
	// Level is the severity reported by the server: "Note", "Warning" or "Error".
	Level string

	// Code is the MySQL error code of the warning.
	Code int

	// Message is the warning text.
	Message string
}

// String returns the warning in "Level 1264: message" form.
func (w Warning) String() string {
	return w.Level + " " + strconv.Itoa(w.Code) + ": " + w.Message
}

// JournalEntry is one query audit record.
//
// Entries are produced by the dispatcher for every executed statement,
// including failures, and consumed by a Journal implementation.
type JournalEntry struct {
	// Time is when execution started, in UTC.
	Time time.Time

	// Host is the server address the statement ran against.
	Host string

	// Kind is the execution path of the statement.
	Kind QueryKind

	// Stmt is the SQL text. Parameter values are not recorded.
	Stmt string

	// Status is "ok" for successful execution, "error" otherwise.
	Status string

	// Err is the error text when Status is "error", empty otherwise.
	Err string

	// Elapsed is the wall-clock execution time.
	Elapsed time.Duration
}

// Journal entry status values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Sentinel errors for common failure scenarios.
var (
	// ErrClosed indicates an operation was attempted on a closed connector.
	ErrClosed = errors.New("dbconnector: connector is closed")

	// ErrNotOpen indicates an operation was attempted on a session that
	// has not been opened or has already been released.
	ErrNotOpen = errors.New("dbconnector: session is not open")

	// ErrAlreadyOpen indicates open was called on a session that is
	// already open.
	ErrAlreadyOpen = errors.New("dbconnector: session is already open")

	// ErrNilConfig indicates that a nil configuration was provided.
	ErrNilConfig = errors.New("dbconnector: config cannot be nil")

	// ErrEmptyStatement indicates an empty SQL statement was provided.
	ErrEmptyStatement = errors.New("dbconnector: statement cannot be empty")

	// ErrJournalFull indicates the journal queue is at capacity.
	// The entry was dropped rather than blocking the query path.
	ErrJournalFull = errors.New("dbconnector: journal queue is full")

	// ErrJournalClosed indicates a record was offered to a closed journal.
	ErrJournalClosed = errors.New("dbconnector: journal is closed")
)

// ConnectionError indicates a session could not be established, or was
// lost and could not be re-established within the retry policy.
type ConnectionError struct {
	// Op describes what operation failed: "connect", "probe", "acquire", "init".
	Op string

	// Addr is the host:port the connection was aimed at.
	Addr string

	// Err is the underlying driver error.
	Err error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	return "dbconnector: " + e.Op + " " + e.Addr + " failed: " + e.Err.Error()
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// QueryError indicates a statement failed, tagged with the retry policy's
// transience classification.
//
// Permanent failures are returned to callers directly. Transient failures
// on the read path are consumed by the retry loop and only escape wrapped
// in a RetryExhaustedError; on the write and procedure paths they are
// returned immediately, because re-executing a statement whose fate is
// unknown could apply it twice.
type QueryError struct {
	// Kind is the execution path the statement took.
	Kind QueryKind

	// Stmt is the SQL text of the failing statement.
	Stmt string

	// Class is the classifier's verdict on the failure.
	Class Classification

	// Err is the underlying driver or server error.
	Err error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	return "dbconnector: " + e.Kind.String() + " query failed (" + e.Class.String() + "): " + e.Err.Error()
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// ConfigError indicates invalid or conflicting configuration.
type ConfigError struct {
	// Key is the configuration key at fault.
	Key string

	// Reason describes what is wrong with it.
	Reason string

	// Err is the underlying cause, when one exists (e.g. a file read
	// failure while loading an options file). May be nil.
	Err error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	msg := "dbconnector: config " + e.Key + ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ReleaseError indicates a connection or other resource could not be
// returned cleanly. It is non-fatal: the resource is abandoned to the
// driver and callers may log and continue.
type ReleaseError struct {
	// Err is the underlying close failure.
	Err error
}

// Error implements the error interface.
func (e *ReleaseError) Error() string {
	return "dbconnector: release failed: " + e.Err.Error()
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *ReleaseError) Unwrap() error {
	return e.Err
}

// RetryExhaustedError indicates the retry budget was consumed without a
// successful attempt. It unwraps to the last underlying failure.
type RetryExhaustedError struct {
	// Attempts is the number of attempts made, counting the first.
	Attempts int

	// Elapsed is the total wall-clock time spent across attempts and waits.
	Elapsed time.Duration

	// LastErr is the failure from the final attempt.
	LastErr error
}

// Error implements the error interface.
func (e *RetryExhaustedError) Error() string {
	return "dbconnector: retry budget exhausted after " + strconv.Itoa(e.Attempts) +
		" attempts in " + e.Elapsed.Round(time.Millisecond).String() + ": " + e.LastErr.Error()
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *RetryExhaustedError) Unwrap() error {
	return e.LastErr
}

// WarningError is returned when the server reported warnings for a
// statement and the configuration asks for warnings to be escalated.
//
// The statement itself succeeded; results accompany the error where the
// operation produces them.
type WarningError struct {
	// Warnings are the server warnings that triggered the escalation.
	Warnings []Warning
}

// Error implements the error interface.
func (e *WarningError) Error() string {
	if len(e.Warnings) == 0 {
		return "dbconnector: server reported warnings"
	}
	msgs := make([]string, len(e.Warnings))
	for i, w := range e.Warnings {
		msgs[i] = w.String()
	}
	return "dbconnector: server reported " + strconv.Itoa(len(e.Warnings)) +
		" warning(s): " + strings.Join(msgs, "; ")
}
