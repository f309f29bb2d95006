package types

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionError(t *testing.T) {
	cause := errors.New("connection refused")
	err := &ConnectionError{
		Op:   "connect",
		Addr: "db.example.com:3306",
		Err:  cause,
	}

	assert.Contains(t, err.Error(), "connect")
	assert.Contains(t, err.Error(), "db.example.com:3306")
	assert.Contains(t, err.Error(), "connection refused")
	assert.True(t, errors.Is(err, cause))
}

func TestQueryError(t *testing.T) {
	cause := errors.New("deadlock found when trying to get lock")
	err := &QueryError{
		Kind:  KindWrite,
		Stmt:  "UPDATE t SET v = v + 1",
		Class: ClassTransient,
		Err:   cause,
	}

	assert.Contains(t, err.Error(), "write query failed")
	assert.Contains(t, err.Error(), "transient")
	assert.Contains(t, err.Error(), "deadlock")
	assert.True(t, errors.Is(err, cause))

	var qe *QueryError
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, ClassTransient, qe.Class)
	assert.Equal(t, "UPDATE t SET v = v + 1", qe.Stmt)
}

func TestConfigError(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		err := &ConfigError{Key: "port", Reason: "must be between 1 and 65535"}

		assert.Contains(t, err.Error(), "config port")
		assert.Contains(t, err.Error(), "must be between 1 and 65535")
		assert.NoError(t, err.Unwrap())
	})

	t.Run("with cause", func(t *testing.T) {
		cause := errors.New("no such file or directory")
		err := &ConfigError{Key: "options-file", Reason: "cannot read", Err: cause}

		assert.Contains(t, err.Error(), "options-file")
		assert.Contains(t, err.Error(), "no such file or directory")
		assert.True(t, errors.Is(err, cause))
	})
}

func TestReleaseError(t *testing.T) {
	cause := errors.New("driver: bad connection")
	err := &ReleaseError{Err: cause}

	assert.Contains(t, err.Error(), "release failed")
	assert.True(t, errors.Is(err, cause))
}

func TestRetryExhaustedError(t *testing.T) {
	cause := errors.New("lost connection to MySQL server during query")
	err := &RetryExhaustedError{
		Attempts: 5,
		Elapsed:  7500 * time.Millisecond,
		LastErr:  cause,
	}

	assert.Contains(t, err.Error(), "retry budget exhausted")
	assert.Contains(t, err.Error(), "5 attempts")
	assert.Contains(t, err.Error(), "7.5s")
	assert.True(t, errors.Is(err, cause))
}

func TestWarningError(t *testing.T) {
	err := &WarningError{Warnings: []Warning{
		{Level: "Warning", Code: 1264, Message: "Out of range value for column 'v' at row 1"},
		{Level: "Note", Code: 1051, Message: "Unknown table 't'"},
	}}

	assert.Contains(t, err.Error(), "2 warning(s)")
	assert.Contains(t, err.Error(), "Warning 1264")
	assert.Contains(t, err.Error(), "Out of range value")

	empty := &WarningError{}
	assert.Contains(t, empty.Error(), "warnings")
}

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{"ErrClosed", ErrClosed, "connector is closed"},
		{"ErrNotOpen", ErrNotOpen, "session is not open"},
		{"ErrAlreadyOpen", ErrAlreadyOpen, "session is already open"},
		{"ErrNilConfig", ErrNilConfig, "config cannot be nil"},
		{"ErrEmptyStatement", ErrEmptyStatement, "statement cannot be empty"},
		{"ErrJournalFull", ErrJournalFull, "journal queue is full"},
		{"ErrJournalClosed", ErrJournalClosed, "journal is closed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, tt.err.Error(), tt.msg)
		})
	}
}

func TestQueryKindConstants(t *testing.T) {
	assert.Equal(t, QueryKind("read"), KindRead)
	assert.Equal(t, QueryKind("write"), KindWrite)
	assert.Equal(t, QueryKind("proc"), KindProc)
	assert.Equal(t, "read", KindRead.String())
}

func TestClassificationString(t *testing.T) {
	assert.Equal(t, "unknown", ClassUnknown.String())
	assert.Equal(t, "transient", ClassTransient.String())
	assert.Equal(t, "permanent", ClassPermanent.String())
}

func TestWarningString(t *testing.T) {
	w := Warning{Level: "Warning", Code: 1366, Message: "Incorrect integer value"}
	assert.Equal(t, "Warning 1366: Incorrect integer value", w.String())
}

func TestQueryResultShape(t *testing.T) {
	r := &QueryResult{
		Columns: []string{"id", "name"},
		Rows:    []Row{{int64(1), "a"}, {int64(2), "b"}},
	}

	assert.Equal(t, 2, r.NumRows())
	assert.Equal(t, 2, r.NumCols())
}
