package policy

import (
	"context"
	"database/sql/driver"
	"errors"
	"io"
	"net"
	"syscall"

	"github.com/go-sql-driver/mysql"

	"github.com/arloliu/helix/types"
)

// Classifier decides whether a failure is transient or permanent.
type Classifier interface {
	// Classify returns the transience verdict for the error.
	Classify(err error) types.Classification
}

// Recoverable MySQL error numbers. Connection-level codes (2xxx) appear
// when a proxy or the client library reports them in server-error form;
// server-level codes cover overload, shutdown and lock contention.
const (
	errCantConnect        = 2003 // CR_CONN_HOST_ERROR
	errNotConnected       = 2004 // CR_CONNECTION_ERROR
	errServerGone         = 2006 // CR_SERVER_GONE_ERROR
	errServerLost         = 2013 // CR_SERVER_LOST
	errServerLostExtended = 2055 // CR_SERVER_LOST_EXTENDED
	errTooManyConnections = 1040 // ER_CON_COUNT_ERROR
	errServerShutdown     = 1053 // ER_SERVER_SHUTDOWN
	errLockWaitTimeout    = 1205 // ER_LOCK_WAIT_TIMEOUT
	errDeadlock           = 1213 // ER_LOCK_DEADLOCK
)

// MySQLClassifier classifies failures from go-sql-driver/mysql.
//
// Transient failures are those a reconnect-and-retry cycle can clear:
// driver-level connectivity errors (invalid connection, unexpected EOF,
// network errors, connection refused/reset) and the recoverable server
// error codes above. Everything else is permanent, explicitly including
// access denied (1045) and unknown database (1049): retrying bad
// credentials or a missing schema will never succeed.
//
// context.Canceled classifies as permanent so a cancelled operation is
// never retried. context.DeadlineExceeded classifies as transient: it
// covers per-attempt I/O timeouts, and the retry executor independently
// stops when the caller's own context is done.
type MySQLClassifier struct {
	transient map[uint16]struct{}
}

// Compile-time assertion that MySQLClassifier implements Classifier.
var _ Classifier = (*MySQLClassifier)(nil)

// MySQLClassifierOption configures a MySQLClassifier.
type MySQLClassifierOption func(*MySQLClassifier)

// WithTransientCodes marks additional server error numbers as transient.
//
// Parameters:
//   - codes: MySQL error numbers to add to the transient set
//
// Returns:
//   - MySQLClassifierOption: Configuration option
func WithTransientCodes(codes ...uint16) MySQLClassifierOption {
	return func(c *MySQLClassifier) {
		for _, code := range codes {
			c.transient[code] = struct{}{}
		}
	}
}

// NewMySQLClassifier creates a classifier for go-sql-driver/mysql errors.
//
// Parameters:
//   - opts: Optional configuration options
//
// Returns:
//   - *MySQLClassifier: A new classifier with the default transient set
func NewMySQLClassifier(opts ...MySQLClassifierOption) *MySQLClassifier {
	c := &MySQLClassifier{
		transient: map[uint16]struct{}{
			errCantConnect:        {},
			errNotConnected:       {},
			errServerGone:         {},
			errServerLost:         {},
			errServerLostExtended: {},
			errTooManyConnections: {},
			errServerShutdown:     {},
			errLockWaitTimeout:    {},
			errDeadlock:           {},
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Classify returns the transience verdict for the error.
func (c *MySQLClassifier) Classify(err error) types.Classification {
	if err == nil {
		return types.ClassUnknown
	}

	// A cancelled caller must never trigger another attempt.
	if errors.Is(err, context.Canceled) {
		return types.ClassPermanent
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return types.ClassTransient
	}

	// Numbered server errors take priority: the connection is fine,
	// the server made a decision about the statement.
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		if _, ok := c.transient[myErr.Number]; ok {
			return types.ClassTransient
		}
		return types.ClassPermanent
	}

	// Driver-level connectivity failures.
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return types.ClassTransient
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return types.ClassTransient
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return types.ClassTransient
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return types.ClassTransient
	}

	return types.ClassUnknown
}
