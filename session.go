package helix

import (
	"context"
	"database/sql"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/arloliu/helix/types"
)

// Session lifecycle states. The lifecycle is one way:
// Unopened -> Open -> Closed.
const (
	stateUnopened int32 = iota
	stateOpen
	stateClosed
)

// session wraps one pooled driver connection together with the
// per-session contracts applied at open time: the session time zone and
// any configured init statements.
//
// A session serves a single logical caller at a time. The Connector
// leases one per operation and releases it when the operation finishes,
// so consecutive statements of one operation see the same connection
// state (user variables, warnings, temporary tables).
type session struct {
	id       string
	conn     *sql.Conn
	state    atomic.Int32
	addr     string
	timezone string
	init     []string
	logger   types.Logger
	metrics  types.MetricsCollector
}

// newSession returns an unopened session carrying the connector's
// session contracts.
func newSession(addr, timezone string, init []string, logger types.Logger, collector types.MetricsCollector) *session {
	return &session{
		id:       uuid.NewString(),
		addr:     addr,
		timezone: timezone,
		init:     init,
		logger:   logger,
		metrics:  collector,
	}
}

// open leases a connection from the pool and applies the session init
// statements. Valid only in the Unopened state: opening an open session
// returns types.ErrAlreadyOpen, opening a closed one types.ErrClosed.
func (s *session) open(ctx context.Context, db *sql.DB) error {
	if !s.state.CompareAndSwap(stateUnopened, stateOpen) {
		if s.state.Load() == stateClosed {
			return types.ErrClosed
		}
		return types.ErrAlreadyOpen
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		s.state.Store(stateClosed)
		s.metrics.IncSessionOpenError()

		return &types.ConnectionError{Op: "acquire", Addr: s.addr, Err: err}
	}
	s.conn = conn

	if err := s.applyInit(ctx); err != nil {
		_ = conn.Close()
		s.conn = nil
		s.state.Store(stateClosed)
		s.metrics.IncSessionOpenError()

		return err
	}

	s.metrics.IncSessionOpened()
	s.logger.Debug("session opened", "session", s.id, "addr", s.addr, "timezone", s.timezone)

	return nil
}

// applyInit runs the time zone assignment and any extra init statements.
//
// The time zone is set with a quoted literal rather than a placeholder:
// statements are sent without bind parameters so they take the text
// protocol regardless of the prepared-statement configuration.
func (s *session) applyInit(ctx context.Context) error {
	if s.timezone != "" {
		stmt := "SET time_zone = '" + strings.ReplaceAll(s.timezone, "'", "''") + "'"
		if _, err := s.conn.ExecContext(ctx, stmt); err != nil {
			return &types.ConnectionError{Op: "init", Addr: s.addr, Err: err}
		}
	}

	for _, stmt := range s.init {
		if _, err := s.conn.ExecContext(ctx, stmt); err != nil {
			return &types.ConnectionError{Op: "init", Addr: s.addr, Err: err}
		}
	}

	return nil
}

// close returns the lease to the pool.
//
// Idempotent: the second and later calls are no-ops, as is closing a
// session that never opened. A failed release surfaces as
// *types.ReleaseError; the connection is abandoned to the driver either way.
func (s *session) close() error {
	prev := s.state.Swap(stateClosed)
	if prev != stateOpen || s.conn == nil {
		return nil
	}

	err := s.conn.Close()
	s.conn = nil
	s.metrics.IncSessionClosed()
	if err != nil {
		s.logger.Warn("session release failed", "session", s.id, "error", err)

		return &types.ReleaseError{Err: err}
	}

	s.logger.Debug("session closed", "session", s.id)

	return nil
}

// ensureOpen gates statement execution on the session state.
func (s *session) ensureOpen() error {
	switch s.state.Load() {
	case stateOpen:
		return nil
	case stateClosed:
		return types.ErrClosed
	default:
		return types.ErrNotOpen
	}
}

// queryContext runs a row-producing statement on the session connection.
func (s *session) queryContext(ctx context.Context, stmt string, args ...any) (*sql.Rows, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}

	return s.conn.QueryContext(ctx, stmt, args...)
}

// execContext runs a row-less statement on the session connection.
func (s *session) execContext(ctx context.Context, stmt string, args ...any) (sql.Result, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}

	return s.conn.ExecContext(ctx, stmt, args...)
}

// beginTx starts a transaction on the session connection.
func (s *session) beginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}

	return s.conn.BeginTx(ctx, opts)
}
