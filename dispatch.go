package helix

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/arloliu/helix/policy"
	"github.com/arloliu/helix/types"
)

// dispatcher executes statements on open sessions and owns the
// per-statement duties around them: result decoding, warning collection,
// journal records and metrics. It holds no connection state of its own;
// every call receives the session to run on.
type dispatcher struct {
	logger     types.Logger
	metrics    types.MetricsCollector
	journal    Journal
	classifier policy.Classifier
	addr       string

	getWarnings     bool
	raiseOnWarnings bool
	chunkSize       int
}

// query runs a read statement and buffers the full result set.
func (d *dispatcher) query(ctx context.Context, sess *session, stmt string, args []any) (*types.QueryResult, error) {
	start := time.Now()
	d.metrics.IncQueryTotal(types.KindRead)

	rows, err := sess.queryContext(ctx, stmt, args...)
	if err != nil {
		return nil, d.fail(types.KindRead, stmt, start, err)
	}

	result, err := d.scanAll(rows)
	if err != nil {
		return nil, d.fail(types.KindRead, stmt, start, err)
	}

	result.Warnings = d.collectWarnings(ctx, sess)
	d.done(types.KindRead, stmt, start)

	if d.raiseOnWarnings && len(result.Warnings) > 0 {
		return result, &types.WarningError{Warnings: result.Warnings}
	}

	return result, nil
}

// queryStream runs a read statement and delivers rows one at a time.
//
// The row slice passed to fn is reused between calls; fn must copy it to
// retain it. An fn error aborts the scan and is returned unwrapped.
func (d *dispatcher) queryStream(ctx context.Context, sess *session, stmt string, fn func(types.Row) error, args []any) error {
	start := time.Now()
	d.metrics.IncQueryTotal(types.KindRead)

	rows, err := sess.queryContext(ctx, stmt, args...)
	if err != nil {
		return d.fail(types.KindRead, stmt, start, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return d.fail(types.KindRead, stmt, start, err)
	}
	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return d.fail(types.KindRead, stmt, start, err)
	}

	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	row := make(types.Row, len(cols))

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return d.fail(types.KindRead, stmt, start, err)
		}
		for i, v := range values {
			row[i] = convertValue(v, colTypes[i])
		}
		if err := fn(row); err != nil {
			// Caller abort, not an execution failure: journal it as an
			// error but hand the caller's error back untouched.
			d.journalize(types.KindRead, stmt, start, time.Since(start), err)
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return d.fail(types.KindRead, stmt, start, err)
	}

	d.done(types.KindRead, stmt, start)

	return nil
}

// exec runs a write statement: bare, single-row, or batched.
func (d *dispatcher) exec(ctx context.Context, sess *session, stmt string, rows [][]any) (*types.ExecResult, error) {
	switch len(rows) {
	case 0:
		return d.execSingle(ctx, sess, stmt, nil)
	case 1:
		return d.execSingle(ctx, sess, stmt, rows[0])
	default:
		return d.execBatch(ctx, sess, stmt, rows)
	}
}

func (d *dispatcher) execSingle(ctx context.Context, sess *session, stmt string, args []any) (*types.ExecResult, error) {
	start := time.Now()
	d.metrics.IncQueryTotal(types.KindWrite)

	res, err := sess.execContext(ctx, stmt, args...)
	if err != nil {
		return nil, d.fail(types.KindWrite, stmt, start, err)
	}

	result := execResult(res)
	result.Warnings = d.collectWarnings(ctx, sess)
	d.done(types.KindWrite, stmt, start)

	if d.raiseOnWarnings && len(result.Warnings) > 0 {
		return result, &types.WarningError{Warnings: result.Warnings}
	}

	return result, nil
}

// execBatch applies one statement to many parameter rows on one session.
//
// INSERT-shaped statements expand to multi-row VALUES lists, chunked to
// bound packet size; anything else falls back to sequential per-row
// execution. Either way there is no implicit transaction: a mid-batch
// failure reports how far the batch got, and rows already applied stay
// applied. Use Connector.Tx for atomicity.
func (d *dispatcher) execBatch(ctx context.Context, sess *session, stmt string, rows [][]any) (*types.ExecResult, error) {
	start := time.Now()
	d.metrics.IncQueryTotal(types.KindWrite)

	prefix, tmpl, suffix, ok := splitInsertValues(stmt)
	if !ok {
		return d.execSequential(ctx, sess, stmt, rows, start)
	}

	placeholders := strings.Count(tmpl, "?")
	for i, row := range rows {
		if len(row) != placeholders {
			err := fmt.Errorf("batch row %d has %d values, statement expects %d", i, len(row), placeholders)
			return nil, d.failWith(types.KindWrite, stmt, start, err, types.ClassPermanent)
		}
	}

	total := &types.ExecResult{}
	chunks := (len(rows) + d.chunkSize - 1) / d.chunkSize
	applied := 0

	for ci := 0; applied < len(rows); ci++ {
		chunk := rows[applied:min(applied+d.chunkSize, len(rows))]

		var sb strings.Builder
		sb.Grow(len(prefix) + len(chunk)*(len(tmpl)+1) + len(suffix))
		sb.WriteString(prefix)
		for i := range chunk {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(tmpl)
		}
		sb.WriteString(suffix)

		args := make([]any, 0, len(chunk)*placeholders)
		for _, row := range chunk {
			args = append(args, row...)
		}

		res, err := sess.execContext(ctx, sb.String(), args...)
		if err != nil {
			err = fmt.Errorf("batch chunk %d/%d failed after %d of %d rows applied: %w",
				ci+1, chunks, applied, len(rows), err)
			return nil, d.fail(types.KindWrite, stmt, start, err)
		}

		ra, _ := res.RowsAffected()
		total.RowsAffected += ra
		if id, err := res.LastInsertId(); err == nil && id != 0 {
			total.LastInsertID = id
		}
		applied += len(chunk)
	}

	total.Warnings = d.collectWarnings(ctx, sess)
	d.done(types.KindWrite, stmt, start)

	if d.raiseOnWarnings && len(total.Warnings) > 0 {
		return total, &types.WarningError{Warnings: total.Warnings}
	}

	return total, nil
}

// execSequential is the batch fallback for statements that cannot expand
// to a multi-row VALUES list (UPDATE, DELETE).
func (d *dispatcher) execSequential(ctx context.Context, sess *session, stmt string, rows [][]any, start time.Time) (*types.ExecResult, error) {
	total := &types.ExecResult{}

	for i, row := range rows {
		res, err := sess.execContext(ctx, stmt, row...)
		if err != nil {
			err = fmt.Errorf("batch row %d/%d failed after %d rows applied: %w", i+1, len(rows), i, err)
			return nil, d.fail(types.KindWrite, stmt, start, err)
		}

		ra, _ := res.RowsAffected()
		total.RowsAffected += ra
		if id, err := res.LastInsertId(); err == nil && id != 0 {
			total.LastInsertID = id
		}
	}

	total.Warnings = d.collectWarnings(ctx, sess)
	d.done(types.KindWrite, stmt, start)

	if d.raiseOnWarnings && len(total.Warnings) > 0 {
		return total, &types.WarningError{Warnings: total.Warnings}
	}

	return total, nil
}

// procNameRe accepts plain and schema-qualified routine names.
var procNameRe = regexp.MustCompile(`^[\w$]+(?:\.[\w$]+)?$`)

// callProc invokes a stored procedure with OUT-parameter support.
//
// Arguments travel through session user variables so the procedure can
// write back through them: each argument is assigned to @_name_i, the
// CALL references the variables, and a final SELECT collects their
// values into ProcResult.OutParams in argument order.
func (d *dispatcher) callProc(ctx context.Context, sess *session, name string, args []any) (*types.ProcResult, error) {
	start := time.Now()
	d.metrics.IncQueryTotal(types.KindProc)

	stmt := "CALL " + name
	if !procNameRe.MatchString(name) {
		err := fmt.Errorf("invalid procedure name %q", name)
		return nil, d.failWith(types.KindProc, stmt, start, err, types.ClassPermanent)
	}

	varNames := make([]string, len(args))
	varBase := "@_" + strings.ReplaceAll(name, ".", "_") + "_"
	for i, arg := range args {
		varNames[i] = varBase + strconv.Itoa(i)
		if _, err := sess.execContext(ctx, "SET "+varNames[i]+" = ?", arg); err != nil {
			return nil, d.fail(types.KindProc, stmt, start, err)
		}
	}

	call := "CALL " + name + "(" + strings.Join(varNames, ", ") + ")"
	rows, err := sess.queryContext(ctx, call)
	if err != nil {
		return nil, d.fail(types.KindProc, stmt, start, err)
	}

	result := &types.ProcResult{}
	for {
		set, err := d.scanResultSet(rows)
		if err != nil {
			rows.Close()
			return nil, d.fail(types.KindProc, stmt, start, err)
		}
		if set != nil {
			result.ResultSets = append(result.ResultSets, *set)
		}
		if !rows.NextResultSet() {
			break
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, d.fail(types.KindProc, stmt, start, err)
	}
	rows.Close()

	result.Warnings = d.collectWarnings(ctx, sess)

	if len(args) > 0 {
		out, err := d.selectOutParams(ctx, sess, varNames)
		if err != nil {
			return nil, d.fail(types.KindProc, stmt, start, err)
		}
		result.OutParams = out
	}

	d.done(types.KindProc, stmt, start)

	if d.raiseOnWarnings && len(result.Warnings) > 0 {
		return result, &types.WarningError{Warnings: result.Warnings}
	}

	return result, nil
}

// selectOutParams reads the user variables back after a CALL.
func (d *dispatcher) selectOutParams(ctx context.Context, sess *session, varNames []string) ([]any, error) {
	rows, err := sess.queryContext(ctx, "SELECT "+strings.Join(varNames, ", "))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set, err := d.scanAllOpen(rows)
	if err != nil {
		return nil, err
	}
	if set == nil || len(set.Rows) != 1 {
		return nil, errors.New("out parameter select returned no row")
	}

	return []any(set.Rows[0]), nil
}

// fail finishes a failed dispatch: metrics, journal, and wrapping into a
// classified QueryError.
func (d *dispatcher) fail(kind types.QueryKind, stmt string, start time.Time, err error) error {
	return d.failWith(kind, stmt, start, err, d.classifier.Classify(err))
}

func (d *dispatcher) failWith(kind types.QueryKind, stmt string, start time.Time, err error, class types.Classification) error {
	elapsed := time.Since(start)
	d.metrics.IncQueryError(kind)
	d.metrics.ObserveQueryDuration(kind, elapsed.Seconds())
	d.journalize(kind, stmt, start, elapsed, err)

	d.logger.Debug("statement failed",
		"kind", kind.String(),
		"stmt", flattenStmt(stmt),
		"class", class.String(),
		"elapsed", elapsed.String(),
		"error", err,
	)

	return &types.QueryError{Kind: kind, Stmt: stmt, Class: class, Err: err}
}

// done finishes a successful dispatch.
func (d *dispatcher) done(kind types.QueryKind, stmt string, start time.Time) {
	elapsed := time.Since(start)
	d.metrics.ObserveQueryDuration(kind, elapsed.Seconds())
	d.journalize(kind, stmt, start, elapsed, nil)

	d.logger.Debug("statement executed",
		"kind", kind.String(),
		"stmt", flattenStmt(stmt),
		"elapsed", elapsed.String(),
	)
}

// journalize emits one audit record for a dispatch, success or failure.
func (d *dispatcher) journalize(kind types.QueryKind, stmt string, start time.Time, elapsed time.Duration, execErr error) {
	if d.journal == nil {
		return
	}

	entry := types.JournalEntry{
		Time:    start.UTC(),
		Host:    d.addr,
		Kind:    kind,
		Stmt:    flattenStmt(stmt),
		Status:  types.StatusOK,
		Elapsed: elapsed,
	}
	if execErr != nil {
		entry.Status = types.StatusError
		entry.Err = execErr.Error()
	}

	if err := d.journal.Record(entry); err != nil {
		if errors.Is(err, types.ErrJournalFull) {
			d.metrics.IncJournalDropped()
		}
		d.logger.Warn("journal record dropped", "error", err)
	}
}

// collectWarnings fetches SHOW WARNINGS on the executing session.
//
// Warning collection is advisory: a fetch failure is logged and swallowed
// so it cannot turn a successful statement into a failed one.
func (d *dispatcher) collectWarnings(ctx context.Context, sess *session) []types.Warning {
	if !d.getWarnings && !d.raiseOnWarnings {
		return nil
	}

	rows, err := sess.queryContext(ctx, "SHOW WARNINGS")
	if err != nil {
		d.logger.Warn("warning fetch failed", "error", err)
		return nil
	}
	defer rows.Close()

	var warnings []types.Warning
	for rows.Next() {
		var w types.Warning
		if err := rows.Scan(&w.Level, &w.Code, &w.Message); err != nil {
			d.logger.Warn("warning fetch failed", "error", err)
			return warnings
		}
		warnings = append(warnings, w)
	}
	if err := rows.Err(); err != nil {
		d.logger.Warn("warning fetch failed", "error", err)
	}

	for _, w := range warnings {
		d.metrics.IncServerWarning()
		d.logger.Warn("server warning", "level", w.Level, "code", w.Code, "message", w.Message)
	}

	return warnings
}

// scanAll drains and closes a row set.
func (d *dispatcher) scanAll(rows *sql.Rows) (*types.QueryResult, error) {
	defer rows.Close()

	result, err := d.scanAllOpen(rows)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = &types.QueryResult{}
	}

	return result, nil
}

// scanAllOpen drains the current result set without closing rows.
func (d *dispatcher) scanAllOpen(rows *sql.Rows) (*types.QueryResult, error) {
	set, err := d.scanResultSet(rows)
	if err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return set, nil
}

// scanResultSet decodes the current result set. Returns nil for a
// row-less set (e.g. the OK terminator of a CALL).
func (d *dispatcher) scanResultSet(rows *sql.Rows) (*types.QueryResult, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, nil
	}
	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}

	result := &types.QueryResult{Columns: cols}
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(types.Row, len(cols))
		for i, v := range values {
			row[i] = convertValue(v, colTypes[i])
		}
		result.Rows = append(result.Rows, row)
	}

	return result, nil
}

// execResult converts a driver result, tolerating drivers that do not
// report one of the counters.
func execResult(res sql.Result) *types.ExecResult {
	result := &types.ExecResult{}
	if ra, err := res.RowsAffected(); err == nil {
		result.RowsAffected = ra
	}
	if id, err := res.LastInsertId(); err == nil {
		result.LastInsertID = id
	}

	return result
}

// convertValue decodes driver []byte values by column type. The text
// protocol delivers most values as []byte; textual and numeric types
// convert to string, int64 and float64 so callers see the same Go types
// the binary protocol produces.
func convertValue(v any, colType *sql.ColumnType) any {
	b, ok := v.([]byte)
	if !ok {
		return v
	}

	switch colType.DatabaseTypeName() {
	case "VARCHAR", "CHAR", "TEXT", "TINYTEXT", "MEDIUMTEXT", "LONGTEXT",
		"JSON", "ENUM", "SET", "TIME", "YEAR":
		return string(b)
	case "DECIMAL":
		// Decimals stay textual: parsing to float64 would forfeit the
		// precision the column type exists for.
		return string(b)
	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "INTEGER", "BIGINT":
		if n, err := strconv.ParseInt(string(b), 10, 64); err == nil {
			return n
		}
		return string(b)
	case "UNSIGNED TINYINT", "UNSIGNED SMALLINT", "UNSIGNED MEDIUMINT",
		"UNSIGNED INT", "UNSIGNED BIGINT":
		if n, err := strconv.ParseUint(string(b), 10, 64); err == nil {
			return n
		}
		return string(b)
	case "FLOAT", "DOUBLE":
		if f, err := strconv.ParseFloat(string(b), 64); err == nil {
			return f
		}
		return string(b)
	}

	return b
}

// splitInsertValues splits an INSERT/REPLACE ... VALUES statement into
// the text before the row template, the parenthesized template itself,
// and any ON DUPLICATE KEY UPDATE suffix. ok is false for statements
// that cannot expand to a multi-row VALUES list.
func splitInsertValues(stmt string) (prefix, tmpl, suffix string, ok bool) {
	if !insertStmtRe.MatchString(stmt) {
		return "", "", "", false
	}

	body := stmt
	if loc := onDuplicateRe.FindStringIndex(stmt); loc != nil {
		body, suffix = stmt[:loc[0]], stmt[loc[0]:]
	}

	m := insertValuesRe.FindStringSubmatch(body)
	if m == nil {
		return "", "", "", false
	}

	return m[1], m[2], suffix, true
}

var (
	insertStmtRe   = regexp.MustCompile(`(?is)^\s*(?:INSERT|REPLACE)\b.*\bVALUES\s*\(`)
	onDuplicateRe  = regexp.MustCompile(`(?is)\s+ON\s+DUPLICATE\s+KEY\s+UPDATE\b.*$`)
	insertValuesRe = regexp.MustCompile(`(?is)^(.*\bVALUES\s*)(\(.*\))\s*$`)
)

// flattenStmt collapses statement whitespace for logs and journal lines.
func flattenStmt(stmt string) string {
	return strings.Join(strings.Fields(stmt), " ")
}
