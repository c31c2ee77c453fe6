// Package executor drives the PostgreSQL backend connection that one
// gateway session owns for its lifetime: it runs already-translated SQL
// over jackc/pgx/v5, maps backend column OIDs to MySQL type codes, and
// shapes rows or command tags into results the session can encode.
package executor

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"pgmy/gwerr"
	"pgmy/mysqlproto"
	"pgmy/resultset"
)

// Executor owns one backend connection and the small amount of
// per-connection bookkeeping (known SERIAL primary keys) needed to
// best-effort resolve LAST_INSERT_ID() semantics.
type Executor struct {
	conn *pgx.Conn

	// serialPK maps a lowercased table name to the column name of its
	// single SERIAL/BIGSERIAL primary key, learned from CREATE TABLE
	// statements executed on this connection.
	serialPK map[string]string

	// Trace, when non-nil, receives a completed Trace after every
	// Exec call.
	Trace func(Trace)
}

// Connect dials the PostgreSQL backend described by dsn.
// QueryExecModeSimpleProtocol is forced so result values always arrive
// in PostgreSQL's text format, which is what the per-OID row formatting
// assumes.
func Connect(ctx context.Context, dsn string) (*Executor, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse backend dsn: %w", err)
	}
	cfg.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect backend: %w", err)
	}
	return &Executor{conn: conn, serialPK: make(map[string]string)}, nil
}

// Close releases the backend connection.
func (e *Executor) Close(ctx context.Context) error {
	return e.conn.Close(ctx)
}

// Result is the outcome of running one forwarded SQL statement:
// exactly one of Set or OK is populated.
type Result struct {
	Set *resultset.Set
	OK  *resultset.OK
}

var queryModeKeyword = regexp.MustCompile(`(?i)^(select|show|with|values|explain)\b`)

// isQueryMode reports whether sql is expected to return rows.
func isQueryMode(sql string) bool {
	return queryModeKeyword.MatchString(strings.TrimSpace(sql))
}

var createTablePKPattern = regexp.MustCompile(`(?is)^CREATE\s+TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?"?([\w]+)"?\s*\(\s*"?([\w]+)"?\s+(BIGSERIAL|SERIAL)\b[^,)]*PRIMARY\s+KEY`)

var insertIntoPattern = regexp.MustCompile(`(?is)^INSERT\s+INTO\s+"?([\w]+)"?`)
var hasReturningPattern = regexp.MustCompile(`(?is)\bRETURNING\b`)

// Exec runs one already-translated, PostgreSQL-dialect SQL statement on
// the owned backend connection and shapes the outcome into a Result or
// a classified GatewayError.
func (e *Executor) Exec(ctx context.Context, sql string) (*Result, *gwerr.GatewayError) {
	start := time.Now()
	trace := Trace{StmtType: firstWord(sql)}

	defer func() {
		trace.Total = time.Since(start)
		if e.Trace != nil {
			e.Trace(trace)
		}
	}()

	if isQueryMode(sql) {
		res, err := e.runQuery(ctx, sql)
		if err != nil {
			return nil, classifyErr(err)
		}
		trace.RowsReturned = int64(len(res.Set.Rows))
		return res, nil
	}

	res, pgerr := e.runCommand(ctx, sql)
	if pgerr != nil {
		return nil, pgerr
	}
	trace.RowsReturned = int64(res.OK.AffectedRows)
	return res, nil
}

func (e *Executor) runQuery(ctx context.Context, sql string) (*Result, error) {
	rows, err := e.conn.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	cols := make([]resultset.Column, len(fields))
	for i, f := range fields {
		cols[i] = resultset.Column{
			Name:   f.Name,
			Type:   mysqlTypeForOID(f.DataTypeOID),
			Length: 255,
		}
	}

	var out [][][]byte
	for rows.Next() {
		raw := rows.RawValues()
		row := make([][]byte, len(fields))
		for i, f := range fields {
			row[i] = formatValue(f.DataTypeOID, raw[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &Result{Set: &resultset.Set{Columns: cols, Rows: out}}, nil
}

func (e *Executor) runCommand(ctx context.Context, sql string) (*Result, *gwerr.GatewayError) {
	sql, pkCol := e.withReturningPK(sql)

	if pkCol != "" {
		row := e.conn.QueryRow(ctx, sql)
		var lastID uint64
		if err := row.Scan(&lastID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return &Result{OK: &resultset.OK{}}, nil
			}
			return nil, classifyErr(err)
		}
		e.noteCreateTable(sql)
		return &Result{OK: &resultset.OK{AffectedRows: 1, LastInsertID: lastID}}, nil
	}

	tag, err := e.conn.Exec(ctx, sql)
	if err != nil {
		return nil, classifyErr(err)
	}
	e.noteCreateTable(sql)
	return &Result{OK: &resultset.OK{AffectedRows: uint64(tag.RowsAffected())}}, nil
}

// withReturningPK appends "RETURNING <pk>" to an INSERT that targets a
// table whose SERIAL/BIGSERIAL primary key this connection has already
// learned about and whose statement doesn't already carry a RETURNING
// clause. The empty-string return means last-insert-id stays 0.
func (e *Executor) withReturningPK(sql string) (string, string) {
	m := insertIntoPattern.FindStringSubmatch(sql)
	if m == nil || hasReturningPattern.MatchString(sql) {
		return sql, ""
	}
	pk, ok := e.serialPK[strings.ToLower(m[1])]
	if !ok {
		return sql, ""
	}
	return strings.TrimRight(strings.TrimSpace(sql), ";") + fmt.Sprintf(" RETURNING %q", pk), pk
}

// noteCreateTable records the SERIAL/BIGSERIAL primary key of a just-
// executed CREATE TABLE, if any, so later INSERTs into that table can
// resolve LAST_INSERT_ID().
func (e *Executor) noteCreateTable(sql string) {
	m := createTablePKPattern.FindStringSubmatch(sql)
	if m == nil {
		return
	}
	e.serialPK[strings.ToLower(m[1])] = m[2]
}

func firstWord(sql string) string {
	sql = strings.TrimSpace(sql)
	i := strings.IndexFunc(sql, func(r rune) bool { return r == ' ' || r == '\n' || r == '\t' || r == '(' })
	if i < 0 {
		return strings.ToUpper(sql)
	}
	return strings.ToUpper(sql[:i])
}

// classifyErr maps a backend error to a GatewayError. A
// *pgconn.PgError means PostgreSQL parsed and rejected the statement
// (syntax or constraint violation) and the session survives; anything
// else is treated as a transport-level failure and marks the session
// fatal.
func classifyErr(err error) *gwerr.GatewayError {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		code := mysqlproto.ErrParseError
		if pgErr.Code == "42703" { // undefined_column
			code = mysqlproto.ErrUnknownColumn
		}
		return gwerr.BackendSyntax(code, pgErr.Code, pgErr.Message)
	}
	return gwerr.BackendConnection("%v", err)
}
