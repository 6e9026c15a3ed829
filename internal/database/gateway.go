// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package database

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/roster/internal/config"
	"github.com/tomtom215/roster/internal/logging"
)

// slowQueryThreshold is the duration above which a call is logged at warn level.
const slowQueryThreshold = 500 * time.Millisecond

var (
	insertPattern    = regexp.MustCompile(`(?is)^\s*insert\b`)
	returningPattern = regexp.MustCompile(`(?is)\breturning\b`)
)

// Scanner is the subset of *sql.Row and *sql.Rows used by scan callbacks.
type Scanner interface {
	Scan(dest ...any) error
}

// Result reports the outcome of Exec.
type Result struct {
	// InsertedID is the id of the inserted row. Zero for updates and deletes.
	InsertedID int64
	// Affected is the number of rows inserted, updated or deleted.
	Affected int64
}

// Gateway is the storage gateway over a bounded connection pool.
type Gateway struct {
	db           *sql.DB
	dialect      Dialect
	pool         *admission
	queryTimeout time.Duration
	closed       atomic.Bool
}

// Open connects to the database named by cfg.URL and verifies the connection.
func Open(ctx context.Context, cfg *config.DatabaseConfig) (*Gateway, error) {
	src, err := parseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(src.driver, src.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 10
	}
	if src.dialect == DialectSQLite {
		// SQLite serializes writers; one connection avoids SQLITE_BUSY
		// and keeps in-memory databases alive for the life of the pool.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
	} else {
		db.SetMaxOpenConns(maxOpen)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		db.SetConnMaxIdleTime(5 * time.Minute)
	}

	g := &Gateway{
		db:           db,
		dialect:      src.dialect,
		pool:         newAdmission(maxOpen, cfg.MaxWaiters, cfg.AcquireTimeout),
		queryTimeout: cfg.QueryTimeout,
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		closeQuietly(db)
		return nil, fmt.Errorf("failed to connect to %s database: %w", src.dialect, err)
	}

	logging.Info().
		Str("dialect", string(src.dialect)).
		Bool("memory", src.memory).
		Int("max_open_conns", maxOpen).
		Int("max_waiters", cfg.MaxWaiters).
		Msg("Database connected")

	return g, nil
}

// OpenMemory opens a private in-memory SQLite database. Each call gets a
// fresh database.
func OpenMemory(ctx context.Context) (*Gateway, error) {
	return Open(ctx, &config.DatabaseConfig{
		URL:            fmt.Sprintf("file:roster-%s?mode=memory&cache=shared", uuid.NewString()),
		MaxOpenConns:   4,
		MaxWaiters:     64,
		AcquireTimeout: 5 * time.Second,
		QueryTimeout:   10 * time.Second,
	})
}

// Dialect returns the SQL flavor of the connected database.
func (g *Gateway) Dialect() Dialect {
	return g.dialect
}

// Stats returns pool admission statistics.
func (g *Gateway) Stats() PoolStats {
	return g.pool.stats()
}

// begin admits the caller and derives the per-call deadline.
func (g *Gateway) begin(ctx context.Context) (context.Context, func(), error) {
	if g.closed.Load() {
		return nil, nil, ErrClosed
	}
	release, err := g.pool.acquire(ctx)
	if err != nil {
		return nil, nil, err
	}
	if g.queryTimeout <= 0 {
		return ctx, release, nil
	}
	callCtx, cancel := context.WithTimeout(ctx, g.queryTimeout)
	return callCtx, func() {
		cancel()
		release()
	}, nil
}

func (g *Gateway) observe(ctx context.Context, op, query string, start time.Time, err error) {
	elapsed := time.Since(start)
	if err != nil {
		logging.CtxError(ctx).Str("op", op).Dur("duration", elapsed).Err(err).Msg("Database call failed")
		return
	}
	if elapsed > slowQueryThreshold {
		logging.CtxWarn(ctx).Str("op", op).Str("query", query).Dur("duration", elapsed).Msg("Slow database call")
	}
}

// Query runs a read and calls scan once per row. The connection is released
// before Query returns.
func (g *Gateway) Query(ctx context.Context, query string, scan func(Scanner) error, args ...any) (err error) {
	start := time.Now()
	defer func() { g.observe(ctx, "query", query, start, err) }()

	callCtx, done, err := g.begin(ctx)
	if err != nil {
		return wrap("query", err)
	}
	defer done()

	rows, err := g.db.QueryContext(callCtx, query, args...)
	if err != nil {
		return wrap("query", err)
	}
	defer closeQuietly(rows)

	for rows.Next() {
		if err := scan(rows); err != nil {
			return wrap("query scan", err)
		}
	}
	return wrap("query", rows.Err())
}

// QueryOne runs a read expected to return at most one row. It reports
// whether a row was found; a missing row is not an error.
func (g *Gateway) QueryOne(ctx context.Context, query string, scan func(Scanner) error, args ...any) (found bool, err error) {
	start := time.Now()
	defer func() { g.observe(ctx, "query_one", query, start, err) }()

	callCtx, done, err := g.begin(ctx)
	if err != nil {
		return false, wrap("query_one", err)
	}
	defer done()

	rows, err := g.db.QueryContext(callCtx, query, args...)
	if err != nil {
		return false, wrap("query_one", err)
	}
	defer closeQuietly(rows)

	if !rows.Next() {
		return false, wrap("query_one", rows.Err())
	}
	if err := scan(rows); err != nil {
		return false, wrap("query_one scan", err)
	}
	return true, nil
}

// Exec runs an insert, update or delete. INSERT statements without a
// RETURNING clause are rewritten to return the id column so that
// Result.InsertedID is always populated for inserts.
func (g *Gateway) Exec(ctx context.Context, query string, args ...any) (res Result, err error) {
	start := time.Now()
	defer func() { g.observe(ctx, "exec", query, start, err) }()

	callCtx, done, err := g.begin(ctx)
	if err != nil {
		return Result{}, wrap("exec", err)
	}
	defer done()

	if insertPattern.MatchString(query) {
		return g.insert(callCtx, query, args)
	}

	r, err := g.db.ExecContext(callCtx, query, args...)
	if err != nil {
		return Result{}, wrap("exec", err)
	}
	affected, err := r.RowsAffected()
	if err != nil {
		return Result{}, wrap("exec", err)
	}
	return Result{Affected: affected}, nil
}

func (g *Gateway) insert(ctx context.Context, query string, args []any) (Result, error) {
	if !returningPattern.MatchString(query) {
		query += " RETURNING id"
	}

	rows, err := g.db.QueryContext(ctx, query, args...)
	if err != nil {
		return Result{}, wrap("insert", err)
	}
	defer closeQuietly(rows)

	var res Result
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return Result{}, wrap("insert scan", err)
		}
		if res.Affected == 0 {
			res.InsertedID = id
		}
		res.Affected++
	}
	if err := rows.Err(); err != nil {
		return Result{}, wrap("insert", err)
	}
	return res, nil
}

// Ping verifies the database is reachable. It bypasses pool admission so a
// saturated pool does not read as an outage.
func (g *Gateway) Ping(ctx context.Context) error {
	if g.closed.Load() {
		return ErrClosed
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return wrap("ping", g.db.PingContext(pingCtx))
}

// Close closes the underlying pool. Subsequent calls fail with ErrClosed.
func (g *Gateway) Close() error {
	if !g.closed.CompareAndSwap(false, true) {
		return nil
	}
	logging.Info().Msg("Closing database")
	return g.db.Close()
}
