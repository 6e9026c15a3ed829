// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Kind classifies a storage failure for the HTTP layer.
type Kind int

const (
	// KindPermanent is any failure that retrying will not fix.
	KindPermanent Kind = iota
	// KindTransient is a failure that may succeed after a backoff.
	KindTransient
	// KindConstraint is a unique, foreign key, not-null or check violation.
	KindConstraint
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindConstraint:
		return "constraint"
	default:
		return "permanent"
	}
}

var (
	// ErrPoolExhausted is returned when the waiter queue is already full.
	ErrPoolExhausted = errors.New("database pool exhausted")
	// ErrPoolTimeout is returned when a queued caller waited longer than AcquireTimeout.
	ErrPoolTimeout = errors.New("timed out waiting for a database connection")
	// ErrNotFound is returned by service reads that require a row.
	ErrNotFound = errors.New("record not found")
	// ErrClosed is returned by calls made after Close.
	ErrClosed = errors.New("database gateway closed")
)

// Error is a classified storage failure.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("database %s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the classification of err, or KindPermanent when err is
// not a storage error.
func KindOf(err error) Kind {
	var dbErr *Error
	if errors.As(err, &dbErr) {
		return dbErr.Kind
	}
	return KindPermanent
}

// IsConstraint reports whether err is a constraint violation.
func IsConstraint(err error) bool {
	return err != nil && KindOf(err) == KindConstraint
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	return err != nil && KindOf(err) == KindTransient
}

// wrap classifies a driver error. nil stays nil and errors that are already
// classified pass through.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var dbErr *Error
	if errors.As(err, &dbErr) {
		return err
	}
	return &Error{Kind: classify(err), Op: op, Err: err}
}

func classify(err error) Kind {
	switch {
	case errors.Is(err, ErrPoolExhausted), errors.Is(err, ErrPoolTimeout):
		return KindTransient
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, driver.ErrBadConn):
		return KindTransient
	case errors.Is(err, io.ErrUnexpectedEOF):
		return KindTransient
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classifyPostgres(pgErr.Code)
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() & 0xff {
		case sqlite3.SQLITE_CONSTRAINT:
			return KindConstraint
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return KindTransient
		}
		return KindPermanent
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindTransient
	}
	if pgconn.SafeToRetry(err) {
		return KindTransient
	}
	return KindPermanent
}

// classifyPostgres maps SQLSTATE classes.
func classifyPostgres(code string) Kind {
	switch {
	case strings.HasPrefix(code, "23"):
		return KindConstraint
	case strings.HasPrefix(code, "08"), strings.HasPrefix(code, "53"), strings.HasPrefix(code, "57P"):
		return KindTransient
	case code == "40001", code == "40P01":
		return KindTransient
	default:
		return KindPermanent
	}
}

// closeQuietly closes a resource in error paths where the Close error is not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}
