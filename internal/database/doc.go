// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

// Package database is the storage gateway for Roster.
//
// # Overview
//
// The gateway wraps database/sql behind three operations:
//
//   - Query: read many rows, scanning each through a callback
//   - QueryOne: read at most one row, reporting whether it existed
//   - Exec: insert, update or delete, returning the inserted id and affected count
//
// Connections are checked out and released inside each call, so no *sql.Rows
// or *sql.Conn ever escapes the package.
//
// # Drivers
//
// The DATABASE_URL scheme selects the driver:
//
//   - postgres:// and postgresql:// use jackc/pgx/v5 through its database/sql adapter
//   - sqlite:// and file: use modernc.org/sqlite (pure Go, used for tests and local runs)
//
// All SQL uses $n positional placeholders, which both drivers accept. INSERT
// statements without a RETURNING clause are rewritten to return the new id.
//
// # Pool Admission
//
// A weighted semaphore caps concurrent calls at MaxOpenConns and a waiter
// counter caps how many callers may queue behind it. A caller that finds the
// queue full fails at once with ErrPoolExhausted; a queued caller that waits
// longer than AcquireTimeout fails with ErrPoolTimeout. Both are transient and
// distinct from SQL errors.
//
// # Errors
//
// Driver errors are wrapped in *Error with a Kind of KindConstraint,
// KindTransient or KindPermanent so the HTTP layer can map them to 409, 503
// and 500 respectively.
//
// # Schema Bootstrap
//
// Bootstrap creates the admins, players, managers, trophies, contacts and
// sessions tables if they do not exist and inserts the configured default
// admin when the admins table is empty.
package database
