// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package auth

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/roster/internal/config"
	"github.com/tomtom215/roster/internal/database"
	"github.com/tomtom215/roster/internal/logging"
)

// SessionStoreType defines the type of session storage backend.
type SessionStoreType string

const (
	// SessionStoreDatabase keeps sessions in the relational store (default).
	SessionStoreDatabase SessionStoreType = "database"

	// SessionStoreBadger uses BadgerDB for persistent session storage.
	SessionStoreBadger SessionStoreType = "badger"

	// SessionStoreMemory keeps sessions in process memory; they are lost on restart.
	SessionStoreMemory SessionStoreType = "memory"
)

// SessionStoreFactory creates the configured session store and owns any
// resources the store needs (the BadgerDB handle).
type SessionStoreFactory struct {
	storeType SessionStoreType
	gw        *database.Gateway
	db        *badger.DB
}

// NewSessionStoreFactory prepares the backend named by cfg.Store. For
// "badger" it opens the database at cfg.BadgerPath; gw is required for
// "database".
func NewSessionStoreFactory(cfg *config.SessionConfig, gw *database.Gateway) (*SessionStoreFactory, error) {
	storeType := SessionStoreType(cfg.Store)
	if storeType == "" {
		storeType = SessionStoreDatabase
	}

	factory := &SessionStoreFactory{storeType: storeType, gw: gw}

	switch storeType {
	case SessionStoreDatabase:
		if gw == nil {
			return nil, fmt.Errorf("session store %q requires a database", storeType)
		}
	case SessionStoreBadger:
		opts := badger.DefaultOptions(cfg.BadgerPath)
		opts.Logger = nil // Suppress BadgerDB logs

		db, err := badger.Open(opts)
		if err != nil {
			return nil, fmt.Errorf("open badger db for sessions: %w", err)
		}
		factory.db = db
	case SessionStoreMemory:
	default:
		return nil, fmt.Errorf("unknown session store %q", storeType)
	}

	return factory, nil
}

// CreateStore creates a SessionStore based on the factory's configuration.
func (f *SessionStoreFactory) CreateStore() SessionStore {
	switch {
	case f.db != nil:
		return NewBadgerSessionStore(f.db)
	case f.storeType == SessionStoreDatabase:
		return NewDatabaseSessionStore(f.gw)
	default:
		logging.Warn().Msg("Using in-memory session store: sessions are volatile and lost on restart")
		return NewMemorySessionStore()
	}
}

// Close closes the underlying BadgerDB if one was opened.
func (f *SessionStoreFactory) Close() error {
	if f.db != nil {
		return f.db.Close()
	}
	return nil
}
