// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
)

func newTestBadger(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestBadgerSessionStore_Contract(t *testing.T) {
	t.Parallel()
	storeContract(t, NewBadgerSessionStore(newTestBadger(t)))
}

func TestBadgerSessionStore_ExpiredSaveIsDropped(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewBadgerSessionStore(newTestBadger(t))

	s := &Session{ID: "gone", ExpiresAt: time.Now().Add(-time.Second)}
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := store.Get(ctx, "gone"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get error = %v, want ErrSessionNotFound", err)
	}
}

func TestBadgerSessionStore_CountAndCleanup(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewBadgerSessionStore(newTestBadger(t))

	for i := 0; i < 3; i++ {
		if err := store.Save(ctx, NewSession(time.Hour)); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	n, err := store.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 3 {
		t.Errorf("Count = %d, want 3", n)
	}

	removed, err := store.CleanupExpired(ctx)
	if err != nil {
		t.Fatalf("CleanupExpired: %v", err)
	}
	if removed != 0 {
		t.Errorf("CleanupExpired removed %d live sessions", removed)
	}
}
