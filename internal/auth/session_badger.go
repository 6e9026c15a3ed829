// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// sessionKeyPrefix namespaces session keys in BadgerDB.
const sessionKeyPrefix = "session:"

// badgerRecord is the value stored under a session key.
type badgerRecord struct {
	State     State     `json:"state"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// BadgerSessionStore implements SessionStore using BadgerDB for durable storage.
// Entries carry a Badger TTL so expired sessions also disappear on compaction.
type BadgerSessionStore struct {
	db *badger.DB
}

// NewBadgerSessionStore creates a new BadgerDB-backed session store.
func NewBadgerSessionStore(db *badger.DB) *BadgerSessionStore {
	return &BadgerSessionStore{db: db}
}

// Name returns "badger".
func (s *BadgerSessionStore) Name() string { return "badger" }

func sessionKey(id string) []byte {
	return []byte(sessionKeyPrefix + id)
}

func setRecord(txn *badger.Txn, id string, rec *badgerRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	ttl := time.Until(rec.ExpiresAt)
	if ttl <= 0 {
		return txn.Delete(sessionKey(id))
	}
	return txn.SetEntry(badger.NewEntry(sessionKey(id), data).WithTTL(ttl))
}

func getRecord(txn *badger.Txn, id string) (*badgerRecord, error) {
	item, err := txn.Get(sessionKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var rec badgerRecord
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &rec, nil
}

// Get retrieves a session by ID.
func (s *BadgerSessionStore) Get(_ context.Context, id string) (*Session, error) {
	var rec *badgerRecord
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		rec, err = getRecord(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	session := &Session{ID: id, State: rec.State, ExpiresAt: rec.ExpiresAt, persisted: true}
	if session.IsExpired() {
		return nil, ErrSessionExpired
	}
	return session, nil
}

// Save creates or replaces a session.
func (s *BadgerSessionStore) Save(_ context.Context, session *Session) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return setRecord(txn, session.ID, &badgerRecord{State: session.State, ExpiresAt: session.ExpiresAt})
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	session.persisted = true
	return nil
}

// Touch extends the session's expiry.
func (s *BadgerSessionStore) Touch(_ context.Context, id string, expiresAt time.Time) error {
	return s.db.Update(func(txn *badger.Txn) error {
		rec, err := getRecord(txn, id)
		if err != nil {
			return err
		}
		rec.ExpiresAt = expiresAt
		return setRecord(txn, id, rec)
	})
}

// Delete removes a session by ID.
func (s *BadgerSessionStore) Delete(_ context.Context, id string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(sessionKey(id))
	})
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// CleanupExpired removes sessions whose recorded expiry has passed. Badger
// TTLs have one-second granularity, so a record can outlive its expiry briefly.
func (s *BadgerSessionStore) CleanupExpired(ctx context.Context) (int, error) {
	var expired [][]byte
	now := time.Now()

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(sessionKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			item := it.Item()
			var rec badgerRecord
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				// Unreadable records are dropped along with expired ones.
				expired = append(expired, item.KeyCopy(nil))
				continue
			}
			if !now.Before(rec.ExpiresAt) {
				expired = append(expired, item.KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan sessions: %w", err)
	}

	count := 0
	for _, key := range expired {
		if err := s.db.Update(func(txn *badger.Txn) error {
			return txn.Delete(key)
		}); err != nil {
			continue
		}
		count++
	}
	return count, nil
}

// Count returns the number of live sessions in the store.
func (s *BadgerSessionStore) Count() (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(sessionKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}
