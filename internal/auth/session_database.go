// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/roster/internal/database"
)

// DatabaseSessionStore keeps sessions in the sessions table so they survive
// restarts.
type DatabaseSessionStore struct {
	gw *database.Gateway
}

// NewDatabaseSessionStore creates a store over the gateway. The schema must
// already exist.
func NewDatabaseSessionStore(gw *database.Gateway) *DatabaseSessionStore {
	return &DatabaseSessionStore{gw: gw}
}

// Name returns "database".
func (s *DatabaseSessionStore) Name() string { return "database" }

// Get retrieves a session by ID.
func (s *DatabaseSessionStore) Get(ctx context.Context, id string) (*Session, error) {
	var (
		raw       string
		expiresAt time.Time
	)
	found, err := s.gw.QueryOne(ctx,
		`SELECT sess, expires_at FROM sessions WHERE sid = $1`,
		func(sc database.Scanner) error { return sc.Scan(&raw, &expiresAt) },
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if !found {
		return nil, ErrSessionNotFound
	}

	session := &Session{ID: id, ExpiresAt: expiresAt.UTC(), persisted: true}
	if session.IsExpired() {
		return nil, ErrSessionExpired
	}
	if err := json.Unmarshal([]byte(raw), &session.State); err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// Save creates or replaces a session.
func (s *DatabaseSessionStore) Save(ctx context.Context, session *Session) error {
	data, err := json.Marshal(session.State)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	// sessions has no id column; RETURNING 0 keeps the insert path happy.
	if _, err := s.gw.Exec(ctx,
		`INSERT INTO sessions (sid, sess, expires_at) VALUES ($1, $2, $3)
		 ON CONFLICT (sid) DO UPDATE SET sess = EXCLUDED.sess, expires_at = EXCLUDED.expires_at
		 RETURNING 0`,
		session.ID, string(data), session.ExpiresAt.UTC(),
	); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	session.persisted = true
	return nil
}

// Touch extends the session's expiry.
func (s *DatabaseSessionStore) Touch(ctx context.Context, id string, expiresAt time.Time) error {
	res, err := s.gw.Exec(ctx,
		`UPDATE sessions SET expires_at = $1 WHERE sid = $2`,
		expiresAt.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if res.Affected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// Delete removes a session by ID.
func (s *DatabaseSessionStore) Delete(ctx context.Context, id string) error {
	if _, err := s.gw.Exec(ctx, `DELETE FROM sessions WHERE sid = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// CleanupExpired removes all expired sessions.
func (s *DatabaseSessionStore) CleanupExpired(ctx context.Context) (int, error) {
	res, err := s.gw.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("cleanup sessions: %w", err)
	}
	return int(res.Affected), nil
}
