// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// Session-related errors
var (
	// ErrSessionNotFound is returned when a session is not found in the store.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExpired is returned when trying to access an expired session.
	ErrSessionExpired = errors.New("session expired")
)

// AdminState is the state carried by a session after a successful login.
type AdminState struct {
	AdminID   int64
	LoginTime time.Time
}

// State is the typed session state: either anonymous or admin.
// The zero value is anonymous.
type State struct {
	admin *AdminState
}

// Anonymous returns the state of a session that has not logged in.
func Anonymous() State {
	return State{}
}

// AdminSession returns the state of a session promoted by a login.
func AdminSession(adminID int64, loginTime time.Time) State {
	return State{admin: &AdminState{AdminID: adminID, LoginTime: loginTime.UTC()}}
}

// Admin returns the admin state and true if the session is an admin session.
func (s State) Admin() (AdminState, bool) {
	if s.admin == nil || s.admin.AdminID <= 0 {
		return AdminState{}, false
	}
	return *s.admin, true
}

// IsAdmin reports whether the session has been promoted by a login.
func (s State) IsAdmin() bool {
	_, ok := s.Admin()
	return ok
}

// stateJSON is the persisted form of State.
type stateJSON struct {
	IsAdmin   bool       `json:"isAdmin"`
	AdminID   int64      `json:"adminId,omitempty"`
	LoginTime *time.Time `json:"loginTime,omitempty"`
}

// MarshalJSON encodes the state as {isAdmin, adminId?, loginTime?}.
func (s State) MarshalJSON() ([]byte, error) {
	a, ok := s.Admin()
	if !ok {
		return json.Marshal(stateJSON{})
	}
	t := a.LoginTime
	return json.Marshal(stateJSON{IsAdmin: true, AdminID: a.AdminID, LoginTime: &t})
}

// UnmarshalJSON decodes a persisted state. An isAdmin flag without an admin
// id decodes as anonymous.
func (s *State) UnmarshalJSON(data []byte) error {
	var raw stateJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode session state: %w", err)
	}
	if !raw.IsAdmin || raw.AdminID <= 0 {
		*s = Anonymous()
		return nil
	}
	var login time.Time
	if raw.LoginTime != nil {
		login = *raw.LoginTime
	}
	*s = AdminSession(raw.AdminID, login)
	return nil
}

// Session is a server-side session record.
type Session struct {
	// ID is the opaque session identifier carried in the signed cookie.
	ID string

	// State is anonymous until a login promotes it.
	State State

	// ExpiresAt is when the session stops being valid.
	ExpiresAt time.Time

	// persisted is true once the session has been written to a store.
	persisted bool
}

// NewSession creates an anonymous, unsaved session expiring after ttl.
func NewSession(ttl time.Duration) *Session {
	return &Session{
		ID:        generateSessionID(),
		ExpiresAt: time.Now().UTC().Add(ttl),
	}
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return !time.Now().Before(s.ExpiresAt)
}

// Persisted reports whether the session exists in a store.
func (s *Session) Persisted() bool {
	return s.persisted
}

func (s *Session) clone() *Session {
	c := *s
	if s.State.admin != nil {
		a := *s.State.admin
		c.State.admin = &a
	}
	return &c
}

// generateSessionID generates a cryptographically secure session ID.
func generateSessionID() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand does not fail on supported platforms.
		panic(fmt.Sprintf("auth: read random bytes: %v", err))
	}
	return hex.EncodeToString(b)
}

// SessionStore defines the interface for session storage backends.
// Implementations serialize operations on a single session id.
type SessionStore interface {
	// Get retrieves a session by ID.
	// Returns ErrSessionNotFound if not found.
	// Returns ErrSessionExpired if the session exists but is expired.
	Get(ctx context.Context, id string) (*Session, error)

	// Save creates or replaces a session.
	Save(ctx context.Context, session *Session) error

	// Touch extends the session's expiry.
	// Returns ErrSessionNotFound if not found.
	Touch(ctx context.Context, id string, expiresAt time.Time) error

	// Delete removes a session by ID.
	// Does not return error if session doesn't exist.
	Delete(ctx context.Context, id string) error

	// CleanupExpired removes all expired sessions and returns how many were removed.
	CleanupExpired(ctx context.Context) (int, error)

	// Name identifies the backend in logs.
	Name() string
}

// MemorySessionStore is an in-memory implementation of SessionStore.
// Sessions do not survive a restart.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*Session),
	}
}

// Name returns "memory".
func (s *MemorySessionStore) Name() string { return "memory" }

// Get retrieves a session by ID.
func (s *MemorySessionStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if session.IsExpired() {
		return nil, ErrSessionExpired
	}

	c := session.clone()
	c.persisted = true
	return c, nil
}

// Save creates or replaces a session.
func (s *MemorySessionStore) Save(_ context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.ID] = session.clone()
	session.persisted = true
	return nil
}

// Touch extends the session's expiry.
func (s *MemorySessionStore) Touch(_ context.Context, id string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	session.ExpiresAt = expiresAt
	return nil
}

// Delete removes a session by ID.
func (s *MemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

// CleanupExpired removes all expired sessions.
func (s *MemorySessionStore) CleanupExpired(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for id, session := range s.sessions {
		if session.IsExpired() {
			delete(s.sessions, id)
			count++
		}
	}
	return count, nil
}

// Len returns the number of stored sessions, expired ones included.
func (s *MemorySessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
