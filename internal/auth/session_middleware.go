// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"

	"github.com/tomtom215/roster/internal/config"
	"github.com/tomtom215/roster/internal/logging"
)

// SessionManagerConfig holds configuration for the session middleware.
type SessionManagerConfig struct {
	// CookieName is the name of the session cookie.
	CookieName string

	// Secret signs the cookie value (HMAC-SHA256).
	Secret string

	// TTL is the session lifetime, renewed on every request.
	TTL time.Duration

	// CookieSecure sets the Secure flag on the cookie.
	CookieSecure bool

	// CookieSameSite sets the SameSite attribute.
	CookieSameSite http.SameSite

	// ErrorHandler writes auth failures. Defaults to plain status responses.
	ErrorHandler ErrorHandler

	// Security receives access-denied and logout events.
	Security *logging.SecurityLogger
}

// SessionManagerConfigFrom derives the session settings from the application
// config: Secure and SameSite=Strict in production, Lax otherwise.
func SessionManagerConfigFrom(cfg *config.Config) SessionManagerConfig {
	sameSite := http.SameSiteLaxMode
	if cfg.IsProduction() {
		sameSite = http.SameSiteStrictMode
	}
	return SessionManagerConfig{
		CookieName:     cfg.Session.CookieName,
		Secret:         cfg.Session.Secret,
		TTL:            cfg.Session.TTL,
		CookieSecure:   cfg.IsProduction(),
		CookieSameSite: sameSite,
	}
}

// sessionContextKey is the context key for the resolved session.
type sessionContextKey struct{}

// resolved is the per-request session slot. Login and logout replace the
// session in place so handlers later in the chain see the change.
type resolved struct {
	session  *Session
	storeErr error
}

// SessionManager resolves sessions from the signed cookie and guards admin routes.
type SessionManager struct {
	store    SessionStore
	codec    *securecookie.SecureCookie
	config   SessionManagerConfig
	security *logging.SecurityLogger
	onError  ErrorHandler
}

// NewSessionManager creates a session manager. store may be nil, in which
// case every request is anonymous and admin routes answer 503.
func NewSessionManager(store SessionStore, cfg SessionManagerConfig) (*SessionManager, error) {
	if cfg.Secret == "" {
		return nil, errors.New("session secret is required")
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "roster.sid"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.CookieSameSite == 0 {
		cfg.CookieSameSite = http.SameSiteLaxMode
	}

	codec := securecookie.New([]byte(cfg.Secret), nil)
	codec.MaxAge(int(cfg.TTL / time.Second))

	m := &SessionManager{
		store:    store,
		codec:    codec,
		config:   cfg,
		security: cfg.Security,
		onError:  cfg.ErrorHandler,
	}
	if m.security == nil {
		m.security = logging.NewSecurityLogger()
	}
	if m.onError == nil {
		m.onError = defaultErrorHandler
	}
	return m, nil
}

// Store returns the backing session store, or nil.
func (m *SessionManager) Store() SessionStore {
	return m.store
}

// CookieName returns the configured session cookie name.
func (m *SessionManager) CookieName() string {
	return m.config.CookieName
}

// Resolve loads the session named by the cookie into the request context.
// Requests without a valid cookie get a fresh anonymous session that is not
// persisted. Persisted sessions have their expiry and cookie renewed.
func (m *SessionManager) Resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slot := m.load(r)

		if slot.session.Persisted() {
			m.renew(r.Context(), w, slot.session)
		}

		ctx := context.WithValue(r.Context(), sessionContextKey{}, slot)
		if a, ok := slot.session.State.Admin(); ok {
			ctx = logging.ContextWithAdminID(ctx, a.AdminID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *SessionManager) load(r *http.Request) *resolved {
	slot := &resolved{session: NewSession(m.config.TTL)}
	if m.store == nil {
		slot.storeErr = ErrStoreUnavailable
		return slot
	}

	id := m.readCookie(r)
	if id == "" {
		return slot
	}

	session, err := m.store.Get(r.Context(), id)
	switch {
	case err == nil:
		slot.session = session
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrSessionExpired):
	default:
		logging.CtxError(r.Context()).Err(err).Str("store", m.store.Name()).Msg("Session lookup error")
		slot.storeErr = fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return slot
}

func (m *SessionManager) renew(ctx context.Context, w http.ResponseWriter, s *Session) {
	expiresAt := time.Now().UTC().Add(m.config.TTL)
	if err := m.store.Touch(ctx, s.ID, expiresAt); err != nil {
		logging.CtxWarn(ctx).Err(err).Msg("Failed to touch session")
		return
	}
	s.ExpiresAt = expiresAt
	m.setCookie(w, s)
}

func (m *SessionManager) readCookie(r *http.Request) string {
	cookie, err := r.Cookie(m.config.CookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	var id string
	if err := m.codec.Decode(m.config.CookieName, cookie.Value, &id); err != nil {
		logging.CtxDebug(r.Context()).Err(err).Msg("Ignoring invalid session cookie")
		return ""
	}
	return id
}

func (m *SessionManager) setCookie(w http.ResponseWriter, s *Session) {
	value, err := m.codec.Encode(m.config.CookieName, s.ID)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to encode session cookie")
		return
	}
	m.replaceCookie(w, &http.Cookie{
		Name:     m.config.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  s.ExpiresAt,
		MaxAge:   int(time.Until(s.ExpiresAt) / time.Second),
		Secure:   m.config.CookieSecure,
		HttpOnly: true,
		SameSite: m.config.CookieSameSite,
	})
}

// ClearCookie expires the session cookie on the client.
func (m *SessionManager) ClearCookie(w http.ResponseWriter) {
	m.replaceCookie(w, &http.Cookie{
		Name:     m.config.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   m.config.CookieSecure,
		HttpOnly: true,
		SameSite: m.config.CookieSameSite,
	})
}

// replaceCookie sets c after dropping any session cookie already queued on
// w, so a renewal from Resolve never shadows a later login or logout.
func (m *SessionManager) replaceCookie(w http.ResponseWriter, c *http.Cookie) {
	h := w.Header()
	prefix := m.config.CookieName + "="
	var kept []string
	for _, v := range h.Values("Set-Cookie") {
		if !strings.HasPrefix(v, prefix) {
			kept = append(kept, v)
		}
	}
	h.Del("Set-Cookie")
	for _, v := range kept {
		h.Add("Set-Cookie", v)
	}
	http.SetCookie(w, c)
}

func slotFrom(ctx context.Context) *resolved {
	slot, _ := ctx.Value(sessionContextKey{}).(*resolved)
	return slot
}

// FromContext returns the session resolved for the request, or nil if the
// Resolve middleware did not run.
func FromContext(ctx context.Context) *Session {
	if slot := slotFrom(ctx); slot != nil {
		return slot.session
	}
	return nil
}

// Promote replaces the request's session with a new one carrying state.
// The session id is always rotated and any previous session is deleted.
func (m *SessionManager) Promote(ctx context.Context, w http.ResponseWriter, state State) (*Session, error) {
	if m.store == nil {
		return nil, ErrStoreUnavailable
	}

	slot := slotFrom(ctx)
	if slot != nil && slot.session.Persisted() {
		if err := m.store.Delete(ctx, slot.session.ID); err != nil {
			logging.CtxWarn(ctx).Err(err).Msg("Failed to delete previous session")
		}
	}

	session := NewSession(m.config.TTL)
	session.State = state
	if err := m.store.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	m.setCookie(w, session)

	if slot != nil {
		slot.session = session
		slot.storeErr = nil
	}
	return session, nil
}

// Destroy deletes the request's session and clears the cookie. Store
// failures are logged; the client is logged out either way.
func (m *SessionManager) Destroy(ctx context.Context, w http.ResponseWriter) {
	slot := slotFrom(ctx)
	if slot != nil && slot.session.Persisted() && m.store != nil {
		if err := m.store.Delete(ctx, slot.session.ID); err != nil {
			logging.CtxError(ctx).Err(err).
				Str("session_id", logging.SanitizeSessionID(slot.session.ID)).
				Msg("Failed to delete session")
		}
	}
	m.ClearCookie(w)
	if slot != nil {
		slot.session = NewSession(m.config.TTL)
	}
}

// RequireAdmin admits only requests whose session is an admin session.
// Without a reachable store it answers ErrStoreUnavailable. A non-admin
// session is destroyed and the request refused with ErrAdminRequired.
func (m *SessionManager) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		slot := slotFrom(ctx)
		if m.store == nil || slot == nil || slot.storeErr != nil {
			err := ErrStoreUnavailable
			if slot != nil && slot.storeErr != nil {
				err = slot.storeErr
			}
			m.onError(w, r, err)
			return
		}

		if !slot.session.State.IsAdmin() {
			m.Destroy(ctx, w)
			m.security.LogAccessDenied(ctx, r.Method, r.URL.Path, ClientIP(r), r.UserAgent())
			m.onError(w, r, ErrAdminRequired)
			return
		}

		setNoCache(w)
		next.ServeHTTP(w, r)
	})
}

func setNoCache(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
}
