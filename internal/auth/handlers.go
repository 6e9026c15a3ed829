// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package auth

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/roster/internal/logging"
	"github.com/tomtom215/roster/internal/models"
	"github.com/tomtom215/roster/internal/validation"
)

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	Message string              `json:"message"`
	Admin   models.AdminSummary `json:"admin"`
}

// StatusResponse reports whether the caller holds an admin session.
type StatusResponse struct {
	LoggedIn  bool       `json:"loggedIn"`
	AdminID   int64      `json:"adminId,omitempty"`
	LoginTime *time.Time `json:"loginTime,omitempty"`
}

// Handlers provides HTTP handlers for admin login, logout and status.
type Handlers struct {
	service  *Service
	sessions *SessionManager
	security *logging.SecurityLogger
	onError  ErrorHandler
}

// NewHandlers creates the admin auth handlers. onError may be nil.
func NewHandlers(service *Service, sessions *SessionManager, onError ErrorHandler) *Handlers {
	if onError == nil {
		onError = defaultErrorHandler
	}
	return &Handlers{
		service:  service,
		sessions: sessions,
		security: service.security,
		onError:  onError,
	}
}

// Login verifies credentials and promotes the session to admin.
// POST /api/admin/login
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	client := ClientInfo{IP: ClientIP(r), UserAgent: r.UserAgent()}

	if err := h.service.Allow(ctx, client); err != nil {
		h.onError(w, r, err)
		return
	}

	var in validation.LoginInput
	if verr := validation.DecodeJSON(r.Body, &in); verr != nil {
		h.service.RecordFailure(ctx, client, "malformed body")
		h.onError(w, r, verr)
		return
	}
	if verr := validation.ValidateLogin(&in); verr != nil {
		h.service.RecordFailure(ctx, client, "schema validation failed")
		h.onError(w, r, verr)
		return
	}

	admin, err := h.service.Authenticate(ctx, in, client)
	if err != nil {
		h.onError(w, r, err)
		return
	}

	if _, err := h.sessions.Promote(ctx, w, AdminSession(admin.ID, h.service.now())); err != nil {
		h.onError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, LoginResponse{Message: "Login successful", Admin: admin})
}

// Logout destroys the current session and clears the cookie.
// POST /api/admin/logout
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s := FromContext(ctx); s != nil {
		if a, ok := s.State.Admin(); ok {
			h.security.LogLogout(ctx, a.AdminID, s.ID, ClientIP(r))
		}
	}
	h.sessions.Destroy(ctx, w)

	writeJSON(w, r, http.StatusOK, map[string]string{"message": "Logout successful"})
}

// Status reports the caller's login state.
// GET /api/admin/status
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{}
	if s := FromContext(r.Context()); s != nil {
		if a, ok := s.State.Admin(); ok {
			login := a.LoginTime
			resp = StatusResponse{LoggedIn: true, AdminID: a.AdminID, LoginTime: &login}
		}
	}
	setNoCache(w)
	writeJSON(w, r, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.CtxError(r.Context()).Err(err).Msg("Failed to encode response")
	}
}
