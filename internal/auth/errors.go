// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package auth

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/tomtom215/roster/internal/validation"
)

// Request-level authentication errors. The HTTP edge maps these to status codes.
var (
	// ErrInvalidCredentials is returned for any failed login. It never
	// reveals whether the username exists.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAdminRequired is returned when a protected route is called without
	// an admin session.
	ErrAdminRequired = errors.New("admin session required")

	// ErrStoreUnavailable is returned when no session store is reachable.
	ErrStoreUnavailable = errors.New("session store unavailable")

	// ErrLoginRateLimited is returned once an IP has used up its failed login budget.
	ErrLoginRateLimited = errors.New("too many failed login attempts")

	// ErrOriginRejected is returned for mutating requests from an untrusted origin.
	ErrOriginRejected = errors.New("request origin not allowed")
)

// RateLimitError carries the time until a limited client may retry.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: retry after %s", ErrLoginRateLimited, e.RetryAfter.Round(time.Second))
}

// Is lets errors.Is(err, ErrLoginRateLimited) match.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrLoginRateLimited
}

// ErrorHandler writes an error response. The HTTP edge supplies one so auth
// failures share the central error format.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// defaultErrorHandler is used when no ErrorHandler is configured.
func defaultErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	status := http.StatusInternalServerError
	var verr *validation.RequestValidationError
	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrAdminRequired):
		status = http.StatusUnauthorized
	case errors.Is(err, ErrOriginRejected):
		status = http.StatusForbidden
	case errors.Is(err, ErrLoginRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
	}
	http.Error(w, http.StatusText(status), status)
}

// ClientIP returns the client address of r without the port. Behind a
// proxy it relies on TrustedProxies.RealIP having rewritten RemoteAddr.
func ClientIP(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
