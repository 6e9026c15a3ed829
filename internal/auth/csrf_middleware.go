// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package auth

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/tomtom215/roster/internal/logging"
)

// OriginCheckConfig holds configuration for the origin check.
type OriginCheckConfig struct {
	// TrustedOrigins are scheme://host[:port] values allowed to send
	// state-changing requests in addition to the request's own host.
	TrustedOrigins []string

	// ExemptMethods are HTTP methods that are never checked.
	// Default: GET, HEAD, OPTIONS, TRACE (safe methods per RFC 7231).
	ExemptMethods []string

	// ErrorHandler is called with ErrOriginRejected.
	ErrorHandler ErrorHandler

	// Security receives rejection events.
	Security *logging.SecurityLogger
}

// OriginCheck refuses state-changing requests whose Origin (or, failing
// that, Referer) names an untrusted origin. Requests carrying neither header
// pass, since they do not come from a browser page.
type OriginCheck struct {
	trusted  map[string]bool
	exempt   map[string]bool
	onError  ErrorHandler
	security *logging.SecurityLogger
}

// NewOriginCheck creates an origin check.
func NewOriginCheck(cfg OriginCheckConfig) *OriginCheck {
	if len(cfg.ExemptMethods) == 0 {
		cfg.ExemptMethods = []string{http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace}
	}
	c := &OriginCheck{
		trusted:  make(map[string]bool, len(cfg.TrustedOrigins)),
		exempt:   make(map[string]bool, len(cfg.ExemptMethods)),
		onError:  cfg.ErrorHandler,
		security: cfg.Security,
	}
	for _, o := range cfg.TrustedOrigins {
		if n := normalizeOrigin(o); n != "" {
			c.trusted[n] = true
		}
	}
	for _, m := range cfg.ExemptMethods {
		c.exempt[strings.ToUpper(m)] = true
	}
	if c.onError == nil {
		c.onError = defaultErrorHandler
	}
	if c.security == nil {
		c.security = logging.NewSecurityLogger()
	}
	return c
}

// Protect is a middleware that applies the origin check.
func (c *OriginCheck) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c.exempt[r.Method] {
			next.ServeHTTP(w, r)
			return
		}

		// A literal "null" origin names no site and is never trusted.
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = r.Header.Get("Referer")
		}
		if origin == "" || (origin != "null" && c.Allowed(origin, r.Host)) {
			next.ServeHTTP(w, r)
			return
		}

		c.security.LogCSRFFailure(r.Context(), r.Method, r.URL.Path, ClientIP(r), origin)
		c.onError(w, r, ErrOriginRejected)
	})
}

// Allowed reports whether origin is trusted or names host itself.
func (c *OriginCheck) Allowed(origin, host string) bool {
	u, err := url.Parse(strings.TrimSpace(origin))
	if err != nil || u.Host == "" {
		return false
	}
	if strings.EqualFold(u.Host, host) {
		return true
	}
	return c.trusted[strings.ToLower(u.Scheme+"://"+u.Host)]
}

// normalizeOrigin reduces a configured origin or URL to scheme://host.
func normalizeOrigin(o string) string {
	u, err := url.Parse(strings.TrimSpace(o))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return strings.ToLower(u.Scheme + "://" + u.Host)
}
