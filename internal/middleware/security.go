// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package middleware

import (
	"net/http"
	"strings"
)

// SecurityHeadersConfig controls the headers set by SecurityHeaders.
type SecurityHeadersConfig struct {
	// HSTS adds Strict-Transport-Security. Enable only behind TLS.
	HSTS bool
	// CDNOrigins are allowed as image, script, style and font sources
	// alongside 'self'.
	CDNOrigins []string
}

// ContentSecurityPolicy builds the policy string for cdnOrigins.
func ContentSecurityPolicy(cdnOrigins []string) string {
	cdn := strings.Join(cdnOrigins, " ")
	with := func(base string) string {
		if cdn == "" {
			return base
		}
		return base + " " + cdn
	}
	directives := []string{
		"default-src 'self'",
		"img-src " + with("'self' data: blob:"),
		"script-src " + with("'self'"),
		"style-src " + with("'self' 'unsafe-inline'"),
		"font-src " + with("'self' data:"),
		"connect-src 'self'",
		"object-src 'none'",
		"frame-ancestors 'none'",
		"base-uri 'self'",
		"form-action 'self'",
	}
	return strings.Join(directives, "; ")
}

// SecurityHeaders sets the standard browser hardening headers on every response.
func SecurityHeaders(cfg SecurityHeadersConfig) func(http.Handler) http.Handler {
	csp := ContentSecurityPolicy(cfg.CDNOrigins)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Content-Security-Policy", csp)
			h.Set("Cross-Origin-Opener-Policy", "same-origin")
			if cfg.HSTS {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}
