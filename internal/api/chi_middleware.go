// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package api

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/tomtom215/roster/internal/auth"
	"github.com/tomtom215/roster/internal/middleware"
)

// corsMaxAge is how long browsers may cache a preflight result, in seconds.
const corsMaxAge = 600

// corsMiddleware allows credentialed requests from the configured origins
// in production and from any origin elsewhere.
func (rt *Router) corsMiddleware() func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Encoding", middleware.CorrelationIDHeader},
		ExposedHeaders:   []string{middleware.CorrelationIDHeader, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           corsMaxAge,
	}
	if rt.cfg.IsProduction() {
		opts.AllowedOrigins = rt.cfg.AllowedOrigins()
	} else {
		// Credentialed CORS cannot use "*"; echo any origin instead.
		opts.AllowOriginFunc = func(*http.Request, string) bool { return true }
	}
	return cors.Handler(opts)
}

// rateLimitMiddleware applies the general per-IP window to /api using
// go-chi/httprate, keyed on the address TrustedProxies.RealIP resolved.
func (rt *Router) rateLimitMiddleware() func(http.Handler) http.Handler {
	limits := rt.cfg.RateLimit
	if limits.Disabled {
		return func(next http.Handler) http.Handler { return next }
	}

	return httprate.Limit(
		limits.MaxRequests,
		limits.Window(),
		httprate.WithKeyFuncs(clientKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			rt.deps.Security.LogRateLimited(r.Context(), "api", r.Method, r.URL.Path, auth.ClientIP(r))
			rt.deps.Errors.Write(w, r, ErrRateLimited)
		}),
	)
}

// clientKey ignores X-Forwarded-For and X-Real-IP unless the peer was a
// trusted proxy, which httprate.KeyByRealIP would not.
func clientKey(r *http.Request) (string, error) {
	return auth.ClientIP(r), nil
}
