// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

/*
Package middleware provides the HTTP edge middleware shared by every route.

Key Components:

  - CorrelationID: accepts or generates X-Correlation-ID and stores it in the
    request context for logging
  - Compression: gzip responses for clients that accept it
  - Decompress: inflate gzip request bodies
  - SecurityHeaders: nosniff, frame denial, referrer policy, CSP and HSTS
  - BodyLimit: cap request bodies and report oversize payloads
  - SuspiciousRequests: log classifier tags through the security stream
  - RequestLog: one access log line per request, with slow request warnings

Middleware Stack:

The router applies these in request order:

	r.Use(middleware.CorrelationID)
	r.Use(middleware.RequestLog(time.Second))
	r.Use(middleware.Decompress(maxBody))
	r.Use(middleware.Compression)
	r.Use(middleware.SecurityHeaders(cfg))

All middleware use the func(http.Handler) http.Handler shape so they plug
into chi and net/http alike.
*/
package middleware
