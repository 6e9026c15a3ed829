// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/tomtom215/roster/internal/logging"
	"github.com/tomtom215/roster/internal/validation"
)

// maxInspectedBody bounds how much of a JSON body the classifier sees.
const maxInspectedBody = 64 << 10

// SuspiciousRequests logs requests matching attack signatures to the
// security stream. It never blocks. Small JSON bodies are inspected and
// restored for the next handler.
func SuspiciousRequests(security *logging.SecurityLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body string
			if r.Body != nil && r.Body != http.NoBody && isJSON(r.Header.Get("Content-Type")) &&
				r.ContentLength > 0 && r.ContentLength <= maxInspectedBody {
				data, err := io.ReadAll(r.Body)
				r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(data), r.Body))
				if err == nil {
					body = string(data)
				}
			}

			if tags := validation.Classify(r.URL.Path, r.URL.RawQuery, body, r.UserAgent()); len(tags) > 0 {
				security.LogSuspiciousRequest(r.Context(), r.Method, r.URL.Path, remoteHost(r), r.UserAgent(), tags)
			}
			next.ServeHTTP(w, r)
		})
	}
}
