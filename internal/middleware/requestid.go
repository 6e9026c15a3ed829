// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package middleware

import (
	"net/http"

	"github.com/tomtom215/roster/internal/logging"
)

// CorrelationIDHeader carries the correlation id in requests and responses.
const CorrelationIDHeader = "X-Correlation-ID"

// CorrelationID assigns each request a correlation id and echoes it in the
// response. A well-formed id supplied by the client (or an upstream proxy)
// is kept; anything else is replaced with a fresh UUID.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(CorrelationIDHeader)
		if !logging.ValidCorrelationID(id) {
			id = logging.GenerateCorrelationID()
		}

		w.Header().Set(CorrelationIDHeader, id)
		ctx := logging.ContextWithCorrelationID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
