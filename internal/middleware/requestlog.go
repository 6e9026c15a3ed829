// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package middleware

import (
	"net/http"
	"time"

	"github.com/tomtom215/roster/internal/logging"
)

// statusRecorder captures the status code and size of a response.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	bytes      int64
	wrote      bool
}

func (rw *statusRecorder) WriteHeader(code int) {
	if !rw.wrote {
		rw.statusCode = code
		rw.wrote = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	if !rw.wrote {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += int64(n)
	return n, err
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (rw *statusRecorder) Unwrap() http.ResponseWriter { return rw.ResponseWriter }

// RequestLog writes one debug line per request, a warning for requests
// slower than slowThreshold, and an info line for every 5xx response.
// Zero disables the slow request warning.
func RequestLog(slowThreshold time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rec, r)

			duration := time.Since(start)
			ctx := r.Context()
			event := logging.CtxDebug(ctx)
			switch {
			case rec.statusCode >= http.StatusInternalServerError:
				event = logging.CtxInfo(ctx)
			case slowThreshold > 0 && duration > slowThreshold:
				event = logging.CtxWarn(ctx).Dur("threshold", slowThreshold)
			}
			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rec.statusCode).
				Int64("bytes", rec.bytes).
				Dur("duration", duration).
				Str("ip", remoteHost(r)).
				Msg("HTTP request")
		})
	}
}
