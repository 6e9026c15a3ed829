// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package middleware

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"

	"github.com/tomtom215/roster/internal/logging"
)

// ErrPayloadTooLarge is passed to the error handler for oversize bodies.
var ErrPayloadTooLarge = errors.New("request payload too large")

// BodyLimit caps JSON bodies at maxJSON and all other bodies (multipart
// uploads) at maxOther. JSON bodies are read up front so an oversize payload
// is refused before any handler runs; other bodies are wrapped in
// http.MaxBytesReader and fail on read.
func BodyLimit(maxJSON, maxOther int64, onError ErrorFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body == nil || r.Body == http.NoBody {
				next.ServeHTTP(w, r)
				return
			}
			jsonBody := isJSON(r.Header.Get("Content-Type"))
			maxBytes := maxOther
			if jsonBody {
				maxBytes = maxJSON
			}
			if r.ContentLength > maxBytes {
				rejectOversize(w, r, r.ContentLength, maxBytes, onError)
				return
			}

			if !jsonBody {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
				next.ServeHTTP(w, r)
				return
			}

			data, err := io.ReadAll(io.LimitReader(r.Body, maxBytes+1))
			if err != nil {
				onError(w, r, fmt.Errorf("read request body: %w", err))
				return
			}
			if int64(len(data)) > maxBytes {
				rejectOversize(w, r, int64(len(data)), maxBytes, onError)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(data))
			r.ContentLength = int64(len(data))
			next.ServeHTTP(w, r)
		})
	}
}

func rejectOversize(w http.ResponseWriter, r *http.Request, size, limit int64, onError ErrorFunc) {
	logging.CtxWarn(r.Context()).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("ip", remoteHost(r)).
		Int64("size_bytes", size).
		Int64("limit_bytes", limit).
		Msg("Request payload too large")
	onError(w, r, ErrPayloadTooLarge)
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && (mt == "application/json" || mt == "application/problem+json")
}

func remoteHost(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
