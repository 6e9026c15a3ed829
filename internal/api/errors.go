// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package api

import (
	"errors"
	"math"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/tomtom215/roster/internal/auth"
	"github.com/tomtom215/roster/internal/database"
	"github.com/tomtom215/roster/internal/imaging"
	"github.com/tomtom215/roster/internal/logging"
	"github.com/tomtom215/roster/internal/middleware"
	"github.com/tomtom215/roster/internal/objectstore"
	"github.com/tomtom215/roster/internal/validation"
)

// Error codes for API responses
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeSessionExpired     = "SESSION_EXPIRED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeAccessDenied       = "ACCESS_DENIED"
	ErrCodeCSRFInvalid        = "CSRF_INVALID"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	ErrCodeConstraint         = "CONSTRAINT_VIOLATION"
	ErrCodePayloadTooLarge    = "PAYLOAD_TOO_LARGE"
	ErrCodeRateLimited        = "RATE_LIMIT_EXCEEDED"
	ErrCodeAuthRateLimited    = "AUTH_RATE_LIMIT_EXCEEDED"
	ErrCodeUnavailable        = "SERVICE_UNAVAILABLE"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// Errors raised by the HTTP layer itself.
var (
	// ErrRouteNotFound is returned for unknown paths.
	ErrRouteNotFound = errors.New("route not found")

	// ErrMethodNotAllowed is returned for known paths with the wrong method.
	ErrMethodNotAllowed = errors.New("method not allowed")

	// ErrRateLimited is returned when a client exceeds the general API limit.
	ErrRateLimited = errors.New("too many requests")

	errNoDatabase = errors.New("no database configured")
)

// unavailableRetryAfter is advertised on 503 responses.
const unavailableRetryAfter = 30 * time.Second

// APIError is the body of every error response.
type APIError struct {
	Code          string      `json:"code"`
	Message       string      `json:"message"`
	Details       interface{} `json:"details,omitempty"`
	CorrelationID string      `json:"correlationId,omitempty"`
	Stack         string      `json:"stack,omitempty"`
}

// errorResponse wraps APIError the way clients expect: {"error": {...}}.
type errorResponse struct {
	Error *APIError `json:"error"`
}

// classified is the HTTP rendering of an error.
type classified struct {
	status     int
	code       string
	message    string
	details    interface{}
	retryAfter time.Duration
	category   string
}

// ErrorWriter maps errors to HTTP responses. It is the single place where
// error kinds become status codes, shared by handlers and middleware.
type ErrorWriter struct {
	// IncludeStack adds a stack trace to 5xx bodies. Development only.
	IncludeStack bool
	// Tracker fingerprints server-side errors. May be nil.
	Tracker *logging.ErrorTracker
	// RateLimitWindow is advertised in Retry-After when the general
	// limiter did not set it.
	RateLimitWindow time.Duration
}

// Write renders err as a JSON error response.
func (ew *ErrorWriter) Write(w http.ResponseWriter, r *http.Request, err error) {
	c := classify(err)
	ctx := r.Context()

	apiErr := &APIError{
		Code:          c.code,
		Message:       c.message,
		Details:       c.details,
		CorrelationID: logging.CorrelationIDFromContext(ctx),
	}

	var fingerprint string
	if ew.Tracker != nil {
		fingerprint, _ = ew.Tracker.Record(ctx, c.category, err)
	}

	if c.status >= http.StatusInternalServerError {
		event := logging.CtxError(ctx)
		if c.status == http.StatusServiceUnavailable {
			event = logging.CtxWarn(ctx)
		}
		event.Err(err).
			Str("fingerprint", fingerprint).
			Str("category", c.category).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("ip", auth.ClientIP(r)).
			Str("user_agent", r.UserAgent()).
			Int("status", c.status).
			Msg("Request failed")
		if ew.IncludeStack && c.status == http.StatusInternalServerError {
			apiErr.Stack = string(debug.Stack())
		}
	} else {
		logging.CtxDebug(ctx).Err(err).
			Str("fingerprint", fingerprint).
			Str("category", c.category).
			Int("status", c.status).
			Str("code", c.code).
			Msg("Request rejected")
	}

	if c.status == http.StatusTooManyRequests && c.retryAfter == 0 {
		c.retryAfter = ew.RateLimitWindow
	}
	if c.retryAfter > 0 && w.Header().Get("Retry-After") == "" {
		secs := int(math.Ceil(c.retryAfter.Seconds()))
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}

	respondJSON(w, r, c.status, errorResponse{Error: apiErr})
}

// classify maps an error to its HTTP rendering. Order matters: the most
// specific kinds are checked first.
func classify(err error) classified {
	var (
		verr     *validation.RequestValidationError
		limitErr *auth.RateLimitError
		maxBytes *http.MaxBytesError
		osErr    *objectstore.Error
	)

	switch {
	case errors.As(err, &verr):
		apiErr := verr.ToAPIError()
		return classified{status: http.StatusBadRequest, code: ErrCodeValidation,
			message: apiErr.Message, details: apiErr.Details, category: "validation"}

	case errors.Is(err, middleware.ErrBadContentEncoding), errors.Is(err, errMalformedBody):
		return classified{status: http.StatusBadRequest, code: ErrCodeValidation,
			message: err.Error(), category: "validation"}

	case errors.Is(err, middleware.ErrPayloadTooLarge), errors.As(err, &maxBytes):
		return classified{status: http.StatusRequestEntityTooLarge, code: ErrCodePayloadTooLarge,
			message: "Request payload too large", category: "validation"}

	case errors.Is(err, auth.ErrInvalidCredentials):
		return classified{status: http.StatusUnauthorized, code: ErrCodeInvalidCredentials,
			message: "Invalid username or password", category: "auth"}

	case errors.Is(err, auth.ErrAdminRequired):
		return classified{status: http.StatusUnauthorized, code: ErrCodeSessionExpired,
			message: "Admin session required or expired", category: "auth"}

	case errors.Is(err, auth.ErrOriginRejected):
		return classified{status: http.StatusForbidden, code: ErrCodeCSRFInvalid,
			message: "Request origin not allowed", category: "auth"}

	case errors.As(err, &limitErr):
		return classified{status: http.StatusTooManyRequests, code: ErrCodeAuthRateLimited,
			message:    "Too many failed login attempts, try again later",
			retryAfter: limitErr.RetryAfter, category: "rate_limit"}

	case errors.Is(err, ErrRateLimited):
		return classified{status: http.StatusTooManyRequests, code: ErrCodeRateLimited,
			message: "Too many requests, try again later", category: "rate_limit"}

	case errors.Is(err, auth.ErrStoreUnavailable):
		return classified{status: http.StatusServiceUnavailable, code: ErrCodeUnavailable,
			message: "Session store unavailable", retryAfter: unavailableRetryAfter, category: "session"}

	case errors.Is(err, database.ErrNotFound), errors.Is(err, ErrRouteNotFound):
		return classified{status: http.StatusNotFound, code: ErrCodeNotFound,
			message: "Resource not found", category: "not_found"}

	case errors.Is(err, ErrMethodNotAllowed):
		return classified{status: http.StatusMethodNotAllowed, code: ErrCodeMethodNotAllowed,
			message: "Method not allowed", category: "not_found"}

	case database.IsConstraint(err):
		return classified{status: http.StatusConflict, code: ErrCodeConstraint,
			message: "Request conflicts with existing data", category: "database"}

	case database.IsTransient(err):
		return classified{status: http.StatusServiceUnavailable, code: ErrCodeUnavailable,
			message: "Database temporarily unavailable", retryAfter: unavailableRetryAfter, category: "database"}

	case errors.As(err, &osErr):
		return classified{status: http.StatusServiceUnavailable, code: ErrCodeUnavailable,
			message: "Image storage temporarily unavailable", retryAfter: unavailableRetryAfter, category: "object_store"}

	case errors.Is(err, imaging.ErrEncode), errors.Is(err, imaging.ErrUnknownKind):
		return classified{status: http.StatusInternalServerError, code: ErrCodeInternal,
			message: "Image processing failed", category: "image"}
	}

	return classified{status: http.StatusInternalServerError, code: ErrCodeInternal,
		message: "Internal server error", category: "internal"}
}
