// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package logging

import (
	"context"
	"regexp"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	correlationIDKey contextKey = "correlation_id"
	adminIDKey       contextKey = "admin_id"
)

// CorrelationIDHeader is the header used to accept and echo correlation IDs.
const CorrelationIDHeader = "X-Correlation-ID"

// correlationIDPattern accepts client supplied IDs that are safe to log and echo.
var correlationIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{8,64}$`)

// GenerateCorrelationID creates a new unique correlation ID.
func GenerateCorrelationID() string {
	return uuid.NewString()
}

// ValidCorrelationID reports whether a client supplied correlation ID is well-formed.
func ValidCorrelationID(id string) bool {
	return correlationIDPattern.MatchString(id)
}

// ContextWithCorrelationID returns a new context with the given correlation ID.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationIDFromContext retrieves the correlation ID from context.
// Returns empty string if not present.
func CorrelationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithAdminID records the authenticated admin for log enrichment.
func ContextWithAdminID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, adminIDKey, id)
}

// AdminIDFromContext returns the admin recorded by ContextWithAdminID.
func AdminIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(adminIDKey).(int64)
	return id, ok
}

// Ctx returns the global logger enriched with the correlation and admin IDs
// carried by ctx.
//
//	logging.Ctx(ctx).Info().Msg("Player created")
//	// {"level":"info","correlation_id":"...","message":"Player created"}
func Ctx(ctx context.Context) *zerolog.Logger {
	l := CtxWith(ctx).Logger()
	return &l
}

// CtxWith returns a logger context builder with context values pre-populated.
func CtxWith(ctx context.Context) zerolog.Context {
	logCtx := With()
	if id := CorrelationIDFromContext(ctx); id != "" {
		logCtx = logCtx.Str("correlation_id", id)
	}
	if adminID, ok := AdminIDFromContext(ctx); ok {
		logCtx = logCtx.Int64("admin_id", adminID)
	}
	return logCtx
}

// CtxDebug starts a debug level message with context fields.
func CtxDebug(ctx context.Context) *zerolog.Event {
	return Ctx(ctx).Debug()
}

// CtxInfo starts an info level message with context fields.
func CtxInfo(ctx context.Context) *zerolog.Event {
	return Ctx(ctx).Info()
}

// CtxWarn starts a warn level message with context fields.
func CtxWarn(ctx context.Context) *zerolog.Event {
	return Ctx(ctx).Warn()
}

// CtxError starts an error level message with context fields.
func CtxError(ctx context.Context) *zerolog.Event {
	return Ctx(ctx).Error()
}

// WithComponent creates a child logger with a component field.
//
//	dbLogger := logging.WithComponent("database")
func WithComponent(component string) zerolog.Logger {
	return With().Str("component", component).Logger()
}
