// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package logging

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

// SecurityEvent represents a security-relevant event for audit logging.
type SecurityEvent struct {
	// Event is the type of event (e.g. "login_failed", "access_denied").
	Event string
	// AdminID is the admin identifier, zero when unknown.
	AdminID int64
	// Username is the attempted or authenticated username.
	Username string
	// SessionID is the session identifier (masked before writing).
	SessionID string
	// Method and Path identify the request.
	Method string
	Path   string
	// IPAddress is the client's IP address.
	IPAddress string
	// UserAgent is the client's user agent (truncated).
	UserAgent string
	// Success indicates if the operation was successful.
	Success bool
	// Reason is the failure reason, if any.
	Reason string
	// Tags carries classifier output for suspicious request events.
	Tags []string
}

// SecurityLogger writes security events to the security stream.
// It masks sensitive data before logging.
type SecurityLogger struct {
	logger *zerolog.Logger
}

// NewSecurityLogger creates a security logger bound to the global security stream.
func NewSecurityLogger() *SecurityLogger {
	return &SecurityLogger{}
}

// NewSecurityLoggerWithLogger creates a security logger with a custom zerolog logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewSecurityLoggerWithLogger(logger zerolog.Logger) *SecurityLogger {
	return &SecurityLogger{logger: &logger}
}

func (l *SecurityLogger) base() zerolog.Logger {
	if l.logger != nil {
		return *l.logger
	}
	return securityLogger()
}

// LogEvent logs a security event with automatic sanitization.
func (l *SecurityLogger) LogEvent(ctx context.Context, event *SecurityEvent) {
	base := l.base()
	e := base.Warn()
	if event.Success {
		e = base.Info()
	}

	e = e.Str("component", "security").Str("event", event.Event)
	if event.Success {
		e = e.Str("status", "success")
	} else {
		e = e.Str("status", "failed")
	}

	if id := CorrelationIDFromContext(ctx); id != "" {
		e = e.Str("correlation_id", id)
	}
	if event.AdminID != 0 {
		e = e.Int64("admin_id", event.AdminID)
	} else if adminID, ok := AdminIDFromContext(ctx); ok {
		e = e.Int64("admin_id", adminID)
	}
	if event.Username != "" {
		e = e.Str("username", SanitizeUsername(event.Username))
	}
	if event.SessionID != "" {
		e = e.Str("session_id", SanitizeSessionID(event.SessionID))
	}
	if event.Method != "" {
		e = e.Str("method", event.Method)
	}
	if event.Path != "" {
		e = e.Str("path", truncateString(event.Path, 200))
	}
	if event.IPAddress != "" {
		e = e.Str("ip", event.IPAddress)
	}
	if event.UserAgent != "" {
		e = e.Str("user_agent", truncateString(event.UserAgent, 100))
	}
	if event.Reason != "" && !event.Success {
		e = e.Str("reason", SanitizeError(event.Reason))
	}
	if len(event.Tags) > 0 {
		e = e.Strs("tags", event.Tags)
	}

	e.Msg("security event")
}

// LogLoginSuccess logs a successful admin login.
func (l *SecurityLogger) LogLoginSuccess(ctx context.Context, adminID int64, username, ip, userAgent string) {
	l.LogEvent(ctx, &SecurityEvent{
		Event:     "login_success",
		AdminID:   adminID,
		Username:  username,
		IPAddress: ip,
		UserAgent: userAgent,
		Success:   true,
	})
}

// LogLoginFailure logs a failed admin login.
func (l *SecurityLogger) LogLoginFailure(ctx context.Context, username, ip, userAgent, reason string) {
	l.LogEvent(ctx, &SecurityEvent{
		Event:     "login_failed",
		Username:  username,
		IPAddress: ip,
		UserAgent: userAgent,
		Reason:    reason,
	})
}

// LogLogout logs a logout.
func (l *SecurityLogger) LogLogout(ctx context.Context, adminID int64, sessionID, ip string) {
	l.LogEvent(ctx, &SecurityEvent{
		Event:     "logout",
		AdminID:   adminID,
		SessionID: sessionID,
		IPAddress: ip,
		Success:   true,
	})
}

// LogAccessDenied logs a request that reached a protected route without an admin session.
func (l *SecurityLogger) LogAccessDenied(ctx context.Context, method, path, ip, userAgent string) {
	l.LogEvent(ctx, &SecurityEvent{
		Event:     "access_denied",
		Method:    method,
		Path:      path,
		IPAddress: ip,
		UserAgent: userAgent,
		Reason:    "admin session required",
	})
}

// LogCSRFFailure logs a rejected cross-site request.
func (l *SecurityLogger) LogCSRFFailure(ctx context.Context, method, path, ip, origin string) {
	l.LogEvent(ctx, &SecurityEvent{
		Event:     "csrf_rejected",
		Method:    method,
		Path:      path,
		IPAddress: ip,
		Reason:    "untrusted origin " + truncateString(origin, 100),
	})
}

// LogRateLimited logs a request refused by a rate limiter.
func (l *SecurityLogger) LogRateLimited(ctx context.Context, limiter, method, path, ip string) {
	l.LogEvent(ctx, &SecurityEvent{
		Event:     "rate_limited",
		Method:    method,
		Path:      path,
		IPAddress: ip,
		Reason:    limiter,
	})
}

// LogSuspiciousRequest logs classifier tags for a request. The request is not blocked.
func (l *SecurityLogger) LogSuspiciousRequest(ctx context.Context, method, path, ip, userAgent string, tags []string) {
	l.LogEvent(ctx, &SecurityEvent{
		Event:     "suspicious_request",
		Method:    method,
		Path:      path,
		IPAddress: ip,
		UserAgent: userAgent,
		Reason:    "classifier match",
		Tags:      tags,
	})
}

// SanitizeSessionID masks a session ID.
// Example: "abc123def456789" -> "abc1...6789"
func SanitizeSessionID(sessionID string) string {
	if sessionID == "" {
		return ""
	}
	if len(sessionID) <= 12 {
		return "***"
	}
	return sessionID[:4] + "..." + sessionID[len(sessionID)-4:]
}

// SanitizeUsername masks a username, keeping the first 2 characters.
// Example: "johndoe" -> "jo***"
func SanitizeUsername(username string) string {
	if len(username) <= 2 {
		if username == "" {
			return ""
		}
		return "***"
	}
	return username[:2] + "***"
}

// SanitizeEmail masks an email address.
// Example: "john.doe@example.com" -> "jo***@example.com"
func SanitizeEmail(email string) string {
	if email == "" {
		return ""
	}
	at := strings.Index(email, "@")
	if at <= 0 {
		return "***"
	}
	if at <= 2 {
		return "***" + email[at:]
	}
	return email[:2] + "***" + email[at:]
}

// SanitizeError removes potentially sensitive information from error messages.
func SanitizeError(msg string) string {
	lower := strings.ToLower(msg)
	for _, pattern := range []string{"password", "secret", "token", "bearer", "authorization", "cookie"} {
		if strings.Contains(lower, pattern) {
			return "authentication error"
		}
	}
	return truncateString(msg, 200)
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
