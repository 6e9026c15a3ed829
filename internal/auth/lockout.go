// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package auth

import (
	"sync"
	"time"

	"github.com/tomtom215/roster/internal/logging"
)

// LoginLimiterConfig holds configuration for the failed-login limiter.
type LoginLimiterConfig struct {
	// MaxFailures is the number of failed attempts allowed per window.
	MaxFailures int

	// Window is the fixed window over which failures are counted.
	Window time.Duration

	// Disabled turns the limiter off (tests, local tooling).
	Disabled bool
}

// DefaultLoginLimiterConfig returns 5 failures per 15 minutes.
func DefaultLoginLimiterConfig() LoginLimiterConfig {
	return LoginLimiterConfig{
		MaxFailures: 5,
		Window:      15 * time.Minute,
	}
}

// failureEntry tracks failed login attempts for one client.
type failureEntry struct {
	windowStart time.Time
	failures    int
}

// LoginLimiter counts failed logins per client IP in fixed windows.
// Successful logins are never counted.
type LoginLimiter struct {
	config  LoginLimiterConfig
	mu      sync.Mutex
	entries map[string]*failureEntry
	now     func() time.Time
}

// NewLoginLimiter creates a limiter, applying defaults to zero fields.
func NewLoginLimiter(cfg LoginLimiterConfig) *LoginLimiter {
	def := DefaultLoginLimiterConfig()
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = def.MaxFailures
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	return &LoginLimiter{
		config:  cfg,
		entries: make(map[string]*failureEntry),
		now:     time.Now,
	}
}

// current returns the live entry for key, dropping it if its window ended.
// Caller holds mu.
func (l *LoginLimiter) current(key string, now time.Time) *failureEntry {
	e, ok := l.entries[key]
	if !ok {
		return nil
	}
	if now.Sub(e.windowStart) >= l.config.Window {
		delete(l.entries, key)
		return nil
	}
	return e
}

// Check returns nil if key may attempt a login, or a *RateLimitError once
// the failure budget for the current window is spent.
func (l *LoginLimiter) Check(key string) error {
	if l.config.Disabled {
		return nil
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e := l.current(key, now)
	if e == nil || e.failures < l.config.MaxFailures {
		return nil
	}
	return &RateLimitError{RetryAfter: e.windowStart.Add(l.config.Window).Sub(now)}
}

// RecordFailure counts one failed attempt for key and returns the number of
// failures in the current window.
func (l *LoginLimiter) RecordFailure(key string) int {
	if l.config.Disabled {
		return 0
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e := l.current(key, now)
	if e == nil {
		e = &failureEntry{windowStart: now}
		l.entries[key] = e
	}
	e.failures++

	if e.failures == l.config.MaxFailures {
		logging.Warn().
			Str("client", key).
			Int("failures", e.failures).
			Dur("window", l.config.Window).
			Msg("Login attempts limited")
	}
	return e.failures
}

// Prune drops entries whose window has ended and returns how many were removed.
func (l *LoginLimiter) Prune() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, e := range l.entries {
		if now.Sub(e.windowStart) >= l.config.Window {
			delete(l.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked clients.
func (l *LoginLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
