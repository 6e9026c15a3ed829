// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package logging

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"runtime"
	"strings"
	"sync"
	"time"
)

// ErrorTrackerConfig controls high-frequency error detection.
type ErrorTrackerConfig struct {
	// Threshold is the occurrence count that raises an alert. Default: 10
	Threshold int
	// Window is the counting window. Default: 1h
	Window time.Duration
	// StackDepth is the number of caller frames mixed into the fingerprint. Default: 3
	StackDepth int
}

type fingerprintEntry struct {
	windowStart time.Time
	count       int
	alerted     bool
}

// ErrorTracker counts errors by fingerprint and logs a "high-frequency error"
// warning the first time a fingerprint reaches the threshold inside a window.
type ErrorTracker struct {
	cfg     ErrorTrackerConfig
	mu      sync.Mutex
	entries map[string]*fingerprintEntry
	now     func() time.Time
}

// NewErrorTracker creates a tracker, applying defaults to zero fields.
func NewErrorTracker(cfg ErrorTrackerConfig) *ErrorTracker {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 10
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Hour
	}
	if cfg.StackDepth <= 0 {
		cfg.StackDepth = 3
	}
	return &ErrorTracker{
		cfg:     cfg,
		entries: make(map[string]*fingerprintEntry),
		now:     time.Now,
	}
}

// digitRun matches the ids and counts embedded in ad hoc error messages.
var digitRun = regexp.MustCompile(`[0-9]+`)

// Fingerprint hashes the message, category and the top caller frames.
// skip is the number of frames above the caller of Fingerprint to ignore.
func (t *ErrorTracker) Fingerprint(category, message string, skip int) string {
	pcs := make([]uintptr, t.cfg.StackDepth)
	n := runtime.Callers(skip+2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var b strings.Builder
	b.WriteString(category)
	b.WriteByte('|')
	b.WriteString(message)
	for {
		f, more := frames.Next()
		if f.Function != "" {
			fmt.Fprintf(&b, "|%s:%d", f.Function, f.Line)
		}
		if !more {
			break
		}
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:8])
}

// Record counts one occurrence of err in category and returns its fingerprint
// and the count inside the current window.
func (t *ErrorTracker) Record(ctx context.Context, category string, err error) (string, int) {
	if err == nil {
		return "", 0
	}
	fp := t.Fingerprint(category, errorKey(err), 1)
	count, alert := t.increment(fp)
	if alert {
		CtxWarn(ctx).
			Str("fingerprint", fp).
			Str("category", category).
			Int("count", count).
			Dur("window", t.cfg.Window).
			Err(err).
			Msg("high-frequency error")
	}
	return fp, count
}

// errorKey reduces err to the part that repeats across occurrences: the
// type of the innermost wrapped error, plus its message when it is a plain
// errors.New value. Record ids and object keys added by wrapping are
// dropped, and digit runs in plain messages are collapsed.
func errorKey(err error) string {
	root := rootCause(err)
	key := fmt.Sprintf("%T", root)
	if key == "*errors.errorString" {
		key += ":" + digitRun.ReplaceAllString(root.Error(), "#")
	}
	return key
}

// rootCause follows Unwrap to the innermost error. Joined errors follow
// their first member.
func rootCause(err error) error {
	for {
		var next error
		switch u := err.(type) {
		case interface{ Unwrap() error }:
			next = u.Unwrap()
		case interface{ Unwrap() []error }:
			if errs := u.Unwrap(); len(errs) > 0 {
				next = errs[0]
			}
		}
		if next == nil {
			return err
		}
		err = next
	}
}

func (t *ErrorTracker) increment(fp string) (int, bool) {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[fp]
	if !ok || now.Sub(e.windowStart) >= t.cfg.Window {
		e = &fingerprintEntry{windowStart: now}
		t.entries[fp] = e
	}
	e.count++

	if e.count >= t.cfg.Threshold && !e.alerted {
		e.alerted = true
		return e.count, true
	}
	return e.count, false
}

// Prune drops fingerprints whose window has elapsed and returns how many were removed.
func (t *ErrorTracker) Prune() int {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for fp, e := range t.entries {
		if now.Sub(e.windowStart) >= t.cfg.Window {
			delete(t.entries, fp)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked fingerprints.
func (t *ErrorTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
