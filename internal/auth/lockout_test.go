// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package auth

import (
	"errors"
	"testing"
	"time"
)

func newTestLimiter(max int, window time.Duration) (*LoginLimiter, *time.Time) {
	l := NewLoginLimiter(LoginLimiterConfig{MaxFailures: max, Window: window})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestLoginLimiter_BlocksAfterMaxFailures(t *testing.T) {
	t.Parallel()
	l, _ := newTestLimiter(5, 15*time.Minute)

	for i := 1; i <= 5; i++ {
		if err := l.Check("10.0.0.1"); err != nil {
			t.Fatalf("attempt %d refused early: %v", i, err)
		}
		if got := l.RecordFailure("10.0.0.1"); got != i {
			t.Fatalf("RecordFailure = %d, want %d", got, i)
		}
	}

	err := l.Check("10.0.0.1")
	if !errors.Is(err, ErrLoginRateLimited) {
		t.Fatalf("Check after 5 failures = %v, want ErrLoginRateLimited", err)
	}
	var rle *RateLimitError
	if !errors.As(err, &rle) || rle.RetryAfter != 15*time.Minute {
		t.Errorf("RetryAfter = %+v, want 15m", rle)
	}

	if err := l.Check("10.0.0.2"); err != nil {
		t.Errorf("other client limited: %v", err)
	}
}

func TestLoginLimiter_WindowResets(t *testing.T) {
	t.Parallel()
	l, now := newTestLimiter(2, time.Minute)

	l.RecordFailure("ip")
	l.RecordFailure("ip")
	if l.Check("ip") == nil {
		t.Fatal("expected limit after 2 failures")
	}

	*now = now.Add(30 * time.Second)
	var rle *RateLimitError
	if err := l.Check("ip"); !errors.As(err, &rle) || rle.RetryAfter != 30*time.Second {
		t.Errorf("RetryAfter mid-window = %v", err)
	}

	*now = now.Add(30 * time.Second)
	if err := l.Check("ip"); err != nil {
		t.Errorf("Check after window = %v, want nil", err)
	}
	if got := l.RecordFailure("ip"); got != 1 {
		t.Errorf("failures in new window = %d, want 1", got)
	}
}

func TestLoginLimiter_Prune(t *testing.T) {
	t.Parallel()
	l, now := newTestLimiter(5, time.Minute)

	l.RecordFailure("a")
	*now = now.Add(45 * time.Second)
	l.RecordFailure("b")
	*now = now.Add(20 * time.Second)

	if removed := l.Prune(); removed != 1 {
		t.Errorf("Prune removed %d, want 1", removed)
	}
	if l.Len() != 1 {
		t.Errorf("Len = %d, want 1", l.Len())
	}
}

func TestLoginLimiter_Disabled(t *testing.T) {
	t.Parallel()
	l := NewLoginLimiter(LoginLimiterConfig{MaxFailures: 1, Window: time.Minute, Disabled: true})
	for i := 0; i < 5; i++ {
		l.RecordFailure("ip")
	}
	if err := l.Check("ip"); err != nil {
		t.Errorf("disabled limiter refused: %v", err)
	}
}
