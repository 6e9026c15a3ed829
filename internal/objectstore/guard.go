// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package objectstore

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/roster/internal/logging"
)

// GuardConfig configures Guard.
type GuardConfig struct {
	// UploadTimeout bounds each Put. Default: 30s
	UploadTimeout time.Duration
	// DeleteTimeout bounds each Delete. Default: 10s
	DeleteTimeout time.Duration
	// MinRequests is the sample size before the breaker may open. Default: 5
	MinRequests uint32
	// FailureRatio of transient put failures that opens the breaker. Default: 0.6
	FailureRatio float64
	// OpenTimeout is how long the breaker stays open. Default: 30s
	OpenTimeout time.Duration
}

// Guarded applies deadlines to every call and a circuit breaker to uploads.
// Deletes bypass the breaker; they run on cleanup paths where callers
// already tolerate failure.
type Guarded struct {
	next Store
	cfg  GuardConfig
	cb   *gobreaker.CircuitBreaker[string]
}

var _ Store = (*Guarded)(nil)

// Guard wraps next.
func Guard(next Store, cfg GuardConfig) *Guarded {
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = 30 * time.Second
	}
	if cfg.DeleteTimeout <= 0 {
		cfg.DeleteTimeout = 10 * time.Second
	}
	if cfg.MinRequests == 0 {
		cfg.MinRequests = 5
	}
	if cfg.FailureRatio <= 0 {
		cfg.FailureRatio = 0.6
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	name := "objectstore-" + next.Name()
	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.FailureRatio
		},
		// Only transient failures say anything about the backend's health.
		IsSuccessful: func(err error) bool {
			return err == nil || !IsTransient(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("[CIRCUIT BREAKER] Object store state transition")
		},
	})

	return &Guarded{next: next, cfg: cfg, cb: cb}
}

// Name implements Store.
func (g *Guarded) Name() string { return g.next.Name() }

// Unwrap returns the wrapped backend.
func (g *Guarded) Unwrap() Store { return g.next }

// State returns the breaker state.
func (g *Guarded) State() gobreaker.State { return g.cb.State() }

// Put implements Store.
func (g *Guarded) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	url, err := g.cb.Execute(func() (string, error) {
		putCtx, cancel := context.WithTimeout(ctx, g.cfg.UploadTimeout)
		defer cancel()
		return g.next.Put(putCtx, key, data, contentType)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		logging.CtxWarn(ctx).Str("key", key).Err(err).Msg("[CIRCUIT BREAKER] Object store upload rejected")
		return "", &Error{Op: "put", Key: key, Transient: true, Err: errors.Join(ErrUnavailable, err)}
	}
	if err != nil {
		var osErr *Error
		if !errors.As(err, &osErr) {
			err = &Error{Op: "put", Key: key, Transient: transientDefault(err), Err: err}
		}
		return "", err
	}
	return url, nil
}

// Delete implements Store.
func (g *Guarded) Delete(ctx context.Context, key string) error {
	delCtx, cancel := context.WithTimeout(ctx, g.cfg.DeleteTimeout)
	defer cancel()
	return g.next.Delete(delCtx, key)
}

// KeyFromURL implements Store.
func (g *Guarded) KeyFromURL(url string) (string, bool) {
	return g.next.KeyFromURL(url)
}
