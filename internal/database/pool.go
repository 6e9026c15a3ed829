// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package database

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// admission bounds concurrent gateway calls and the queue behind them.
type admission struct {
	sem            *semaphore.Weighted
	maxActive      int64
	maxWaiters     int64
	acquireTimeout time.Duration

	active  atomic.Int64
	waiting atomic.Int64
}

func newAdmission(maxActive, maxWaiters int, acquireTimeout time.Duration) *admission {
	if maxActive <= 0 {
		maxActive = 1
	}
	if maxWaiters < 0 {
		maxWaiters = 0
	}
	if acquireTimeout <= 0 {
		acquireTimeout = 5 * time.Second
	}
	return &admission{
		sem:            semaphore.NewWeighted(int64(maxActive)),
		maxActive:      int64(maxActive),
		maxWaiters:     int64(maxWaiters),
		acquireTimeout: acquireTimeout,
	}
}

// acquire admits the caller or fails with ErrPoolExhausted, ErrPoolTimeout
// or the context error. The returned release must be called exactly once.
func (a *admission) acquire(ctx context.Context) (func(), error) {
	if a.sem.TryAcquire(1) {
		return a.admitted(), nil
	}

	if a.waiting.Add(1) > a.maxWaiters {
		a.waiting.Add(-1)
		return nil, ErrPoolExhausted
	}
	defer a.waiting.Add(-1)

	waitCtx, cancel := context.WithTimeout(ctx, a.acquireTimeout)
	defer cancel()

	if err := a.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ErrPoolTimeout
	}
	return a.admitted(), nil
}

func (a *admission) admitted() func() {
	a.active.Add(1)
	var once atomic.Bool
	return func() {
		if once.CompareAndSwap(false, true) {
			a.active.Add(-1)
			a.sem.Release(1)
		}
	}
}

// PoolStats is a point-in-time view of gateway admission.
type PoolStats struct {
	Active     int64 `json:"active"`
	Waiting    int64 `json:"waiting"`
	MaxActive  int64 `json:"max_active"`
	MaxWaiters int64 `json:"max_waiters"`
}

func (a *admission) stats() PoolStats {
	return PoolStats{
		Active:     a.active.Load(),
		Waiting:    a.waiting.Load(),
		MaxActive:  a.maxActive,
		MaxWaiters: a.maxWaiters,
	}
}
