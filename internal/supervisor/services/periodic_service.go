// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package services

import (
	"context"
	"time"

	"github.com/tomtom215/roster/internal/logging"
)

// Task is one run of a periodic job. It returns the number of items it
// removed or processed.
type Task func(ctx context.Context) (int, error)

// PeriodicService runs a Task on a fixed interval until its context ends.
// A failing run is logged and retried on the next tick.
type PeriodicService struct {
	name     string
	interval time.Duration
	task     Task
}

// NewPeriodicService creates a periodic service. interval must be positive.
func NewPeriodicService(name string, interval time.Duration, task Task) *PeriodicService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &PeriodicService{name: name, interval: interval, task: task}
}

// Serve implements suture.Service.
func (p *PeriodicService) Serve(ctx context.Context) error {
	logger := logging.WithComponent(p.name)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n, err := p.task(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Warn().Err(err).Msg("Periodic task failed")
				continue
			}
			if n > 0 {
				logger.Debug().Int("count", n).Msg("Periodic task completed")
			}
		}
	}
}

// String identifies the service in supervisor events.
func (p *PeriodicService) String() string {
	return p.name
}
