// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package api

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/tomtom215/roster/internal/logging"
)

// healthPingTimeout bounds the database ping made by /health.
const healthPingTimeout = 2 * time.Second

// Pinger is the database check used by the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status      string       `json:"status"`
	Timestamp   time.Time    `json:"timestamp"`
	Uptime      float64      `json:"uptime"`
	Environment string       `json:"environment"`
	Memory      MemoryStatus `json:"memory"`
	Database    string       `json:"database"`
}

// MemoryStatus reports Go runtime memory in MiB.
type MemoryStatus struct {
	HeapAllocMB float64 `json:"heapAllocMb"`
	HeapSysMB   float64 `json:"heapSysMb"`
	SysMB       float64 `json:"sysMb"`
	NumGC       uint32  `json:"numGc"`
}

type healthHandler struct {
	db          Pinger
	environment string
	started     time.Time
}

// Health handles GET /health. It answers 503 with status "degraded" when
// the database ping fails.
func (h *healthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:      "healthy",
		Timestamp:   time.Now().UTC(),
		Uptime:      time.Since(h.started).Seconds(),
		Environment: h.environment,
		Memory:      memoryStatus(),
		Database:    "ok",
	}

	code := http.StatusOK
	if err := h.ping(r.Context()); err != nil {
		logging.CtxWarn(r.Context()).Err(err).Msg("Health check: database unavailable")
		status.Status = "degraded"
		status.Database = "unavailable"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Cache-Control", "no-store")
	respondJSON(w, r, code, status)
}

func (h *healthHandler) ping(ctx context.Context) error {
	if h.db == nil {
		return errNoDatabase
	}
	ctx, cancel := context.WithTimeout(ctx, healthPingTimeout)
	defer cancel()
	return h.db.Ping(ctx)
}

func memoryStatus() MemoryStatus {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	const mib = 1 << 20
	return MemoryStatus{
		HeapAllocMB: float64(m.HeapAlloc) / mib,
		HeapSysMB:   float64(m.HeapSys) / mib,
		SysMB:       float64(m.Sys) / mib,
		NumGC:       m.NumGC,
	}
}
