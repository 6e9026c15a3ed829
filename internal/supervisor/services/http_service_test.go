// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package services

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

var (
	_ suture.Service = (*HTTPServerService)(nil)
	_ suture.Service = (*PeriodicService)(nil)
)

// fakeServer stands in for *http.Server.
type fakeServer struct {
	listenErr   error
	shutdownErr error
	started     chan struct{}
	stop        chan struct{}
	shutdowns   atomic.Int32
}

func newFakeServer() *fakeServer {
	return &fakeServer{started: make(chan struct{}, 1), stop: make(chan struct{})}
}

func (f *fakeServer) ListenAndServe() error {
	select {
	case f.started <- struct{}{}:
	default:
	}
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.stop
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(context.Context) error {
	f.shutdowns.Add(1)
	close(f.stop)
	return f.shutdownErr
}

func TestNewHTTPServerService_Timeout(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in, want time.Duration
	}{
		{5 * time.Second, 5 * time.Second},
		{0, DefaultShutdownTimeout},
		{-time.Second, DefaultShutdownTimeout},
	}
	for _, tt := range tests {
		if got := NewHTTPServerService(newFakeServer(), tt.in).shutdownTimeout; got != tt.want {
			t.Errorf("timeout(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestHTTPServerService_DrainsOnCancel(t *testing.T) {
	t.Parallel()
	server := newFakeServer()
	svc := NewHTTPServerService(server, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	<-server.started
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
	}
	if server.shutdowns.Load() != 1 {
		t.Errorf("Shutdown called %d times, want 1", server.shutdowns.Load())
	}
}

func TestHTTPServerService_Errors(t *testing.T) {
	t.Parallel()

	t.Run("listen failure", func(t *testing.T) {
		t.Parallel()
		bindErr := errors.New("bind: address already in use")
		server := newFakeServer()
		server.listenErr = bindErr

		err := NewHTTPServerService(server, time.Second).Serve(context.Background())
		if !errors.Is(err, bindErr) {
			t.Errorf("Serve = %v, want %v", err, bindErr)
		}
	})

	t.Run("drain timeout", func(t *testing.T) {
		t.Parallel()
		server := newFakeServer()
		server.shutdownErr = context.DeadlineExceeded
		svc := NewHTTPServerService(server, time.Second)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- svc.Serve(ctx) }()
		<-server.started
		cancel()

		if err := <-errCh; !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Serve = %v, want deadline exceeded", err)
		}
	})
}

func TestPeriodicService_RunsUntilCanceled(t *testing.T) {
	t.Parallel()
	var runs atomic.Int32
	svc := NewPeriodicService("pruner", 5*time.Millisecond, func(context.Context) (int, error) {
		n := runs.Add(1)
		if n == 2 {
			return 0, errors.New("store unavailable")
		}
		return 1, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() < 4 {
		if time.Now().After(deadline) {
			t.Fatalf("task ran %d times, want at least 4", runs.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve = %v, want context.Canceled", err)
	}
	if svc.String() != "pruner" {
		t.Errorf("String = %q", svc.String())
	}
}
