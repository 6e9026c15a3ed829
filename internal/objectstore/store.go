// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

// Package objectstore holds entity images outside the relational store.
//
// A Store uploads an in-memory buffer under a caller-chosen path key and
// returns a stable URL; the same key (recoverable from the URL with
// KeyFromURL) deletes the object again. Three backends are provided:
//
//   - Cloudinary (production default)
//   - any S3-compatible bucket through minio-go
//   - an in-process memory store that also serves its objects over HTTP
//
// Guard wraps any backend with per-call deadlines and a circuit breaker.
//
// Failures are reported as *Error. Error.Transient tells the caller whether
// the operation may succeed later (timeouts, 5xx, throttling, open breaker)
// or never will (bad credentials, rejected content).
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/tomtom215/roster/internal/config"
)

// Store is an image object store.
type Store interface {
	// Put uploads data under key and returns the public URL of the object.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	// Delete removes the object stored under key. Deleting a missing
	// object is not an error.
	Delete(ctx context.Context, key string) error
	// KeyFromURL recovers the key of an object from the URL returned by Put.
	KeyFromURL(url string) (string, bool)
	// Name identifies the backend in logs.
	Name() string
}

// ErrUnavailable is wrapped by errors returned while the circuit is open.
var ErrUnavailable = errors.New("object store unavailable")

// Error is an object store failure.
type Error struct {
	Op        string
	Key       string
	Transient bool
	Err       error
}

func (e *Error) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("object store %s %s (%s): %v", e.Op, e.Key, kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is an object store failure worth retrying.
func IsTransient(err error) bool {
	var osErr *Error
	return errors.As(err, &osErr) && osErr.Transient
}

// transientDefault reports whether a transport-level error is transient.
func transientDefault(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrUnavailable) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// New builds the backend selected by cfg.Provider.
func New(ctx context.Context, cfg *config.ObjectStoreConfig) (Store, error) {
	switch strings.ToLower(cfg.Provider) {
	case "cloudinary":
		return NewCloudinary(cfg.Cloudinary)
	case "s3":
		return NewS3(ctx, cfg.S3)
	case "memory":
		return NewMemory(DefaultMemoryBaseURL), nil
	default:
		return nil, fmt.Errorf("unknown object store provider %q", cfg.Provider)
	}
}
