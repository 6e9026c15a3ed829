// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultMinIOImage is the MinIO image used for S3 backend tests.
	DefaultMinIOImage = "minio/minio:latest"

	minioPort = "9000/tcp"

	// MinIOAccessKey and MinIOSecretKey are the root credentials of the container.
	MinIOAccessKey = "roster-access"
	MinIOSecretKey = "roster-secret-key"
	// MinIOBucket is created before the container is returned.
	MinIOBucket = "roster-media"
)

// MinIOContainer is a running MinIO server.
type MinIOContainer struct {
	testcontainers.Container
	// Endpoint is host:port without a scheme.
	Endpoint string
}

// NewMinIOContainer creates and starts a MinIO server with MinIOBucket created.
func NewMinIOContainer(ctx context.Context) (*MinIOContainer, error) {
	req := testcontainers.ContainerRequest{
		Image:        DefaultMinIOImage,
		ExposedPorts: []string{minioPort},
		Env: map[string]string{
			"MINIO_ROOT_USER":     MinIOAccessKey,
			"MINIO_ROOT_PASSWORD": MinIOSecretKey,
		},
		Entrypoint: []string{"sh", "-c"},
		Cmd:        []string{fmt.Sprintf("mkdir -p /data/%s && minio server /data", MinIOBucket)},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort(minioPort),
			wait.ForHTTP("/minio/health/live").WithPort(minioPort),
		).WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, minioPort)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get mapped port: %w", err)
	}
	addr := fmt.Sprintf("%s:%s", host, port.Port())

	return &MinIOContainer{Container: container, Endpoint: addr}, nil
}
