// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

// Package testinfra starts throwaway Docker containers for integration tests.
//
// Everything here is behind the integration build tag:
//
//	go test -tags integration ./...
//
// # PostgreSQL
//
//	pg, err := testinfra.NewPostgresContainer(ctx)
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer testinfra.CleanupContainer(t, ctx, pg)
//
//	gw, err := database.Open(ctx, &config.DatabaseConfig{URL: pg.URL, MaxOpenConns: 4})
//
// # MinIO
//
// NewMinIOContainer starts an S3-compatible server with a pre-created bucket
// for exercising the S3 object store backend.
//
// Tests are skipped when Docker is not available.
package testinfra
