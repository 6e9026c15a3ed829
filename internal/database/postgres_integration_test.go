// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

//go:build integration

package database

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/roster/internal/config"
	"github.com/tomtom215/roster/internal/testinfra"
)

func TestPostgresGateway(t *testing.T) {
	testinfra.SkipIfNoDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	pg, err := testinfra.NewPostgresContainer(ctx)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	defer testinfra.CleanupContainer(t, ctx, pg)

	g, err := Open(ctx, &config.DatabaseConfig{
		URL:            pg.URL,
		MaxOpenConns:   4,
		MaxIdleConns:   2,
		MaxWaiters:     16,
		AcquireTimeout: 5 * time.Second,
		QueryTimeout:   10 * time.Second,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer g.Close()

	if g.Dialect() != DialectPostgres {
		t.Fatalf("Dialect() = %s", g.Dialect())
	}
	if err := g.Bootstrap(ctx, BootstrapAdmin{Username: "admin", Password: "pg-test-password", BcryptCost: bcrypt.MinCost}); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	res, err := g.Exec(ctx,
		`INSERT INTO players (name, jersey_number, stars, joined_at) VALUES ($1, $2, $3, $4)`,
		"Kai Jensen", 7, 5, now)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if res.InsertedID <= 0 || res.Affected != 1 {
		t.Fatalf("Result = %+v", res)
	}

	var (
		name   string
		joined time.Time
	)
	found, err := g.QueryOne(ctx, `SELECT name, joined_at FROM players WHERE id = $1`,
		func(s Scanner) error { return s.Scan(&name, &joined) }, res.InsertedID)
	if err != nil || !found {
		t.Fatalf("QueryOne: found=%v err=%v", found, err)
	}
	if name != "Kai Jensen" || !joined.Equal(now) {
		t.Errorf("got (%q, %v), want (Kai Jensen, %v)", name, joined, now)
	}

	_, err = g.Exec(ctx,
		`INSERT INTO players (name, jersey_number, stars, joined_at) VALUES ($1, $2, $3, $4)`,
		"Bad", 100, 5, now)
	if !IsConstraint(err) {
		t.Errorf("check violation: err = %v, kind = %v", err, KindOf(err))
	}

	_, err = g.Exec(ctx, `INSERT INTO admins (username, password_hash, created_at) VALUES ($1, $2, $3)`, "ADMIN", "x", now)
	if !IsConstraint(err) {
		t.Errorf("duplicate admin: err = %v", err)
	}
}
