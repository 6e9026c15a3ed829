// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package database

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func countAdmins(t *testing.T, g *Gateway) int64 {
	t.Helper()
	var n int64
	if _, err := g.QueryOne(context.Background(), `SELECT COUNT(*) FROM admins`, func(s Scanner) error {
		return s.Scan(&n)
	}); err != nil {
		t.Fatalf("count admins: %v", err)
	}
	return n
}

func TestBootstrap_CreatesDefaultAdminOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	g, err := OpenMemory(ctx)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = g.Close() })

	admin := BootstrapAdmin{Username: "admin", Password: "correct horse", BcryptCost: bcrypt.MinCost}
	if err := g.Bootstrap(ctx, admin); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if err := g.Bootstrap(ctx, admin); err != nil {
		t.Fatalf("second Bootstrap: %v", err)
	}
	if n := countAdmins(t, g); n != 1 {
		t.Fatalf("admins = %d, want 1", n)
	}

	var hash string
	if _, err := g.QueryOne(ctx, `SELECT password_hash FROM admins WHERE LOWER(username) = LOWER($1)`,
		func(s Scanner) error { return s.Scan(&hash) }, "ADMIN"); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(hash, "correct horse") {
		t.Fatal("password stored in clear text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("correct horse")); err != nil {
		t.Errorf("stored hash does not verify: %v", err)
	}
}

func TestBootstrap_RequiresCredentials(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	g, err := OpenMemory(ctx)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = g.Close() })

	err = g.Bootstrap(ctx, BootstrapAdmin{Username: "admin"})
	if !errors.Is(err, ErrNoAdminCredentials) {
		t.Errorf("err = %v, want ErrNoAdminCredentials", err)
	}
}

func TestDialectRender(t *testing.T) {
	t.Parallel()

	stmt := `CREATE TABLE t (id {{id}}, at {{ts}})`
	if got := DialectPostgres.render(stmt); got != `CREATE TABLE t (id BIGSERIAL PRIMARY KEY, at TIMESTAMPTZ)` {
		t.Errorf("postgres: %s", got)
	}
	if got := DialectSQLite.render(stmt); got != `CREATE TABLE t (id INTEGER PRIMARY KEY AUTOINCREMENT, at TIMESTAMP)` {
		t.Errorf("sqlite: %s", got)
	}
}
