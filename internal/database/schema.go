// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/roster/internal/logging"
)

// ErrNoAdminCredentials is returned by Bootstrap when the admins table is
// empty and no default password is configured.
var ErrNoAdminCredentials = errors.New("no admin exists and no default admin password is configured")

// schemaStatements are applied in order. {{id}} and {{ts}} are replaced with
// the dialect's auto-increment key and timestamp types.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS admins (
		id {{id}},
		username TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		last_login {{ts}},
		created_at {{ts}} NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_admins_username_lower ON admins (LOWER(username))`,

	`CREATE TABLE IF NOT EXISTS players (
		id {{id}},
		name TEXT NOT NULL,
		jersey_number INTEGER NOT NULL CHECK (jersey_number BETWEEN 1 AND 99),
		image_url TEXT,
		stars INTEGER NOT NULL CHECK (stars BETWEEN 1 AND 5),
		joined_at {{ts}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_players_joined_at ON players (joined_at DESC, id)`,

	`CREATE TABLE IF NOT EXISTS managers (
		id {{id}},
		name TEXT NOT NULL,
		role TEXT NOT NULL,
		image_url TEXT,
		joined_at {{ts}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_managers_joined_at ON managers (joined_at DESC, id)`,

	`CREATE TABLE IF NOT EXISTS trophies (
		id {{id}},
		name TEXT NOT NULL,
		year INTEGER NOT NULL CHECK (year >= 1900),
		image_url TEXT,
		created_at {{ts}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_trophies_created_at ON trophies (created_at DESC, id)`,

	`CREATE TABLE IF NOT EXISTS contacts (
		id {{id}},
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		whatsapp TEXT NOT NULL,
		submitted_at {{ts}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_contacts_submitted_at ON contacts (submitted_at DESC, id)`,

	`CREATE TABLE IF NOT EXISTS sessions (
		sid TEXT PRIMARY KEY,
		sess TEXT NOT NULL,
		expires_at {{ts}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions (expires_at)`,
}

func (d Dialect) render(stmt string) string {
	id, ts := "BIGSERIAL PRIMARY KEY", "TIMESTAMPTZ"
	if d == DialectSQLite {
		id, ts = "INTEGER PRIMARY KEY AUTOINCREMENT", "TIMESTAMP"
	}
	return strings.NewReplacer("{{id}}", id, "{{ts}}", ts).Replace(stmt)
}

// EnsureSchema creates any missing tables and indexes.
func (g *Gateway) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := g.Exec(ctx, g.dialect.render(stmt)); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// BootstrapAdmin holds the credentials for the first admin account.
type BootstrapAdmin struct {
	Username   string
	Password   string
	BcryptCost int
}

// Bootstrap ensures the schema exists and creates the default admin when
// the admins table is empty.
func (g *Gateway) Bootstrap(ctx context.Context, admin BootstrapAdmin) error {
	if err := g.EnsureSchema(ctx); err != nil {
		return err
	}

	var count int64
	if _, err := g.QueryOne(ctx, `SELECT COUNT(*) FROM admins`, func(s Scanner) error {
		return s.Scan(&count)
	}); err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}
	if count > 0 {
		return nil
	}

	if admin.Password == "" || admin.Username == "" {
		return ErrNoAdminCredentials
	}

	cost := admin.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(admin.Password), cost)
	if err != nil {
		return fmt.Errorf("failed to hash default admin password: %w", err)
	}

	res, err := g.Exec(ctx,
		`INSERT INTO admins (username, password_hash, created_at) VALUES ($1, $2, $3)`,
		admin.Username, string(hash), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create default admin: %w", err)
	}

	logging.Info().
		Int64("admin_id", res.InsertedID).
		Str("username", logging.SanitizeUsername(admin.Username)).
		Msg("Created default admin")
	return nil
}
