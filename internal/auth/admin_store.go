// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/roster/internal/database"
	"github.com/tomtom215/roster/internal/models"
)

// AdminStore looks up admin accounts for login.
type AdminStore interface {
	// FindByUsername returns the admin with the given username, compared
	// case-insensitively, or nil if there is none.
	FindByUsername(ctx context.Context, username string) (*models.Admin, error)

	// RecordLogin sets the admin's last-login timestamp.
	RecordLogin(ctx context.Context, adminID int64, at time.Time) error
}

// DatabaseAdminStore reads admins from the admins table.
type DatabaseAdminStore struct {
	gw *database.Gateway
}

// NewDatabaseAdminStore creates an AdminStore over the gateway.
func NewDatabaseAdminStore(gw *database.Gateway) *DatabaseAdminStore {
	return &DatabaseAdminStore{gw: gw}
}

// FindByUsername returns the admin with the given username, or nil.
func (s *DatabaseAdminStore) FindByUsername(ctx context.Context, username string) (*models.Admin, error) {
	var (
		admin     models.Admin
		lastLogin *time.Time
	)
	found, err := s.gw.QueryOne(ctx,
		`SELECT id, username, password_hash, last_login FROM admins WHERE LOWER(username) = LOWER($1)`,
		func(sc database.Scanner) error {
			return sc.Scan(&admin.ID, &admin.Username, &admin.PasswordHash, &lastLogin)
		},
		username,
	)
	if err != nil {
		return nil, fmt.Errorf("find admin: %w", err)
	}
	if !found {
		return nil, nil
	}
	admin.LastLogin = lastLogin
	return &admin, nil
}

// RecordLogin sets the admin's last-login timestamp.
func (s *DatabaseAdminStore) RecordLogin(ctx context.Context, adminID int64, at time.Time) error {
	if _, err := s.gw.Exec(ctx,
		`UPDATE admins SET last_login = $1 WHERE id = $2`,
		at.UTC(), adminID,
	); err != nil {
		return fmt.Errorf("record admin login: %w", err)
	}
	return nil
}
