// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package auth

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/roster/internal/logging"
	"github.com/tomtom215/roster/internal/models"
	"github.com/tomtom215/roster/internal/validation"
)

// DefaultLoginMinDuration is the minimum time a login attempt takes.
const DefaultLoginMinDuration = 100 * time.Millisecond

// ServiceConfig holds configuration for the login service.
type ServiceConfig struct {
	// MinDuration is the minimum elapsed time of Authenticate, whatever the outcome.
	MinDuration time.Duration

	// BcryptCost matches the cost of stored hashes so unknown usernames
	// spend the same time hashing.
	BcryptCost int

	// Limiter counts failed attempts per client IP. Nil disables limiting.
	Limiter *LoginLimiter

	// Security receives login events.
	Security *logging.SecurityLogger
}

// ClientInfo identifies the caller of a login for limiting and logging.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// Service verifies admin credentials.
type Service struct {
	admins      AdminStore
	limiter     *LoginLimiter
	security    *logging.SecurityLogger
	minDuration time.Duration
	dummyHash   []byte
	now         func() time.Time
}

// NewService creates a login service over admins.
func NewService(admins AdminStore, cfg ServiceConfig) (*Service, error) {
	if cfg.MinDuration <= 0 {
		cfg.MinDuration = DefaultLoginMinDuration
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.Security == nil {
		cfg.Security = logging.NewSecurityLogger()
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte(generateSessionID()), cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("prepare login service: %w", err)
	}

	return &Service{
		admins:      admins,
		limiter:     cfg.Limiter,
		security:    cfg.Security,
		minDuration: cfg.MinDuration,
		dummyHash:   dummy,
		now:         time.Now,
	}, nil
}

// Allow returns a *RateLimitError if the client has spent its failed-login
// budget for the current window.
func (s *Service) Allow(ctx context.Context, client ClientInfo) error {
	if s.limiter == nil {
		return nil
	}
	if err := s.limiter.Check(client.IP); err != nil {
		s.security.LogRateLimited(ctx, "login", "POST", "/api/admin/login", client.IP)
		return err
	}
	return nil
}

// RecordFailure counts a failed attempt that never reached credential
// checks, such as a malformed body.
func (s *Service) RecordFailure(ctx context.Context, client ClientInfo, reason string) {
	if s.limiter != nil {
		s.limiter.RecordFailure(client.IP)
	}
	s.security.LogLoginFailure(ctx, "", client.IP, client.UserAgent, reason)
}

// Authenticate checks in against the admins table. Any failure returns
// ErrInvalidCredentials after the same minimum delay, whether or not the
// username exists. Store errors are returned as-is.
func (s *Service) Authenticate(ctx context.Context, in validation.LoginInput, client ClientInfo) (models.AdminSummary, error) {
	start := s.now()
	defer s.pad(ctx, start)

	admin, err := s.admins.FindByUsername(ctx, in.Username)
	if err != nil {
		return models.AdminSummary{}, err
	}

	hash := s.dummyHash
	if admin != nil {
		hash = []byte(admin.PasswordHash)
	}
	cmpErr := bcrypt.CompareHashAndPassword(hash, []byte(in.Password))

	if admin == nil || cmpErr != nil {
		reason := "wrong password"
		if admin == nil {
			reason = "unknown username"
		}
		if s.limiter != nil {
			s.limiter.RecordFailure(client.IP)
		}
		s.security.LogLoginFailure(ctx, in.Username, client.IP, client.UserAgent, reason)
		return models.AdminSummary{}, ErrInvalidCredentials
	}

	if err := s.admins.RecordLogin(ctx, admin.ID, s.now()); err != nil {
		logging.CtxWarn(ctx).Err(err).Int64("admin_id", admin.ID).Msg("Failed to record admin login")
	}

	s.security.LogLoginSuccess(ctx, admin.ID, admin.Username, client.IP, client.UserAgent)
	return models.AdminSummary{ID: admin.ID, Username: admin.Username}, nil
}

// pad sleeps until minDuration has elapsed since start or ctx ends.
func (s *Service) pad(ctx context.Context, start time.Time) {
	remaining := s.minDuration - s.now().Sub(start)
	if remaining <= 0 {
		return
	}
	t := time.NewTimer(remaining)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
