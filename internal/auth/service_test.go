// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package auth

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/roster/internal/logging"
	"github.com/tomtom215/roster/internal/validation"
)

func newTestService(t *testing.T, minDuration time.Duration, limiter *LoginLimiter) (*Service, *DatabaseAdminStore) {
	t.Helper()
	admins := NewDatabaseAdminStore(newTestGateway(t))
	svc, err := NewService(admins, ServiceConfig{
		MinDuration: minDuration,
		BcryptCost:  bcrypt.MinCost,
		Limiter:     limiter,
		Security:    logging.NewSecurityLoggerWithLogger(zerolog.New(io.Discard)),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, admins
}

func TestService_Authenticate(t *testing.T) {
	t.Parallel()
	svc, admins := newTestService(t, time.Millisecond, nil)
	ctx := context.Background()
	client := ClientInfo{IP: "192.0.2.1", UserAgent: "test"}

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"valid", "admin", "correct-horse", nil},
		{"case-insensitive username", "ADMIN", "correct-horse", nil},
		{"wrong password", "admin", "wrong", ErrInvalidCredentials},
		{"unknown user", "nobody", "correct-horse", ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Authenticate(ctx, validation.LoginInput{Username: tt.username, Password: tt.password}, client)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Authenticate error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && (got.ID <= 0 || got.Username != "admin") {
				t.Errorf("Authenticate = %+v", got)
			}
		})
	}

	admin, err := admins.FindByUsername(ctx, "admin")
	if err != nil || admin == nil {
		t.Fatalf("FindByUsername: %v, %v", admin, err)
	}
	if admin.LastLogin == nil {
		t.Error("successful login should record last_login")
	}
}

func TestService_MinimumDuration(t *testing.T) {
	t.Parallel()
	const minDuration = 60 * time.Millisecond
	svc, _ := newTestService(t, minDuration, nil)
	ctx := context.Background()

	for _, in := range []validation.LoginInput{
		{Username: "nobody", Password: "x"},
		{Username: "admin", Password: "wrong"},
		{Username: "admin", Password: "correct-horse"},
	} {
		start := time.Now()
		_, _ = svc.Authenticate(ctx, in, ClientInfo{IP: "192.0.2.9"})
		if elapsed := time.Since(start); elapsed < minDuration {
			t.Errorf("Authenticate(%s) took %v, want >= %v", in.Username, elapsed, minDuration)
		}
	}
}

func TestService_FailuresCountSuccessesDoNot(t *testing.T) {
	t.Parallel()
	limiter := NewLoginLimiter(LoginLimiterConfig{MaxFailures: 3, Window: time.Minute})
	svc, _ := newTestService(t, time.Millisecond, limiter)
	ctx := context.Background()
	client := ClientInfo{IP: "198.51.100.7"}

	for i := 0; i < 5; i++ {
		if _, err := svc.Authenticate(ctx, validation.LoginInput{Username: "admin", Password: "correct-horse"}, client); err != nil {
			t.Fatalf("login %d: %v", i, err)
		}
	}
	if err := svc.Allow(ctx, client); err != nil {
		t.Fatalf("successful logins consumed the budget: %v", err)
	}

	for i := 0; i < 3; i++ {
		_, _ = svc.Authenticate(ctx, validation.LoginInput{Username: "admin", Password: "bad"}, client)
	}
	if err := svc.Allow(ctx, client); !errors.Is(err, ErrLoginRateLimited) {
		t.Errorf("Allow after 3 failures = %v, want ErrLoginRateLimited", err)
	}
}
