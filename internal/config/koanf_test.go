// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// setBaseEnv sets the minimum environment for a development load.
func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("NODE_ENV", "development")
	t.Setenv("DATABASE_URL", "sqlite://file:cfg?mode=memory")
	t.Setenv("SESSION_SECRET", "dev-secret")
	t.Setenv("OBJECT_STORE", "memory")
	t.Setenv("PORT", "3000")
	t.Setenv("HOST", "127.0.0.1")
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want 3000", cfg.Server.Port)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("Server.ShutdownTimeout = %v, want 10s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Upload.MaxFileSizeMB != 5 {
		t.Errorf("Upload.MaxFileSizeMB = %d, want 5", cfg.Upload.MaxFileSizeMB)
	}
	if cfg.RateLimit.MaxRequests != 100 || cfg.RateLimit.Window() != 15*time.Minute {
		t.Errorf("general rate limit = %d/%v, want 100/15m", cfg.RateLimit.MaxRequests, cfg.RateLimit.Window())
	}
	if cfg.RateLimit.AuthMaxAttempts != 5 || cfg.RateLimit.AuthWindow() != 15*time.Minute {
		t.Errorf("auth rate limit = %d/%v, want 5/15m", cfg.RateLimit.AuthMaxAttempts, cfg.RateLimit.AuthWindow())
	}
	if cfg.API.ListLimit != 20 {
		t.Errorf("API.ListLimit = %d, want 20", cfg.API.ListLimit)
	}
	if cfg.API.MaxBodyBytes != 10<<20 {
		t.Errorf("API.MaxBodyBytes = %d, want 10MiB", cfg.API.MaxBodyBytes)
	}
	if cfg.Admin.BcryptCost != 12 {
		t.Errorf("Admin.BcryptCost = %d, want 12", cfg.Admin.BcryptCost)
	}
	if cfg.ObjectStore.UploadTimeout != 30*time.Second || cfg.ObjectStore.DeleteTimeout != 10*time.Second {
		t.Errorf("object store timeouts = %v/%v", cfg.ObjectStore.UploadTimeout, cfg.ObjectStore.DeleteTimeout)
	}
}

func TestLoadWithKoanf_EnvironmentNames(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("RATE_LIMIT_WINDOW_MS", "60000")
	t.Setenv("RATE_LIMIT_MAX_REQUESTS", "50")
	t.Setenv("MAX_FILE_SIZE_MB", "8")
	t.Setenv("ALLOWED_FILE_TYPES", "image/jpeg, image/png")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CLOUDINARY_CLOUD_NAME", "team")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.1, 172.16.0.0/12")
	t.Setenv("UNRELATED_VARIABLE", "ignored")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.RateLimit.Window() != time.Minute {
		t.Errorf("Window = %v, want 1m", cfg.RateLimit.Window())
	}
	if cfg.RateLimit.MaxRequests != 50 {
		t.Errorf("MaxRequests = %d, want 50", cfg.RateLimit.MaxRequests)
	}
	if cfg.Upload.MaxFileSizeBytes() != 8<<20 {
		t.Errorf("MaxFileSizeBytes = %d, want 8MiB", cfg.Upload.MaxFileSizeBytes())
	}
	if got := strings.Join(cfg.Upload.AllowedTypes, "|"); got != "image/jpeg|image/png" {
		t.Errorf("AllowedTypes = %q", got)
	}
	if got := strings.Join(cfg.Security.TrustedProxies, "|"); got != "10.0.0.1|172.16.0.0/12" {
		t.Errorf("TrustedProxies = %q", got)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.ObjectStore.Cloudinary.CloudName != "team" {
		t.Errorf("CloudName = %q, want team", cfg.ObjectStore.Cloudinary.CloudName)
	}
	if cfg.Addr() != "127.0.0.1:3000" {
		t.Errorf("Addr() = %q", cfg.Addr())
	}
	if cfg.Admin.DefaultPassword != DevAdminPassword {
		t.Errorf("development should fall back to the dev admin password")
	}
}

func TestLoadWithKoanf_ConfigFile(t *testing.T) {
	setBaseEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "roster.yaml")
	content := []byte("api:\n  list_limit: 12\nsession:\n  cookie_name: team.sid\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.API.ListLimit != 12 {
		t.Errorf("ListLimit = %d, want 12", cfg.API.ListLimit)
	}
	if cfg.Session.CookieName != "team.sid" {
		t.Errorf("CookieName = %q, want team.sid", cfg.Session.CookieName)
	}
}

func TestLoadWithKoanf_TestEnvironmentDefaultsDatabase(t *testing.T) {
	t.Setenv("NODE_ENV", "test")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SESSION_SECRET", "test-secret")
	t.Setenv("OBJECT_STORE", "memory")
	t.Setenv("PORT", "3000")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if !strings.HasPrefix(cfg.Database.URL, "sqlite://") {
		t.Errorf("test environment should default to sqlite, got %q", cfg.Database.URL)
	}
}

func TestLoadWithKoanf_CloudinaryFallbackOutsideProduction(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("OBJECT_STORE", "cloudinary")
	t.Setenv("CLOUDINARY_CLOUD_NAME", "")
	t.Setenv("CLOUDINARY_API_KEY", "")
	t.Setenv("CLOUDINARY_API_SECRET", "")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.ObjectStore.Provider != "memory" {
		t.Errorf("Provider = %q, want memory without credentials", cfg.ObjectStore.Provider)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"NODE_ENV":               "server.environment",
		"DATABASE_URL":           "database.url",
		"CLOUDINARY_API_SECRET":  "object_store.cloudinary.api_secret",
		"DEFAULT_ADMIN_USERNAME": "admin.default_username",
		"PATH":                   "",
		"HOME":                   "",
	}
	for in, want := range tests {
		if got := envTransformFunc(in); got != want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", in, got, want)
		}
	}
}
