// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

const (
	minSessionSecretLength = 32
	minProductionBcrypt    = 12
	maxBcryptCost          = 31
	maxUploadMB            = 50
)

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateDatabase,
		c.validateSession,
		c.validateAdmin,
		c.validateObjectStore,
		c.validateUpload,
		c.validateRateLimits,
		c.validateAPI,
		c.validateSecurity,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	switch strings.ToLower(c.Server.Environment) {
	case EnvDevelopment, EnvProduction, EnvTest, "dev", "prod":
	default:
		return fmt.Errorf("NODE_ENV must be one of development, production, test (got %q)", c.Server.Environment)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}
	if c.Server.ProductionURL != "" {
		u, err := url.Parse(c.Server.ProductionURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("PRODUCTION_URL must be an absolute URL")
		}
	}
	if c.IsProduction() && c.Server.ProductionURL == "" && len(c.Security.CORSOrigins) == 0 {
		return errors.New("PRODUCTION_URL or CORS_ORIGINS is required in production")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.URL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.Database.MaxOpenConns < 1 {
		return errors.New("DB_MAX_OPEN_CONNS must be at least 1")
	}
	if c.Database.MaxWaiters < 0 {
		return errors.New("DB_MAX_WAITERS must not be negative")
	}
	if c.Database.AcquireTimeout <= 0 {
		return errors.New("DB_ACQUIRE_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateSession() error {
	if c.Session.Secret == "" {
		return errors.New("SESSION_SECRET is required")
	}
	if c.IsProduction() && len(c.Session.Secret) < minSessionSecretLength {
		return fmt.Errorf("SESSION_SECRET must be at least %d characters in production", minSessionSecretLength)
	}
	if c.Session.CookieName == "" {
		return errors.New("SESSION_COOKIE_NAME must not be empty")
	}
	if c.Session.TTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	switch c.Session.Store {
	case "database", "memory":
	case "badger":
		if c.Session.BadgerPath == "" {
			return errors.New("SESSION_BADGER_PATH is required when SESSION_STORE=badger")
		}
	default:
		return fmt.Errorf("SESSION_STORE must be database, badger or memory (got %q)", c.Session.Store)
	}
	return nil
}

func (c *Config) validateAdmin() error {
	if c.Admin.BcryptCost < 4 || c.Admin.BcryptCost > maxBcryptCost {
		return fmt.Errorf("BCRYPT_COST must be between 4 and %d", maxBcryptCost)
	}
	if !c.IsProduction() {
		return nil
	}
	if c.Admin.BcryptCost < minProductionBcrypt {
		return fmt.Errorf("BCRYPT_COST must be at least %d in production", minProductionBcrypt)
	}
	if c.Admin.DefaultPassword == "" || c.Admin.DefaultPassword == DevAdminPassword {
		return errors.New("DEFAULT_ADMIN_PASSWORD must be set to a non-default value in production")
	}
	if err := AdminPasswordPolicy().ValidateWithError(c.Admin.DefaultPassword, c.Admin.DefaultUsername); err != nil {
		return fmt.Errorf("DEFAULT_ADMIN_PASSWORD: %w", err)
	}
	return nil
}

func (c *Config) validateObjectStore() error {
	switch c.ObjectStore.Provider {
	case "cloudinary":
		if c.IsProduction() && !c.ObjectStore.Cloudinary.Configured() {
			return errors.New("CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET are required in production")
		}
	case "s3":
		s3 := c.ObjectStore.S3
		if s3.Endpoint == "" || s3.Bucket == "" || s3.AccessKey == "" || s3.SecretKey == "" {
			return errors.New("S3_ENDPOINT, S3_BUCKET, S3_ACCESS_KEY and S3_SECRET_KEY are required when OBJECT_STORE=s3")
		}
	case "memory":
		if c.IsProduction() {
			return errors.New("OBJECT_STORE=memory is not allowed in production")
		}
	default:
		return fmt.Errorf("OBJECT_STORE must be cloudinary, s3 or memory (got %q)", c.ObjectStore.Provider)
	}
	if c.ObjectStore.UploadTimeout <= 0 || c.ObjectStore.DeleteTimeout <= 0 {
		return errors.New("object store timeouts must be positive")
	}
	return nil
}

func (c *Config) validateUpload() error {
	if c.Upload.MaxFileSizeMB < 1 || c.Upload.MaxFileSizeMB > maxUploadMB {
		return fmt.Errorf("MAX_FILE_SIZE_MB must be between 1 and %d", maxUploadMB)
	}
	if len(c.Upload.AllowedTypes) == 0 {
		return errors.New("ALLOWED_FILE_TYPES must list at least one MIME type")
	}
	for _, t := range c.Upload.AllowedTypes {
		if !strings.HasPrefix(t, "image/") {
			return fmt.Errorf("ALLOWED_FILE_TYPES entry %q is not an image type", t)
		}
	}
	return nil
}

func (c *Config) validateRateLimits() error {
	r := c.RateLimit
	if r.WindowMS <= 0 || r.MaxRequests <= 0 {
		return errors.New("RATE_LIMIT_WINDOW_MS and RATE_LIMIT_MAX_REQUESTS must be positive")
	}
	if r.AuthWindowMS <= 0 || r.AuthMaxAttempts <= 0 {
		return errors.New("AUTH_RATE_LIMIT_WINDOW_MS and AUTH_RATE_LIMIT_MAX_ATTEMPTS must be positive")
	}
	if r.Disabled && c.IsProduction() {
		return errors.New("rate limiting cannot be disabled in production")
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.ListLimit < 1 || c.API.ContactListLimit < 1 {
		return errors.New("LIST_LIMIT and CONTACT_LIST_LIMIT must be at least 1")
	}
	if c.API.MaxBodyBytes < 1024 {
		return errors.New("api.max_body_bytes must be at least 1024")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	for _, entry := range c.Security.TrustedProxies {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if _, _, err := net.ParseCIDR(entry); err == nil {
			continue
		}
		if net.ParseIP(entry) == nil {
			return fmt.Errorf("TRUSTED_PROXIES entry %q is not an IP address or CIDR range", entry)
		}
	}
	return nil
}
