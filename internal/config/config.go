// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

// Package config loads Roster's configuration.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: built-in values from defaultConfig()
//  2. Config File: optional YAML file (CONFIG_PATH or ./config.yaml)
//  3. Environment Variables: the deployment names (NODE_ENV, PORT, DATABASE_URL, ...)
//
// Config is immutable after Load() and safe for concurrent reads.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Environments recognised in NODE_ENV.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// DevAdminPassword is the bootstrap admin password used when none is configured
// outside production. Production refuses to start with it.
const DevAdminPassword = "roster-dev-admin"

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Database    DatabaseConfig    `koanf:"database"`
	Session     SessionConfig     `koanf:"session"`
	Admin       AdminConfig       `koanf:"admin"`
	ObjectStore ObjectStoreConfig `koanf:"object_store"`
	Upload      UploadConfig      `koanf:"upload"`
	RateLimit   RateLimitConfig   `koanf:"rate_limit"`
	Security    SecurityConfig    `koanf:"security"`
	API         APIConfig         `koanf:"api"`
	Logging     LoggingConfig     `koanf:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Environment     string        `koanf:"environment"`
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ProductionURL   string        `koanf:"production_url"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig holds relational store configuration.
//
// URL selects the driver: postgres:// and postgresql:// use pgx, sqlite:// and
// file: use the embedded SQLite driver.
type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	MaxWaiters      int           `koanf:"max_waiters"`
	AcquireTimeout  time.Duration `koanf:"acquire_timeout"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	QueryTimeout    time.Duration `koanf:"query_timeout"`
}

// SessionConfig holds session store and cookie configuration.
type SessionConfig struct {
	Secret        string        `koanf:"secret"`
	CookieName    string        `koanf:"cookie_name"`
	TTL           time.Duration `koanf:"ttl"`
	Store         string        `koanf:"store"` // database, badger, memory
	BadgerPath    string        `koanf:"badger_path"`
	PruneInterval time.Duration `koanf:"prune_interval"`
}

// AdminConfig holds bootstrap admin and login configuration.
type AdminConfig struct {
	DefaultUsername  string        `koanf:"default_username"`
	DefaultPassword  string        `koanf:"default_password"`
	BcryptCost       int           `koanf:"bcrypt_cost"`
	LoginMinDuration time.Duration `koanf:"login_min_duration"`
}

// ObjectStoreConfig selects and configures the image object store.
type ObjectStoreConfig struct {
	Provider      string           `koanf:"provider"` // cloudinary, s3, memory
	Cloudinary    CloudinaryConfig `koanf:"cloudinary"`
	S3            S3Config         `koanf:"s3"`
	UploadTimeout time.Duration    `koanf:"upload_timeout"`
	DeleteTimeout time.Duration    `koanf:"delete_timeout"`
}

// CloudinaryConfig holds Cloudinary credentials.
type CloudinaryConfig struct {
	CloudName string `koanf:"cloud_name"`
	APIKey    string `koanf:"api_key"`
	APISecret string `koanf:"api_secret"`
}

// Configured reports whether all Cloudinary credentials are present.
func (c CloudinaryConfig) Configured() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

// S3Config holds S3-compatible bucket configuration.
type S3Config struct {
	Endpoint  string `koanf:"endpoint"`
	Bucket    string `koanf:"bucket"`
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
	UseSSL    bool   `koanf:"use_ssl"`
	PublicURL string `koanf:"public_url"`
}

// UploadConfig holds file upload limits.
type UploadConfig struct {
	MaxFileSizeMB  int      `koanf:"max_file_size_mb"`
	AllowedTypes   []string `koanf:"allowed_types"`
	MaxImagePixels int      `koanf:"max_image_pixels"`
}

// MaxFileSizeBytes returns the upload cap in bytes.
func (u UploadConfig) MaxFileSizeBytes() int64 {
	return int64(u.MaxFileSizeMB) << 20
}

// RateLimitConfig holds the general and login rate limits.
// Windows are expressed in milliseconds to match the deployment variables.
type RateLimitConfig struct {
	WindowMS        int  `koanf:"window_ms"`
	MaxRequests     int  `koanf:"max_requests"`
	AuthWindowMS    int  `koanf:"auth_window_ms"`
	AuthMaxAttempts int  `koanf:"auth_max_attempts"`
	Disabled        bool `koanf:"disabled"`
}

// Window returns the general rate limit window.
func (r RateLimitConfig) Window() time.Duration {
	return time.Duration(r.WindowMS) * time.Millisecond
}

// AuthWindow returns the login rate limit window.
func (r RateLimitConfig) AuthWindow() time.Duration {
	return time.Duration(r.AuthWindowMS) * time.Millisecond
}

// SecurityConfig holds CORS, CSP and proxy settings.
type SecurityConfig struct {
	CORSOrigins []string `koanf:"cors_origins"`
	CDNOrigins  []string `koanf:"cdn_origins"`

	// TrustedProxies lists the peer addresses or CIDR ranges whose
	// X-Forwarded-For and X-Real-IP headers are honoured.
	TrustedProxies []string `koanf:"trusted_proxies"`
}

// APIConfig holds response shaping limits.
type APIConfig struct {
	ListLimit        int   `koanf:"list_limit"`
	ContactListLimit int   `koanf:"contact_list_limit"`
	MaxBodyBytes     int64 `koanf:"max_body_bytes"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from defaults, the optional config file and the
// environment, then validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// IsProduction returns true if NODE_ENV is production.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == EnvProduction || env == "prod"
}

// IsDevelopment returns true if NODE_ENV is development or empty.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == EnvDevelopment || env == "dev" || env == ""
}

// IsTest returns true if NODE_ENV is test.
func (c *Config) IsTest() bool {
	return strings.ToLower(c.Server.Environment) == EnvTest
}

// AllowedOrigins returns the origins trusted for CORS and CSRF checks.
// In production this is the configured list plus PRODUCTION_URL.
func (c *Config) AllowedOrigins() []string {
	origins := make([]string, 0, len(c.Security.CORSOrigins)+1)
	seen := make(map[string]bool)
	add := func(o string) {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" && !seen[o] {
			seen[o] = true
			origins = append(origins, o)
		}
	}
	add(c.Server.ProductionURL)
	for _, o := range c.Security.CORSOrigins {
		add(o)
	}
	return origins
}
