// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/roster/config.yaml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Default returns the built-in configuration without reading the config
// file or the environment.
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Environment:     EnvDevelopment,
			Host:            "0.0.0.0",
			Port:            3000,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second, // uploads include image processing
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			MaxWaiters:      100,
			AcquireTimeout:  5 * time.Second,
			ConnMaxLifetime: 30 * time.Minute,
			QueryTimeout:    10 * time.Second,
		},
		Session: SessionConfig{
			CookieName:    "roster.sid",
			TTL:           24 * time.Hour,
			Store:         "database",
			BadgerPath:    "data/sessions",
			PruneInterval: 15 * time.Minute,
		},
		Admin: AdminConfig{
			DefaultUsername:  "admin",
			BcryptCost:       12,
			LoginMinDuration: 100 * time.Millisecond,
		},
		ObjectStore: ObjectStoreConfig{
			Provider:      "cloudinary",
			UploadTimeout: 30 * time.Second,
			DeleteTimeout: 10 * time.Second,
		},
		Upload: UploadConfig{
			MaxFileSizeMB:  5,
			AllowedTypes:   []string{"image/jpeg", "image/png", "image/webp", "image/gif"},
			MaxImagePixels: 40_000_000,
		},
		RateLimit: RateLimitConfig{
			WindowMS:        15 * 60 * 1000,
			MaxRequests:     100,
			AuthWindowMS:    15 * 60 * 1000,
			AuthMaxAttempts: 5,
		},
		Security: SecurityConfig{
			CDNOrigins: []string{"https://res.cloudinary.com"},
		},
		API: APIConfig{
			ListLimit:        20,
			ContactListLimit: 100,
			MaxBodyBytes:     10 << 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults
//  2. Config File (optional)
//  3. Environment Variables
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	cfg.applyEnvironmentDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// applyEnvironmentDefaults fills values whose default depends on NODE_ENV.
func (c *Config) applyEnvironmentDefaults() {
	if c.Database.URL == "" && c.IsTest() {
		c.Database.URL = "sqlite://file:roster_test?mode=memory&cache=shared"
	}
	if c.Admin.DefaultPassword == "" && !c.IsProduction() {
		c.Admin.DefaultPassword = DevAdminPassword
	}
	// Outside production a missing Cloudinary account falls back to the
	// in-memory store so the service runs without credentials.
	if c.ObjectStore.Provider == "cloudinary" && !c.ObjectStore.Cloudinary.Configured() && !c.IsProduction() {
		c.ObjectStore.Provider = "memory"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated strings when set via env.
var sliceConfigPaths = []string{
	"upload.allowed_types",
	"security.cors_origins",
	"security.cdn_origins",
	"security.trusted_proxies",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps deployment environment variable names (lowercased) to
// koanf paths. Variables not listed here are ignored.
var envMappings = map[string]string{
	"node_env":                     "server.environment",
	"host":                         "server.host",
	"port":                         "server.port",
	"production_url":               "server.production_url",
	"shutdown_timeout":             "server.shutdown_timeout",
	"database_url":                 "database.url",
	"db_max_open_conns":            "database.max_open_conns",
	"db_max_idle_conns":            "database.max_idle_conns",
	"db_max_waiters":               "database.max_waiters",
	"db_acquire_timeout":           "database.acquire_timeout",
	"db_query_timeout":             "database.query_timeout",
	"session_secret":               "session.secret",
	"session_cookie_name":          "session.cookie_name",
	"session_ttl":                  "session.ttl",
	"session_store":                "session.store",
	"session_badger_path":          "session.badger_path",
	"session_prune_interval":       "session.prune_interval",
	"default_admin_username":       "admin.default_username",
	"default_admin_password":       "admin.default_password",
	"bcrypt_cost":                  "admin.bcrypt_cost",
	"object_store":                 "object_store.provider",
	"cloudinary_cloud_name":        "object_store.cloudinary.cloud_name",
	"cloudinary_api_key":           "object_store.cloudinary.api_key",
	"cloudinary_api_secret":        "object_store.cloudinary.api_secret",
	"s3_endpoint":                  "object_store.s3.endpoint",
	"s3_bucket":                    "object_store.s3.bucket",
	"s3_access_key":                "object_store.s3.access_key",
	"s3_secret_key":                "object_store.s3.secret_key",
	"s3_use_ssl":                   "object_store.s3.use_ssl",
	"s3_public_url":                "object_store.s3.public_url",
	"upload_timeout":               "object_store.upload_timeout",
	"delete_timeout":               "object_store.delete_timeout",
	"max_file_size_mb":             "upload.max_file_size_mb",
	"allowed_file_types":           "upload.allowed_types",
	"max_image_pixels":             "upload.max_image_pixels",
	"rate_limit_window_ms":         "rate_limit.window_ms",
	"rate_limit_max_requests":      "rate_limit.max_requests",
	"auth_rate_limit_window_ms":    "rate_limit.auth_window_ms",
	"auth_rate_limit_max_attempts": "rate_limit.auth_max_attempts",
	"disable_rate_limit":           "rate_limit.disabled",
	"cors_origins":                 "security.cors_origins",
	"cdn_origins":                  "security.cdn_origins",
	"trusted_proxies":              "security.trusted_proxies",
	"list_limit":                   "api.list_limit",
	"contact_list_limit":           "api.contact_list_limit",
	"log_level":                    "logging.level",
	"log_format":                   "logging.format",
	"log_caller":                   "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - NODE_ENV -> server.environment
//   - CLOUDINARY_API_KEY -> object_store.cloudinary.api_key
//   - RATE_LIMIT_WINDOW_MS -> rate_limit.window_ms
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
