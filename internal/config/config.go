// Gatewarden - Multi-Level Authorization Service
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

// Package config loads and validates the Gatewarden service
// configuration. Configuration is layered: built-in defaults, then an
// optional YAML file, then environment variables, with the later
// layers overriding the earlier ones.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration for the service.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Store    StoreConfig    `koanf:"store"`
	Cache    CacheConfig    `koanf:"cache"`
	Security SecurityConfig `koanf:"security"`
	Audit    AuditConfig    `koanf:"audit"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout     time.Duration `koanf:"timeout" validate:"min=1s"`
	Environment string        `koanf:"environment" validate:"oneof=development production"`
}

// IsProduction reports whether the server runs in production mode.
// Production mode fails closed on resolver errors instead of
// surfacing them to callers.
func (c ServerConfig) IsProduction() bool {
	return c.Environment == "production"
}

// StoreConfig controls the durable policy store.
type StoreConfig struct {
	Path string `koanf:"path" validate:"required"`
	// InMemory runs Badger without disk persistence. Test and
	// development use only.
	InMemory bool `koanf:"in_memory"`
}

// CacheConfig controls the policy cache layer.
type CacheConfig struct {
	// Backend selects the cache implementation: "redis" or "memory".
	Backend string `koanf:"backend" validate:"oneof=redis memory"`

	RedisAddr     string        `koanf:"redis_addr"`
	RedisPassword string        `koanf:"redis_password"`
	RedisDB       int           `koanf:"redis_db" validate:"min=0"`
	OpTimeout     time.Duration `koanf:"op_timeout" validate:"min=10ms"`

	SubjectTTL       time.Duration `koanf:"subject_ttl" validate:"min=1s"`
	GroupServicesTTL time.Duration `koanf:"group_services_ttl" validate:"min=1s"`
}

// SecurityConfig controls authentication.
type SecurityConfig struct {
	// AuthDisabled turns off bearer-token authentication. Requests
	// are then trusted to carry the subject via other means; only
	// usable in development.
	AuthDisabled bool          `koanf:"auth_disabled"`
	JWTSecret    string        `koanf:"jwt_secret"`
	TokenTTL     time.Duration `koanf:"token_ttl" validate:"min=1m"`
}

// AuditConfig controls authorization decision auditing.
type AuditConfig struct {
	Enabled    bool `koanf:"enabled"`
	LogAllowed bool `koanf:"log_allowed"`
	LogDenied  bool `koanf:"log_denied"`
	BufferSize int  `koanf:"buffer_size" validate:"min=1"`
}

// LoggingConfig controls structured logging output.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8642,
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Store: StoreConfig{
			Path:     "/data/gatewarden/policies",
			InMemory: false,
		},
		Cache: CacheConfig{
			Backend:          "memory",
			RedisAddr:        "127.0.0.1:6379",
			RedisPassword:    "",
			RedisDB:          0,
			OpTimeout:        2 * time.Second,
			SubjectTTL:       5 * time.Minute,
			GroupServicesTTL: time.Hour,
		},
		Security: SecurityConfig{
			AuthDisabled: false,
			JWTSecret:    "",
			TokenTTL:     24 * time.Hour,
		},
		Audit: AuditConfig{
			Enabled:    true,
			LogAllowed: false,
			LogDenied:  true,
			BufferSize: 1000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

var validate = validator.New()

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Cache.Backend == "redis" && c.Cache.RedisAddr == "" {
		return fmt.Errorf("CACHE_REDIS_ADDR is required when cache backend is redis")
	}

	if !c.Security.AuthDisabled && len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters unless AUTH_DISABLED=true")
	}

	if c.Security.AuthDisabled && c.Server.IsProduction() {
		return fmt.Errorf("AUTH_DISABLED cannot be combined with ENVIRONMENT=production")
	}

	return nil
}
