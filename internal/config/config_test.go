// Gatewarden - Multi-Level Authorization Service
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testJWTSecret = "0123456789abcdef0123456789abcdef"

func TestDefaultsAreValid(t *testing.T) {
	cfg := defaultConfig()
	cfg.Security.JWTSecret = testJWTSecret

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Cache.SubjectTTL != 5*time.Minute {
		t.Errorf("SubjectTTL = %v, want 5m", cfg.Cache.SubjectTTL)
	}
	if cfg.Server.IsProduction() {
		t.Error("default environment should not be production")
	}
}

func TestLoadLayersEnvOverFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := strings.Join([]string{
		"server:",
		"  port: 9000",
		"cache:",
		"  backend: memory",
		"  subject_ttl: 10m",
		"security:",
		"  jwt_secret: " + testJWTSecret,
	}, "\n")
	if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(ConfigPathEnvVar, configPath)
	t.Setenv("HTTP_PORT", "9100")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9100 {
		t.Errorf("Port = %d, want env override 9100", cfg.Server.Port)
	}
	if cfg.Cache.SubjectTTL != 10*time.Minute {
		t.Errorf("SubjectTTL = %v, want file value 10m", cfg.Cache.SubjectTTL)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Host = %q, want default", cfg.Server.Host)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"bad environment", func(c *Config) { c.Server.Environment = "staging" }},
		{"bad cache backend", func(c *Config) { c.Cache.Backend = "memcached" }},
		{"redis without addr", func(c *Config) {
			c.Cache.Backend = "redis"
			c.Cache.RedisAddr = ""
		}},
		{"short jwt secret", func(c *Config) { c.Security.JWTSecret = "short" }},
		{"auth disabled in production", func(c *Config) {
			c.Security.AuthDisabled = true
			c.Server.Environment = "production"
		}},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"zero audit buffer", func(c *Config) { c.Audit.BufferSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Security.JWTSecret = testJWTSecret
			tt.mutate(cfg)

			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestEnvTransformSkipsUnknown(t *testing.T) {
	if got := envTransformFunc("PATH"); got != "" {
		t.Errorf("envTransformFunc(PATH) = %q, want empty", got)
	}
	if got := envTransformFunc("JWT_SECRET"); got != "security.jwt_secret" {
		t.Errorf("envTransformFunc(JWT_SECRET) = %q", got)
	}
}
