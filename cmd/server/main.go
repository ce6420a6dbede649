// Gatewarden - Multi-Level Authorization Service
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

// Package main is the entry point for the Gatewarden server.
//
// Gatewarden answers authorization questions for a multi-tenant
// security platform: may this subject perform this action over this
// resource, at the user, group, or organization level. Decisions are
// evaluated per request against cached policy snapshots; nothing is
// ever decided from implicit state.
//
// The server initializes components in the following order:
//
//  1. Configuration: Koanf v2 layered sources (defaults, YAML, env)
//  2. Logging: zerolog structured output
//  3. Policy store: embedded BadgerDB
//  4. Policy cache: Redis (circuit-breaker protected) or in-process
//  5. Authorization service: registry, enforcers, audit trail
//  6. HTTP server: chi-routed REST API with Prometheus metrics
//
// Shutdown is graceful on SIGINT and SIGTERM: the listener stops
// accepting connections, in-flight requests get a drain window, then
// the audit trail is flushed and the store closed.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/gatewarden/gatewarden/internal/api"
	"github.com/gatewarden/gatewarden/internal/auth"
	"github.com/gatewarden/gatewarden/internal/authz"
	"github.com/gatewarden/gatewarden/internal/cache"
	"github.com/gatewarden/gatewarden/internal/config"
	"github.com/gatewarden/gatewarden/internal/logging"
	"github.com/gatewarden/gatewarden/internal/monitor"
	"github.com/gatewarden/gatewarden/internal/store"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("cache_backend", cfg.Cache.Backend).
		Msg("Starting Gatewarden")

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server exited with error")
	}

	logging.Info().Msg("Application stopped gracefully")
}

func run(cfg *config.Config) error {
	// Policy store
	policyStore, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("initialize policy store: %w", err)
	}
	defer func() {
		if err := policyStore.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing policy store")
		}
	}()

	// Policy cache
	kv, closeCache := openCache(cfg)
	defer closeCache()

	// Authorization service
	reporter := monitor.NewLogReporter()
	registry := authz.NewRegistry(reporter)
	audit := authz.NewAuditLogger(&authz.AuditLoggerConfig{
		Enabled:    cfg.Audit.Enabled,
		LogAllowed: cfg.Audit.LogAllowed,
		LogDenied:  cfg.Audit.LogDenied,
		BufferSize: cfg.Audit.BufferSize,
	})
	defer audit.Close()

	service := authz.NewService(policyStore, kv, registry, reporter, audit, &authz.ServiceConfig{
		SubjectTTL: cfg.Cache.SubjectTTL,
		GroupTTL:   cfg.Cache.GroupServicesTTL,
	})

	directory := store.NewDirectory(policyStore)
	guard := authz.NewGuard(service, directory, reporter, authz.GuardConfig{
		Debug: !cfg.Server.IsProduction(),
	})

	// Authentication
	var tokens *auth.TokenManager
	if !cfg.Security.AuthDisabled {
		tokens, err = auth.NewTokenManager(cfg.Security.JWTSecret, cfg.Security.TokenTTL)
		if err != nil {
			return fmt.Errorf("initialize token manager: %w", err)
		}
	} else {
		logging.Warn().Msg("Authentication disabled")
	}

	// HTTP surface
	handler := api.NewHandler(service, directory, directory, kv, version)
	router := api.NewRouter(handler, guard, auth.NewMiddleware(tokens))

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  2 * cfg.Server.Timeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-serverErr:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("HTTP server shutdown timed out")
	}

	return nil
}

func openStore(cfg *config.Config) (*store.BadgerStore, error) {
	if cfg.Store.InMemory {
		opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
		db, err := badger.Open(opts)
		if err != nil {
			return nil, err
		}
		logging.Warn().Msg("Policy store running in memory; grants will not survive restart")
		return store.NewBadgerStore(db), nil
	}
	return store.OpenBadger(cfg.Store.Path)
}

func openCache(cfg *config.Config) (cache.KeyValue, func()) {
	if cfg.Cache.Backend == "redis" {
		redisCache := cache.NewRedis(cache.RedisConfig{
			Addr:      cfg.Cache.RedisAddr,
			Password:  cfg.Cache.RedisPassword,
			DB:        cfg.Cache.RedisDB,
			OpTimeout: cfg.Cache.OpTimeout,
		})
		if err := redisCache.Ping(context.Background()); err != nil {
			logging.Warn().Err(err).Msg("Redis unreachable at startup; serving from the policy store until it recovers")
		}
		return redisCache, func() {
			if err := redisCache.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing cache connection")
			}
		}
	}

	mem := cache.NewMemory()
	return mem, mem.Stop
}
