// Gatewarden - Multi-Level Authorization Policy Engine
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"

	"github.com/gatewarden/gatewarden/internal/logging"
)

// scanBatch is the COUNT hint for SCAN during pattern deletes.
const scanBatch = 100

// RedisConfig holds connection settings for the Redis backend.
type RedisConfig struct {
	// Addr is the host:port of the Redis server.
	Addr string

	// Password is the optional AUTH password.
	Password string

	// DB is the logical database number.
	DB int

	// DialTimeout bounds connection establishment. Default 5s.
	DialTimeout time.Duration

	// OpTimeout bounds individual commands. Default 2s.
	OpTimeout time.Duration
}

// Redis is a KeyValue over a Redis server. Every command runs through a
// circuit breaker so a down cluster fast-fails to the miss path instead
// of stalling request handling on connection timeouts.
type Redis struct {
	client    *redis.Client
	breaker   *gobreaker.CircuitBreaker[[]byte]
	opTimeout time.Duration
}

// NewRedis connects to Redis and wraps it in a circuit breaker. The
// connection is verified lazily; a server that is down at startup only
// opens the breaker.
func NewRedis(cfg RedisConfig) *Redis {
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	if cfg.OpTimeout == 0 {
		cfg.OpTimeout = 2 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
		ReadTimeout: cfg.OpTimeout,
	})

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "authz-cache",
		Timeout: 10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Cache circuit breaker state changed")
		},
	})

	return &Redis{client: client, breaker: breaker, opTimeout: cfg.OpTimeout}
}

// NewRedisWithClient wraps an existing client, used by tests against
// miniredis.
func NewRedisWithClient(client *redis.Client) *Redis {
	return &Redis{
		client: client,
		breaker: gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name: "authz-cache-test",
		}),
		opTimeout: 2 * time.Second,
	}
}

// Get returns the value for key, ErrNotFound on a miss. A breaker-open
// state surfaces as an ordinary error; callers treat it as a miss.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.breaker.Execute(func() ([]byte, error) {
		opCtx, cancel := context.WithTimeout(ctx, r.opTimeout)
		defer cancel()

		val, err := r.client.Get(opCtx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			// A miss is a healthy response, not a breaker failure.
			return nil, nil
		}
		return val, err
	})
	if err != nil {
		return nil, fmt.Errorf("cache get %q: %w", key, err)
	}
	if value == nil {
		return nil, ErrNotFound
	}
	return value, nil
}

// Set stores value under key for ttl.
func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := r.breaker.Execute(func() ([]byte, error) {
		opCtx, cancel := context.WithTimeout(ctx, r.opTimeout)
		defer cancel()

		return nil, r.client.Set(opCtx, key, value, ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("cache set %q: %w", key, err)
	}
	return nil
}

// DeletePattern removes every key matching the glob pattern using
// SCAN + DEL, so it never blocks the server the way KEYS would.
func (r *Redis) DeletePattern(ctx context.Context, pattern string) error {
	_, err := r.breaker.Execute(func() ([]byte, error) {
		var cursor uint64
		for {
			opCtx, cancel := context.WithTimeout(ctx, r.opTimeout)
			keys, next, err := r.client.Scan(opCtx, cursor, pattern, scanBatch).Result()
			cancel()
			if err != nil {
				return nil, err
			}

			if len(keys) > 0 {
				opCtx, cancel = context.WithTimeout(ctx, r.opTimeout)
				err = r.client.Del(opCtx, keys...).Err()
				cancel()
				if err != nil {
					return nil, err
				}
			}

			cursor = next
			if cursor == 0 {
				return nil, nil
			}
		}
	})
	if err != nil {
		return fmt.Errorf("cache delete pattern %q: %w", pattern, err)
	}
	return nil
}

// Ping verifies connectivity, for health checks.
func (r *Redis) Ping(ctx context.Context) error {
	opCtx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()
	return r.client.Ping(opCtx).Err()
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}
