// Gatewarden - Multi-Level Authorization Policy Engine
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

// Package cache provides the key-value backends behind the policy cache.
//
// Two implementations exist: Redis for clustered deployments and an
// in-process TTL map for tests and single-node deployments. Callers
// treat every backend failure as a cache miss; nothing in this package
// is allowed to take an authorization decision down with it.
package cache

import (
	"context"
	"encoding/hex"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned by Get when the key is absent or expired.
var ErrNotFound = errors.New("cache: key not found")

// KeyValue is the backend contract for the policy cache.
//
// Get returns ErrNotFound on a miss; any other error means the backend
// is unhealthy and the caller should fall through to the policy store.
// DeletePattern removes every key matching a glob pattern ("*" wildcard).
type KeyValue interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePattern(ctx context.Context, pattern string) error
}

// Key scheme. Keys are versioned so a format change never reads stale
// entries written by an older build.
const (
	keyVersion    = "authz:v1"
	subjectPrefix = keyVersion + ":subject:"
	groupPrefix   = keyVersion + ":group:"
)

// Default entry lifetimes.
const (
	// SubjectTTL bounds how stale a subject's policy snapshot may be.
	SubjectTTL = 300 * time.Second

	// GroupServicesTTL bounds how stale a group's service list may be.
	GroupServicesTTL = time.Hour
)

// SubjectKey derives the cache key for a subject's policy snapshot.
// The subject is lower-cased and hex-encoded so arbitrary principal
// identifiers never collide with the key syntax.
func SubjectKey(subject string) string {
	return subjectPrefix + encode(subject)
}

// GroupKey derives the cache key for a group's service list.
func GroupKey(group string) string {
	return groupPrefix + encode(group)
}

// MatchPattern wraps a derived key in glob wildcards for DeletePattern.
func MatchPattern(key string) string {
	return "*" + key + "*"
}

func encode(s string) string {
	return hex.EncodeToString([]byte(strings.ToLower(s)))
}
