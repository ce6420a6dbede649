// Gatewarden - Multi-Level Authorization Policy Engine
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

// Package store persists authorization policies and group service
// subscriptions. It is the source of truth behind the policy cache:
// reads return exactly what was granted, with no synthesized rows, and
// storage errors propagate to the caller rather than degrading into
// empty results.
package store

import (
	"context"
	"errors"

	"github.com/gatewarden/gatewarden/internal/models"
)

// Sentinel errors.
var (
	// ErrInvalidPolicy is returned on grant of a malformed tuple.
	ErrInvalidPolicy = errors.New("store: invalid policy")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("store: closed")
)

// PolicyStore is the persistence contract for policy tuples.
//
// GetSubjectPolicies is a pure read: it returns an empty slice, not an
// error, when the subject holds no grants. Mutations are idempotent so
// replays of administrative operations are harmless.
type PolicyStore interface {
	// GetSubjectPolicies returns every policy granted to subject, at
	// any level. The subject is matched case-insensitively.
	GetSubjectPolicies(ctx context.Context, subject string) ([]models.Policy, error)

	// GrantPolicy stores a policy tuple, replacing any existing grant
	// for the same (subject, level, object).
	GrantPolicy(ctx context.Context, policy models.Policy) error

	// RevokePolicy removes every grant subject holds over object,
	// across levels. Revoking an absent grant is a no-op.
	RevokePolicy(ctx context.Context, subject, object string) error

	// GetGroupServices returns the service subscriptions of a group,
	// empty slice when none.
	GetGroupServices(ctx context.Context, group string) ([]models.GroupService, error)

	// PutGroupService records a service subscription for a group.
	PutGroupService(ctx context.Context, gs models.GroupService) error

	// DeleteGroupService removes a subscription. Absent is a no-op.
	DeleteGroupService(ctx context.Context, group, service string) error

	// Close releases underlying resources.
	Close() error
}
