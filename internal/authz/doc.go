// Gatewarden - Multi-Level Authorization Policy Engine
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

// Package authz is the authorization engine: a cached policy layer,
// an immutable role-action registry, per-request Casbin enforcers for
// the three enforcement levels (user, group, organization), and the
// HTTP guard boundary.
//
// # Decision flow
//
// A guarded request resolves its subject (authentication collaborator)
// and object (ResourceLocator), derives the action identifier from the
// guarded function's qualified name, builds an ephemeral Enforcer over
// the subject's cached policy snapshot, and takes a single boolean
// decision. Denials surface as a uniform "Access denied"; only store
// failures become errors, so infrastructure trouble is never mistaken
// for a policy denial.
//
// # Resilience
//
//   - Cache backend failures degrade to store reads, never to failed
//     decisions.
//   - Unknown roles in policy rows deny and page operations via the
//     monitor reporter; they never panic or error.
//   - A subject with zero policies at a level is denied everything at
//     that level: deny by default, no implicit bypass.
//
// # Lifecycle
//
// Enforcers are built per request and discarded; they capture the
// policy snapshot at construction and must never be reused across
// requests. Policy mutations invalidate the snapshot cache and reload
// it immediately, bounding staleness to the cache TTL for readers
// that race the invalidation.
package authz
