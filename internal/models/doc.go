// Gatewarden - Multi-Level Authorization Policy Engine
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

/*
Package models defines the core data structures of the authorization
engine: enforcement levels, the closed role set, policy tuples, and
group service subscriptions.

Key Components:

  - Level: the three enforcement levels (user, group, organization)
  - Policy: one (level, subject, object, role) grant
  - GroupService: a group's subscription to a service
  - Role constants: the closed, cumulative role hierarchy

Everything here is plain data. Construction normalizes (subjects and
objects are lower-cased by NewPolicy); validation predicates answer
membership in the closed level and role sets. The role-to-action
mapping itself lives in internal/authz, which is the single authority
on what each role may do.

Thread Safety:

All models are immutable after creation and safe for concurrent reads.

See Also:

  - internal/authz: enforcement over these structures
  - internal/store: durable persistence of policies and subscriptions
*/
package models
