// Gatewarden - Multi-Level Authorization Policy Engine
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

/*
policy.go - Authorization Policy Models

This file defines the data structures shared by the policy store, the
policy cache, and the enforcement engine.

Key Structures:
  - Policy: a granted (level, subject, object, role) tuple
  - GroupService: a service subscription attached to a group
  - Level and role constants

A Policy is the unit of authorization state: it says that a subject
(a lower-cased email address) holds a role over an object (the string
"self" for user level, a group name, or an "ORG#<uuid>" identifier)
at one of the three enforcement levels.
*/

package models

import "strings"

// Level identifies the scope of a policy grant.
type Level string

// Enforcement levels. Each level has its own evaluation model and its
// own set of meaningful objects.
const (
	// LevelUser scopes a grant to the subject itself; the object is
	// always ObjectSelf.
	LevelUser Level = "user"

	// LevelGroup scopes a grant to a single group, identified by its
	// lower-cased name.
	LevelGroup Level = "group"

	// LevelOrganization scopes a grant to an organization, identified
	// by its prefixed id (for example "org#f2e2...").
	LevelOrganization Level = "organization"
)

// ObjectSelf is the object of every user-level policy.
const ObjectSelf = "self"

// OrganizationIDPrefix marks an already-resolved organization identifier.
const OrganizationIDPrefix = "ORG#"

// ValidLevels contains all valid levels for validation.
var ValidLevels = []Level{LevelUser, LevelGroup, LevelOrganization}

// IsValidLevel checks if a level name is valid.
func IsValidLevel(level Level) bool {
	for _, l := range ValidLevels {
		if l == level {
			return true
		}
	}
	return false
}

// Role constants define the role names known to the registry.
// The first five are the built-in tiers; group_manager and system_owner
// are group-level management roles.
const (
	// RoleAdmin is the superset role: every registered action.
	RoleAdmin = "admin"

	// RoleAnalyst is the security-analyst branch (finding and draft work).
	RoleAnalyst = "analyst"

	// RoleCustomer is the base client role.
	RoleCustomer = "customer"

	// RoleCustomerAdmin is the client project-manager role; contains
	// every customer action.
	RoleCustomerAdmin = "customeradmin"

	// RoleInternalManager is the internal project-manager role; contains
	// every customeradmin action.
	RoleInternalManager = "internal_manager"

	// RoleGroupManager is the group-level management role.
	RoleGroupManager = "group_manager"

	// RoleSystemOwner is an alias of RoleGroupManager kept for grants
	// written under the older name.
	RoleSystemOwner = "system_owner"
)

// ValidRoles contains all role names accepted on grant operations.
var ValidRoles = []string{
	RoleAdmin,
	RoleAnalyst,
	RoleCustomer,
	RoleCustomerAdmin,
	RoleInternalManager,
	RoleGroupManager,
	RoleSystemOwner,
}

// IsValidRole checks if a role name is valid.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Policy is a granted (level, subject, object, role) tuple.
// Policies are produced by the store and consumed, unmodified, by the
// cache and the enforcement engine; nothing in between synthesizes
// policy rows.
type Policy struct {
	// Level is the scope of the grant.
	Level Level `json:"level"`

	// Subject is the lower-cased principal identifier (an email address).
	Subject string `json:"subject"`

	// Object is the lower-cased resource scope: "self", a group name,
	// or an organization id.
	Object string `json:"object"`

	// Role is the granted role name.
	Role string `json:"role"`
}

// NewPolicy builds a normalized Policy: subject and object are
// lower-cased so lookups are case-insensitive end to end.
func NewPolicy(level Level, subject, object, role string) Policy {
	return Policy{
		Level:   level,
		Subject: strings.ToLower(subject),
		Object:  strings.ToLower(object),
		Role:    role,
	}
}

// GroupService records one service subscription for a group. The
// attribute enforcer maps services to the feature attributes they
// unlock.
type GroupService struct {
	// Group is the lower-cased group name.
	Group string `json:"group"`

	// Service is the subscribed service name (for example "forces").
	Service string `json:"service"`
}
