// Gatewarden - Multi-Level Authorization Policy Engine
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

package models

import "testing"

func TestIsValidLevel(t *testing.T) {
	t.Parallel()

	for _, level := range ValidLevels {
		if !IsValidLevel(level) {
			t.Errorf("IsValidLevel(%q) = false", level)
		}
	}
	for _, level := range []Level{"", "team", "User"} {
		if IsValidLevel(level) {
			t.Errorf("IsValidLevel(%q) = true", level)
		}
	}
}

func TestIsValidRole(t *testing.T) {
	t.Parallel()

	for _, role := range ValidRoles {
		if !IsValidRole(role) {
			t.Errorf("IsValidRole(%q) = false", role)
		}
	}
	for _, role := range []string{"", "Admin", "closer", "reviewer"} {
		if IsValidRole(role) {
			t.Errorf("IsValidRole(%q) = true", role)
		}
	}
}

func TestNewPolicyNormalizes(t *testing.T) {
	t.Parallel()

	p := NewPolicy(LevelGroup, "User@Example.COM", "Proj1", RoleAdmin)

	if p.Subject != "user@example.com" {
		t.Errorf("Subject = %q, want lowercase", p.Subject)
	}
	if p.Object != "proj1" {
		t.Errorf("Object = %q, want lowercase", p.Object)
	}
	if p.Role != RoleAdmin || p.Level != LevelGroup {
		t.Errorf("Role/Level not preserved: %+v", p)
	}
}
