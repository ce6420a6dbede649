// Gatewarden - Multi-Level Authorization Policy Engine
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

package authz

import (
	"testing"

	"github.com/gatewarden/gatewarden/internal/models"
)

func TestAttributeEnforcer(t *testing.T) {
	t.Parallel()

	e := newAttributeEnforcer("proj1", []models.GroupService{
		{Group: "proj1", Service: "forces"},
		{Group: "proj1", Service: "integrates"},
	})

	if !e.Enforce("proj1", "is_fluidattacks_customer") {
		t.Error("forces subscription should carry is_fluidattacks_customer")
	}
	if e.Enforce("proj2", "is_fluidattacks_customer") {
		t.Error("attributes must not leak to other groups")
	}
	if e.Enforce("proj1", "no_such_attribute") {
		t.Error("unknown attributes are always false")
	}
}

func TestAttributeEnforcerNoSubscriptions(t *testing.T) {
	t.Parallel()

	e := newAttributeEnforcer("proj1", nil)
	for _, attr := range AllServiceAttributes() {
		if e.Enforce("proj1", attr) {
			t.Errorf("group without subscriptions holds %q", attr)
		}
	}
}

func TestAttributeEnforcerCaseInsensitiveGroup(t *testing.T) {
	t.Parallel()

	e := newAttributeEnforcer("Proj1", []models.GroupService{
		{Group: "proj1", Service: "drills_white"},
	})

	if e.Group() != "proj1" {
		t.Errorf("Group = %q, want lower-cased", e.Group())
	}
	if !e.Enforce("PROJ1", "must_only_have_fluidattacks_hackers") {
		t.Error("group comparison should be case-insensitive")
	}
}

func TestAllServiceAttributesSortedDistinct(t *testing.T) {
	t.Parallel()

	attrs := AllServiceAttributes()
	if len(attrs) == 0 {
		t.Fatal("no attributes registered")
	}
	for i := 1; i < len(attrs); i++ {
		if attrs[i] <= attrs[i-1] {
			t.Errorf("attributes not sorted/distinct at %d: %q, %q", i, attrs[i-1], attrs[i])
		}
	}
}
