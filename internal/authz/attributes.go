// Gatewarden - Multi-Level Authorization Policy Engine
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

package authz

import (
	"sort"
	"strings"

	"github.com/gatewarden/gatewarden/internal/models"
)

// ServiceAttributes maps each subscribable service to the feature
// attributes it unlocks for the subscribed group. The attribute
// enforcer answers "does any of this group's services carry attribute
// X", which gates service-dependent features independently of subject
// roles.
var ServiceAttributes = map[string][]string{
	"drills_black": {
		"is_fluidattacks_customer",
		"must_only_have_fluidattacks_hackers",
	},
	"drills_white": {
		"is_fluidattacks_customer",
		"must_only_have_fluidattacks_hackers",
	},
	"forces": {
		"is_fluidattacks_customer",
		"must_only_have_fluidattacks_hackers",
	},
	"integrates": {},
}

// AllServiceAttributes returns the distinct attribute names, sorted.
func AllServiceAttributes() []string {
	set := map[string]struct{}{}
	for _, attrs := range ServiceAttributes {
		for _, a := range attrs {
			set[a] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for a := range set {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// AttributeEnforcer is the per-request enforcer over a group's service
// subscriptions. Like Enforcer it captures a snapshot at construction
// and is discarded after the request.
type AttributeEnforcer struct {
	group    string
	services []models.GroupService
}

// newAttributeEnforcer builds an enforcer over the given snapshot.
func newAttributeEnforcer(group string, services []models.GroupService) *AttributeEnforcer {
	return &AttributeEnforcer{group: strings.ToLower(group), services: services}
}

// Enforce reports whether group holds attribute through any of its
// subscribed services. A group with no subscriptions gets false for
// every attribute.
func (e *AttributeEnforcer) Enforce(group, attribute string) bool {
	group = strings.ToLower(group)
	for _, gs := range e.services {
		if gs.Group != group {
			continue
		}
		for _, attr := range ServiceAttributes[gs.Service] {
			if attr == attribute {
				return true
			}
		}
	}
	return false
}

// Group returns the group the enforcer was built for.
func (e *AttributeEnforcer) Group() string {
	return e.group
}
