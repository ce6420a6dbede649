// Gatewarden - Multi-Level Authorization Policy Engine
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

package authz

import "github.com/gatewarden/gatewarden/internal/monitor"

// MatchesPermission reports whether role may perform action. It is the
// single role-to-action matcher every enforcer model delegates to.
//
// An unknown role is a configuration error, not a security event: the
// check returns false, the reporter receives exactly one report naming
// the role and subject, and no error is raised. Changing what a role
// may do means editing the registry tables, never call sites.
func (r *Registry) MatchesPermission(subject, role, action string) bool {
	set, ok := r.actions[role]
	if !ok {
		RecordUnknownRole(role)
		if r.reporter != nil {
			r.reporter.Report("no actions set for role", monitor.LevelError, map[string]string{
				"role":    role,
				"subject": subject,
			})
		}
		return false
	}

	_, matches := set[action]
	return matches
}
