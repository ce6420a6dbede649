// Gatewarden - Multi-Level Authorization Policy Engine
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

package authz

import "errors"

// Sentinel errors.
var (
	// ErrAccessDenied is the uniform denial error surfaced at the
	// boundary. The message deliberately carries no detail about which
	// level or permission was missing.
	ErrAccessDenied = errors.New("Access denied")

	// ErrUnknownLevel is returned when an enforcer is requested for a
	// level outside user/group/organization.
	ErrUnknownLevel = errors.New("unknown enforcement level")

	// ErrUnidentifiedResource is returned in debug mode when a resource
	// locator cannot produce an object. In production the locator fails
	// closed instead, yielding an empty object that matches no policy.
	ErrUnidentifiedResource = errors.New("could not identify resource to check permissions over")
)
