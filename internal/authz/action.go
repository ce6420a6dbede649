// Gatewarden - Multi-Level Authorization Policy Engine
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

package authz

import (
	"reflect"
	"runtime"
	"strings"
)

// ActionFromFunc derives the action identifier for a guarded function
// from its fully qualified name, so the identifier is stable across
// call sites and cannot drift from the function it names.
//
//	authz.ActionFromFunc(api.ResolveProject)
//	// "gatewarden_internal_api_resolve_project"
//
// Guards accept an explicit override for entry points whose identifier
// must match an externally agreed name.
func ActionFromFunc(fn interface{}) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return ""
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return ""
	}
	return NormalizeAction(f.Name())
}

// NormalizeAction converts a qualified name into action-identifier
// form: the module host prefix and method-value suffix are dropped,
// separators become underscores, and camel case is flattened.
func NormalizeAction(name string) string {
	// Method values carry a "-fm" suffix.
	name = strings.TrimSuffix(name, "-fm")

	// Drop the repository host; "github.com/gatewarden/gatewarden/x"
	// starts at "gatewarden/x".
	if idx := strings.Index(name, "/"); idx >= 0 && strings.Contains(name[:idx], ".") {
		name = name[idx+1:]
		if idx = strings.Index(name, "/"); idx >= 0 {
			name = name[idx+1:]
		}
	}

	var b strings.Builder
	b.Grow(len(name) + 8)
	prevUnderscore := true
	for i, r := range name {
		switch {
		case r >= 'A' && r <= 'Z':
			if !prevUnderscore && i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			prevUnderscore = false
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevUnderscore = false
		default:
			// '/', '.', '(', ')', '*', '-' and anything else.
			if !prevUnderscore {
				b.WriteByte('_')
				prevUnderscore = true
			}
		}
	}

	return strings.Trim(b.String(), "_")
}
