// Gatewarden - Multi-Level Authorization Policy Engine
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

package authz

import "testing"

func TestRequestScopeMemoizes(t *testing.T) {
	t.Parallel()

	scope := NewRequestScope()

	if _, ok := scope.lookup("group", "proj1", "act"); ok {
		t.Fatal("empty scope should have no decisions")
	}

	scope.store("group", "proj1", "act", true)
	scope.store("group", "proj1", "other", false)

	if decision, ok := scope.lookup("group", "proj1", "act"); !ok || !decision {
		t.Errorf("lookup = %v, %v; want true, true", decision, ok)
	}
	if decision, ok := scope.lookup("group", "proj1", "other"); !ok || decision {
		t.Errorf("lookup = %v, %v; want false, true", decision, ok)
	}
	if _, ok := scope.lookup("user", "proj1", "act"); ok {
		t.Error("decisions are keyed by guard, not shared across them")
	}
	if scope.Len() != 2 {
		t.Errorf("Len = %d, want 2", scope.Len())
	}
}

func TestRequestScopeNilTolerant(t *testing.T) {
	t.Parallel()

	var scope *RequestScope
	scope.store("group", "proj1", "act", true)
	if _, ok := scope.lookup("group", "proj1", "act"); ok {
		t.Error("nil scope must never report a decision")
	}
	if scope.Len() != 0 {
		t.Error("nil scope has length 0")
	}
}

func TestScopeContextRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	if ScopeFrom(ctx) != nil {
		t.Fatal("plain context carries no scope")
	}

	ctx = WithRequestScope(ctx)
	scope := ScopeFrom(ctx)
	if scope == nil {
		t.Fatal("scope missing after WithRequestScope")
	}

	scope.store("group", "proj1", "act", true)
	if ScopeFrom(ctx).Len() != 1 {
		t.Error("the same scope instance should be returned on every read")
	}
}
