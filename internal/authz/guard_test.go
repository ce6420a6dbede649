// Gatewarden - Multi-Level Authorization Policy Engine
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

package authz

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/gatewarden/gatewarden/internal/auth"
	"github.com/gatewarden/gatewarden/internal/cache"
	"github.com/gatewarden/gatewarden/internal/models"
	"github.com/gatewarden/gatewarden/internal/monitor"
	"github.com/gatewarden/gatewarden/internal/respond"
)

type guardFixture struct {
	guard    *Guard
	store    *fakeStore
	resolver *fakeResolver
	reporter *monitor.Recorder
}

func newGuardFixture(t *testing.T, kv cache.KeyValue, debug bool) *guardFixture {
	t.Helper()

	st := newFakeStore()
	if kv == nil {
		mem := cache.NewMemory()
		t.Cleanup(mem.Stop)
		kv = mem
	}
	reporter := &monitor.Recorder{}
	svc := NewService(st, kv, newTestRegistry(), reporter, nil, nil)
	resolver := &fakeResolver{
		findings: map[string]string{"f-1": "proj1"},
	}

	return &guardFixture{
		guard:    NewGuard(svc, resolver, reporter, GuardConfig{Debug: debug}),
		store:    st,
		resolver: resolver,
		reporter: reporter,
	}
}

func guardedRequest(t *testing.T, subject string) *http.Request {
	t.Helper()

	r := httptest.NewRequest(http.MethodGet, "/groups/proj1", nil)
	ctx := WithRequestScope(r.Context())
	if subject != "" {
		ctx = auth.WithSubject(ctx, subject)
	}
	return r.WithContext(ctx)
}

func staticLocator(l ResourceLocator) LocatorFunc {
	return func(*http.Request) ResourceLocator { return l }
}

func TestGuardAllowsGrantedSubject(t *testing.T) {
	t.Parallel()

	fx := newGuardFixture(t, nil, false)
	fx.store.policies["a@x.com"] = []models.Policy{
		models.NewPolicy(models.LevelGroup, "a@x.com", "proj1", models.RoleCustomer),
	}

	called := false
	handler := fx.guard.RequireGroupLevel(
		"backend_api_resolvers_project_resolve_project",
		staticLocator(GroupByName("proj1")),
		func(w http.ResponseWriter, r *http.Request) { called = true },
	)

	rec := httptest.NewRecorder()
	handler(rec, guardedRequest(t, "a@x.com"))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}
	if !called {
		t.Error("guarded handler was not invoked")
	}
}

func TestGuardRejectsAnonymous(t *testing.T) {
	t.Parallel()

	fx := newGuardFixture(t, nil, false)
	handler := fx.guard.RequireGroupLevel(
		"backend_api_resolvers_project_resolve_project",
		staticLocator(GroupByName("proj1")),
		func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler must not run without a subject")
		},
	)

	rec := httptest.NewRecorder()
	handler(rec, guardedRequest(t, ""))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestGuardDeniesUniformly(t *testing.T) {
	t.Parallel()

	fx := newGuardFixture(t, nil, false)
	handler := fx.guard.RequireGroupLevel(
		"backend_api_resolvers_project_resolve_project",
		staticLocator(GroupByName("proj1")),
		func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler must not run for a denied subject")
		},
	)

	rec := httptest.NewRecorder()
	handler(rec, guardedRequest(t, "nobody@x.com"))

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), ErrAccessDenied.Error()) {
		t.Errorf("body = %q, want the uniform denial message", rec.Body.String())
	}
}

// Guard denials carry the same response envelope as handler errors, so
// clients parse one shape for every failure on the API surface.
func TestGuardDenialUsesResponseEnvelope(t *testing.T) {
	t.Parallel()

	fx := newGuardFixture(t, nil, false)
	handler := fx.guard.RequireGroupLevel(
		"backend_api_resolvers_project_resolve_project",
		staticLocator(GroupByName("proj1")),
		func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler must not run for a denied subject")
		},
	)

	cases := []struct {
		name    string
		subject string
		status  int
		code    string
	}{
		{"anonymous", "", http.StatusUnauthorized, respond.CodeUnauthorized},
		{"denied", "nobody@x.com", http.StatusForbidden, respond.CodeForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler(rec, guardedRequest(t, tc.subject))

			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			var body respond.Body
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode envelope: %v (body %s)", err, rec.Body.String())
			}
			if body.Success {
				t.Error("denial envelope must not report success")
			}
			if body.Error == nil || body.Error.Code != tc.code {
				t.Errorf("error = %+v, want code %s", body.Error, tc.code)
			}
		})
	}
}

func TestGuardStoreFailureIsNotDenial(t *testing.T) {
	t.Parallel()

	fx := newGuardFixture(t, brokenKV{}, false)
	fx.store.failReads = true

	handler := fx.guard.RequireGroupLevel(
		"backend_api_resolvers_project_resolve_project",
		staticLocator(GroupByName("proj1")),
		func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler must not run when authorization is unavailable")
		},
	)

	rec := httptest.NewRecorder()
	handler(rec, guardedRequest(t, "a@x.com"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 (not 403: outage is not a decision)", rec.Code)
	}
}

func TestGuardProductionFailsClosedOnUnresolvable(t *testing.T) {
	t.Parallel()

	fx := newGuardFixture(t, nil, false)
	// The subject is a group admin, but the finding cannot be mapped
	// to its group, so the empty object matches no policy row.
	fx.store.policies["a@x.com"] = []models.Policy{
		models.NewPolicy(models.LevelGroup, "a@x.com", "proj1", models.RoleAdmin),
	}

	handler := fx.guard.RequireGroupLevel(
		"backend_api_resolvers_finding_resolve_finding",
		staticLocator(GroupOfFinding("f-missing")),
		func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler must not run over an unidentifiable resource")
		},
	)

	rec := httptest.NewRecorder()
	handler(rec, guardedRequest(t, "a@x.com"))

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}

	var criticals int
	for _, report := range fx.reporter.Reports() {
		if report.Level == monitor.LevelCritical {
			criticals++
		}
	}
	if criticals != 1 {
		t.Errorf("critical reports = %d, want exactly 1", criticals)
	}
}

func TestGuardDebugSurfacesUnresolvable(t *testing.T) {
	t.Parallel()

	fx := newGuardFixture(t, nil, true)
	handler := fx.guard.RequireGroupLevel(
		"backend_api_resolvers_finding_resolve_finding",
		staticLocator(GroupOfFinding("f-missing")),
		func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler must not run")
		},
	)

	rec := httptest.NewRecorder()
	handler(rec, guardedRequest(t, "a@x.com"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 in debug", rec.Code)
	}
	if got := fx.reporter.Count(); got != 0 {
		t.Errorf("reports = %d, want none in debug", got)
	}
}

func TestGuardMemoizesWithinRequest(t *testing.T) {
	t.Parallel()

	// Broken cache forces every snapshot read to the store, so the
	// read counter isolates the scope memoization.
	fx := newGuardFixture(t, brokenKV{}, false)
	fx.store.policies["a@x.com"] = []models.Policy{
		models.NewPolicy(models.LevelGroup, "a@x.com", "proj1", models.RoleCustomer),
	}

	handler := fx.guard.RequireGroupLevel(
		"backend_api_resolvers_project_resolve_project",
		staticLocator(GroupByName("proj1")),
		func(w http.ResponseWriter, r *http.Request) {},
	)

	r := guardedRequest(t, "a@x.com")
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler(rec, r)
		if rec.Code != http.StatusOK {
			t.Fatalf("call %d: status = %d", i, rec.Code)
		}
	}

	if got := fx.store.reads(); got != 1 {
		t.Errorf("store reads = %d, want 1 (repeated guards memoize within the request)", got)
	}
}

func TestGuardUserLevel(t *testing.T) {
	t.Parallel()

	fx := newGuardFixture(t, nil, false)
	fx.store.policies["a@x.com"] = []models.Policy{
		models.NewPolicy(models.LevelUser, "a@x.com", models.ObjectSelf, models.RoleCustomerAdmin),
	}

	handler := fx.guard.RequireUserLevel(
		"backend_api_resolvers_user_resolve_user",
		func(w http.ResponseWriter, r *http.Request) {},
	)

	rec := httptest.NewRecorder()
	handler(rec, guardedRequest(t, "a@x.com"))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	denied := fx.guard.RequireUserLevel(
		"backend_api_resolvers_user__do_add_user",
		func(w http.ResponseWriter, r *http.Request) {
			t.Error("customeradmin must not hold admin-only actions")
		},
	)
	rec = httptest.NewRecorder()
	denied(rec, guardedRequest(t, "a@x.com"))
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestGuardGroupAttribute(t *testing.T) {
	t.Parallel()

	fx := newGuardFixture(t, nil, false)
	fx.store.services["proj1"] = []models.GroupService{
		{Group: "proj1", Service: "forces"},
	}

	handler := fx.guard.RequireGroupAttribute(
		"is_fluidattacks_customer",
		staticLocator(GroupByName("proj1")),
		func(w http.ResponseWriter, r *http.Request) {},
	)

	rec := httptest.NewRecorder()
	handler(rec, guardedRequest(t, "a@x.com"))
	if rec.Code != http.StatusOK {
		t.Errorf("subscribed group: status = %d, want 200", rec.Code)
	}

	fx.store.mu.Lock()
	fx.store.services["proj1"] = nil
	fx.store.mu.Unlock()
	if _, err := fx.guard.service.InvalidateGroupServices(context.Background(), "proj1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	rec = httptest.NewRecorder()
	handler(rec, guardedRequest(t, "a@x.com"))
	if rec.Code != http.StatusForbidden {
		t.Errorf("unsubscribed group: status = %d, want 403", rec.Code)
	}
}

func TestScopeMiddlewareInstallsScope(t *testing.T) {
	t.Parallel()

	var seen *RequestScope
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ScopeFrom(r.Context())
	})

	rec := httptest.NewRecorder()
	ScopeMiddleware(inner).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == nil {
		t.Fatal("scope not installed by middleware")
	}
}
