// Gatewarden - Multi-Level Authorization Policy Engine
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

package store

import (
	"context"
	"errors"
	"testing"

	"github.com/dgraph-io/badger/v4"

	"github.com/gatewarden/gatewarden/internal/models"
)

func newTestStore(t *testing.T) *BadgerStore {
	t.Helper()

	opts := badger.DefaultOptions(t.TempDir()).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}

	s := NewBadgerStore(db)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetSubjectPoliciesEmpty(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	policies, err := s.GetSubjectPolicies(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("GetSubjectPolicies: %v", err)
	}
	if policies == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(policies) != 0 {
		t.Fatalf("expected no policies, got %d", len(policies))
	}
}

func TestGrantAndGet(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	grants := []models.Policy{
		models.NewPolicy(models.LevelUser, "admin@example.com", models.ObjectSelf, models.RoleAdmin),
		models.NewPolicy(models.LevelGroup, "admin@example.com", "oneshot", models.RoleCustomer),
		models.NewPolicy(models.LevelOrganization, "admin@example.com", "org#f2e2", models.RoleCustomerAdmin),
	}
	for _, p := range grants {
		if err := s.GrantPolicy(ctx, p); err != nil {
			t.Fatalf("GrantPolicy(%+v): %v", p, err)
		}
	}

	policies, err := s.GetSubjectPolicies(ctx, "admin@example.com")
	if err != nil {
		t.Fatalf("GetSubjectPolicies: %v", err)
	}
	if len(policies) != 3 {
		t.Fatalf("expected 3 policies, got %d", len(policies))
	}

	byLevel := map[models.Level]models.Policy{}
	for _, p := range policies {
		byLevel[p.Level] = p
	}
	if byLevel[models.LevelGroup].Object != "oneshot" {
		t.Errorf("group policy object = %q", byLevel[models.LevelGroup].Object)
	}
	if byLevel[models.LevelUser].Role != models.RoleAdmin {
		t.Errorf("user policy role = %q", byLevel[models.LevelUser].Role)
	}
}

func TestGrantNormalizesCase(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	p := models.Policy{
		Level:   models.LevelGroup,
		Subject: "Mixed@Example.COM",
		Object:  "OneShot",
		Role:    models.RoleCustomer,
	}
	if err := s.GrantPolicy(ctx, p); err != nil {
		t.Fatalf("GrantPolicy: %v", err)
	}

	policies, err := s.GetSubjectPolicies(ctx, "mixed@example.com")
	if err != nil {
		t.Fatalf("GetSubjectPolicies: %v", err)
	}
	if len(policies) != 1 {
		t.Fatalf("expected 1 policy, got %d", len(policies))
	}
	if policies[0].Subject != "mixed@example.com" || policies[0].Object != "oneshot" {
		t.Errorf("policy not normalized: %+v", policies[0])
	}
}

func TestGrantReplacesExisting(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	subject := "user@example.com"
	first := models.NewPolicy(models.LevelGroup, subject, "oneshot", models.RoleCustomer)
	second := models.NewPolicy(models.LevelGroup, subject, "oneshot", models.RoleCustomerAdmin)

	if err := s.GrantPolicy(ctx, first); err != nil {
		t.Fatalf("first grant: %v", err)
	}
	if err := s.GrantPolicy(ctx, second); err != nil {
		t.Fatalf("second grant: %v", err)
	}

	policies, err := s.GetSubjectPolicies(ctx, subject)
	if err != nil {
		t.Fatalf("GetSubjectPolicies: %v", err)
	}
	if len(policies) != 1 {
		t.Fatalf("expected replacement, got %d policies", len(policies))
	}
	if policies[0].Role != models.RoleCustomerAdmin {
		t.Errorf("role = %q, want customeradmin", policies[0].Role)
	}
}

func TestGrantValidation(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		policy models.Policy
	}{
		{"unknown level", models.Policy{Level: "planet", Subject: "a@b.c", Object: "x", Role: models.RoleCustomer}},
		{"empty subject", models.Policy{Level: models.LevelGroup, Object: "x", Role: models.RoleCustomer}},
		{"empty object", models.Policy{Level: models.LevelGroup, Subject: "a@b.c", Role: models.RoleCustomer}},
		{"unknown role", models.Policy{Level: models.LevelGroup, Subject: "a@b.c", Object: "x", Role: "ghost"}},
		{"user level non-self", models.Policy{Level: models.LevelUser, Subject: "a@b.c", Object: "oneshot", Role: models.RoleAdmin}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.GrantPolicy(ctx, tt.policy)
			if !errors.Is(err, ErrInvalidPolicy) {
				t.Errorf("expected ErrInvalidPolicy, got %v", err)
			}
		})
	}
}

func TestRevokePolicy(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	subject := "user@example.com"
	s.GrantPolicy(ctx, models.NewPolicy(models.LevelGroup, subject, "oneshot", models.RoleCustomer))
	s.GrantPolicy(ctx, models.NewPolicy(models.LevelGroup, subject, "keepme", models.RoleCustomer))

	if err := s.RevokePolicy(ctx, subject, "oneshot"); err != nil {
		t.Fatalf("RevokePolicy: %v", err)
	}

	policies, err := s.GetSubjectPolicies(ctx, subject)
	if err != nil {
		t.Fatalf("GetSubjectPolicies: %v", err)
	}
	if len(policies) != 1 || policies[0].Object != "keepme" {
		t.Errorf("unexpected policies after revoke: %+v", policies)
	}
}

func TestRevokePolicyIdempotent(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	if err := s.RevokePolicy(ctx, "nobody@example.com", "oneshot"); err != nil {
		t.Fatalf("revoke of absent grant: %v", err)
	}
}

func TestSubjectIsolation(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	s.GrantPolicy(ctx, models.NewPolicy(models.LevelGroup, "alice@example.com", "oneshot", models.RoleCustomer))
	s.GrantPolicy(ctx, models.NewPolicy(models.LevelGroup, "alice@example.net", "oneshot", models.RoleAdmin))

	policies, err := s.GetSubjectPolicies(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetSubjectPolicies: %v", err)
	}
	if len(policies) != 1 {
		t.Fatalf("expected 1 policy, got %d", len(policies))
	}
	if policies[0].Role != models.RoleCustomer {
		t.Errorf("wrong subject's policy returned: %+v", policies[0])
	}
}

func TestGroupServices(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	services, err := s.GetGroupServices(ctx, "oneshot")
	if err != nil {
		t.Fatalf("GetGroupServices: %v", err)
	}
	if len(services) != 0 {
		t.Fatalf("expected no services, got %d", len(services))
	}

	s.PutGroupService(ctx, models.GroupService{Group: "oneshot", Service: "drills_white"})
	s.PutGroupService(ctx, models.GroupService{Group: "oneshot", Service: "integrates"})
	s.PutGroupService(ctx, models.GroupService{Group: "other", Service: "forces"})

	services, err = s.GetGroupServices(ctx, "oneshot")
	if err != nil {
		t.Fatalf("GetGroupServices: %v", err)
	}
	if len(services) != 2 {
		t.Fatalf("expected 2 services, got %d", len(services))
	}

	if err := s.DeleteGroupService(ctx, "oneshot", "integrates"); err != nil {
		t.Fatalf("DeleteGroupService: %v", err)
	}

	services, _ = s.GetGroupServices(ctx, "oneshot")
	if len(services) != 1 || services[0].Service != "drills_white" {
		t.Errorf("unexpected services after delete: %+v", services)
	}
}

func TestPutGroupServiceValidation(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	err := s.PutGroupService(context.Background(), models.GroupService{Group: "", Service: "forces"})
	if !errors.Is(err, ErrInvalidPolicy) {
		t.Errorf("expected ErrInvalidPolicy, got %v", err)
	}
}

func TestClosedStore(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	if _, err := s.GetSubjectPolicies(context.Background(), "x"); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestCancelledContext(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.GetSubjectPolicies(ctx, "x"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
