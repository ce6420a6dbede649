// Gatewarden - Multi-Level Authorization Policy Engine
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

package store

import (
	"context"
	"errors"
	"testing"
)

func newTestDirectory(t *testing.T) (*Directory, *BadgerStore) {
	t.Helper()
	s := newTestStore(t)
	return NewDirectory(s), s
}

func TestDirectoryOwnershipRoundTrip(t *testing.T) {
	t.Parallel()

	d, _ := newTestDirectory(t)
	ctx := context.Background()

	if err := d.PutFinding(ctx, "F-001", "Proj1"); err != nil {
		t.Fatalf("PutFinding: %v", err)
	}
	if err := d.PutEvent(ctx, "e-7", "proj2"); err != nil {
		t.Fatalf("PutEvent: %v", err)
	}
	if err := d.PutDraft(ctx, "d-3", "proj3"); err != nil {
		t.Fatalf("PutDraft: %v", err)
	}

	group, err := d.GroupOfFinding(ctx, "f-001")
	if err != nil {
		t.Fatalf("GroupOfFinding: %v", err)
	}
	if group != "proj1" {
		t.Errorf("finding owner = %q, want lower-cased proj1", group)
	}

	if group, _ = d.GroupOfEvent(ctx, "E-7"); group != "proj2" {
		t.Errorf("event owner = %q, want proj2", group)
	}
	if group, _ = d.GroupOfDraft(ctx, "d-3"); group != "proj3" {
		t.Errorf("draft owner = %q, want proj3", group)
	}
}

func TestDirectoryUnknownIDIsEmptyNotError(t *testing.T) {
	t.Parallel()

	d, _ := newTestDirectory(t)
	ctx := context.Background()

	group, err := d.GroupOfFinding(ctx, "no-such-finding")
	if err != nil {
		t.Fatalf("GroupOfFinding: %v", err)
	}
	if group != "" {
		t.Errorf("unknown finding resolved to %q, want empty", group)
	}
}

func TestDirectoryOrganizations(t *testing.T) {
	t.Parallel()

	d, _ := newTestDirectory(t)
	ctx := context.Background()

	if err := d.PutOrganization(ctx, "Acme", "ORG#38eb8f25"); err != nil {
		t.Fatalf("PutOrganization: %v", err)
	}

	id, err := d.OrganizationID(ctx, "acme")
	if err != nil {
		t.Fatalf("OrganizationID: %v", err)
	}
	if id != "org#38eb8f25" {
		t.Errorf("organization id = %q", id)
	}

	if err := d.PutOrganization(ctx, "bad", "38eb8f25"); !errors.Is(err, ErrInvalidPolicy) {
		t.Errorf("unprefixed id err = %v, want ErrInvalidPolicy", err)
	}
}

func TestDirectoryRejectsEmptyOwner(t *testing.T) {
	t.Parallel()

	d, _ := newTestDirectory(t)

	if err := d.PutFinding(context.Background(), "f-1", ""); !errors.Is(err, ErrInvalidPolicy) {
		t.Errorf("empty owner err = %v, want ErrInvalidPolicy", err)
	}
}

func TestDirectoryClosedStore(t *testing.T) {
	t.Parallel()

	d, s := newTestDirectory(t)
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := d.GroupOfFinding(context.Background(), "f-1"); !errors.Is(err, ErrClosed) {
		t.Errorf("lookup after close err = %v, want ErrClosed", err)
	}
	if err := d.PutFinding(context.Background(), "f-1", "proj1"); !errors.Is(err, ErrClosed) {
		t.Errorf("put after close err = %v, want ErrClosed", err)
	}
}
