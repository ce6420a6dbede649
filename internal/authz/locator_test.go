// Gatewarden - Multi-Level Authorization Policy Engine
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

package authz

import (
	"context"
	"errors"
	"testing"
)

// fakeResolver backs the resolver interface with maps. A missing id
// returns an empty object without error, matching the directory.
type fakeResolver struct {
	findings map[string]string
	events   map[string]string
	drafts   map[string]string
	orgs     map[string]string
	err      error
}

func (f *fakeResolver) GroupOfFinding(_ context.Context, id string) (string, error) {
	return f.findings[id], f.err
}

func (f *fakeResolver) GroupOfEvent(_ context.Context, id string) (string, error) {
	return f.events[id], f.err
}

func (f *fakeResolver) GroupOfDraft(_ context.Context, id string) (string, error) {
	return f.drafts[id], f.err
}

func (f *fakeResolver) OrganizationID(_ context.Context, name string) (string, error) {
	return f.orgs[name], f.err
}

func TestResolveLocators(t *testing.T) {
	t.Parallel()

	resolver := &fakeResolver{
		findings: map[string]string{"f-1": "Proj1"},
		events:   map[string]string{"e-1": "proj2"},
		drafts:   map[string]string{"d-1": "proj3"},
		orgs:     map[string]string{"acme": "ORG#38eb8f25"},
	}

	tests := []struct {
		name    string
		locator ResourceLocator
		want    string
	}{
		{"self", SelfResource(), "self"},
		{"group by name", GroupByName("Proj1"), "proj1"},
		{"finding owner", GroupOfFinding("f-1"), "proj1"},
		{"event owner", GroupOfEvent("e-1"), "proj2"},
		{"draft owner", GroupOfDraft("d-1"), "proj3"},
		{"org by name", OrganizationByID("acme"), "org#38eb8f25"},
		{"org by prefixed id", OrganizationByID("ORG#ABC"), "org#abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.locator.Resolve(t.Context(), resolver)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveUnidentified(t *testing.T) {
	t.Parallel()

	resolver := &fakeResolver{}

	tests := []struct {
		name    string
		locator ResourceLocator
	}{
		{"no resource", NoResource()},
		{"empty group name", GroupByName("")},
		{"empty finding id", GroupOfFinding("")},
		{"unknown finding", GroupOfFinding("f-missing")},
		{"unknown event", GroupOfEvent("e-missing")},
		{"unknown draft", GroupOfDraft("d-missing")},
		{"empty organization", OrganizationByID("")},
		{"unknown organization", OrganizationByID("nowhere")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.locator.Resolve(t.Context(), resolver)
			if !errors.Is(err, ErrUnidentifiedResource) {
				t.Errorf("err = %v, want ErrUnidentifiedResource", err)
			}
		})
	}
}

func TestResolvePropagatesResolverFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("directory offline")
	resolver := &fakeResolver{err: boom}

	_, err := GroupOfFinding("f-1").Resolve(t.Context(), resolver)
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped resolver failure", err)
	}
	if errors.Is(err, ErrUnidentifiedResource) {
		t.Error("a resolver failure is not the same as an unidentified resource")
	}
}

func TestLocatorKinds(t *testing.T) {
	t.Parallel()

	kinds := map[string]ResourceLocator{
		"self":         SelfResource(),
		"group":        GroupByName("proj1"),
		"finding":      GroupOfFinding("f-1"),
		"event":        GroupOfEvent("e-1"),
		"draft":        GroupOfDraft("d-1"),
		"organization": OrganizationByID("acme"),
		"none":         NoResource(),
	}
	for want, locator := range kinds {
		if got := locator.Kind(); got != want {
			t.Errorf("Kind = %q, want %q", got, want)
		}
	}
}
