// Gatewarden - Multi-Level Authorization Policy Engine
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

package authz

import (
	"context"
	"fmt"
	"strings"

	"github.com/gatewarden/gatewarden/internal/models"
)

// ObjectResolver is the data-loader collaborator that maps nested
// resource identifiers to their owning scope. Implementations live
// outside the engine; tests use a map-backed fake.
type ObjectResolver interface {
	// GroupOfFinding returns the group name owning a finding.
	GroupOfFinding(ctx context.Context, findingID string) (string, error)

	// GroupOfEvent returns the group name owning an event.
	GroupOfEvent(ctx context.Context, eventID string) (string, error)

	// GroupOfDraft returns the group name owning a draft.
	GroupOfDraft(ctx context.Context, draftID string) (string, error)

	// OrganizationID returns the prefixed organization id for a name.
	OrganizationID(ctx context.Context, name string) (string, error)
}

// locatorKind is the closed set of resource identification strategies.
type locatorKind int

const (
	locatorSelf locatorKind = iota
	locatorGroupName
	locatorFinding
	locatorEvent
	locatorDraft
	locatorOrganization
	locatorNone
)

// ResourceLocator is a typed description of how to identify the object
// under access. Every entry point constructs one explicitly instead of
// the engine sniffing call arguments.
type ResourceLocator struct {
	kind  locatorKind
	value string
}

// SelfResource locates the caller's own user-level scope.
func SelfResource() ResourceLocator {
	return ResourceLocator{kind: locatorSelf}
}

// GroupByName locates a group directly by its name.
func GroupByName(name string) ResourceLocator {
	return ResourceLocator{kind: locatorGroupName, value: name}
}

// GroupOfFinding locates the group owning a finding, resolved through
// the ObjectResolver.
func GroupOfFinding(findingID string) ResourceLocator {
	return ResourceLocator{kind: locatorFinding, value: findingID}
}

// GroupOfEvent locates the group owning an event.
func GroupOfEvent(eventID string) ResourceLocator {
	return ResourceLocator{kind: locatorEvent, value: eventID}
}

// GroupOfDraft locates the group owning a draft.
func GroupOfDraft(draftID string) ResourceLocator {
	return ResourceLocator{kind: locatorDraft, value: draftID}
}

// OrganizationByID locates an organization. Accepts an already
// prefixed id ("ORG#<uuid>") directly; anything else is treated as an
// organization name and resolved through the ObjectResolver.
func OrganizationByID(id string) ResourceLocator {
	return ResourceLocator{kind: locatorOrganization, value: id}
}

// NoResource marks an entry point whose object could not be described.
// Resolution always fails; production guards fail closed on it.
func NoResource() ResourceLocator {
	return ResourceLocator{kind: locatorNone}
}

// Resolve produces the object string for enforcement, lower-cased.
// An empty result or collaborator failure is an error; the guard layer
// decides whether that becomes a closed denial (production) or a
// configuration error (debug).
func (l ResourceLocator) Resolve(ctx context.Context, resolver ObjectResolver) (string, error) {
	switch l.kind {
	case locatorSelf:
		return models.ObjectSelf, nil

	case locatorGroupName:
		if l.value == "" {
			return "", ErrUnidentifiedResource
		}
		return strings.ToLower(l.value), nil

	case locatorFinding:
		return resolveVia(ctx, resolver.GroupOfFinding, l.value, "finding")

	case locatorEvent:
		return resolveVia(ctx, resolver.GroupOfEvent, l.value, "event")

	case locatorDraft:
		return resolveVia(ctx, resolver.GroupOfDraft, l.value, "draft")

	case locatorOrganization:
		if l.value == "" {
			return "", ErrUnidentifiedResource
		}
		if strings.HasPrefix(strings.ToUpper(l.value), models.OrganizationIDPrefix) {
			return strings.ToLower(l.value), nil
		}
		return resolveVia(ctx, resolver.OrganizationID, l.value, "organization")

	default:
		return "", ErrUnidentifiedResource
	}
}

// Kind returns a stable name for the locator variant, used as the
// memoization key component and in audit output.
func (l ResourceLocator) Kind() string {
	switch l.kind {
	case locatorSelf:
		return "self"
	case locatorGroupName:
		return "group"
	case locatorFinding:
		return "finding"
	case locatorEvent:
		return "event"
	case locatorDraft:
		return "draft"
	case locatorOrganization:
		return "organization"
	default:
		return "none"
	}
}

func resolveVia(
	ctx context.Context,
	lookup func(context.Context, string) (string, error),
	id, what string,
) (string, error) {
	if id == "" {
		return "", ErrUnidentifiedResource
	}
	object, err := lookup(ctx, id)
	if err != nil {
		return "", fmt.Errorf("resolve %s %q: %w", what, id, err)
	}
	if object == "" {
		return "", ErrUnidentifiedResource
	}
	return strings.ToLower(object), nil
}
