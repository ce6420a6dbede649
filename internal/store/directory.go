// Gatewarden - Multi-Level Authorization Policy Engine
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"
)

// Resource ownership keys. The directory maps nested resource ids to
// the scope that owns them so the enforcement boundary can locate the
// object under access without knowing each resource schema.
const (
	findingKeyPrefix = "resource:finding:"
	eventKeyPrefix   = "resource:event:"
	draftKeyPrefix   = "resource:draft:"
	orgKeyPrefix     = "resource:org:"
)

// Directory is a BadgerDB-backed resource ownership index. It
// implements the object resolution contract of the enforcement
// boundary: findings, events, and drafts map to their owning group,
// organization names map to their prefixed id.
type Directory struct {
	db     *badger.DB
	closed *atomic.Bool
}

// NewDirectory builds a Directory sharing the policy store's database.
func NewDirectory(s *BadgerStore) *Directory {
	return &Directory{db: s.db, closed: &s.closed}
}

func (d *Directory) lookup(ctx context.Context, key string) (string, error) {
	if d.closed.Load() {
		return "", ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var value string
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("directory lookup: %w", err)
	}
	return value, nil
}

func (d *Directory) put(ctx context.Context, key, value string) error {
	if d.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if value == "" {
		return fmt.Errorf("%w: empty directory value", ErrInvalidPolicy)
	}

	err := d.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(strings.ToLower(value)))
	})
	if err != nil {
		return fmt.Errorf("directory put: %w", err)
	}
	return nil
}

// GroupOfFinding returns the group owning a finding, or "" when the
// finding is unknown.
func (d *Directory) GroupOfFinding(ctx context.Context, findingID string) (string, error) {
	return d.lookup(ctx, findingKeyPrefix+strings.ToLower(findingID))
}

// GroupOfEvent returns the group owning an event.
func (d *Directory) GroupOfEvent(ctx context.Context, eventID string) (string, error) {
	return d.lookup(ctx, eventKeyPrefix+strings.ToLower(eventID))
}

// GroupOfDraft returns the group owning a draft.
func (d *Directory) GroupOfDraft(ctx context.Context, draftID string) (string, error) {
	return d.lookup(ctx, draftKeyPrefix+strings.ToLower(draftID))
}

// OrganizationID returns the prefixed organization id for a name.
func (d *Directory) OrganizationID(ctx context.Context, name string) (string, error) {
	return d.lookup(ctx, orgKeyPrefix+strings.ToLower(name))
}

// PutFinding records finding ownership.
func (d *Directory) PutFinding(ctx context.Context, findingID, group string) error {
	return d.put(ctx, findingKeyPrefix+strings.ToLower(findingID), group)
}

// PutEvent records event ownership.
func (d *Directory) PutEvent(ctx context.Context, eventID, group string) error {
	return d.put(ctx, eventKeyPrefix+strings.ToLower(eventID), group)
}

// PutDraft records draft ownership.
func (d *Directory) PutDraft(ctx context.Context, draftID, group string) error {
	return d.put(ctx, draftKeyPrefix+strings.ToLower(draftID), group)
}

// PutOrganization records an organization name to id mapping. The id
// must carry the organization prefix.
func (d *Directory) PutOrganization(ctx context.Context, name, id string) error {
	if !strings.HasPrefix(strings.ToUpper(id), "ORG#") {
		return fmt.Errorf("%w: organization id must be prefixed", ErrInvalidPolicy)
	}
	return d.put(ctx, orgKeyPrefix+strings.ToLower(name), id)
}
