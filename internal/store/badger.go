// Gatewarden - Multi-Level Authorization Policy Engine
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

package store

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/gatewarden/gatewarden/internal/logging"
	"github.com/gatewarden/gatewarden/internal/models"
)

// Key layout. Policies are keyed so one prefix scan retrieves a
// subject's full grant set, and group services likewise per group.
const (
	policyKeyPrefix  = "policy:subject:"
	serviceKeyPrefix = "policy:group:"
)

// BadgerStore implements PolicyStore over an embedded BadgerDB.
type BadgerStore struct {
	db     *badger.DB
	closed atomic.Bool
}

// OpenBadger opens (or creates) the policy database at path.
func OpenBadger(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open policy store: %w", err)
	}

	logging.Info().Str("path", path).Msg("Policy store opened")
	return &BadgerStore{db: db}, nil
}

// NewBadgerStore wraps an already-open database, used by tests.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

func policyKey(subject string, level models.Level, object string) []byte {
	subject = strings.ToLower(subject)
	object = strings.ToLower(object)
	return []byte(policyKeyPrefix + subject + ":" + string(level) + ":" + object)
}

func subjectPrefix(subject string) []byte {
	return []byte(policyKeyPrefix + strings.ToLower(subject) + ":")
}

func serviceKey(group, service string) []byte {
	return []byte(serviceKeyPrefix + strings.ToLower(group) + ":" + strings.ToLower(service))
}

func groupPrefix(group string) []byte {
	return []byte(serviceKeyPrefix + strings.ToLower(group) + ":")
}

// GetSubjectPolicies returns every grant the subject holds.
func (s *BadgerStore) GetSubjectPolicies(ctx context.Context, subject string) ([]models.Policy, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	policies := []models.Policy{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = subjectPrefix(subject)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var p models.Policy
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &p)
			})
			if err != nil {
				return fmt.Errorf("decode policy: %w", err)
			}
			policies = append(policies, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get subject policies: %w", err)
	}
	return policies, nil
}

// GrantPolicy stores a normalized policy tuple.
func (s *BadgerStore) GrantPolicy(ctx context.Context, policy models.Policy) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validatePolicy(policy); err != nil {
		return err
	}

	normalized := models.NewPolicy(policy.Level, policy.Subject, policy.Object, policy.Role)
	data, err := json.Marshal(normalized)
	if err != nil {
		return fmt.Errorf("marshal policy: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(policyKey(normalized.Subject, normalized.Level, normalized.Object), data)
	})
	if err != nil {
		return fmt.Errorf("grant policy: %w", err)
	}
	return nil
}

// RevokePolicy removes the subject's grants over object at every level.
func (s *BadgerStore) RevokePolicy(ctx context.Context, subject, object string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	object = strings.ToLower(object)
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, level := range models.ValidLevels {
			key := policyKey(subject, level, object)
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("revoke policy: %w", err)
	}
	return nil
}

// GetGroupServices returns the group's service subscriptions.
func (s *BadgerStore) GetGroupServices(ctx context.Context, group string) ([]models.GroupService, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	services := []models.GroupService{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = groupPrefix(group)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var gs models.GroupService
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &gs)
			})
			if err != nil {
				return fmt.Errorf("decode group service: %w", err)
			}
			services = append(services, gs)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get group services: %w", err)
	}
	return services, nil
}

// PutGroupService records a subscription.
func (s *BadgerStore) PutGroupService(ctx context.Context, gs models.GroupService) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if gs.Group == "" || gs.Service == "" {
		return fmt.Errorf("%w: empty group or service", ErrInvalidPolicy)
	}

	normalized := models.GroupService{
		Group:   strings.ToLower(gs.Group),
		Service: strings.ToLower(gs.Service),
	}
	data, err := json.Marshal(normalized)
	if err != nil {
		return fmt.Errorf("marshal group service: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(serviceKey(normalized.Group, normalized.Service), data)
	})
	if err != nil {
		return fmt.Errorf("put group service: %w", err)
	}
	return nil
}

// DeleteGroupService removes a subscription.
func (s *BadgerStore) DeleteGroupService(ctx context.Context, group, service string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(serviceKey(group, service))
	})
	if err != nil {
		return fmt.Errorf("delete group service: %w", err)
	}
	return nil
}

// Close shuts the database. Subsequent calls return ErrClosed from
// operations but Close itself is idempotent.
func (s *BadgerStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

func validatePolicy(p models.Policy) error {
	if !models.IsValidLevel(p.Level) {
		return fmt.Errorf("%w: unknown level %q", ErrInvalidPolicy, p.Level)
	}
	if p.Subject == "" {
		return fmt.Errorf("%w: empty subject", ErrInvalidPolicy)
	}
	if p.Object == "" {
		return fmt.Errorf("%w: empty object", ErrInvalidPolicy)
	}
	if !models.IsValidRole(p.Role) {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidPolicy, p.Role)
	}
	if p.Level == models.LevelUser && !strings.EqualFold(p.Object, models.ObjectSelf) {
		return fmt.Errorf("%w: user-level object must be %q", ErrInvalidPolicy, models.ObjectSelf)
	}
	return nil
}
