// Gatewarden - Multi-Level Authorization Policy Engine
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

/*
service.go - Cached Policy Layer and Enforcer Builders

This file combines the policy store, the key-value cache, the
role-action registry and the monitoring reporter into the authorization
service the rest of the system consumes.

Key Operations:
  - SubjectPolicies: cached read of a subject's policy snapshot
  - InvalidatePolicies: pattern-delete plus anticipatory reload
  - BuildEnforcer / *LevelEnforcer: per-request enforcer construction
  - Grant / Revoke: store mutation followed by invalidation
  - *RolesCanGrant: grantable-role enumeration per level

Resilience contract:
  - cache backend failures are misses, never decision failures
  - store failures propagate; callers must not read them as denials

Thread Safety:
  - the service holds no mutable state; concurrency concerns live in
    the store and cache implementations
*/

package authz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/gatewarden/gatewarden/internal/cache"
	"github.com/gatewarden/gatewarden/internal/logging"
	"github.com/gatewarden/gatewarden/internal/models"
	"github.com/gatewarden/gatewarden/internal/monitor"
	"github.com/gatewarden/gatewarden/internal/store"
)

// ServiceConfig holds tunables for the cached policy layer.
type ServiceConfig struct {
	// SubjectTTL is the lifetime of a cached subject snapshot. It
	// bounds how stale a policy change may be observed.
	SubjectTTL time.Duration

	// GroupTTL is the lifetime of a cached group service list.
	GroupTTL time.Duration
}

// DefaultServiceConfig returns production defaults.
func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		SubjectTTL: cache.SubjectTTL,
		GroupTTL:   cache.GroupServicesTTL,
	}
}

// Service is the authorization engine facade.
type Service struct {
	store    store.PolicyStore
	kv       cache.KeyValue
	registry *Registry
	reporter monitor.Reporter
	audit    *AuditLogger
	config   *ServiceConfig
}

// NewService wires the collaborators together. A nil config takes
// defaults; a nil audit logger disables auditing.
func NewService(
	st store.PolicyStore,
	kv cache.KeyValue,
	registry *Registry,
	reporter monitor.Reporter,
	audit *AuditLogger,
	config *ServiceConfig,
) *Service {
	if config == nil {
		config = DefaultServiceConfig()
	}
	if reporter == nil {
		reporter = monitor.Nop{}
	}

	return &Service{
		store:    st,
		kv:       kv,
		registry: registry,
		reporter: reporter,
		audit:    audit,
		config:   config,
	}
}

// Registry returns the role-action registry the service enforces with.
func (s *Service) Registry() *Registry {
	return s.registry
}

// Audit returns the audit logger, nil when auditing is disabled.
func (s *Service) Audit() *AuditLogger {
	return s.audit
}

// SubjectPolicies returns the subject's policy snapshot, serving from
// cache when possible. A cache backend failure is a miss: the store is
// the fallback and its errors are the only ones that propagate.
func (s *Service) SubjectPolicies(ctx context.Context, subject string) ([]models.Policy, error) {
	policies, _, err := s.subjectPolicies(ctx, subject)
	return policies, err
}

// subjectPolicies additionally reports whether the snapshot came from
// cache, for decision metrics.
func (s *Service) subjectPolicies(ctx context.Context, subject string) ([]models.Policy, bool, error) {
	key := cache.SubjectKey(subject)

	if data, err := s.kv.Get(ctx, key); err == nil {
		var policies []models.Policy
		if unmarshalErr := json.Unmarshal(data, &policies); unmarshalErr == nil {
			RecordCacheHit()
			return policies, true, nil
		}
		// Undecodable entry: treat as a miss and overwrite below.
		logging.Ctx(ctx).Debug().Str("key", key).Msg("Discarding undecodable cache entry")
		RecordCacheError()
	} else if !errorsIsNotFound(err) {
		RecordCacheError()
		logging.Ctx(ctx).Debug().Err(err).Msg("Policy cache unavailable, falling back to store")
	} else {
		RecordCacheMiss()
	}

	policies, err := s.store.GetSubjectPolicies(ctx, subject)
	if err != nil {
		RecordStoreError()
		return nil, false, fmt.Errorf("fetch subject policies: %w", err)
	}

	if data, err := json.Marshal(policies); err == nil {
		if setErr := s.kv.Set(ctx, key, data, s.config.SubjectTTL); setErr != nil {
			// A failed write only costs the next reader a store fetch.
			logging.Ctx(ctx).Debug().Err(setErr).Msg("Policy cache write failed")
		}
	}

	return policies, false, nil
}

// InvalidatePolicies removes every cached entry derived from subject
// and immediately repopulates the cache, since the subject is likely
// to be checked again soon. Idempotent; concurrent readers racing the
// delete simply take the miss path themselves.
func (s *Service) InvalidatePolicies(ctx context.Context, subject string) (bool, error) {
	key := cache.SubjectKey(subject)
	RecordCacheInvalidation("subject")

	if err := s.kv.DeletePattern(ctx, cache.MatchPattern(key)); err != nil {
		RecordCacheError()
		logging.Ctx(ctx).Warn().Err(err).Msg("Policy cache invalidation failed")
	}

	if _, err := s.SubjectPolicies(ctx, subject); err != nil {
		return false, err
	}
	return true, nil
}

// GroupServices returns the group's service subscriptions with the
// same cache semantics as SubjectPolicies.
func (s *Service) GroupServices(ctx context.Context, group string) ([]models.GroupService, error) {
	key := cache.GroupKey(group)

	if data, err := s.kv.Get(ctx, key); err == nil {
		var services []models.GroupService
		if unmarshalErr := json.Unmarshal(data, &services); unmarshalErr == nil {
			RecordCacheHit()
			return services, nil
		}
		RecordCacheError()
	} else if !errorsIsNotFound(err) {
		RecordCacheError()
		logging.Ctx(ctx).Debug().Err(err).Msg("Group cache unavailable, falling back to store")
	} else {
		RecordCacheMiss()
	}

	services, err := s.store.GetGroupServices(ctx, group)
	if err != nil {
		RecordStoreError()
		return nil, fmt.Errorf("fetch group services: %w", err)
	}

	if data, err := json.Marshal(services); err == nil {
		if setErr := s.kv.Set(ctx, key, data, s.config.GroupTTL); setErr != nil {
			logging.Ctx(ctx).Debug().Err(setErr).Msg("Group cache write failed")
		}
	}

	return services, nil
}

// InvalidateGroupServices mirrors InvalidatePolicies for a group's
// service subscriptions.
func (s *Service) InvalidateGroupServices(ctx context.Context, group string) (bool, error) {
	key := cache.GroupKey(group)
	RecordCacheInvalidation("group")

	if err := s.kv.DeletePattern(ctx, cache.MatchPattern(key)); err != nil {
		RecordCacheError()
		logging.Ctx(ctx).Warn().Err(err).Msg("Group cache invalidation failed")
	}

	if _, err := s.GroupServices(ctx, group); err != nil {
		return false, err
	}
	return true, nil
}

// BuildEnforcer constructs a per-request enforcer for the given level
// over the subject's current cached snapshot.
func (s *Service) BuildEnforcer(ctx context.Context, level models.Level, subject string) (*Enforcer, error) {
	policies, cacheHit, err := s.subjectPolicies(ctx, subject)
	if err != nil {
		return nil, err
	}

	e, err := newEnforcer(s.registry, level, subject, policies)
	if err != nil {
		return nil, err
	}
	e.cacheHit = cacheHit
	return e, nil
}

// UserLevelEnforcer builds an enforcer over user-level grants; the
// object of every check is "self".
func (s *Service) UserLevelEnforcer(ctx context.Context, subject string) (*Enforcer, error) {
	return s.BuildEnforcer(ctx, models.LevelUser, subject)
}

// GroupLevelEnforcer builds an enforcer over group-level grants.
func (s *Service) GroupLevelEnforcer(ctx context.Context, subject string) (*Enforcer, error) {
	return s.BuildEnforcer(ctx, models.LevelGroup, subject)
}

// OrganizationLevelEnforcer builds an enforcer over organization-level
// grants.
func (s *Service) OrganizationLevelEnforcer(ctx context.Context, subject string) (*Enforcer, error) {
	return s.BuildEnforcer(ctx, models.LevelOrganization, subject)
}

// GroupAttributeEnforcer builds the per-request enforcer over a
// group's service subscriptions.
func (s *Service) GroupAttributeEnforcer(ctx context.Context, group string) (*AttributeEnforcer, error) {
	services, err := s.GroupServices(ctx, group)
	if err != nil {
		return nil, err
	}
	return newAttributeEnforcer(group, services), nil
}

// Grant stores a policy and invalidates the subject's cached snapshot
// so the new grant is observable immediately.
func (s *Service) Grant(ctx context.Context, policy models.Policy) error {
	if err := s.store.GrantPolicy(ctx, policy); err != nil {
		return err
	}

	if _, err := s.InvalidatePolicies(ctx, policy.Subject); err != nil {
		// The grant is durable; a failed reload only delays visibility.
		logging.Ctx(ctx).Warn().Err(err).
			Str("subject", policy.Subject).
			Msg("Cache reload after grant failed")
	}
	return nil
}

// Revoke removes the subject's grants over object and invalidates the
// cached snapshot.
func (s *Service) Revoke(ctx context.Context, subject, object string) (bool, error) {
	if err := s.store.RevokePolicy(ctx, subject, object); err != nil {
		return false, err
	}
	return s.InvalidatePolicies(ctx, subject)
}

// PutGroupService records a service subscription and refreshes the
// group's cached service list.
func (s *Service) PutGroupService(ctx context.Context, gs models.GroupService) error {
	if err := s.store.PutGroupService(ctx, gs); err != nil {
		return err
	}
	if _, err := s.InvalidateGroupServices(ctx, gs.Group); err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("group", gs.Group).
			Msg("Cache reload after service change failed")
	}
	return nil
}

// DeleteGroupService removes a subscription and refreshes the cache.
func (s *Service) DeleteGroupService(ctx context.Context, group, service string) error {
	if err := s.store.DeleteGroupService(ctx, group, service); err != nil {
		return err
	}
	if _, err := s.InvalidateGroupServices(ctx, group); err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("group", group).
			Msg("Cache reload after service change failed")
	}
	return nil
}

// UserLevelRolesCanGrant returns the user-level roles the subject may
// grant to others, driven by the grant_user_level_role actions in the
// subject's own role.
func (s *Service) UserLevelRolesCanGrant(ctx context.Context, subject string) ([]string, error) {
	enforcer, err := s.UserLevelEnforcer(ctx, subject)
	if err != nil {
		return nil, err
	}

	grantable := []string{}
	for _, role := range UserLevelRoles() {
		if enforcer.Enforce(models.ObjectSelf, GrantUserRolePrefix+role) {
			grantable = append(grantable, role)
		}
	}
	return grantable, nil
}

// GroupLevelRolesCanGrant returns the group-level roles the subject
// may grant within group.
func (s *Service) GroupLevelRolesCanGrant(ctx context.Context, subject, group string) ([]string, error) {
	enforcer, err := s.GroupLevelEnforcer(ctx, subject)
	if err != nil {
		return nil, err
	}

	grantable := []string{}
	for _, role := range GroupLevelRoles() {
		if enforcer.Enforce(group, GrantGroupRolePrefix+role) {
			grantable = append(grantable, role)
		}
	}
	return grantable, nil
}

// OrganizationLevelRolesCanGrant returns the organization-level roles
// the subject may grant within org.
func (s *Service) OrganizationLevelRolesCanGrant(ctx context.Context, subject, org string) ([]string, error) {
	enforcer, err := s.OrganizationLevelEnforcer(ctx, subject)
	if err != nil {
		return nil, err
	}

	grantable := []string{}
	for _, role := range OrganizationLevelRoles() {
		if enforcer.Enforce(org, GrantOrgRolePrefix+role) {
			grantable = append(grantable, role)
		}
	}
	return grantable, nil
}

func errorsIsNotFound(err error) bool {
	return errors.Is(err, cache.ErrNotFound)
}
