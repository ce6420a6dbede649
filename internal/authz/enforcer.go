// Gatewarden - Multi-Level Authorization Policy Engine
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

package authz

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/gatewarden/gatewarden/internal/logging"
	"github.com/gatewarden/gatewarden/internal/models"
)

//go:embed model_user.conf
var modelUser string

//go:embed model_group.conf
var modelGroup string

//go:embed model_org.conf
var modelOrg string

// modelForLevel returns the embedded Casbin model text for a level.
func modelForLevel(level models.Level) (string, error) {
	switch level {
	case models.LevelUser:
		return modelUser, nil
	case models.LevelGroup:
		return modelGroup, nil
	case models.LevelOrganization:
		return modelOrg, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownLevel, level)
	}
}

// Enforcer is an ephemeral decision object: one per guarded call,
// built over the subject's policy snapshot as it stood at construction
// time, discarded after use. Callers must not hold an Enforcer across
// requests; policies may have changed underneath it.
type Enforcer struct {
	level    models.Level
	subject  string
	policies []models.Policy
	casbin   *casbin.Enforcer
	cacheHit bool
}

// newEnforcer loads the level's declarative model, registers the
// permission predicate as the model's matcher function, and feeds the
// snapshot in as in-memory policy rows.
func newEnforcer(registry *Registry, level models.Level, subject string, policies []models.Policy) (*Enforcer, error) {
	text, err := modelForLevel(level)
	if err != nil {
		return nil, err
	}

	m, err := model.NewModelFromString(text)
	if err != nil {
		return nil, fmt.Errorf("load authorization model: %w", err)
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}

	e.AddFunction("matchesPermission", func(args ...interface{}) (interface{}, error) {
		if len(args) != 3 {
			return false, fmt.Errorf("matchesPermission expects 3 arguments, got %d", len(args))
		}
		sub, ok1 := args[0].(string)
		role, ok2 := args[1].(string)
		act, ok3 := args[2].(string)
		if !ok1 || !ok2 || !ok3 {
			return false, fmt.Errorf("matchesPermission expects string arguments")
		}
		return registry.MatchesPermission(sub, role, act), nil
	})

	subject = strings.ToLower(subject)
	for _, p := range policies {
		if _, err := e.AddPolicy(string(p.Level), p.Subject, p.Object, p.Role); err != nil {
			return nil, fmt.Errorf("load policy row: %w", err)
		}
	}

	return &Enforcer{
		level:    level,
		subject:  subject,
		policies: policies,
		casbin:   e,
	}, nil
}

// Enforce reports whether the enforcer's subject may perform action on
// object. Zero policies means every check is false: deny by default.
//
// Evaluation errors can only come from a model/matcher mismatch, which
// is a build-time defect; they are logged and denied rather than
// propagated, keeping decisions strictly boolean.
func (e *Enforcer) Enforce(object, action string) bool {
	allowed, err := e.casbin.Enforce(e.subject, strings.ToLower(object), action)
	if err != nil {
		logging.Error().
			Err(err).
			Str("level", string(e.level)).
			Str("subject", e.subject).
			Msg("Enforcement evaluation failed, denying")
		return false
	}
	return allowed
}

// Level returns the enforcement level this enforcer evaluates.
func (e *Enforcer) Level() models.Level {
	return e.level
}

// Subject returns the subject the enforcer was built for.
func (e *Enforcer) Subject() string {
	return e.subject
}

// Policies returns the captured snapshot. The slice is shared; callers
// must treat it as read-only.
func (e *Enforcer) Policies() []models.Policy {
	return e.policies
}

// CacheHit reports whether the snapshot came from the policy cache.
func (e *Enforcer) CacheHit() bool {
	return e.cacheHit
}
