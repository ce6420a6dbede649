// Gatewarden - Multi-Level Authorization Policy Engine
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

package authz

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gatewarden/gatewarden/internal/auth"
	"github.com/gatewarden/gatewarden/internal/logging"
	"github.com/gatewarden/gatewarden/internal/models"
	"github.com/gatewarden/gatewarden/internal/monitor"
	"github.com/gatewarden/gatewarden/internal/respond"
)

// GuardConfig controls boundary behavior.
type GuardConfig struct {
	// Debug surfaces unresolvable resources as errors instead of
	// silently failing closed. Development-time assertion; never set
	// in production.
	Debug bool
}

// Guard wraps HTTP entry points with enforcement. Each Require*
// method resolves the subject and object, derives the action, takes
// one per-request enforcement decision, and either calls through or
// fails with the uniform denial.
type Guard struct {
	service  *Service
	resolver ObjectResolver
	reporter monitor.Reporter
	config   GuardConfig
}

// NewGuard creates the enforcement boundary.
func NewGuard(service *Service, resolver ObjectResolver, reporter monitor.Reporter, config GuardConfig) *Guard {
	if reporter == nil {
		reporter = monitor.Nop{}
	}
	return &Guard{
		service:  service,
		resolver: resolver,
		reporter: reporter,
		config:   config,
	}
}

// LocatorFunc derives the resource locator from the inbound request,
// typically from a URL or body parameter.
type LocatorFunc func(r *http.Request) ResourceLocator

// RequireUserLevel guards an entry point with a user-level check on
// the caller's own scope. An empty action derives the identifier from
// next's qualified name.
func (g *Guard) RequireUserLevel(action string, next http.HandlerFunc) http.HandlerFunc {
	return g.require(models.LevelUser, action, func(*http.Request) ResourceLocator {
		return SelfResource()
	}, next)
}

// RequireGroupLevel guards an entry point with a group-level check on
// the located group.
func (g *Guard) RequireGroupLevel(action string, locator LocatorFunc, next http.HandlerFunc) http.HandlerFunc {
	return g.require(models.LevelGroup, action, locator, next)
}

// RequireOrganizationLevel guards an entry point with an
// organization-level check.
func (g *Guard) RequireOrganizationLevel(action string, locator LocatorFunc, next http.HandlerFunc) http.HandlerFunc {
	return g.require(models.LevelOrganization, action, locator, next)
}

func (g *Guard) require(level models.Level, action string, locator LocatorFunc, next http.HandlerFunc) http.HandlerFunc {
	if action == "" {
		action = ActionFromFunc(next)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		subject, ok := auth.SubjectFrom(ctx)
		if !ok {
			writeDenial(w, r, http.StatusUnauthorized, "authentication required")
			return
		}

		object, err := g.resolveObject(ctx, locator(r), subject)
		if err != nil {
			writeDenial(w, r, http.StatusInternalServerError, "could not identify resource")
			return
		}

		allowed, err := g.decide(ctx, level, subject, object, action, r)
		if err != nil {
			// Store failure, not a denial.
			writeDenial(w, r, http.StatusInternalServerError, "authorization unavailable")
			return
		}
		if !allowed {
			writeDenial(w, r, http.StatusForbidden, ErrAccessDenied.Error())
			return
		}

		next(w, r)
	}
}

// RequireGroupAttribute guards an entry point on a service attribute
// of the located group rather than a subject role.
func (g *Guard) RequireGroupAttribute(attribute string, locator LocatorFunc, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		subject, ok := auth.SubjectFrom(ctx)
		if !ok {
			writeDenial(w, r, http.StatusUnauthorized, "authentication required")
			return
		}

		group, err := g.resolveObject(ctx, locator(r), subject)
		if err != nil {
			writeDenial(w, r, http.StatusInternalServerError, "could not identify resource")
			return
		}

		scope := ScopeFrom(ctx)
		allowed, memoized := scope.lookup("attribute", group, attribute)
		if !memoized {
			start := time.Now()
			enforcer, buildErr := g.service.GroupAttributeEnforcer(ctx, group)
			if buildErr != nil {
				logging.Ctx(ctx).Error().Err(buildErr).Msg("Attribute enforcer build failed")
				writeDenial(w, r, http.StatusInternalServerError, "authorization unavailable")
				return
			}
			allowed = enforcer.Enforce(group, attribute)
			scope.store("attribute", group, attribute, allowed)

			RecordDecision("attribute", allowed, time.Since(start), false)
			g.service.Audit().LogDecision(ctx, &AuditEvent{
				Subject:   subject,
				Level:     models.LevelGroup,
				Object:    group,
				Action:    attribute,
				Decision:  allowed,
				Duration:  time.Since(start),
				IPAddress: r.RemoteAddr,
				Method:    r.Method,
			})
		}

		if !allowed {
			writeDenial(w, r, http.StatusForbidden, ErrAccessDenied.Error())
			return
		}

		next(w, r)
	}
}

// resolveObject runs the locator and applies the fail-closed policy:
// in production an unresolvable resource becomes the empty object,
// which matches no policy row, and operations hears about it; in
// debug the error propagates as a configuration failure.
func (g *Guard) resolveObject(ctx context.Context, locator ResourceLocator, subject string) (string, error) {
	object, err := locator.Resolve(ctx, g.resolver)
	if err == nil {
		return object, nil
	}

	if g.config.Debug {
		return "", err
	}

	g.reporter.Report("could not identify resource to check permissions over",
		monitor.LevelCritical, map[string]string{
			"locator": locator.Kind(),
			"subject": subject,
		})
	if !errors.Is(err, ErrUnidentifiedResource) {
		logging.Ctx(ctx).Error().Err(err).Msg("Resource resolution failed")
	}
	return "", nil
}

// decide takes one memoized enforcement decision.
func (g *Guard) decide(
	ctx context.Context,
	level models.Level,
	subject, object, action string,
	r *http.Request,
) (bool, error) {
	scope := ScopeFrom(ctx)
	if allowed, ok := scope.lookup(string(level), object, action); ok {
		return allowed, nil
	}

	start := time.Now()
	enforcer, err := g.service.BuildEnforcer(ctx, level, subject)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).
			Str("level", string(level)).
			Msg("Enforcer build failed")
		return false, err
	}

	allowed := enforcer.Enforce(object, action)
	duration := time.Since(start)
	scope.store(string(level), object, action, allowed)

	RecordDecision(string(level), allowed, duration, enforcer.CacheHit())

	reason := ""
	if !allowed {
		reason = "no matching policy"
	}
	g.service.Audit().LogDecision(ctx, &AuditEvent{
		Subject:   subject,
		Level:     level,
		Object:    object,
		Action:    action,
		Decision:  allowed,
		Reason:    reason,
		Duration:  duration,
		CacheHit:  enforcer.CacheHit(),
		IPAddress: r.RemoteAddr,
		Method:    r.Method,
	})

	return allowed, nil
}

// ScopeMiddleware installs a fresh decision scope on every request.
// Mount it once, above all guarded routes.
func ScopeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithRequestScope(r.Context())))
	})
}

// writeDenial emits the shared response envelope so guard denials are
// indistinguishable in shape from handler errors.
func writeDenial(w http.ResponseWriter, r *http.Request, status int, message string) {
	code := respond.CodeInternalError
	switch status {
	case http.StatusUnauthorized:
		code = respond.CodeUnauthorized
	case http.StatusForbidden:
		code = respond.CodeForbidden
	}
	respond.Err(w, r, status, code, message)
}
