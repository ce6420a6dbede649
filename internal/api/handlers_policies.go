// Gatewarden - Multi-Level Authorization Service
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gatewarden/gatewarden/internal/auth"
	"github.com/gatewarden/gatewarden/internal/authz"
	"github.com/gatewarden/gatewarden/internal/logging"
	"github.com/gatewarden/gatewarden/internal/models"
)

// Policy administration. Granting a role requires the caller to hold
// the matching grant_<level>_level_role:<role> action over the target
// object; revocation requires the remove-access action plus the same
// grant actions for every role being stripped. Both mirror the
// decision path used by the route guards.

// actionRemoveAccess gates revocation.
const actionRemoveAccess = "backend_api_resolvers_user__do_remove_user_access"

type grantRequest struct {
	Level   string `json:"level"`
	Subject string `json:"subject"`
	Object  string `json:"object"`
	Role    string `json:"role"`
}

// GrantPolicy stores a new policy tuple after checking the caller may
// grant that role at that level over that object.
func (h *Handler) GrantPolicy(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.SubjectFrom(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}

	var req grantRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return
	}

	policy := models.NewPolicy(models.Level(req.Level), req.Subject, req.Object, req.Role)
	if !models.IsValidLevel(policy.Level) || !models.IsValidRole(policy.Role) {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, "unknown level or role")
		return
	}

	grantAction, object := grantCheckFor(policy)
	enforcer, err := h.service.BuildEnforcer(r.Context(), policy.Level, caller)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Enforcer construction failed")
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "authorization unavailable")
		return
	}
	if !enforcer.Enforce(object, grantAction) {
		respondError(w, r, http.StatusForbidden, ErrCodeForbidden, authz.ErrAccessDenied.Error())
		return
	}

	if err := h.service.Grant(r.Context(), policy); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Grant failed")
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "grant failed")
		return
	}

	respondJSON(w, r, http.StatusCreated, policy)
}

// grantCheckFor returns the action and object the caller must pass to
// grant the given policy. User-level grants are checked against the
// caller's own scope; group and organization grants against the target
// object.
func grantCheckFor(policy models.Policy) (action, object string) {
	switch policy.Level {
	case models.LevelGroup:
		return authz.GrantGroupRolePrefix + policy.Role, policy.Object
	case models.LevelOrganization:
		return authz.GrantOrgRolePrefix + policy.Role, policy.Object
	default:
		return authz.GrantUserRolePrefix + policy.Role, models.ObjectSelf
	}
}

// RevokePolicy removes a subject's grants over an object at the
// object's level. The caller must hold the remove-access action and,
// for every role being stripped, the matching grant action: revocation
// never reaches further than granting does. Idempotent: revoking
// absent grants succeeds.
func (h *Handler) RevokePolicy(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.SubjectFrom(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}

	subject := strings.ToLower(r.URL.Query().Get("subject"))
	object := strings.ToLower(r.URL.Query().Get("object"))
	if subject == "" || object == "" {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, "subject and object are required")
		return
	}

	level := levelOfObject(object)
	enforcer, err := h.service.BuildEnforcer(r.Context(), level, caller)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Enforcer construction failed")
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "authorization unavailable")
		return
	}
	if !enforcer.Enforce(object, actionRemoveAccess) {
		respondError(w, r, http.StatusForbidden, ErrCodeForbidden, authz.ErrAccessDenied.Error())
		return
	}

	target, err := h.service.SubjectPolicies(r.Context(), subject)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Policy fetch failed")
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "revoke failed")
		return
	}
	for _, policy := range target {
		if policy.Level != level || policy.Object != object {
			continue
		}
		grantAction, grantObject := grantCheckFor(policy)
		if !enforcer.Enforce(grantObject, grantAction) {
			respondError(w, r, http.StatusForbidden, ErrCodeForbidden, authz.ErrAccessDenied.Error())
			return
		}
	}

	fresh, err := h.service.Revoke(r.Context(), subject, object)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Revoke failed")
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "revoke failed")
		return
	}

	respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"subject":  subject,
		"object":   object,
		"reloaded": fresh,
	})
}

// levelOfObject infers the enforcement level from the object shape.
func levelOfObject(object string) models.Level {
	switch {
	case strings.EqualFold(object, models.ObjectSelf):
		return models.LevelUser
	case strings.HasPrefix(strings.ToUpper(object), models.OrganizationIDPrefix):
		return models.LevelOrganization
	default:
		return models.LevelGroup
	}
}

// ListPolicies returns a subject's grants. Callers may always read
// their own; reading another subject requires the admin-tier user
// administration action.
func (h *Handler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.SubjectFrom(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}

	subject := strings.ToLower(chi.URLParam(r, "subject"))
	if subject == "" {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, "subject is required")
		return
	}

	if subject != caller {
		enforcer, err := h.service.UserLevelEnforcer(r.Context(), caller)
		if err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Msg("Enforcer construction failed")
			respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "authorization unavailable")
			return
		}
		if !enforcer.Enforce(models.ObjectSelf, actionAddUser) {
			respondError(w, r, http.StatusForbidden, ErrCodeForbidden, authz.ErrAccessDenied.Error())
			return
		}
	}

	policies, err := h.service.SubjectPolicies(r.Context(), subject)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Policy fetch failed")
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "policy fetch failed")
		return
	}

	respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"subject":  subject,
		"policies": policies,
	})
}

// InvalidatePolicies drops a subject's cached snapshot and reloads it
// from the store. Exposed for operators chasing staleness.
func (h *Handler) InvalidatePolicies(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.SubjectFrom(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}

	subject := strings.ToLower(chi.URLParam(r, "subject"))
	if subject == "" {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, "subject is required")
		return
	}

	if subject != caller {
		enforcer, err := h.service.UserLevelEnforcer(r.Context(), caller)
		if err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Msg("Enforcer construction failed")
			respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "authorization unavailable")
			return
		}
		if !enforcer.Enforce(models.ObjectSelf, actionAddUser) {
			respondError(w, r, http.StatusForbidden, ErrCodeForbidden, authz.ErrAccessDenied.Error())
			return
		}
	}

	fresh, err := h.service.InvalidatePolicies(r.Context(), subject)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Invalidation reload failed")
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "invalidation failed")
		return
	}

	respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"subject":  subject,
		"reloaded": fresh,
	})
}

// GrantableRoles lists the roles the caller may grant at a level over
// an object.
func (h *Handler) GrantableRoles(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.SubjectFrom(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}

	level := models.Level(r.URL.Query().Get("level"))
	object := strings.ToLower(r.URL.Query().Get("object"))

	var roles []string
	var err error
	switch level {
	case models.LevelUser:
		roles, err = h.service.UserLevelRolesCanGrant(r.Context(), caller)
	case models.LevelGroup:
		if object == "" {
			respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, "object is required")
			return
		}
		roles, err = h.service.GroupLevelRolesCanGrant(r.Context(), caller, object)
	case models.LevelOrganization:
		if object == "" {
			respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, "object is required")
			return
		}
		roles, err = h.service.OrganizationLevelRolesCanGrant(r.Context(), caller, object)
	default:
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, "unknown level")
		return
	}
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Grantable role lookup failed")
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "authorization unavailable")
		return
	}

	respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"level": string(level),
		"roles": roles,
	})
}
