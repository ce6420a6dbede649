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

// Resource directory handlers. The directory feeds the enforcement
// boundary's object resolution: findings, events, and drafts map to
// their owning group, organization names to their prefixed id.

// actionAddUser is the admin-only action gating organization
// registration.
const actionAddUser = "backend_api_resolvers_user__do_add_user"

type resourceRequest struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// RegisterResource records which group owns a finding, event, or
// draft. Guarded at the route level over the owning group.
func (h *Handler) RegisterResource(w http.ResponseWriter, r *http.Request) {
	if h.directory == nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "resource directory not available")
		return
	}

	group := strings.ToLower(chi.URLParam(r, "group"))

	var req resourceRequest
	if err := decodeBody(r, &req); err != nil || req.ID == "" {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, "type and id are required")
		return
	}

	var err error
	switch req.Type {
	case "finding":
		err = h.directory.PutFinding(r.Context(), req.ID, group)
	case "event":
		err = h.directory.PutEvent(r.Context(), req.ID, group)
	case "draft":
		err = h.directory.PutDraft(r.Context(), req.ID, group)
	default:
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, "unknown resource type")
		return
	}
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Resource registration failed")
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "resource registration failed")
		return
	}

	respondJSON(w, r, http.StatusCreated, map[string]string{
		"group": group,
		"type":  req.Type,
		"id":    strings.ToLower(req.ID),
	})
}

type organizationRequest struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// RegisterOrganization records an organization name to id mapping.
// Admin only.
func (h *Handler) RegisterOrganization(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.SubjectFrom(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}
	if h.directory == nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "resource directory not available")
		return
	}

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

	var req organizationRequest
	if err := decodeBody(r, &req); err != nil || req.Name == "" || req.ID == "" {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, "name and id are required")
		return
	}

	if err := h.directory.PutOrganization(r.Context(), req.Name, req.ID); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Organization registration failed")
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, "invalid organization mapping")
		return
	}

	respondJSON(w, r, http.StatusCreated, map[string]string{
		"name": strings.ToLower(req.Name),
		"id":   strings.ToLower(req.ID),
	})
}
