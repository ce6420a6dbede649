// Gatewarden - Multi-Level Authorization Service
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gatewarden/gatewarden/internal/authz"
	"github.com/gatewarden/gatewarden/internal/logging"
	"github.com/gatewarden/gatewarden/internal/models"
)

// Group service handlers. Access control happens in the route guards;
// these handlers only perform the operation.

// GroupServices returns the group's service subscriptions together
// with the feature attributes each service unlocks.
func (h *Handler) GroupServices(w http.ResponseWriter, r *http.Request) {
	group := strings.ToLower(chi.URLParam(r, "group"))

	services, err := h.service.GroupServices(r.Context(), group)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Group services fetch failed")
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "group services fetch failed")
		return
	}

	attributes := map[string][]string{}
	for _, gs := range services {
		attributes[gs.Service] = authz.ServiceAttributes[gs.Service]
	}

	respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"group":      group,
		"services":   services,
		"attributes": attributes,
	})
}

type serviceRequest struct {
	Service string `json:"service"`
}

// PutGroupService subscribes the group to a service and refreshes the
// cached service list.
func (h *Handler) PutGroupService(w http.ResponseWriter, r *http.Request) {
	group := strings.ToLower(chi.URLParam(r, "group"))

	var req serviceRequest
	if err := decodeBody(r, &req); err != nil || req.Service == "" {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, "service is required")
		return
	}

	gs := models.GroupService{Group: group, Service: strings.ToLower(req.Service)}
	if err := h.service.PutGroupService(r.Context(), gs); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Group service update failed")
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "group service update failed")
		return
	}

	respondJSON(w, r, http.StatusCreated, gs)
}

// DeleteGroupService unsubscribes the group from a service.
func (h *Handler) DeleteGroupService(w http.ResponseWriter, r *http.Request) {
	group := strings.ToLower(chi.URLParam(r, "group"))
	service := strings.ToLower(chi.URLParam(r, "service"))

	if err := h.service.DeleteGroupService(r.Context(), group, service); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Group service removal failed")
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "group service removal failed")
		return
	}

	respondJSON(w, r, http.StatusOK, map[string]string{
		"group":   group,
		"service": service,
	})
}
