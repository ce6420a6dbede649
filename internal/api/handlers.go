// Gatewarden - Multi-Level Authorization Service
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gatewarden/gatewarden/internal/auth"
	"github.com/gatewarden/gatewarden/internal/authz"
	"github.com/gatewarden/gatewarden/internal/cache"
	"github.com/gatewarden/gatewarden/internal/logging"
	"github.com/gatewarden/gatewarden/internal/models"
	"github.com/gatewarden/gatewarden/internal/store"
)

// Pinger is implemented by cache backends that support health probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler carries the dependencies of the HTTP endpoints.
type Handler struct {
	service   *authz.Service
	resolver  authz.ObjectResolver
	directory *store.Directory
	kv        cache.KeyValue
	version   string
}

// NewHandler builds the endpoint handler set. The directory may be nil
// when resource registration is not exposed.
func NewHandler(service *authz.Service, resolver authz.ObjectResolver, directory *store.Directory, kv cache.KeyValue, version string) *Handler {
	return &Handler{
		service:   service,
		resolver:  resolver,
		directory: directory,
		kv:        kv,
		version:   version,
	}
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": h.version,
	})
}

// Ready reports readiness, probing the cache backend when it supports
// health checks. A degraded cache does not fail readiness: the service
// answers from the policy store without it.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	cacheStatus := "ok"
	if pinger, ok := h.kv.(Pinger); ok {
		if err := pinger.Ping(r.Context()); err != nil {
			cacheStatus = "degraded"
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Cache health probe failed")
		}
	}

	respondJSON(w, r, http.StatusOK, map[string]string{
		"status": "ok",
		"cache":  cacheStatus,
	})
}

// checkRequest describes an authorization question. Exactly one
// resource field is consulted, chosen by the requested level.
type checkRequest struct {
	Level        string `json:"level"`
	Action       string `json:"action"`
	Group        string `json:"group,omitempty"`
	FindingID    string `json:"finding_id,omitempty"`
	EventID      string `json:"event_id,omitempty"`
	DraftID      string `json:"draft_id,omitempty"`
	Organization string `json:"organization,omitempty"`
}

type checkResponse struct {
	Allowed  bool   `json:"allowed"`
	Level    string `json:"level"`
	Object   string `json:"object"`
	Action   string `json:"action"`
	CacheHit bool   `json:"cache_hit"`
	Reason   string `json:"reason,omitempty"`
}

// Check answers whether the authenticated caller may perform an action
// over a resource. Advisory twin of the route guards: same decision
// path, but the answer is returned instead of enforced.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	subject, ok := auth.SubjectFrom(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}

	var req checkRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return
	}

	level := models.Level(req.Level)
	if !models.IsValidLevel(level) {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, "unknown level")
		return
	}
	if req.Action == "" {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, "action is required")
		return
	}

	locator := h.locatorFor(level, &req)
	object, err := locator.Resolve(r.Context(), h.resolver)
	if err != nil {
		if errors.Is(err, authz.ErrUnidentifiedResource) {
			h.respondCheck(w, r, subject, &checkResponse{
				Allowed: false,
				Level:   string(level),
				Action:  req.Action,
				Reason:  "unidentified resource",
			})
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Msg("Resource resolution failed")
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "resource resolution failed")
		return
	}

	start := time.Now()
	enforcer, err := h.service.BuildEnforcer(r.Context(), level, subject)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Enforcer construction failed")
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "authorization unavailable")
		return
	}

	allowed := enforcer.Enforce(object, req.Action)
	authz.RecordDecision(string(level), allowed, time.Since(start), enforcer.CacheHit())

	resp := &checkResponse{
		Allowed:  allowed,
		Level:    string(level),
		Object:   object,
		Action:   req.Action,
		CacheHit: enforcer.CacheHit(),
	}
	if !allowed {
		resp.Reason = "no matching policy"
	}
	h.respondCheck(w, r, subject, resp)
}

func (h *Handler) respondCheck(w http.ResponseWriter, r *http.Request, subject string, resp *checkResponse) {
	h.service.Audit().LogDecision(r.Context(), &authz.AuditEvent{
		Subject:   subject,
		Level:     models.Level(resp.Level),
		Object:    resp.Object,
		Action:    resp.Action,
		Decision:  resp.Allowed,
		Reason:    resp.Reason,
		CacheHit:  resp.CacheHit,
		IPAddress: r.RemoteAddr,
		Method:    "check",
	})

	respondJSON(w, r, http.StatusOK, resp)
}

func (h *Handler) locatorFor(level models.Level, req *checkRequest) authz.ResourceLocator {
	switch level {
	case models.LevelUser:
		return authz.SelfResource()

	case models.LevelGroup:
		switch {
		case req.Group != "":
			return authz.GroupByName(req.Group)
		case req.FindingID != "":
			return authz.GroupOfFinding(req.FindingID)
		case req.EventID != "":
			return authz.GroupOfEvent(req.EventID)
		case req.DraftID != "":
			return authz.GroupOfDraft(req.DraftID)
		default:
			return authz.NoResource()
		}

	case models.LevelOrganization:
		if req.Organization != "" {
			return authz.OrganizationByID(req.Organization)
		}
		return authz.NoResource()

	default:
		return authz.NoResource()
	}
}

// MyActions lists every action the caller may perform over an object
// at a level. Drives permission-aware UIs without a request per action.
func (h *Handler) MyActions(w http.ResponseWriter, r *http.Request) {
	subject, ok := auth.SubjectFrom(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}

	level := models.Level(r.URL.Query().Get("level"))
	if !models.IsValidLevel(level) {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, "unknown level")
		return
	}

	object := r.URL.Query().Get("object")
	if level == models.LevelUser {
		object = models.ObjectSelf
	}
	if object == "" {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, "object is required")
		return
	}

	enforcer, err := h.service.BuildEnforcer(r.Context(), level, subject)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Enforcer construction failed")
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "authorization unavailable")
		return
	}

	allowed := []string{}
	for _, action := range h.service.Registry().AllActions() {
		if enforcer.Enforce(object, action) {
			allowed = append(allowed, action)
		}
	}

	respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"level":   string(level),
		"object":  object,
		"actions": allowed,
	})
}
