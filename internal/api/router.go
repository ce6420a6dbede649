// Gatewarden - Multi-Level Authorization Service
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

// Package api provides the HTTP surface of the authorization service:
// the decision endpoint, policy administration, group service
// management, and health and metrics endpoints, routed with chi and
// protected by the enforcement boundary guards.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gatewarden/gatewarden/internal/auth"
	"github.com/gatewarden/gatewarden/internal/authz"
)

// Route guard actions. Verbatim registry identifiers; the guarded
// routes deny callers whose roles do not carry them.
const (
	actionViewResources    = "backend_api_resolvers_resource_resolve_resources"
	actionEditResources    = "backend_api_resolvers_resource_resolve_add_resources"
	actionRegisterResource = "backend_api_resolvers_resource__do_add_repositories"
)

// Router assembles the HTTP handler tree.
type Router struct {
	handler *Handler
	guard   *authz.Guard
	authMW  *auth.Middleware
}

// NewRouter builds the router from its collaborators.
func NewRouter(handler *Handler, guard *authz.Guard, authMW *auth.Middleware) *Router {
	return &Router{
		handler: handler,
		guard:   guard,
		authMW:  authMW,
	}
}

// Setup wires all routes and returns the root handler.
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(AccessLog())

	r.Get("/healthz", rt.handler.Health)
	r.Get("/readyz", rt.handler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.authMW.Authenticate)
		r.Use(authz.ScopeMiddleware)

		r.Post("/authz/check", rt.handler.Check)
		r.Get("/me/actions", rt.handler.MyActions)
		r.Get("/roles/grantable", rt.handler.GrantableRoles)

		r.Post("/policies", rt.handler.GrantPolicy)
		r.Delete("/policies", rt.handler.RevokePolicy)
		r.Get("/policies/{subject}", rt.handler.ListPolicies)
		r.Post("/policies/{subject}/invalidate", rt.handler.InvalidatePolicies)

		r.Post("/organizations", rt.handler.RegisterOrganization)

		r.Route("/groups/{group}", func(r chi.Router) {
			r.Get("/services", rt.guard.RequireGroupLevel(actionViewResources, groupLocator, rt.handler.GroupServices))
			r.Post("/services", rt.guard.RequireGroupLevel(actionEditResources, groupLocator, rt.handler.PutGroupService))
			r.Delete("/services/{service}", rt.guard.RequireGroupLevel(actionEditResources, groupLocator, rt.handler.DeleteGroupService))
			r.Put("/resources", rt.guard.RequireGroupLevel(actionRegisterResource, groupLocator, rt.handler.RegisterResource))
		})
	})

	return r
}

// groupLocator identifies the group under access from the route.
func groupLocator(r *http.Request) authz.ResourceLocator {
	return authz.GroupByName(chi.URLParam(r, "group"))
}
