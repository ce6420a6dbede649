// Gatewarden - Multi-Level Authorization Policy Engine
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

// Prometheus metrics for the authorization engine.
//
// Metrics Categories:
//   - Decisions: allow/deny counts and latency per enforcement level
//   - Policy Cache: hit/miss rates and invalidations
//   - Configuration errors: unknown-role lookups
//   - Audit: events written and dropped
package authz

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DecisionsTotal counts enforcement decisions by level and outcome.
	DecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_decisions_total",
			Help: "Total number of authorization decisions",
		},
		[]string{"level", "decision"},
	)

	// DecisionDuration tracks the latency of enforcement decisions,
	// including the policy fetch.
	DecisionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "authz_decision_duration_seconds",
			Help:    "Duration of authorization decisions in seconds",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
		[]string{"level", "cache_hit"},
	)

	// DeniedTotal specifically tracks denials for alerting.
	DeniedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_denied_total",
			Help: "Total number of authorization denials (for alerting)",
		},
		[]string{"level"},
	)

	// PolicyCacheHitsTotal counts policy snapshot cache hits.
	PolicyCacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "authz_policy_cache_hits_total",
			Help: "Total number of policy cache hits",
		},
	)

	// PolicyCacheMissesTotal counts policy snapshot cache misses,
	// including backend failures degraded to misses.
	PolicyCacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "authz_policy_cache_misses_total",
			Help: "Total number of policy cache misses",
		},
	)

	// PolicyCacheErrorsTotal counts cache backend failures that were
	// swallowed into the miss path.
	PolicyCacheErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "authz_policy_cache_errors_total",
			Help: "Total number of cache backend errors treated as misses",
		},
	)

	// CacheInvalidationsTotal counts pattern-delete invalidations.
	CacheInvalidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_cache_invalidations_total",
			Help: "Total number of policy cache invalidations",
		},
		[]string{"scope"}, // "subject", "group"
	)

	// UnknownRolesTotal counts membership checks against unregistered
	// roles: a nonzero value means policy rows reference roles the
	// registry does not know.
	UnknownRolesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_unknown_roles_total",
			Help: "Total number of permission checks against unknown roles",
		},
		[]string{"role"},
	)

	// StoreErrorsTotal counts policy store failures surfaced to callers.
	StoreErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "authz_store_errors_total",
			Help: "Total number of policy store errors",
		},
	)

	// AuditEventsTotal counts audit events logged.
	AuditEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_audit_events_total",
			Help: "Total number of audit events logged",
		},
		[]string{"decision"}, // "allowed", "denied"
	)

	// AuditDroppedTotal counts audit events dropped due to buffer overflow.
	AuditDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "authz_audit_dropped_total",
			Help: "Total number of audit events dropped (buffer overflow)",
		},
	)
)

// RecordDecision records an enforcement decision.
func RecordDecision(level string, allowed bool, duration time.Duration, cacheHit bool) {
	decision := "denied"
	if allowed {
		decision = "allowed"
	}
	DecisionsTotal.WithLabelValues(level, decision).Inc()

	cacheHitLabel := "false"
	if cacheHit {
		cacheHitLabel = "true"
	}
	DecisionDuration.WithLabelValues(level, cacheHitLabel).Observe(duration.Seconds())

	if !allowed {
		DeniedTotal.WithLabelValues(level).Inc()
	}
}

// RecordCacheHit records a policy cache hit.
func RecordCacheHit() {
	PolicyCacheHitsTotal.Inc()
}

// RecordCacheMiss records a policy cache miss.
func RecordCacheMiss() {
	PolicyCacheMissesTotal.Inc()
}

// RecordCacheError records a swallowed cache backend error.
func RecordCacheError() {
	PolicyCacheErrorsTotal.Inc()
	PolicyCacheMissesTotal.Inc()
}

// RecordCacheInvalidation records a pattern-delete invalidation.
func RecordCacheInvalidation(scope string) {
	CacheInvalidationsTotal.WithLabelValues(scope).Inc()
}

// RecordUnknownRole records a permission check against an unknown role.
func RecordUnknownRole(role string) {
	UnknownRolesTotal.WithLabelValues(role).Inc()
}

// RecordStoreError records a policy store failure.
func RecordStoreError() {
	StoreErrorsTotal.Inc()
}

// RecordAuditEvent records an audit event being logged.
func RecordAuditEvent(allowed bool) {
	decision := "denied"
	if allowed {
		decision = "allowed"
	}
	AuditEventsTotal.WithLabelValues(decision).Inc()
}

// RecordAuditDropped records an audit event being dropped.
func RecordAuditDropped() {
	AuditDroppedTotal.Inc()
}
