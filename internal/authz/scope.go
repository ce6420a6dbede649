// Gatewarden - Multi-Level Authorization Policy Engine
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

package authz

import (
	"context"
	"sync"
)

// RequestScope memoizes enforcement decisions within one inbound
// request. Repeated application of the same guard on the same resource
// skips the redundant policy fetch; the scope is created per request
// and never shared across requests, so a memoized decision can never
// outlive the request that produced it.
type RequestScope struct {
	mu        sync.Mutex
	decisions map[scopeKey]bool
}

type scopeKey struct {
	guard  string
	object string
	action string
}

// NewRequestScope creates an empty scope.
func NewRequestScope() *RequestScope {
	return &RequestScope{decisions: make(map[scopeKey]bool)}
}

// lookup returns a memoized decision and whether one exists.
func (s *RequestScope) lookup(guard, object, action string) (bool, bool) {
	if s == nil {
		return false, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	decision, ok := s.decisions[scopeKey{guard, object, action}]
	return decision, ok
}

// store memoizes a decision.
func (s *RequestScope) store(guard, object, action string, decision bool) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decisions[scopeKey{guard, object, action}] = decision
}

// Len reports the number of memoized decisions, for tests.
func (s *RequestScope) Len() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.decisions)
}

type scopeContextKey struct{}

// WithRequestScope attaches a fresh decision scope to the context.
// The HTTP layer installs one per inbound request.
func WithRequestScope(ctx context.Context) context.Context {
	return context.WithValue(ctx, scopeContextKey{}, NewRequestScope())
}

// ScopeFrom returns the request's decision scope, nil when absent.
// All scope operations tolerate nil, so unscoped calls simply skip
// memoization.
func ScopeFrom(ctx context.Context) *RequestScope {
	scope, _ := ctx.Value(scopeContextKey{}).(*RequestScope)
	return scope
}
