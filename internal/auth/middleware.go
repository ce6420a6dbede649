// Gatewarden - Multi-Level Authorization Service
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

package auth

import (
	"net/http"
	"strings"

	"github.com/gatewarden/gatewarden/internal/logging"
	"github.com/gatewarden/gatewarden/internal/respond"
)

// Middleware authenticates requests and installs the subject into the
// request context for downstream authorization guards.
type Middleware struct {
	tokens *TokenManager
	// Disabled skips authentication entirely. Intended for local
	// development where no identity provider is available.
	disabled bool
}

// NewMiddleware creates an authentication middleware backed by the
// given token manager. Passing a nil manager disables authentication.
func NewMiddleware(tokens *TokenManager) *Middleware {
	return &Middleware{
		tokens:   tokens,
		disabled: tokens == nil,
	}
}

// Authenticate validates the bearer token on the request and installs
// the authenticated subject into the context. Requests without valid
// credentials receive 401 before reaching the handler.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.disabled {
			next.ServeHTTP(w, r)
			return
		}

		tokenString, err := bearerToken(r)
		if err != nil {
			respond.Err(w, r, http.StatusUnauthorized, respond.CodeUnauthorized, "authentication required")
			return
		}

		claims, err := m.tokens.ValidateToken(tokenString)
		if err != nil {
			logging.Ctx(r.Context()).Debug().Err(err).Msg("Token validation failed")
			respond.Err(w, r, http.StatusUnauthorized, respond.CodeUnauthorized, "invalid credentials")
			return
		}

		ctx := WithSubject(r.Context(), SubjectOf(claims))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrNoCredentials
	}

	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", ErrInvalidCredentials
	}

	return strings.TrimSpace(header[len(prefix):]), nil
}
