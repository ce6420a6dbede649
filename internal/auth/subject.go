// Gatewarden - Multi-Level Authorization Service
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

package auth

import (
	"context"
	"errors"
	"strings"
)

// Standard authentication errors
var (
	// ErrNoCredentials indicates no credentials were provided.
	ErrNoCredentials = errors.New("no credentials provided")

	// ErrInvalidCredentials indicates credentials were invalid.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrExpiredCredentials indicates credentials have expired.
	ErrExpiredCredentials = errors.New("credentials expired")
)

type subjectContextKey struct{}

// WithSubject returns a context carrying the authenticated subject.
// Subjects are normalized to lowercase so policy lookups are
// case-insensitive regardless of how the identity provider cases them.
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectContextKey{}, strings.ToLower(strings.TrimSpace(subject)))
}

// SubjectFrom extracts the authenticated subject from the context.
// The second return value is false when no subject is present or the
// subject is empty.
func SubjectFrom(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(subjectContextKey{}).(string)
	if !ok || subject == "" {
		return "", false
	}
	return subject, true
}
