// Gatewarden - Multi-Level Authorization Service
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

package api

import (
	"net/http"

	"github.com/gatewarden/gatewarden/internal/respond"
)

// The response envelope lives in internal/respond so the auth
// middleware and authorization guards emit the same shape; these
// aliases keep the handlers concise.

// APIResponse is the response wrapper for all endpoints.
type APIResponse = respond.Body

// APIError carries a machine-readable code alongside the message.
type APIError = respond.Error

// Error codes for API responses.
const (
	ErrCodeBadRequest         = respond.CodeBadRequest
	ErrCodeUnauthorized       = respond.CodeUnauthorized
	ErrCodeForbidden          = respond.CodeForbidden
	ErrCodeNotFound           = respond.CodeNotFound
	ErrCodeInternalError      = respond.CodeInternalError
	ErrCodeServiceUnavailable = respond.CodeServiceUnavailable
	ErrCodeValidationFailed   = respond.CodeValidationFailed
)

func respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	respond.JSON(w, r, status, data)
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	respond.Err(w, r, status, code, message)
}

// decodeBody unmarshals a JSON request body, rejecting unknown fields.
func decodeBody(r *http.Request, dst interface{}) error {
	return respond.Decode(r, dst)
}
