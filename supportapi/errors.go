// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package supportapi

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from the backend. Extract it with
// errors.As:
//
//	var apiErr *supportapi.APIError
//	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict { ... }
type APIError struct {
	StatusCode int
	Method     string
	Path       string

	// Message is the backend's "error" or "message" field when the body
	// was JSON, otherwise the (truncated) body text.
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("supportapi: %s %s: HTTP %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("supportapi: %s %s: HTTP %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// Temporary reports whether retrying the same request later could
// succeed: 408, 429, and 5xx.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusRequestTimeout ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= 500
}

// IsNotFound reports whether err is an *APIError with status 404.
func IsNotFound(err error) bool {
	return IsStatus(err, http.StatusNotFound)
}

// IsStatus reports whether err is an *APIError with the given status.
func IsStatus(err error, statusCode int) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == statusCode
	}
	return false
}
