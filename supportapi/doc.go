// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package supportapi is the HTTP client for the support backend.
//
// The backend exposes a small JSON surface:
//
//	GET  /api/tickets/{id}/single   ticket metadata
//	GET  /api/messages/{id}         the ticket's thread, in server order
//	GET  /api/ai/{companyId}        the tenant's prompt template ("modelfile")
//	POST /api/messages/{id}         append a message
//	POST /api/ratings/{id}          record a 1-5 satisfaction rating
//
// [Client] wraps these with context-aware methods. Non-2xx responses
// become [*APIError]; use [IsNotFound] to tell a deleted ticket apart
// from a transient failure. Transport failures are wrapped with %w so
// callers can still reach net errors and context errors.
//
// Identifiers are opaque. The backend sends them as JSON numbers or
// strings depending on the table; [ID] accepts both.
package supportapi
