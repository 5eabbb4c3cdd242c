// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bureau-foundation/supportchat/supportapi"
)

var (
	// ErrInvalidState is returned when an operation is not allowed in
	// the session's current state. It is always joined with a reason:
	//
	//	if errors.Is(err, chat.ErrInvalidState) && errors.Is(err, chat.ErrTicketResolved) { ... }
	ErrInvalidState = errors.New("chat: invalid state")

	ErrTicketResolved = errors.New("ticket is resolved")
	ErrGenerating     = errors.New("AI reply is being generated")
	ErrNotCustomer    = errors.New("only customers can rate")
	ErrNotResolved    = errors.New("ticket is not resolved yet")

	ErrInvalidRating   = errors.New("chat: rating must be between 1 and 5")
	ErrEmptyMessage    = errors.New("chat: message is empty")
	ErrRefreshInFlight = errors.New("chat: refresh already in flight")
	ErrNoTicket        = errors.New("chat: no ticket loaded")
	ErrTicketGone      = errors.New("chat: ticket no longer exists")
	ErrClosed          = errors.New("chat: session closed")
)

func invalidState(reason error) error {
	return fmt.Errorf("%w: %w", ErrInvalidState, reason)
}

// FetchError is a failed ticket or thread read. The snapshot is left
// as it was.
type FetchError struct {
	TicketID supportapi.ID
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("chat: fetching ticket %s: %v", e.TicketID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Transient reports whether the next poll may succeed. A deleted
// ticket (404) and client-side rejections (other 4xx) are permanent.
func (e *FetchError) Transient() bool {
	var apiErr *supportapi.APIError
	if errors.As(e.Err, &apiErr) {
		return apiErr.Temporary()
	}
	return true
}

// Gone reports whether the backend no longer has the ticket.
func (e *FetchError) Gone() bool {
	return supportapi.IsNotFound(e.Err)
}

// WriteError is a failed message or rating write. Writes are not
// retried: the backend does not deduplicate, so a retry after a lost
// response could post the message twice.
type WriteError struct {
	// Op is "message" or "rating".
	Op       string
	TicketID supportapi.ID
	Err      error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("chat: writing %s for ticket %s: %v", e.Op, e.TicketID, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Conflict reports whether the backend rejected the write because of
// ticket state (409), e.g. it was resolved between refreshes.
func (e *WriteError) Conflict() bool {
	return supportapi.IsStatus(e.Err, http.StatusConflict)
}

// GenerationError is a failed AI generation. The dispatcher recovers
// from it by sending the prompt as typed; it is logged, never returned
// to the user.
type GenerationError struct {
	// Stage is "modelfile" or "generate".
	Stage string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("chat: AI generation failed at %s: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
