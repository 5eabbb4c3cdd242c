// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bureau-foundation/supportchat/supportapi"
)

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// RatingWriter is the rating write side of the backend.
type RatingWriter interface {
	PostRating(ctx context.Context, ticketID supportapi.ID, rating int) error
}

// RatingCollector records the customer's satisfaction rating. The
// selection is updated before the write is confirmed and rolled back
// if the write fails.
type RatingCollector struct {
	writer   RatingWriter
	store    *Store
	logger   *slog.Logger
	onChange func()

	// writeMu serializes writes so the backend sees ratings in the
	// order the customer chose them.
	writeMu sync.Mutex

	mu        sync.Mutex
	selection int
}

// NewRatingCollector returns a RatingCollector. onChange, if non-nil,
// is called whenever the selection changes.
func NewRatingCollector(writer RatingWriter, store *Store, logger *slog.Logger, onChange func()) *RatingCollector {
	if logger == nil {
		logger = slog.Default()
	}
	if onChange == nil {
		onChange = func() {}
	}
	return &RatingCollector{writer: writer, store: store, logger: logger, onChange: onChange}
}

// Selection returns the current star selection, 0 if none.
func (collector *RatingCollector) Selection() int {
	collector.mu.Lock()
	defer collector.mu.Unlock()
	return collector.selection
}

// Reset clears the selection, e.g. when the observed ticket changes.
func (collector *RatingCollector) Reset() {
	collector.mu.Lock()
	collector.selection = 0
	collector.mu.Unlock()
	collector.onChange()
}

// Rate records stars for the observed ticket. Out-of-range values fail
// with ErrInvalidRating before anything else. Support viewers and
// unresolved tickets fail with ErrInvalidState.
func (collector *RatingCollector) Rate(ctx context.Context, viewer Viewer, stars int) error {
	if stars < MinRating || stars > MaxRating {
		return fmt.Errorf("%w: got %d", ErrInvalidRating, stars)
	}
	if viewer.Role != RoleCustomer {
		return invalidState(ErrNotCustomer)
	}

	snapshot := collector.store.Snapshot()
	switch {
	case snapshot.TicketID.IsZero():
		return ErrNoTicket
	case snapshot.Status.Gone:
		return ErrTicketGone
	case snapshot.Ticket == nil || !snapshot.Ticket.Resolved:
		return invalidState(ErrNotResolved)
	}

	collector.writeMu.Lock()
	defer collector.writeMu.Unlock()

	collector.mu.Lock()
	previous := collector.selection
	collector.selection = stars
	collector.mu.Unlock()
	collector.onChange()

	if err := collector.writer.PostRating(ctx, snapshot.TicketID, stars); err != nil {
		collector.mu.Lock()
		if collector.selection == stars {
			collector.selection = previous
		}
		collector.mu.Unlock()
		collector.onChange()

		collector.logger.Warn("rating write failed, selection rolled back",
			"ticket_id", snapshot.TicketID,
			"rating", stars,
			"error", err,
		)
		return &WriteError{Op: "rating", TicketID: snapshot.TicketID, Err: err}
	}

	collector.logger.Info("ticket rated", "ticket_id", snapshot.TicketID, "rating", stars)
	if _, err := collector.store.RefreshAfterWrite(ctx); err != nil {
		collector.logger.Debug("refresh after rating failed", "ticket_id", snapshot.TicketID, "error", err)
	}
	return nil
}
