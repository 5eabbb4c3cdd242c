// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/bureau-foundation/supportchat/supportapi"
)

// MessageWriter is the message write side of the backend.
type MessageWriter interface {
	PostMessage(ctx context.Context, message supportapi.NewMessage) error
}

// SubmitterStats counts writes.
type SubmitterStats struct {
	Writes        uint64
	WriteFailures uint64
}

// Submitter writes outgoing messages and refreshes the store right
// after each successful write.
type Submitter struct {
	writer MessageWriter
	store  *Store
	logger *slog.Logger

	writes        atomic.Uint64
	writeFailures atomic.Uint64
}

// NewSubmitter returns a Submitter.
func NewSubmitter(writer MessageWriter, store *Store, logger *slog.Logger) *Submitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Submitter{writer: writer, store: store, logger: logger}
}

// Submit writes outgoing to the observed ticket as viewer. It refuses
// without writing if the last snapshot shows the ticket resolved or
// gone. A failed write returns *WriteError and is not retried. After a
// successful write the store is refreshed; a failure of that refresh
// is recorded in the store's status, not returned.
func (submitter *Submitter) Submit(ctx context.Context, viewer Viewer, outgoing Outgoing) (Snapshot, error) {
	snapshot := submitter.store.Snapshot()
	switch {
	case snapshot.TicketID.IsZero():
		return snapshot, ErrNoTicket
	case snapshot.Status.Gone:
		return snapshot, ErrTicketGone
	case snapshot.Ticket != nil && snapshot.Ticket.Resolved:
		return snapshot, invalidState(ErrTicketResolved)
	}

	message := supportapi.NewMessage{
		TicketID:    snapshot.TicketID,
		AuthorID:    viewer.AuthorID(),
		Text:        outgoing.Text,
		FromSupport: viewer.Role == RoleSupport,
		FromAI:      outgoing.FromAI,
	}
	if err := submitter.writer.PostMessage(ctx, message); err != nil {
		submitter.writeFailures.Add(1)
		return snapshot, &WriteError{Op: "message", TicketID: snapshot.TicketID, Err: err}
	}
	submitter.writes.Add(1)

	submitter.logger.Debug("message written",
		"ticket_id", snapshot.TicketID,
		"from_support", message.FromSupport,
		"from_ai", message.FromAI,
	)

	refreshed, err := submitter.store.RefreshAfterWrite(ctx)
	if err != nil {
		submitter.logger.Debug("refresh after write failed", "ticket_id", snapshot.TicketID, "error", err)
	}
	return refreshed, nil
}

// Stats returns a point-in-time copy of the counters.
func (submitter *Submitter) Stats() SubmitterStats {
	return SubmitterStats{
		Writes:        submitter.writes.Load(),
		WriteFailures: submitter.writeFailures.Load(),
	}
}
