// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/bureau-foundation/supportchat/lib/clock"
	"github.com/bureau-foundation/supportchat/lib/codec"
	"github.com/bureau-foundation/supportchat/supportapi"
)

// TicketReader is the read side of the backend.
type TicketReader interface {
	Ticket(ctx context.Context, ticketID supportapi.ID) (*supportapi.Ticket, error)
	Messages(ctx context.Context, ticketID supportapi.ID) ([]supportapi.Message, error)
}

// SyncStatus describes how fresh a snapshot is.
type SyncStatus struct {
	// Loaded is true once a fetch for the current ticket succeeded.
	Loaded bool

	// Reconnecting is true after a fetch failed and until one succeeds.
	Reconnecting        bool
	ConsecutiveFailures int
	LastError           error

	// Gone is true once the backend answered 404 for the ticket.
	Gone bool
}

// Snapshot is the store's view of one ticket. Snapshots are immutable
// once published; Messages must not be modified.
type Snapshot struct {
	TicketID supportapi.ID
	Ticket   *supportapi.Ticket
	Messages []supportapi.Message
	Status   SyncStatus

	// Seq is the sequence number of the fetch that produced the
	// ticket and messages, 0 before the first success.
	Seq uint64

	// Fingerprint is the BLAKE3 digest of the ticket and messages.
	Fingerprint codec.Fingerprint
	FetchedAt   time.Time
}

// StoreConfig configures a Store.
type StoreConfig struct {
	Reader TicketReader
	Clock  clock.Clock
	Logger *slog.Logger
}

// Store holds the snapshot of the observed ticket. The apply step is
// its only writer. Safe for concurrent use.
type Store struct {
	reader TicketReader
	clock  clock.Clock
	logger *slog.Logger

	mu       sync.Mutex
	snapshot Snapshot

	// epoch increments on every ticket switch. Fetches started under
	// an older epoch are discarded on completion.
	epoch uint64

	// lastSeq is the last sequence number handed out; appliedSeq the
	// last one whose result (success or failure) was applied.
	lastSeq    uint64
	appliedSeq uint64

	// inFlight is the outstanding fetch for the current epoch, if any.
	inFlight *fetch

	subscribers map[chan Snapshot]struct{}
}

// fetch is one refresh from start to apply.
type fetch struct {
	seq      uint64
	epoch    uint64
	ticketID supportapi.ID
	done     chan struct{}
}

type fetchResult struct {
	ticket   *supportapi.Ticket
	messages []supportapi.Message
	err      error
}

// NewStore returns an empty Store. Reader is required.
func NewStore(config StoreConfig) *Store {
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Store{
		reader:      config.Reader,
		clock:       config.Clock,
		logger:      config.Logger,
		subscribers: make(map[chan Snapshot]struct{}),
	}
}

// Snapshot returns the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// Status returns the current synchronization status.
func (s *Store) Status() SyncStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot.Status
}

// RefreshInFlight reports whether a refresh of the current ticket is
// outstanding.
func (s *Store) RefreshInFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight != nil
}

// Load makes ticketID the observed ticket and fetches it. Switching to
// a different ticket clears the snapshot first and orphans any
// outstanding fetch of the previous one. Loading the current ticket
// again behaves like RefreshAfterWrite.
func (s *Store) Load(ctx context.Context, ticketID supportapi.ID) (Snapshot, error) {
	s.mu.Lock()
	if ticketID == s.snapshot.TicketID && !ticketID.IsZero() {
		s.mu.Unlock()
		return s.RefreshAfterWrite(ctx)
	}

	previous := s.snapshot.TicketID
	s.epoch++
	s.inFlight = nil
	s.snapshot = Snapshot{TicketID: ticketID}
	pending := s.beginLocked()
	cleared := s.snapshot
	s.notifyLocked(cleared)
	s.mu.Unlock()

	s.logger.Debug("observing ticket", "ticket_id", ticketID, "previous", previous)
	return s.run(ctx, pending)
}

// Refresh fetches the current ticket. If a refresh is already
// outstanding it returns the current snapshot and ErrRefreshInFlight
// without issuing a request.
func (s *Store) Refresh(ctx context.Context) (Snapshot, error) {
	pending, snapshot, err := s.tryBegin()
	if err != nil {
		return snapshot, err
	}
	return s.run(ctx, pending)
}

// RefreshAfterWrite waits for any outstanding refresh to finish and
// then fetches, so the fetch is guaranteed to start after the caller's
// write completed.
func (s *Store) RefreshAfterWrite(ctx context.Context) (Snapshot, error) {
	for {
		pending, snapshot, err := s.tryBegin()
		if err == nil {
			return s.run(ctx, pending)
		}
		if !errors.Is(err, ErrRefreshInFlight) {
			return snapshot, err
		}

		s.mu.Lock()
		var wait <-chan struct{}
		if s.inFlight != nil {
			wait = s.inFlight.done
		}
		s.mu.Unlock()
		if wait == nil {
			continue
		}

		select {
		case <-wait:
		case <-ctx.Done():
			return s.Snapshot(), ctx.Err()
		}
	}
}

// tryBegin starts a fetch of the current ticket unless one is already
// outstanding.
func (s *Store) tryBegin() (*fetch, Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.snapshot.TicketID.IsZero():
		return nil, s.snapshot, ErrNoTicket
	case s.snapshot.Status.Gone:
		return nil, s.snapshot, ErrTicketGone
	case s.inFlight != nil:
		return nil, s.snapshot, ErrRefreshInFlight
	}
	return s.beginLocked(), s.snapshot, nil
}

func (s *Store) beginLocked() *fetch {
	s.lastSeq++
	pending := &fetch{
		seq:      s.lastSeq,
		epoch:    s.epoch,
		ticketID: s.snapshot.TicketID,
		done:     make(chan struct{}),
	}
	s.inFlight = pending
	return pending
}

// run performs the network reads for pending and applies the result.
// Messages are read before the ticket.
func (s *Store) run(ctx context.Context, pending *fetch) (Snapshot, error) {
	var result fetchResult
	result.messages, result.err = s.reader.Messages(ctx, pending.ticketID)
	if result.err == nil {
		result.ticket, result.err = s.reader.Ticket(ctx, pending.ticketID)
	}
	return s.apply(pending, result)
}

// apply is the single writer of the snapshot.
func (s *Store) apply(pending *fetch, result fetchResult) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inFlight == pending {
		s.inFlight = nil
	}
	close(pending.done)

	var fetchErr error
	if result.err != nil {
		fetchErr = &FetchError{TicketID: pending.ticketID, Err: result.err}
	}

	if pending.epoch != s.epoch || pending.seq <= s.appliedSeq {
		s.logger.Debug("discarding stale refresh",
			"ticket_id", pending.ticketID,
			"seq", pending.seq,
			"applied_seq", s.appliedSeq,
			"stale_ticket", pending.epoch != s.epoch,
		)
		return s.snapshot, fetchErr
	}

	if result.err != nil {
		// Cancellation is the caller walking away, not the backend
		// failing; it leaves the status alone.
		if errors.Is(result.err, context.Canceled) {
			return s.snapshot, fetchErr
		}
		s.appliedSeq = pending.seq

		next := s.snapshot
		next.Status.Reconnecting = true
		next.Status.ConsecutiveFailures++
		next.Status.LastError = fetchErr
		if supportapi.IsNotFound(result.err) {
			next.Status.Gone = true
		}
		s.snapshot = next
		s.notifyLocked(next)

		s.logger.Warn("ticket refresh failed",
			"ticket_id", pending.ticketID,
			"seq", pending.seq,
			"consecutive_failures", next.Status.ConsecutiveFailures,
			"gone", next.Status.Gone,
			"error", result.err,
		)
		return next, fetchErr
	}

	s.appliedSeq = pending.seq
	previous := s.snapshot

	fingerprint, err := codec.Digest(struct {
		Ticket   *supportapi.Ticket   `cbor:"ticket"`
		Messages []supportapi.Message `cbor:"messages"`
	}{result.ticket, result.messages})
	if err != nil {
		// A digest failure only costs change detection.
		s.logger.Error("computing snapshot fingerprint", "error", err)
	}

	next := Snapshot{
		TicketID:    pending.ticketID,
		Ticket:      result.ticket,
		Messages:    result.messages,
		Status:      SyncStatus{Loaded: true},
		Seq:         pending.seq,
		Fingerprint: fingerprint,
		FetchedAt:   s.clock.Now(),
	}
	s.snapshot = next

	if previous.Status.Reconnecting {
		s.logger.Info("ticket refresh recovered",
			"ticket_id", pending.ticketID,
			"after_failures", previous.Status.ConsecutiveFailures,
		)
	}
	if fingerprint.IsZero() || fingerprint != previous.Fingerprint || previous.Status != next.Status {
		s.notifyLocked(next)
	}
	return next, nil
}

// Subscribe returns a channel receiving each published snapshot and a
// function that ends the subscription. The channel holds only the
// latest snapshot: a slow reader skips intermediate ones.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	channel := make(chan Snapshot, 1)

	s.mu.Lock()
	s.subscribers[channel] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	return channel, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, channel)
			s.mu.Unlock()
		})
	}
}

func (s *Store) notifyLocked(snapshot Snapshot) {
	for channel := range s.subscribers {
		select {
		case <-channel:
		default:
		}
		channel <- snapshot
	}
}
