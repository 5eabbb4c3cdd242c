// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bureau-foundation/supportchat/lib/clock"
	"github.com/bureau-foundation/supportchat/lib/llm"
	"github.com/bureau-foundation/supportchat/supportapi"
)

// Backend is everything a Session needs from the support backend.
// *supportapi.Client implements it.
type Backend interface {
	TicketReader
	ModelfileSource
	MessageWriter
	RatingWriter
}

// SessionConfig configures a Session.
type SessionConfig struct {
	Backend Backend
	Viewer  Viewer

	// Generator produces AI replies. If nil, '>' prompts are sent as
	// plain messages.
	Generator llm.Generator

	// Model is passed to Generator; empty uses the generator default.
	Model string

	GenerationTimeout time.Duration
	PollInterval      time.Duration

	// Grammar overrides DefaultGrammar.
	Grammar *Grammar

	Clock  clock.Clock
	Logger *slog.Logger
}

// SessionStats aggregates counters across ticket activations.
type SessionStats struct {
	Poll     PollerStats
	Dispatch DispatcherStats
	Submit   SubmitterStats
	Status   SyncStatus
}

// Session is one viewer's chat over a sequence of tickets. It owns the
// store, the poller for the current ticket, and the view state
// (pending input, generating flag, rating selection).
type Session struct {
	viewer       Viewer
	clock        clock.Clock
	pollInterval time.Duration
	logger       *slog.Logger

	store      *Store
	dispatcher *Dispatcher
	submitter  *Submitter
	ratings    *RatingCollector

	// ctx lives until Close and parents every poller.
	ctx    context.Context
	cancel context.CancelFunc

	// lifecycleMu serializes Open and Close.
	lifecycleMu sync.Mutex
	poller      *Poller
	pollTotals  PollerStats

	mu           sync.Mutex
	pendingInput string
	generating   bool
	closed       bool
	subscribers  map[chan View]struct{}

	unsubscribeStore func()
	forwarderDone    chan struct{}
}

// NewSession wires a Session. Call Open to start observing a ticket
// and Close when done.
func NewSession(config SessionConfig) (*Session, error) {
	if config.Backend == nil {
		return nil, fmt.Errorf("chat: Backend is required")
	}
	if config.Viewer.Role != RoleCustomer && config.Viewer.Role != RoleSupport {
		return nil, fmt.Errorf("chat: invalid viewer role %q", config.Viewer.Role)
	}
	if config.Viewer.Role == RoleSupport && config.Viewer.AgentID.IsZero() {
		return nil, fmt.Errorf("chat: support viewers need an agent ID")
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	logger := config.Logger.With("role", string(config.Viewer.Role))

	store := NewStore(StoreConfig{Reader: config.Backend, Clock: config.Clock, Logger: logger})

	var gateway *Gateway
	if config.Generator != nil {
		gateway = NewGateway(GatewayConfig{
			Modelfiles: config.Backend,
			Generator:  config.Generator,
			Model:      config.Model,
			Timeout:    config.GenerationTimeout,
			Logger:     logger,
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	session := &Session{
		viewer:        config.Viewer,
		clock:         config.Clock,
		pollInterval:  config.PollInterval,
		logger:        logger,
		store:         store,
		dispatcher:    NewDispatcher(config.Grammar, gateway, logger),
		submitter:     NewSubmitter(config.Backend, store, logger),
		ctx:           ctx,
		cancel:        cancel,
		subscribers:   make(map[chan View]struct{}),
		forwarderDone: make(chan struct{}),
	}
	session.ratings = NewRatingCollector(config.Backend, store, logger, session.publish)

	updates, unsubscribe := store.Subscribe()
	session.unsubscribeStore = unsubscribe
	go session.forward(updates)

	return session, nil
}

// forward republishes store snapshots as views until Close.
func (s *Session) forward(updates <-chan Snapshot) {
	defer close(s.forwarderDone)
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-updates:
			s.publish()
		}
	}
}

// Open starts observing ticketID: the ticket is loaded and a poller is
// started for it. Any previous ticket's poller is stopped first and
// the rating selection is cleared. A load failure is returned, but
// polling still starts unless the ticket is gone, so a backend outage
// heals on its own.
func (s *Session) Open(ctx context.Context, ticketID supportapi.ID) (View, error) {
	if ticketID.IsZero() {
		return s.View(), fmt.Errorf("chat: ticket ID is required")
	}

	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if s.isClosed() {
		return s.View(), ErrClosed
	}

	s.stopPollerLocked()
	if s.store.Snapshot().TicketID != ticketID {
		s.ratings.Reset()
		s.mu.Lock()
		s.pendingInput = ""
		s.mu.Unlock()
	}

	snapshot, err := s.store.Load(ctx, ticketID)
	if snapshot.Status.Gone {
		return s.View(), fmt.Errorf("%w: %w", ErrTicketGone, err)
	}

	s.poller = NewPoller(s.store, PollerConfig{
		Clock:    s.clock,
		Interval: s.pollInterval,
		Logger:   s.logger,
	})
	s.poller.Start(s.ctx)

	s.logger.Info("ticket opened", "ticket_id", ticketID, "loaded", err == nil)
	return s.View(), err
}

// SwitchTicket is Open for a session already observing a ticket.
func (s *Session) SwitchTicket(ctx context.Context, ticketID supportapi.ID) (View, error) {
	return s.Open(ctx, ticketID)
}

// Close stops polling and ends all subscriptions. In-flight refresh
// results are discarded. Safe to call more than once.
func (s *Session) Close() {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.stopPollerLocked()
	s.cancel()
	s.unsubscribeStore()
	<-s.forwarderDone

	s.mu.Lock()
	for channel := range s.subscribers {
		close(channel)
		delete(s.subscribers, channel)
	}
	s.mu.Unlock()
}

func (s *Session) stopPollerLocked() {
	if s.poller == nil {
		return
	}
	s.poller.Stop()
	s.pollTotals = s.pollTotals.Add(s.poller.Stats())
	s.poller = nil
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// SetInput records the text currently in the input surface.
func (s *Session) SetInput(text string) {
	s.mu.Lock()
	s.pendingInput = text
	s.mu.Unlock()
	s.publish()
}

// Submit sends text to the observed ticket. It fails with
// ErrInvalidState if the ticket is resolved or an AI reply is already
// generating, and with ErrEmptyMessage for blank input; in those cases
// nothing is written. For AI prompts the generating flag is set for
// the duration of the generation and cleared however it ends. If the
// write fails the text is put back into the pending input.
func (s *Session) Submit(ctx context.Context, text string) (*Outgoing, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	if s.generating {
		s.mu.Unlock()
		return nil, invalidState(ErrGenerating)
	}

	snapshot := s.store.Snapshot()
	switch {
	case snapshot.TicketID.IsZero() || snapshot.Ticket == nil:
		s.mu.Unlock()
		return nil, ErrNoTicket
	case snapshot.Status.Gone:
		s.mu.Unlock()
		return nil, ErrTicketGone
	case snapshot.Ticket.Resolved:
		s.mu.Unlock()
		return nil, invalidState(ErrTicketResolved)
	case strings.TrimSpace(text) == "":
		s.mu.Unlock()
		return nil, ErrEmptyMessage
	}

	command := s.dispatcher.Route(s.viewer, text)
	if command.Kind == CommandAIPrompt {
		s.generating = true
	}
	s.pendingInput = ""
	s.mu.Unlock()
	s.publish()

	outgoing, err := s.compose(ctx, command, s.viewer.companyFor(snapshot.Ticket))
	if err != nil {
		s.restoreInput(text)
		return nil, err
	}

	if _, err := s.submitter.Submit(ctx, s.viewer, outgoing); err != nil {
		s.restoreInput(text)
		return nil, err
	}
	return &outgoing, nil
}

// compose runs the dispatcher and clears the generating flag on every
// exit path.
func (s *Session) compose(ctx context.Context, command Command, companyID supportapi.ID) (Outgoing, error) {
	if command.Kind == CommandAIPrompt {
		defer func() {
			s.mu.Lock()
			s.generating = false
			s.mu.Unlock()
			s.publish()
		}()
	}
	return s.dispatcher.Compose(ctx, command, companyID)
}

// restoreInput puts text back unless the user has typed something new.
func (s *Session) restoreInput(text string) {
	s.mu.Lock()
	if s.pendingInput == "" {
		s.pendingInput = text
	}
	s.mu.Unlock()
	s.publish()
}

// Rate records the customer's 1-5 rating for the resolved ticket.
func (s *Session) Rate(ctx context.Context, stars int) error {
	if s.isClosed() {
		return ErrClosed
	}
	return s.ratings.Rate(ctx, s.viewer, stars)
}

// Refresh fetches the observed ticket now, waiting for any refresh
// already in flight.
func (s *Session) Refresh(ctx context.Context) (View, error) {
	if s.isClosed() {
		return s.View(), ErrClosed
	}
	_, err := s.store.RefreshAfterWrite(ctx)
	return s.View(), err
}

// View returns the current view.
func (s *Session) View() View {
	snapshot := s.store.Snapshot()
	selection := s.ratings.Selection()

	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		Viewer:          s.viewer,
		TicketID:        snapshot.TicketID,
		Ticket:          snapshot.Ticket,
		Messages:        snapshot.Messages,
		UpdatedAt:       snapshot.FetchedAt,
		PendingInput:    s.pendingInput,
		RatingSelection: selection,
		Generating:      s.generating,
		Status:          snapshot.Status,
	}
}

// Snapshot returns the store's current snapshot.
func (s *Session) Snapshot() Snapshot { return s.store.Snapshot() }

// Subscribe returns a channel receiving the view after every change
// and a function ending the subscription. Only the latest view is
// buffered. The channel is closed by Close.
func (s *Session) Subscribe() (<-chan View, func()) {
	channel := make(chan View, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(channel)
		return channel, func() {}
	}
	s.subscribers[channel] = struct{}{}
	s.mu.Unlock()

	return channel, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subscribers[channel]; ok {
			delete(s.subscribers, channel)
			close(channel)
		}
	}
}

func (s *Session) publish() {
	view := s.View()

	s.mu.Lock()
	defer s.mu.Unlock()
	for channel := range s.subscribers {
		select {
		case <-channel:
		default:
		}
		channel <- view
	}
}

// Stats returns counters aggregated over every ticket this session
// has observed.
func (s *Session) Stats() SessionStats {
	s.lifecycleMu.Lock()
	poll := s.pollTotals
	if s.poller != nil {
		poll = poll.Add(s.poller.Stats())
	}
	s.lifecycleMu.Unlock()

	return SessionStats{
		Poll:     poll,
		Dispatch: s.dispatcher.Stats(),
		Submit:   s.submitter.Stats(),
		Status:   s.store.Status(),
	}
}

// IsInvalidState reports whether err is an ErrInvalidState rejection.
func IsInvalidState(err error) bool { return errors.Is(err, ErrInvalidState) }
