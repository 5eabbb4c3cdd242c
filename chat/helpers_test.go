// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/supportchat/lib/llm"
	"github.com/bureau-foundation/supportchat/supportapi"
	"github.com/bureau-foundation/supportchat/supportapi/supportapitest"
)

const testTimeout = 5 * time.Second

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// eventually polls condition until it holds or testTimeout elapses.
func eventually(t *testing.T, condition func() bool, description string) {
	t.Helper()
	deadline := time.Now().Add(testTimeout)
	for !condition() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", description)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

// openTicket is the backend state most tests start from.
func openTicket(id supportapi.ID) supportapi.Ticket {
	return supportapi.Ticket{
		ID:                id,
		CompanyID:         "3",
		CompanyName:       "Acme",
		Subject:           supportapi.SubjectProduct,
		Message:           "my order never arrived",
		CustomerFirstName: "Ada",
		CustomerLastName:  "Lovelace",
	}
}

func newBackend(t *testing.T, tickets ...supportapi.Ticket) (*supportapitest.Backend, *supportapi.Client) {
	t.Helper()
	backend := supportapitest.New(t)
	for _, ticket := range tickets {
		backend.PutTicket(ticket)
	}
	return backend, backend.Client(t)
}

func newLoadedStore(t *testing.T, client *supportapi.Client, ticketID supportapi.ID) *Store {
	t.Helper()
	store := NewStore(StoreConfig{Reader: client, Logger: discardLogger()})
	if _, err := store.Load(context.Background(), ticketID); err != nil {
		t.Fatalf("Load(%s): %v", ticketID, err)
	}
	return store
}

// fakeGenerator answers every request with reply or err. If block is
// non-nil, Generate waits on it (or ctx) first.
type fakeGenerator struct {
	reply string
	err   error
	block chan struct{}

	mu       sync.Mutex
	requests []llm.Request
}

func (g *fakeGenerator) Generate(ctx context.Context, request llm.Request) (*llm.Generation, error) {
	g.mu.Lock()
	g.requests = append(g.requests, request)
	g.mu.Unlock()

	if g.block != nil {
		select {
		case <-g.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if g.err != nil {
		return nil, g.err
	}
	return &llm.Generation{Text: g.reply, Model: "fake"}, nil
}

func (g *fakeGenerator) Requests() []llm.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]llm.Request(nil), g.requests...)
}
