// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package supportapitest provides an in-memory support backend for
// tests. It serves the same routes as the real backend over an
// httptest.Server and lets tests inject failures, hold individual
// requests open, and inspect what was written.
//
//	backend := supportapitest.New(t)
//	backend.PutTicket(supportapi.Ticket{ID: "7", CompanyID: "1"})
//	client := backend.Client(t)
package supportapitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/bureau-foundation/supportchat/supportapi"
)

// Route names one backend endpoint.
type Route string

const (
	RouteTicket      Route = "GET ticket"
	RouteMessages    Route = "GET messages"
	RouteModelfile   Route = "GET modelfile"
	RoutePostMessage Route = "POST message"
	RoutePostRating  Route = "POST rating"
)

// Backend is a fake support backend. All methods are safe for
// concurrent use.
type Backend struct {
	server *httptest.Server

	mu         sync.Mutex
	tickets    map[supportapi.ID]supportapi.Ticket
	messages   map[supportapi.ID][]supportapi.Message
	modelfiles map[supportapi.ID]string
	ratings    map[supportapi.ID][]int
	posted     []supportapi.NewMessage
	failures   map[Route]int
	holds      map[Route][]*Hold
	allHolds   []*Hold
	calls      map[Route]int
	active     map[Route]int
	maxActive  map[Route]int
	requestIDs []string
	lastID     int
}

// New starts a Backend; it is shut down when the test ends.
func New(t testing.TB) *Backend {
	t.Helper()

	backend := &Backend{
		tickets:    make(map[supportapi.ID]supportapi.Ticket),
		messages:   make(map[supportapi.ID][]supportapi.Message),
		modelfiles: make(map[supportapi.ID]string),
		ratings:    make(map[supportapi.ID][]int),
		failures:   make(map[Route]int),
		holds:      make(map[Route][]*Hold),
		calls:      make(map[Route]int),
		active:     make(map[Route]int),
		maxActive:  make(map[Route]int),
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.Recoverer)
	router.Get("/api/tickets/{id}/single", backend.instrument(RouteTicket, backend.getTicket))
	router.Get("/api/messages/{id}", backend.instrument(RouteMessages, backend.getMessages))
	router.Get("/api/ai/{companyID}", backend.instrument(RouteModelfile, backend.getModelfile))
	router.Post("/api/messages/{id}", backend.instrument(RoutePostMessage, backend.postMessage))
	router.Post("/api/ratings/{id}", backend.instrument(RoutePostRating, backend.postRating))

	backend.server = httptest.NewServer(router)
	t.Cleanup(func() {
		// Close waits for active requests; unblock any still held.
		backend.mu.Lock()
		holds := backend.allHolds
		backend.mu.Unlock()
		for _, hold := range holds {
			hold.Release()
		}
		backend.server.Close()
	})
	return backend
}

// URL returns the backend's base URL.
func (b *Backend) URL() string { return b.server.URL }

// Client returns a supportapi.Client pointed at the backend.
func (b *Backend) Client(t testing.TB) *supportapi.Client {
	t.Helper()
	client, err := supportapi.NewClient(supportapi.ClientConfig{
		BaseURL:    b.server.URL,
		HTTPClient: b.server.Client(),
	})
	if err != nil {
		t.Fatalf("creating supportapi client: %v", err)
	}
	return client
}

// PutTicket creates or replaces a ticket.
func (b *Backend) PutTicket(ticket supportapi.Ticket) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tickets[ticket.ID] = ticket
	if _, ok := b.messages[ticket.ID]; !ok {
		b.messages[ticket.ID] = []supportapi.Message{}
	}
}

// Resolve marks a ticket resolved, as an agent would.
func (b *Backend) Resolve(ticketID supportapi.ID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ticket := b.tickets[ticketID]
	ticket.Resolved = true
	b.tickets[ticketID] = ticket
}

// DeleteTicket removes a ticket; subsequent fetches return 404.
func (b *Backend) DeleteTicket(ticketID supportapi.ID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.tickets, ticketID)
	delete(b.messages, ticketID)
}

// AppendMessage adds a message as if another participant wrote it. A
// message without an ID gets the next one, counting from 1001 so
// generated IDs stay clear of small IDs chosen by tests.
func (b *Backend) AppendMessage(message supportapi.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.appendLocked(message)
}

func (b *Backend) appendLocked(message supportapi.Message) {
	if message.ID.IsZero() {
		b.lastID++
		message.ID = supportapi.ID(strconv.Itoa(1000 + b.lastID))
	}
	b.messages[message.TicketID] = append(b.messages[message.TicketID], message)
}

// SetModelfile sets a tenant's prompt template.
func (b *Backend) SetModelfile(companyID supportapi.ID, modelfile string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.modelfiles[companyID] = modelfile
}

// Fail makes every request to route answer with status until Fail is
// called again with status 0.
func (b *Backend) Fail(route Route, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if status == 0 {
		delete(b.failures, route)
		return
	}
	b.failures[route] = status
}

// Hold is a single request parked before it is served.
type Hold struct {
	arrived  chan struct{}
	released chan struct{}
	once     sync.Once
}

// Arrived is closed once the held request has reached the backend.
func (h *Hold) Arrived() <-chan struct{} { return h.arrived }

// Release lets the held request proceed. The response reflects the
// backend state at release time.
func (h *Hold) Release() { h.once.Do(func() { close(h.released) }) }

// HoldNext parks the next request to route until the returned Hold is
// released (or the client gives up). Later requests are unaffected.
func (b *Backend) HoldNext(route Route) *Hold {
	hold := &Hold{arrived: make(chan struct{}), released: make(chan struct{})}
	b.mu.Lock()
	b.holds[route] = append(b.holds[route], hold)
	b.allHolds = append(b.allHolds, hold)
	b.mu.Unlock()
	return hold
}

// Calls returns how many requests route has received.
func (b *Backend) Calls(route Route) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[route]
}

// MaxConcurrent returns the largest number of simultaneously active
// requests route has seen.
func (b *Backend) MaxConcurrent(route Route) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.maxActive[route]
}

// Posted returns every message write body received, in order.
func (b *Backend) Posted() []supportapi.NewMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]supportapi.NewMessage(nil), b.posted...)
}

// Ratings returns the ratings recorded for a ticket, in order.
func (b *Backend) Ratings(ticketID supportapi.ID) []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]int(nil), b.ratings[ticketID]...)
}

// RequestIDs returns the X-Request-ID of every request received.
func (b *Backend) RequestIDs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.requestIDs...)
}

// instrument counts calls, applies holds and injected failures, then
// runs handler.
func (b *Backend) instrument(route Route, handler http.HandlerFunc) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		b.mu.Lock()
		b.calls[route]++
		b.active[route]++
		if b.active[route] > b.maxActive[route] {
			b.maxActive[route] = b.active[route]
		}
		b.requestIDs = append(b.requestIDs, request.Header.Get("X-Request-ID"))
		var hold *Hold
		if queue := b.holds[route]; len(queue) > 0 {
			hold, b.holds[route] = queue[0], queue[1:]
		}
		b.mu.Unlock()

		defer func() {
			b.mu.Lock()
			b.active[route]--
			b.mu.Unlock()
		}()

		if hold != nil {
			close(hold.arrived)
			select {
			case <-hold.released:
			case <-request.Context().Done():
				return
			}
		}

		b.mu.Lock()
		status := b.failures[route]
		b.mu.Unlock()
		if status != 0 {
			writeJSON(writer, status, map[string]string{"error": http.StatusText(status)})
			return
		}

		handler(writer, request)
	}
}

func (b *Backend) getTicket(writer http.ResponseWriter, request *http.Request) {
	ticketID := supportapi.ID(chi.URLParam(request, "id"))

	b.mu.Lock()
	ticket, ok := b.tickets[ticketID]
	b.mu.Unlock()

	if !ok {
		writeJSON(writer, http.StatusNotFound, map[string]string{"error": "ticket not found"})
		return
	}
	writeJSON(writer, http.StatusOK, ticket)
}

func (b *Backend) getMessages(writer http.ResponseWriter, request *http.Request) {
	ticketID := supportapi.ID(chi.URLParam(request, "id"))

	b.mu.Lock()
	messages, ok := b.messages[ticketID]
	messages = append([]supportapi.Message(nil), messages...)
	b.mu.Unlock()

	if !ok {
		writeJSON(writer, http.StatusNotFound, map[string]string{"error": "ticket not found"})
		return
	}
	if messages == nil {
		messages = []supportapi.Message{}
	}
	writeJSON(writer, http.StatusOK, messages)
}

func (b *Backend) getModelfile(writer http.ResponseWriter, request *http.Request) {
	companyID := supportapi.ID(chi.URLParam(request, "companyID"))

	b.mu.Lock()
	modelfile, ok := b.modelfiles[companyID]
	b.mu.Unlock()

	if !ok {
		writeJSON(writer, http.StatusNotFound, map[string]string{"error": "no modelfile for company"})
		return
	}
	writeJSON(writer, http.StatusOK, map[string]string{"modelfile": modelfile})
}

func (b *Backend) postMessage(writer http.ResponseWriter, request *http.Request) {
	ticketID := supportapi.ID(chi.URLParam(request, "id"))

	var body supportapi.NewMessage
	if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
		writeJSON(writer, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.tickets[ticketID]; !ok {
		writeJSON(writer, http.StatusNotFound, map[string]string{"error": "ticket not found"})
		return
	}
	b.posted = append(b.posted, body)
	b.appendLocked(supportapi.Message{
		TicketID:    ticketID,
		AuthorID:    body.AuthorID,
		Text:        body.Text,
		FromSupport: body.FromSupport,
		FromAI:      body.FromAI,
	})
	writeJSON(writer, http.StatusCreated, map[string]string{"status": "ok"})
}

func (b *Backend) postRating(writer http.ResponseWriter, request *http.Request) {
	ticketID := supportapi.ID(chi.URLParam(request, "id"))

	var body struct {
		Rating   int           `json:"rating"`
		TicketID supportapi.ID `json:"ticket_id"`
	}
	if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
		writeJSON(writer, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	ticket, ok := b.tickets[ticketID]
	if !ok {
		writeJSON(writer, http.StatusNotFound, map[string]string{"error": "ticket not found"})
		return
	}
	b.ratings[ticketID] = append(b.ratings[ticketID], body.Rating)
	rating := body.Rating
	ticket.Rating = &rating
	b.tickets[ticketID] = ticket
	writeJSON(writer, http.StatusCreated, map[string]string{"status": "ok"})
}

func writeJSON(writer http.ResponseWriter, status int, value any) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	json.NewEncoder(writer).Encode(value)
}
