// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package supportapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID is an opaque backend identifier. It decodes from JSON strings or
// numbers and encodes numeric-looking IDs back as numbers, which is
// what the backend's integer columns expect.
type ID string

// CustomerAuthor is the author ID the backend records for messages
// written by the (unauthenticated) customer.
const CustomerAuthor ID = "0"

// String returns the ID as text.
func (id ID) String() string { return string(id) }

// IsZero reports whether the ID is empty.
func (id ID) IsZero() bool { return id == "" }

// isNumeric reports whether the ID round-trips through an int64, so
// "42" is numeric and "042" is not.
func (id ID) isNumeric() bool {
	number, err := strconv.ParseInt(string(id), 10, 64)
	return err == nil && strconv.FormatInt(number, 10) == string(id)
}

// MarshalJSON encodes numeric IDs as JSON numbers, others as strings.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.isNumeric() {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON accepts a JSON string, number, or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*id = ID(text)
		return nil
	default:
		var number json.Number
		if err := json.Unmarshal(data, &number); err != nil {
			return fmt.Errorf("supportapi: ID must be a string or number, got %s", data)
		}
		*id = ID(number.String())
		return nil
	}
}

// MarshalText lets IDs encode as text in CBOR and map keys.
func (id ID) MarshalText() ([]byte, error) { return []byte(id), nil }

// UnmarshalText is the inverse of MarshalText.
func (id *ID) UnmarshalText(text []byte) error {
	*id = ID(text)
	return nil
}

// Ticket is one support conversation.
type Ticket struct {
	ID          ID     `json:"id" cbor:"id"`
	CompanyID   ID     `json:"company_id" cbor:"company_id"`
	CompanyName string `json:"company_name" cbor:"company_name"`

	// Subject selects the canned follow-up prompt; "product" is the
	// only value with special meaning.
	Subject string `json:"subject" cbor:"subject"`

	// Message is the customer's original inquiry.
	Message string `json:"message" cbor:"message"`

	CustomerFirstName string `json:"firstname" cbor:"firstname"`
	CustomerLastName  string `json:"lastname" cbor:"lastname"`

	// Resolved is terminal: once set, no message may be submitted.
	Resolved bool `json:"resolved" cbor:"resolved"`

	// Rating is the customer's 1-5 score, nil until rated.
	Rating *int `json:"rating,omitempty" cbor:"rating,omitempty"`
}

// SubjectProduct marks product inquiries.
const SubjectProduct = "product"

// IsProductInquiry reports whether the ticket is about a product as
// opposed to a service.
func (ticket *Ticket) IsProductInquiry() bool {
	return ticket.Subject == SubjectProduct
}

// CustomerName returns "First Last", trimmed when either is empty.
func (ticket *Ticket) CustomerName() string {
	switch {
	case ticket.CustomerFirstName == "":
		return ticket.CustomerLastName
	case ticket.CustomerLastName == "":
		return ticket.CustomerFirstName
	}
	return ticket.CustomerFirstName + " " + ticket.CustomerLastName
}

// Message is one entry in a ticket's thread.
type Message struct {
	ID       ID `json:"id,omitempty" cbor:"id,omitempty"`
	TicketID ID `json:"ticket_id" cbor:"ticket_id"`

	// AuthorID is the support agent, or CustomerAuthor.
	AuthorID ID `json:"support_id" cbor:"support_id"`

	Text string `json:"message" cbor:"message"`

	// FromSupport is true for agent-authored messages, including AI
	// replies the agent triggered.
	FromSupport bool `json:"from_support" cbor:"from_support"`

	// FromAI is true only when Text came from a generation.
	FromAI bool `json:"from_ai" cbor:"from_ai"`
}

// MessageKind classifies a message for display.
type MessageKind string

const (
	KindAI       MessageKind = "ai"
	KindSupport  MessageKind = "support"
	KindCustomer MessageKind = "customer"
)

// Kind returns how the message should be presented. AI takes
// precedence over support.
func (message *Message) Kind() MessageKind {
	switch {
	case message.FromAI:
		return KindAI
	case message.FromSupport:
		return KindSupport
	default:
		return KindCustomer
	}
}

// NewMessage is the body of POST /api/messages/{ticketId}. The
// backend's write path spells the AI flag "from_AI".
type NewMessage struct {
	TicketID    ID     `json:"ticket_id"`
	AuthorID    ID     `json:"support_id"`
	Text        string `json:"message"`
	FromSupport bool   `json:"from_support"`
	FromAI      bool   `json:"from_AI"`
}

// newRating is the body of POST /api/ratings/{ticketId}.
type newRating struct {
	Rating   int `json:"rating"`
	TicketID ID  `json:"ticket_id"`
}

// modelfileResponse is the body of GET /api/ai/{companyId}.
type modelfileResponse struct {
	Modelfile string `json:"modelfile"`
}
