// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"fmt"
	"time"

	"github.com/bureau-foundation/supportchat/supportapi"
)

// Role is the viewer's side of the conversation.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleSupport  Role = "support"
)

// ParseRole accepts "customer" or "support".
func ParseRole(value string) (Role, error) {
	switch Role(value) {
	case RoleCustomer, RoleSupport:
		return Role(value), nil
	}
	return "", fmt.Errorf("chat: unknown role %q (want customer or support)", value)
}

// Viewer identifies who is using the session.
type Viewer struct {
	Role Role

	// AgentID is the support agent's ID. Unused for customers.
	AgentID supportapi.ID

	// CompanyID overrides the ticket's company when fetching the
	// prompt template. Usually empty.
	CompanyID supportapi.ID
}

// AuthorID is the ID written as a message's author.
func (viewer Viewer) AuthorID() supportapi.ID {
	if viewer.Role == RoleSupport {
		return viewer.AgentID
	}
	return supportapi.CustomerAuthor
}

// companyFor picks the tenant whose modelfile shapes AI replies.
func (viewer Viewer) companyFor(ticket *supportapi.Ticket) supportapi.ID {
	if !viewer.CompanyID.IsZero() || ticket == nil {
		return viewer.CompanyID
	}
	return ticket.CompanyID
}

// View is everything a front end needs to draw the session. Values are
// copies; Messages must not be modified.
type View struct {
	Viewer Viewer

	// TicketID is the observed ticket, set before the first fetch
	// completes. Ticket is nil until then.
	TicketID supportapi.ID
	Ticket   *supportapi.Ticket
	Messages []supportapi.Message

	// UpdatedAt is when the ticket was last fetched successfully.
	UpdatedAt time.Time

	PendingInput string

	// RatingSelection is the customer's chosen star count, 0 if none.
	RatingSelection int

	Generating bool
	Status     SyncStatus
}

// Resolved reports whether the ticket is known to be resolved.
func (view View) Resolved() bool {
	return view.Ticket != nil && view.Ticket.Resolved
}

// InputEnabled reports whether the input surface accepts submissions.
func (view View) InputEnabled() bool {
	return view.Ticket != nil && !view.Ticket.Resolved && !view.Generating && !view.Status.Gone
}

// InputPlaceholder is the hint shown in an empty input.
func (view View) InputPlaceholder() string {
	switch {
	case view.Status.Gone:
		return "This ticket no longer exists"
	case view.Resolved():
		return "This ticket is resolved"
	case view.Generating:
		return "Generating AI-response.."
	case view.Viewer.Role == RoleSupport:
		return "'>' for AI.. | Write message.."
	default:
		return "Write message.."
	}
}

// RatingAvailable reports whether the feedback prompt should be shown.
func (view View) RatingAvailable() bool {
	return view.Viewer.Role == RoleCustomer && view.Resolved()
}

// AuthorLabel names a message's author from the viewer's side of the
// conversation: "You" for the viewer's own messages, the customer's
// name when a support agent is viewing.
func (view View) AuthorLabel(message *supportapi.Message) string {
	switch message.Kind() {
	case supportapi.KindAI:
		return "AI"
	case supportapi.KindSupport:
		if view.Viewer.Role == RoleSupport && message.AuthorID == view.Viewer.AgentID {
			return "You"
		}
		return "Support"
	default:
		return view.customerLabel()
	}
}

// OpeningLabel labels the ticket's opening message, which the
// customer wrote when filing it.
func (view View) OpeningLabel() string {
	return view.customerLabel()
}

func (view View) customerLabel() string {
	if view.Viewer.Role == RoleCustomer {
		return "You"
	}
	if view.Ticket != nil {
		if name := view.Ticket.CustomerName(); name != "" {
			return name
		}
	}
	return "Customer"
}

// Greeting returns the canned lines shown above every thread: a welcome
// addressed to the customer and a follow-up chosen by the ticket's
// subject.
func Greeting(ticket *supportapi.Ticket) []string {
	if ticket == nil {
		return nil
	}
	welcome := "Welcome!"
	if name := ticket.CustomerName(); name != "" {
		welcome = "Welcome " + name + "!"
	}
	followUp := "To help us assist you better, could you please specify the service-related " +
		"issue or provide any relevant details?"
	if ticket.IsProductInquiry() {
		followUp = "To proceed, please specify the product ID or any specific details " +
			"related to the product you're inquiring about."
	}
	return []string{
		welcome + " Thank you for providing your details. We're reviewing your information now..",
		followUp,
	}
}
