// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"strings"
	"testing"

	"github.com/bureau-foundation/supportchat/supportapi"
)

func TestInputPlaceholder(t *testing.T) {
	open := &supportapi.Ticket{ID: "1"}
	resolved := &supportapi.Ticket{ID: "1", Resolved: true}

	tests := []struct {
		name        string
		view        View
		want        string
		wantEnabled bool
	}{
		{"support idle", View{Viewer: Viewer{Role: RoleSupport}, Ticket: open}, "'>' for AI.. | Write message..", true},
		{"customer idle", View{Viewer: Viewer{Role: RoleCustomer}, Ticket: open}, "Write message..", true},
		{"generating", View{Viewer: Viewer{Role: RoleSupport}, Ticket: open, Generating: true}, "Generating AI-response..", false},
		{"resolved", View{Viewer: Viewer{Role: RoleCustomer}, Ticket: resolved}, "This ticket is resolved", false},
		{"gone", View{Viewer: Viewer{Role: RoleCustomer}, Ticket: open, Status: SyncStatus{Gone: true}}, "This ticket no longer exists", false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.view.InputPlaceholder(); got != test.want {
				t.Errorf("InputPlaceholder = %q, want %q", got, test.want)
			}
			if got := test.view.InputEnabled(); got != test.wantEnabled {
				t.Errorf("InputEnabled = %v, want %v", got, test.wantEnabled)
			}
		})
	}
}

func TestRatingAvailable(t *testing.T) {
	resolved := &supportapi.Ticket{ID: "1", Resolved: true}
	if !(View{Viewer: Viewer{Role: RoleCustomer}, Ticket: resolved}).RatingAvailable() {
		t.Error("customer on resolved ticket should see rating")
	}
	if (View{Viewer: Viewer{Role: RoleSupport}, Ticket: resolved}).RatingAvailable() {
		t.Error("support should never see rating")
	}
	if (View{Viewer: Viewer{Role: RoleCustomer}, Ticket: &supportapi.Ticket{ID: "1"}}).RatingAvailable() {
		t.Error("open ticket should not show rating")
	}
}

func TestAuthorLabel(t *testing.T) {
	ticket := openTicket("12")
	customerView := View{Viewer: Viewer{Role: RoleCustomer}, Ticket: &ticket}
	agentView := View{Viewer: Viewer{Role: RoleSupport, AgentID: "4"}, Ticket: &ticket}
	anonymous := View{Viewer: Viewer{Role: RoleSupport, AgentID: "4"}, Ticket: &supportapi.Ticket{ID: "12"}}

	fromCustomer := supportapi.Message{AuthorID: supportapi.CustomerAuthor}
	fromAgent := supportapi.Message{AuthorID: "4", FromSupport: true}
	fromColleague := supportapi.Message{AuthorID: "9", FromSupport: true}
	fromAI := supportapi.Message{AuthorID: "4", FromSupport: true, FromAI: true}

	tests := []struct {
		name    string
		view    View
		message supportapi.Message
		want    string
	}{
		{"customer sees self", customerView, fromCustomer, "You"},
		{"customer sees agent", customerView, fromAgent, "Support"},
		{"customer sees AI", customerView, fromAI, "AI"},
		{"agent sees customer", agentView, fromCustomer, "Ada Lovelace"},
		{"agent sees self", agentView, fromAgent, "You"},
		{"agent sees colleague", agentView, fromColleague, "Support"},
		{"agent sees AI", agentView, fromAI, "AI"},
		{"unnamed customer", anonymous, fromCustomer, "Customer"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.view.AuthorLabel(&test.message); got != test.want {
				t.Errorf("AuthorLabel = %q, want %q", got, test.want)
			}
		})
	}

	if got := agentView.OpeningLabel(); got != "Ada Lovelace" {
		t.Errorf("OpeningLabel = %q", got)
	}
}

func TestGreeting(t *testing.T) {
	product := openTicket("1")
	lines := Greeting(&product)
	if len(lines) != 2 {
		t.Fatalf("%d lines, want 2", len(lines))
	}
	if !strings.HasPrefix(lines[0], "Welcome Ada Lovelace!") {
		t.Errorf("welcome = %q", lines[0])
	}
	if !strings.Contains(lines[1], "product ID") {
		t.Errorf("product follow-up = %q", lines[1])
	}

	service := supportapi.Ticket{ID: "2", Subject: "billing"}
	lines = Greeting(&service)
	if !strings.HasPrefix(lines[0], "Welcome!") || !strings.Contains(lines[1], "service-related") {
		t.Errorf("service greeting = %q", lines)
	}

	if Greeting(nil) != nil {
		t.Error("Greeting(nil) should be empty")
	}
}

func TestViewerCompany(t *testing.T) {
	ticket := &supportapi.Ticket{ID: "1", CompanyID: "3"}
	if got := (Viewer{Role: RoleSupport}).companyFor(ticket); got != "3" {
		t.Errorf("companyFor = %s, want ticket company", got)
	}
	if got := (Viewer{Role: RoleSupport, CompanyID: "8"}).companyFor(ticket); got != "8" {
		t.Errorf("companyFor = %s, want viewer override", got)
	}
}

func TestParseRole(t *testing.T) {
	if role, err := ParseRole("support"); err != nil || role != RoleSupport {
		t.Errorf("ParseRole(support) = %q, %v", role, err)
	}
	if _, err := ParseRole("admin"); err == nil {
		t.Error("ParseRole(admin) should fail")
	}
}
