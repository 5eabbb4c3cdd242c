// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package supportapi

import (
	"encoding/json"
	"testing"
)

func TestIDUnmarshal(t *testing.T) {
	tests := []struct {
		input string
		want  ID
	}{
		{`42`, "42"},
		{`"42"`, "42"},
		{`"t-abc"`, "t-abc"},
		{`null`, ""},
	}
	for _, test := range tests {
		var id ID
		if err := json.Unmarshal([]byte(test.input), &id); err != nil {
			t.Fatalf("Unmarshal(%s): %v", test.input, err)
		}
		if id != test.want {
			t.Errorf("Unmarshal(%s) = %q, want %q", test.input, id, test.want)
		}
	}

	var id ID
	if err := json.Unmarshal([]byte(`{"x":1}`), &id); err == nil {
		t.Error("expected error for object ID")
	}
}

func TestIDMarshal(t *testing.T) {
	tests := []struct {
		id   ID
		want string
	}{
		{"42", `42`},
		{"0", `0`},
		{"042", `"042"`},
		{"t-abc", `"t-abc"`},
	}
	for _, test := range tests {
		data, err := json.Marshal(test.id)
		if err != nil {
			t.Fatalf("Marshal(%q): %v", test.id, err)
		}
		if string(data) != test.want {
			t.Errorf("Marshal(%q) = %s, want %s", test.id, data, test.want)
		}
	}
}

func TestNewMessageWireFormat(t *testing.T) {
	data, err := json.Marshal(NewMessage{
		TicketID:    "7",
		AuthorID:    CustomerAuthor,
		Text:        "Hello",
		FromSupport: false,
		FromAI:      false,
	})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"ticket_id":7,"support_id":0,"message":"Hello","from_support":false,"from_AI":false}`
	if string(data) != want {
		t.Fatalf("got  %s\nwant %s", data, want)
	}
}

func TestTicketDecode(t *testing.T) {
	body := `{"id":3,"company_id":1,"company_name":"Acme","subject":"product","message":"My widget broke",
		"firstname":"Ada","lastname":"Lovelace","resolved":true,"rating":null}`
	var ticket Ticket
	if err := json.Unmarshal([]byte(body), &ticket); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if ticket.ID != "3" || ticket.CompanyID != "1" || !ticket.Resolved || ticket.Rating != nil {
		t.Errorf("ticket = %+v", ticket)
	}
	if !ticket.IsProductInquiry() {
		t.Error("subject product should be a product inquiry")
	}
	if ticket.CustomerName() != "Ada Lovelace" {
		t.Errorf("CustomerName = %q", ticket.CustomerName())
	}
}

func TestMessageKind(t *testing.T) {
	tests := []struct {
		message Message
		want    MessageKind
	}{
		{Message{FromSupport: true, FromAI: true}, KindAI},
		{Message{FromSupport: true}, KindSupport},
		{Message{}, KindCustomer},
	}
	for _, test := range tests {
		if got := test.message.Kind(); got != test.want {
			t.Errorf("Kind(%+v) = %s, want %s", test.message, got, test.want)
		}
	}
}
