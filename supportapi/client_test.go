// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package supportapi_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bureau-foundation/supportchat/supportapi"
	"github.com/bureau-foundation/supportchat/supportapi/supportapitest"
)

func TestNewClient(t *testing.T) {
	t.Run("valid URL", func(t *testing.T) {
		client, err := supportapi.NewClient(supportapi.ClientConfig{BaseURL: "http://localhost:5000/"})
		if err != nil || client == nil {
			t.Fatalf("NewClient: %v", err)
		}
	})

	t.Run("empty URL", func(t *testing.T) {
		if _, err := supportapi.NewClient(supportapi.ClientConfig{}); err == nil {
			t.Fatal("expected error for empty URL")
		}
	})

	t.Run("relative URL", func(t *testing.T) {
		if _, err := supportapi.NewClient(supportapi.ClientConfig{BaseURL: "/api"}); err == nil {
			t.Fatal("expected error for relative URL")
		}
	})
}

func TestReadEndpoints(t *testing.T) {
	backend := supportapitest.New(t)
	backend.PutTicket(supportapi.Ticket{ID: "7", CompanyID: "1", CompanyName: "Acme", Subject: "service"})
	backend.AppendMessage(supportapi.Message{TicketID: "7", AuthorID: supportapi.CustomerAuthor, Text: "first"})
	backend.AppendMessage(supportapi.Message{TicketID: "7", AuthorID: "12", Text: "second", FromSupport: true})
	backend.SetModelfile("1", "You are Acme's support assistant.\n")
	client := backend.Client(t)
	ctx := context.Background()

	ticket, err := client.Ticket(ctx, "7")
	if err != nil {
		t.Fatalf("Ticket: %v", err)
	}
	if ticket.CompanyName != "Acme" || ticket.Resolved {
		t.Errorf("ticket = %+v", ticket)
	}

	messages, err := client.Messages(ctx, "7")
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(messages) != 2 || messages[0].Text != "first" || messages[1].Text != "second" {
		t.Fatalf("messages not in server order: %+v", messages)
	}
	if messages[1].Kind() != supportapi.KindSupport {
		t.Errorf("second message kind = %s", messages[1].Kind())
	}

	modelfile, err := client.Modelfile(ctx, "1")
	if err != nil {
		t.Fatalf("Modelfile: %v", err)
	}
	if modelfile != "You are Acme's support assistant.\n" {
		t.Errorf("modelfile = %q", modelfile)
	}

	for _, requestID := range backend.RequestIDs() {
		if requestID == "" {
			t.Fatal("request sent without X-Request-ID")
		}
	}
}

func TestEmptyThreadIsNonNil(t *testing.T) {
	backend := supportapitest.New(t)
	backend.PutTicket(supportapi.Ticket{ID: "7"})

	messages, err := backend.Client(t).Messages(context.Background(), "7")
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if messages == nil || len(messages) != 0 {
		t.Fatalf("messages = %#v, want empty non-nil slice", messages)
	}
}

func TestWriteEndpoints(t *testing.T) {
	backend := supportapitest.New(t)
	backend.PutTicket(supportapi.Ticket{ID: "7", Resolved: true})
	client := backend.Client(t)
	ctx := context.Background()

	err := client.PostMessage(ctx, supportapi.NewMessage{
		TicketID: "7", AuthorID: "12", Text: "on it", FromSupport: true,
	})
	if err != nil {
		t.Fatalf("PostMessage: %v", err)
	}
	posted := backend.Posted()
	if len(posted) != 1 || posted[0].AuthorID != "12" || !posted[0].FromSupport {
		t.Fatalf("posted = %+v", posted)
	}

	if err := client.PostRating(ctx, "7", 4); err != nil {
		t.Fatalf("PostRating: %v", err)
	}
	if ratings := backend.Ratings("7"); len(ratings) != 1 || ratings[0] != 4 {
		t.Fatalf("ratings = %v", ratings)
	}

	if err := client.PostMessage(ctx, supportapi.NewMessage{Text: "orphan"}); err == nil {
		t.Fatal("expected error for message without ticket ID")
	}
}

func TestErrorClassification(t *testing.T) {
	backend := supportapitest.New(t)
	client := backend.Client(t)
	ctx := context.Background()

	_, err := client.Ticket(ctx, "missing")
	if !supportapi.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	var apiErr *supportapi.APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "ticket not found" || apiErr.Temporary() {
		t.Fatalf("APIError = %+v", apiErr)
	}

	backend.PutTicket(supportapi.Ticket{ID: "7"})
	backend.Fail(supportapitest.RouteMessages, http.StatusServiceUnavailable)
	_, err = client.Messages(ctx, "7")
	if !errors.As(err, &apiErr) || !apiErr.Temporary() || supportapi.IsNotFound(err) {
		t.Fatalf("expected temporary APIError, got %v", err)
	}
}

func TestNonJSONErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusBadGateway)
		writer.Write([]byte("<html>bad gateway</html>\n"))
	}))
	defer server.Close()

	client, err := supportapi.NewClient(supportapi.ClientConfig{BaseURL: server.URL, HTTPClient: server.Client()})
	if err != nil {
		t.Fatal(err)
	}
	_, err = client.Ticket(context.Background(), "1")
	var apiErr *supportapi.APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "<html>bad gateway</html>" {
		t.Fatalf("APIError = %+v (%v)", apiErr, err)
	}
}

func TestTransportErrorIsWrapped(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client, err := supportapi.NewClient(supportapi.ClientConfig{BaseURL: url})
	if err != nil {
		t.Fatal(err)
	}
	_, err = client.Ticket(context.Background(), "1")
	if err == nil {
		t.Fatal("expected transport error")
	}
	var apiErr *supportapi.APIError
	if errors.As(err, &apiErr) {
		t.Fatalf("transport failure should not be an APIError: %v", err)
	}
}

func TestContextCancellation(t *testing.T) {
	backend := supportapitest.New(t)
	backend.PutTicket(supportapi.Ticket{ID: "7"})
	backend.HoldNext(supportapitest.RouteTicket)
	client := backend.Client(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.Ticket(ctx, "7"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
