// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

type failReader struct{}

func (failReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestReadResponse(t *testing.T) {
	t.Run("normal body", func(t *testing.T) {
		data, err := ReadResponse(strings.NewReader(`{"id":7}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != `{"id":7}` {
			t.Fatalf("got %q", data)
		}
	})

	t.Run("read error propagates", func(t *testing.T) {
		if _, err := ReadResponse(failReader{}); err == nil {
			t.Fatal("expected error from failing reader")
		}
	})
}

func TestDecodeResponse(t *testing.T) {
	var result struct {
		Subject string `json:"subject"`
	}
	if err := DecodeResponse(strings.NewReader(`{"subject":"product"}`), &result); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Subject != "product" {
		t.Fatalf("subject = %q, want product", result.Subject)
	}

	if err := DecodeResponse(strings.NewReader(`<html>`), &result); err == nil {
		t.Fatal("expected error for non-JSON body")
	}
}

func TestErrorBody(t *testing.T) {
	t.Run("trims whitespace", func(t *testing.T) {
		if got := ErrorBody(strings.NewReader("  not found\n")); got != "not found" {
			t.Fatalf("got %q", got)
		}
	})

	t.Run("truncates large bodies", func(t *testing.T) {
		body := bytes.Repeat([]byte("x"), maxErrorBody*2)
		got := ErrorBody(bytes.NewReader(body))
		if len(got) != maxErrorBody+len("...") {
			t.Fatalf("len = %d, want %d", len(got), maxErrorBody+3)
		}
		if !strings.HasSuffix(got, "...") {
			t.Fatal("truncated body should end with ...")
		}
	})
}

func TestJSONBody(t *testing.T) {
	reader, err := JSONBody(map[string]any{"from_support": 1})
	if err != nil {
		t.Fatalf("JSONBody: %v", err)
	}
	data, _ := io.ReadAll(reader)
	if string(data) != `{"from_support":1}` {
		t.Fatalf("got %s", data)
	}
}
