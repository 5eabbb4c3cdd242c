// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestOllamaGenerate(t *testing.T) {
	t.Parallel()

	var received ollamaRequest
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.Method != http.MethodPost || request.URL.Path != "/api/generate" {
			t.Errorf("unexpected request %s %s", request.Method, request.URL.Path)
		}
		if err := json.NewDecoder(request.Body).Decode(&received); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		writer.Header().Set("Content-Type", "application/json")
		writer.Write([]byte(`{"model":"llama3.2:latest","response":"  Try restarting the router.\n","done":true}`))
	}))
	defer server.Close()

	provider := NewOllama(server.Client(), server.URL+"/api/generate", "llama3.2:latest")
	generation, err := provider.Generate(context.Background(), Request{Prompt: "You are helpful.> router broken"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if received.Model != "llama3.2:latest" || received.Stream || received.Prompt != "You are helpful.> router broken" {
		t.Errorf("wire request = %+v", received)
	}
	if generation.Text != "Try restarting the router." {
		t.Errorf("text = %q", generation.Text)
	}
}

func TestOllamaErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "model missing",
			status: http.StatusNotFound,
			body:   `{"error":"model 'llama3.2:latest' not found"}`,
			check: func(t *testing.T, err error) {
				var providerErr *ProviderError
				if !errors.As(err, &providerErr) {
					t.Fatalf("expected *ProviderError, got %T: %v", err, err)
				}
				if providerErr.StatusCode != http.StatusNotFound || providerErr.Message != "model 'llama3.2:latest' not found" {
					t.Errorf("error = %+v", providerErr)
				}
			},
		},
		{
			name:   "empty response",
			status: http.StatusOK,
			body:   `{"response":"   ","done":true}`,
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrEmptyResponse) {
					t.Errorf("expected ErrEmptyResponse, got %v", err)
				}
			},
		},
		{
			name:   "malformed body",
			status: http.StatusOK,
			body:   `<html>gateway</html>`,
			check: func(t *testing.T, err error) {
				if err == nil {
					t.Fatal("expected decode error")
				}
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				writer.WriteHeader(test.status)
				writer.Write([]byte(test.body))
			}))
			defer server.Close()

			provider := NewOllama(server.Client(), server.URL, "m")
			_, err := provider.Generate(context.Background(), Request{Prompt: "p"})
			test.check(t, err)
		})
	}
}

func TestOllamaHonorsContext(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		select {
		case <-release:
		case <-request.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	provider := NewOllama(server.Client(), server.URL, "m")
	_, err := provider.Generate(ctx, Request{Prompt: "p"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
