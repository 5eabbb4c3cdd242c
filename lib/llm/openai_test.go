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
)

func TestOpenAIGenerate(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", func(writer http.ResponseWriter, request *http.Request) {
		if got := request.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		var wire openaiRequest
		if err := json.NewDecoder(request.Body).Decode(&wire); err != nil {
			writer.WriteHeader(http.StatusBadRequest)
			return
		}
		if wire.Model != "gpt-4o-mini" || len(wire.Messages) != 1 || wire.Messages[0].Role != "user" {
			t.Errorf("wire request = %+v", wire)
		}
		json.NewEncoder(writer).Encode(map[string]any{
			"model": "gpt-4o-mini-2024",
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "Hello there"}, "finish_reason": "stop"},
			},
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	provider := NewOpenAI(server.Client(), server.URL+"/v1/", "sk-test", "gpt-4o-mini")
	generation, err := provider.Generate(context.Background(), Request{Prompt: "hi"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if generation.Text != "Hello there" || generation.Model != "gpt-4o-mini-2024" {
		t.Errorf("generation = %+v", generation)
	}
}

func TestOpenAIProviderError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusTooManyRequests)
		writer.Write([]byte(`{"error":{"type":"rate_limit_error","message":"slow down","code":"x"}}`))
	}))
	defer server.Close()

	provider := NewOpenAI(server.Client(), server.URL, "", "m")
	_, err := provider.Generate(context.Background(), Request{Prompt: "hi"})

	var providerErr *ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("expected *ProviderError, got %v", err)
	}
	if !providerErr.IsRateLimited() || providerErr.Type != "rate_limit_error" {
		t.Errorf("error = %+v", providerErr)
	}
}

func TestOpenAINoChoices(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	_, err := NewOpenAI(server.Client(), server.URL, "", "m").Generate(context.Background(), Request{Prompt: "hi"})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestAnthropicGenerate(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/v1/messages" {
			t.Errorf("path = %s", request.URL.Path)
		}
		if request.Header.Get("x-api-key") != "key" || request.Header.Get("anthropic-version") == "" {
			t.Errorf("missing auth headers: %v", request.Header)
		}
		writer.Write([]byte(`{"model":"claude","content":[{"type":"text","text":"Part one. "},{"type":"text","text":"Part two."}]}`))
	}))
	defer server.Close()

	generation, err := NewAnthropic(server.Client(), server.URL, "key", "claude").Generate(context.Background(), Request{Prompt: "hi"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if generation.Text != "Part one. Part two." {
		t.Errorf("text = %q", generation.Text)
	}
}
