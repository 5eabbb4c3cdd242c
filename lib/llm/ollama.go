// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"net/http"
)

// Ollama implements [Generator] against an Ollama server's generate
// endpoint.
type Ollama struct {
	httpClient *http.Client
	endpoint   string
	model      string
}

// NewOllama returns an Ollama generator. endpoint is the full
// /api/generate URL; model is used when a request does not name one.
func NewOllama(httpClient *http.Client, endpoint, model string) *Ollama {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Ollama{httpClient: httpClient, endpoint: endpoint, model: model}
}

// Generate sends a non-streaming generate request.
func (provider *Ollama) Generate(ctx context.Context, request Request) (*Generation, error) {
	wireRequest := ollamaRequest{
		Model:  orDefault(request.Model, provider.model),
		Stream: false,
		Prompt: request.Prompt,
	}

	httpResponse, err := doProviderRequest(ctx, provider.httpClient, provider.endpoint, wireRequest, "llm/ollama", nil)
	if err != nil {
		return nil, err
	}
	return decodeResponse[ollamaResponse](httpResponse, "llm/ollama")
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Stream bool   `json:"stream"`
	Prompt string `json:"prompt"`
}

type ollamaResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func (wire *ollamaResponse) text() string  { return wire.Response }
func (wire *ollamaResponse) model() string { return wire.Model }
