// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

// geminiModels is the subset of *genai.Models used here.
type geminiModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini implements [Generator] using the Gemini API.
type Gemini struct {
	models geminiModels
	model  string
}

// NewGemini creates a genai client for the Gemini API. httpClient may
// be nil.
func NewGemini(ctx context.Context, httpClient *http.Client, apiKey, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("llm/gemini: creating client: %w", err)
	}
	return &Gemini{models: client.Models, model: model}, nil
}

// Generate sends the prompt as a single user turn.
func (provider *Gemini) Generate(ctx context.Context, request Request) (*Generation, error) {
	model := orDefault(request.Model, provider.model)

	response, err := provider.models.GenerateContent(ctx, model, genai.Text(request.Prompt), nil)
	if err != nil {
		return nil, fmt.Errorf("llm/gemini: %w", err)
	}
	return nonEmpty(response.Text(), model, "llm/gemini")
}
