// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"net/http"
	"strings"
)

// OpenAI implements [Generator] for the OpenAI Chat Completions API
// and compatible servers. The prompt is sent as a single user message.
type OpenAI struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// NewOpenAI returns an OpenAI-compatible generator. baseURL ends in
// /v1 (e.g. "https://api.openai.com/v1"). apiKey may be empty for
// local servers that do not check it.
func NewOpenAI(httpClient *http.Client, baseURL, apiKey, model string) *OpenAI {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OpenAI{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
	}
}

// Generate sends a non-streaming chat completion request.
func (provider *OpenAI) Generate(ctx context.Context, request Request) (*Generation, error) {
	wireRequest := openaiRequest{
		Model: orDefault(request.Model, provider.model),
		Messages: []openaiMessage{
			{Role: "user", Content: request.Prompt},
		},
	}

	var headers map[string]string
	if provider.apiKey != "" {
		headers = map[string]string{"Authorization": "Bearer " + provider.apiKey}
	}

	httpResponse, err := doProviderRequest(ctx, provider.httpClient,
		provider.baseURL+"/chat/completions", wireRequest, "llm/openai", headers)
	if err != nil {
		return nil, err
	}
	return decodeResponse[openaiResponse](httpResponse, "llm/openai")
}

type openaiRequest struct {
	Model    string          `json:"model"`
	Messages []openaiMessage `json:"messages"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponse struct {
	Model   string         `json:"model"`
	Choices []openaiChoice `json:"choices"`
}

type openaiChoice struct {
	Message      openaiMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

func (wire *openaiResponse) text() string {
	if len(wire.Choices) == 0 {
		return ""
	}
	return wire.Choices[0].Message.Content
}

func (wire *openaiResponse) model() string { return wire.Model }
