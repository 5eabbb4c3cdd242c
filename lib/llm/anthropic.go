// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"net/http"
	"strings"
)

const (
	anthropicVersion   = "2023-06-01"
	anthropicMaxTokens = 1024
)

// Anthropic implements [Generator] for the Anthropic Messages API.
type Anthropic struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// NewAnthropic returns an Anthropic generator. baseURL is typically
// "https://api.anthropic.com".
func NewAnthropic(httpClient *http.Client, baseURL, apiKey, model string) *Anthropic {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Anthropic{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
	}
}

// Generate sends a non-streaming Messages request.
func (provider *Anthropic) Generate(ctx context.Context, request Request) (*Generation, error) {
	wireRequest := anthropicRequest{
		Model:     orDefault(request.Model, provider.model),
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropicMessage{
			{Role: "user", Content: request.Prompt},
		},
	}
	headers := map[string]string{
		"x-api-key":         provider.apiKey,
		"anthropic-version": anthropicVersion,
	}

	httpResponse, err := doProviderRequest(ctx, provider.httpClient,
		provider.baseURL+"/v1/messages", wireRequest, "llm/anthropic", headers)
	if err != nil {
		return nil, err
	}
	return decodeResponse[anthropicResponse](httpResponse, "llm/anthropic")
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Model   string                  `json:"model"`
	Content []anthropicContentBlock `json:"content"`
}

type anthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (wire *anthropicResponse) text() string {
	var builder strings.Builder
	for _, block := range wire.Content {
		if block.Type == "text" {
			builder.WriteString(block.Text)
		}
	}
	return builder.String()
}

func (wire *anthropicResponse) model() string { return wire.Model }
