// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"context"
	"log/slog"
	"time"

	"github.com/bureau-foundation/supportchat/lib/llm"
	"github.com/bureau-foundation/supportchat/supportapi"
)

// DefaultGenerationTimeout bounds one AI reply, modelfile fetch
// included.
const DefaultGenerationTimeout = 60 * time.Second

// ModelfileSource fetches a tenant's prompt template.
type ModelfileSource interface {
	Modelfile(ctx context.Context, companyID supportapi.ID) (string, error)
}

// GatewayConfig configures a Gateway.
type GatewayConfig struct {
	Modelfiles ModelfileSource
	Generator  llm.Generator

	// Model is passed to the generator; empty uses its default.
	Model   string
	Timeout time.Duration
	Logger  *slog.Logger
}

// Gateway turns an agent's prompt into an AI reply using the tenant's
// prompt template.
type Gateway struct {
	modelfiles ModelfileSource
	generator  llm.Generator
	model      string
	timeout    time.Duration
	logger     *slog.Logger
}

// NewGateway returns a Gateway.
func NewGateway(config GatewayConfig) *Gateway {
	if config.Timeout <= 0 {
		config.Timeout = DefaultGenerationTimeout
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Gateway{
		modelfiles: config.Modelfiles,
		generator:  config.Generator,
		model:      config.Model,
		timeout:    config.Timeout,
		logger:     config.Logger,
	}
}

// Generate fetches the modelfile for companyID, prepends it to prompt,
// and returns the generated text. Every failure, including timeout and
// an empty reply, is a *GenerationError.
func (gateway *Gateway) Generate(ctx context.Context, companyID supportapi.ID, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, gateway.timeout)
	defer cancel()

	template, err := gateway.modelfiles.Modelfile(ctx, companyID)
	if err != nil {
		return "", &GenerationError{Stage: "modelfile", Err: err}
	}

	started := time.Now()
	generation, err := gateway.generator.Generate(ctx, llm.Request{
		Model:  gateway.model,
		Prompt: template + prompt,
	})
	if err != nil {
		return "", &GenerationError{Stage: "generate", Err: err}
	}

	gateway.logger.Debug("AI reply generated",
		"company_id", companyID,
		"model", generation.Model,
		"duration", time.Since(started),
		"chars", len(generation.Text),
	)
	return generation.Text, nil
}
