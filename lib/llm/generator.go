// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ErrEmptyResponse is returned when a provider succeeds at the HTTP
// level but produces no text.
var ErrEmptyResponse = errors.New("llm: empty response")

// Request is one generation request.
type Request struct {
	// Model overrides the provider's configured model when non-empty.
	Model string

	// Prompt is the full prompt text, template included.
	Prompt string
}

// Generation is a completed generation.
type Generation struct {
	Text  string
	Model string
}

// Generator produces text from a prompt. Implementations must honor
// ctx cancellation and be safe for concurrent use.
type Generator interface {
	Generate(ctx context.Context, request Request) (*Generation, error)
}

// nonEmpty returns generation with surrounding whitespace trimmed, or
// ErrEmptyResponse if nothing remains.
func nonEmpty(text, model, prefix string) (*Generation, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%s: %w", prefix, ErrEmptyResponse)
	}
	return &Generation{Text: text, Model: model}, nil
}

// Throttled limits how often the wrapped Generator is called.
type Throttled struct {
	next    Generator
	limiter *rate.Limiter
}

// Throttle returns a Generator allowing at most perMinute requests per
// minute with a burst of one. Waiting for a slot honors ctx. A
// non-positive perMinute returns next unchanged.
func Throttle(next Generator, perMinute int) Generator {
	if perMinute <= 0 {
		return next
	}
	interval := time.Minute / time.Duration(perMinute)
	return &Throttled{next: next, limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Generate waits for a slot and then calls the wrapped Generator.
func (throttled *Throttled) Generate(ctx context.Context, request Request) (*Generation, error) {
	if err := throttled.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("llm: waiting for rate limit: %w", err)
	}
	return throttled.next.Generate(ctx, request)
}
