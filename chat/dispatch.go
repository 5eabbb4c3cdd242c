// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/bureau-foundation/supportchat/supportapi"
)

// Outgoing is a message ready to be written.
type Outgoing struct {
	Text string

	// FromAI is true only when Text is a generated reply.
	FromAI bool

	// Command is the parsed input that produced this message.
	Command Command

	// FellBack is true when an AI prompt was sent verbatim because
	// generation failed.
	FellBack bool
}

// DispatcherStats counts dispatch outcomes.
type DispatcherStats struct {
	Plain       uint64
	Generations uint64
	Fallbacks   uint64
}

// Dispatcher routes input down exactly one of the plain or AI paths.
type Dispatcher struct {
	grammar *Grammar
	gateway *Gateway
	logger  *slog.Logger

	plain       atomic.Uint64
	generations atomic.Uint64
	fallbacks   atomic.Uint64
}

// NewDispatcher returns a Dispatcher. A nil grammar means
// DefaultGrammar; a nil gateway makes every AI prompt fall back.
func NewDispatcher(grammar *Grammar, gateway *Gateway, logger *slog.Logger) *Dispatcher {
	if grammar == nil {
		grammar = DefaultGrammar
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{grammar: grammar, gateway: gateway, logger: logger}
}

// Route classifies text for viewer.
func (dispatcher *Dispatcher) Route(viewer Viewer, text string) Command {
	return dispatcher.grammar.Route(viewer.Role, text)
}

// Compose produces the message to write for command. Plain commands
// pass through unchanged. AI prompts are sent to the gateway; on any
// generation failure the prompt itself is sent, so nothing typed is
// lost. The only error returned is ctx's, when the caller gave up.
func (dispatcher *Dispatcher) Compose(ctx context.Context, command Command, companyID supportapi.ID) (Outgoing, error) {
	if command.Kind != CommandAIPrompt {
		dispatcher.plain.Add(1)
		return Outgoing{Text: command.Text, Command: command}, nil
	}

	fallback := Outgoing{Text: command.Text, Command: command, FellBack: true}
	if dispatcher.gateway == nil {
		dispatcher.fallbacks.Add(1)
		dispatcher.logger.Warn("AI prompt sent as plain message, no generator configured")
		return fallback, nil
	}

	reply, err := dispatcher.gateway.Generate(ctx, companyID, command.Text)
	if err != nil {
		if ctx.Err() != nil {
			return Outgoing{}, ctx.Err()
		}
		dispatcher.fallbacks.Add(1)
		dispatcher.logger.Warn("AI generation failed, sending prompt as typed",
			"company_id", companyID,
			"error", err,
		)
		return fallback, nil
	}

	dispatcher.generations.Add(1)
	return Outgoing{Text: reply, FromAI: true, Command: command}, nil
}

// Stats returns a point-in-time copy of the counters.
func (dispatcher *Dispatcher) Stats() DispatcherStats {
	return DispatcherStats{
		Plain:       dispatcher.plain.Load(),
		Generations: dispatcher.generations.Load(),
		Fallbacks:   dispatcher.fallbacks.Load(),
	}
}
