// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bureau-foundation/supportchat/chat"
	"github.com/bureau-foundation/supportchat/cmd/supportchat/cli"
	"github.com/bureau-foundation/supportchat/lib/clock"
	"github.com/bureau-foundation/supportchat/lib/config"
	"github.com/bureau-foundation/supportchat/lib/llm"
	"github.com/bureau-foundation/supportchat/lib/metrics"
	"github.com/bureau-foundation/supportchat/lib/version"
	"github.com/bureau-foundation/supportchat/supportapi"
)

func newBackendClient(cfg *config.Config, logger *slog.Logger) (*supportapi.Client, error) {
	client, err := supportapi.NewClient(supportapi.ClientConfig{
		BaseURL:    cfg.Backend.URL,
		HTTPClient: &http.Client{Timeout: cfg.BackendTimeout()},
		Logger:     logger,
	})
	if err != nil {
		return nil, cli.Validation("%w", err)
	}
	return client, nil
}

// newGenerator builds the configured provider behind the rate limit.
// Generation deadlines come from the gateway's context, so the HTTP
// client has no timeout of its own.
func newGenerator(ctx context.Context, cfg *config.AIConfig) (llm.Generator, error) {
	httpClient := &http.Client{}
	var generator llm.Generator
	switch cfg.Provider {
	case config.ProviderOllama:
		generator = llm.NewOllama(httpClient, cfg.Endpoint, cfg.Model)
	case config.ProviderOpenAI:
		generator = llm.NewOpenAI(httpClient, cfg.Endpoint, cfg.APIKey, cfg.Model)
	case config.ProviderAnthropic:
		generator = llm.NewAnthropic(httpClient, cfg.Endpoint, cfg.APIKey, cfg.Model)
	case config.ProviderGemini:
		gemini, err := llm.NewGemini(ctx, httpClient, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, cli.Unavailable("%w", err)
		}
		generator = gemini
	default:
		return nil, cli.Validation("unknown AI provider %q", cfg.Provider)
	}
	return llm.Throttle(generator, cfg.RequestsPerMinute), nil
}

// openSession builds a session for cfg and opens ticketID. Only
// support viewers get a generator; '>' is plain text for customers.
func openSession(ctx context.Context, cfg *config.Config, ticketID supportapi.ID, logger *slog.Logger) (*chat.Session, error) {
	who, err := viewer(cfg)
	if err != nil {
		return nil, err
	}
	client, err := newBackendClient(cfg, logger)
	if err != nil {
		return nil, err
	}

	var generator llm.Generator
	if who.Role == chat.RoleSupport {
		if generator, err = newGenerator(ctx, &cfg.AI); err != nil {
			return nil, err
		}
	}

	session, err := chat.NewSession(chat.SessionConfig{
		Backend:           client,
		Viewer:            who,
		Generator:         generator,
		Model:             cfg.AI.Model,
		GenerationTimeout: cfg.AITimeout(),
		PollInterval:      cfg.PollInterval(),
		Clock:             clock.Real(),
		Logger:            logger,
	})
	if err != nil {
		return nil, cli.Validation("%w", err)
	}

	if _, err := session.Open(ctx, ticketID); err != nil {
		session.Close()
		return nil, openError(ticketID, cfg.Backend.URL, err)
	}
	return session, nil
}

// openError classifies a failed first load for the exit code.
func openError(ticketID supportapi.ID, backendURL string, err error) error {
	var fetchErr *chat.FetchError
	isFetch := errors.As(err, &fetchErr)
	if errors.Is(err, chat.ErrTicketGone) || (isFetch && fetchErr.Gone()) {
		return cli.NotFound("ticket %s does not exist", ticketID)
	}
	if isFetch && fetchErr.Transient() {
		return cli.Unavailable("%w", err).
			WithHint(fmt.Sprintf("Is the support backend running at %s?", backendURL))
	}
	return err
}

// statsSample maps session counters to the metrics sample.
func statsSample(stats chat.SessionStats) metrics.Sample {
	return metrics.Sample{
		PollTicks:           stats.Poll.Ticks,
		PollSkipped:         stats.Poll.Skipped,
		Refreshes:           stats.Poll.Refreshes,
		RefreshFailures:     stats.Poll.Failures,
		Writes:              stats.Submit.Writes,
		WriteFailures:       stats.Submit.WriteFailures,
		PlainMessages:       stats.Dispatch.Plain,
		Generations:         stats.Dispatch.Generations,
		Fallbacks:           stats.Dispatch.Fallbacks,
		Reconnecting:        stats.Status.Reconnecting,
		ConsecutiveFailures: stats.Status.ConsecutiveFailures,
	}
}

// serveMetrics exposes the session's counters until ctx ends. Errors
// are logged; a dead metrics endpoint does not stop the chat.
func serveMetrics(ctx context.Context, address string, session *chat.Session, viewer chat.Viewer, logger *slog.Logger, ready func(net.Addr)) {
	collector := metrics.NewCollector(func() metrics.Sample {
		return statsSample(session.Stats())
	}, prometheus.Labels{"role": string(viewer.Role), "version": version.Version})
	registry, err := metrics.NewRegistry(collector)
	if err != nil {
		logger.Error("metrics registry", "error", err)
		return
	}
	go func() {
		if err := metrics.Serve(ctx, address, registry, logger, ready); err != nil {
			logger.Error("metrics endpoint stopped", "address", address, "error", err)
		}
	}()
}
