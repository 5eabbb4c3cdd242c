// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/supportchat/chat"
	"github.com/bureau-foundation/supportchat/cmd/supportchat/cli"
	"github.com/bureau-foundation/supportchat/lib/config"
	"github.com/bureau-foundation/supportchat/supportapi"
)

// sessionOptions are the flags shared by every command that talks to
// the backend. Non-empty flags override the configuration file.
type sessionOptions struct {
	configPath string
	envFile    string
	ticket     string
	role       string
	agentID    string
	companyID  string
	backend    string
	provider   string
	endpoint   string
	model      string
	logLevel   string
	logFormat  string
	logOutput  string
	metrics    string
}

func (options *sessionOptions) addFlags(flagSet *pflag.FlagSet) {
	options.addBackendFlags(flagSet)
	flagSet.StringVar(&options.role, "role", "", "who you are in the conversation: customer or support")
	flagSet.StringVar(&options.agentID, "agent-id", "", "support agent ID written as the author of your messages")
	flagSet.StringVar(&options.companyID, "company-id", "", "company whose prompt template shapes AI replies (default: the ticket's)")
	flagSet.StringVar(&options.provider, "ai-provider", "", "AI provider: ollama, openai, anthropic, or gemini")
	flagSet.StringVar(&options.endpoint, "ai-endpoint", "", "AI provider URL (ollama: the /api/generate URL; openai: the /v1 base)")
	flagSet.StringVar(&options.model, "ai-model", "", "AI model name")
	flagSet.StringVar(&options.logOutput, "log-output", "", "also append JSON log records at every level to this file")
	flagSet.StringVar(&options.metrics, "metrics-listen", "", "serve Prometheus metrics on this host:port")
}

// addBackendFlags registers the flags export needs: where the backend
// is and which ticket to read.
func (options *sessionOptions) addBackendFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&options.configPath, "config", "", "configuration file (.yaml, .json, or .jsonc; default: $SUPPORTCHAT_CONFIG)")
	flagSet.StringVar(&options.envFile, "env-file", ".env", "KEY=VALUE file loaded into the environment before the configuration")
	flagSet.StringVar(&options.ticket, "ticket", "", "ticket ID to open (required)")
	flagSet.StringVar(&options.backend, "backend", "", "support backend base URL")
	flagSet.StringVar(&options.logLevel, "log-level", "", "debug, info, warn, or error")
	flagSet.StringVar(&options.logFormat, "log-format", "", "text or json")
}

// load reads the configuration and applies flag overrides. The result
// is validated.
func (options *sessionOptions) load() (*config.Config, error) {
	if err := config.LoadDotenv(options.envFile); err != nil {
		return nil, cli.Validation("%w", err)
	}

	var cfg *config.Config
	var err error
	switch {
	case options.configPath != "":
		cfg, err = config.LoadFile(options.configPath)
	case os.Getenv("SUPPORTCHAT_CONFIG") != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default()
	}
	if err != nil {
		return nil, cli.Validation("%w", err).WithHint("Check the file named by --config or SUPPORTCHAT_CONFIG.")
	}

	override(&cfg.Backend.URL, options.backend)
	override(&cfg.AI.Provider, options.provider)
	override(&cfg.AI.Endpoint, options.endpoint)
	override(&cfg.AI.Model, options.model)
	override(&cfg.Log.Level, options.logLevel)
	override(&cfg.Log.Format, options.logFormat)
	override(&cfg.Viewer.AgentID, options.agentID)
	override(&cfg.Viewer.CompanyID, options.companyID)
	override(&cfg.Metrics.Listen, options.metrics)
	if options.role != "" {
		cfg.Viewer.Role = config.Role(options.role)
	}

	if err := cfg.Validate(); err != nil {
		return nil, cli.Validation("invalid configuration:\n%w", err)
	}
	return cfg, nil
}

func override(target *string, value string) {
	if value != "" {
		*target = value
	}
}

func (options *sessionOptions) ticketID() (supportapi.ID, error) {
	if options.ticket == "" {
		return "", cli.Validation("--ticket is required")
	}
	return supportapi.ID(options.ticket), nil
}

// viewer converts the validated viewer section.
func viewer(cfg *config.Config) (chat.Viewer, error) {
	role, err := chat.ParseRole(string(cfg.Viewer.Role))
	if err != nil {
		return chat.Viewer{}, cli.Validation("%w", err)
	}
	return chat.Viewer{
		Role:      role,
		AgentID:   supportapi.ID(cfg.Viewer.AgentID),
		CompanyID: supportapi.ID(cfg.Viewer.CompanyID),
	}, nil
}

// logLevel parses the validated log.level.
func logLevel(cfg *config.Config) slog.Level {
	level, err := cli.ParseLevel(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("log level %q passed validation: %v", cfg.Log.Level, err))
	}
	return level
}
