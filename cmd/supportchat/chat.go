// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/bureau-foundation/supportchat/chat"
	"github.com/bureau-foundation/supportchat/cmd/supportchat/cli"
	"github.com/bureau-foundation/supportchat/lib/chatui"
)

func standardStreams() streams {
	return streams{
		stdin:       os.Stdin,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		interactive: term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd())),
	}
}

func runChat(ctx context.Context, options *sessionOptions, std streams) error {
	ticketID, err := options.ticketID()
	if err != nil {
		return err
	}
	cfg, err := options.load()
	if err != nil {
		return err
	}
	level := logLevel(cfg)

	var fileHandler slog.Handler
	if options.logOutput != "" {
		handler, closeFile, err := cli.OpenLogFile(options.logOutput)
		if err != nil {
			return cli.Validation("%w", err)
		}
		defer closeFile()
		fileHandler = handler
	}
	withFile := func(handler slog.Handler) *slog.Logger {
		if fileHandler == nil {
			return slog.New(handler)
		}
		return slog.New(cli.Fanout{handler, fileHandler})
	}

	if !std.interactive {
		handler, err := cli.NewHandler(std.stderr, cfg.Log.Format, level)
		if err != nil {
			return err
		}
		logger := withFile(handler).With("ticket", ticketID.String())
		session, err := openSession(ctx, cfg, ticketID, logger)
		if err != nil {
			return err
		}
		defer session.Close()
		if cfg.Metrics.Listen != "" {
			serveMetrics(ctx, cfg.Metrics.Listen, session, session.View().Viewer, logger, nil)
		}
		return runLines(ctx, session, std.stdin, std.stdout)
	}

	// Writing to stderr would tear the alternate screen, so records go
	// to the status line instead. Below warn they would only flicker.
	tuiHandler := chatui.NewLogHandler(max(level, slog.LevelWarn))
	logger := withFile(tuiHandler).With("ticket", ticketID.String())

	session, err := openSession(ctx, cfg, ticketID, logger)
	if err != nil {
		return err
	}
	defer session.Close()
	if cfg.Metrics.Listen != "" {
		serveMetrics(ctx, cfg.Metrics.Listen, session, session.View().Viewer, logger, nil)
	}

	model := chatui.NewModel(chatui.Config{Session: session, Context: ctx, Logger: logger})
	defer model.Close()
	program := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithInput(std.stdin),
		tea.WithOutput(std.stdout),
	)
	tuiHandler.SetProgram(program)

	_, err = program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// ensure *chat.Session satisfies the TUI's view of it.
var _ chatui.Session = (*chat.Session)(nil)
