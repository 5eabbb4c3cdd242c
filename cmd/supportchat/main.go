// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// supportchat is a terminal client for live support tickets. Customers
// and support agents open a ticket, watch the thread update as the
// other side writes, and reply; agents can prefix a line with '>' to
// have an AI model draft the reply from the company's prompt template.
//
// On a terminal it runs a full-screen chat; with stdin or stdout
// redirected it reads lines and prints the thread as plain text. The
// export and inspect subcommands write and read ticket transcripts.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/supportchat/cmd/supportchat/cli"
	"github.com/bureau-foundation/supportchat/lib/version"
)

func main() {
	if err := run(); err != nil {
		var toolErr *cli.ToolError
		if errors.As(err, &toolErr) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			if toolErr.Hint != "" {
				fmt.Fprintf(os.Stderr, "\n%s\n", toolErr.Hint)
			}
			os.Exit(toolErr.ExitCode())
		}
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Handle --version before flag parsing to match the other binaries.
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("supportchat %s\n", version.Full())
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return root(standardStreams()).Execute(ctx, os.Args[1:])
}

// streams are the process's standard files, replaced in tests.
type streams struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// interactive reports whether stdin and stdout are both a terminal.
	interactive bool
}

func root(std streams) *cli.Command {
	chatOptions := &sessionOptions{}
	return &cli.Command{
		Name: "supportchat",
		Description: `supportchat: live support chat in the terminal.

Opens a ticket, keeps the thread current by polling the support backend,
and sends what you type. Support agents can start a line with '>' to have
the configured AI model draft the reply.`,
		Output: std.stderr,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("supportchat", pflag.ContinueOnError)
			chatOptions.addFlags(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			return runChat(ctx, chatOptions, std)
		},
		Subcommands: []*cli.Command{
			exportCommand(std),
			inspectCommand(std),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(context.Context, []string) error {
					fmt.Fprintf(std.stdout, "supportchat %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Chat on ticket 12 as the customer",
				Command:     "supportchat --ticket 12",
			},
			{
				Description: "Answer ticket 12 as support agent 4, with AI drafts from a local Ollama",
				Command:     "supportchat --ticket 12 --role support --agent-id 4",
			},
			{
				Description: "Pipe a message in and exit",
				Command:     "echo 'Any update?' | supportchat --ticket 12",
			},
		},
	}
}
