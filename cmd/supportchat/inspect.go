// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"filippo.io/age"
	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/supportchat/chat"
	"github.com/bureau-foundation/supportchat/cmd/supportchat/cli"
	"github.com/bureau-foundation/supportchat/lib/clock"
	"github.com/bureau-foundation/supportchat/lib/transcript"
)

func inspectCommand(std streams) *cli.Command {
	var identityFiles []string
	var headerOnly bool
	return &cli.Command{
		Name:    "inspect",
		Summary: "Print a transcript file",
		Usage:   "supportchat inspect [--identity FILE] TRANSCRIPT",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("inspect", pflag.ContinueOnError)
			flagSet.StringArrayVarP(&identityFiles, "identity", "i", nil, "age identity file for encrypted transcripts (repeatable)")
			flagSet.BoolVar(&headerOnly, "header", false, "print only the unencrypted header")
			return flagSet
		},
		Run: func(_ context.Context, args []string) error {
			if len(args) != 1 {
				return cli.Validation("inspect takes exactly one transcript file")
			}
			return runInspect(args[0], identityFiles, headerOnly, std.stdout, clock.Real())
		},
	}
}

func runInspect(path string, identityFiles []string, headerOnly bool, output io.Writer, clk clock.Clock) error {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return cli.NotFound("%s does not exist", path)
	}
	if err != nil {
		return err
	}
	defer file.Close()

	if headerOnly {
		header, err := transcript.ReadHeader(file)
		if err != nil {
			return cli.Validation("%s: %w", path, err)
		}
		printHeader(output, header)
		return nil
	}

	var identities []age.Identity
	for _, identityFile := range identityFiles {
		parsed, err := transcript.ReadIdentityFile(identityFile)
		if err != nil {
			return cli.Validation("%w", err)
		}
		identities = append(identities, parsed...)
	}

	record, header, err := transcript.Read(file, identities...)
	if errors.Is(err, transcript.ErrEncrypted) {
		return cli.Validation("%s is encrypted", path).WithHint("Pass the matching age identity with --identity.")
	}
	if err != nil {
		return cli.Validation("%s: %w", path, err)
	}

	printHeader(output, header)
	ticket := record.Ticket
	fmt.Fprintf(output, "ticket:      #%s %s (%s)\n", ticket.ID, ticket.Subject, ticket.CompanyName)
	fmt.Fprintf(output, "customer:    %s\n", ticket.CustomerName())
	fmt.Fprintf(output, "resolved:    %t\n", ticket.Resolved)
	if ticket.Rating != nil {
		fmt.Fprintf(output, "rating:      %d/5\n", *ticket.Rating)
	}
	fmt.Fprintf(output, "exported:    %s (%s) by %s\n",
		record.ExportedAt.Format("2006-01-02 15:04:05 MST"), humanize.RelTime(record.ExportedAt, clk.Now(), "ago", "from now"), record.Client)
	fmt.Fprintf(output, "fingerprint: %s\n\n", record.Fingerprint)

	// Labels read from the support side so the customer is named.
	view := chat.View{Viewer: chat.Viewer{Role: chat.RoleSupport}, TicketID: ticket.ID, Ticket: &ticket}
	if ticket.Message != "" {
		fmt.Fprintf(output, "[%s] %s\n", view.OpeningLabel(), ticket.Message)
	}
	for index := range record.Messages {
		message := &record.Messages[index]
		fmt.Fprintf(output, "[%s] %s\n", view.AuthorLabel(message), message.Text)
	}
	return nil
}

func printHeader(output io.Writer, header transcript.Header) {
	fmt.Fprintf(output, "compression: %s\n", header.Compression)
	fmt.Fprintf(output, "encrypted:   %t\n", header.Encrypted)
}
