// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/supportchat/chat"
	"github.com/bureau-foundation/supportchat/cmd/supportchat/cli"
	"github.com/bureau-foundation/supportchat/lib/clock"
	"github.com/bureau-foundation/supportchat/lib/transcript"
	"github.com/bureau-foundation/supportchat/lib/version"
)

type exportOptions struct {
	sessionOptions
	output      string
	compression string
	recipients  []string
}

func exportCommand(std streams) *cli.Command {
	options := &exportOptions{}
	return &cli.Command{
		Name:    "export",
		Summary: "Write a ticket's conversation to a transcript file",
		Description: `Fetch a ticket and its thread once and write them as a transcript:
a CBOR document with a BLAKE3 checksum, compressed with zstd or lz4 and
optionally encrypted to one or more age recipients.`,
		Usage: "supportchat export --ticket ID --output FILE [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("export", pflag.ContinueOnError)
			options.addBackendFlags(flagSet)
			flagSet.StringVarP(&options.output, "output", "o", "", "transcript file to write, - for stdout (required)")
			flagSet.StringVar(&options.compression, "compression", "zstd", "none, lz4, or zstd")
			flagSet.StringArrayVar(&options.recipients, "recipient", nil, "encrypt to this age recipient (repeatable)")
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Export ticket 12 encrypted for the support lead",
				Command:     "supportchat export --ticket 12 -o ticket-12.sct --recipient age1...",
			},
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			return runExport(ctx, options, std, clock.Real())
		},
	}
}

func runExport(ctx context.Context, options *exportOptions, std streams, clk clock.Clock) error {
	ticketID, err := options.ticketID()
	if err != nil {
		return err
	}
	if options.output == "" {
		return cli.Validation("--output is required")
	}
	compression, err := transcript.ParseCompression(options.compression)
	if err != nil {
		return cli.Validation("%w", err)
	}
	recipients, err := transcript.ParseRecipients(options.recipients)
	if err != nil {
		return cli.Validation("%w", err)
	}

	cfg, err := options.load()
	if err != nil {
		return err
	}
	handler, err := cli.NewHandler(std.stderr, cfg.Log.Format, logLevel(cfg))
	if err != nil {
		return err
	}
	logger := slog.New(handler).With("ticket", ticketID.String())

	client, err := newBackendClient(cfg, logger)
	if err != nil {
		return err
	}
	store := chat.NewStore(chat.StoreConfig{Reader: client, Clock: clk, Logger: logger})
	snapshot, err := store.Load(ctx, ticketID)
	if err != nil {
		return openError(ticketID, cfg.Backend.URL, err)
	}

	record := &transcript.Transcript{
		Version:     transcript.FormatVersion,
		ExportedAt:  clk.Now().UTC(),
		Client:      version.UserAgent(),
		Ticket:      *snapshot.Ticket,
		Messages:    snapshot.Messages,
		Fingerprint: snapshot.Fingerprint.String(),
	}
	written, err := writeTranscript(options.output, std.stdout, record, transcript.Options{
		Compression: compression,
		Recipients:  recipients,
	})
	if err != nil {
		return err
	}

	if options.output != "-" {
		fmt.Fprintf(std.stderr, "wrote %s: %d messages, %s %s",
			options.output, len(record.Messages), humanize.Bytes(uint64(written)), compression)
		if len(recipients) > 0 {
			fmt.Fprintf(std.stderr, ", encrypted to %d recipients", len(recipients))
		}
		fmt.Fprintln(std.stderr)
	}
	return nil
}

// writeTranscript writes to path through a temporary file renamed into
// place, or to stdout for "-". It returns the bytes written.
func writeTranscript(path string, stdout io.Writer, record *transcript.Transcript, options transcript.Options) (int64, error) {
	if path == "-" {
		counter := &countingWriter{writer: stdout}
		err := transcript.Write(counter, record, options)
		return counter.count, err
	}

	temporary, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", path, err)
	}
	defer os.Remove(temporary.Name())

	counter := &countingWriter{writer: temporary}
	if err := transcript.Write(counter, record, options); err != nil {
		temporary.Close()
		return 0, err
	}
	if err := temporary.Close(); err != nil {
		return 0, fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(temporary.Name(), path); err != nil {
		return 0, fmt.Errorf("writing %s: %w", path, err)
	}
	return counter.count, nil
}

type countingWriter struct {
	writer io.Writer
	count  int64
}

func (counter *countingWriter) Write(data []byte) (int, error) {
	written, err := counter.writer.Write(data)
	counter.count += int64(written)
	return written, err
}
