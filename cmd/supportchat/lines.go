// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bureau-foundation/supportchat/chat"
	"github.com/bureau-foundation/supportchat/cmd/supportchat/cli"
	"github.com/bureau-foundation/supportchat/supportapi"
)

// Line-mode commands. Anything else is sent as a message.
const (
	quitCommand = "/quit"
	rateCommand = "/rate"
)

// runLines is the non-interactive front end: each input line is sent,
// and the thread is printed as it grows. It returns at end of input,
// on /quit, or when the ticket is deleted.
func runLines(ctx context.Context, session *chat.Session, input io.Reader, output io.Writer) error {
	updates, unsubscribe := session.Subscribe()
	defer unsubscribe()

	lines := make(chan string)
	readDone := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(input)
		scanner.Buffer(make([]byte, 64*1024), 1<<20)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				readDone <- nil
				return
			}
		}
		readDone <- scanner.Err()
	}()

	printer := newLinePrinter(output)
	printer.print(session.View())

	for {
		select {
		case <-ctx.Done():
			return nil

		case view, ok := <-updates:
			if !ok {
				return nil
			}
			printer.print(view)
			if view.Status.Gone {
				return cli.NotFound("ticket %s was deleted", view.TicketID)
			}

		case err := <-readDone:
			return err

		case line := <-lines:
			if done := handleLine(ctx, session, printer, line); done {
				return nil
			}
			// The write's forced refresh has already landed; print it
			// now rather than after the next update.
			printer.print(session.View())
		}
	}
}

// handleLine runs one input line and reports whether to stop.
func handleLine(ctx context.Context, session *chat.Session, printer *linePrinter, line string) bool {
	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "":
		return false
	case trimmed == quitCommand:
		return true
	case trimmed == rateCommand || strings.HasPrefix(trimmed, rateCommand+" "):
		stars, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(trimmed, rateCommand)))
		if err != nil {
			printer.notice("usage: /rate 1-5")
			return false
		}
		if err := session.Rate(ctx, stars); err != nil {
			printer.notice("rating not saved: " + err.Error())
			return false
		}
		printer.notice(fmt.Sprintf("thanks, you rated this conversation %d of 5", stars))
		return false
	}

	outgoing, err := session.Submit(ctx, line)
	switch {
	case err != nil:
		printer.notice("not sent: " + err.Error())
	case outgoing.FellBack:
		printer.notice("AI reply unavailable, sent your prompt as typed")
	}
	return false
}

// linePrinter prints each message once and announces status changes.
type linePrinter struct {
	output io.Writer
	ticket supportapi.ID
	seen   map[supportapi.ID]bool
	status string
}

func newLinePrinter(output io.Writer) *linePrinter {
	return &linePrinter{output: output, seen: make(map[supportapi.ID]bool)}
}

func (printer *linePrinter) print(view chat.View) {
	if view.Ticket == nil {
		return
	}
	if view.TicketID != printer.ticket {
		printer.ticket = view.TicketID
		printer.seen = make(map[supportapi.ID]bool)
		printer.status = ""
		printer.header(view)
	}

	for index := range view.Messages {
		message := &view.Messages[index]
		if printer.seen[message.ID] {
			continue
		}
		printer.seen[message.ID] = true
		printer.message(view.AuthorLabel(message), message.Text)
	}

	if status := lineStatus(view); status != printer.status {
		printer.status = status
		if status != "" {
			printer.notice(status)
		}
		if view.RatingAvailable() && view.RatingSelection == 0 {
			printer.notice("rate the conversation with /rate 1-5")
		}
	}
}

func (printer *linePrinter) header(view chat.View) {
	ticket := view.Ticket
	title := "Ticket #" + view.TicketID.String()
	if ticket.CompanyName != "" {
		title = ticket.CompanyName + " · " + title
	}
	if ticket.Subject != "" {
		title += " · " + ticket.Subject
	}
	fmt.Fprintln(printer.output, title)
	for _, line := range chat.Greeting(ticket) {
		printer.message("Support", line)
	}
	if ticket.Message != "" {
		printer.message(view.OpeningLabel(), ticket.Message)
	}
}

func (printer *linePrinter) message(label, text string) {
	text = strings.ReplaceAll(text, "\n", "\n  ")
	fmt.Fprintf(printer.output, "[%s] %s\n", label, text)
}

func (printer *linePrinter) notice(text string) {
	fmt.Fprintf(printer.output, "-- %s\n", text)
}

// lineStatus is the announcement for the view's state, "" when live.
func lineStatus(view chat.View) string {
	switch {
	case view.Status.Gone:
		return "ticket was deleted"
	case view.Status.Reconnecting:
		return "connection lost, retrying"
	case view.Resolved():
		return "ticket resolved"
	}
	return ""
}
