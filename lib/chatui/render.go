// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"

	"github.com/bureau-foundation/supportchat/chat"
	"github.com/bureau-foundation/supportchat/lib/tui"
	"github.com/bureau-foundation/supportchat/supportapi"
)

// statusText is the connection summary at the right of the header.
func statusText(theme tui.Theme, view chat.View, now time.Time) string {
	var text string
	var color lipgloss.Color
	switch {
	case view.Status.Gone:
		text, color = "ticket deleted", theme.StatusGone
	case view.Status.Reconnecting:
		text = fmt.Sprintf("reconnecting (%d failed)", view.Status.ConsecutiveFailures)
		color = theme.StatusReconnecting
	case !view.Status.Loaded:
		text, color = "connecting", theme.StatusReconnecting
	case view.Resolved():
		text, color = "resolved", theme.StatusResolved
	default:
		text = "live, updated " + humanize.RelTime(view.UpdatedAt, now, "ago", "from now")
		color = theme.StatusLive
	}
	return lipgloss.NewStyle().Foreground(color).Render("● " + text)
}

func renderHeader(theme tui.Theme, view chat.View, now time.Time, width int) string {
	title := "Ticket #" + view.TicketID.String()
	if ticket := view.Ticket; ticket != nil {
		if ticket.CompanyName != "" {
			title = ticket.CompanyName + " · " + title
		}
		if ticket.Subject != "" {
			title += " · " + ticket.Subject
		}
	}
	status := statusText(theme, view, now)
	room := max(width-ansi.StringWidth(status)-1, 1)
	title = ansi.Truncate(title, room, "…")

	left := lipgloss.NewStyle().Bold(true).Foreground(theme.HeaderForeground).Render(title)
	gap := max(width-ansi.StringWidth(left)-ansi.StringWidth(status), 1)
	line := left + strings.Repeat(" ", gap) + status
	rule := lipgloss.NewStyle().Foreground(theme.BorderColor).Render(strings.Repeat("─", max(width, 0)))
	return line + "\n" + rule
}

// renderThread draws the greeting and every message into width
// columns. Labels of freshly arrived messages get a fading tint.
func renderThread(theme tui.Theme, view chat.View, fresh *tui.FreshTracker, now time.Time, width int) string {
	bodyWidth := max(width-2, 10)
	faint := lipgloss.NewStyle().Foreground(theme.FaintText)
	normal := lipgloss.NewStyle().Foreground(theme.NormalText)

	var blocks []string
	if greeting := chat.Greeting(view.Ticket); len(greeting) > 0 {
		label := lipgloss.NewStyle().Bold(true).Foreground(theme.SupportAuthor).Render("Support")
		var body []string
		for _, line := range greeting {
			body = append(body, faint.Render(ansi.Wrap(line, bodyWidth, " ")))
		}
		blocks = append(blocks, label+"\n"+indent(strings.Join(body, "\n")))
	}
	if ticket := view.Ticket; ticket != nil && ticket.Message != "" {
		label := lipgloss.NewStyle().Bold(true).Foreground(theme.CustomerAuthor).Render(view.OpeningLabel())
		blocks = append(blocks, label+"\n"+indent(normal.Render(ansi.Wrap(ticket.Message, bodyWidth, " "))))
	}

	for index := range view.Messages {
		message := &view.Messages[index]
		labelStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.AuthorColor(string(message.Kind())))
		label := view.AuthorLabel(message)
		if intensity := fresh.Intensity(message.ID.String(), now); intensity > 0 {
			tint := tui.Blend(string(theme.PaneBackground), string(theme.FreshBackground), intensity)
			labelStyle = labelStyle.Background(lipgloss.Color(tint)).Width(width)
		}

		var body string
		if message.Kind() == supportapi.KindAI {
			body = RenderMarkdown(message.Text, theme, bodyWidth)
		} else {
			body = normal.Render(ansi.Wrap(message.Text, bodyWidth, " "))
		}
		blocks = append(blocks, labelStyle.Render(label)+"\n"+indent(body))
	}

	if view.Generating {
		blocks = append(blocks, lipgloss.NewStyle().Italic(true).Foreground(theme.AIAuthor).Render("AI is writing a reply…"))
	}
	return strings.Join(blocks, "\n\n")
}

func indent(text string) string {
	lines := strings.Split(text, "\n")
	for index, line := range lines {
		lines[index] = "  " + line
	}
	return strings.Join(lines, "\n")
}

// renderRatingBox draws the feedback prompt with cursor stars lit.
func renderRatingBox(theme tui.Theme, view chat.View, cursor int) []string {
	selected := lipgloss.NewStyle().Foreground(theme.StarSelected)
	unselected := lipgloss.NewStyle().Foreground(theme.StarUnselected)
	var stars strings.Builder
	for star := 1; star <= 5; star++ {
		if star > 1 {
			stars.WriteString(" ")
		}
		if star <= cursor {
			stars.WriteString(selected.Render("★"))
		} else {
			stars.WriteString(unselected.Render("☆"))
		}
	}

	lines := []string{
		"This ticket is resolved.",
		"How was your support experience?",
		"",
		stars.String(),
		"",
	}
	help := lipgloss.NewStyle().Foreground(theme.HelpText)
	if view.RatingSelection > 0 {
		lines = append(lines, help.Render(fmt.Sprintf("Thanks! You rated %d of 5.", view.RatingSelection)))
	} else {
		lines = append(lines, help.Render("1-5 or ←/→ then enter"))
	}
	return tui.Box(theme, "Feedback", lines)
}
