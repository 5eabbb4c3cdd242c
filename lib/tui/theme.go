// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import "github.com/charmbracelet/lipgloss"

// Theme is the color palette of the chat TUI. Colors are ANSI 256
// codes so they render the same under tmux and plain terminals.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Author colors for message labels.
	CustomerAuthor lipgloss.Color
	SupportAuthor  lipgloss.Color
	AIAuthor       lipgloss.Color

	// Connection state shown in the header.
	StatusLive         lipgloss.Color
	StatusReconnecting lipgloss.Color
	StatusGone         lipgloss.Color
	StatusResolved     lipgloss.Color

	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color

	// Accent marks focus: the scrollbar thumb, the rating cursor.
	Accent lipgloss.Color

	StarSelected   lipgloss.Color
	StarUnselected lipgloss.Color

	// FreshBackground tints a message that just arrived; the tint
	// fades toward PaneBackground. Both are hex so they can be blended.
	FreshBackground lipgloss.Color
	PaneBackground  lipgloss.Color

	OverlayForeground lipgloss.Color
	OverlayBackground lipgloss.Color

	ErrorText lipgloss.Color
}

// AuthorColor returns the label color for a message kind: "ai",
// "support", or anything else for the customer.
func (theme Theme) AuthorColor(kind string) lipgloss.Color {
	switch kind {
	case "ai":
		return theme.AIAuthor
	case "support":
		return theme.SupportAuthor
	default:
		return theme.CustomerAuthor
	}
}

// DefaultTheme is tuned for dark 256-color terminals.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	CustomerAuthor: lipgloss.Color("114"), // green
	SupportAuthor:  lipgloss.Color("75"),  // blue
	AIAuthor:       lipgloss.Color("141"), // light purple

	StatusLive:         lipgloss.Color("114"),
	StatusReconnecting: lipgloss.Color("220"), // amber
	StatusGone:         lipgloss.Color("196"), // red
	StatusResolved:     lipgloss.Color("245"),

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),

	Accent: lipgloss.Color("220"),

	StarSelected:   lipgloss.Color("220"),
	StarUnselected: lipgloss.Color("240"),

	FreshBackground: lipgloss.Color("#5f5f00"), // dark amber
	PaneBackground:  lipgloss.Color("#1c1c1c"),

	OverlayForeground: lipgloss.Color("252"),
	OverlayBackground: lipgloss.Color("237"),

	ErrorText: lipgloss.Color("203"),
}
