// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of the chat TUI. Printable keys go
// to the input line, so every binding here is a control or
// navigation key, except the rating digits which apply only while the
// rating prompt is shown.
type KeyMap struct {
	Send key.Binding

	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding
	Bottom   key.Binding

	// Rating prompt.
	RateLeft  key.Binding
	RateRight key.Binding
	RateStars key.Binding

	Quit key.Binding
}

// DefaultKeyMap is the built-in key binding set.
var DefaultKeyMap = KeyMap{
	Send: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "send"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("pgup", "ctrl+u"),
		key.WithHelp("PgUp", "scroll up"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("pgdown", "ctrl+d"),
		key.WithHelp("PgDn", "scroll down"),
	),
	Top: key.NewBinding(
		key.WithKeys("ctrl+home"),
		key.WithHelp("C-Home", "oldest"),
	),
	Bottom: key.NewBinding(
		key.WithKeys("ctrl+end"),
		key.WithHelp("C-End", "latest"),
	),
	RateLeft: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←", "fewer stars"),
	),
	RateRight: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→", "more stars"),
	),
	RateStars: key.NewBinding(
		key.WithKeys("1", "2", "3", "4", "5"),
		key.WithHelp("1-5", "rate"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "esc"),
		key.WithHelp("esc", "quit"),
	),
}
