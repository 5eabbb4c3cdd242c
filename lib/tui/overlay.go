// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Splice writes box over view with its top-left corner at (column,
// row). Escape sequences on either side of the box are kept intact.
// Box rows falling outside the view are dropped.
func Splice(view string, box []string, column, row int) string {
	if len(box) == 0 {
		return view
	}
	viewLines := strings.Split(view, "\n")
	boxWidth := 0
	for _, line := range box {
		boxWidth = max(boxWidth, ansi.StringWidth(line))
	}

	for index, boxLine := range box {
		target := row + index
		if target < 0 || target >= len(viewLines) {
			continue
		}
		original := viewLines[target]

		var line strings.Builder
		if column > 0 {
			left := ansi.Truncate(original, column, "")
			line.WriteString(left)
			if pad := column - ansi.StringWidth(left); pad > 0 {
				line.WriteString(strings.Repeat(" ", pad))
			}
		}
		line.WriteString("\x1b[0m")
		line.WriteString(boxLine)
		if pad := boxWidth - ansi.StringWidth(boxLine); pad > 0 {
			line.WriteString(strings.Repeat(" ", pad))
		}
		line.WriteString("\x1b[0m")
		if end := column + boxWidth; end < ansi.StringWidth(original) {
			line.WriteString(ansi.TruncateLeft(original, end, ""))
		}
		viewLines[target] = line.String()
	}
	return strings.Join(viewLines, "\n")
}

// Center splices box into the middle of a width x height view.
func Center(view string, box []string, width, height int) string {
	boxWidth := 0
	for _, line := range box {
		boxWidth = max(boxWidth, ansi.StringWidth(line))
	}
	return Splice(view, box, max((width-boxWidth)/2, 0), max((height-len(box))/2, 0))
}

// Box renders lines inside a padded, rounded border on the overlay
// background and returns the result split into rows for Splice.
func Box(theme Theme, title string, lines []string) []string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.BorderColor).
		Background(theme.OverlayBackground).
		Foreground(theme.OverlayForeground).
		Padding(0, 2)

	content := strings.Join(lines, "\n")
	if title != "" {
		heading := lipgloss.NewStyle().Bold(true).Foreground(theme.HeaderForeground).Render(title)
		content = heading + "\n\n" + content
	}
	return strings.Split(style.Render(content), "\n")
}
