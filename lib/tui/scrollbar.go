// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderScrollbar draws a one-column scrollbar for a pane of height
// rows showing visibleLines of totalLines starting at offset. When
// the content fits, the thumb fills the column. atBottom switches the
// thumb to the accent color, which the chat view uses to show that new
// messages will scroll into view.
func RenderScrollbar(theme Theme, height, totalLines, visibleLines, offset int, atBottom bool) string {
	if height <= 0 {
		return ""
	}

	thumbColor := theme.BorderColor
	if atBottom {
		thumbColor = theme.Accent
	}
	trackStyle := lipgloss.NewStyle().Foreground(theme.BorderColor)
	thumbStyle := lipgloss.NewStyle().Foreground(thumbColor)

	lines := make([]string, height)

	if totalLines <= visibleLines || totalLines <= 0 {
		for index := range lines {
			lines[index] = thumbStyle.Render("┃")
		}
		return strings.Join(lines, "\n")
	}

	thumbSize := max(height*visibleLines/totalLines, 1)
	thumbStart := 0
	if scrollable, track := totalLines-visibleLines, height-thumbSize; scrollable > 0 && track > 0 {
		thumbStart = min(offset*track/scrollable, track)
	}

	for index := range lines {
		if index >= thumbStart && index < thumbStart+thumbSize {
			lines[index] = thumbStyle.Render("┃")
		} else {
			lines[index] = trackStyle.Render("│")
		}
	}

	return strings.Join(lines, "\n")
}
