// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/bureau-foundation/supportchat/lib/tui"
)

var (
	markdownOnce   sync.Once
	markdownParser goldmark.Markdown
)

func parser() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdownParser = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return markdownParser
}

// RenderMarkdown renders AI replies, which models habitually format as
// markdown, into styled terminal text wrapped at width. Soft line
// breaks reflow; code blocks keep their lines and are highlighted when
// a language is given.
func RenderMarkdown(input string, theme tui.Theme, width int) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	source := []byte(input)
	document := parser().Parser().Parse(text.NewReader(source))

	// Always ANSI256: the output goes to the TUI, and auto-detection
	// would strip colors whenever stderr is not a terminal.
	renderer := lipgloss.NewRenderer(os.Stderr, termenv.WithProfile(termenv.ANSI256))
	renderer.SetColorProfile(termenv.ANSI256)

	writer := &markdownWriter{
		source:   source,
		theme:    theme,
		width:    width,
		renderer: renderer,
	}
	ast.Walk(document, writer.walk)
	return strings.TrimRight(writer.output.String(), "\n")
}

type markdownWriter struct {
	source   []byte
	theme    tui.Theme
	width    int
	renderer *lipgloss.Renderer

	output strings.Builder
	inline strings.Builder

	// prefix is prepended to every emitted line (quotes, list
	// continuation); bullet replaces it for the next line only.
	prefixes []string
	bullet   string

	bold, italic, strike int
	lists                []listLevel
}

type listLevel struct {
	ordered bool
	next    int
}

func (writer *markdownWriter) style() lipgloss.Style {
	return writer.renderer.NewStyle()
}

func (writer *markdownWriter) prefix() string {
	return strings.Join(writer.prefixes, "")
}

func (writer *markdownWriter) available() int {
	return max(writer.width-ansi.StringWidth(writer.prefix()), 10)
}

// emit writes content line by line with the current prefixes.
func (writer *markdownWriter) emit(content string) {
	for _, line := range strings.Split(content, "\n") {
		if writer.bullet != "" {
			writer.output.WriteString(writer.bullet)
			writer.bullet = ""
		} else {
			writer.output.WriteString(writer.prefix())
		}
		writer.output.WriteString(line)
		writer.output.WriteString("\n")
	}
}

// separate leaves one blank line before the next block, except at the
// start and inside lists.
func (writer *markdownWriter) separate() {
	if writer.output.Len() == 0 || len(writer.lists) > 0 {
		return
	}
	if !strings.HasSuffix(writer.output.String(), "\n\n") {
		writer.output.WriteString("\n")
	}
}

func (writer *markdownWriter) flush() {
	content := writer.inline.String()
	writer.inline.Reset()
	if content == "" {
		return
	}
	writer.emit(ansi.Wrap(content, writer.available(), " ,.;-"))
}

func (writer *markdownWriter) styled(content string) string {
	style := writer.style().Foreground(writer.theme.NormalText)
	if writer.bold > 0 {
		style = style.Bold(true)
	}
	if writer.italic > 0 {
		style = style.Italic(true)
	}
	if writer.strike > 0 {
		style = style.Strikethrough(true)
	}
	return style.Render(content)
}

func (writer *markdownWriter) lines(node ast.Node) string {
	var content strings.Builder
	segments := node.Lines()
	for index := range segments.Len() {
		segment := segments.At(index)
		content.Write(segment.Value(writer.source))
	}
	return strings.TrimRight(content.String(), "\n")
}

func (writer *markdownWriter) highlight(code, language string) string {
	faint := writer.style().Foreground(writer.theme.FaintText)
	if language == "" {
		return faint.Render(code)
	}
	var buffer strings.Builder
	if err := quick.Highlight(&buffer, code, language, "terminal256", "monokai"); err != nil {
		return faint.Render(code)
	}
	return strings.TrimRight(buffer.String(), "\n")
}

func (writer *markdownWriter) walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := node.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		if entering {
			if _, isParagraph := node.(*ast.Paragraph); isParagraph {
				writer.separate()
			}
		} else {
			writer.flush()
		}

	case *ast.Heading:
		if entering {
			writer.separate()
			writer.bold++
		} else {
			writer.bold--
			writer.flush()
		}

	case *ast.Blockquote:
		if entering {
			writer.separate()
			writer.prefixes = append(writer.prefixes, writer.style().Foreground(writer.theme.BorderColor).Render("│ "))
		} else {
			writer.prefixes = writer.prefixes[:len(writer.prefixes)-1]
		}

	case *ast.List:
		if entering {
			writer.separate()
			writer.lists = append(writer.lists, listLevel{ordered: node.IsOrdered(), next: node.Start})
		} else {
			writer.lists = writer.lists[:len(writer.lists)-1]
		}

	case *ast.ListItem:
		if entering {
			level := &writer.lists[len(writer.lists)-1]
			marker := "- "
			if level.ordered {
				marker = fmt.Sprintf("%d. ", level.next)
				level.next++
			}
			writer.bullet = writer.prefix() + marker
			writer.prefixes = append(writer.prefixes, strings.Repeat(" ", len(marker)))
		} else {
			writer.prefixes = writer.prefixes[:len(writer.prefixes)-1]
		}

	case *ast.FencedCodeBlock:
		if entering {
			writer.separate()
			writer.emit(writer.highlight(writer.lines(node), string(node.Language(writer.source))))
		}
		return ast.WalkSkipChildren, nil

	case *ast.CodeBlock:
		if entering {
			writer.separate()
			writer.emit(writer.highlight(writer.lines(node), ""))
		}
		return ast.WalkSkipChildren, nil

	case *ast.ThematicBreak:
		if entering {
			writer.separate()
			writer.emit(writer.style().Foreground(writer.theme.BorderColor).Render(strings.Repeat("─", writer.available())))
		}

	case *ast.HTMLBlock, *ast.RawHTML:
		return ast.WalkSkipChildren, nil

	case *ast.Text:
		if entering {
			writer.inline.WriteString(writer.styled(string(node.Segment.Value(writer.source))))
			switch {
			case node.HardLineBreak():
				writer.inline.WriteString("\n")
			case node.SoftLineBreak():
				writer.inline.WriteString(" ")
			}
		}

	case *ast.String:
		if entering {
			writer.inline.WriteString(writer.styled(string(node.Value)))
		}

	case *ast.Emphasis:
		delta := -1
		if entering {
			delta = 1
		}
		if node.Level >= 2 {
			writer.bold += delta
		} else {
			writer.italic += delta
		}

	case *extast.Strikethrough:
		if entering {
			writer.strike++
		} else {
			writer.strike--
		}

	case *ast.CodeSpan:
		if entering {
			var code strings.Builder
			for child := node.FirstChild(); child != nil; child = child.NextSibling() {
				if textNode, ok := child.(*ast.Text); ok {
					code.Write(textNode.Segment.Value(writer.source))
				}
			}
			writer.inline.WriteString(writer.style().Foreground(writer.theme.AIAuthor).Render(code.String()))
		}
		return ast.WalkSkipChildren, nil

	case *ast.Link:
		if !entering && len(node.Destination) > 0 {
			writer.inline.WriteString(" " + writer.style().Foreground(writer.theme.FaintText).Render("("+string(node.Destination)+")"))
		}

	case *ast.AutoLink:
		if entering {
			writer.inline.WriteString(writer.style().Foreground(writer.theme.SupportAuthor).Underline(true).Render(string(node.URL(writer.source))))
		}
		return ast.WalkSkipChildren, nil
	}
	return ast.WalkContinue, nil
}
