// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// logRecordMsg carries a log record into the model for display in the
// status line.
type logRecordMsg struct {
	Summary string
	Level   slog.Level
}

// logRecordFadeMsg clears the status line once a record has been
// visible for logRecordFadeDelay. Sequence ties it to the record that
// scheduled it so an older fade does not clear a newer record.
type logRecordFadeMsg struct {
	Sequence int
}

const logRecordFadeDelay = 5 * time.Second

// LogHandler is a slog.Handler that routes records into a running
// bubbletea program, where writing to stderr would corrupt the
// alternate screen. Records arriving before SetProgram are dropped.
//
// Handlers derived via WithAttrs/WithGroup share the program pointer
// of their root.
type LogHandler struct {
	level   slog.Leveler
	program *atomic.Pointer[tea.Program]
	attrs   []string
	group   string
}

// NewLogHandler returns a handler delivering records at or above level.
func NewLogHandler(level slog.Leveler) *LogHandler {
	return &LogHandler{
		level:   level,
		program: &atomic.Pointer[tea.Program]{},
	}
}

// SetProgram enables delivery. Safe to call from any goroutine.
func (handler *LogHandler) SetProgram(program *tea.Program) {
	handler.program.Store(program)
}

func (handler *LogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= handler.level.Level()
}

func (handler *LogHandler) Handle(_ context.Context, record slog.Record) error {
	program := handler.program.Load()
	if program == nil {
		return nil
	}
	program.Send(handler.format(record))
	return nil
}

// format renders "message (key=value, ...)" with handler attributes
// ahead of record attributes.
func (handler *LogHandler) format(record slog.Record) logRecordMsg {
	parts := append([]string(nil), handler.attrs...)
	record.Attrs(func(attr slog.Attr) bool {
		parts = append(parts, handler.pair(attr))
		return true
	})
	summary := record.Message
	if len(parts) > 0 {
		summary += " (" + strings.Join(parts, ", ") + ")"
	}
	return logRecordMsg{Summary: summary, Level: record.Level}
}

func (handler *LogHandler) pair(attr slog.Attr) string {
	key := attr.Key
	if handler.group != "" {
		key = handler.group + "." + key
	}
	return fmt.Sprintf("%s=%s", key, attr.Value.Resolve())
}

func (handler *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	derived := handler.clone()
	for _, attr := range attrs {
		derived.attrs = append(derived.attrs, handler.pair(attr))
	}
	return derived
}

func (handler *LogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return handler
	}
	derived := handler.clone()
	if derived.group != "" {
		derived.group += "." + name
	} else {
		derived.group = name
	}
	return derived
}

func (handler *LogHandler) clone() *LogHandler {
	return &LogHandler{
		level:   handler.level,
		program: handler.program,
		attrs:   append([]string(nil), handler.attrs...),
		group:   handler.group,
	}
}
