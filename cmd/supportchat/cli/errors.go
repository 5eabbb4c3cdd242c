// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ErrorCategory classifies a command failure for the exit code.
type ErrorCategory int

const (
	CategoryInternal ErrorCategory = iota
	CategoryValidation
	CategoryNotFound
	CategoryUnavailable
)

// exitCodes follows sysexits.h where a code fits.
var exitCodes = map[ErrorCategory]int{
	CategoryInternal:    1,
	CategoryValidation:  64,
	CategoryNotFound:    66,
	CategoryUnavailable: 69,
}

// ToolError is a command failure with a category and an optional hint
// printed under the message.
type ToolError struct {
	Category ErrorCategory
	Err      error
	Hint     string
}

func (e *ToolError) Error() string { return e.Err.Error() }

func (e *ToolError) Unwrap() error { return e.Err }

// ExitCode maps the category to a process exit code.
func (e *ToolError) ExitCode() int { return exitCodes[e.Category] }

// WithHint sets the hint and returns e.
func (e *ToolError) WithHint(hint string) *ToolError {
	e.Hint = hint
	return e
}

// Validation reports bad input from the user.
func Validation(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryValidation, Err: fmt.Errorf(format, args...)}
}

// NotFound reports a ticket or file that does not exist.
func NotFound(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryNotFound, Err: fmt.Errorf(format, args...)}
}

// Unavailable reports a backend that could not be reached.
func Unavailable(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryUnavailable, Err: fmt.Errorf(format, args...)}
}

// ExitError ends the process with Code without printing anything; the
// command has already written its own output.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string { return fmt.Sprintf("exit code %d", e.Code) }

func (e *ExitError) ExitCode() int { return e.Code }
