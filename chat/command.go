// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import "strings"

// CommandKind is the path an input takes.
type CommandKind int

const (
	// CommandPlain sends the text as typed.
	CommandPlain CommandKind = iota

	// CommandAIPrompt sends the text (prefix included) to the AI
	// gateway and posts the reply instead.
	CommandAIPrompt
)

func (kind CommandKind) String() string {
	switch kind {
	case CommandPlain:
		return "plain"
	case CommandAIPrompt:
		return "ai_prompt"
	default:
		return "unknown"
	}
}

// Command is a parsed input. Text is always the raw input, unchanged.
type Command struct {
	Kind CommandKind
	Text string
}

// PrefixRule maps a literal input prefix to a command kind.
type PrefixRule struct {
	Prefix string
	Kind   CommandKind

	// SupportOnly restricts the rule to support agents. Customers get
	// CommandPlain for matching input.
	SupportOnly bool
}

// Grammar is an ordered prefix table. The first matching rule wins;
// input matching none is CommandPlain.
type Grammar struct {
	rules []PrefixRule
}

// NewGrammar returns a Grammar with the given rules, in priority order.
func NewGrammar(rules ...PrefixRule) *Grammar {
	return &Grammar{rules: append([]PrefixRule(nil), rules...)}
}

// DefaultGrammar has one rule: '>' asks the AI, for support agents only.
var DefaultGrammar = NewGrammar(PrefixRule{Prefix: ">", Kind: CommandAIPrompt, SupportOnly: true})

// Parse classifies text ignoring role restrictions.
func (grammar *Grammar) Parse(text string) Command {
	for _, rule := range grammar.rules {
		if strings.HasPrefix(text, rule.Prefix) {
			return Command{Kind: rule.Kind, Text: text}
		}
	}
	return Command{Kind: CommandPlain, Text: text}
}

// Route classifies text for a viewer of the given role.
func (grammar *Grammar) Route(role Role, text string) Command {
	for _, rule := range grammar.rules {
		if !strings.HasPrefix(text, rule.Prefix) {
			continue
		}
		if rule.SupportOnly && role != RoleSupport {
			return Command{Kind: CommandPlain, Text: text}
		}
		return Command{Kind: rule.Kind, Text: text}
	}
	return Command{Kind: CommandPlain, Text: text}
}

// ParseCommand classifies text with DefaultGrammar.
func ParseCommand(text string) Command { return DefaultGrammar.Parse(text) }

// Route classifies text with DefaultGrammar for the given role.
func Route(role Role, text string) Command { return DefaultGrammar.Route(role, text) }
