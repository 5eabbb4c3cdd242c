// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads supportchat configuration.
//
// Configuration comes from one file named either by the
// SUPPORTCHAT_CONFIG environment variable ([Load]) or by the --config
// flag ([LoadFile]). YAML is the primary format; files ending in .json
// or .jsonc are parsed as JSON with comments and trailing commas.
// Without a file, [Default] gives a working local setup: backend at
// http://127.0.0.1:5000, Ollama llama3.2:latest for AI replies, and a
// 3s poll interval.
//
// A file may carry development, staging, and production sections that
// override base values when [Config].Environment matches.
//
// After loading, ${VAR} and ${VAR:-default} references in URL and key
// fields are expanded. [LoadDotenv] populates the process environment
// from .env files first, without overriding variables already set.
//
// Durations are strings in time.ParseDuration syntax ("3s", "750ms").
package config
