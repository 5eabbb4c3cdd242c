// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides bounded HTTP body helpers shared by the
// support backend client and the LLM providers.
//
// Every JSON response body is read through [MaxResponseSize] so that a
// misbehaving backend cannot exhaust memory. Streaming responses are
// not read through these helpers.
package netutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// MaxResponseSize bounds JSON response body reads: 32 MB. A ticket
// with its full message history is orders of magnitude smaller.
const MaxResponseSize int64 = 32 << 20

// maxErrorBody bounds how much of an error body ends up in an error
// message.
const maxErrorBody = 4 << 10

// ReadResponse reads a JSON response body up to MaxResponseSize bytes.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}

// DecodeResponse reads a response body and JSON-decodes it into v.
func DecodeResponse(body io.Reader, v any) error {
	data, err := ReadResponse(body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	return json.Unmarshal(data, v)
}

// ErrorBody returns a trimmed, truncated rendering of an error body for
// diagnostics. Read errors are ignored.
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, maxErrorBody+1))
	truncated := len(data) > maxErrorBody
	if truncated {
		data = data[:maxErrorBody]
	}
	text := strings.TrimSpace(string(data))
	if truncated {
		text += "..."
	}
	return text
}

// JSONBody encodes v as a request body.
func JSONBody(v any) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}
	return bytes.NewReader(data), nil
}
