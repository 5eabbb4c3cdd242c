// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package llm turns a prompt into generated text.
//
// The chat core only needs single-shot, non-streaming generation: the
// tenant's modelfile concatenated with the agent's prompt goes in, one
// reply comes out. [Generator] captures exactly that. Implementations:
//
//   - [Ollama]: POST {model, stream: false, prompt} to /api/generate,
//     reply in the "response" field. This is the default backend.
//   - [OpenAI]: any OpenAI-compatible /v1/chat/completions server
//     (OpenAI, vLLM, llama.cpp, OpenRouter).
//   - [Anthropic]: the Messages API.
//   - [Gemini]: Google's Gemini API through the genai SDK.
//
// [Throttle] wraps any Generator with a token-bucket limit.
//
// HTTP-based providers return [*ProviderError] for non-2xx responses
// and [ErrEmptyResponse] when the provider answered with no text.
// Callers decide what a failure means; the chat core falls back to
// sending the prompt verbatim.
package llm
