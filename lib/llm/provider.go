// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/bureau-foundation/supportchat/lib/netutil"
)

// ProviderError is returned when a provider responds with a non-2xx
// status.
type ProviderError struct {
	StatusCode int

	// Type is the provider-specific error type, when the body had one
	// (e.g. "rate_limit_error").
	Type string

	Message string
}

func (err *ProviderError) Error() string {
	if err.Type != "" {
		return fmt.Sprintf("llm: HTTP %d: %s: %s", err.StatusCode, err.Type, err.Message)
	}
	return fmt.Sprintf("llm: HTTP %d: %s", err.StatusCode, err.Message)
}

// IsRateLimited reports an HTTP 429.
func (err *ProviderError) IsRateLimited() bool {
	return err.StatusCode == http.StatusTooManyRequests
}

// doProviderRequest POSTs wireRequest as JSON to endpoint. On success
// the caller closes the response body; on error it is already closed.
func doProviderRequest(ctx context.Context, httpClient *http.Client, endpoint string, wireRequest any, prefix string, headers map[string]string) (*http.Response, error) {
	body, err := netutil.JSONBody(wireRequest)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", prefix, err)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("%s: creating request: %w", prefix, err)
	}
	httpRequest.Header.Set("Content-Type", "application/json")
	for name, value := range headers {
		httpRequest.Header.Set(name, value)
	}

	httpResponse, err := httpClient.Do(httpRequest)
	if err != nil {
		return nil, fmt.Errorf("%s: sending request: %w", prefix, err)
	}

	if httpResponse.StatusCode < 200 || httpResponse.StatusCode >= 300 {
		defer httpResponse.Body.Close()
		return nil, readProviderError(httpResponse)
	}

	return httpResponse, nil
}

// wireResponse is implemented by pointer-to-struct wire types that can
// extract the generated text.
type wireResponse[T any] interface {
	*T
	text() string
	model() string
}

// decodeResponse decodes a provider's JSON body and extracts the
// generation. The body is closed when this returns.
func decodeResponse[T any, P wireResponse[T]](httpResponse *http.Response, prefix string) (*Generation, error) {
	defer httpResponse.Body.Close()

	wire := P(new(T))
	if err := netutil.DecodeResponse(httpResponse.Body, wire); err != nil {
		return nil, fmt.Errorf("%s: decoding response: %w", prefix, err)
	}
	return nonEmpty(wire.text(), wire.model(), prefix)
}

// readProviderError parses the two error shapes seen in practice:
// {"error":{"type":"...","message":"..."}} from OpenAI-style APIs and
// {"error":"..."} from Ollama. Anything else is reported verbatim.
func readProviderError(httpResponse *http.Response) error {
	body := netutil.ErrorBody(httpResponse.Body)

	var structured struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal([]byte(body), &structured) == nil && structured.Error.Message != "" {
		return &ProviderError{
			StatusCode: httpResponse.StatusCode,
			Type:       structured.Error.Type,
			Message:    structured.Error.Message,
		}
	}

	var flat struct {
		Error string `json:"error"`
	}
	if json.Unmarshal([]byte(body), &flat) == nil && flat.Error != "" {
		return &ProviderError{StatusCode: httpResponse.StatusCode, Message: flat.Error}
	}

	return &ProviderError{StatusCode: httpResponse.StatusCode, Message: body}
}

func orDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
