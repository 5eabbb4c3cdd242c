// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package supportapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/bureau-foundation/supportchat/lib/netutil"
	"github.com/bureau-foundation/supportchat/lib/version"
)

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// BaseURL is the backend root, e.g. "http://127.0.0.1:5000".
	BaseURL string

	// HTTPClient is used for all requests. If nil, http.DefaultClient
	// is used. Per-request deadlines come from the caller's context.
	HTTPClient *http.Client

	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Client talks to the support backend. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient validates config and returns a Client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("supportapi: BaseURL is required")
	}
	parsed, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("supportapi: invalid BaseURL %q: %w", config.BaseURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("supportapi: BaseURL %q must be absolute", config.BaseURL)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// CloseIdleConnections drops pooled connections so the next request
// dials fresh. Call after a network disruption.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// Ticket fetches ticket metadata.
func (c *Client) Ticket(ctx context.Context, ticketID ID) (*Ticket, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/api/tickets/"+escape(ticketID)+"/single", nil)
	if err != nil {
		return nil, err
	}

	var ticket Ticket
	if err := json.Unmarshal(body, &ticket); err != nil {
		return nil, fmt.Errorf("supportapi: parsing ticket %s: %w", ticketID, err)
	}
	if ticket.ID.IsZero() {
		ticket.ID = ticketID
	}
	return &ticket, nil
}

// Messages fetches the ticket's full thread in server order. A ticket
// with no messages yields an empty, non-nil slice.
func (c *Client) Messages(ctx context.Context, ticketID ID) ([]Message, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/api/messages/"+escape(ticketID), nil)
	if err != nil {
		return nil, err
	}

	var messages []Message
	if err := json.Unmarshal(body, &messages); err != nil {
		return nil, fmt.Errorf("supportapi: parsing messages for ticket %s: %w", ticketID, err)
	}
	if messages == nil {
		messages = []Message{}
	}
	return messages, nil
}

// Modelfile fetches the tenant's prompt template.
func (c *Client) Modelfile(ctx context.Context, companyID ID) (string, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/api/ai/"+escape(companyID), nil)
	if err != nil {
		return "", err
	}

	var response modelfileResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("supportapi: parsing modelfile for company %s: %w", companyID, err)
	}
	return response.Modelfile, nil
}

// PostMessage appends a message to the ticket in message.TicketID.
// The request is not retried: the backend does not deduplicate.
func (c *Client) PostMessage(ctx context.Context, message NewMessage) error {
	if message.TicketID.IsZero() {
		return fmt.Errorf("supportapi: PostMessage requires a ticket ID")
	}
	_, err := c.doRequest(ctx, http.MethodPost, "/api/messages/"+escape(message.TicketID), message)
	return err
}

// PostRating records a 1-5 rating. Range checks are the caller's job;
// the backend is sent whatever it is given.
func (c *Client) PostRating(ctx context.Context, ticketID ID, rating int) error {
	_, err := c.doRequest(ctx, http.MethodPost, "/api/ratings/"+escape(ticketID),
		newRating{Rating: rating, TicketID: ticketID})
	return err
}

func escape(id ID) string {
	return url.PathEscape(string(id))
}

// doRequest sends one request and returns the body of a 2xx response.
// Every request carries an X-Request-ID so backend logs can be matched
// to client logs.
func (c *Client) doRequest(ctx context.Context, method, path string, requestBody any) ([]byte, error) {
	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := netutil.JSONBody(requestBody)
		if err != nil {
			return nil, fmt.Errorf("supportapi: %w", err)
		}
		bodyReader = encoded
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("supportapi: creating request: %w", err)
	}

	requestID := uuid.NewString()
	request.Header.Set("Accept", "application/json")
	request.Header.Set("User-Agent", version.UserAgent())
	request.Header.Set("X-Request-ID", requestID)
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("supportapi: %s %s: %w", method, path, err)
	}
	defer response.Body.Close()

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		responseBody, err := netutil.ReadResponse(response.Body)
		if err != nil {
			return nil, fmt.Errorf("supportapi: reading %s %s response: %w", method, path, err)
		}
		return responseBody, nil
	}

	apiErr := &APIError{
		StatusCode: response.StatusCode,
		Method:     method,
		Path:       path,
		Message:    errorMessage(netutil.ErrorBody(response.Body)),
	}
	c.logger.Debug("backend request failed",
		"method", method,
		"path", path,
		"status", response.StatusCode,
		"request_id", requestID,
	)
	return nil, apiErr
}

// errorMessage extracts {"error": ...} or {"message": ...} from a JSON
// error body and otherwise returns the body unchanged.
func errorMessage(body string) string {
	var structured struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal([]byte(body), &structured) == nil {
		if structured.Error != "" {
			return structured.Error
		}
		if structured.Message != "" {
			return structured.Message
		}
	}
	return body
}
