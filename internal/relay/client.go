// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jeranaias/lingua-tui/internal/cloud"
	"github.com/jeranaias/lingua-tui/internal/model"
)

const (
	// DefaultURL is where a locally started relay listens.
	DefaultURL = "http://127.0.0.1:8787"

	// ChatPath is the relay endpoint for completions.
	ChatPath = "/api/chat"

	// DefaultTimeout bounds one relay round trip.
	DefaultTimeout = 90 * time.Second

	maxResponseSize = 10 * 1024 * 1024
)

// StatusError is returned when the relay answers with a non-200 status.
type StatusError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("relay returned HTTP %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("relay returned HTTP %d", e.Status)
}

type chatRequest struct {
	Messages []model.Message `json:"messages"`
}

type chatResponse struct {
	Result cloud.ChatResponse `json:"result"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Client sends conversations to a chat relay.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a relay client. An empty baseURL selects DefaultURL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// WithHTTPClient replaces the HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

// BaseURL returns the relay address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Complete posts messages to the relay and returns the assistant reply text.
// A relay answer without choices yields an empty string.
func (c *Client) Complete(ctx context.Context, messages []model.Message) (string, error) {
	body, err := json.Marshal(chatRequest{Messages: messages})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ChatPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("relay request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("failed to read relay response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var e errorResponse
		_ = json.Unmarshal(data, &e)
		return "", &StatusError{Status: resp.StatusCode, Message: e.Error}
	}

	var out chatResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("failed to decode relay response: %w", err)
	}
	return out.Result.GetContent(), nil
}
