// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jeranaias/lingua-tui/internal/logging"
	"github.com/jeranaias/lingua-tui/internal/model"
)

// Configuration constants for the completion API.
const (
	// DefaultModel is the model requested when none is configured.
	DefaultModel = "meta-llama/Llama-3.1-8B-Instruct"

	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	MaxResponseSize = 10 * 1024 * 1024
)

// Error variables for common provider errors.
var (
	// ErrNotConfigured indicates the base URL or API key is not set.
	ErrNotConfigured = errors.New("completion API not configured")

	// ErrAuthFailed indicates authentication failed (invalid or expired API key).
	ErrAuthFailed = errors.New("authentication failed")

	// ErrEmptyResponse indicates the provider returned no choices.
	ErrEmptyResponse = errors.New("completion has no choices")
)

// APIError represents a non-success response from the provider.
type APIError struct {
	Code    string
	Message string
	Status  int
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("provider error [%s] (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("provider error (HTTP %d): %s", e.Status, e.Message)
}

// Unwrap maps authentication failures onto ErrAuthFailed.
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden {
		return ErrAuthFailed
	}
	return nil
}

// =============================================================================
// WIRE TYPES
// =============================================================================

// ChatRequest represents a request to the chat completions endpoint.
type ChatRequest struct {
	Model    string          `json:"model"`
	Messages []model.Message `json:"messages"`
	Stream   bool            `json:"stream"`
}

// ChatResponse is the subset of a chat completion the client reads.
type ChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      model.Message `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// GetContent returns the content of the first choice, or empty string if none.
func (r *ChatResponse) GetContent() string {
	if len(r.Choices) > 0 {
		return r.Choices[0].Message.Content
	}
	return ""
}

// Completion is a provider reply: the body exactly as received plus its
// decoded form.
type Completion struct {
	Raw      json.RawMessage
	Response ChatResponse
}

// Content returns the first choice's message content.
func (c *Completion) Content() string {
	return c.Response.GetContent()
}

// apiErrorResponse represents an error response from the API.
type apiErrorResponse struct {
	Error struct {
		Code    json.RawMessage `json:"code"`
		Message string          `json:"message"`
	} `json:"error"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to an OpenAI-compatible chat completions endpoint. Each call is
// one independent round trip; there is no retry and no caching.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewClient creates a client for baseURL authenticated with apiKey.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		model:      DefaultModel,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// WithBaseURL sets a custom base URL for the API.
func (c *Client) WithBaseURL(url string) *Client {
	c.baseURL = strings.TrimSuffix(url, "/")
	return c
}

// WithModel sets the model requested for every completion.
func (c *Client) WithModel(name string) *Client {
	if name != "" {
		c.model = name
	}
	return c
}

// WithTimeout sets the request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	if timeout > 0 {
		c.httpClient.Timeout = timeout
	}
	return c
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// IsConfigured returns true if both the base URL and the API key are set.
func (c *Client) IsConfigured() bool {
	return c.baseURL != "" && c.apiKey != ""
}

// KeyFingerprint returns a short SHA-256 fingerprint of the API key so that
// logs can tell keys apart without exposing them.
func (c *Client) KeyFingerprint() string {
	if c.apiKey == "" {
		return "none"
	}
	h := sha256.Sum256([]byte(c.apiKey))
	return hex.EncodeToString(h[:4])
}

// Complete sends messages as-is and returns the provider's completion.
func (c *Client) Complete(ctx context.Context, messages []model.Message) (*Completion, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	bodyBytes, err := json.Marshal(ChatRequest{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	logging.Debugf("API_REQUEST | model=%s messages=%d key=%s", c.model, len(messages), c.KeyFingerprint())
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)
	if err != nil {
		return nil, err
	}

	logging.Debugf("API_RESPONSE | status=%d latency=%dms bytes=%d", resp.StatusCode, time.Since(start).Milliseconds(), len(body))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseErrorResponse(resp.StatusCode, body)
	}

	comp := &Completion{Raw: json.RawMessage(body)}
	if err := json.Unmarshal(body, &comp.Response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(comp.Response.Choices) == 0 {
		return nil, ErrEmptyResponse
	}
	return comp, nil
}

// Reply is Complete reduced to the first choice's text.
func (c *Client) Reply(ctx context.Context, messages []model.Message) (string, error) {
	comp, err := c.Complete(ctx, messages)
	if err != nil {
		return "", err
	}
	return comp.Content(), nil
}

// readResponse reads the response body up to MaxResponseSize.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(body) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// parseErrorResponse converts an error body into an *APIError. Providers
// disagree on whether error.code is a string or a number, so both are read.
func parseErrorResponse(status int, body []byte) error {
	apiErr := &APIError{Status: status, Message: http.StatusText(status)}

	var parsed apiErrorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		apiErr.Message = parsed.Error.Message
		apiErr.Code = strings.Trim(string(parsed.Error.Code), `"`)
		if apiErr.Code == "null" {
			apiErr.Code = ""
		}
	}
	return apiErr
}
