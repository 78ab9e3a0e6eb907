// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jeranaias/lingua-tui/internal/model"
)

const okBody = `{
	"id": "cmpl-1",
	"model": "test-model",
	"choices": [{
		"message": {"role": "assistant", "content": "{\"original\":\"hi\",\"corrected\":\"Hi!\",\"explanation\":\"\"}\nHello!"},
		"finish_reason": "stop"
	}],
	"usage": {"prompt_tokens": 10, "completion_tokens": 20, "total_tokens": 30}
}`

// =============================================================================
// COMPLETE TESTS
// =============================================================================

func TestComplete_Success(t *testing.T) {
	var got ChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q, want /v1/chat/completions", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Authorization = %q, want Bearer test-key", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(okBody))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/v1/", "test-key").WithModel("test-model")
	msgs := []model.Message{model.NewSystemMessage("p"), model.NewUserMessage("hi")}

	comp, err := client.Complete(context.Background(), msgs)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	if got.Model != "test-model" {
		t.Errorf("request model = %q, want test-model", got.Model)
	}
	if len(got.Messages) != 2 || got.Messages[1] != msgs[1] {
		t.Errorf("request messages = %+v, want %+v", got.Messages, msgs)
	}
	if got.Stream {
		t.Error("request must not ask for streaming")
	}
	if comp.Response.ID != "cmpl-1" {
		t.Errorf("ID = %q, want cmpl-1", comp.Response.ID)
	}
	if string(comp.Raw) != okBody {
		t.Error("Raw must be the provider body unchanged")
	}
	if want := "{\"original\":\"hi\",\"corrected\":\"Hi!\",\"explanation\":\"\"}\nHello!"; comp.Content() != want {
		t.Errorf("Content() = %q, want %q", comp.Content(), want)
	}
}

func TestComplete_NotConfigured(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		key     string
	}{
		{"no key", "http://example.invalid", ""},
		{"no url", "", "key"},
	}

	for _, tt := range tests {
		_, err := NewClient(tt.baseURL, tt.key).Complete(context.Background(), nil)
		if !errors.Is(err, ErrNotConfigured) {
			t.Errorf("%s: error = %v, want ErrNotConfigured", tt.name, err)
		}
	}
}

func TestComplete_ErrorStatusNoRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":{"code":503,"message":"overloaded"}}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "k").Complete(context.Background(), []model.Message{model.NewUserMessage("x")})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusServiceUnavailable || apiErr.Message != "overloaded" || apiErr.Code != "503" {
		t.Errorf("APIError = %+v", apiErr)
	}
	if calls.Load() != 1 {
		t.Errorf("server called %d times, want exactly 1", calls.Load())
	}
}

func TestComplete_AuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "bad").Complete(context.Background(), []model.Message{model.NewUserMessage("x")})
	if !errors.Is(err, ErrAuthFailed) {
		t.Errorf("error = %v, want ErrAuthFailed", err)
	}
}

func TestComplete_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"x","choices":[]}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "k").Complete(context.Background(), []model.Message{model.NewUserMessage("x")})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("error = %v, want ErrEmptyResponse", err)
	}
}

func TestComplete_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewClient(server.URL, "k").Complete(ctx, []model.Message{model.NewUserMessage("x")})
	if err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(okBody))
	}))
	defer server.Close()

	text, err := NewClient(server.URL, "k").Reply(context.Background(), []model.Message{model.NewUserMessage("hi")})
	if err != nil {
		t.Fatalf("Reply() error = %v", err)
	}
	if text == "" {
		t.Error("Reply() returned empty text")
	}
}

// =============================================================================
// CONFIG TESTS
// =============================================================================

func TestClient_Builders(t *testing.T) {
	c := NewClient(" https://api.example.com/v1/ ", "  key  ")

	if c.BaseURL() != "https://api.example.com/v1" {
		t.Errorf("BaseURL() = %q", c.BaseURL())
	}
	if c.Model() != DefaultModel {
		t.Errorf("Model() = %q, want %q", c.Model(), DefaultModel)
	}
	c.WithModel("")
	if c.Model() != DefaultModel {
		t.Errorf("WithModel(\"\") changed the model to %q", c.Model())
	}
	if !c.IsConfigured() {
		t.Error("IsConfigured() = false, want true")
	}
	if fp := c.KeyFingerprint(); len(fp) != 8 {
		t.Errorf("KeyFingerprint() = %q, want 8 hex chars", fp)
	}
	if NewClient("", "").KeyFingerprint() != "none" {
		t.Error("KeyFingerprint() without key should be none")
	}
}
