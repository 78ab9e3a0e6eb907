// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jeranaias/lingua-tui/internal/cloud"
	"github.com/jeranaias/lingua-tui/internal/logging"
	"github.com/jeranaias/lingua-tui/internal/model"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultHost is the interface the relay binds to by default.
	DefaultHost = "127.0.0.1"

	// DefaultPort is the default port for the relay.
	DefaultPort = 8787

	// MaxRequestBodySize caps the size of a /api/chat request body (1 MiB).
	MaxRequestBodySize = 1 << 20

	// GenericErrorMessage is the only error text a caller ever sees.
	GenericErrorMessage = "Something went wrong."
)

// errBadRequest marks failures caused by the request rather than the provider.
var errBadRequest = errors.New("bad request")

// ============================================================================
// WIRE TYPES
// ============================================================================

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Messages []model.Message `json:"messages"`
}

// ChatResponse wraps the provider completion exactly as it was received.
type ChatResponse struct {
	Result json.RawMessage `json:"result"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Completer produces a chat completion. *cloud.Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, messages []model.Message) (*cloud.Completion, error)
}

// ============================================================================
// SERVER STATS
// ============================================================================

// Stats tracks relay usage since start.
type Stats struct {
	Requests  int64     `json:"requests"`
	Failures  int64     `json:"failures"`
	Tokens    int64     `json:"tokens"`
	StartTime time.Time `json:"start_time"`
}

type stats struct {
	requests atomic.Int64
	failures atomic.Int64
	tokens   atomic.Int64
	start    time.Time
}

func (s *stats) snapshot() Stats {
	return Stats{
		Requests:  s.requests.Load(),
		Failures:  s.failures.Load(),
		Tokens:    s.tokens.Load(),
		StartTime: s.start,
	}
}

// ============================================================================
// SERVER
// ============================================================================

// Server is the chat relay: it forwards a conversation to the provider so the
// API key never leaves this process.
type Server struct {
	host     string
	port     int
	router   *http.ServeMux
	server   *http.Server
	provider Completer
	cors     *CORSConfig
	logger   *log.Logger
	stats    *stats
	mu       sync.RWMutex
}

// NewServer creates a relay bound to host:port. A zero port selects DefaultPort.
func NewServer(host string, port int, provider Completer) *Server {
	if host == "" {
		host = DefaultHost
	}
	if port == 0 {
		port = DefaultPort
	}
	s := &Server{
		host:     host,
		port:     port,
		router:   http.NewServeMux(),
		provider: provider,
		cors:     DefaultCORSConfig(),
		logger:   logging.Logger(),
		stats:    &stats{start: time.Now()},
	}
	s.setupRoutes()
	return s
}

// WithCORS replaces the CORS configuration.
func (s *Server) WithCORS(config *CORSConfig) *Server {
	if config != nil {
		s.cors = config
	}
	return s
}

// WithAllowedOrigins replaces only the CORS origin allowlist.
func (s *Server) WithAllowedOrigins(origins []string) *Server {
	if len(origins) > 0 {
		s.cors.AllowedOrigins = origins
	}
	return s
}

// WithLogger sets the logger used for request and error lines.
func (s *Server) WithLogger(logger *log.Logger) *Server {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Addr returns the host:port the server listens on.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.host, strconv.Itoa(s.port))
}

// Stats returns a snapshot of the relay counters.
func (s *Server) Stats() Stats {
	return s.stats.snapshot()
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("POST /api/chat", s.handleChat)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /stats", s.handleStats)
}

// Handler returns the router wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	return Chain(
		RecoveryMiddleware(s.logger),
		SecurityHeadersMiddleware(),
		LoggingMiddleware(s.logger),
		CORSMiddleware(s.cors),
	)(s.router)
}

// Start listens and serves until Shutdown is called.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.Addr(), err)
	}
	return s.Serve(ln)
}

// Serve serves on an existing listener. http.ErrServerClosed is reported as nil.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	s.server = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	srv := s.server
	s.mu.Unlock()

	logging.Infof("SERVER_START | addr=%s", ln.Addr())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	srv := s.server
	s.mu.RUnlock()

	if srv == nil {
		return nil
	}
	logging.Infof("SERVER_STOP | addr=%s", s.Addr())
	return srv.Shutdown(ctx)
}

// ============================================================================
// HANDLERS
// ============================================================================

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	s.stats.requests.Add(1)

	messages, err := decodeChatRequest(w, r)
	if err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}

	if s.provider == nil {
		s.fail(w, http.StatusInternalServerError, cloud.ErrNotConfigured)
		return
	}

	comp, err := s.provider.Complete(r.Context(), messages)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}

	s.stats.tokens.Add(int64(comp.Response.Usage.TotalTokens))
	logging.Debugf("RELAY_OK | messages=%d tokens=%d", len(messages), comp.Response.Usage.TotalTokens)
	writeJSON(w, http.StatusOK, ChatResponse{Result: comp.Raw})
}

func decodeChatRequest(w http.ResponseWriter, r *http.Request) ([]model.Message, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty body", errBadRequest)
		}
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("%w: no messages", errBadRequest)
	}
	if err := model.ValidateMessages(req.Messages); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return req.Messages, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Stats())
}

// fail logs err with its detail and answers with the generic error body.
func (s *Server) fail(w http.ResponseWriter, status int, err error) {
	s.stats.failures.Add(1)
	logging.Errorf("RELAY_ERROR | status=%d error=%v", status, err)
	writeError(w, status)
}

// ============================================================================
// HELPERS
// ============================================================================

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warnf("RESPONSE_ENCODE_FAILED | error=%v", err)
	}
}

func writeError(w http.ResponseWriter, status int) {
	writeJSON(w, status, ErrorResponse{Error: GenericErrorMessage})
}
