// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server implements the local HTTP API that bridges chat clients to Ollama.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/ricky/internal/ollama"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultHost is the interface the server binds to. Loopback only: the
	// API is unauthenticated and must not be reachable from other machines.
	DefaultHost = "127.0.0.1"

	// DefaultPort is the port chat clients connect to.
	DefaultPort = 8000

	// Version is reported by the health endpoint.
	Version = "0.1.0"

	// MaxMessageLength caps a single message, in bytes.
	MaxMessageLength = 100000

	// MaxHistoryCount caps the number of prior messages accepted per request.
	MaxHistoryCount = 100

	// MaxRequestBodySize caps the request body read off the wire.
	MaxRequestBodySize = 1 << 20

	// MinTemperature and MaxTemperature bound the sampling temperature.
	MinTemperature = 0.0
	MaxTemperature = 1.0
)

// validRoles are the message roles accepted in conversation history.
var validRoles = map[string]bool{
	"user":      true,
	"assistant": true,
}

// =============================================================================
// WIRE TYPES
// =============================================================================

// ChatMessage is one turn of conversation history.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body accepted by the stream and complete endpoints.
// Model and Temperature are optional; the server's defaults apply when they
// are omitted.
type ChatRequest struct {
	Message     string        `json:"message"`
	History     []ChatMessage `json:"history"`
	Model       string        `json:"model"`
	Temperature *float64      `json:"temperature"`
	Stream      bool          `json:"stream"`
}

// ChatResponse is the non-streaming completion result.
type ChatResponse struct {
	Response    string `json:"response"`
	Model       string `json:"model"`
	TotalTokens int    `json:"total_tokens"`
}

// StreamEvent is one SSE data payload carrying generated text. The final
// event of a successful stream has an empty Chunk and Done set.
type StreamEvent struct {
	Chunk string `json:"chunk"`
	Done  bool   `json:"done"`
}

// StreamError is the SSE data payload sent when generation fails after the
// stream has started. It is always terminal.
type StreamError struct {
	Error string `json:"error"`
	Done  bool   `json:"done"`
}

// ModelEntry describes one installed model to clients.
type ModelEntry struct {
	Name              string `json:"name"`
	Provider          string `json:"provider"`
	Type              string `json:"type"`
	Description       string `json:"description"`
	SupportsStreaming bool   `json:"supports_streaming"`
	SupportsTools     bool   `json:"supports_tools"`
	Status            string `json:"status"`
}

// ModelsResponse lists installed models and the server's default.
type ModelsResponse struct {
	Models  []ModelEntry `json:"models"`
	Default string       `json:"default"`
}

// StatusResponse reports whether the chat service is ready to serve.
type StatusResponse struct {
	Status  string `json:"status"`
	Ollama  string `json:"ollama"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// HealthResponse is the liveness report. Status is always "healthy" when the
// server can answer at all; upstream trouble shows in the Ollama field.
type HealthResponse struct {
	Status         string `json:"status"`
	Ollama         string `json:"ollama"`
	Version        string `json:"version"`
	UptimeSeconds  int64  `json:"uptime_seconds"`
	RequestsServed int64  `json:"requests_served"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// =============================================================================
// STATS
// =============================================================================

// ServerStats tracks request counts and token throughput since startup.
type ServerStats struct {
	mu               sync.Mutex
	startTime        time.Time
	streamRequests   int64
	completeRequests int64
	totalTokens      int64
}

// NewServerStats creates stats with the clock started now.
func NewServerStats() *ServerStats {
	return &ServerStats{startTime: time.Now()}
}

// RecordStream counts one streaming request and its completion tokens.
func (st *ServerStats) RecordStream(tokens int) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.streamRequests++
	st.totalTokens += int64(tokens)
}

// RecordComplete counts one non-streaming request and its total tokens.
func (st *ServerStats) RecordComplete(tokens int) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.completeRequests++
	st.totalTokens += int64(tokens)
}

// RequestsServed returns the total chat requests handled.
func (st *ServerStats) RequestsServed() int64 {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.streamRequests + st.completeRequests
}

// TotalTokens returns the tokens generated across all requests.
func (st *ServerStats) TotalTokens() int64 {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.totalTokens
}

// Uptime returns how long the server has been running.
func (st *ServerStats) Uptime() time.Duration {
	return time.Since(st.startTime)
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config holds server settings. Zero values fall back to defaults.
type Config struct {
	Host               string
	Port               int
	OllamaURL          string
	OllamaTimeout      time.Duration
	DefaultModel       string
	DefaultTemperature float64
	AllowedOrigins     []string
	RateLimitPerSecond float64
	RateBurst          int
	Logger             *log.Logger
}

// DefaultConfig returns the settings used when none are supplied.
func DefaultConfig() *Config {
	return &Config{
		Host:               DefaultHost,
		Port:               DefaultPort,
		OllamaTimeout:      120 * time.Second,
		DefaultModel:       "llama3.2",
		DefaultTemperature: 0.7,
		AllowedOrigins:     DefaultCORSConfig().AllowedOrigins,
		RateLimitPerSecond: 5,
		RateBurst:          10,
	}
}

// =============================================================================
// SERVER
// =============================================================================

// Server is the local chat API. It validates requests, fills in defaults,
// and relays generation to Ollama, translating its NDJSON stream into SSE.
type Server struct {
	addr     string
	mux      *http.ServeMux
	upstream *ollama.Client
	stats    *ServerStats
	logger   *log.Logger
	limiter  *IPRateLimiter
	cors     *CORSConfig

	mu                 sync.RWMutex
	defaultModel       string
	defaultTemperature float64

	httpServer *http.Server
}

// NewServer builds a server from cfg. A nil cfg uses DefaultConfig, and any
// zero field falls back to its default.
func NewServer(cfg *Config) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.OllamaTimeout == 0 {
		cfg.OllamaTimeout = 120 * time.Second
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "llama3.2"
	}
	if cfg.DefaultTemperature == 0 {
		cfg.DefaultTemperature = 0.7
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = DefaultCORSConfig().AllowedOrigins
	}
	if cfg.RateLimitPerSecond == 0 {
		cfg.RateLimitPerSecond = 5
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = 10
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	cors := DefaultCORSConfig()
	cors.AllowedOrigins = cfg.AllowedOrigins

	s := &Server{
		addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		upstream: ollama.NewClientWithConfig(&ollama.ClientConfig{
			BaseURL:      cfg.OllamaURL,
			Timeout:      cfg.OllamaTimeout,
			DefaultModel: cfg.DefaultModel,
		}),
		stats:              NewServerStats(),
		logger:             cfg.Logger,
		limiter:            NewIPRateLimiter(cfg.RateLimitPerSecond, cfg.RateBurst),
		cors:               cors,
		defaultModel:       cfg.DefaultModel,
		defaultTemperature: cfg.DefaultTemperature,
	}
	s.mux = s.routes()
	return s
}

// Addr returns the host:port the server binds to.
func (s *Server) Addr() string {
	return s.addr
}

// SetDefaults replaces the fallback model and temperature applied to requests
// that do not specify their own. Called on configuration reload.
func (s *Server) SetDefaults(model string, temperature float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if model != "" {
		s.defaultModel = model
	}
	s.defaultTemperature = temperature
}

// Defaults returns the current fallback model and temperature.
func (s *Server) Defaults() (model string, temperature float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaultModel, s.defaultTemperature
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/chat/stream", s.handleChatStream)
	mux.HandleFunc("POST /api/v1/chat/complete", s.handleChatComplete)
	mux.HandleFunc("GET /api/v1/chat/models", s.handleModels)
	mux.HandleFunc("GET /api/v1/chat/status", s.handleStatus)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleRoot)
	return mux
}

// Handler returns the full handler with middleware applied. Exposed so tests
// can drive the server without binding a port.
func (s *Server) Handler() http.Handler {
	chain := Chain(
		RecoveryMiddleware(s.logger),
		LoggingMiddleware(s.logger),
		CORSMiddleware(s.cors),
		RateLimitMiddleware(s.limiter),
	)
	return chain(s.mux)
}

// Start runs the server until Shutdown is called or the listener fails.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:        s.addr,
		Handler:     s.Handler(),
		ReadTimeout: 30 * time.Second,
		// No WriteTimeout: streaming responses stay open for the life of
		// the generation.
		IdleTimeout: 120 * time.Second,
	}

	s.logger.Printf("SERVER_START | addr=%s ollama=%s", s.addr, s.upstream.BaseURL())
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Printf("SERVER_STOP | addr=%s", s.addr)
	return s.httpServer.Shutdown(ctx)
}

// =============================================================================
// CHAT HANDLERS
// =============================================================================

// handleChatStream relays a generation to the client as server-sent events.
// Failures after the stream opens are reported as a terminal error event on
// the 200 response, because the status line is already gone.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeChatRequest(w, r)
	if !ok {
		return
	}
	model, temperature := s.resolveDefaults(req)
	messages := buildMessages(req)

	sse, err := NewSSEWriter(w)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	id := newRequestID()
	s.logger.Printf("STREAM_START | id=%s model=%s messages=%d temp=%.2f",
		id, model, len(messages), temperature)

	start := time.Now()
	var chunks, tokens int
	var failed bool

	err = s.upstream.ChatStream(r.Context(), model, messages,
		&ollama.Options{Temperature: temperature},
		func(chunk ollama.StreamChunk) {
			switch {
			case chunk.Error != nil:
				failed = true
				s.logger.Printf("STREAM_UPSTREAM_ERROR | id=%s error=%v", id, chunk.Error)
				sse.Send(StreamError{Error: chunk.Error.Error(), Done: true})
			case chunk.Done:
				tokens = chunk.CompletionTokens
			case chunk.Content != "":
				chunks++
				sse.Send(StreamEvent{Chunk: chunk.Content})
			}
		})

	switch {
	case err == nil && !failed:
		sse.Send(StreamEvent{Done: true})
		s.stats.RecordStream(tokens)
		s.logger.Printf("STREAM_COMPLETE | id=%s chunks=%d tokens=%d latency=%dms",
			id, chunks, tokens, time.Since(start).Milliseconds())
	case err == nil:
		s.stats.RecordStream(tokens)
	case errors.Is(err, context.Canceled):
		// Client stopped the generation or went away. Nothing to send.
		s.stats.RecordStream(tokens)
		s.logger.Printf("STREAM_CANCELLED | id=%s chunks=%d", id, chunks)
	default:
		s.stats.RecordStream(tokens)
		s.logger.Printf("STREAM_ERROR | id=%s error=%v", id, err)
		sse.Send(StreamError{Error: err.Error(), Done: true})
	}
}

// handleChatComplete returns the whole generation in one JSON response.
func (s *Server) handleChatComplete(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeChatRequest(w, r)
	if !ok {
		return
	}
	model, temperature := s.resolveDefaults(req)
	messages := buildMessages(req)

	id := newRequestID()
	start := time.Now()

	resp, err := s.upstream.Chat(r.Context(), model, messages,
		&ollama.Options{Temperature: temperature})
	if err != nil {
		s.logger.Printf("COMPLETE_ERROR | id=%s model=%s error=%v", id, model, err)
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.stats.RecordComplete(resp.TotalTokens())
	s.logger.Printf("COMPLETE | id=%s model=%s tokens=%d latency=%dms",
		id, model, resp.TotalTokens(), time.Since(start).Milliseconds())

	writeJSON(w, http.StatusOK, ChatResponse{
		Response:    resp.Message.Content,
		Model:       model,
		TotalTokens: resp.TotalTokens(),
	})
}

// =============================================================================
// INFO HANDLERS
// =============================================================================

// handleModels lists installed models. An unreachable Ollama yields an empty
// list rather than an error so clients can still render their model picker.
func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	entries := []ModelEntry{}
	infos, err := s.upstream.ListModels(ctx)
	if err != nil {
		s.logger.Printf("MODELS_UNAVAILABLE | error=%v", err)
	} else {
		for _, info := range infos {
			entries = append(entries, modelEntry(info))
		}
	}

	s.mu.RLock()
	def := s.defaultModel
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, ModelsResponse{Models: entries, Default: def})
}

// handleStatus reports readiness. The HTTP status is always 200; readers
// look at the body.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.upstream.CheckRunning(ctx); err != nil {
		writeJSON(w, http.StatusOK, StatusResponse{
			Status:  "unhealthy",
			Ollama:  "disconnected",
			Message: "Chat service is not ready",
			Error:   fmt.Sprintf("Ollama not accessible at %s: %v", s.upstream.BaseURL(), err),
		})
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{
		Status:  "healthy",
		Ollama:  "connected",
		Message: "Chat service is ready",
	})
}

// handleHealth reports server liveness plus a best-effort upstream probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	ollamaState := "connected"
	if err := s.upstream.CheckRunning(ctx); err != nil {
		ollamaState = "disconnected: " + err.Error()
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:         "healthy",
		Ollama:         ollamaState,
		Version:        Version,
		UptimeSeconds:  int64(s.stats.Uptime().Seconds()),
		RequestsServed: s.stats.RequestsServed(),
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Ricky Backend is running!",
		"status":  "healthy",
	})
}

// =============================================================================
// REQUEST HELPERS
// =============================================================================

// decodeChatRequest reads, parses, and validates a chat request body. On
// failure it writes the error response and returns false.
func (s *Server) decodeChatRequest(w http.ResponseWriter, r *http.Request) (ChatRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSONError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("Request body exceeds maximum size of %d bytes", MaxRequestBodySize))
			return req, false
		}
		s.logger.Printf("BAD_REQUEST | invalid body: %v", err)
		writeJSONError(w, http.StatusBadRequest, "Invalid request format")
		return req, false
	}

	if msg := validateChatRequest(&req); msg != "" {
		s.logger.Printf("BAD_REQUEST | reason=%s", msg)
		writeJSONError(w, http.StatusBadRequest, msg)
		return req, false
	}
	return req, true
}

// validateChatRequest returns a client-facing problem description, or "" when
// the request is acceptable.
func validateChatRequest(req *ChatRequest) string {
	if strings.TrimSpace(req.Message) == "" {
		return "Message cannot be empty"
	}
	if len(req.Message) > MaxMessageLength {
		return fmt.Sprintf("Message exceeds maximum length of %d", MaxMessageLength)
	}
	if len(req.History) > MaxHistoryCount {
		return fmt.Sprintf("Too many history messages: maximum is %d", MaxHistoryCount)
	}
	for i, msg := range req.History {
		if !validRoles[msg.Role] {
			return fmt.Sprintf("Invalid role %q at history message %d: must be user or assistant", msg.Role, i)
		}
		if len(msg.Content) > MaxMessageLength {
			return fmt.Sprintf("History message %d exceeds maximum length of %d", i, MaxMessageLength)
		}
	}
	if req.Temperature != nil && (*req.Temperature < MinTemperature || *req.Temperature > MaxTemperature) {
		return "temperature must be between 0.0 and 1.0"
	}
	return ""
}

// resolveDefaults applies the server's default model and temperature where
// the request leaves them unset.
func (s *Server) resolveDefaults(req ChatRequest) (string, float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	model := req.Model
	if model == "" {
		model = s.defaultModel
	}
	temperature := s.defaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	return model, temperature
}

// buildMessages assembles the upstream message list: history in order, then
// the new user message.
func buildMessages(req ChatRequest) []ollama.Message {
	messages := make([]ollama.Message, 0, len(req.History)+1)
	for _, msg := range req.History {
		messages = append(messages, ollama.Message{Role: msg.Role, Content: msg.Content})
	}
	return append(messages, ollama.NewUserMessage(req.Message))
}

// modelEntry converts an Ollama model listing into the client-facing shape.
func modelEntry(info ollama.ModelInfo) ModelEntry {
	return ModelEntry{
		Name:              info.Name,
		Provider:          "ollama",
		Type:              "local",
		Description:       describeModel(info),
		SupportsStreaming: true,
		SupportsTools:     false,
		Status:            "available",
	}
}

func describeModel(info ollama.ModelInfo) string {
	var parts []string
	if info.Details.ParameterSize != "" {
		parts = append(parts, info.Details.ParameterSize+" parameters")
	}
	if info.Details.QuantizationLevel != "" {
		parts = append(parts, info.Details.QuantizationLevel)
	}
	if info.Size > 0 {
		parts = append(parts, info.FormatSize())
	}
	if len(parts) == 0 {
		return "Local Ollama model"
	}
	return strings.Join(parts, ", ")
}

func newRequestID() string {
	return uuid.NewString()[:8]
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
