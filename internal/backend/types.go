// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend provides the HTTP client for the ricky backend API.
package backend

// =============================================================================
// API PATHS
// =============================================================================

// API paths relative to the configured endpoint base. The serve side
// registers the same paths, so client and server cannot drift apart.
const (
	StreamPath   = "/api/v1/chat/stream"
	CompletePath = "/api/v1/chat/complete"
	ModelsPath   = "/api/v1/chat/models"
	StatusPath   = "/api/v1/chat/status"
	HealthPath   = "/health"
)

// Roles carried in history entries.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// =============================================================================
// CHAT TYPES
// =============================================================================

// HistoryMessage is one prior exchange entry sent with a chat request.
type HistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body POSTed to the stream and complete endpoints.
type ChatRequest struct {
	// Message is the new user message.
	Message string `json:"message"`

	// History is the prior conversation, oldest first. The message being
	// sent and its pending reply are not part of it.
	History []HistoryMessage `json:"history"`

	// Model is the model identifier; empty lets the server pick its default.
	Model string `json:"model"`

	// Temperature is the sampling temperature in [0, 1].
	Temperature float64 `json:"temperature"`

	// Stream requests a streamed reply.
	Stream bool `json:"stream"`
}

// CompleteResponse is the non-streaming reply from the complete endpoint.
type CompleteResponse struct {
	Response    string `json:"response"`
	Model       string `json:"model"`
	TotalTokens int    `json:"total_tokens"`
}

// =============================================================================
// STREAM EVENT
// =============================================================================

// StreamEvent is one decoded event record from the chat stream.
//
// All fields are optional on the wire. Consumers evaluate them in priority
// order: a non-empty Error terminates the stream with a failure, then Done
// terminates it successfully, and only otherwise is Chunk applied.
type StreamEvent struct {
	// Chunk is a fragment of assistant text, appended verbatim in arrival
	// order.
	Chunk string `json:"chunk"`

	// Done is true on the terminating record of a successful stream.
	Done bool `json:"done"`

	// Error carries a server-side failure message; the stream is over.
	Error string `json:"error"`
}

// Terminal reports whether this record ends the stream.
func (e StreamEvent) Terminal() bool {
	return e.Error != "" || e.Done
}

// =============================================================================
// MODELS AND STATUS TYPES
// =============================================================================

// Model describes one selectable model as reported by the backend.
type Model struct {
	Name              string `json:"name"`
	Provider          string `json:"provider"`
	Type              string `json:"type"`
	Description       string `json:"description"`
	SupportsStreaming bool   `json:"supports_streaming"`
	SupportsTools     bool   `json:"supports_tools"`
	Status            string `json:"status"`
}

// ModelsResponse is the reply from the models endpoint.
type ModelsResponse struct {
	Models []Model `json:"models"`

	// Default names the model the server suggests when the client has no
	// selection of its own.
	Default string `json:"default,omitempty"`
}

// StatusResponse is the reply from the status endpoint.
type StatusResponse struct {
	Status  string `json:"status"`
	Ollama  string `json:"ollama"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Healthy reports whether the backend declared itself ready.
func (s StatusResponse) Healthy() bool {
	return s.Status == "healthy"
}

// apiError is the JSON error body the backend returns for failed requests.
type apiError struct {
	Detail string `json:"detail"`
}
