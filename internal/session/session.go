// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides the streaming chat session core.
package session

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/ricky/internal/backend"
	"github.com/jeranaias/ricky/internal/model"
	"github.com/jeranaias/ricky/internal/util"
)

// =============================================================================
// SUGGESTION SETS
// =============================================================================

// Follow-up suggestion sets attached to terminal assistant turns. The error
// set is part of the wire contract with the UI layer and must not change
// order.
var (
	errorSuggestions   = []string{"Try again", "Check connection", "Restart services"}
	successSuggestions = []string{"Tell me more", "Give me an example", "Summarize that"}
)

// ErrorSuggestions returns the recovery suggestion set shown on failed turns.
func ErrorSuggestions() []string {
	return append([]string(nil), errorSuggestions...)
}

// SuccessSuggestions returns the follow-up set shown on completed turns.
func SuccessSuggestions() []string {
	return append([]string(nil), successSuggestions...)
}

// =============================================================================
// SESSION
// =============================================================================

// Session owns one conversation and the lifecycle of its in-flight request.
//
// At most one chat request is streaming at a time. Sending while a reply is
// in flight cancels the previous request and finalizes its turn with the
// text accumulated so far. Every assistant turn ends in exactly one terminal
// state: success (done record), error (error record or transport failure),
// or silent close (connection ended with no terminal record).
type Session struct {
	mu sync.Mutex

	id        string
	createdAt time.Time

	client       *backend.Client
	conversation *model.Conversation

	// Request options
	chatModel   string
	temperature float64

	// In-flight state
	loading      bool
	cancelStream context.CancelFunc
	activeTurnID string

	// Model catalog
	models       []backend.Model
	defaultModel string

	// Callbacks
	onTurnUpdate    func(model.Turn)
	onLoadingChange func(bool)
	onModelsChange  func([]backend.Model, string)
	onReset         func()

	logger *log.Logger
}

// Config holds per-session options.
type Config struct {
	// Model is the model identifier sent with chat requests. Empty adopts
	// the backend's default after the first model refresh.
	Model string

	// Temperature is the sampling temperature in [0, 1].
	Temperature float64

	// Logger receives session lifecycle logs (default: log.Default()).
	Logger *log.Logger
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		Model:       "llama3.2",
		Temperature: 0.7,
	}
}

// NewSession creates a session backed by the given client.
func NewSession(client *backend.Client, cfg Config) *Session {
	if client == nil {
		client = backend.NewClient()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	return &Session{
		id:           generateSessionID(),
		createdAt:    time.Now(),
		client:       client,
		conversation: model.NewConversation(),
		chatModel:    cfg.Model,
		temperature:  cfg.Temperature,
		logger:       cfg.Logger,
	}
}

// =============================================================================
// ACCESSORS
// =============================================================================

// ID returns the session id.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// CreatedAt returns when the session started.
func (s *Session) CreatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createdAt
}

// Turns returns a snapshot of the conversation in order. The turns are
// deep copies and safe to use from any goroutine.
func (s *Session) Turns() []model.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := s.conversation.Turns()
	out := make([]model.Turn, 0, len(turns))
	for _, t := range turns {
		out = append(out, *t.Clone())
	}
	return out
}

// Len returns the number of turns.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversation.Len()
}

// Loading reports whether a reply is currently streaming.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Title returns a short label derived from the first user turn.
func (s *Session) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversation.Title()
}

// Model returns the model identifier used for chat requests.
func (s *Session) Model() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chatModel
}

// SetModel changes the model used for subsequent chat requests.
func (s *Session) SetModel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chatModel = name
}

// Temperature returns the sampling temperature sent with chat requests.
func (s *Session) Temperature() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.temperature
}

// SetTemperature changes the sampling temperature for subsequent requests.
func (s *Session) SetTemperature(t float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.temperature = t
}

// Models returns the cached model catalog and the backend's default model.
func (s *Session) Models() ([]backend.Model, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	models := make([]backend.Model, len(s.models))
	copy(models, s.models)
	return models, s.defaultModel
}

// =============================================================================
// CALLBACKS
// =============================================================================

// SetTurnUpdateCallback sets the function called with a turn snapshot every
// time a turn is appended or changes state.
func (s *Session) SetTurnUpdateCallback(fn func(model.Turn)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTurnUpdate = fn
}

// SetLoadingCallback sets the function called when streaming starts or stops.
func (s *Session) SetLoadingCallback(fn func(bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLoadingChange = fn
}

// SetModelsCallback sets the function called after a model catalog refresh.
func (s *Session) SetModelsCallback(fn func(models []backend.Model, defaultModel string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onModelsChange = fn
}

// SetResetCallback sets the function called after the conversation is cleared.
func (s *Session) SetResetCallback(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onReset = fn
}

// =============================================================================
// SENDING
// =============================================================================

// SendMessage appends a user turn and a streaming assistant placeholder,
// then starts the chat request in the background. Whitespace-only messages
// are ignored. If a reply is already streaming it is cancelled first and its
// turn keeps the text accumulated so far.
//
// ctx bounds the whole stream; cancelling it behaves like StopGeneration.
func (s *Session) SendMessage(ctx context.Context, text string) {
	message := util.NormalizeInput(strings.TrimSpace(text))
	if message == "" {
		return
	}

	s.mu.Lock()

	var updates []model.Turn

	// Supersede any in-flight request. Its goroutine observes the
	// cancellation and leaves the settled state alone.
	if s.cancelStream != nil {
		s.cancelStream()
		s.cancelStream = nil
	}
	if s.activeTurnID != "" {
		if s.conversation.FinalizeTurn(s.activeTurnID, nil) {
			updates = append(updates, *s.conversation.TurnByID(s.activeTurnID).Clone())
		}
		s.activeTurnID = ""
	}

	// History is captured before the new pair so the request carries only
	// prior completed exchanges.
	history := s.conversation.ToHistory()

	userTurn := s.conversation.AddUserTurn(message)
	placeholder := s.conversation.AddAssistantPlaceholder()
	updates = append(updates, *userTurn.Clone(), *placeholder.Clone())

	s.activeTurnID = placeholder.ID
	s.loading = true

	streamCtx, cancel := context.WithCancel(ctx)
	s.cancelStream = cancel

	req := backend.ChatRequest{
		Message:     message,
		History:     history,
		Model:       s.chatModel,
		Temperature: s.temperature,
		Stream:      true,
	}

	turnID := placeholder.ID
	onUpdate := s.onTurnUpdate
	onLoading := s.onLoadingChange
	logger := s.logger
	s.mu.Unlock()

	if onUpdate != nil {
		for _, turn := range updates {
			onUpdate(turn)
		}
	}
	if onLoading != nil {
		onLoading(true)
	}

	logger.Printf("SESSION | send turn=%s model=%s history=%d", turnID, req.Model, len(req.History))

	go s.runStream(streamCtx, turnID, req)
}

// runStream drives one chat request to its terminal state.
func (s *Session) runStream(ctx context.Context, turnID string, req backend.ChatRequest) {
	err := s.client.ChatStream(ctx, req, func(event backend.StreamEvent) error {
		// Event keys are evaluated in priority order; one record applies
		// exactly one effect.
		switch {
		case event.Error != "":
			s.failTurn(turnID, streamErrorText(event.Error))
		case event.Done:
			s.completeTurn(turnID)
		case event.Chunk != "":
			s.applyChunk(turnID, event.Chunk)
		}
		return nil
	})

	switch {
	case err == nil:
		// Terminal record already applied, or silent close settled below.
	case errors.Is(err, context.Canceled):
		s.logger.Printf("SESSION | stream cancelled turn=%s", turnID)
	default:
		s.logger.Printf("SESSION | stream failed turn=%s err=%v", turnID, err)
		s.failTurn(turnID, transportErrorText(s.client.BaseURL(), err))
	}

	s.settleFlight(turnID)
}

// applyChunk appends streamed text to the active turn. Chunks addressed to a
// turn that has already settled are dropped.
func (s *Session) applyChunk(turnID, chunk string) {
	s.mu.Lock()
	applied := s.conversation.AppendToTurn(turnID, chunk)
	var snapshot model.Turn
	var onUpdate func(model.Turn)
	if applied {
		snapshot = *s.conversation.TurnByID(turnID).Clone()
		onUpdate = s.onTurnUpdate
	}
	s.mu.Unlock()

	if onUpdate != nil {
		onUpdate(snapshot)
	}
}

// completeTurn finalizes the turn as a success with follow-up suggestions.
func (s *Session) completeTurn(turnID string) {
	s.mu.Lock()
	finalized := s.conversation.FinalizeTurn(turnID, successSuggestions)
	var snapshot model.Turn
	var onUpdate func(model.Turn)
	if finalized {
		snapshot = *s.conversation.TurnByID(turnID).Clone()
		onUpdate = s.onTurnUpdate
	}
	s.mu.Unlock()

	if onUpdate != nil {
		onUpdate(snapshot)
	}
}

// failTurn replaces the turn text with an error message and attaches the
// recovery suggestion set.
func (s *Session) failTurn(turnID, text string) {
	s.mu.Lock()
	failed := s.conversation.FailTurn(turnID, text, errorSuggestions)
	var snapshot model.Turn
	var onUpdate func(model.Turn)
	if failed {
		snapshot = *s.conversation.TurnByID(turnID).Clone()
		onUpdate = s.onTurnUpdate
	}
	s.mu.Unlock()

	if onUpdate != nil {
		onUpdate(snapshot)
	}
}

// settleFlight closes out the in-flight request bookkeeping once its stream
// has returned. If the flight was superseded or explicitly stopped, the
// canceller already settled everything and this is a no-op. Otherwise any
// still-streaming turn is finalized as-is, which is how a silent close keeps
// its partial text with no suggestions.
func (s *Session) settleFlight(turnID string) {
	s.mu.Lock()
	if s.activeTurnID != turnID {
		s.mu.Unlock()
		return
	}

	s.activeTurnID = ""
	if s.cancelStream != nil {
		s.cancelStream()
		s.cancelStream = nil
	}
	s.loading = false

	var snapshot model.Turn
	var finalized bool
	if s.conversation.FinalizeTurn(turnID, nil) {
		snapshot = *s.conversation.TurnByID(turnID).Clone()
		finalized = true
	}
	onUpdate := s.onTurnUpdate
	onLoading := s.onLoadingChange
	s.mu.Unlock()

	if finalized && onUpdate != nil {
		onUpdate(snapshot)
	}
	if onLoading != nil {
		onLoading(false)
	}
}

// =============================================================================
// STOP AND CLEAR
// =============================================================================

// StopGeneration cancels the in-flight request, if any. The streaming turn
// keeps the text accumulated so far, gets no suggestions, and loading turns
// off immediately rather than waiting for the stream goroutine to unwind.
func (s *Session) StopGeneration() {
	s.mu.Lock()
	if s.cancelStream == nil {
		s.mu.Unlock()
		return
	}

	s.cancelStream()
	s.cancelStream = nil
	turnID := s.activeTurnID
	s.activeTurnID = ""
	s.loading = false

	var snapshot model.Turn
	var finalized bool
	if turnID != "" && s.conversation.FinalizeTurn(turnID, nil) {
		snapshot = *s.conversation.TurnByID(turnID).Clone()
		finalized = true
	}
	onUpdate := s.onTurnUpdate
	onLoading := s.onLoadingChange
	s.mu.Unlock()

	s.logger.Printf("SESSION | stop turn=%s", turnID)

	if finalized && onUpdate != nil {
		onUpdate(snapshot)
	}
	if onLoading != nil {
		onLoading(false)
	}
}

// ClearChat cancels any in-flight request and resets the conversation to
// empty. It works unconditionally, streaming or not.
func (s *Session) ClearChat() {
	s.mu.Lock()
	if s.cancelStream != nil {
		s.cancelStream()
		s.cancelStream = nil
	}
	s.activeTurnID = ""
	wasLoading := s.loading
	s.loading = false
	s.conversation.Clear()

	onReset := s.onReset
	onLoading := s.onLoadingChange
	s.mu.Unlock()

	s.logger.Printf("SESSION | clear")

	if onReset != nil {
		onReset()
	}
	if wasLoading && onLoading != nil {
		onLoading(false)
	}
}

// =============================================================================
// MODEL CATALOG
// =============================================================================

// RefreshModels fetches the model catalog from the backend and caches it.
// A failed refresh leaves the cached catalog untouched; callers treat the
// error as advisory.
//
// If no model has been chosen yet, the backend's default (or the first
// listed model) is adopted.
func (s *Session) RefreshModels(ctx context.Context) ([]backend.Model, error) {
	resp, err := s.client.ListModels(ctx)
	if err != nil {
		s.logger.Printf("SESSION | model refresh failed err=%v", err)
		return nil, err
	}

	s.mu.Lock()
	s.models = resp.Models
	s.defaultModel = resp.Default
	if s.chatModel == "" {
		if resp.Default != "" {
			s.chatModel = resp.Default
		} else if len(resp.Models) > 0 {
			s.chatModel = resp.Models[0].Name
		}
	}
	models := make([]backend.Model, len(resp.Models))
	copy(models, resp.Models)
	defaultModel := s.defaultModel
	onModels := s.onModelsChange
	s.mu.Unlock()

	if onModels != nil {
		onModels(models, defaultModel)
	}
	return models, nil
}

// =============================================================================
// STATUS
// =============================================================================

// CheckStatus queries the backend's service status, including upstream
// Ollama connectivity.
func (s *Session) CheckStatus(ctx context.Context) (*backend.StatusResponse, error) {
	return s.client.Status(ctx)
}

// =============================================================================
// ERROR TEXT
// =============================================================================

// streamErrorText formats a server-reported stream error for display.
func streamErrorText(message string) string {
	return "Sorry, an error occurred while generating the response: " + message
}

// transportErrorText formats a request-open failure for display,
// distinguishing an unreachable backend from a missing endpoint and from
// server-side failures.
func transportErrorText(baseURL string, err error) string {
	switch {
	case errors.Is(err, backend.ErrBackendUnreachable):
		return "Backend unreachable: could not connect to " + baseURL + ". Check that the server is running."
	case errors.Is(err, backend.ErrEndpointNotFound):
		return "Endpoint not found: the server at " + baseURL + " does not expose the chat API."
	case errors.Is(err, backend.ErrTimeout):
		return "Request timed out: the server at " + baseURL + " did not answer in time."
	default:
		return "Server error: " + err.Error()
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateSessionID creates a unique session id.
func generateSessionID() string {
	return "sess_" + uuid.NewString()
}
