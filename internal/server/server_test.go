// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server implements the local HTTP API that bridges chat clients to Ollama.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// unreachableURL points at a port that refuses connections immediately.
const unreachableURL = "http://127.0.0.1:1"

// fakeOllama runs an httptest server standing in for the Ollama API.
func fakeOllama(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts
}

// newTestServer builds a Server pointed at the given upstream with a limiter
// generous enough that tests never trip it.
func newTestServer(t *testing.T, upstreamURL string) *Server {
	t.Helper()
	return NewServer(&Config{
		OllamaURL:          upstreamURL,
		OllamaTimeout:      5 * time.Second,
		DefaultModel:       "llama3.2",
		DefaultTemperature: 0.7,
		RateLimitPerSecond: 1000,
		RateBurst:          1000,
		Logger:             log.New(io.Discard, "", 0),
	})
}

// serveHTTP runs the full middleware chain against a real listener.
func serveHTTP(t *testing.T, srv *Server) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func getURL(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// writeChatLines emits NDJSON chat responses the way Ollama streams them.
func writeChatLines(w http.ResponseWriter, lines ...string) {
	w.Header().Set("Content-Type", "application/x-ndjson")
	flusher := w.(http.Flusher)
	for _, line := range lines {
		fmt.Fprintln(w, line)
		flusher.Flush()
	}
}

// readSSEData collects the JSON payloads from an SSE body.
func readSSEData(t *testing.T, body io.Reader) []string {
	t.Helper()
	var events []string
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		if line := scanner.Text(); strings.HasPrefix(line, "data: ") {
			events = append(events, strings.TrimPrefix(line, "data: "))
		}
	}
	return events
}

// =============================================================================
// STREAMING
// =============================================================================

func TestHandleChatStream(t *testing.T) {
	upstream := fakeOllama(t, func(w http.ResponseWriter, r *http.Request) {
		var got struct {
			Model    string `json:"model"`
			Stream   bool   `json:"stream"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
			Options struct {
				Temperature float64 `json:"temperature"`
			} `json:"options"`
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding upstream request: %v", err)
		}
		if got.Model != "phi3" {
			t.Errorf("upstream model = %q, want phi3", got.Model)
		}
		if !got.Stream {
			t.Error("upstream request should have stream=true")
		}
		if got.Options.Temperature != 0.2 {
			t.Errorf("upstream temperature = %v, want 0.2", got.Options.Temperature)
		}
		if len(got.Messages) != 3 {
			t.Fatalf("upstream messages = %d, want 3", len(got.Messages))
		}
		if got.Messages[0].Role != "user" || got.Messages[0].Content != "earlier question" {
			t.Errorf("unexpected first message: %+v", got.Messages[0])
		}
		if got.Messages[1].Role != "assistant" {
			t.Errorf("second message role = %q, want assistant", got.Messages[1].Role)
		}
		if got.Messages[2].Role != "user" || got.Messages[2].Content != "Hi" {
			t.Errorf("unexpected final message: %+v", got.Messages[2])
		}

		writeChatLines(w,
			`{"model":"phi3","message":{"role":"assistant","content":"Hel"},"done":false}`,
			`{"model":"phi3","message":{"role":"assistant","content":"lo"},"done":false}`,
			`{"model":"phi3","message":{"role":"assistant","content":""},"done":true,"done_reason":"stop","prompt_eval_count":10,"eval_count":12}`,
		)
	})

	srv := newTestServer(t, upstream.URL)
	ts := serveHTTP(t, srv)

	resp := postJSON(t, ts.URL+"/api/v1/chat/stream", `{
		"message": "Hi",
		"history": [
			{"role": "user", "content": "earlier question"},
			{"role": "assistant", "content": "earlier answer"}
		],
		"model": "phi3",
		"temperature": 0.2
	}`)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("Cache-Control = %q, want no-cache", cc)
	}

	events := readSSEData(t, resp.Body)
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3: %v", len(events), events)
	}
	var chunks []string
	for i, raw := range events {
		var ev StreamEvent
		if err := json.Unmarshal([]byte(raw), &ev); err != nil {
			t.Fatalf("event %d not valid JSON: %v", i, err)
		}
		chunks = append(chunks, ev.Chunk)
		if ev.Done != (i == 2) {
			t.Errorf("event %d done = %v", i, ev.Done)
		}
	}
	if got := strings.Join(chunks, ""); got != "Hello" {
		t.Errorf("assembled text = %q, want Hello", got)
	}

	if n := srv.stats.RequestsServed(); n != 1 {
		t.Errorf("requests served = %d, want 1", n)
	}
	if n := srv.stats.TotalTokens(); n != 12 {
		t.Errorf("total tokens = %d, want 12", n)
	}
}

func TestHandleChatStream_DefaultsApplied(t *testing.T) {
	upstream := fakeOllama(t, func(w http.ResponseWriter, r *http.Request) {
		var got struct {
			Model   string `json:"model"`
			Options struct {
				Temperature float64 `json:"temperature"`
			} `json:"options"`
		}
		json.NewDecoder(r.Body).Decode(&got)
		if got.Model != "llama3.2" {
			t.Errorf("upstream model = %q, want default llama3.2", got.Model)
		}
		if got.Options.Temperature != 0.7 {
			t.Errorf("upstream temperature = %v, want default 0.7", got.Options.Temperature)
		}
		writeChatLines(w,
			`{"message":{"role":"assistant","content":"ok"},"done":false}`,
			`{"message":{"role":"assistant","content":""},"done":true,"done_reason":"stop"}`,
		)
	})

	srv := newTestServer(t, upstream.URL)
	ts := serveHTTP(t, srv)

	resp := postJSON(t, ts.URL+"/api/v1/chat/stream", `{"message": "Hi"}`)
	events := readSSEData(t, resp.Body)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2: %v", len(events), events)
	}
	var last StreamEvent
	if err := json.Unmarshal([]byte(events[len(events)-1]), &last); err != nil {
		t.Fatal(err)
	}
	if !last.Done || last.Chunk != "" {
		t.Errorf("final event = %+v, want empty done marker", last)
	}
}

func TestHandleChatStream_HotReloadedDefaults(t *testing.T) {
	upstream := fakeOllama(t, func(w http.ResponseWriter, r *http.Request) {
		var got struct {
			Model string `json:"model"`
		}
		json.NewDecoder(r.Body).Decode(&got)
		if got.Model != "qwen2.5" {
			t.Errorf("upstream model = %q, want qwen2.5", got.Model)
		}
		writeChatLines(w, `{"message":{"role":"assistant","content":""},"done":true,"done_reason":"stop"}`)
	})

	srv := newTestServer(t, upstream.URL)
	srv.SetDefaults("qwen2.5", 0.3)
	if model, temp := srv.Defaults(); model != "qwen2.5" || temp != 0.3 {
		t.Fatalf("Defaults() = %q, %v", model, temp)
	}

	ts := serveHTTP(t, srv)
	resp := postJSON(t, ts.URL+"/api/v1/chat/stream", `{"message": "Hi"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	io.Copy(io.Discard, resp.Body)
}

func TestHandleChatStream_UpstreamErrorMidStream(t *testing.T) {
	upstream := fakeOllama(t, func(w http.ResponseWriter, r *http.Request) {
		writeChatLines(w,
			`{"message":{"role":"assistant","content":"partial"},"done":false}`,
			`{"error":"model runner has unexpectedly stopped"}`,
		)
	})

	srv := newTestServer(t, upstream.URL)
	ts := serveHTTP(t, srv)

	resp := postJSON(t, ts.URL+"/api/v1/chat/stream", `{"message": "Hi"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200: the stream is already open when the error arrives", resp.StatusCode)
	}

	events := readSSEData(t, resp.Body)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2: %v", len(events), events)
	}
	var ev StreamEvent
	if err := json.Unmarshal([]byte(events[0]), &ev); err != nil || ev.Chunk != "partial" {
		t.Errorf("first event = %q, want partial chunk", events[0])
	}
	var failure StreamError
	if err := json.Unmarshal([]byte(events[1]), &failure); err != nil {
		t.Fatal(err)
	}
	if !failure.Done {
		t.Error("error event should be terminal")
	}
	if !strings.Contains(failure.Error, "unexpectedly stopped") {
		t.Errorf("error = %q, want upstream message surfaced", failure.Error)
	}
}

func TestHandleChatStream_UpstreamDown(t *testing.T) {
	srv := newTestServer(t, unreachableURL)
	ts := serveHTTP(t, srv)

	resp := postJSON(t, ts.URL+"/api/v1/chat/stream", `{"message": "Hi"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	events := readSSEData(t, resp.Body)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1: %v", len(events), events)
	}
	var failure StreamError
	if err := json.Unmarshal([]byte(events[0]), &failure); err != nil {
		t.Fatal(err)
	}
	if failure.Error == "" || !failure.Done {
		t.Errorf("event = %+v, want terminal error", failure)
	}
}

func TestHandleChatStream_ClientDisconnect(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	upstreamDone := make(chan struct{})

	upstream := fakeOllama(t, func(w http.ResponseWriter, r *http.Request) {
		writeChatLines(w, `{"message":{"role":"assistant","content":"Hel"},"done":false}`)
		select {
		case <-r.Context().Done():
		case <-release:
		}
		close(upstreamDone)
	})

	srv := newTestServer(t, upstream.URL)
	ts := serveHTTP(t, srv)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		ts.URL+"/api/v1/chat/stream", strings.NewReader(`{"message": "Hi"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	if err != nil {
		t.Fatalf("reading first event: %v", err)
	}
	if !strings.Contains(line, "Hel") {
		t.Fatalf("first event = %q, want chunk", line)
	}

	cancel()
	select {
	case <-upstreamDone:
	case <-time.After(5 * time.Second):
		t.Fatal("disconnect never propagated to the upstream request")
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestHandleChatStream_Validation(t *testing.T) {
	srv := newTestServer(t, unreachableURL)
	ts := serveHTTP(t, srv)

	tests := []struct {
		name       string
		body       string
		wantDetail string
	}{
		{
			name:       "empty message",
			body:       `{"message": ""}`,
			wantDetail: "Message cannot be empty",
		},
		{
			name:       "whitespace message",
			body:       `{"message": "   "}`,
			wantDetail: "Message cannot be empty",
		},
		{
			name:       "bad history role",
			body:       `{"message": "hi", "history": [{"role": "system", "content": "x"}]}`,
			wantDetail: "role",
		},
		{
			name:       "temperature too high",
			body:       `{"message": "hi", "temperature": 1.5}`,
			wantDetail: "temperature",
		},
		{
			name:       "temperature negative",
			body:       `{"message": "hi", "temperature": -0.1}`,
			wantDetail: "temperature",
		},
		{
			name:       "malformed json",
			body:       `{"message": `,
			wantDetail: "Invalid request format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, ts.URL+"/api/v1/chat/stream", tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", resp.StatusCode)
			}
			var body errorResponse
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(body.Detail, tt.wantDetail) {
				t.Errorf("detail = %q, want it to mention %q", body.Detail, tt.wantDetail)
			}
		})
	}
}

func TestHandleChatStream_BodyTooLarge(t *testing.T) {
	srv := newTestServer(t, unreachableURL)
	ts := serveHTTP(t, srv)

	huge := fmt.Sprintf(`{"message": %q}`, strings.Repeat("a", MaxRequestBodySize+1))
	resp := postJSON(t, ts.URL+"/api/v1/chat/stream", huge)
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", resp.StatusCode)
	}
	var body errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(body.Detail, "maximum size") {
		t.Errorf("detail = %q", body.Detail)
	}
}

func TestValidateChatRequest(t *testing.T) {
	temp := func(v float64) *float64 { return &v }

	tests := []struct {
		name    string
		req     ChatRequest
		wantErr bool
	}{
		{"valid minimal", ChatRequest{Message: "hi"}, false},
		{"valid with history", ChatRequest{
			Message: "hi",
			History: []ChatMessage{{Role: "user", Content: "a"}, {Role: "assistant", Content: "b"}},
		}, false},
		{"valid zero temperature", ChatRequest{Message: "hi", Temperature: temp(0)}, false},
		{"valid max temperature", ChatRequest{Message: "hi", Temperature: temp(1)}, false},
		{"empty message", ChatRequest{Message: ""}, true},
		{"message too long", ChatRequest{Message: strings.Repeat("x", MaxMessageLength+1)}, true},
		{"too much history", ChatRequest{
			Message: "hi",
			History: make([]ChatMessage, MaxHistoryCount+1),
		}, true},
		{"system role rejected", ChatRequest{
			Message: "hi",
			History: []ChatMessage{{Role: "system", Content: "x"}},
		}, true},
		{"history message too long", ChatRequest{
			Message: "hi",
			History: []ChatMessage{{Role: "user", Content: strings.Repeat("x", MaxMessageLength+1)}},
		}, true},
		{"temperature above max", ChatRequest{Message: "hi", Temperature: temp(1.01)}, true},
		{"temperature below min", ChatRequest{Message: "hi", Temperature: temp(-0.01)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := validateChatRequest(&tt.req)
			if (msg != "") != tt.wantErr {
				t.Errorf("validateChatRequest() = %q, wantErr %v", msg, tt.wantErr)
			}
		})
	}
}

func TestBuildMessages(t *testing.T) {
	req := ChatRequest{
		Message: "latest",
		History: []ChatMessage{
			{Role: "user", Content: "first"},
			{Role: "assistant", Content: "second"},
		},
	}
	messages := buildMessages(req)
	if len(messages) != 3 {
		t.Fatalf("got %d messages, want 3", len(messages))
	}
	if messages[0].Content != "first" || messages[1].Content != "second" {
		t.Errorf("history out of order: %+v", messages)
	}
	if messages[2].Role != "user" || messages[2].Content != "latest" {
		t.Errorf("final message = %+v, want the new user message", messages[2])
	}
}

// =============================================================================
// COMPLETION
// =============================================================================

func TestHandleChatComplete(t *testing.T) {
	upstream := fakeOllama(t, func(w http.ResponseWriter, r *http.Request) {
		var got struct {
			Stream bool `json:"stream"`
		}
		json.NewDecoder(r.Body).Decode(&got)
		if got.Stream {
			t.Error("completion should request stream=false upstream")
		}
		fmt.Fprintln(w, `{"model":"phi3","message":{"role":"assistant","content":"Hello there"},"done":true,"done_reason":"stop","prompt_eval_count":30,"eval_count":12}`)
	})

	srv := newTestServer(t, upstream.URL)
	ts := serveHTTP(t, srv)

	resp := postJSON(t, ts.URL+"/api/v1/chat/complete", `{"message": "Hi", "model": "phi3"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Response != "Hello there" {
		t.Errorf("response = %q", body.Response)
	}
	if body.Model != "phi3" {
		t.Errorf("model = %q, want phi3", body.Model)
	}
	if body.TotalTokens != 42 {
		t.Errorf("total tokens = %d, want 42", body.TotalTokens)
	}

	if n := srv.stats.RequestsServed(); n != 1 {
		t.Errorf("requests served = %d, want 1", n)
	}
}

func TestHandleChatComplete_UpstreamDown(t *testing.T) {
	srv := newTestServer(t, unreachableURL)
	ts := serveHTTP(t, srv)

	resp := postJSON(t, ts.URL+"/api/v1/chat/complete", `{"message": "Hi"}`)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
	var body errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Detail == "" {
		t.Error("detail should describe the failure")
	}
}

// =============================================================================
// MODELS, STATUS, HEALTH
// =============================================================================

func TestHandleModels(t *testing.T) {
	upstream := fakeOllama(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("unexpected upstream path %s", r.URL.Path)
		}
		fmt.Fprintln(w, `{"models":[
			{"name":"llama3.2:latest","size":2019393189,"details":{"parameter_size":"3.2B","quantization_level":"Q4_K_M"}},
			{"name":"phi3:latest","size":2393232963,"details":{"parameter_size":"3.8B","quantization_level":"Q4_0"}}
		]}`)
	})

	srv := newTestServer(t, upstream.URL)
	ts := serveHTTP(t, srv)

	resp := getURL(t, ts.URL+"/api/v1/chat/models")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body ModelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Default != "llama3.2" {
		t.Errorf("default = %q, want llama3.2", body.Default)
	}
	if len(body.Models) != 2 {
		t.Fatalf("got %d models, want 2", len(body.Models))
	}

	first := body.Models[0]
	if first.Name != "llama3.2:latest" {
		t.Errorf("name = %q", first.Name)
	}
	if first.Provider != "ollama" || first.Type != "local" {
		t.Errorf("provider/type = %q/%q, want ollama/local", first.Provider, first.Type)
	}
	if !first.SupportsStreaming || first.SupportsTools {
		t.Errorf("capabilities = streaming %v tools %v", first.SupportsStreaming, first.SupportsTools)
	}
	if first.Status != "available" {
		t.Errorf("status = %q", first.Status)
	}
	if want := "3.2B parameters, Q4_K_M, 1.9 GB"; first.Description != want {
		t.Errorf("description = %q, want %q", first.Description, want)
	}
}

func TestHandleModels_UpstreamDown(t *testing.T) {
	srv := newTestServer(t, unreachableURL)
	ts := serveHTTP(t, srv)

	resp := getURL(t, ts.URL+"/api/v1/chat/models")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200: model listing degrades, not fails", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	// Clients iterate the list; it must be [] rather than null.
	if !strings.Contains(string(raw), `"models":[]`) {
		t.Errorf("body = %s, want empty models array", raw)
	}
	var body ModelsResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatal(err)
	}
	if body.Default != "llama3.2" {
		t.Errorf("default = %q, want llama3.2", body.Default)
	}
}

func TestHandleStatus(t *testing.T) {
	upstream := fakeOllama(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "Ollama is running")
	})

	srv := newTestServer(t, upstream.URL)
	ts := serveHTTP(t, srv)

	resp := getURL(t, ts.URL+"/api/v1/chat/status")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	var body StatusResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "healthy" || body.Ollama != "connected" {
		t.Errorf("body = %+v", body)
	}
	if body.Message != "Chat service is ready" {
		t.Errorf("message = %q", body.Message)
	}
	if strings.Contains(string(raw), `"error"`) {
		t.Errorf("healthy status should omit the error field: %s", raw)
	}
}

func TestHandleStatus_Unreachable(t *testing.T) {
	srv := newTestServer(t, unreachableURL)
	ts := serveHTTP(t, srv)

	resp := getURL(t, ts.URL+"/api/v1/chat/status")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200: readiness is reported in the body", resp.StatusCode)
	}

	var body StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "unhealthy" || body.Ollama != "disconnected" {
		t.Errorf("body = %+v", body)
	}
	if body.Message != "Chat service is not ready" {
		t.Errorf("message = %q", body.Message)
	}
	if !strings.Contains(body.Error, "Ollama not accessible at") {
		t.Errorf("error = %q", body.Error)
	}
}

func TestHandleHealth(t *testing.T) {
	upstream := fakeOllama(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/chat" {
			fmt.Fprintln(w, `{"message":{"role":"assistant","content":"ok"},"done":true,"done_reason":"stop","eval_count":5}`)
			return
		}
		fmt.Fprint(w, "Ollama is running")
	})

	srv := newTestServer(t, upstream.URL)
	ts := serveHTTP(t, srv)

	// One completed request so the counters have something to show.
	postJSON(t, ts.URL+"/api/v1/chat/complete", `{"message": "Hi"}`)

	resp := getURL(t, ts.URL+"/health")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "healthy" {
		t.Errorf("status = %q, want healthy", body.Status)
	}
	if body.Ollama != "connected" {
		t.Errorf("ollama = %q, want connected", body.Ollama)
	}
	if body.Version != Version {
		t.Errorf("version = %q, want %q", body.Version, Version)
	}
	if body.RequestsServed != 1 {
		t.Errorf("requests served = %d, want 1", body.RequestsServed)
	}
	if body.UptimeSeconds < 0 {
		t.Errorf("uptime = %d", body.UptimeSeconds)
	}
}

func TestHandleHealth_UpstreamDown(t *testing.T) {
	srv := newTestServer(t, unreachableURL)
	ts := serveHTTP(t, srv)

	resp := getURL(t, ts.URL+"/health")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	// The server itself is alive; only the upstream report degrades.
	if body.Status != "healthy" {
		t.Errorf("status = %q, want healthy", body.Status)
	}
	if !strings.HasPrefix(body.Ollama, "disconnected") {
		t.Errorf("ollama = %q, want disconnected prefix", body.Ollama)
	}
}

// =============================================================================
// ROOT AND ROUTING
// =============================================================================

func TestHandleRoot(t *testing.T) {
	srv := newTestServer(t, unreachableURL)
	ts := serveHTTP(t, srv)

	resp := getURL(t, ts.URL+"/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["message"] != "Ricky Backend is running!" {
		t.Errorf("message = %q", body["message"])
	}
	if body["status"] != "healthy" {
		t.Errorf("status = %q", body["status"])
	}
}

func TestRouting(t *testing.T) {
	srv := newTestServer(t, unreachableURL)
	ts := serveHTTP(t, srv)

	resp := getURL(t, ts.URL+"/no/such/path")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown path status = %d, want 404", resp.StatusCode)
	}

	resp = getURL(t, ts.URL+"/api/v1/chat/stream")
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET on stream status = %d, want 405", resp.StatusCode)
	}
}

// =============================================================================
// STATS
// =============================================================================

func TestServerStats(t *testing.T) {
	stats := NewServerStats()
	stats.RecordStream(10)
	stats.RecordStream(5)
	stats.RecordComplete(7)

	if n := stats.RequestsServed(); n != 3 {
		t.Errorf("requests = %d, want 3", n)
	}
	if n := stats.TotalTokens(); n != 22 {
		t.Errorf("tokens = %d, want 22", n)
	}
	if stats.Uptime() < 0 {
		t.Errorf("uptime = %v", stats.Uptime())
	}
}
