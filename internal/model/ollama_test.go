package model

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aurakai/genesis/internal/dispatch"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testInvalidBaseURL = "http://localhost:42424" // Used for testing connection failures
)

func TestNewOllamaEngine_Defaults(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "")
	e := NewOllamaEngine("llama3", EngineOptions{})
	assert.Equal(t, "ollama", e.Name())
	assert.Equal(t, defaultOllamaHost, e.baseURL)
	assert.Equal(t, defaultOllamaTimeout, e.client.Timeout)
}

func TestNewOllamaEngine_HostPrecedence(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "http://custom:11434/")
	assert.Equal(t, "http://custom:11434", NewOllamaEngine("m", EngineOptions{}).baseURL)
	assert.Equal(t, "http://configured:1", NewOllamaEngine("m", EngineOptions{Host: "http://configured:1"}).baseURL)
}

func TestOllamaEngine_Process(t *testing.T) {
	var got ollamaGenerateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, ollamaGenerateEndpoint, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"llama3","response":"hi","done":true}`))
	}))
	defer server.Close()

	e := NewOllamaEngine("llama3", EngineOptions{Host: server.URL})
	text, err := e.Process(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "hi", text)

	assert.Equal(t, "llama3", got.Model)
	assert.Equal(t, "hello", got.Prompt)
	assert.False(t, got.Stream)
}

func TestOllamaEngine_Process_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model 'nope' not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewOllamaEngine("nope", EngineOptions{Host: server.URL}).Process(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ollama API error: 404")
	assert.Contains(t, err.Error(), "not found")
}

func TestOllamaEngine_Process_BadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	_, err := NewOllamaEngine("m", EngineOptions{Host: server.URL}).Process(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode response")
}

func TestOllamaEngine_Process_ConnectionRefused(t *testing.T) {
	e := NewOllamaEngine("m", EngineOptions{Host: testInvalidBaseURL, Timeout: time.Second})
	_, err := e.Process(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send request")
}

func TestOllamaEngine_Ping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, ollamaHealthCheckEndpoint, r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer server.Close()

	require.NoError(t, NewOllamaEngine("m", EngineOptions{Host: server.URL}).Ping(context.Background()))

	err := NewOllamaEngine("m", EngineOptions{Host: testInvalidBaseURL}).Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ollama is not running")
}

// The primary Ollama engine fails on every attempt; the echo engine answers.
func TestOllamaEngine_FallsBackToEcho(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	catalyst := dispatch.NewCatalyst(
		NewOllamaEngine("m", EngineOptions{Host: server.URL}),
		NewEchoEngine("fallback"),
		dispatch.WithClock(clockwork.NewRealClock()),
		dispatch.WithRetry(2, time.Millisecond),
	)

	text, err := catalyst.UnifiedPulse(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "[fallback] hello", text)
	assert.Equal(t, 2, calls)
}
