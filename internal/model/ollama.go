package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aurakai/genesis/internal/core"
	"github.com/aurakai/genesis/internal/dispatch"
)

const (
	defaultOllamaHost         = "http://localhost:11434"
	defaultOllamaTimeout      = 10 * time.Minute
	defaultOllamaTemperature  = 0.7
	ollamaHealthCheckEndpoint = "/api/tags"
	ollamaGenerateEndpoint    = "/api/generate"
)

// OllamaEngine generates text with a model served by Ollama
type OllamaEngine struct {
	modelName string
	baseURL   string
	client    *http.Client
}

var _ dispatch.Engine = &OllamaEngine{}

// NewOllamaEngine creates a new Ollama engine
func NewOllamaEngine(modelName string, opts EngineOptions) *OllamaEngine {
	baseURL := defaultOllamaHost
	if envURL := core.GetEnv("OLLAMA_HOST"); envURL != "" {
		baseURL = envURL
	}
	if opts.Host != "" {
		baseURL = opts.Host
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultOllamaTimeout
	}

	return &OllamaEngine{
		modelName: modelName,
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: timeout},
	}
}

// Name returns the provider name
func (e *OllamaEngine) Name() string {
	return ProviderOllama
}

// Model returns the served model name
func (e *OllamaEngine) Model() string {
	return e.modelName
}

// Process sends a single, non-streaming generate request
func (e *OllamaEngine) Process(ctx context.Context, prompt string) (string, error) {
	reqBody := ollamaGenerateRequest{
		Model:  e.modelName,
		Prompt: prompt,
		Stream: false,
		Options: ollamaOptions{
			Temperature: defaultOllamaTemperature,
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := e.baseURL + ollamaGenerateEndpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer core.LogDeferredError(resp.Body.Close)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return "", fmt.Errorf("ollama API error: %d (failed to read response body: %w)", resp.StatusCode, readErr)
		}
		return "", fmt.Errorf("ollama API error: %d - %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var ollamaResp ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	zap.L().Debug("Ollama response received",
		zap.String("model", e.modelName),
		zap.Int("response_length", len(ollamaResp.Response)),
		zap.Bool("done", ollamaResp.Done))

	return ollamaResp.Response, nil
}

// Ping reports whether the Ollama server answers its health endpoint
func (e *OllamaEngine) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+ollamaHealthCheckEndpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama is not running at %s: %w", e.baseURL, err)
	}
	defer core.LogDeferredError(resp.Body.Close)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama health check failed: %d", resp.StatusCode)
	}
	return nil
}

// Ollama-specific types
type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
}

type ollamaGenerateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}
