// Package model provides the text generation engines behind the dispatch
// helper.
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/aurakai/genesis/internal/dispatch"
)

const (
	ProviderOllama = "ollama"
	ProviderEcho   = "echo"
)

// EngineOptions configures engines that talk to a server.
type EngineOptions struct {
	// Host is the server base URL. Empty means OLLAMA_HOST or the default.
	Host    string
	Timeout time.Duration
}

// ParseModelIdentifier parses a model identifier string (e.g., "ollama:llama3")
// and returns the provider name and model name
func ParseModelIdentifier(modelID string) (provider, modelName string, err error) {
	parts := strings.SplitN(modelID, ":", 2)
	if len(parts) != 2 || parts[0] == "" {
		return "", "", fmt.Errorf("invalid model identifier format: expected 'provider:model-name', got '%s'", modelID)
	}
	return parts[0], parts[1], nil
}

// NewEngine creates the engine a model identifier names.
func NewEngine(modelID string, opts EngineOptions) (dispatch.Engine, error) {
	if modelID == "" {
		return nil, fmt.Errorf("model not configured")
	}

	providerName, modelName, err := ParseModelIdentifier(modelID)
	if err != nil {
		return nil, err
	}

	switch providerName {
	case ProviderOllama:
		return NewOllamaEngine(modelName, opts), nil
	case ProviderEcho:
		return NewEchoEngine(modelName), nil
	default:
		return nil, fmt.Errorf("unknown model provider: %s (supported: %s, %s)", providerName, ProviderOllama, ProviderEcho)
	}
}
