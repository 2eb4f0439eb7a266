package model

import (
	"context"
	"testing"

	genesisTesting "github.com/aurakai/genesis/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseModelIdentifier(t *testing.T) {
	tests := []struct {
		name      string
		modelID   string
		wantProv  string
		wantModel string
		wantErr   bool
	}{
		{"ollama", "ollama:llama3", "ollama", "llama3", false},
		{"model with colon", "ollama:qwen3:1.7b", "ollama", "qwen3:1.7b", false},
		{"echo", "echo:genesis", "echo", "genesis", false},
		{"empty model", "echo:", "echo", "", false},
		{"no separator", "llama3", "", "", true},
		{"empty provider", ":llama3", "", "", true},
		{"empty", "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, modelName, err := ParseModelIdentifier(tt.modelID)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid model identifier format")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantProv, provider)
			assert.Equal(t, tt.wantModel, modelName)
		})
	}
}

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine(genesisTesting.GetTestModelName(), EngineOptions{Host: "http://example.invalid:1"})
	require.NoError(t, err)
	ollama, ok := engine.(*OllamaEngine)
	require.True(t, ok)
	assert.Equal(t, "qwen3:0.6b", ollama.Model())
	assert.Equal(t, "http://example.invalid:1", ollama.baseURL)

	engine, err = NewEngine("echo:genesis", EngineOptions{})
	require.NoError(t, err)
	assert.IsType(t, &EchoEngine{}, engine)
}

func TestNewEngine_Errors(t *testing.T) {
	_, err := NewEngine("", EngineOptions{})
	assert.EqualError(t, err, "model not configured")

	_, err = NewEngine("openai:gpt", EngineOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown model provider: openai")

	_, err = NewEngine("invalid", EngineOptions{})
	assert.Error(t, err)
}

func TestEchoEngine(t *testing.T) {
	e := NewEchoEngine("genesis")
	assert.Equal(t, "echo", e.Name())

	out, err := e.Process(context.Background(), "You are Kai.\nRespond to: hello there\n")
	require.NoError(t, err)
	assert.Equal(t, "[genesis] Respond to: hello there", out)

	out, err = NewEchoEngine("").Process(context.Background(), "plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", out)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Process(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}
