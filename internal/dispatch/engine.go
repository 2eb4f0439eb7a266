// Package dispatch raises the availability of a text generation operation
// served by two independent engines.
package dispatch

import (
	"context"
	"errors"
)

// ErrNoEngine is returned when a Catalyst has no primary engine.
var ErrNoEngine = errors.New("no engine configured")

// Engine generates text for a prompt.
type Engine interface {
	Process(ctx context.Context, prompt string) (string, error)
}

// EngineFunc adapts a function to Engine.
type EngineFunc func(ctx context.Context, prompt string) (string, error)

func (f EngineFunc) Process(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

var _ Engine = EngineFunc(nil)
