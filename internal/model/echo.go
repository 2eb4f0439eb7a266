package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/aurakai/genesis/internal/core"
)

const echoMaxRunes = 200

// EchoEngine answers locally by echoing the last line of the prompt. It
// never fails, which makes it a safe secondary engine.
type EchoEngine struct {
	prefix string
}

func NewEchoEngine(prefix string) *EchoEngine {
	return &EchoEngine{prefix: prefix}
}

func (e *EchoEngine) Name() string {
	return ProviderEcho
}

func (e *EchoEngine) Process(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	lines := strings.Split(strings.TrimSpace(prompt), "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	if e.prefix == "" {
		return core.Truncate(last, echoMaxRunes), nil
	}
	return fmt.Sprintf("[%s] %s", e.prefix, core.Truncate(last, echoMaxRunes)), nil
}
