package testing

import (
	"context"
	"errors"
	"sync"
)

// ErrScriptExhausted is returned once a ScriptedEngine has no replies left.
var ErrScriptExhausted = errors.New("scripted engine exhausted")

// Reply is one scripted engine answer.
type Reply struct {
	Text string
	Err  error
}

// ScriptedEngine answers prompts from a fixed script and records them.
type ScriptedEngine struct {
	mu      sync.Mutex
	replies []Reply
	prompts []string
	// Repeat keeps answering with the last reply once the script runs out.
	Repeat bool
}

func NewScriptedEngine(replies ...Reply) *ScriptedEngine {
	return &ScriptedEngine{replies: replies}
}

// Texts is a script of successful replies.
func Texts(texts ...string) []Reply {
	out := make([]Reply, len(texts))
	for i, t := range texts {
		out[i] = Reply{Text: t}
	}
	return out
}

func (e *ScriptedEngine) Process(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.prompts = append(e.prompts, prompt)
	n := len(e.prompts) - 1
	if n >= len(e.replies) {
		if !e.Repeat || len(e.replies) == 0 {
			return "", ErrScriptExhausted
		}
		n = len(e.replies) - 1
	}
	return e.replies[n].Text, e.replies[n].Err
}

// Prompts returns every prompt received, in order.
func (e *ScriptedEngine) Prompts() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.prompts))
	copy(out, e.prompts)
	return out
}

// Calls is the number of prompts received.
func (e *ScriptedEngine) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.prompts)
}
