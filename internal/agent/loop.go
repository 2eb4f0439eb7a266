package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aurakai/genesis/internal/dispatch"
	"github.com/aurakai/genesis/internal/tool"
	"go.uber.org/zap"
)

// DefaultMaxToolCalls bounds the tool calls of one loop run.
const DefaultMaxToolCalls = 5

// ToolUse is a tool call requested by the engine.
type ToolUse struct {
	Name       string         `json:"name"`
	Parameters map[string]any `json:"parameters"`
}

// ParseToolUse finds the first {"tool_use": {...}} object in text.
func ParseToolUse(text string) (ToolUse, bool) {
	for i := strings.IndexByte(text, '{'); i >= 0; {
		var envelope struct {
			ToolUse *ToolUse `json:"tool_use"`
		}
		if err := json.NewDecoder(strings.NewReader(text[i:])).Decode(&envelope); err == nil &&
			envelope.ToolUse != nil && envelope.ToolUse.Name != "" {
			return *envelope.ToolUse, true
		}

		next := strings.IndexByte(text[i+1:], '{')
		if next < 0 {
			break
		}
		i += next + 1
	}
	return ToolUse{}, false
}

// ToolLoop lets an engine drive the tool registry on behalf of one caller.
// The engine is briefed with the caller's tools; every tool_use it answers
// with is executed and its result fed back until it answers in plain text.
type ToolLoop struct {
	registry     *tool.Registry
	engine       dispatch.Engine
	callerID     string
	maxToolCalls int
	progress     func(string)
}

type LoopOption func(*ToolLoop)

func WithMaxToolCalls(n int) LoopOption {
	return func(l *ToolLoop) {
		l.maxToolCalls = n
	}
}

// WithProgress reports each step to fn, e.g. a terminal spinner.
func WithProgress(fn func(string)) LoopOption {
	return func(l *ToolLoop) {
		l.progress = fn
	}
}

// NewToolLoop creates a loop running tools as callerID.
func NewToolLoop(registry *tool.Registry, engine dispatch.Engine, callerID string, opts ...LoopOption) *ToolLoop {
	l := &ToolLoop{
		registry:     registry,
		engine:       engine,
		callerID:     callerID,
		maxToolCalls: DefaultMaxToolCalls,
		progress:     func(string) {},
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.maxToolCalls <= 0 {
		l.maxToolCalls = DefaultMaxToolCalls
	}
	return l
}

// LoopResult is the outcome of a loop run.
type LoopResult struct {
	Content   string
	ToolCalls []tool.Response
}

// Run answers prompt, executing the tools the engine asks for.
func (l *ToolLoop) Run(ctx context.Context, prompt string) (*LoopResult, error) {
	if l.engine == nil {
		return nil, dispatch.ErrNoEngine
	}

	var conversation strings.Builder
	conversation.WriteString(l.registry.DescribeForCaller(l.callerID))
	conversation.WriteString("\nUser: ")
	conversation.WriteString(prompt)
	conversation.WriteString("\n")

	zap.L().Debug("Tool loop starting",
		zap.String("caller", l.callerID),
		zap.Int("tool_count", len(l.registry.ListForCaller(l.callerID))))

	result := &LoopResult{}
	for iteration := 0; iteration <= l.maxToolCalls; iteration++ {
		l.progress(fmt.Sprintf("Processing request (iteration %d)", iteration+1))

		text, err := l.engine.Process(ctx, conversation.String())
		if err != nil {
			return nil, fmt.Errorf("engine failed: %w", err)
		}

		use, ok := ParseToolUse(text)
		if !ok {
			result.Content = strings.TrimSpace(text)
			return result, nil
		}
		if iteration == l.maxToolCalls {
			break
		}

		l.progress(fmt.Sprintf("Executing tool: %s", use.Name))
		resp := l.registry.Execute(ctx, tool.NewRequest(use.Name, l.callerID, use.Parameters))
		result.ToolCalls = append(result.ToolCalls, resp)

		zap.L().Debug("Tool call completed",
			zap.String("tool", use.Name),
			zap.Bool("success", resp.Success))

		fmt.Fprintf(&conversation, "Assistant: %s\nTool result (%s): %s\n", text, use.Name, resp.ResultJSON)
	}

	return nil, fmt.Errorf("maximum tool calls (%d) reached", l.maxToolCalls)
}
