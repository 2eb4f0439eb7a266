package external

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/aurakai/genesis/internal/core"
	"github.com/aurakai/genesis/internal/tool"
	"go.uber.org/zap"
)

// maxStderrInError bounds the stderr excerpt carried by a failure.
const maxStderrInError = 200

// NewTool wraps entry as a system tool runnable by callers. The tool takes an
// "args" array and an optional "stdin" string.
func NewTool(entry Entry, executor *Executor, callers ...string) *tool.Tool {
	return &tool.Tool{
		Name:              entry.Name,
		Description:       fmt.Sprintf("External tool %s", entry.Path),
		Category:          tool.CategorySystem,
		AuthorizedCallers: tool.Callers(callers...),
		InputSchema: tool.NewInputSchema(nil,
			tool.Prop("args", "array", "Command line arguments").WithItems(tool.PropertySchema{Type: "string"}),
			tool.Prop("stdin", "string", "Text written to the tool's standard input"),
		),
		Execute: func(ctx context.Context, params map[string]any, _ string) (tool.Result, error) {
			res, err := executor.Execute(ctx, entry, argsParam(params["args"]), stdinParam(params["stdin"]))
			if err != nil {
				return nil, err
			}
			return toResult(entry, res), nil
		},
	}
}

func toResult(entry Entry, res *ExecutionResult) tool.Result {
	if res.ExitCode != 0 {
		msg := fmt.Sprintf("%s exited with status %d", entry.Name, res.ExitCode)
		if stderr := strings.TrimSpace(res.Stderr); stderr != "" {
			msg += ": " + core.Truncate(stderr, maxStderrInError)
		}
		return tool.Failure{Error: msg, Code: tool.CodeExecutionError}
	}

	metadata := map[string]any{"path": entry.Path, "exit_code": res.ExitCode}
	if res.Stderr != "" {
		metadata["stderr"] = res.Stderr
	}
	return tool.Success{Output: strings.TrimRight(res.Stdout, "\n"), Metadata: metadata}
}

func argsParam(v any) []string {
	switch args := v.(type) {
	case []string:
		return args
	case []any:
		out := make([]string, 0, len(args))
		for _, a := range args {
			out = append(out, fmt.Sprint(a))
		}
		return out
	case string:
		return strings.Fields(args)
	}
	return nil
}

func stdinParam(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// Register scans dir and registers every executable found there with reg.
// A missing directory registers nothing. Names already taken in reg are
// skipped so the built-in catalog cannot be shadowed.
func Register(reg *tool.Registry, dir string, executor *Executor, callers ...string) (int, error) {
	entries, err := Scan(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			zap.L().Debug("External tools directory not found", zap.String("dir", dir))
			return 0, nil
		}
		return 0, fmt.Errorf("failed to scan external tools in %s: %w", dir, err)
	}

	registered := 0
	for _, entry := range entries {
		if _, exists := reg.Get(entry.Name); exists {
			zap.L().Warn("Skipping external tool that shadows a registered tool",
				zap.String("tool", entry.Name),
				zap.String("path", entry.Path))
			continue
		}
		reg.Register(NewTool(entry, executor, callers...))
		registered++
	}

	zap.L().Info("Registered external tools",
		zap.String("dir", dir),
		zap.Int("count", registered))
	return registered, nil
}
