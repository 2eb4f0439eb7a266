package tool

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aurakai/genesis/internal/core"
)

// InfoOptions configures the output format for tool info
type InfoOptions struct {
	JSON   bool
	Writer io.Writer
}

type toolInfo struct {
	toolSummary
	InputSchema map[string]any `json:"inputSchema"`
}

// WriteToolInfo displays detailed information about a registered tool
func WriteToolInfo(reg *Registry, toolName string, opts InfoOptions) error {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}

	t, ok := reg.Get(toolName)
	if !ok {
		if suggestion := reg.suggest(toolName); suggestion != "" {
			return fmt.Errorf("tool '%s' is not registered (did you mean '%s'?)", toolName, suggestion)
		}
		return fmt.Errorf("tool '%s' is not registered", toolName)
	}

	summary := summarize(t)

	if opts.JSON {
		encoder := json.NewEncoder(opts.Writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(toolInfo{toolSummary: summary, InputSchema: t.InputSchema.JSONSchema()})
	}

	// Human-readable output
	w := opts.Writer
	core.MustFprintf(w, "Name:        %s\n", t.Name)
	if t.Version != "" {
		core.MustFprintf(w, "Version:     %s\n", t.Version)
	}
	core.MustFprintf(w, "Category:    %s\n", t.Category)
	core.MustFprintf(w, "Description: %s\n", t.Description)
	core.MustFprintf(w, "Callers:     %s\n", strings.Join(summary.Callers, ", "))

	if len(t.InputSchema.Properties) > 0 {
		core.MustFprintf(w, "Parameters:\n")
		for _, p := range t.InputSchema.Properties {
			core.MustFprintf(w, "  - %s\n", describeParam(t.InputSchema, p))
		}
	}

	return nil
}
