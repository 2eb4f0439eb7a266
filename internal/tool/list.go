package tool

import (
	"encoding/json"
	"io"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/aurakai/genesis/internal/core"
)

// ListOptions configures the output format for listing tools
type ListOptions struct {
	JSON     bool
	Verbose  bool
	CallerID string // when set, only the tools this caller may use
	Writer   io.Writer
}

type toolSummary struct {
	Name        string   `json:"name"`
	Version     string   `json:"version,omitempty"`
	Category    Category `json:"category"`
	Description string   `json:"description"`
	Callers     []string `json:"authorizedCallers"`
}

func summarize(t *Tool) toolSummary {
	s := toolSummary{
		Name:        t.Name,
		Version:     t.Version,
		Category:    t.Category,
		Description: t.Description,
		Callers:     []string{},
	}
	if t.AuthorizedCallers != nil {
		s.Callers = t.AuthorizedCallers.ToSlice()
		slices.Sort(s.Callers)
	}
	return s
}

// ListTools writes the registered tools in the specified output format
func ListTools(reg *Registry, opts ListOptions) error {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}

	tools := reg.List()
	if opts.CallerID != "" {
		tools = reg.ListForCaller(opts.CallerID)
	}

	if opts.JSON {
		summaries := make([]toolSummary, 0, len(tools))
		for _, t := range tools {
			summaries = append(summaries, summarize(t))
		}
		encoder := json.NewEncoder(opts.Writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(summaries)
	}

	if len(tools) == 0 {
		core.MustFprintf(opts.Writer, "%s\n", NoToolsAvailable)
		return nil
	}

	if opts.Verbose {
		w := tabwriter.NewWriter(opts.Writer, 0, 0, 2, ' ', 0)

		core.MustFprintf(w, "NAME\tCATEGORY\tVERSION\tDESCRIPTION\n")
		core.MustFprintf(w, "----\t--------\t-------\t-----------\n")

		for _, t := range tools {
			core.MustFprintf(w, "%s\t%s\t%s\t%s\n", t.Name, t.Category, t.Version, core.Truncate(t.Description, 60))
		}

		return w.Flush()
	}

	// Simple format by default: tool-name (category)
	for _, t := range tools {
		core.MustFprintf(opts.Writer, "%s (%s)\n", t.Name, t.Category)
	}

	return nil
}
