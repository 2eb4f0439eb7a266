package builtin

import (
	"context"
	"fmt"
	"strings"

	"github.com/aurakai/genesis/internal/tool"
)

// AgentStatus is one line of a status report.
type AgentStatus struct {
	Name   string
	Active bool
}

// StatusReport is a snapshot of the platform and its workers.
type StatusReport struct {
	Platform string
	Agents   []AgentStatus
}

// AgentStatusTool reports the live status of every worker. It lives outside
// the stock catalog because it reads the running platform through report.
func AgentStatusTool(report func() StatusReport) *tool.Tool {
	return &tool.Tool{
		Name:              "get_agent_status",
		Description:       "Report the status of every agent in the collective.",
		Version:           "1.0.0",
		Category:          tool.CategoryMonitoring,
		AuthorizedCallers: tool.Callers(tool.Wildcard),
		InputSchema:       tool.NewInputSchema(nil),
		Execute: func(context.Context, map[string]any, string) (tool.Result, error) {
			return statusResult(report()), nil
		},
	}
}

func statusResult(r StatusReport) tool.Result {
	var b strings.Builder
	b.WriteString("Agent Status Report:\n")
	if r.Platform != "" {
		fmt.Fprintf(&b, "Platform: %s\n", r.Platform)
	}

	active := 0
	for _, a := range r.Agents {
		status := "inactive"
		if a.Active {
			status = "active"
			active++
		}
		fmt.Fprintf(&b, "- %s: %s\n", a.Name, status)
	}

	return tool.Success{
		Output: strings.TrimSuffix(b.String(), "\n"),
		Metadata: map[string]any{
			"agent_count":  len(r.Agents),
			"active_count": active,
		},
	}
}
