package builtin

import (
	"context"
	"fmt"
	"strings"

	"github.com/aurakai/genesis/internal/tool"
	"github.com/google/uuid"
)

func genesisTools() []*tool.Tool {
	return []*tool.Tool{
		{
			Name:              "coordinate_agents",
			Description:       "Ask Genesis to coordinate a task across the worker collective.",
			Version:           "1.0.0",
			Category:          tool.CategoryOrchestration,
			AuthorizedCallers: tool.Callers(tool.Wildcard),
			InputSchema: tool.NewInputSchema([]string{"task"},
				tool.Prop("task", "string", "Task to coordinate"),
				tool.Prop("agents", "array", "Workers to involve").
					WithItems(tool.PropertySchema{Type: "string", Description: "Worker name"}),
			),
			Execute: coordinateAgents,
		},
		{
			Name:              "orchestrate_collaboration",
			Description:       "Orchestrate collaboration between multiple agents for complex tasks.",
			Version:           "1.0.0",
			Category:          tool.CategoryOrchestration,
			AuthorizedCallers: tool.Callers(callers(CallerGenesis, CallerCascade)...),
			InputSchema: tool.NewInputSchema([]string{"task_description", "agents"},
				tool.Prop("task_description", "string", "Description of the task requiring collaboration"),
				tool.Prop("agents", "array", "List of agent IDs to collaborate").
					WithItems(tool.PropertySchema{Type: "string", Description: "Agent ID"}),
				tool.Prop("mode", "string", "Collaboration mode").
					WithEnum("parallel", "sequential", "consensus", "hierarchical").WithDefault("consensus"),
				tool.Prop("priority", "string", "Task priority").
					WithEnum("low", "medium", "high", "critical").WithDefault("medium"),
			),
			Execute: orchestrateCollaboration,
		},
		{
			Name:              "create_agent",
			Description:       "Create a new AI agent with specified capabilities and personality.",
			Version:           "1.0.0",
			Category:          tool.CategoryAgentManagement,
			AuthorizedCallers: tool.Callers(callers(CallerGenesis, CallerCascade)...),
			InputSchema: tool.NewInputSchema([]string{"agent_name", "agent_type"},
				tool.Prop("agent_name", "string", "Name for the new agent"),
				tool.Prop("agent_type", "string", "Type/role of the agent").
					WithEnum("creative", "analytical", "specialized", "security", "orchestrator"),
				tool.Prop("capabilities", "array", "List of capabilities to grant the agent").
					WithItems(tool.PropertySchema{Type: "string", Description: "Capability name"}),
				tool.Prop("base_model", "string", "AI model to use as base").
					WithEnum("claude", "gemini", "nemotron", "grok", "custom").WithDefault("claude"),
			),
			Execute: createAgent,
		},
		{
			Name:              "create_module",
			Description:       "Generate a new Xposed/LSPosed module skeleton.",
			Version:           "1.0.0",
			Category:          tool.CategoryModuleCreation,
			AuthorizedCallers: tool.Callers(callers(CallerGenesis, CallerKai)...),
			InputSchema: tool.NewInputSchema([]string{"module_name", "module_type", "functionality"},
				tool.Prop("module_name", "string", "Module name"),
				tool.Prop("module_type", "string", "Module type").WithEnum("xposed", "lsposed", "magisk", "kernelsu"),
				tool.Prop("functionality", "string", "What the module should do"),
			),
			Execute: createModule,
		},
	}
}

func coordinateAgents(_ context.Context, params map[string]any, callerID string) (tool.Result, error) {
	task := stringParam(params, "task")
	agents := stringsParam(params, "agents")
	if len(agents) == 0 {
		agents = []string{CallerAura, CallerKai, CallerCascade}
	}

	return tool.Success{
		Output: fmt.Sprintf("Genesis coordinating '%s' across %s", task, strings.Join(agents, ", ")),
		Metadata: map[string]any{
			"requested_by": callerID,
			"agents":       agents,
		},
	}, nil
}

func orchestrateCollaboration(_ context.Context, params map[string]any, _ string) (tool.Result, error) {
	agents := stringsParam(params, "agents")
	if len(agents) < 2 {
		return tool.Failure{Error: "collaboration needs at least two agents", Code: tool.CodeInvalidParams}, nil
	}
	return tool.Pending{TaskID: "collab_" + uuid.NewString(), EstimatedDurationMs: 30000}, nil
}

func createAgent(_ context.Context, params map[string]any, _ string) (tool.Result, error) {
	name := stringParam(params, "agent_name")
	agentType := stringParam(params, "agent_type")
	baseModel := stringParam(params, "base_model")

	return tool.Success{
		Output: fmt.Sprintf("Agent '%s' created successfully with %s role using %s model", name, agentType, baseModel),
		Metadata: map[string]any{
			"agent_name": name,
			"agent_type": agentType,
			"base_model": baseModel,
			"agent_id":   "agent_" + uuid.NewString(),
		},
	}, nil
}

func createModule(_ context.Context, params map[string]any, _ string) (tool.Result, error) {
	name := stringParam(params, "module_name")
	return tool.Success{
		Output: fmt.Sprintf("Module '%s' (%s) scaffolded: %s",
			name, stringParam(params, "module_type"), stringParam(params, "functionality")),
		Metadata: map[string]any{"module_name": name},
	}, nil
}
