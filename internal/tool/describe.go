package tool

import (
	"fmt"
	"strings"
)

// NoToolsAvailable is returned by DescribeForCaller when the caller may use nothing.
const NoToolsAvailable = "No tools available."

const toolUseInstructions = `To use a tool, respond with:
{
  "tool_use": {
    "name": "tool_name",
    "parameters": { ... }
  }
}`

// DescribeForCaller renders the tools callerID may use as prompt text.
func (r *Registry) DescribeForCaller(callerID string) string {
	tools := r.ListForCaller(callerID)
	if len(tools) == 0 {
		return NoToolsAvailable
	}

	var b strings.Builder
	b.WriteString("You have access to the following tools:\n\n")
	for _, t := range tools {
		b.WriteString(describeTool(t))
		b.WriteString("\n")
	}
	b.WriteString(toolUseInstructions)
	b.WriteString("\n")
	return b.String()
}

func describeTool(t *Tool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tool: %s\n", t.Name)
	fmt.Fprintf(&b, "Description: %s\n", t.Description)
	fmt.Fprintf(&b, "Category: %s\n", t.Category)

	params := make([]string, 0, len(t.InputSchema.Properties))
	for _, p := range t.InputSchema.Properties {
		params = append(params, describeParam(t.InputSchema, p))
	}
	fmt.Fprintf(&b, "Parameters: { %s }\n", strings.Join(params, ", "))
	return b.String()
}

func describeParam(schema InputSchema, p Property) string {
	var b strings.Builder
	b.WriteString(p.Name)
	b.WriteString(": ")
	b.WriteString(p.Schema.Type)
	if schema.IsRequired(p.Name) {
		b.WriteString(" (required)")
	}
	b.WriteString(" - ")
	b.WriteString(p.Schema.Description)
	if len(p.Schema.Enum) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(p.Schema.Enum, "|"))
	}
	if p.Schema.Default != nil {
		fmt.Fprintf(&b, " (default: %s)", *p.Schema.Default)
	}
	return b.String()
}
