// Package tool implements the capability registry: the catalog of operations
// agents may invoke, the authorization check in front of every invocation and
// the execution telemetry kept for monitoring.
package tool

import (
	"context"

	mapset "github.com/deckarep/golang-set/v2"
)

// Wildcard in a tool's authorized callers means any caller may use it.
const Wildcard = "*"

// Category groups tools by the agent domain they serve.
type Category string

const (
	CategoryUICustomization Category = "ui_customization"
	CategorySecurity        Category = "security"
	CategoryRootManagement  Category = "root_management"
	CategoryROMTools        Category = "rom_tools"
	CategoryBootloader      Category = "bootloader"
	CategoryOrchestration   Category = "orchestration"
	CategoryAgentManagement Category = "agent_management"
	CategoryModuleCreation  Category = "module_creation"
	CategoryFusion          Category = "fusion"
	CategoryVision          Category = "vision"
	CategoryMonitoring      Category = "monitoring"
	CategoryEvolution       Category = "evolution"
	CategorySystem          Category = "system"
	CategoryStorage         Category = "storage"
	CategoryAnalytics       Category = "analytics"
)

func (c Category) String() string {
	return string(c)
}

// ValidCategories returns the set of known categories
func ValidCategories() map[Category]struct{} {
	return map[Category]struct{}{
		CategoryUICustomization: {},
		CategorySecurity:        {},
		CategoryRootManagement:  {},
		CategoryROMTools:        {},
		CategoryBootloader:      {},
		CategoryOrchestration:   {},
		CategoryAgentManagement: {},
		CategoryModuleCreation:  {},
		CategoryFusion:          {},
		CategoryVision:          {},
		CategoryMonitoring:      {},
		CategoryEvolution:       {},
		CategorySystem:          {},
		CategoryStorage:         {},
		CategoryAnalytics:       {},
	}
}

func IsValidCategory(c Category) bool {
	_, ok := ValidCategories()[c]
	return ok
}

// ExecuteFunc runs a tool. params has already been checked against the tool's
// input schema and carries schema defaults for absent optional parameters.
type ExecuteFunc func(ctx context.Context, params map[string]any, callerID string) (Result, error)

// Tool is a named, schema-described, authorization-gated operation.
// A registered tool must be treated as read-only.
type Tool struct {
	Name              string             // unique identifier
	Description       string             // human readable summary, also used in prompts
	Version           string             // optional semantic version, without the "v" prefix
	Category          Category           // domain grouping
	AuthorizedCallers mapset.Set[string] // caller ids, or Wildcard
	InputSchema       InputSchema        // ordered parameter schema
	Execute           ExecuteFunc        // the behavior
}

// Callers builds an authorized caller set.
func Callers(ids ...string) mapset.Set[string] {
	return mapset.NewSet(ids...)
}

// IsAuthorized reports whether callerID may use the tool.
func (t *Tool) IsAuthorized(callerID string) bool {
	if t.AuthorizedCallers == nil {
		return false
	}
	return t.AuthorizedCallers.Contains(Wildcard) || t.AuthorizedCallers.Contains(callerID)
}

// WithCallers returns a copy of the tool authorized for exactly the given callers.
func (t *Tool) WithCallers(ids ...string) *Tool {
	clone := *t
	clone.AuthorizedCallers = Callers(ids...)
	return &clone
}
