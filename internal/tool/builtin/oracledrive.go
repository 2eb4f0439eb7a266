package builtin

import (
	"context"
	"fmt"

	"github.com/aurakai/genesis/internal/tool"
)

func oracleDriveTools() []*tool.Tool {
	return []*tool.Tool{
		{
			Name:              "query_storage",
			Description:       "Query OracleDrive storage usage and contents.",
			Version:           "1.0.0",
			Category:          tool.CategoryStorage,
			AuthorizedCallers: tool.Callers(callers(CallerOracleDrive, CallerGenesis)...),
			InputSchema: tool.NewInputSchema([]string{"query"},
				tool.Prop("query", "string", "What to look up"),
				tool.Prop("scope", "string", "Storage scope").WithEnum("local", "cloud", "all").WithDefault("all"),
			),
			Execute: queryStorage,
		},
	}
}

func queryStorage(_ context.Context, params map[string]any, _ string) (tool.Result, error) {
	query := stringParam(params, "query")
	scope := stringParam(params, "scope")
	return tool.Success{
		Output:   fmt.Sprintf("No %s storage entries match '%s'", scope, query),
		Metadata: map[string]any{"query": query, "scope": scope, "matches": 0},
	}, nil
}
