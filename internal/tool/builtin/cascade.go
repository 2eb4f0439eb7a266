package builtin

import (
	"context"
	"fmt"
	"strings"

	"github.com/aurakai/genesis/internal/tool"
)

func cascadeTools() []*tool.Tool {
	return []*tool.Tool{
		{
			Name:              "fuse_insights",
			Description:       "Merge insights from multiple agents into a single unified summary.",
			Version:           "1.0.0",
			Category:          tool.CategoryFusion,
			AuthorizedCallers: tool.Callers(callers(CallerCascade, CallerGenesis)...),
			InputSchema: tool.NewInputSchema([]string{"insights"},
				tool.Prop("insights", "array", "Insights to fuse").
					WithItems(tool.PropertySchema{Type: "string", Description: "Insight text"}),
				tool.Prop("fusion_mode", "string", "Type of fusion to perform").
					WithEnum("trinity", "pentad", "full_nexus", "specialized_pair").WithDefault("trinity"),
			),
			Execute: fuseInsights,
		},
		{
			Name:              "monitor_data_stream",
			Description:       "Monitor a data stream between two endpoints.",
			Version:           "1.0.0",
			Category:          tool.CategoryMonitoring,
			AuthorizedCallers: tool.Callers(callers(CallerCascade)...),
			InputSchema: tool.NewInputSchema([]string{"stream_source", "stream_destination"},
				tool.Prop("stream_source", "string", "Stream source"),
				tool.Prop("stream_destination", "string", "Stream destination"),
				tool.Prop("sample_rate", "number", "Samples per second").WithDefault("1"),
			),
			Execute: monitorDataStream,
		},
	}
}

func fuseInsights(_ context.Context, params map[string]any, _ string) (tool.Result, error) {
	insights := stringsParam(params, "insights")
	if len(insights) == 0 {
		return tool.Failure{Error: "no insights to fuse", Code: tool.CodeInvalidParams}, nil
	}

	mode := stringParam(params, "fusion_mode")
	return tool.Success{
		Output: fmt.Sprintf("Fused %d insights (%s): %s", len(insights), mode, strings.Join(insights, " | ")),
		Metadata: map[string]any{
			"fusion_mode": mode,
			"count":       len(insights),
		},
	}, nil
}

func monitorDataStream(_ context.Context, params map[string]any, _ string) (tool.Result, error) {
	source := stringParam(params, "stream_source")
	destination := stringParam(params, "stream_destination")
	return tool.Success{
		Output: fmt.Sprintf("Monitoring %s -> %s at %d Hz", source, destination, intParam(params, "sample_rate", 1)),
	}, nil
}
