package builtin

import (
	"context"
	"fmt"

	"github.com/aurakai/genesis/internal/tool"
)

func auraTools() []*tool.Tool {
	return []*tool.Tool{
		{
			Name:              "apply_theme",
			Description:       "Apply a system-wide color theme using ChromaCore. Changes all UI colors instantly.",
			Version:           "1.0.0",
			Category:          tool.CategoryUICustomization,
			AuthorizedCallers: tool.Callers(callers(CallerAura)...),
			InputSchema: tool.NewInputSchema([]string{"theme_name"},
				tool.Prop("theme_name", "string", "Name of the theme to apply (e.g., 'cyberpunk', 'ocean', 'sunset', 'forest')"),
				tool.Prop("primary_color", "string", "Primary color in hex format").WithDefault("#FF1493"),
				tool.Prop("accent_color", "string", "Accent color in hex format").WithDefault("#00D9FF"),
				tool.Prop("apply_system_wide", "boolean", "Whether to apply theme across entire system or just app").WithDefault("true"),
			),
			Execute: applyTheme,
		},
		{
			Name:              "customize_status_bar",
			Description:       "Customize status bar appearance: height, colors and battery display.",
			Version:           "1.0.0",
			Category:          tool.CategoryUICustomization,
			AuthorizedCallers: tool.Callers(callers(CallerAura)...),
			InputSchema: tool.NewInputSchema(nil,
				tool.Prop("height", "number", "Status bar height in dp").WithDefault("24"),
				tool.Prop("background_color", "string", "Background color in hex format").WithDefault("#000000"),
				tool.Prop("icon_color", "string", "Icon color in hex format").WithDefault("#FFFFFF"),
				tool.Prop("show_battery_percentage", "boolean", "Show battery percentage next to the icon").WithDefault("true"),
			),
			Execute: customizeStatusBar,
		},
		{
			Name:              "generate_ui_component",
			Description:       "Generate a UI component design in the requested style.",
			Version:           "1.0.0",
			Category:          tool.CategoryUICustomization,
			AuthorizedCallers: tool.Callers(callers(CallerAura, CallerGenesis)...),
			InputSchema: tool.NewInputSchema([]string{"component_type", "style"},
				tool.Prop("component_type", "string", "Kind of component to generate").
					WithEnum("button", "card", "dialog", "navigation", "overlay", "widget"),
				tool.Prop("style", "string", "Visual style").
					WithEnum("material", "neon", "glassmorphism", "wireframe", "cyberpunk"),
				tool.Prop("color_scheme", "string", "Color scheme to use").WithDefault("dynamic"),
			),
			Execute: generateUIComponent,
		},
	}
}

func applyTheme(_ context.Context, params map[string]any, _ string) (tool.Result, error) {
	themeName := stringParam(params, "theme_name")
	primary := stringParam(params, "primary_color")
	accent := stringParam(params, "accent_color")
	systemWide := boolParam(params, "apply_system_wide", true)

	return tool.Success{
		Output: fmt.Sprintf("Theme '%s' applied successfully. Primary: %s, Accent: %s", themeName, primary, accent),
		Metadata: map[string]any{
			"theme_name":    themeName,
			"primary_color": primary,
			"accent_color":  accent,
			"system_wide":   systemWide,
		},
	}, nil
}

func customizeStatusBar(_ context.Context, params map[string]any, _ string) (tool.Result, error) {
	height := intParam(params, "height", 24)
	if height <= 0 {
		return tool.Failure{Error: fmt.Sprintf("invalid status bar height %d", height), Code: tool.CodeInvalidParams}, nil
	}

	return tool.Success{
		Output: fmt.Sprintf("Status bar customized: height %ddp, background %s, icons %s",
			height, stringParam(params, "background_color"), stringParam(params, "icon_color")),
		Metadata: map[string]any{
			"height":                  height,
			"show_battery_percentage": boolParam(params, "show_battery_percentage", true),
		},
	}, nil
}

func generateUIComponent(_ context.Context, params map[string]any, _ string) (tool.Result, error) {
	componentType := stringParam(params, "component_type")
	style := stringParam(params, "style")

	return tool.Success{
		Output: fmt.Sprintf("Generated %s component in %s style (%s colors)",
			componentType, style, stringParam(params, "color_scheme")),
		Metadata: map[string]any{
			"component_type": componentType,
			"style":          style,
		},
	}, nil
}
