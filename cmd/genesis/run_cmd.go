package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aurakai/genesis/internal/agent"
	"github.com/aurakai/genesis/internal/config"
	"github.com/aurakai/genesis/internal/core"
	"github.com/aurakai/genesis/internal/tui"
)

// newRunCmd creates the run command, which lets the dispatch engines drive
// the registry's tools for one caller
func newRunCmd(opts *rootOptions) *cobra.Command {
	var (
		caller       string
		maxToolCalls int
	)

	cmd := &cobra.Command{
		Use:   "run PROMPT",
		Short: "Answer a prompt, letting the engine call the caller's tools",
		Long: `Brief the engine with the tools CALLER may use, then answer PROMPT. Every
tool_use the engine replies with is executed through the registry and its
result fed back until the engine answers in plain text.

Examples:
  genesis run "show me the kernel logs" --caller kai
  genesis run "coordinate a theme refresh" --max-tool-calls 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(opts)
			if err != nil {
				return err
			}
			reg, err := newRegistry(cfg)
			if err != nil {
				return err
			}
			catalyst, err := newCatalyst(cfg)
			if err != nil {
				return err
			}

			loop := agent.NewToolLoop(reg, catalyst, caller,
				agent.WithMaxToolCalls(maxToolCalls),
				agent.WithProgress(tui.Progress),
			)
			result, err := loop.Run(cmd.Context(), args[0])
			if err != nil {
				tui.ProgressFailure("Run failed")
				return err
			}
			tui.ProgressSuccess(fmt.Sprintf("Done (%d tool calls)", len(result.ToolCalls)))

			for _, call := range result.ToolCalls {
				tui.Info("tool call %s success=%t (%dms)\n", call.RequestID, call.Success, call.ExecutionTimeMs)
			}

			rendered, renderErr := tui.RenderMarkdown(result.Content, defaultRenderWidth)
			if renderErr != nil {
				rendered = result.Content
			}
			core.MustFprintf(cmd.OutOrStdout(), "%s\n", strings.TrimRight(rendered, "\n"))
			return nil
		},
	}

	cmd.Flags().StringVar(&caller, "caller", config.DefaultServerCaller, "Caller id the tools run as")
	cmd.Flags().IntVar(&maxToolCalls, "max-tool-calls", agent.DefaultMaxToolCalls, "Maximum tool calls before giving up")

	return cmd
}
