package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aurakai/genesis/internal/core"
	"github.com/aurakai/genesis/internal/tool"
)

// newToolCmd creates the tool command group
func newToolCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tool",
		Short: "Inspect and call registry tools",
		Long: `Inspect the capability registry and call its tools. Every call is made on
behalf of a caller id and is refused unless the tool authorizes that caller.`,
	}

	cmd.AddCommand(newToolListCmd(opts))
	cmd.AddCommand(newToolInfoCmd(opts))
	cmd.AddCommand(newToolCallCmd(opts))

	return cmd
}

// newToolListCmd creates the tool list command
func newToolListCmd(opts *rootOptions) *cobra.Command {
	var (
		jsonOutput bool
		verbose    bool
		caller     string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registry tools",
		Long: `List the tools in the capability registry. By default, shows a simple list
format. Use --verbose or --table to see versions, categories and descriptions,
and --caller to only show the tools a caller may use.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(opts)
			if err != nil {
				return err
			}
			reg, err := newRegistry(cfg)
			if err != nil {
				return err
			}
			return tool.ListTools(reg, tool.ListOptions{
				JSON:     jsonOutput,
				Verbose:  verbose,
				CallerID: caller,
				Writer:   cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed information including descriptions")
	cmd.Flags().BoolVar(&verbose, "table", false, "Show detailed information in table format (alias for --verbose)")
	cmd.Flags().StringVar(&caller, "caller", "", "Only list tools this caller id may use")

	return cmd
}

// newToolInfoCmd creates the tool info command
func newToolInfoCmd(opts *rootOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "info TOOL-NAME",
		Short: "Display detailed information about a tool",
		Long: `Display detailed information about a registry tool, including its description,
version, category, authorized callers and parameters.

Examples:
  genesis tool info apply_theme
  genesis tool info query_storage --json`,
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
			return tool.WriteToolInfo(reg, args[0], tool.InfoOptions{
				JSON:   jsonOutput,
				Writer: cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	return cmd
}

// newToolCallCmd creates the tool call command
func newToolCallCmd(opts *rootOptions) *cobra.Command {
	var (
		caller     string
		params     []string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "call TOOL-NAME",
		Short: "Call a registry tool as a caller",
		Long: `Call a registry tool on behalf of a caller id. Parameters are given as
key=value pairs; values that parse as JSON (numbers, booleans, arrays) are
passed typed, anything else as a string.

Examples:
  genesis tool call apply_theme --caller aura --param theme_name=ocean
  genesis tool call query_storage --caller oracledrive --param query=backups --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseParams(params)
			if err != nil {
				return err
			}

			cfg, err := setup(opts)
			if err != nil {
				return err
			}
			reg, err := newRegistry(cfg)
			if err != nil {
				return err
			}

			resp := reg.Execute(cmd.Context(), tool.NewRequest(args[0], caller, parsed))
			if jsonOutput {
				core.MustFprintf(cmd.OutOrStdout(), "%s\n", resp.ResultJSON)
				return nil
			}

			result, err := resp.Result()
			if err != nil {
				return fmt.Errorf("failed to decode tool result: %w", err)
			}
			return writeResult(cmd, result)
		},
	}

	cmd.Flags().StringVar(&caller, "caller", "genesis", "Caller id the call is made as")
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "Tool parameter as key=value (repeatable)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the raw result JSON")

	return cmd
}

func writeResult(cmd *cobra.Command, result tool.Result) error {
	switch v := result.(type) {
	case tool.Success:
		core.MustFprintf(cmd.OutOrStdout(), "%s\n", v.Output)
	case tool.Pending:
		core.MustFprintf(cmd.OutOrStdout(), "Task %s pending (~%dms)\n", v.TaskID, v.EstimatedDurationMs)
	case tool.Failure:
		return fmt.Errorf("%s: %s", v.Code, v.Error)
	}
	return nil
}

// parseParams turns key=value pairs into tool parameters
func parseParams(pairs []string) (map[string]any, error) {
	params := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q: expected key=value", pair)
		}

		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}
		params[key] = value
	}
	return params, nil
}
