package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aurakai/genesis/internal/config"
	"github.com/aurakai/genesis/internal/core"
	"github.com/aurakai/genesis/internal/tui"
)

// newConfigCmd creates the config command group
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read and write genesis configuration",
		Long: `Read and write configuration values. Values come from, in order of
precedence: GENESIS_* environment variables, ./genesis.yaml, ~/.genesis/config.yaml
and the built-in defaults.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get KEY",
		Short: "Print a configuration value and its source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := config.GetConfigValue(args[0])
			if err != nil {
				return err
			}
			core.MustFprintf(cmd.OutOrStdout(), "%v (%s)\n", value.Value, value.Source)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Write a configuration value to the project or user config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.SetConfigValue(args[0], args[1]); err != nil {
				return err
			}
			core.MustFprintf(cmd.OutOrStdout(), "Set %s = %s\n", args[0], args[1])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every configuration value with its source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := config.ListConfig()
			if err != nil {
				return err
			}

			keys := make([]string, 0, len(values))
			for key := range values {
				keys = append(keys, key)
			}
			slices.Sort(keys)

			rows := make([][]string, 0, len(keys))
			for _, key := range keys {
				rows = append(rows, []string{key, formatValue(values[key].Value), values[key].Source})
			}
			core.MustFprintf(cmd.OutOrStdout(), "%s\n", tui.RenderTable([]string{"KEY", "VALUE", "SOURCE"}, rows))
			return nil
		},
	})

	return cmd
}

func formatValue(v any) string {
	if s, ok := v.(string); ok && s == "" {
		return `""`
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
