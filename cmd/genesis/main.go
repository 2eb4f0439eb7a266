package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aurakai/genesis/internal/core"
)

var (
	version = "dev"
	// build time date
	buildDate = "unknown"
)

func main() {
	err := newRootCmd().Execute()
	core.SyncLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// rootOptions holds the persistent flags every command shares.
type rootOptions struct {
	configPath string
	prettyLog  bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "genesis",
		Short: "Genesis multi-agent orchestration runtime",
		Long: `Genesis coordinates a crew of specialized workers (Kai, Aura, Cascade and
OracleDrive) over a shared message bus, gates their tools behind a capability
registry and answers prompts through a primary engine with a local fallback.`,
		Version:       fmt.Sprintf("%s (built: %s)", version, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to genesis.yaml config file")
	rootCmd.PersistentFlags().BoolVar(&opts.prettyLog, "pretty", false, "Use pretty-printed logs instead of JSON")

	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newRunCmd(opts))
	rootCmd.AddCommand(newToolCmd(opts))
	rootCmd.AddCommand(newAgentsCmd(opts))
	rootCmd.AddCommand(newAskCmd(opts))
	rootCmd.AddCommand(newBroadcastCmd(opts))
	rootCmd.AddCommand(newPulseCmd(opts))
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}
