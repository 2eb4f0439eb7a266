package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aurakai/genesis/internal/config"
	"github.com/aurakai/genesis/internal/orchestrator"
	"github.com/aurakai/genesis/internal/server"
)

// newServeCmd creates the serve command
func newServeCmd(opts *rootOptions) *cobra.Command {
	var (
		useStdio bool
		portFlag int
		caller   string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the genesis MCP server",
		Long: `Start the crew and serve the tools authorized for the server caller over MCP.

The server runs in HTTP mode (default port 8080, with /mcp and /metrics) or in
stdio mode for MCP clients. SIGHUP rebuilds the served tool list.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(opts)
			if err != nil {
				return err
			}
			if err := applyServeFlags(cfg, portFlag, caller); err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, useStdio)
		},
	}

	cmd.Flags().IntVar(&portFlag, "port", 0, "Port to listen on (ignored if stdio is used)")
	cmd.Flags().BoolVar(&useStdio, "stdio", false, "Use stdio instead of TCP port")
	cmd.Flags().StringVar(&caller, "caller", "", "Caller id the served tools are filtered for (overrides config)")

	return cmd
}

// applyServeFlags validates the flags and applies them over the configuration
func applyServeFlags(cfg *config.GenesisConfig, portFlag int, caller string) error {
	if portFlag < 0 || portFlag > 65535 {
		return fmt.Errorf("port must be between 1 and 65535 (or 0 to remain unset), got %d", portFlag)
	}
	if portFlag != 0 {
		cfg.Server.Port = portFlag
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = config.DefaultServerPort
	}
	if caller != "" {
		cfg.Server.Caller = caller
	}
	return nil
}

func runServe(ctx context.Context, cfg *config.GenesisConfig, useStdio bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	return withPlatform(ctx, cfg, func(platform *orchestrator.Orchestrator) error {
		srv := server.NewGenesisServer(platform.Registry(), cfg.Server.Caller, server.WithMediator(platform))

		ctx, cancel := setupSignalHandling(ctx, srv)
		defer cancel()

		var err error
		if useStdio {
			zap.L().Info("Starting genesis server on stdio")
			err = srv.ServeStdio(ctx)
		} else {
			addr := fmt.Sprintf(":%d", cfg.Server.Port)
			zap.L().Info("Starting genesis server", zap.String("address", addr))
			err = srv.Serve(ctx, addr)
		}

		if errors.Is(err, context.Canceled) {
			zap.L().Info("Server context canceled, exiting gracefully")
			return nil
		}
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
}

// setupSignalHandling reloads the served tools on SIGHUP and cancels the
// returned context on SIGINT or SIGTERM.
func setupSignalHandling(ctx context.Context, srv *server.GenesisServer) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		for {
			select {
			case sig := <-sigChan:
				switch sig {
				case syscall.SIGHUP:
					zap.L().Info("Received SIGHUP, reloading tools")
					srv.Reload()
				case syscall.SIGINT, syscall.SIGTERM:
					zap.L().Info("Received shutdown signal")
					cancel()
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}
