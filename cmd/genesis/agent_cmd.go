package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aurakai/genesis/internal/agent"
	"github.com/aurakai/genesis/internal/bus"
	"github.com/aurakai/genesis/internal/core"
	"github.com/aurakai/genesis/internal/orchestrator"
	"github.com/aurakai/genesis/internal/tui"
)

const defaultRenderWidth = 80

// newAgentsCmd creates the agents command
func newAgentsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "List the crew with aliases and authorized tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(opts)
			if err != nil {
				return err
			}
			platform, err := newPlatform(cfg)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(platform.Agents()))
			for _, a := range platform.Agents() {
				callerID := strings.ToLower(a.Name())
				rows = append(rows, []string{
					a.Name(),
					strings.Join(a.Aliases(), ", "),
					strconv.Itoa(len(platform.Registry().ListForCaller(callerID))),
				})
			}
			core.MustFprintf(cmd.OutOrStdout(), "%s\n", tui.RenderTable([]string{"AGENT", "ALIASES", "TOOLS"}, rows))
			return nil
		},
	}
}

// newAskCmd creates the ask command for one-shot mediation
func newAskCmd(opts *rootOptions) *cobra.Command {
	var requestType string

	cmd := &cobra.Command{
		Use:   "ask AGENT PROMPT",
		Short: "Ask one worker directly",
		Long: `Start the crew, hand the prompt to one worker as a direct request and print
its response. Agent names are case insensitive and accept aliases.

Examples:
  genesis ask kai "is <script>alert(1)</script> safe?" --type security
  genesis ask aura "make it calm" --type creative
  genesis ask oracle backups`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(opts)
			if err != nil {
				return err
			}

			req := agent.Request{Prompt: args[1], Type: agent.ParseRequestType(requestType)}
			return withPlatform(cmd.Context(), cfg, func(platform *orchestrator.Orchestrator) error {
				tui.Progress(fmt.Sprintf("Asking %s...", args[0]))
				resp := platform.MediateAgentMessage(cmd.Context(), bus.SenderUser, args[0], req)
				if resp == nil {
					tui.ProgressFailure(fmt.Sprintf("%s did not respond", args[0]))
					return fmt.Errorf("agent %s did not respond", args[0])
				}
				tui.ProgressSuccess(fmt.Sprintf("%s responded", resp.AgentName))

				rendered, err := tui.RenderMarkdown(resp.Content, defaultRenderWidth)
				if err != nil {
					rendered = resp.Content
				}
				core.MustFprintf(cmd.OutOrStdout(), "%s\n", strings.TrimRight(rendered, "\n"))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&requestType, "type", "t", string(agent.RequestText), "Request type (text, security, creative, storage, fusion, ...)")

	return cmd
}

// newBroadcastCmd creates the broadcast command
func newBroadcastCmd(opts *rootOptions) *cobra.Command {
	var (
		msgType  string
		priority int
		to       string
		wait     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "broadcast MESSAGE",
		Short: "Send a message on the bus and print the traffic it causes",
		Long: `Start the crew, send MESSAGE from User (to everyone, or to one worker with
--to) and print every bus message until --wait passes without new traffic.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(opts)
			if err != nil {
				return err
			}

			return withPlatform(cmd.Context(), cfg, func(platform *orchestrator.Orchestrator) error {
				stream, unsubscribe := platform.Subscribe()
				defer unsubscribe()

				m := bus.NewMessage(bus.SenderUser, args[0], msgType).WithPriority(priority)
				var receipt *bus.Receipt
				if to != "" {
					receipt = platform.SendTargeted(cmd.Context(), to, m)
				} else {
					receipt = platform.Broadcast(cmd.Context(), m)
				}
				if err := receipt.Wait(cmd.Context()); err != nil {
					return fmt.Errorf("delivery failed: %w", err)
				}
				if err := receipt.Err(); err != nil {
					tui.Info("Some workers failed to handle the message: %v\n", err)
				}

				printTraffic(cmd.Context(), cmd, stream, wait)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&msgType, "type", "t", bus.TypeText, "Message type")
	cmd.Flags().IntVar(&priority, "priority", 0, "Message priority")
	cmd.Flags().StringVar(&to, "to", "", "Send to one worker instead of broadcasting")
	cmd.Flags().DurationVar(&wait, "wait", 500*time.Millisecond, "How long to wait for further traffic")

	return cmd
}

// printTraffic prints messages from stream until it is quiet for wait.
func printTraffic(ctx context.Context, cmd *cobra.Command, stream <-chan bus.Message, wait time.Duration) {
	idle := time.NewTimer(wait)
	defer idle.Stop()

	for {
		select {
		case m, ok := <-stream:
			if !ok {
				return
			}
			core.MustFprintf(cmd.OutOrStdout(), "%s\n", tui.RenderMessage(m))
			if !idle.Stop() {
				<-idle.C
			}
			idle.Reset(wait)
		case <-idle.C:
			return
		case <-ctx.Done():
			return
		}
	}
}

// newPulseCmd creates the pulse command
func newPulseCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pulse PROMPT",
		Short: "Send a prompt through the primary engine with fallback",
		Long: `Send PROMPT to the primary engine, retrying with exponential backoff, and
fall back to the secondary engine once the retries are exhausted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(opts)
			if err != nil {
				return err
			}
			catalyst, err := newCatalyst(cfg)
			if err != nil {
				return err
			}

			tui.Progress("Pulsing...")
			text, err := catalyst.UnifiedPulse(cmd.Context(), args[0])
			if err != nil {
				tui.ProgressFailure("Pulse failed")
				return err
			}
			tui.ProgressSuccess("Pulse complete")

			rendered, renderErr := tui.RenderMarkdown(text, defaultRenderWidth)
			if renderErr != nil {
				rendered = text
			}
			core.MustFprintf(cmd.OutOrStdout(), "%s\n", strings.TrimRight(rendered, "\n"))
			return nil
		},
	}
}
