// Package server exposes the capability registry and the worker crew over
// the Model Context Protocol.
package server

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/aurakai/genesis/internal/agent"
	"github.com/aurakai/genesis/internal/tool"
)

const (
	// AskToolName is the MCP tool that mediates a prompt to a worker.
	AskToolName = "genesis_ask"

	serverName    = "genesis"
	serverVersion = "1.0.0"
	mediatorName  = "Claude"
)

// Mediator hands a payload to a named worker and returns its response, or nil.
type Mediator interface {
	MediateAgentMessage(ctx context.Context, from, to string, payload any) *agent.Response
}

// Option configures a GenesisServer.
type Option func(*GenesisServer)

// WithMediator exposes AskToolName backed by m.
func WithMediator(m Mediator) Option {
	return func(s *GenesisServer) { s.mediator = m }
}

// WithGatherer serves gatherer on /metrics instead of the default registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *GenesisServer) { s.gatherer = g }
}

// GenesisServer serves the tools authorized for one caller id.
type GenesisServer struct {
	registry *tool.Registry
	callerID string
	mediator Mediator
	gatherer prometheus.Gatherer

	mu              sync.RWMutex
	mcpServer       *mcp.Server
	httpHandler     *mcp.StreamableHTTPHandler
	registeredTools mapset.Set[string]
}

// NewGenesisServer creates a server over registry. Tools are filtered for callerID.
func NewGenesisServer(registry *tool.Registry, callerID string, opts ...Option) *GenesisServer {
	s := &GenesisServer{
		registry:        registry,
		callerID:        callerID,
		gatherer:        prometheus.DefaultGatherer,
		registeredTools: mapset.NewSet[string](),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.rebuildServer()

	s.httpHandler = mcp.NewStreamableHTTPHandler(
		func(*http.Request) *mcp.Server {
			s.mu.RLock()
			defer s.mu.RUnlock()
			return s.mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: false,
		},
	)

	return s
}

// CallerID returns the caller id tool calls are made as.
func (s *GenesisServer) CallerID() string {
	return s.callerID
}

// RegisteredTools returns the names of the tools currently served.
func (s *GenesisServer) RegisteredTools() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := s.registeredTools.ToSlice()
	slices.Sort(names)
	return names
}

// Reload rebuilds the MCP server from the registry's current contents.
// Sessions already connected keep the instance they started with.
func (s *GenesisServer) Reload() {
	s.rebuildServer()
}

func (s *GenesisServer) rebuildServer() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mcpServer = mcp.NewServer(
		&mcp.Implementation{Name: serverName, Version: serverVersion},
		nil,
	)
	s.registeredTools = mapset.NewSet[string]()

	tools := s.registry.ListForCaller(s.callerID)
	if len(tools) == 0 {
		zap.L().Warn("No tools authorized for server caller",
			zap.String("caller", s.callerID),
			zap.String("hint", "Adjust tool.authorizations in the configuration"))
	} else {
		zap.L().Info("Serving tools",
			zap.Int("count", len(tools)),
			zap.String("caller", s.callerID))
	}

	for _, t := range tools {
		s.registerTool(t)
	}

	if s.mediator != nil {
		s.registerAskTool()
	}
}

// registerTool must be called with s.mu held.
func (s *GenesisServer) registerTool(t *tool.Tool) {
	name := t.Name
	handler := func(ctx context.Context, _ *mcp.CallToolRequest, input map[string]any) (*mcp.CallToolResult, map[string]any, error) {
		return s.handleToolCall(ctx, name, input)
	}

	zap.L().Debug("Registering tool with MCP server",
		zap.String("tool", t.Name),
		zap.String("category", string(t.Category)))

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        t.Name,
		Description: t.Description,
		InputSchema: inputSchema(t),
	}, handler)

	s.registeredTools.Add(t.Name)
}

// inputSchema renders t's parameters for MCP. Defaults are stored as text and
// applied by the registry, so they are left out of the advertised schema.
func inputSchema(t *tool.Tool) map[string]any {
	schema := t.InputSchema.JSONSchema()
	if props, ok := schema["properties"].(map[string]any); ok {
		for _, p := range props {
			if m, ok := p.(map[string]any); ok {
				delete(m, "default")
			}
		}
	}
	return schema
}

// handleToolCall runs a registry tool as the server caller and converts the
// result. Registry failures become MCP error results, never protocol errors.
func (s *GenesisServer) handleToolCall(ctx context.Context, toolName string, input map[string]any) (*mcp.CallToolResult, map[string]any, error) {
	resp := s.registry.Execute(ctx, tool.NewRequest(toolName, s.callerID, input))
	result, err := resp.Result()
	if err != nil {
		return errorResult(fmt.Sprintf("undecodable tool result: %v", err)), nil, nil
	}
	callResult, output := buildToolResponse(result)
	output["request_id"] = resp.RequestID
	output["execution_time_ms"] = resp.ExecutionTimeMs
	return callResult, output, nil
}

// buildToolResponse converts a registry result into MCP content plus the
// structured output map.
func buildToolResponse(result tool.Result) (*mcp.CallToolResult, map[string]any) {
	switch v := result.(type) {
	case tool.Success:
		output := map[string]any{"success": true, "output": v.Output}
		if len(v.Metadata) > 0 {
			output["metadata"] = v.Metadata
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: v.Output}},
		}, output
	case tool.Pending:
		text := fmt.Sprintf("Task %s pending (~%dms)", v.TaskID, v.EstimatedDurationMs)
		output := map[string]any{
			"success":            true,
			"pending":            true,
			"task_id":            v.TaskID,
			"estimated_duration": v.EstimatedDurationMs,
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: text}},
		}, output
	case tool.Failure:
		res := errorResult(fmt.Sprintf("%s: %s", v.Code, v.Error))
		return res, map[string]any{"success": false, "error": v.Error, "error_code": string(v.Code)}
	default:
		return errorResult(fmt.Sprintf("unexpected result type %T", result)), map[string]any{"success": false}
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

type askInput struct {
	Agent  string `json:"agent" jsonschema:"worker to ask (Kai, Aura, Cascade or OracleDrive)"`
	Prompt string `json:"prompt" jsonschema:"what to ask"`
	Type   string `json:"type,omitempty" jsonschema:"request type such as text, security, creative, storage or fusion"`
}

type askOutput struct {
	Agent   string            `json:"agent"`
	Content string            `json:"content"`
	Success bool              `json:"success"`
	Meta    map[string]string `json:"metadata,omitempty"`
}

// registerAskTool must be called with s.mu held.
func (s *GenesisServer) registerAskTool() {
	handler := func(ctx context.Context, _ *mcp.CallToolRequest, in askInput) (*mcp.CallToolResult, askOutput, error) {
		if strings.TrimSpace(in.Agent) == "" {
			return errorResult("agent is required"), askOutput{}, nil
		}

		req := agent.Request{Prompt: in.Prompt, Type: agent.ParseRequestType(in.Type)}
		resp := s.mediator.MediateAgentMessage(ctx, mediatorName, in.Agent, req)
		if resp == nil {
			return errorResult(fmt.Sprintf("agent %s did not respond", in.Agent)), askOutput{}, nil
		}

		out := askOutput{
			Agent:   resp.AgentName,
			Content: resp.Content,
			Success: resp.Success,
			Meta:    resp.Metadata,
		}
		return &mcp.CallToolResult{
			IsError: !resp.Success,
			Content: []mcp.Content{&mcp.TextContent{Text: resp.Content}},
		}, out, nil
	}

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        AskToolName,
		Description: "Ask one of the Genesis workers and return its response.",
	}, handler)
	s.registeredTools.Add(AskToolName)
}

// Handler returns the HTTP routes: /mcp for the streamable transport and
// /metrics for Prometheus.
func (s *GenesisServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/mcp", s.httpHandler)
	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return mux
}

// Serve starts the server on the given address using HTTP (Streamable HTTP transport per MCP spec)
// and stops it gracefully when ctx is done.
func (s *GenesisServer) Serve(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	zap.L().Info("Server listening", zap.String("address", addr))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zap.L().Error("Server shutdown error", zap.Error(err))
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to serve: %w", err)
	}

	return nil
}

// Connect attaches the current MCP server to t and returns the session.
func (s *GenesisServer) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	s.mu.RLock()
	server := s.mcpServer
	s.mu.RUnlock()
	return server.Connect(ctx, t, nil)
}

// ServeStdio starts the server using stdio transport (per MCP spec)
func (s *GenesisServer) ServeStdio(ctx context.Context) error {
	s.mu.RLock()
	server := s.mcpServer
	s.mu.RUnlock()
	return server.Run(ctx, &mcp.StdioTransport{})
}
