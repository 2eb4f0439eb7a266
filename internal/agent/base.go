package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/aurakai/genesis/internal/bus"
	"github.com/aurakai/genesis/internal/core"
	"github.com/aurakai/genesis/internal/dispatch"
	"github.com/aurakai/genesis/internal/tool"
	"go.uber.org/zap"
)

var (
	ErrNotInitialized     = errors.New("agent not initialized")
	ErrAlreadyInitialized = errors.New("agent already initialized")
)

// Deps are the shared collaborators handed to every worker.
type Deps struct {
	Bus      bus.Bus
	Registry *tool.Registry
	// Engine generates free text replies. Optional.
	Engine dispatch.Engine
}

// Base carries the plumbing every worker shares. Embed it and implement
// OnMessage and ProcessRequest.
type Base struct {
	name    string
	aliases []string
	guard   bus.Guard
	deps    Deps

	mu          sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	initialized bool
	running     bool

	wg sync.WaitGroup
}

// NewBase creates the shared part of a worker. The lowercase name is always
// an alias.
func NewBase(name string, deps Deps, aliases ...string) *Base {
	all := []string{strings.ToLower(name)}
	for _, a := range aliases {
		a = strings.ToLower(a)
		if a != all[0] {
			all = append(all, a)
		}
	}
	return &Base{
		name:    name,
		aliases: all,
		guard:   bus.Guard{Self: name},
		deps:    deps,
	}
}

func (b *Base) Name() string { return b.name }

func (b *Base) Aliases() []string {
	out := make([]string, len(b.aliases))
	copy(out, b.aliases)
	return out
}

// CallerID is the identity the worker uses against the tool registry.
func (b *Base) CallerID() string {
	return strings.ToLower(b.name)
}

// Initialize derives the worker's own context from ctx.
func (b *Base) Initialize(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.initialized {
		return ErrAlreadyInitialized
	}
	b.ctx, b.cancel = context.WithCancel(ctx)
	b.initialized = true

	zap.L().Debug("Agent initialized", zap.String("agent", b.name))
	return nil
}

func (b *Base) Start(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return fmt.Errorf("start %s: %w", b.name, ErrNotInitialized)
	}
	b.running = true

	zap.L().Debug("Agent started", zap.String("agent", b.name))
	return nil
}

// Shutdown cancels the worker context and waits for work started with Go,
// or until ctx is done.
func (b *Base) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	b.running = false
	cancel := b.cancel
	b.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		zap.L().Debug("Agent stopped", zap.String("agent", b.name))
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown %s: %w", b.name, ctx.Err())
	}
}

func (b *Base) IsRunning() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

// Context is the worker's execution context. Before Initialize it is a
// background context.
func (b *Base) Context() context.Context {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ctx == nil {
		return context.Background()
	}
	return b.ctx
}

// Go runs fn in the background under the worker context. A panic in fn is
// logged and contained.
func (b *Base) Go(fn func(ctx context.Context)) {
	ctx := b.Context()
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				core.LogPanicRecovery(b.name, r)
			}
		}()
		fn(ctx)
	}()
}

// ShouldIgnore reports whether the worker must not react to m.
func (b *Base) ShouldIgnore(m bus.Message) bool {
	return b.guard.ShouldIgnore(m)
}

// Emit broadcasts m as coming from this worker, tagged so no worker reacts
// to it again.
func (b *Base) Emit(ctx context.Context, m bus.Message) *bus.Receipt {
	m = m.MarkEmitted(b.name)
	m.From = b.name
	if b.deps.Bus == nil {
		zap.L().Warn("Agent has no bus, dropping message",
			zap.String("agent", b.name),
			zap.String("type", m.Type))
		return bus.CompletedReceipt(m.ID)
	}
	return b.deps.Bus.Broadcast(ctx, m)
}

// Reply emits a chat_response answering m.
func (b *Base) Reply(ctx context.Context, m bus.Message, content string) *bus.Receipt {
	reply := bus.NewMessage(b.name, content, bus.TypeChatResponse).WithMeta(bus.MetaReplyTo, m.ID)
	return b.Emit(ctx, reply)
}

// Execute runs a registry tool as this worker.
func (b *Base) Execute(ctx context.Context, toolName string, params map[string]any) (tool.Result, error) {
	if b.deps.Registry == nil {
		return nil, fmt.Errorf("%s has no tool registry", b.name)
	}
	resp := b.deps.Registry.Execute(ctx, tool.NewRequest(toolName, b.CallerID(), params))
	return resp.Result()
}

// Generate asks the engine for free text. Without an engine it returns
// dispatch.ErrNoEngine.
func (b *Base) Generate(ctx context.Context, prompt string) (string, error) {
	if b.deps.Engine == nil {
		return "", dispatch.ErrNoEngine
	}
	return b.deps.Engine.Process(ctx, prompt)
}

// Registry exposes the tool registry, or nil.
func (b *Base) Registry() *tool.Registry {
	return b.deps.Registry
}

// respond builds a worker response.
func (b *Base) respond(content string, success bool, meta map[string]string) *Response {
	return &Response{Content: content, AgentName: b.name, Success: success, Metadata: meta}
}
