// Package orchestrator supervises the worker lifecycle, owns the message bus
// and mediates calls between workers.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/aurakai/genesis/internal/agent"
	"github.com/aurakai/genesis/internal/bus"
	"github.com/aurakai/genesis/internal/dispatch"
	"github.com/aurakai/genesis/internal/tool"
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Orchestrator is the process-wide supervisor. It implements bus.Bus.
type Orchestrator struct {
	mu    sync.RWMutex
	state State

	agents []agent.Agent
	index  *xsync.MapOf[string, agent.Agent] // lowercase name or alias
	stream *bus.Stream

	rootCtx    context.Context
	rootCancel context.CancelFunc

	workers     map[string]*worker
	mailboxes   map[string]*mailbox // by agent name, fixed after New
	initialized []agent.Agent       // in initialization order
	faults      []*WorkerError
	draining    bool // no new deliveries once set

	registry *tool.Registry
	engine   dispatch.Engine

	deliveries sync.WaitGroup
}

type worker struct {
	ctx    context.Context
	cancel context.CancelFunc
}

var _ bus.Bus = &Orchestrator{}

type options struct {
	agents     []agent.Agent
	factory    func(bus.Bus) []agent.Agent
	registry   *tool.Registry
	engine     dispatch.Engine
	bufferSize int
}

type Option func(*options)

// WithAgents supervises exactly these workers, initialized in the given order.
func WithAgents(agents ...agent.Agent) Option {
	return func(o *options) {
		o.agents = agents
		o.factory = nil
	}
}

// WithAgentFactory builds the workers once the bus exists.
func WithAgentFactory(factory func(bus.Bus) []agent.Agent) Option {
	return func(o *options) {
		o.factory = factory
		o.agents = nil
	}
}

// WithRegistry sets the tool registry handed to the default workers.
func WithRegistry(reg *tool.Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// WithEngine sets the text engine handed to the default workers.
func WithEngine(engine dispatch.Engine) Option {
	return func(o *options) {
		o.engine = engine
	}
}

// WithSubscriberBuffer sets the per-subscriber stream buffer.
func WithSubscriberBuffer(n int) Option {
	return func(o *options) {
		o.bufferSize = n
	}
}

// New creates an idle orchestrator. Without WithAgents or WithAgentFactory it
// supervises the four domain workers.
func New(opts ...Option) *Orchestrator {
	var cfg options
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.registry == nil {
		cfg.registry = tool.NewRegistry()
	}

	rootCtx, rootCancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		state:      StateIdle,
		index:      xsync.NewMapOf[string, agent.Agent](),
		stream:     bus.NewStream(cfg.bufferSize),
		rootCtx:    rootCtx,
		rootCancel: rootCancel,
		workers:    make(map[string]*worker),
		mailboxes:  make(map[string]*mailbox),
		registry:   cfg.registry,
		engine:     cfg.engine,
	}

	switch {
	case cfg.agents != nil:
		o.agents = cfg.agents
	case cfg.factory != nil:
		o.agents = cfg.factory(o)
	default:
		o.agents = agent.Defaults(agent.Deps{Bus: o, Registry: cfg.registry, Engine: cfg.engine})
	}

	for _, a := range o.agents {
		o.mailboxes[a.Name()] = newMailbox(func(m bus.Message) error {
			return o.deliver(a, m)
		})
		for _, key := range append([]string{a.Name()}, a.Aliases()...) {
			key = strings.ToLower(key)
			if prev, loaded := o.index.LoadOrStore(key, a); loaded && prev != a {
				zap.L().Warn("Agent alias already taken",
					zap.String("alias", key),
					zap.String("agent", a.Name()),
					zap.String("owner", prev.Name()))
			}
		}
	}
	return o
}

// Registry is the tool registry shared with the workers.
func (o *Orchestrator) Registry() *tool.Registry {
	return o.registry
}

// Agents returns the supervised workers in initialization order.
func (o *Orchestrator) Agents() []agent.Agent {
	return slices.Clone(o.agents)
}

// Agent finds a worker by name or alias, case-insensitively.
func (o *Orchestrator) Agent(name string) (agent.Agent, bool) {
	return o.index.Load(strings.ToLower(strings.TrimSpace(name)))
}

func (o *Orchestrator) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// Active reports whether the named worker finished initialization and its
// execution context is still live.
func (o *Orchestrator) Active(name string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if !slices.ContainsFunc(o.initialized, func(a agent.Agent) bool { return a.Name() == name }) {
		return false
	}
	w, ok := o.workers[name]
	return ok && w.ctx.Err() == nil
}

func (o *Orchestrator) IsReady() bool        { return o.State() == StateReady }
func (o *Orchestrator) IsDegraded() bool     { return o.State() == StateDegraded }
func (o *Orchestrator) IsInitializing() bool { return o.State() == StateInitializing }

// fire applies ev to the current state.
func (o *Orchestrator) fire(ev Event) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.fireLocked(ev)
}

func (o *Orchestrator) fireLocked(ev Event) error {
	next, err := Transition(o.state, ev)
	if err != nil {
		return err
	}
	old := o.state
	o.state = next
	zap.L().Debug("Platform state changed",
		zap.String("event", string(ev)),
		zap.String("old_state", string(old)),
		zap.String("new_state", string(next)))
	return nil
}

// fail moves to StateError and returns the worker fault. If shutdown already
// took over, only the fault is returned.
func (o *Orchestrator) fail(werr *WorkerError) error {
	if err := o.fire(EventFail); err != nil {
		zap.L().Warn("Initialization fault after lifecycle moved on",
			zap.String("state", string(o.State())),
			zap.Error(werr))
	}
	zap.L().Error("Platform initialization failed",
		zap.String("agent", werr.Agent),
		zap.String("phase", werr.Phase),
		zap.Error(werr.Err))
	return werr
}

// InitializePlatform initializes every worker in order, then starts them all
// concurrently. A fault moves the platform to StateError; workers that did
// initialize are not rolled back.
func (o *Orchestrator) InitializePlatform(ctx context.Context) error {
	if err := o.fire(EventInitialize); err != nil {
		return err
	}
	zap.L().Info("Initializing platform", zap.Int("agents", len(o.agents)))

	for _, a := range o.agents {
		if err := ctx.Err(); err != nil {
			return o.fail(&WorkerError{Agent: a.Name(), Phase: PhaseInitialize, Err: err})
		}

		w, err := o.admit(a)
		if err != nil {
			return err
		}
		if err := call(func() error { return a.Initialize(w.ctx) }); err != nil {
			return o.fail(&WorkerError{Agent: a.Name(), Phase: PhaseInitialize, Err: err})
		}
		if !o.commit(a) {
			// shutdown began while a was initializing and has not seen it
			if err := call(func() error { return a.Shutdown(ctx) }); err != nil {
				zap.L().Error("Agent shutdown failed", zap.String("agent", a.Name()), zap.Error(err))
			}
			return fmt.Errorf("initialize %s: %w", a.Name(), &TransitionError{From: o.State(), Event: EventDomainsReady})
		}
		zap.L().Debug("Agent domain ready", zap.String("agent", a.Name()))
	}

	if err := o.fire(EventDomainsReady); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, a := range o.agents {
		g.Go(func() error {
			if err := call(func() error { return a.Start(gctx) }); err != nil {
				return &WorkerError{Agent: a.Name(), Phase: PhaseStart, Err: err}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var werr *WorkerError
		if !errors.As(err, &werr) {
			werr = &WorkerError{Phase: PhaseStart, Err: err}
		}
		return o.fail(werr)
	}

	if err := o.fire(EventStarted); err != nil {
		return err
	}
	zap.L().Info("Platform ready", zap.Int("agents", len(o.agents)))
	return nil
}

// admit gives a its own execution context. It refuses once initialization
// has been abandoned.
func (o *Orchestrator) admit(a agent.Agent) (*worker, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != StateInitializing {
		return nil, fmt.Errorf("initialize %s: %w", a.Name(), &TransitionError{From: o.state, Event: EventDomainsReady})
	}
	ctx, cancel := context.WithCancel(o.rootCtx)
	w := &worker{ctx: ctx, cancel: cancel}
	o.workers[a.Name()] = w
	return w, nil
}

// commit records a as initialized unless initialization was abandoned.
func (o *Orchestrator) commit(a agent.Agent) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateInitializing {
		return false
	}
	o.initialized = append(o.initialized, a)
	return true
}

// ShutdownPlatform shuts the initialized workers down in reverse order and
// cancels every worker context. Worker faults are logged and collected, never
// returned; see ShutdownFaults.
func (o *Orchestrator) ShutdownPlatform(ctx context.Context) error {
	o.mu.Lock()
	if err := o.fireLocked(EventShutdown); err != nil {
		o.mu.Unlock()
		return err
	}
	initialized := slices.Clone(o.initialized)
	o.mu.Unlock()

	zap.L().Info("Shutting down platform", zap.Int("agents", len(initialized)))

	for _, a := range slices.Backward(initialized) {
		err := call(func() error { return a.Shutdown(ctx) })
		if err != nil {
			werr := &WorkerError{Agent: a.Name(), Phase: PhaseShutdown, Err: err}
			zap.L().Error("Agent shutdown failed",
				zap.String("agent", a.Name()),
				zap.Error(err))
			o.mu.Lock()
			o.faults = append(o.faults, werr)
			o.mu.Unlock()
		}
	}

	o.mu.Lock()
	for _, w := range o.workers {
		w.cancel()
	}
	o.draining = true
	o.mu.Unlock()
	o.rootCancel()
	o.waitForDeliveries(ctx)
	o.stream.Close()

	if err := o.fire(EventShutdownComplete); err != nil {
		return err
	}
	zap.L().Info("Platform shut down", zap.Int("faults", len(o.ShutdownFaults())))
	return nil
}

func (o *Orchestrator) waitForDeliveries(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		o.deliveries.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		zap.L().Warn("Gave up waiting for in-flight deliveries", zap.Error(ctx.Err()))
	}
}

// ShutdownFaults returns the worker faults collected during shutdown.
func (o *Orchestrator) ShutdownFaults() []*WorkerError {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return slices.Clone(o.faults)
}

// Degrade marks a ready platform as degraded.
func (o *Orchestrator) Degrade(reason string) error {
	if err := o.fire(EventDegrade); err != nil {
		return err
	}
	zap.L().Warn("Platform degraded", zap.String("reason", reason))
	return nil
}

// Recover returns a degraded platform to ready.
func (o *Orchestrator) Recover() error {
	if err := o.fire(EventRecover); err != nil {
		return err
	}
	zap.L().Info("Platform recovered")
	return nil
}

func (o *Orchestrator) Pause() error {
	return o.fire(EventPause)
}

func (o *Orchestrator) Resume() error {
	return o.fire(EventResume)
}

// workerContext is the execution context deliveries to a run under. Workers
// that never initialized get the root context.
func (o *Orchestrator) workerContext(name string) context.Context {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if w, ok := o.workers[name]; ok {
		return w.ctx
	}
	return o.rootCtx
}

// Engine is the text engine handed to the default workers, or nil.
func (o *Orchestrator) Engine() dispatch.Engine {
	return o.engine
}
