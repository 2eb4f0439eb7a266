package testing

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aurakai/genesis/internal/agent"
	"github.com/aurakai/genesis/internal/bus"
)

// Journal records lifecycle calls across several agents in call order.
type Journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *Journal) add(entry string) {
	if j == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
}

// Entries returns "<agent>.<phase>" entries in call order.
func (j *Journal) Entries() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]string, len(j.entries))
	copy(out, j.entries)
	return out
}

// Filter returns the entries for one phase, e.g. "init".
func (j *Journal) Filter(phase string) []string {
	var out []string
	for _, e := range j.Entries() {
		if name, p, ok := strings.Cut(e, "."); ok && p == phase {
			out = append(out, name)
		}
	}
	return out
}

// RecordingAgent is an agent.Agent that records what happens to it. The
// *Err fields make the matching phase fail; the Panic* fields make it panic.
type RecordingAgent struct {
	name    string
	aliases []string
	journal *Journal

	InitErr       error
	StartErr      error
	ShutdownErr   error
	MessageErr    error
	PanicShutdown bool
	PanicMessage  bool
	// Respond overrides the ProcessRequest answer.
	Respond func(req agent.Request, requestContext string) (*agent.Response, error)

	mu       sync.Mutex
	ctx      context.Context
	received []bus.Message
	requests []agent.Request
	notify   chan bus.Message
}

var _ agent.Agent = &RecordingAgent{}

// NewRecordingAgent creates an agent that logs its lifecycle to journal,
// which may be nil.
func NewRecordingAgent(name string, journal *Journal, aliases ...string) *RecordingAgent {
	return &RecordingAgent{
		name:    name,
		aliases: append([]string{strings.ToLower(name)}, aliases...),
		journal: journal,
		notify:  make(chan bus.Message, 64),
	}
}

func (a *RecordingAgent) Name() string      { return a.name }
func (a *RecordingAgent) Aliases() []string { return a.aliases }

func (a *RecordingAgent) Initialize(ctx context.Context) error {
	a.journal.add(a.name + ".init")
	a.mu.Lock()
	a.ctx = ctx
	a.mu.Unlock()
	return a.InitErr
}

func (a *RecordingAgent) Start(context.Context) error {
	a.journal.add(a.name + ".start")
	return a.StartErr
}

func (a *RecordingAgent) Shutdown(context.Context) error {
	a.journal.add(a.name + ".shutdown")
	if a.PanicShutdown {
		panic(fmt.Sprintf("%s exploded during shutdown", a.name))
	}
	return a.ShutdownErr
}

func (a *RecordingAgent) OnMessage(_ context.Context, m bus.Message) error {
	if a.PanicMessage {
		panic(fmt.Sprintf("%s exploded on message", a.name))
	}
	a.mu.Lock()
	a.received = append(a.received, m)
	a.mu.Unlock()
	select {
	case a.notify <- m:
	default:
	}
	return a.MessageErr
}

func (a *RecordingAgent) ProcessRequest(_ context.Context, req agent.Request, requestContext string) (*agent.Response, error) {
	a.mu.Lock()
	a.requests = append(a.requests, req)
	a.mu.Unlock()
	if a.Respond != nil {
		return a.Respond(req, requestContext)
	}
	return &agent.Response{Content: a.name + " handled " + req.Prompt, AgentName: a.name, Success: true}, nil
}

// Context is the context passed to Initialize.
func (a *RecordingAgent) Context() context.Context {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ctx
}

// Received returns the delivered messages in delivery order.
func (a *RecordingAgent) Received() []bus.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]bus.Message, len(a.received))
	copy(out, a.received)
	return out
}

// Requests returns the processed requests.
func (a *RecordingAgent) Requests() []agent.Request {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]agent.Request, len(a.requests))
	copy(out, a.requests)
	return out
}

// Delivered signals every delivered message.
func (a *RecordingAgent) Delivered() <-chan bus.Message {
	return a.notify
}
