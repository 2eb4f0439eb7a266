package agent

import (
	"context"
	"sync"

	"github.com/aurakai/genesis/internal/bus"
)

// MaxLogEntries bounds the OracleDrive message log.
const MaxLogEntries = 500

// OracleDrive is the storage worker. It keeps a bounded log of observed
// messages and answers storage queries.
type OracleDrive struct {
	*Base

	mu  sync.Mutex
	log []bus.Message
}

func NewOracleDrive(deps Deps) *OracleDrive {
	return &OracleDrive{Base: NewBase(NameOracleDrive, deps, "oracle")}
}

// OnMessage archives everything it receives, including generated traffic,
// except its own messages.
func (o *OracleDrive) OnMessage(_ context.Context, m bus.Message) error {
	if m.From == o.name || m.Flag(bus.ProcessedKey(o.name)) {
		return nil
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.log = append(o.log, m.Clone())
	if over := len(o.log) - MaxLogEntries; over > 0 {
		o.log = append(o.log[:0:0], o.log[over:]...)
	}
	return nil
}

// Log returns the archived messages, oldest first.
func (o *OracleDrive) Log() []bus.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]bus.Message, len(o.log))
	copy(out, o.log)
	return out
}

func (o *OracleDrive) ProcessRequest(ctx context.Context, req Request, requestContext string) (*Response, error) {
	result, err := o.Execute(ctx, "query_storage", map[string]any{"query": req.Prompt})
	if err != nil {
		return nil, err
	}
	text, ok := resultText(result)
	return o.respond(text, ok, map[string]string{"context": requestContext}), nil
}

var _ Agent = &OracleDrive{}

// Defaults returns the four domain workers in initialization order.
func Defaults(deps Deps) []Agent {
	return []Agent{
		NewCascade(deps),
		NewKai(deps),
		NewAura(deps),
		NewOracleDrive(deps),
	}
}
