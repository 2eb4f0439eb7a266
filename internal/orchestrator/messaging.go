package orchestrator

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/aurakai/genesis/internal/agent"
	"github.com/aurakai/genesis/internal/bus"
	"github.com/aurakai/genesis/internal/core"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// interventionPriority is the alert priority above which Genesis steps in.
	interventionPriority = 5
	reflectionExcerpt    = 50
	mediationLogExcerpt  = 100
)

func normalize(m bus.Message) bus.Message {
	m = m.Clone()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	return m
}

// Subscribe observes the shared stream. The most recent message is replayed.
func (o *Orchestrator) Subscribe() (<-chan bus.Message, func()) {
	return o.stream.Subscribe()
}

// Broadcast appends m to the stream and delivers it asynchronously to every
// worker except its sender. A user message without recipient also triggers a
// Genesis coordination reflection.
func (o *Orchestrator) Broadcast(ctx context.Context, m bus.Message) *bus.Receipt {
	m = normalize(m)
	if err := ctx.Err(); err != nil {
		return bus.FailedReceipt(m.ID, err)
	}

	zap.L().Debug("Broadcast",
		zap.String("from", m.From),
		zap.String("type", m.Type),
		zap.String("content", core.Truncate(m.Content, 80)))

	if err := o.stream.Publish(m); err != nil {
		zap.L().Warn("Broadcast dropped", zap.String("message_id", m.ID), zap.Error(err))
		return bus.FailedReceipt(m.ID, err)
	}

	var recipients []agent.Agent
	for _, a := range o.agents {
		if !strings.EqualFold(a.Name(), m.From) {
			recipients = append(recipients, a)
		}
	}
	receipt := o.fanout(m, recipients)

	if m.Type == bus.TypeAlert && m.Priority > interventionPriority {
		zap.L().Warn("Genesis intervening in high-priority alert",
			zap.String("from", m.From),
			zap.Int("priority", m.Priority),
			zap.String("content", m.Content))
	}
	if m.From == bus.SenderUser && m.IsBroadcast() {
		o.reflect(ctx, m)
	}
	return receipt
}

// SendTargeted appends a copy of m addressed to to and delivers it to that
// worker only. Unknown recipients and the sender itself receive nothing.
func (o *Orchestrator) SendTargeted(ctx context.Context, to string, m bus.Message) *bus.Receipt {
	m = normalize(m).WithRecipient(to)
	if err := ctx.Err(); err != nil {
		return bus.FailedReceipt(m.ID, err)
	}

	zap.L().Debug("Targeted",
		zap.String("from", m.From),
		zap.String("to", to),
		zap.String("content", core.Truncate(m.Content, 80)))

	if err := o.stream.Publish(m); err != nil {
		zap.L().Warn("Targeted message dropped", zap.String("message_id", m.ID), zap.Error(err))
		return bus.FailedReceipt(m.ID, err)
	}

	if strings.EqualFold(to, bus.SenderGenesis) {
		if m.From == bus.SenderUser {
			o.reflect(ctx, m)
		}
		return bus.CompletedReceipt(m.ID)
	}

	target, ok := o.Agent(to)
	if !ok {
		zap.L().Warn("Targeted message to unknown agent",
			zap.String("to", to),
			zap.String("from", m.From))
		return bus.CompletedReceipt(m.ID)
	}
	if strings.EqualFold(target.Name(), m.From) {
		return bus.CompletedReceipt(m.ID)
	}
	return o.fanout(m, []agent.Agent{target})
}

func (o *Orchestrator) fanout(m bus.Message, recipients []agent.Agent) *bus.Receipt {
	if len(recipients) == 0 {
		return bus.CompletedReceipt(m.ID)
	}

	o.mu.RLock()
	if o.state == StateShutdown || o.draining {
		o.mu.RUnlock()
		return bus.FailedReceipt(m.ID, bus.ErrStreamClosed)
	}
	o.deliveries.Add(len(recipients))
	o.mu.RUnlock()

	names := make([]string, 0, len(recipients))
	for _, a := range recipients {
		names = append(names, a.Name())
	}
	receipt, done := bus.Collect(m.ID, names)
	for _, a := range recipients {
		o.mailboxes[a.Name()].post(m, done)
	}
	return receipt
}

func (o *Orchestrator) deliver(a agent.Agent, m bus.Message) error {
	defer o.deliveries.Done()

	ctx := o.workerContext(a.Name())
	if err := ctx.Err(); err != nil {
		return &WorkerError{Agent: a.Name(), Phase: PhaseDeliver, Err: err}
	}
	if err := call(func() error { return a.OnMessage(ctx, m) }); err != nil {
		zap.L().Error("Agent failed to process message",
			zap.String("agent", a.Name()),
			zap.String("message_id", m.ID),
			zap.Error(err))
		return &WorkerError{Agent: a.Name(), Phase: PhaseDeliver, Err: err}
	}
	return nil
}

// reflect broadcasts the Genesis coordination view of a user message.
func (o *Orchestrator) reflect(ctx context.Context, m bus.Message) {
	content := fmt.Sprintf("Nexus Alignment: %d domains unified under Genesis.\n\nAnalyzing intent: '%s...'",
		len(o.agents), excerpt(m.Content, reflectionExcerpt))

	reflection := bus.NewMessage(bus.SenderGenesis, content, bus.TypeCoordination).
		WithMeta(bus.MetaState, "unified").
		WithMeta(bus.MetaReplyTo, m.ID).
		MarkEmitted(bus.SenderGenesis)
	o.Broadcast(ctx, reflection)
}

// excerpt returns the first n runes of s.
func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// MediateAgentMessage converts payload to a canonical request and hands it to
// the worker named to. Faults are logged, never returned; the response is nil
// when nothing was processed.
func (o *Orchestrator) MediateAgentMessage(ctx context.Context, from, to string, payload any) *agent.Response {
	target, ok := o.Agent(to)
	if !ok {
		zap.L().Warn("Mediation target not found",
			zap.String("from", from),
			zap.String("to", to))
		return nil
	}

	req := agent.ToRequest(agent.PayloadOf(payload))
	req.Context = maps.Clone(req.Context)
	if req.Context == nil {
		req.Context = map[string]string{}
	}
	if _, ok := req.Context["from"]; !ok {
		req.Context["from"] = from
	}

	var resp *agent.Response
	err := call(func() error {
		var err error
		resp, err = target.ProcessRequest(ctx, req, agent.RequestContextAgentToAgent)
		return err
	})
	if err != nil {
		zap.L().Error("Agent mediation failed",
			zap.String("from", from),
			zap.String("to", target.Name()),
			zap.Error(err))
		return nil
	}
	if resp == nil {
		zap.L().Warn("Agent mediation returned no response",
			zap.String("from", from),
			zap.String("to", target.Name()))
		return nil
	}

	zap.L().Info("Agent mediation complete",
		zap.String("from", from),
		zap.String("to", target.Name()),
		zap.String("response", core.Truncate(resp.Content, mediationLogExcerpt)))
	return resp
}
