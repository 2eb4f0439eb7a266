package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/aurakai/genesis/internal/bus"
	"github.com/aurakai/genesis/internal/tool"
	"go.uber.org/zap"
)

// MaxInsights bounds the insights Cascade keeps.
const MaxInsights = 100

// Cascade is the data pipeline worker. It collects insights from the stream
// and fuses them on request.
type Cascade struct {
	*Base

	mu       sync.Mutex
	insights []string
}

func NewCascade(deps Deps) *Cascade {
	return &Cascade{Base: NewBase(NameCascade, deps)}
}

func (c *Cascade) record(insight string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.insights = append(c.insights, insight)
	if over := len(c.insights) - MaxInsights; over > 0 {
		c.insights = append(c.insights[:0:0], c.insights[over:]...)
	}
}

// Insights returns the recorded insights, oldest first.
func (c *Cascade) Insights() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.insights))
	copy(out, c.insights)
	return out
}

func (c *Cascade) OnMessage(ctx context.Context, m bus.Message) error {
	if c.ShouldIgnore(m) {
		return nil
	}

	if m.Type == bus.TypeFusion {
		out, err := c.fuse(ctx, m.Meta("fusion_mode"))
		if err != nil {
			return err
		}
		c.Emit(ctx, bus.NewMessage(c.name, out, bus.TypeFusion).WithMeta(bus.MetaReplyTo, m.ID))
		return nil
	}

	if m.Content != "" {
		c.record(fmt.Sprintf("%s: %s", m.From, m.Content))
	}
	return nil
}

func (c *Cascade) fuse(ctx context.Context, mode string) (string, error) {
	insights := c.Insights()
	params := map[string]any{"insights": toAnySlice(insights)}
	if mode != "" {
		params["fusion_mode"] = mode
	}

	result, err := c.Execute(ctx, "fuse_insights", params)
	if err != nil {
		return "", fmt.Errorf("fuse insights: %w", err)
	}
	text, ok := resultText(result)
	if !ok {
		zap.L().Warn("Insight fusion failed", zap.String("error", text))
	}
	return text, nil
}

func (c *Cascade) ProcessRequest(ctx context.Context, req Request, requestContext string) (*Response, error) {
	if req.Type == RequestFusion {
		text, err := c.fuse(ctx, req.Context["fusion_mode"])
		if err != nil {
			return nil, err
		}
		return c.respond(text, true, map[string]string{"context": requestContext}), nil
	}

	from := req.Context["from"]
	if from == "" {
		from = requestContext
	}
	c.record(fmt.Sprintf("%s: %s", from, req.Prompt))
	return c.respond("Insight recorded.", true, map[string]string{
		"insights": fmt.Sprint(len(c.Insights())),
		"context":  requestContext,
	}), nil
}

// resultText renders a tool result as text; ok is false for failures.
func resultText(r tool.Result) (string, bool) {
	switch v := r.(type) {
	case tool.Success:
		return v.Output, true
	case tool.Failure:
		return v.Error, false
	case tool.Pending:
		return fmt.Sprintf("Task %s pending (~%dms)", v.TaskID, v.EstimatedDurationMs), true
	}
	return "", false
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

var _ Agent = &Cascade{}
