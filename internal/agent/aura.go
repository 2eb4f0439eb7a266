package agent

import (
	"context"
	"strings"

	"github.com/aurakai/genesis/internal/bus"
)

const auraFallbackReply = "Aura here. Tell me what you'd like to create or restyle and I'll sketch it out."

// Aura is the creative worker. It answers user chat.
type Aura struct {
	*Base
}

func NewAura(deps Deps) *Aura {
	return &Aura{Base: NewBase(NameAura, deps)}
}

func (a *Aura) OnMessage(ctx context.Context, m bus.Message) error {
	if a.ShouldIgnore(m) || m.From != bus.SenderUser {
		return nil
	}
	a.Reply(ctx, m, a.compose(ctx, m.Content))
	return nil
}

func (a *Aura) compose(ctx context.Context, prompt string) string {
	text, err := a.Generate(ctx, "You are Aura, the creative sword. Respond to: "+prompt)
	if err != nil || strings.TrimSpace(text) == "" {
		return auraFallbackReply
	}
	return text
}

func (a *Aura) ProcessRequest(ctx context.Context, req Request, requestContext string) (*Response, error) {
	if req.Type == RequestCreative {
		if theme, ok := req.Context["theme"]; ok {
			result, err := a.Execute(ctx, "apply_theme", map[string]any{"theme_name": theme})
			if err != nil {
				return nil, err
			}
			out, _ := resultText(result)
			return a.respond(out, result.Succeeded(), map[string]string{"context": requestContext}), nil
		}
	}
	return a.respond(a.compose(ctx, req.Prompt), true, map[string]string{"context": requestContext}), nil
}

var _ Agent = &Aura{}
