package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/aurakai/genesis/internal/bus"
	"github.com/aurakai/genesis/internal/tool"
	"go.uber.org/zap"
)

const (
	// AlertPriority is the priority of security alerts.
	AlertPriority = 10

	kaiFallbackReply = "Acknowledged. System integrity remains stable. How may I assist with your technical or security requirements?"
	metaAutoVal      = "auto_val"
)

var (
	securityTriggers   = []string{"security", "validate"}
	suspiciousPatterns = []string{"javascript:", "<script", "eval(", "onclick="}
)

// DetectThreats returns the suspicious patterns found in content,
// case-insensitively.
func DetectThreats(content string) []string {
	lower := strings.ToLower(content)
	var found []string
	for _, p := range suspiciousPatterns {
		if strings.Contains(lower, p) {
			found = append(found, p)
		}
	}
	return found
}

func mentionsAny(content string, words []string) bool {
	lower := strings.ToLower(content)
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// Kai is the security worker. It validates the collective stream when asked
// to and raises alerts on unsafe content.
type Kai struct {
	*Base
}

func NewKai(deps Deps) *Kai {
	return &Kai{Base: NewBase(NameKai, deps)}
}

func (k *Kai) addressedToMe(m bus.Message) bool {
	if m.IsBroadcast() {
		return true
	}
	for _, a := range k.aliases {
		if strings.EqualFold(m.To, a) {
			return true
		}
	}
	return false
}

func (k *Kai) OnMessage(ctx context.Context, m bus.Message) error {
	if k.ShouldIgnore(m) {
		return nil
	}

	if k.addressedToMe(m) && mentionsAny(m.Content, securityTriggers) {
		if threats := DetectThreats(m.Content); len(threats) > 0 {
			k.raiseAlert(ctx, m, threats)
			return nil
		}
	}

	if m.From == bus.SenderUser {
		k.Reply(ctx, m, k.chat(ctx, m.Content))
	}
	return nil
}

func (k *Kai) raiseAlert(ctx context.Context, m bus.Message, threats []string) {
	zap.L().Warn("Unsafe patterns detected",
		zap.String("origin", m.From),
		zap.Strings("patterns", threats))

	result, err := k.Execute(ctx, "analyze_security_threat", map[string]any{
		"threat_type": "malware",
		"evidence":    m.Content,
		"severity":    "high",
	})
	if err != nil {
		zap.L().Error("Threat analysis failed", zap.Error(err))
	} else if f, ok := result.(tool.Failure); ok {
		zap.L().Warn("Threat analysis rejected",
			zap.String("error_code", string(f.Code)),
			zap.String("error", f.Error))
	}

	alert := bus.NewMessage(k.name,
		fmt.Sprintf("SECURITY ALERT: Unsafe patterns detected in collective stream. Origin: %s", m.From),
		bus.TypeAlert).
		WithPriority(AlertPriority).
		WithMeta(metaAutoVal, "true")
	k.Emit(ctx, alert)
}

func (k *Kai) chat(ctx context.Context, prompt string) string {
	text, err := k.Generate(ctx, "You are Kai, the security guardian. Respond to: "+prompt)
	if err != nil || strings.TrimSpace(text) == "" {
		return kaiFallbackReply
	}
	return text
}

func (k *Kai) ProcessRequest(ctx context.Context, req Request, requestContext string) (*Response, error) {
	threats := DetectThreats(req.Prompt)
	if req.Type == RequestSecurity || len(threats) > 0 {
		if len(threats) == 0 {
			return k.respond("No unsafe patterns detected.", true, map[string]string{"threats": "0"}), nil
		}
		return k.respond(
			fmt.Sprintf("Unsafe patterns detected: %s", strings.Join(threats, ", ")),
			true,
			map[string]string{"threats": fmt.Sprint(len(threats)), "context": requestContext},
		), nil
	}
	return k.respond(k.chat(ctx, req.Prompt), true, map[string]string{"context": requestContext}), nil
}

var _ Agent = &Kai{}
