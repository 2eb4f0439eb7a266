package agent

import (
	"fmt"
	"maps"
	"strconv"
	"time"

	"github.com/aurakai/genesis/internal/bus"
)

// SourceAgentMediation tags requests built from loosely typed payloads.
const SourceAgentMediation = "agent_mediation"

// Payload is anything a worker can be asked to handle, classified by PayloadOf.
type Payload interface {
	payloadKind() string
}

// StructuredMessage is a bus message.
type StructuredMessage struct {
	Message bus.Message
}

// PlainRequest is already a canonical request.
type PlainRequest struct {
	Request Request
}

// RawText is free text.
type RawText struct {
	Text string
}

// Unknown is any other value. It is coerced to its string form.
type Unknown struct {
	Value            any
	OriginalTypeName string
}

func (StructuredMessage) payloadKind() string { return "structured_message" }
func (PlainRequest) payloadKind() string      { return "plain_request" }
func (RawText) payloadKind() string           { return "raw_text" }
func (Unknown) payloadKind() string           { return "unknown" }

// Interface guards for Payload
var (
	_ Payload = StructuredMessage{}
	_ Payload = PlainRequest{}
	_ Payload = RawText{}
	_ Payload = Unknown{}
)

// PayloadOf classifies v.
func PayloadOf(v any) Payload {
	switch p := v.(type) {
	case Payload:
		return p
	case bus.Message:
		return StructuredMessage{Message: p}
	case *bus.Message:
		if p != nil {
			return StructuredMessage{Message: *p}
		}
	case Request:
		return PlainRequest{Request: p}
	case *Request:
		if p != nil {
			return PlainRequest{Request: *p}
		}
	case string:
		return RawText{Text: p}
	}
	return Unknown{Value: v, OriginalTypeName: fmt.Sprintf("%T", v)}
}

// ToRequest converts any payload to a canonical request.
func ToRequest(p Payload) Request {
	switch v := p.(type) {
	case StructuredMessage:
		m := v.Message
		ctx := maps.Clone(m.Metadata)
		if ctx == nil {
			ctx = map[string]string{}
		}
		ctx["from"] = m.From
		ctx["priority"] = strconv.Itoa(m.Priority)
		ctx["timestamp"] = m.Timestamp.UTC().Format(time.RFC3339Nano)
		ctx["message_type"] = m.Type
		return Request{Prompt: m.Content, Type: ParseRequestType(m.Type), Context: ctx}
	case PlainRequest:
		req := v.Request
		if req.Type == "" {
			req.Type = RequestText
		}
		return req
	case RawText:
		return Request{
			Prompt:  v.Text,
			Type:    RequestText,
			Context: map[string]string{bus.MetaSource: SourceAgentMediation},
		}
	case Unknown:
		return Request{
			Prompt: fmt.Sprint(v.Value),
			Type:   RequestText,
			Context: map[string]string{
				bus.MetaSource:       SourceAgentMediation,
				bus.MetaOriginalType: v.OriginalTypeName,
			},
		}
	default:
		return Request{Prompt: fmt.Sprint(p), Type: RequestText}
	}
}
