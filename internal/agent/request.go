package agent

import "strings"

// RequestContextAgentToAgent marks requests mediated between workers.
const RequestContextAgentToAgent = "agent_to_agent"

// RequestType classifies a canonical request.
type RequestType string

const (
	RequestText         RequestType = "text"
	RequestCode         RequestType = "code"
	RequestImage        RequestType = "image"
	RequestAnalysis     RequestType = "analysis"
	RequestSecurity     RequestType = "security"
	RequestCreative     RequestType = "creative"
	RequestStorage      RequestType = "storage"
	RequestFusion       RequestType = "fusion"
	RequestCoordination RequestType = "coordination"
)

func ValidRequestTypes() map[RequestType]struct{} {
	return map[RequestType]struct{}{
		RequestText:         {},
		RequestCode:         {},
		RequestImage:        {},
		RequestAnalysis:     {},
		RequestSecurity:     {},
		RequestCreative:     {},
		RequestStorage:      {},
		RequestFusion:       {},
		RequestCoordination: {},
	}
}

// ParseRequestType maps s to a request type, case-insensitively. Unknown
// values become RequestText.
func ParseRequestType(s string) RequestType {
	t := RequestType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := ValidRequestTypes()[t]; ok {
		return t
	}
	return RequestText
}

// Request is the canonical shape every worker can process.
type Request struct {
	Prompt  string            `json:"prompt"`
	Type    RequestType       `json:"type"`
	Context map[string]string `json:"context,omitempty"`
}

// Response is what a worker returns from ProcessRequest.
type Response struct {
	Content   string            `json:"content"`
	AgentName string            `json:"agentName"`
	Success   bool              `json:"success"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}
