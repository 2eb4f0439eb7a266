package tool

import (
	"time"

	"github.com/google/uuid"
)

// Request asks the registry to run a tool on behalf of a caller.
type Request struct {
	ToolName  string         `json:"toolName" validate:"required"`
	CallerID  string         `json:"callerId" validate:"required"`
	Params    map[string]any `json:"parameters"`
	RequestID string         `json:"requestId"`
}

// NewRequest builds a request with a fresh request id.
func NewRequest(toolName, callerID string, params map[string]any) Request {
	return Request{
		ToolName:  toolName,
		CallerID:  callerID,
		Params:    params,
		RequestID: uuid.NewString(),
	}
}

// Response is what the registry returns for every request, including failed ones.
type Response struct {
	RequestID       string `json:"requestId"`
	Success         bool   `json:"success"`
	ResultJSON      string `json:"resultJson"`
	ExecutionTimeMs int64  `json:"executionTimeMs"`
}

// Result decodes ResultJSON.
func (r Response) Result() (Result, error) {
	return UnmarshalResult(r.ResultJSON)
}

// ExecutionRecord is one entry of the execution history.
type ExecutionRecord struct {
	ToolName  string        `json:"toolName"`
	CallerID  string        `json:"callerId"`
	RequestID string        `json:"requestId"`
	Success   bool          `json:"success"`
	ErrorCode ErrorCode     `json:"errorCode,omitempty"`
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
}

// Stats summarizes the execution history.
type Stats struct {
	TotalTools      int              `json:"totalTools"`
	Total           int              `json:"total"`
	SuccessCount    int              `json:"successCount"`
	FailureCount    int              `json:"failureCount"`
	SuccessRate     float64          `json:"successRate"`
	AvgDurationMs   float64          `json:"avgDurationMs"`
	ToolsByCategory map[Category]int `json:"toolsByCategory"`
	PerToolCounts   map[string]int   `json:"perToolCounts"`
	PerCallerCounts map[string]int   `json:"perCallerCounts"`
}
