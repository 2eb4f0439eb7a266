package tool

import (
	"encoding/json"
	"fmt"
)

// ErrorCode classifies a failed invocation.
type ErrorCode string

const (
	CodeToolNotFound   ErrorCode = "TOOL_NOT_FOUND"
	CodeUnauthorized   ErrorCode = "UNAUTHORIZED"
	CodeExecutionError ErrorCode = "EXECUTION_ERROR"
	CodeInvalidParams  ErrorCode = "INVALID_PARAMS"
)

// Result is the outcome of a tool invocation: Success, Failure or Pending.
type Result interface {
	// Succeeded reports whether the result counts as a success. Pending does.
	Succeeded() bool
	isResult()
}

// Success carries the tool output.
type Success struct {
	Output   string
	Metadata map[string]any
}

// Failure carries an error message and its classification.
type Failure struct {
	Error string
	Code  ErrorCode
}

// Pending marks a long-running operation that was accepted but not finished.
type Pending struct {
	TaskID              string
	EstimatedDurationMs int64
}

func (Success) Succeeded() bool { return true }
func (Failure) Succeeded() bool { return false }
func (Pending) Succeeded() bool { return true }

func (Success) isResult() {}
func (Failure) isResult() {}
func (Pending) isResult() {}

// Interface guards for Result
var (
	_ Result = Success{}
	_ Result = Failure{}
	_ Result = Pending{}
)

type resultJSON struct {
	Success           bool           `json:"success"`
	Pending           bool           `json:"pending,omitempty"`
	Output            *string        `json:"output,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
	Error             string         `json:"error,omitempty"`
	ErrorCode         ErrorCode      `json:"errorCode,omitempty"`
	TaskID            string         `json:"taskId,omitempty"`
	EstimatedDuration int64          `json:"estimatedDuration,omitempty"`
}

// MarshalResult encodes a result in its wire form.
func MarshalResult(r Result) (string, error) {
	var out resultJSON
	switch v := r.(type) {
	case Success:
		output := v.Output
		out = resultJSON{Success: true, Output: &output, Metadata: v.Metadata}
		if out.Metadata == nil {
			out.Metadata = map[string]any{}
		}
	case Failure:
		out = resultJSON{Success: false, Error: v.Error, ErrorCode: v.Code}
	case Pending:
		out = resultJSON{Success: true, Pending: true, TaskID: v.TaskID, EstimatedDuration: v.EstimatedDurationMs}
	default:
		return "", fmt.Errorf("unknown result type %T", r)
	}

	data, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}
	return string(data), nil
}

// UnmarshalResult decodes the wire form produced by MarshalResult.
func UnmarshalResult(data string) (Result, error) {
	var in resultJSON
	if err := json.Unmarshal([]byte(data), &in); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	switch {
	case in.Pending:
		return Pending{TaskID: in.TaskID, EstimatedDurationMs: in.EstimatedDuration}, nil
	case in.Success:
		s := Success{Metadata: in.Metadata}
		if in.Output != nil {
			s.Output = *in.Output
		}
		return s, nil
	default:
		return Failure{Error: in.Error, Code: in.ErrorCode}, nil
	}
}
