package tool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalResult(t *testing.T) {
	tests := []struct {
		name   string
		result Result
		want   string
	}{
		{
			name:   "success",
			result: Success{Output: "theme applied"},
			want:   `{"success":true,"output":"theme applied","metadata":{}}`,
		},
		{
			name:   "success with metadata",
			result: Success{Output: "", Metadata: map[string]any{"b": 2, "a": "x"}},
			want:   `{"success":true,"output":"","metadata":{"a":"x","b":2}}`,
		},
		{
			name:   "failure",
			result: Failure{Error: "tool 'x' not found", Code: CodeToolNotFound},
			want:   `{"success":false,"error":"tool 'x' not found","errorCode":"TOOL_NOT_FOUND"}`,
		},
		{
			name:   "pending",
			result: Pending{TaskID: "flash-1", EstimatedDurationMs: 300000},
			want:   `{"success":true,"pending":true,"taskId":"flash-1","estimatedDuration":300000}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalResult(tt.result)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, got)
		})
	}
}

func TestMarshalResult_EscapesOutput(t *testing.T) {
	got, err := MarshalResult(Success{Output: "say \"hi\"\nnow"})
	require.NoError(t, err)

	decoded, err := UnmarshalResult(got)
	require.NoError(t, err)
	assert.Equal(t, "say \"hi\"\nnow", decoded.(Success).Output)
}

func TestMarshalResult_UnencodableMetadata(t *testing.T) {
	_, err := MarshalResult(Success{Metadata: map[string]any{"ch": make(chan int)}})
	assert.Error(t, err)
}

func TestUnmarshalResult_Invalid(t *testing.T) {
	_, err := UnmarshalResult("not json")
	assert.Error(t, err)
}

func TestResult_Succeeded(t *testing.T) {
	assert.True(t, Success{}.Succeeded())
	assert.True(t, Pending{}.Succeeded())
	assert.False(t, Failure{}.Succeeded())
}
