package tool

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteToolInfo(t *testing.T) {
	reg := NewRegistry()
	reg.Register(echoTool("echo", "kai"))

	var buf bytes.Buffer
	require.NoError(t, WriteToolInfo(reg, "echo", InfoOptions{Writer: &buf}))

	output := buf.String()
	assert.Contains(t, output, "Name:        echo")
	assert.Contains(t, output, "Version:     1.0.0")
	assert.Contains(t, output, "Callers:     kai")
	assert.Contains(t, output, "  - message: string (required) - text to echo")
}

func TestWriteToolInfo_JSON(t *testing.T) {
	reg := NewRegistry()
	reg.Register(echoTool("echo", "kai"))

	var buf bytes.Buffer
	require.NoError(t, WriteToolInfo(reg, "echo", InfoOptions{Writer: &buf, JSON: true}))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "echo", decoded["name"])
	schema := decoded["inputSchema"].(map[string]any)
	assert.Equal(t, "object", schema["type"])
}

func TestWriteToolInfo_NotRegistered(t *testing.T) {
	reg := NewRegistry()
	reg.Register(echoTool("echo", "kai"))

	err := WriteToolInfo(reg, "ecko", InfoOptions{Writer: &bytes.Buffer{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did you mean 'echo'?")

	err = WriteToolInfo(reg, "unrelated", InfoOptions{Writer: &bytes.Buffer{}})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "did you mean")
}
