package tool

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListTools_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ListTools(NewRegistry(), ListOptions{Writer: &buf}))
	assert.Equal(t, NoToolsAvailable+"\n", buf.String())
}

func TestListTools_EmptyJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ListTools(NewRegistry(), ListOptions{JSON: true, Writer: &buf}))
	assert.JSONEq(t, "[]", buf.String())
}

func TestListTools_Simple(t *testing.T) {
	reg := NewRegistry()
	reg.Register(echoTool("echo", Wildcard))
	reg.Register(echoTool("kai_only", "kai"))

	var buf bytes.Buffer
	require.NoError(t, ListTools(reg, ListOptions{Writer: &buf}))
	assert.Equal(t, "echo (system)\nkai_only (system)\n", buf.String())

	buf.Reset()
	require.NoError(t, ListTools(reg, ListOptions{Writer: &buf, CallerID: "aura"}))
	assert.Equal(t, "echo (system)\n", buf.String())
}

func TestListTools_Verbose(t *testing.T) {
	reg := NewRegistry()
	reg.Register(echoTool("echo", Wildcard))

	var buf bytes.Buffer
	require.NoError(t, ListTools(reg, ListOptions{Writer: &buf, Verbose: true}))
	output := buf.String()
	assert.Contains(t, output, "NAME")
	assert.Contains(t, output, "CATEGORY")
	assert.Contains(t, output, "1.0.0")
	assert.Contains(t, output, "echoes the message parameter")
}

func TestListTools_JSON(t *testing.T) {
	reg := NewRegistry()
	reg.Register(echoTool("echo", "kai", "aura"))

	var buf bytes.Buffer
	require.NoError(t, ListTools(reg, ListOptions{Writer: &buf, JSON: true}))

	var summaries []toolSummary
	require.NoError(t, json.Unmarshal(buf.Bytes(), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, "echo", summaries[0].Name)
	assert.Equal(t, []string{"aura", "kai"}, summaries[0].Callers)
}
