package testing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptedEngine(t *testing.T) {
	boom := errors.New("boom")
	e := NewScriptedEngine(Reply{Err: boom}, Reply{Text: "ok"})

	_, err := e.Process(context.Background(), "one")
	assert.ErrorIs(t, err, boom)

	text, err := e.Process(context.Background(), "two")
	require.NoError(t, err)
	assert.Equal(t, "ok", text)

	_, err = e.Process(context.Background(), "three")
	assert.ErrorIs(t, err, ErrScriptExhausted)

	assert.Equal(t, []string{"one", "two", "three"}, e.Prompts())
	assert.Equal(t, 3, e.Calls())
}

func TestScriptedEngine_Repeat(t *testing.T) {
	e := NewScriptedEngine(Texts("a", "b")...)
	e.Repeat = true

	for _, want := range []string{"a", "b", "b", "b"} {
		got, err := e.Process(context.Background(), "p")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestScriptedEngine_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewScriptedEngine(Texts("a")...).Process(ctx, "p")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestJournal_Filter(t *testing.T) {
	j := &Journal{}
	a := NewRecordingAgent("A", j)
	b := NewRecordingAgent("B", j)

	require.NoError(t, a.Initialize(context.Background()))
	require.NoError(t, b.Initialize(context.Background()))
	require.NoError(t, b.Shutdown(context.Background()))

	assert.Equal(t, []string{"A.init", "B.init", "B.shutdown"}, j.Entries())
	assert.Equal(t, []string{"A", "B"}, j.Filter("init"))
	assert.Equal(t, []string{"B"}, j.Filter("shutdown"))
}
