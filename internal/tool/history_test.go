package tool

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistory_Ring(t *testing.T) {
	h := newHistory(3)
	assert.Empty(t, h.snapshot())

	for i := range 5 {
		h.add(ExecutionRecord{ToolName: fmt.Sprintf("t%d", i)})
	}

	assert.Equal(t, 3, h.len())
	snapshot := h.snapshot()
	assert.Equal(t, []string{"t2", "t3", "t4"}, []string{snapshot[0].ToolName, snapshot[1].ToolName, snapshot[2].ToolName})
}

func TestHistory_DefaultCapacity(t *testing.T) {
	assert.Len(t, newHistory(0).records, DefaultHistoryCapacity)
	assert.Len(t, newHistory(-1).records, DefaultHistoryCapacity)
}
