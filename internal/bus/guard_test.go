package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuard_ShouldIgnore(t *testing.T) {
	g := Guard{Self: "Kai"}

	tests := []struct {
		name   string
		msg    Message
		ignore bool
	}{
		{name: "peer message", msg: NewMessage("Aura", "hi", TypeText), ignore: false},
		{name: "user message", msg: NewMessage(SenderUser, "hi", TypeText), ignore: false},
		{name: "own message", msg: NewMessage("Kai", "hi", TypeText), ignore: true},
		{name: "own message other case", msg: NewMessage("kai", "hi", TypeText), ignore: true},
		{name: "system root", msg: NewMessage(SenderSystemRoot, "hi", TypeText), ignore: true},
		{name: "assistant bubble", msg: NewMessage(SenderAssistantBubble, "hi", TypeText), ignore: true},
		{name: "already processed", msg: NewMessage("Aura", "hi", TypeText).WithMeta("kai_processed", "true"), ignore: true},
		{name: "processed flag false", msg: NewMessage("Aura", "hi", TypeText).WithMeta("kai_processed", "false"), ignore: false},
		{name: "auto generated", msg: NewMessage("Aura", "hi", TypeText).MarkEmitted("Aura"), ignore: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ignore, g.ShouldIgnore(tt.msg))
		})
	}
}
