package bus

import "strings"

// Guard decides which messages a worker must not react to.
type Guard struct {
	Self string
}

// ShouldIgnore reports whether the worker should skip m: messages it wrote,
// messages already processed by it or generated by any worker, and messages
// from the system pseudo-senders.
func (g Guard) ShouldIgnore(m Message) bool {
	switch {
	case strings.EqualFold(m.From, g.Self):
		return true
	case m.From == SenderSystemRoot, m.From == SenderAssistantBubble:
		return true
	case m.Flag(ProcessedKey(g.Self)):
		return true
	case m.Flag(MetaAutoGenerated):
		return true
	}
	return false
}
