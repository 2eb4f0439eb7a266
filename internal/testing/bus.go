package testing

import (
	"context"
	"sync"

	"github.com/aurakai/genesis/internal/bus"
)

// RecordingBus is a bus.Bus that records what is sent through it and
// delivers nothing.
type RecordingBus struct {
	mu        sync.Mutex
	broadcast []bus.Message
	targeted  []bus.Message
	stream    *bus.Stream
}

var _ bus.Bus = &RecordingBus{}

func NewRecordingBus() *RecordingBus {
	return &RecordingBus{stream: bus.NewStream(0)}
}

func (b *RecordingBus) Broadcast(_ context.Context, m bus.Message) *bus.Receipt {
	b.mu.Lock()
	b.broadcast = append(b.broadcast, m)
	b.mu.Unlock()
	_ = b.stream.Publish(m)
	return bus.CompletedReceipt(m.ID)
}

func (b *RecordingBus) SendTargeted(_ context.Context, to string, m bus.Message) *bus.Receipt {
	m = m.WithRecipient(to)
	b.mu.Lock()
	b.targeted = append(b.targeted, m)
	b.mu.Unlock()
	_ = b.stream.Publish(m)
	return bus.CompletedReceipt(m.ID)
}

func (b *RecordingBus) Subscribe() (<-chan bus.Message, func()) {
	return b.stream.Subscribe()
}

// Broadcasts returns the broadcast messages in send order.
func (b *RecordingBus) Broadcasts() []bus.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]bus.Message, len(b.broadcast))
	copy(out, b.broadcast)
	return out
}

// Targeted returns the targeted messages in send order.
func (b *RecordingBus) Targeted() []bus.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]bus.Message, len(b.targeted))
	copy(out, b.targeted)
	return out
}

// OfType returns the broadcasts with the given type.
func (b *RecordingBus) OfType(msgType string) []bus.Message {
	var out []bus.Message
	for _, m := range b.Broadcasts() {
		if m.Type == msgType {
			out = append(out, m)
		}
	}
	return out
}

// Close closes the underlying stream.
func (b *RecordingBus) Close() {
	b.stream.Close()
}
