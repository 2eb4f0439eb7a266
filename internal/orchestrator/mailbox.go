package orchestrator

import (
	"sync"

	"github.com/aurakai/genesis/internal/bus"
)

// letter is one message waiting in a mailbox. done reports the handler's
// outcome to the message's receipt.
type letter struct {
	msg  bus.Message
	done func(error)
}

// mailbox hands messages to one worker in arrival order. At most one drain
// goroutine runs per mailbox; it exits once the queue is empty, so an idle
// mailbox holds no goroutine.
type mailbox struct {
	mu       sync.Mutex
	queue    []letter
	draining bool
	handle   func(bus.Message) error
}

func newMailbox(handle func(bus.Message) error) *mailbox {
	return &mailbox{handle: handle}
}

// post queues m without blocking.
func (mb *mailbox) post(m bus.Message, done func(error)) {
	mb.mu.Lock()
	mb.queue = append(mb.queue, letter{msg: m, done: done})
	start := !mb.draining
	mb.draining = true
	mb.mu.Unlock()

	if start {
		go mb.drain()
	}
}

func (mb *mailbox) drain() {
	for {
		mb.mu.Lock()
		if len(mb.queue) == 0 {
			mb.draining = false
			mb.mu.Unlock()
			return
		}
		next := mb.queue[0]
		mb.queue[0] = letter{}
		mb.queue = mb.queue[1:]
		mb.mu.Unlock()

		next.done(mb.handle(next.msg))
	}
}
