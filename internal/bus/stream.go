package bus

import (
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// DefaultSubscriberBuffer is the per-subscriber buffer when none is configured.
const DefaultSubscriberBuffer = 64

// ErrStreamClosed is returned by Publish after Close.
var ErrStreamClosed = errors.New("message stream is closed")

// Stream is a multi-producer, multi-consumer broadcast stream. It retains the
// most recent message and replays it to new subscribers. Every subscriber has
// a bounded buffer; when it is full the oldest buffered message is dropped,
// so Publish never blocks.
type Stream struct {
	mu          sync.RWMutex
	subscribers map[uint64]*subscription
	nextID      uint64
	bufferSize  int
	latest      *Message
	closed      bool

	dropped atomic.Uint64
}

type subscription struct {
	ch   chan Message
	once sync.Once
}

func (s *subscription) close() {
	s.once.Do(func() { close(s.ch) })
}

// NewStream creates a stream whose subscribers buffer up to bufferSize messages.
func NewStream(bufferSize int) *Stream {
	if bufferSize < 1 {
		bufferSize = DefaultSubscriberBuffer
	}
	return &Stream{
		subscribers: make(map[uint64]*subscription),
		bufferSize:  bufferSize,
	}
}

// Publish appends m to the stream and offers it to every subscriber.
func (s *Stream) Publish(m Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStreamClosed
	}

	latest := m.Clone()
	s.latest = &latest
	for _, sub := range s.subscribers {
		s.offer(sub.ch, m.Clone())
	}
	return nil
}

// offer sends m on ch, evicting the oldest buffered message while ch is full.
func (s *Stream) offer(ch chan Message, m Message) {
	for {
		select {
		case ch <- m:
			return
		default:
		}

		select {
		case old := <-ch:
			s.dropped.Add(1)
			zap.L().Debug("Dropped oldest message for slow subscriber",
				zap.String("message_id", old.ID),
				zap.String("type", old.Type))
		default:
		}
	}
}

// Subscribe returns a channel of messages published from now on, preceded by
// the retained latest message if there is one. cancel unsubscribes and closes
// the channel; it is safe to call more than once.
func (s *Stream) Subscribe() (<-chan Message, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub := &subscription{ch: make(chan Message, s.bufferSize)}
	if s.closed {
		sub.close()
		return sub.ch, func() {}
	}

	if s.latest != nil {
		sub.ch <- s.latest.Clone()
	}

	id := s.nextID
	s.nextID++
	s.subscribers[id] = sub

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subscribers[id]; ok {
			delete(s.subscribers, id)
			sub.close()
		}
	}
	return sub.ch, cancel
}

// Latest returns the most recently published message.
func (s *Stream) Latest() (Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return Message{}, false
	}
	return s.latest.Clone(), true
}

// Subscribers returns the number of active subscribers.
func (s *Stream) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers)
}

// Dropped returns how many buffered messages were evicted from slow subscribers.
func (s *Stream) Dropped() uint64 {
	return s.dropped.Load()
}

// Close closes every subscriber channel. Later publishes fail with
// ErrStreamClosed and later subscriptions receive a closed channel.
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, sub := range s.subscribers {
		sub.close()
		delete(s.subscribers, id)
	}
}
