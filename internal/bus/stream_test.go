package bus

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func receive(t *testing.T, ch <-chan Message) Message {
	t.Helper()
	select {
	case m, ok := <-ch:
		require.True(t, ok, "channel closed")
		return m
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return Message{}
	}
}

func assertEmpty(t *testing.T, ch <-chan Message) {
	t.Helper()
	select {
	case m := <-ch:
		t.Fatalf("unexpected message %q", m.Content)
	default:
	}
}

func TestStream_PublishSubscribe(t *testing.T) {
	s := NewStream(4)
	ch, cancel := s.Subscribe()
	defer cancel()

	require.NoError(t, s.Publish(NewMessage("Aura", "one", TypeText)))
	require.NoError(t, s.Publish(NewMessage("Aura", "two", TypeText)))

	assert.Equal(t, "one", receive(t, ch).Content)
	assert.Equal(t, "two", receive(t, ch).Content)
	assertEmpty(t, ch)
}

func TestStream_ReplaysLatestToLateSubscriber(t *testing.T) {
	s := NewStream(4)

	_, ok := s.Latest()
	assert.False(t, ok)

	require.NoError(t, s.Publish(NewMessage("Aura", "old", TypeText)))
	require.NoError(t, s.Publish(NewMessage("Aura", "newest", TypeText)))

	latest, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, "newest", latest.Content)

	ch, cancel := s.Subscribe()
	defer cancel()
	assert.Equal(t, "newest", receive(t, ch).Content)
	assertEmpty(t, ch)
}

func TestStream_DropsOldestWhenFull(t *testing.T) {
	s := NewStream(3)
	ch, cancel := s.Subscribe()
	defer cancel()

	for i := range 5 {
		require.NoError(t, s.Publish(NewMessage("Aura", fmt.Sprintf("m%d", i), TypeText)))
	}

	assert.Equal(t, uint64(2), s.Dropped())
	assert.Equal(t, "m2", receive(t, ch).Content)
	assert.Equal(t, "m3", receive(t, ch).Content)
	assert.Equal(t, "m4", receive(t, ch).Content)
	assertEmpty(t, ch)
}

func TestStream_PublishNeverBlocksWithoutReaders(t *testing.T) {
	s := NewStream(1)
	_, cancel := s.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := range 1000 {
			_ = s.Publish(NewMessage("Aura", fmt.Sprint(i), TypeText))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}

func TestStream_SubscribersGetIndependentCopies(t *testing.T) {
	s := NewStream(2)
	a, cancelA := s.Subscribe()
	defer cancelA()
	b, cancelB := s.Subscribe()
	defer cancelB()

	require.NoError(t, s.Publish(NewMessage("Aura", "x", TypeText).WithMeta("k", "v")))

	ma := receive(t, a)
	ma.Metadata["k"] = "mutated"
	assert.Equal(t, "v", receive(t, b).Meta("k"))
}

func TestStream_CancelIsIdempotent(t *testing.T) {
	s := NewStream(2)
	ch, cancel := s.Subscribe()
	assert.Equal(t, 1, s.Subscribers())

	cancel()
	cancel()
	assert.Equal(t, 0, s.Subscribers())

	_, ok := <-ch
	assert.False(t, ok)
	require.NoError(t, s.Publish(NewMessage("Aura", "after cancel", TypeText)))
}

func TestStream_Close(t *testing.T) {
	s := NewStream(2)
	ch, cancel := s.Subscribe()

	s.Close()
	s.Close()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)
	assert.ErrorIs(t, s.Publish(NewMessage("Aura", "late", TypeText)), ErrStreamClosed)

	late, lateCancel := s.Subscribe()
	defer lateCancel()
	_, ok = <-late
	assert.False(t, ok)
}

func TestStream_ConcurrentPublishers(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewStream(DefaultSubscriberBuffer)
	ch, cancel := s.Subscribe()

	var readers sync.WaitGroup
	readers.Add(1)
	received := 0
	go func() {
		defer readers.Done()
		for range ch {
			received++
		}
	}()

	var publishers sync.WaitGroup
	for p := range 8 {
		publishers.Add(1)
		go func() {
			defer publishers.Done()
			for i := range 50 {
				_ = s.Publish(NewMessage(fmt.Sprintf("p%d", p), fmt.Sprint(i), TypeText))
			}
		}()
	}
	publishers.Wait()
	cancel()
	readers.Wait()

	assert.Equal(t, uint64(400), uint64(received)+s.Dropped())
}

func TestStream_PerSenderOrder(t *testing.T) {
	s := NewStream(100)
	ch, cancel := s.Subscribe()
	defer cancel()

	for i := range 50 {
		require.NoError(t, s.Publish(NewMessage("Aura", fmt.Sprint(i), TypeText)))
	}
	for i := range 50 {
		assert.Equal(t, fmt.Sprint(i), receive(t, ch).Content)
	}
}
