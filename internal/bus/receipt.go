package bus

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// Receipt tracks one Broadcast or SendTargeted call. Enqueued is closed once
// the message is on the stream, Delivered once every recipient's handler has
// returned.
type Receipt struct {
	messageID  string
	recipients []string
	enqueued   chan struct{}
	delivered  chan struct{}

	mu   sync.Mutex
	errs []error
}

func newReceipt(messageID string, recipients []string) *Receipt {
	return &Receipt{
		messageID:  messageID,
		recipients: recipients,
		enqueued:   make(chan struct{}),
		delivered:  make(chan struct{}),
	}
}

// CompletedReceipt returns a receipt for a message that reached no recipient.
func CompletedReceipt(messageID string) *Receipt {
	r := newReceipt(messageID, nil)
	close(r.enqueued)
	close(r.delivered)
	return r
}

// FailedReceipt returns a completed receipt for a message that could not be
// sent at all.
func FailedReceipt(messageID string, err error) *Receipt {
	r := CompletedReceipt(messageID)
	r.errs = append(r.errs, err)
	return r
}

// Collect returns a receipt for a message offered to recipients and the
// function each recipient's delivery reports to. The receipt completes once
// done has been called once per recipient. The caller must have put the
// message on the stream already.
func Collect(messageID string, recipients []string) (*Receipt, func(err error)) {
	r := newReceipt(messageID, slices.Clone(recipients))
	close(r.enqueued)

	if len(recipients) == 0 {
		close(r.delivered)
		return r, func(error) {}
	}

	remaining := len(recipients)
	done := func(err error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		if err != nil {
			r.errs = append(r.errs, err)
		}
		remaining--
		if remaining == 0 {
			close(r.delivered)
		}
	}
	return r, done
}

// Fanout runs deliver for every recipient concurrently and returns a receipt
// that completes when all of them have returned. The caller must have put
// the message on the stream already.
func Fanout(messageID string, recipients []string, deliver func(recipient string) error) *Receipt {
	r, done := Collect(messageID, recipients)
	for _, recipient := range r.recipients {
		go func() {
			done(deliver(recipient))
		}()
	}
	return r
}

// MessageID identifies the tracked message.
func (r *Receipt) MessageID() string {
	return r.messageID
}

// Recipients names the workers the message was offered to.
func (r *Receipt) Recipients() []string {
	return slices.Clone(r.recipients)
}

// Enqueued is closed once the message is on the stream.
func (r *Receipt) Enqueued() <-chan struct{} {
	return r.enqueued
}

// Delivered is closed once every recipient has handled the message.
func (r *Receipt) Delivered() <-chan struct{} {
	return r.delivered
}

// Wait blocks until delivery completes or ctx is done.
func (r *Receipt) Wait(ctx context.Context) error {
	select {
	case <-r.delivered:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err joins the delivery errors. It is only complete after Delivered is closed.
func (r *Receipt) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return errors.Join(r.errs...)
}
