package dispatch

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// MaxDelay caps a single backoff wait.
const MaxDelay = time.Hour

// RetryWithBackoff calls fn up to maxRetries times. After each failed attempt
// except the last it waits initialDelay * 2^attempt on clock, capped at
// MaxDelay. The last attempt's error is returned unchanged. A cancelled ctx
// stops the wait and its error is returned. maxRetries below 1 is treated
// as 1.
func RetryWithBackoff[T any](ctx context.Context, clock clockwork.Clock, maxRetries int, initialDelay time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if maxRetries < 1 {
		maxRetries = 1
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initialDelay
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = max(initialDelay, MaxDelay)
	b.MaxElapsedTime = 0
	b.Clock = clock

	attempt := 0
	operation := func() (T, error) {
		attempt++
		return fn(ctx)
	}
	notify := func(err error, delay time.Duration) {
		zap.L().Warn("Attempt failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", maxRetries),
			zap.Duration("delay", delay),
			zap.Error(err))
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(maxRetries-1)), ctx)
	return backoff.RetryNotifyWithTimerAndData(operation, policy, notify, &clockTimer{clock: clock})
}

// clockTimer runs backoff waits on a clockwork clock so tests can drive them.
type clockTimer struct {
	clock clockwork.Clock
	timer clockwork.Timer
}

func (t *clockTimer) Start(d time.Duration) {
	t.Stop()
	t.timer = t.clock.NewTimer(d)
}

func (t *clockTimer) Stop() {
	if t.timer != nil {
		t.timer.Stop()
	}
}

func (t *clockTimer) C() <-chan time.Time {
	return t.timer.Chan()
}

var _ backoff.Timer = &clockTimer{}
