package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const (
	DefaultMaxRetries   = 3
	DefaultInitialDelay = time.Second
)

// Catalyst calls a primary engine with retries and falls back to a secondary
// engine once the primary is exhausted.
type Catalyst struct {
	primary      Engine
	secondary    Engine
	clock        clockwork.Clock
	maxRetries   int
	initialDelay time.Duration
}

type Option func(*Catalyst)

// WithClock sets the clock backoff delays are measured on.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Catalyst) {
		c.clock = clock
	}
}

// WithRetry sets the primary attempt budget and the first backoff delay.
func WithRetry(maxRetries int, initialDelay time.Duration) Option {
	return func(c *Catalyst) {
		c.maxRetries = maxRetries
		c.initialDelay = initialDelay
	}
}

// NewCatalyst creates a Catalyst. secondary may be nil, in which case the
// primary error is final.
func NewCatalyst(primary, secondary Engine, opts ...Option) *Catalyst {
	c := &Catalyst{
		primary:      primary,
		secondary:    secondary,
		clock:        clockwork.NewRealClock(),
		maxRetries:   DefaultMaxRetries,
		initialDelay: DefaultInitialDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UnifiedPulse generates text for prompt. The primary engine is retried with
// exponential backoff; if it still fails, the secondary engine is called once.
// When both fail the returned error wraps both causes.
func (c *Catalyst) UnifiedPulse(ctx context.Context, prompt string) (string, error) {
	if c.primary == nil {
		return "", ErrNoEngine
	}

	text, primaryErr := RetryWithBackoff(ctx, c.clock, c.maxRetries, c.initialDelay, func(ctx context.Context) (string, error) {
		return c.primary.Process(ctx, prompt)
	})
	if primaryErr == nil {
		return text, nil
	}

	if c.secondary == nil {
		return "", fmt.Errorf("primary engine failed: %w", primaryErr)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}

	zap.L().Warn("Primary engine exhausted, falling back to secondary",
		zap.Int("attempts", max(c.maxRetries, 1)),
		zap.Error(primaryErr))

	text, secondaryErr := c.secondary.Process(ctx, prompt)
	if secondaryErr != nil {
		return "", errors.Join(
			fmt.Errorf("primary engine failed: %w", primaryErr),
			fmt.Errorf("secondary engine failed: %w", secondaryErr),
		)
	}
	return text, nil
}

// Process lets a Catalyst stand in wherever a single Engine is expected.
func (c *Catalyst) Process(ctx context.Context, prompt string) (string, error) {
	return c.UnifiedPulse(ctx, prompt)
}

var _ Engine = &Catalyst{}
