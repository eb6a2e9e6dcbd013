package retry

import (
	"context"
	"math/rand"
	"time"
)

// RetryPolicy defines how to retry an operation
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultPolicy is a sensible default retry policy
var DefaultPolicy = RetryPolicy{
	MaxAttempts:    3,
	InitialBackoff: 100 * time.Millisecond,
	MaxBackoff:     2 * time.Second,
}

// IsTransientFunc defines if an error is transient and should be retried
type IsTransientFunc func(error) bool

// Do executes a function with retries according to the policy
func Do(ctx context.Context, policy RetryPolicy, isTransient IsTransientFunc, fn func() error) error {
	var err error
	backoff := policy.InitialBackoff

	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}

		if !isTransient(err) {
			return err
		}

		if attempt == policy.MaxAttempts-1 {
			break
		}

		// Calculate jittered backoff: backoff + random(0, 50% of backoff)
		jitter := time.Duration(rand.Int63n(int64(backoff / 2)))
		sleepTime := backoff + jitter

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleepTime):
			backoff = minDuration(backoff*2, policy.MaxBackoff)
		}
	}

	return err
}

// Backoff is an iterative exponential backoff for open-ended reconnect
// loops. Next returns the delay to sleep before the upcoming attempt and
// doubles the internal state up to Max. Reset restores the Initial delay
// after a successful attempt. No jitter: reconnect schedules stay
// deterministic (2s, 4s, 8s, ... capped at Max).
type Backoff struct {
	Initial time.Duration
	Max     time.Duration

	next time.Duration
}

// NewBackoff creates a Backoff starting at initial and capped at max
func NewBackoff(initial, max time.Duration) *Backoff {
	return &Backoff{Initial: initial, Max: max}
}

// Next returns the current delay and advances to the doubled one
func (b *Backoff) Next() time.Duration {
	if b.next <= 0 {
		b.next = b.Initial
	}
	d := b.next
	b.next = minDuration(b.next*2, b.Max)
	return d
}

// Reset restores the initial delay
func (b *Backoff) Reset() {
	b.next = b.Initial
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
