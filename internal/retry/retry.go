package retry

import (
	"context"
	"math/rand"
	"time"
)

// Policy describes a bounded sequential retry loop: exponential backoff with
// optional jitter, retrying only errors accepted by Retryable.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxJitter  time.Duration
	// Retryable reports whether an error is worth another attempt.
	// Nil means every error is retryable.
	Retryable func(error) bool
}

// Do runs fn, retrying per the policy. Attempts are strictly sequential:
// attempt N+1 starts only after attempt N failed and its backoff elapsed.
func (p Policy) Do(ctx context.Context, fn func(context.Context) error) error {
	maxRetries := p.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	delay := p.BaseDelay
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}

	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= maxRetries {
			return err
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}

		wait := delay
		if p.MaxJitter > 0 {
			wait += time.Duration(rand.Int63n(int64(p.MaxJitter)))
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
	}
}
