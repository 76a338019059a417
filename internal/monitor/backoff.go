package monitor

import (
	"context"
	"time"
)

// Backoff produces capped-exponential reconnect delays.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
}

// Next returns the delay following current. A zero current yields the
// initial delay; afterwards the delay doubles up to the cap.
func (b Backoff) Next(current time.Duration) time.Duration {
	initial := b.Initial
	if initial <= 0 {
		initial = 100 * time.Millisecond
	}
	if current <= 0 {
		return initial
	}

	next := current * 2
	if b.Max > 0 && next > b.Max {
		next = b.Max
	}
	return next
}

// sleepCtx waits for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
