package crawler

import (
	"context"
	"math/rand/v2"
	"time"
)

// Waiter applies the politeness delay between requests. It is an interface
// so tests can substitute a deterministic implementation for wall-clock
// sleeps.
type Waiter interface {
	Wait(ctx context.Context, min, max time.Duration)
}

// SleepWaiter sleeps for a duration drawn uniformly from [min, max]. The
// sleep is cut short if ctx is cancelled.
type SleepWaiter struct{}

func (SleepWaiter) Wait(ctx context.Context, min, max time.Duration) {
	d := min
	if max > min {
		d = min + rand.N(max-min+1)
	}
	if d <= 0 {
		return
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
