package watch

import (
	"context"
	"sync"
	"time"
)

// Pacer is a fixed-interval gate: callers pass through at most once per
// interval. It replaces ad hoc sleeps so the politeness contract is
// testable without wall-clock waits.
type Pacer struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPacer builds a gate with the given minimum spacing. A non-positive
// interval disables pacing.
func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{
		interval: interval,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

// Wait blocks until the next slot opens, or until ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p.interval <= 0 {
		return ctx.Err()
	}

	p.mu.Lock()
	now := p.now()
	wait := p.next.Sub(now)
	if wait < 0 {
		wait = 0
	}
	p.next = now.Add(wait + p.interval)
	p.mu.Unlock()

	if wait == 0 {
		return ctx.Err()
	}
	return p.sleep(ctx, wait)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
