// Package ratelimit provides a sliding-window gate on metered external
// actions (decision-provider calls, order placements). The window never
// admits more than maxCalls actions inside any rolling period.
package ratelimit

import (
	"context"
	"log"
	"time"
)

// Limiter is a FIFO sliding-window rate limiter. It is used from a single
// loop goroutine; no internal locking.
type Limiter struct {
	maxCalls int
	period   time.Duration

	timestamps []time.Time

	// now and sleep are swappable for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a limiter admitting at most maxCalls actions per period.
func New(maxCalls int, period time.Duration) *Limiter {
	return &Limiter{
		maxCalls: maxCalls,
		period:   period,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

// CanProceed checks whether a new action is allowed right now. If allowed,
// the action is recorded and true is returned; otherwise false with no side
// effect.
func (l *Limiter) CanProceed() bool {
	now := l.now()
	l.evict(now)

	if len(l.timestamps) < l.maxCalls {
		l.timestamps = append(l.timestamps, now)
		return true
	}
	return false
}

// Wait blocks until a slot is available, repeatedly sleeping until the
// oldest recorded timestamp leaves the window. Returns early with the
// context error if ctx is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	for !l.CanProceed() {
		var wait time.Duration
		if len(l.timestamps) > 0 {
			wait = l.timestamps[0].Add(l.period).Sub(l.now())
		}
		if wait < 0 {
			wait = 0
		}
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
	return nil
}

// Pending returns the number of actions currently inside the window.
func (l *Limiter) Pending() int {
	l.evict(l.now())
	return len(l.timestamps)
}

func (l *Limiter) evict(now time.Time) {
	cutoff := now.Add(-l.period)
	i := 0
	for i < len(l.timestamps) && !l.timestamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.timestamps = l.timestamps[i:]
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		// Yield briefly so a tight denial loop cannot spin.
		d = 10 * time.Millisecond
	}
	log.Printf("[ratelimit] window full, sleeping %v", d)
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
