package ratelimit

import (
	"context"
	"testing"
	"time"
)

// fakeClock drives the limiter deterministically.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(maxCalls int, period time.Duration) (*Limiter, *fakeClock) {
	clk := &fakeClock{t: time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)}
	l := New(maxCalls, period)
	l.now = clk.now
	l.sleep = func(ctx context.Context, d time.Duration) error {
		clk.advance(d)
		return nil
	}
	return l, clk
}

func TestLimiter_AdmitsUpToMax(t *testing.T) {
	l, _ := newTestLimiter(5, 60*time.Second)

	for i := 0; i < 5; i++ {
		if !l.CanProceed() {
			t.Fatalf("call %d should be admitted", i+1)
		}
	}
	if l.CanProceed() {
		t.Fatal("6th call inside the window should be denied")
	}
	if l.Pending() != 5 {
		t.Fatalf("Pending() = %d, want 5", l.Pending())
	}
}

func TestLimiter_DenialHasNoSideEffect(t *testing.T) {
	l, clk := newTestLimiter(1, 60*time.Second)

	if !l.CanProceed() {
		t.Fatal("first call should be admitted")
	}
	// Repeated denials must not extend the window.
	for i := 0; i < 10; i++ {
		if l.CanProceed() {
			t.Fatal("call inside full window should be denied")
		}
	}
	clk.advance(61 * time.Second)
	if !l.CanProceed() {
		t.Fatal("call after the oldest timestamp expired should be admitted")
	}
}

func TestLimiter_WindowSlides(t *testing.T) {
	l, clk := newTestLimiter(3, 60*time.Second)

	l.CanProceed() // t=0
	clk.advance(30 * time.Second)
	l.CanProceed() // t=30
	l.CanProceed() // t=30

	if l.CanProceed() {
		t.Fatal("window holds 3, should deny")
	}

	// At t=61 the t=0 entry leaves the window; one slot frees up.
	clk.advance(31 * time.Second)
	if !l.CanProceed() {
		t.Fatal("slot should free after oldest entry expires")
	}
	if l.CanProceed() {
		t.Fatal("only one slot should have freed")
	}
}

func TestLimiter_WaitBlocksUntilSlot(t *testing.T) {
	l, clk := newTestLimiter(2, 60*time.Second)

	l.CanProceed()
	clk.advance(10 * time.Second)
	l.CanProceed()

	start := clk.t
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	// Wait must have slept until the oldest (t=start-10s) timestamp expired.
	slept := clk.t.Sub(start)
	if slept < 49*time.Second || slept > 51*time.Second {
		t.Errorf("Wait slept %v, want ~50s", slept)
	}
	if l.Pending() != 2 {
		t.Errorf("Pending() = %d after Wait admitted, want 2", l.Pending())
	}
}

func TestLimiter_WaitHonorsCancel(t *testing.T) {
	l, _ := newTestLimiter(1, 60*time.Second)
	l.CanProceed()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l.sleep = func(ctx context.Context, d time.Duration) error {
		return ctx.Err()
	}
	if err := l.Wait(ctx); err != context.Canceled {
		t.Fatalf("Wait with cancelled ctx: got %v, want context.Canceled", err)
	}
}
