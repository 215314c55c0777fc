// Package marketstatus gates the control loop on market open/closed state.
//
// The gate polls the quote provider for each configured market domain and
// backs off a fixed interval while every domain reports closed. No trading
// calendar is computed locally; whatever the provider reports each poll is
// trusted.
package marketstatus

import (
	"context"
	"log"
	"time"

	"tiger-trader/internal/model"
)

// Gate polls market open state for a set of market domains.
type Gate struct {
	quotes  model.QuoteProvider
	markets []model.Market
	backoff time.Duration

	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a gate over the given market domains. backoff is the fixed
// sleep between polls while everything is closed.
func New(quotes model.QuoteProvider, markets []model.Market, backoff time.Duration) *Gate {
	return &Gate{
		quotes:  quotes,
		markets: markets,
		backoff: backoff,
		sleep:   sleepCtx,
	}
}

// Poll checks every configured domain once. Returns the per-domain statuses
// and whether at least one domain is open. A provider error for one domain
// counts that domain as closed and does not abort the others.
func (g *Gate) Poll(ctx context.Context) ([]model.MarketStatus, bool) {
	statuses := make([]model.MarketStatus, 0, len(g.markets))
	anyOpen := false
	for _, m := range g.markets {
		st, err := g.quotes.GetMarketStatus(ctx, m)
		if err != nil {
			log.Printf("[marketstatus] %s status check failed: %v", m, err)
			st = model.MarketStatus{Market: m, Open: false, Status: err.Error()}
		}
		statuses = append(statuses, st)
		if st.Open {
			anyOpen = true
		}
	}
	return statuses, anyOpen
}

// WaitOpen blocks until at least one domain is open, polling with the fixed
// backoff. Unbounded retry; returns only when open or when ctx is cancelled.
func (g *Gate) WaitOpen(ctx context.Context) ([]model.MarketStatus, error) {
	for {
		statuses, open := g.Poll(ctx)
		if open {
			return statuses, nil
		}
		log.Printf("[marketstatus] all markets closed, re-polling in %v", g.backoff)
		if err := g.sleep(ctx, g.backoff); err != nil {
			return statuses, err
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
