// Package dataengine fronts the quote provider with the shared latest-price
// cache. Latest-price lookups hit the cache first; everything else passes
// through. Cache failures are logged and degrade to the provider so a dead
// redis never blocks a cycle.
package dataengine

import (
	"context"
	"log"

	"tiger-trader/internal/model"
)

// PriceCache is the slice of the redis cache the engine needs.
type PriceCache interface {
	LatestPrice(ctx context.Context, symbol string) (float64, bool, error)
	SetLatestPrice(ctx context.Context, symbol string, price float64) error
}

// Engine wraps a QuoteProvider with cached latest prices. A nil cache means
// straight pass-through.
type Engine struct {
	quotes model.QuoteProvider
	cache  PriceCache
}

func New(quotes model.QuoteProvider, cache PriceCache) *Engine {
	return &Engine{quotes: quotes, cache: cache}
}

func (e *Engine) GetLatestPrice(ctx context.Context, symbol string) (float64, error) {
	if e.cache != nil {
		price, ok, err := e.cache.LatestPrice(ctx, symbol)
		if err != nil {
			log.Printf("[dataengine] price cache read failed for %s: %v", symbol, err)
		} else if ok {
			return price, nil
		}
	}

	price, err := e.quotes.GetLatestPrice(ctx, symbol)
	if err != nil {
		return 0, err
	}
	if e.cache != nil {
		if err := e.cache.SetLatestPrice(ctx, symbol, price); err != nil {
			log.Printf("[dataengine] price cache write failed for %s: %v", symbol, err)
		}
	}
	return price, nil
}

func (e *Engine) GetBars(ctx context.Context, symbol string, period model.BarPeriod, limit int) ([]model.Bar, error) {
	return e.quotes.GetBars(ctx, symbol, period, limit)
}

func (e *Engine) GetBrief(ctx context.Context, symbol string) (model.Brief, error) {
	return e.quotes.GetBrief(ctx, symbol)
}

func (e *Engine) GetMarketStatus(ctx context.Context, market model.Market) (model.MarketStatus, error) {
	return e.quotes.GetMarketStatus(ctx, market)
}
