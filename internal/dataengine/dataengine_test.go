package dataengine

import (
	"context"
	"errors"
	"testing"

	"tiger-trader/internal/model"
)

type fakeQuotes struct {
	price      float64
	priceErr   error
	priceCalls int
}

func (f *fakeQuotes) GetBars(ctx context.Context, symbol string, period model.BarPeriod, limit int) ([]model.Bar, error) {
	return nil, nil
}

func (f *fakeQuotes) GetLatestPrice(ctx context.Context, symbol string) (float64, error) {
	f.priceCalls++
	return f.price, f.priceErr
}

func (f *fakeQuotes) GetBrief(ctx context.Context, symbol string) (model.Brief, error) {
	return model.Brief{Symbol: symbol}, nil
}

func (f *fakeQuotes) GetMarketStatus(ctx context.Context, market model.Market) (model.MarketStatus, error) {
	return model.MarketStatus{Market: market, Open: true}, nil
}

type fakeCache struct {
	entries map[string]float64
	readErr error
	sets    int
}

func (f *fakeCache) LatestPrice(ctx context.Context, symbol string) (float64, bool, error) {
	if f.readErr != nil {
		return 0, false, f.readErr
	}
	p, ok := f.entries[symbol]
	return p, ok, nil
}

func (f *fakeCache) SetLatestPrice(ctx context.Context, symbol string, price float64) error {
	f.sets++
	if f.entries == nil {
		f.entries = map[string]float64{}
	}
	f.entries[symbol] = price
	return nil
}

func TestGetLatestPrice_CacheHitSkipsProvider(t *testing.T) {
	quotes := &fakeQuotes{price: 999}
	cache := &fakeCache{entries: map[string]float64{"00700": 321.4}}
	e := New(quotes, cache)

	got, err := e.GetLatestPrice(context.Background(), "00700")
	if err != nil {
		t.Fatalf("GetLatestPrice: %v", err)
	}
	if got != 321.4 {
		t.Errorf("price = %v, want cached 321.4", got)
	}
	if quotes.priceCalls != 0 {
		t.Errorf("provider called %d times on cache hit", quotes.priceCalls)
	}
}

func TestGetLatestPrice_MissFetchesAndBackfills(t *testing.T) {
	quotes := &fakeQuotes{price: 196.5}
	cache := &fakeCache{}
	e := New(quotes, cache)

	got, err := e.GetLatestPrice(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("GetLatestPrice: %v", err)
	}
	if got != 196.5 || quotes.priceCalls != 1 {
		t.Errorf("price = %v (calls %d), want 196.5 from one provider call", got, quotes.priceCalls)
	}
	if cache.sets != 1 || cache.entries["AAPL"] != 196.5 {
		t.Errorf("cache not backfilled: %+v", cache.entries)
	}
}

func TestGetLatestPrice_CacheErrorDegradesToProvider(t *testing.T) {
	quotes := &fakeQuotes{price: 50}
	cache := &fakeCache{readErr: errors.New("circuit breaker is open")}
	e := New(quotes, cache)

	got, err := e.GetLatestPrice(context.Background(), "02800")
	if err != nil {
		t.Fatalf("GetLatestPrice: %v", err)
	}
	if got != 50 || quotes.priceCalls != 1 {
		t.Errorf("price = %v (calls %d), want provider fallback", got, quotes.priceCalls)
	}
}

func TestGetLatestPrice_ProviderErrorPropagates(t *testing.T) {
	quotes := &fakeQuotes{priceErr: model.ErrProviderUnavailable}
	e := New(quotes, nil)

	_, err := e.GetLatestPrice(context.Background(), "00700")
	if !errors.Is(err, model.ErrProviderUnavailable) {
		t.Fatalf("err = %v, want ErrProviderUnavailable", err)
	}
}
