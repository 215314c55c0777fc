package marketstatus

import (
	"context"
	"errors"
	"testing"
	"time"

	"tiger-trader/internal/model"
)

// fakeQuotes scripts per-market status answers; calls counts polls.
type fakeQuotes struct {
	open  map[model.Market][]bool
	err   map[model.Market]error
	calls int
}

func (f *fakeQuotes) GetMarketStatus(ctx context.Context, m model.Market) (model.MarketStatus, error) {
	f.calls++
	if err := f.err[m]; err != nil {
		return model.MarketStatus{}, err
	}
	seq := f.open[m]
	var open bool
	if len(seq) > 0 {
		open = seq[0]
		if len(seq) > 1 {
			f.open[m] = seq[1:]
		}
	}
	status := "CLOSED"
	if open {
		status = "TRADING"
	}
	return model.MarketStatus{Market: m, Open: open, Status: status}, nil
}

func (f *fakeQuotes) GetBars(ctx context.Context, symbol string, period model.BarPeriod, limit int) ([]model.Bar, error) {
	return nil, nil
}
func (f *fakeQuotes) GetLatestPrice(ctx context.Context, symbol string) (float64, error) {
	return 0, nil
}
func (f *fakeQuotes) GetBrief(ctx context.Context, symbol string) (model.Brief, error) {
	return model.Brief{}, nil
}

func TestPoll_AnyOpen(t *testing.T) {
	q := &fakeQuotes{open: map[model.Market][]bool{
		model.MarketUS: {false},
		model.MarketHK: {true},
		model.MarketCN: {false},
	}}
	g := New(q, []model.Market{model.MarketUS, model.MarketHK, model.MarketCN}, time.Minute)

	statuses, open := g.Poll(context.Background())
	if !open {
		t.Fatal("HK open should make the cycle proceed")
	}
	if len(statuses) != 3 {
		t.Fatalf("got %d statuses, want 3", len(statuses))
	}
}

func TestPoll_ProviderErrorCountsClosed(t *testing.T) {
	q := &fakeQuotes{
		open: map[model.Market][]bool{model.MarketHK: {false}},
		err:  map[model.Market]error{model.MarketUS: errors.New("quote api down")},
	}
	g := New(q, []model.Market{model.MarketUS, model.MarketHK}, time.Minute)

	statuses, open := g.Poll(context.Background())
	if open {
		t.Fatal("error + closed should not report open")
	}
	if statuses[0].Open {
		t.Error("errored domain must count as closed")
	}
}

func TestWaitOpen_BacksOffUntilOpen(t *testing.T) {
	q := &fakeQuotes{open: map[model.Market][]bool{
		model.MarketUS: {false, false, true},
	}}
	g := New(q, []model.Market{model.MarketUS}, time.Minute)

	var sleeps int
	g.sleep = func(ctx context.Context, d time.Duration) error {
		if d != time.Minute {
			t.Errorf("backoff = %v, want 1m", d)
		}
		sleeps++
		return nil
	}

	if _, err := g.WaitOpen(context.Background()); err != nil {
		t.Fatalf("WaitOpen: %v", err)
	}
	if sleeps != 2 {
		t.Errorf("slept %d times, want 2", sleeps)
	}
}

func TestWaitOpen_CancelStopsRetry(t *testing.T) {
	q := &fakeQuotes{open: map[model.Market][]bool{model.MarketUS: {false}}}
	g := New(q, []model.Market{model.MarketUS}, time.Minute)
	g.sleep = func(ctx context.Context, d time.Duration) error { return context.Canceled }

	if _, err := g.WaitOpen(context.Background()); err != context.Canceled {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}
