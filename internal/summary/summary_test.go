package summary

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"tiger-trader/internal/model"
	"tiger-trader/internal/poslog"
)

type fakeAccount struct {
	summary model.PortfolioSummary
	err     error
}

func (f *fakeAccount) GetPositions(ctx context.Context) ([]model.Position, error) { return nil, nil }
func (f *fakeAccount) GetFunds(ctx context.Context) (model.FundsSnapshot, error)  { return nil, nil }
func (f *fakeAccount) GetSummary(ctx context.Context) (model.PortfolioSummary, error) {
	return f.summary, f.err
}

type fakeStore struct {
	snap model.PortfolioSnapshot
	err  error
}

func (f *fakeStore) SaveSnapshot(ctx context.Context, snap model.PortfolioSnapshot) error {
	return nil
}
func (f *fakeStore) LatestSnapshot(ctx context.Context) (model.PortfolioSnapshot, error) {
	return f.snap, f.err
}

type fakeLog struct {
	snap *poslog.Snapshot
	err  error
}

func (f *fakeLog) Latest() (*poslog.Snapshot, error) { return f.snap, f.err }

func fixedNow() time.Time {
	return time.Date(2025, 6, 2, 10, 30, 0, 0, time.UTC)
}

func TestResolve_LiveTier(t *testing.T) {
	acct := &fakeAccount{summary: model.PortfolioSummary{
		NetLiquidation: 150000, CashBalance: 40000, GrossPositionValue: 110000,
	}}
	r := New(acct, &fakeStore{err: sql.ErrNoRows}, &fakeLog{}, nil)
	r.now = fixedNow

	got := r.Resolve(context.Background())
	if got.Source != SourceLive {
		t.Fatalf("source = %q, want %q", got.Source, SourceLive)
	}
	if got.NetLiquidation != 150000 || got.CashBalance != 40000 {
		t.Errorf("summary = %+v", got)
	}
}

func TestResolve_ZeroNetLiqFallsToSnapshot(t *testing.T) {
	acct := &fakeAccount{summary: model.PortfolioSummary{NetLiquidation: 0}}
	store := &fakeStore{snap: model.PortfolioSnapshot{
		Timestamp:   fixedNow().Add(-5 * time.Minute),
		TotalEquity: 142000,
		CashBalance: 30000,
		MarketValue: 112000,
	}}
	r := New(acct, store, &fakeLog{}, nil)
	r.now = fixedNow

	got := r.Resolve(context.Background())
	if got.Source != SourceDatabase {
		t.Fatalf("source = %q, want %q", got.Source, SourceDatabase)
	}
	if got.NetLiquidation != 142000 || got.GrossPositionValue != 112000 {
		t.Errorf("summary = %+v", got)
	}
	if got.AgeMinutes != 5 {
		t.Errorf("age = %v min, want 5", got.AgeMinutes)
	}
}

func TestResolve_StaleSnapshotFallsToLog(t *testing.T) {
	acct := &fakeAccount{err: errors.New("api down")}
	store := &fakeStore{snap: model.PortfolioSnapshot{
		Timestamp:   fixedNow().Add(-30 * time.Minute),
		TotalEquity: 142000,
	}}
	plog := &fakeLog{snap: &poslog.Snapshot{
		Timestamp: fixedNow().Add(-time.Hour),
		Positions: []model.Position{
			{Symbol: "00700", MarketValue: 64000},
			{Symbol: "AAPL", MarketValue: 19600},
		},
	}}
	r := New(acct, store, plog, nil)
	r.now = fixedNow

	got := r.Resolve(context.Background())
	if got.Source != SourceLog {
		t.Fatalf("source = %q, want %q", got.Source, SourceLog)
	}
	if got.NetLiquidation != 83600 || got.GrossPositionValue != 83600 {
		t.Errorf("aggregate = %v", got.NetLiquidation)
	}
	if got.CashBalance != 0 {
		t.Errorf("cash = %v, want 0 from log tier", got.CashBalance)
	}
}

func TestResolve_AllTiersExhausted(t *testing.T) {
	acct := &fakeAccount{err: errors.New("api down")}
	r := New(acct, &fakeStore{err: sql.ErrNoRows}, &fakeLog{}, nil)
	r.now = fixedNow

	got := r.Resolve(context.Background())
	if got.Source != SourceFallback {
		t.Fatalf("source = %q, want %q", got.Source, SourceFallback)
	}
	if got.NetLiquidation != 0 || got.CashBalance != 0 || got.GrossPositionValue != 0 {
		t.Errorf("fallback not zeroed: %+v", got)
	}
	if got.Error == "" {
		t.Error("fallback carries no error string")
	}
}

func TestResolve_NilTiers(t *testing.T) {
	r := New(nil, nil, nil, nil)
	r.now = fixedNow

	got := r.Resolve(context.Background())
	if got.Source != SourceFallback {
		t.Fatalf("source = %q, want %q", got.Source, SourceFallback)
	}
}
