// Package summary resolves the portfolio summary through a tiered fallback
// chain so the dashboard and loop always get a usable answer: the live
// brokerage API first, then the most recent stored snapshot if it is fresh
// enough, then an aggregate parsed from the position log, and finally an
// all-zero summary carrying the failure reason.
package summary

import (
	"context"
	"log"
	"time"

	"tiger-trader/internal/metrics"
	"tiger-trader/internal/model"
	"tiger-trader/internal/poslog"
)

const (
	// Stored snapshots older than this are considered stale and skipped.
	maxSnapshotAge = 10 * time.Minute

	SourceLive     = "live_api"
	SourceDatabase = "database_cache"
	SourceLog      = "log_parser"
	SourceFallback = "fallback"
)

// PositionLog is the slice of poslog the resolver needs (Tier 3).
type PositionLog interface {
	Latest() (*poslog.Snapshot, error)
}

// Resolver walks the summary tiers in order. Any of account, store and
// posLog may be nil; a nil tier is treated as unavailable.
type Resolver struct {
	account model.AccountProvider
	store   model.SnapshotStore
	posLog  PositionLog
	metrics *metrics.Metrics

	now func() time.Time
}

func New(account model.AccountProvider, store model.SnapshotStore, posLog PositionLog, m *metrics.Metrics) *Resolver {
	return &Resolver{
		account: account,
		store:   store,
		posLog:  posLog,
		metrics: m,
		now:     time.Now,
	}
}

// Resolve never returns an error: when every tier fails the result is an
// all-zero summary with Source "fallback" and the last failure in Error.
func (r *Resolver) Resolve(ctx context.Context) model.PortfolioSummary {
	lastErr := "no summary source configured"

	if r.account != nil {
		sum, err := r.account.GetSummary(ctx)
		if err == nil && sum.NetLiquidation > 0 {
			sum.Source = SourceLive
			r.count(SourceLive)
			return sum
		}
		if err != nil {
			lastErr = err.Error()
			log.Printf("[summary] live summary unavailable: %v", err)
		} else {
			lastErr = "live summary returned zero net liquidation"
			log.Printf("[summary] live summary empty, trying snapshot cache")
		}
	}

	if r.store != nil {
		snap, err := r.store.LatestSnapshot(ctx)
		if err == nil {
			age := r.now().Sub(snap.Timestamp)
			if age >= 0 && age < maxSnapshotAge {
				r.count(SourceDatabase)
				return model.PortfolioSummary{
					NetLiquidation:     snap.TotalEquity,
					CashBalance:        snap.CashBalance,
					GrossPositionValue: snap.MarketValue,
					Source:             SourceDatabase,
					AgeMinutes:         age.Minutes(),
				}
			}
			log.Printf("[summary] cached snapshot stale (%.1f min), trying position log", age.Minutes())
		} else {
			lastErr = err.Error()
		}
	}

	if r.posLog != nil {
		snap, err := r.posLog.Latest()
		if err == nil && snap != nil {
			value := poslog.Aggregate(snap.Positions)
			r.count(SourceLog)
			return model.PortfolioSummary{
				NetLiquidation:     value,
				GrossPositionValue: value,
				Source:             SourceLog,
			}
		}
		if err != nil {
			lastErr = err.Error()
		}
	}

	log.Printf("[summary] all tiers exhausted: %s", lastErr)
	r.count(SourceFallback)
	return model.PortfolioSummary{Source: SourceFallback, Error: lastErr}
}

func (r *Resolver) count(source string) {
	if r.metrics != nil {
		r.metrics.SummaryTierUsed.WithLabelValues(source).Inc()
	}
}
