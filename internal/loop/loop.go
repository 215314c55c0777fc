// Package loop drives the agentic trading cycle: rate-limit gating, market
// hours gating, portfolio snapshotting, risk-driven exits, target selection,
// analysis, execution and pending-order reconciliation, repeated on a fixed
// cooldown. One cycle is active at a time and cancellation is honored only
// between cycles; a cycle in flight always runs to completion or to the
// recovery boundary.
package loop

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"tiger-trader/internal/agent"
	"tiger-trader/internal/metrics"
	"tiger-trader/internal/model"
	"tiger-trader/internal/notification"
)

const (
	defaultCooldown = 3 * time.Minute
	recoverySleep   = 10 * time.Second

	dailyBarLookback  = 60
	weeklyBarLookback = 26
)

// Limiter gates the cycle's first metered action.
type Limiter interface {
	Wait(ctx context.Context) error
}

// MarketGate blocks until at least one configured market domain is open.
type MarketGate interface {
	WaitOpen(ctx context.Context) ([]model.MarketStatus, error)
}

// RiskRunner converts exit recommendations into sized sell orders.
type RiskRunner interface {
	Run(ctx context.Context, holdings []model.Position) []model.Order
}

// OrderPlacer executes one trade decision through the order lifecycle.
type OrderPlacer interface {
	Place(ctx context.Context, dec model.Decision) (*model.Order, error)
}

// Reconciler enforces keep/cancel/modify verdicts over open orders.
type Reconciler interface {
	Run(ctx context.Context) (int, error)
}

// PauseState reports whether trading is administratively paused. While
// paused the loop keeps polling market status but skips every trading step.
type PauseState interface {
	Paused(ctx context.Context) bool
}

// Deps wires the loop's collaborators. Limiter, gate, account, quotes,
// provider, risk, executor and reconciler are required; the rest are
// optional and skipped when nil.
type Deps struct {
	Limiter    Limiter
	Gate       MarketGate
	Account    model.AccountProvider
	Quotes     model.QuoteProvider
	Provider   agent.DecisionProvider
	Risk       RiskRunner
	Executor   OrderPlacer
	Reconciler Reconciler

	PosLog    model.PositionLogger
	Snapshots model.SnapshotStore
	Pause     PauseState
	Notifier  notification.Notifier
	Metrics   *metrics.Metrics
	Health    *metrics.HealthStatus

	Strategy string
	Cooldown time.Duration
}

// Loop is the single-threaded trading control loop.
type Loop struct {
	deps     Deps
	cooldown time.Duration

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func New(deps Deps) *Loop {
	cooldown := deps.Cooldown
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}
	return &Loop{
		deps:     deps,
		cooldown: cooldown,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

// Run executes cycles until ctx is cancelled. Cancellation is checked
// between cycles only. A failure escaping a cycle is caught here, logged,
// and followed by a short recovery sleep; the loop never exits because of
// one bad cycle.
func (l *Loop) Run(ctx context.Context) error {
	log.Printf("[loop] starting, cooldown %v", l.cooldown)
	for {
		select {
		case <-ctx.Done():
			log.Printf("[loop] stopped: %v", ctx.Err())
			return ctx.Err()
		default:
		}

		cycleID := uuid.NewString()[:8]
		start := l.now()
		err := l.runCycle(ctx, cycleID)
		l.observeCycle(start, err)

		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			log.Printf("[loop] cycle %s failed: %v", cycleID, err)
			l.notify(ctx, notification.AlertWarning, "Cycle failed",
				fmt.Sprintf("cycle %s: %v", cycleID, err))
			l.sleep(ctx, recoverySleep)
			continue
		}

		l.sleep(ctx, l.cooldown)
	}
}

// runCycle is steps (a) through (i) of one cycle; the cooldown sleep (j)
// lives in Run. A panic inside a cycle is converted into the cycle's error
// so the loop boundary recovers from it like any other failure.
func (l *Loop) runCycle(ctx context.Context, cycleID string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cycle panicked: %v", r)
		}
	}()

	// (a) Rate-limit gate before the cycle's first metered action.
	if err := l.deps.Limiter.Wait(ctx); err != nil {
		return err
	}

	// (b) Market-hours gate. Blocks with backoff while everything is closed.
	statuses, err := l.deps.Gate.WaitOpen(ctx)
	if err != nil {
		return err
	}
	l.observeMarkets(statuses)

	if l.deps.Pause != nil && l.deps.Pause.Paused(ctx) {
		log.Printf("[loop] cycle %s: trading paused, skipping", cycleID)
		return nil
	}

	// (c) Snapshot holdings and funds; feed the position log and the
	// snapshot store so the summary tiers have something to fall back on.
	holdings, err := l.deps.Account.GetPositions(ctx)
	if err != nil {
		return fmt.Errorf("fetch positions: %w", err)
	}
	funds, err := l.deps.Account.GetFunds(ctx)
	if err != nil {
		log.Printf("[loop] cycle %s: funds unavailable: %v", cycleID, err)
		funds = nil
	}
	l.persistSnapshots(ctx, cycleID, holdings)

	// (d) Risk pass over current holdings.
	exits := l.deps.Risk.Run(ctx, holdings)
	if n := len(exits); n > 0 {
		log.Printf("[loop] cycle %s: risk pass placed %d exit orders", cycleID, n)
		if l.deps.Metrics != nil {
			l.deps.Metrics.RiskExits.Add(float64(n))
		}
	}

	// (e) Target selection. Purely numeric symbols shorter than 5 digits
	// are zero-padded to the venue's canonical form.
	sel := l.deps.Provider.SelectTicker(ctx, l.deps.Strategy, holdings)
	symbol := model.NormalizeSymbol(sel.Symbol)
	log.Printf("[loop] cycle %s: target %s (%s)", cycleID, symbol, sel.Reason)

	// (f) Market data for the target. No daily bars means no basis for a
	// decision, so the rest of the cycle is skipped.
	daily, err := l.deps.Quotes.GetBars(ctx, symbol, model.BarDay, dailyBarLookback)
	if err != nil || len(daily) == 0 {
		log.Printf("[loop] cycle %s: no daily bars for %s (%v), skipping cycle", cycleID, symbol, err)
		return nil
	}
	weekly, err := l.deps.Quotes.GetBars(ctx, symbol, model.BarWeek, weeklyBarLookback)
	if err != nil {
		log.Printf("[loop] cycle %s: weekly bars unavailable for %s: %v", cycleID, symbol, err)
		weekly = nil
	}
	brief, err := l.deps.Quotes.GetBrief(ctx, symbol)
	if err != nil {
		log.Printf("[loop] cycle %s: brief unavailable for %s: %v", cycleID, symbol, err)
		brief = model.Brief{Symbol: symbol}
	}

	// (g) Trade decision.
	dec := l.deps.Provider.AnalyzeMarket(ctx, agent.AnalysisInput{
		Symbol:     symbol,
		DailyBars:  daily,
		WeeklyBars: weekly,
		Brief:      brief,
		Strategy:   l.deps.Strategy,
		Position:   findPosition(holdings, symbol),
		Funds:      funds,
	})
	log.Printf("[loop] cycle %s: decision %s %s qty=%d (%s)",
		cycleID, dec.Action, dec.Symbol, dec.Quantity, dec.Reason)

	// (h) Execute through the order lifecycle.
	order, err := l.deps.Executor.Place(ctx, dec)
	switch {
	case err != nil:
		log.Printf("[loop] cycle %s: execution failed: %v", cycleID, err)
	case order != nil:
		log.Printf("[loop] cycle %s: order %s -> %s", cycleID, order.ID, order.Status)
	}

	// (i) Reconcile open orders, including one just placed this cycle.
	if n, err := l.deps.Reconciler.Run(ctx); err != nil {
		log.Printf("[loop] cycle %s: reconciliation failed: %v", cycleID, err)
	} else if n > 0 {
		log.Printf("[loop] cycle %s: reconciled %d open orders", cycleID, n)
	}

	return nil
}

// persistSnapshots appends the raw holdings to the position log and, when a
// live summary is available, records a portfolio snapshot for the Tier-2
// cache. Both sinks are best effort; a write failure never fails the cycle.
func (l *Loop) persistSnapshots(ctx context.Context, cycleID string, holdings []model.Position) {
	if l.deps.PosLog != nil {
		if err := l.deps.PosLog.LogPositions(l.now(), holdings); err != nil {
			log.Printf("[loop] cycle %s: position log write failed: %v", cycleID, err)
		}
	}
	if l.deps.Snapshots == nil {
		return
	}
	sum, err := l.deps.Account.GetSummary(ctx)
	if err != nil || sum.NetLiquidation <= 0 {
		log.Printf("[loop] cycle %s: no live summary for snapshot (%v)", cycleID, err)
		return
	}
	snap := model.PortfolioSnapshot{
		Timestamp:   l.now(),
		TotalEquity: sum.NetLiquidation,
		CashBalance: sum.CashBalance,
		MarketValue: sum.GrossPositionValue,
	}
	if err := l.deps.Snapshots.SaveSnapshot(ctx, snap); err != nil {
		log.Printf("[loop] cycle %s: snapshot save failed: %v", cycleID, err)
	}
}

func (l *Loop) observeCycle(start time.Time, err error) {
	if l.deps.Health != nil {
		l.deps.Health.MarkCycle()
	}
	if l.deps.Metrics == nil {
		return
	}
	l.deps.Metrics.CyclesTotal.Inc()
	l.deps.Metrics.CycleDuration.Observe(l.now().Sub(start).Seconds())
	if err != nil {
		l.deps.Metrics.CycleErrors.Inc()
	}
}

func (l *Loop) observeMarkets(statuses []model.MarketStatus) {
	if l.deps.Metrics == nil {
		return
	}
	for _, st := range statuses {
		v := 0.0
		if st.Open {
			v = 1.0
		}
		l.deps.Metrics.MarketOpenGauge.WithLabelValues(string(st.Market)).Set(v)
	}
}

func (l *Loop) notify(ctx context.Context, level notification.AlertLevel, title, msg string) {
	if l.deps.Notifier == nil {
		return
	}
	if err := l.deps.Notifier.Send(ctx, notification.Alert{Level: level, Title: title, Message: msg}); err != nil {
		log.Printf("[loop] notify failed: %v", err)
	}
}

func findPosition(holdings []model.Position, symbol string) *model.Position {
	for i := range holdings {
		if holdings[i].Symbol == symbol {
			return &holdings[i]
		}
	}
	return nil
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
