// Package agent defines the decision provider, the natural-language
// reasoning collaborator, behind a narrow typed interface.
//
// The core never constructs or depends on prompt text beyond this package,
// and a malformed provider response never propagates upward: every call
// site substitutes a documented safe default (fallback ticker, HOLD, or an
// empty list) and logs the failure.
package agent

import (
	"context"

	"tiger-trader/internal/model"
)

// FallbackSymbol is the documented safe default when ticker selection fails:
// the HK Tracker Fund ETF, always tradable during HK hours.
const FallbackSymbol = "2800"

// AnalysisInput carries everything the provider sees when deciding a trade.
type AnalysisInput struct {
	Symbol     string
	DailyBars  []model.Bar
	WeeklyBars []model.Bar
	Brief      model.Brief
	Strategy   string
	Position   *model.Position
	Funds      model.FundsSnapshot
}

// PendingOrderContext is one open order plus its last known market price.
// PriceKnown is false when no reference price could be fetched; the provider
// sees an explicit "unavailable" marker rather than a zero.
type PendingOrderContext struct {
	Order       model.Order
	MarketPrice float64
	PriceKnown  bool
}

// DecisionProvider is the typed surface of the reasoning collaborator.
type DecisionProvider interface {
	// SelectTicker picks one target symbol for the cycle. On failure it
	// returns FallbackSymbol, never an error.
	SelectTicker(ctx context.Context, strategy string, holdings []model.Position) model.TickerSelection

	// AnalyzeMarket produces the trade decision for a symbol. On failure it
	// returns HOLD, never an error.
	AnalyzeMarket(ctx context.Context, in AnalysisInput) model.Decision

	// ManagePositions returns exit recommendations for current holdings.
	// On failure it returns an empty list, never an error.
	ManagePositions(ctx context.Context, holdings []model.Position) []model.RiskRecommendation

	// ManagePendingOrders returns one verdict per open order. Orders absent
	// from the result are treated as implicit KEEP by the reconciler. On
	// failure it returns an empty list, never an error.
	ManagePendingOrders(ctx context.Context, orders []PendingOrderContext) []model.PendingAction
}
