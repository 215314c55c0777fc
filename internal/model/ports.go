package model

import (
	"context"
	"time"
)

// ── Collaborator Port Interfaces ──
// These interfaces decouple the control loop from concrete brokerage and
// storage bindings. The broker SDK side is implemented out of tree; tests
// and paper trading use the in-tree gateway.

// QuoteProvider serves market data: historical bars, latest prices,
// fundamentals briefs and per-market open/closed status.
type QuoteProvider interface {
	// GetBars returns up to limit historical bars, oldest first.
	GetBars(ctx context.Context, symbol string, period BarPeriod, limit int) ([]Bar, error)

	// GetLatestPrice returns the last traded price for a symbol.
	GetLatestPrice(ctx context.Context, symbol string) (float64, error)

	// GetBrief returns the fundamentals snapshot for a symbol.
	GetBrief(ctx context.Context, symbol string) (Brief, error)

	// GetMarketStatus reports whether a market domain is open.
	GetMarketStatus(ctx context.Context, market Market) (MarketStatus, error)
}

// OrderGateway places and manages broker orders, keyed by broker order id.
type OrderGateway interface {
	// PlaceOrder submits an order and returns the gateway's view of it.
	PlaceOrder(ctx context.Context, req OrderRequest) (GatewayOrder, error)

	// GetOrder fetches the current state of an order.
	GetOrder(ctx context.Context, orderID string) (GatewayOrder, error)

	// GetOpenOrders lists all currently active orders.
	GetOpenOrders(ctx context.Context) ([]GatewayOrder, error)

	// CancelOrder cancels an active order.
	CancelOrder(ctx context.Context, orderID string) error

	// ModifyOrder changes the limit price of an active order.
	ModifyOrder(ctx context.Context, orderID string, newPrice float64) error
}

// OrderRequest is the shape handed to the gateway on placement.
// LimitPrice 0 means a raw market order.
type OrderRequest struct {
	Symbol     string
	Action     Action
	Quantity   int64
	LimitPrice float64
	Currency   string
	ClientRef  string
}

// AccountProvider reads brokerage account state: holdings, funds and the
// live portfolio summary.
type AccountProvider interface {
	// GetPositions returns all current holdings.
	GetPositions(ctx context.Context) ([]Position, error)

	// GetFunds returns per-currency cash availability.
	GetFunds(ctx context.Context) (FundsSnapshot, error)

	// GetSummary returns the live portfolio summary (Tier 1).
	GetSummary(ctx context.Context) (PortfolioSummary, error)
}

// SnapshotStore persists append-only portfolio snapshots and serves the
// most recent one (Tier-2 cache).
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap PortfolioSnapshot) error
	LatestSnapshot(ctx context.Context) (PortfolioSnapshot, error)
}

// TradeRecorder appends executed-trade records.
type TradeRecorder interface {
	RecordTrade(ctx context.Context, rec TradeRecord) error
}

// PositionLogger appends structured position snapshots to the line-oriented
// position log (Tier-3 source).
type PositionLogger interface {
	LogPositions(ts time.Time, positions []Position) error
}
