package model

import "time"

// PortfolioSnapshot is one append-only persisted equity record. The most
// recent snapshot serves as the Tier-2 cache for summary queries.
type PortfolioSnapshot struct {
	ID          int64     `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	TotalEquity float64   `json:"total_equity"`
	CashBalance float64   `json:"cash_balance"`
	MarketValue float64   `json:"market_value"`
}

// PortfolioSummary is the best-effort summary returned by the tiered
// resolver. Source names the tier that produced it: "live_api",
// "database_cache", "log_parser" or "fallback".
type PortfolioSummary struct {
	NetLiquidation     float64 `json:"net_liquidation"`
	CashBalance        float64 `json:"cash_balance"`
	GrossPositionValue float64 `json:"gross_position_value"`
	Source             string  `json:"source"`
	AgeMinutes         float64 `json:"age_minutes,omitempty"` // database_cache only
	Error              string  `json:"error,omitempty"`       // fallback only
}

// TradeRecord is one executed (or attempted) trade, appended to storage for
// the dashboard trade history.
type TradeRecord struct {
	ID        int64     `json:"id"`
	Symbol    string    `json:"symbol"`
	Action    Action    `json:"action"`
	Quantity  int64     `json:"quantity"`
	Price     float64   `json:"price"`
	Reason    string    `json:"reason"`
	OrderID   string    `json:"order_id"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}
