package model

// Position is a read-only snapshot of a brokerage holding. The brokerage
// owns position state; the loop only reads it once per cycle.
type Position struct {
	Symbol        string  `json:"symbol"`
	Quantity      int64   `json:"quantity"`
	AverageCost   float64 `json:"average_cost"`
	MarketPrice   float64 `json:"market_price"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`
	MarketValue   float64 `json:"market_value"`
}

// CurrencyFunds holds per-currency cash availability.
type CurrencyFunds struct {
	AvailableForTrade float64 `json:"available_for_trade"`
	CashBalance       float64 `json:"cash_balance"`
	BuyingPower       float64 `json:"buying_power"`
}

// FundsSnapshot maps currency code ("USD", "HKD") to cash availability.
type FundsSnapshot map[string]CurrencyFunds
