package model

import "time"

// BarPeriod selects the K-line aggregation for historical queries.
type BarPeriod string

const (
	BarDay  BarPeriod = "day"
	BarWeek BarPeriod = "week"
)

// Bar is one OHLCV candle from the quote provider.
type Bar struct {
	Symbol string    `json:"symbol"`
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Brief is a point-in-time fundamentals snapshot for one symbol.
type Brief struct {
	Symbol      string  `json:"symbol"`
	LatestPrice float64 `json:"latest_price"`
	Open        float64 `json:"open"`
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	PrevClose   float64 `json:"prev_close"`
	Volume      int64   `json:"volume"`
	MarketCap   float64 `json:"market_cap,omitempty"`
	PERatio     float64 `json:"pe_ratio,omitempty"`
}
