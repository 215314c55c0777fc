package model

import "strings"

// Market is a market domain for quotes, status polling and tick rules.
type Market string

const (
	MarketUS Market = "US"
	MarketHK Market = "HK"
	MarketCN Market = "CN"
)

// MarketStatus is one market's open/closed state as reported by the quote
// provider. No calendar is computed locally; the loop trusts whatever the
// provider says each poll.
type MarketStatus struct {
	Market Market `json:"market"`
	Open   bool   `json:"open"`
	Status string `json:"status"` // provider status text, e.g. "TRADING", "CLOSED"
}

// IsHKSymbol reports whether a symbol is an HK listing under the documented
// heuristic: purely numeric and exactly 5 digits. Not authoritative, but it
// matches how the upstream venues key their counters.
func IsHKSymbol(symbol string) bool {
	if len(symbol) != 5 {
		return false
	}
	return isDigits(symbol)
}

// MarketForSymbol classifies a symbol into its market domain.
func MarketForSymbol(symbol string) Market {
	if IsHKSymbol(symbol) {
		return MarketHK
	}
	return MarketUS
}

// CurrencyForSymbol returns the settlement currency for a symbol's primary
// counter.
func CurrencyForSymbol(symbol string) string {
	if IsHKSymbol(symbol) {
		return "HKD"
	}
	return "USD"
}

// NormalizeSymbol left-pads purely numeric symbols shorter than 5 digits
// with zeros (700 -> 00700, 2828 -> 02828). Non-numeric symbols pass
// through unchanged.
func NormalizeSymbol(symbol string) string {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" || !isDigits(symbol) || len(symbol) >= 5 {
		return symbol
	}
	return strings.Repeat("0", 5-len(symbol)) + symbol
}

// RMBCounterSymbol returns the alternate RMB-counter symbol for a dual
// counter HK listing (leading '0' replaced with '8'), and whether the
// symbol is eligible for the counter fallback at all.
func RMBCounterSymbol(symbol string) (string, bool) {
	if !IsHKSymbol(symbol) || symbol[0] != '0' {
		return "", false
	}
	return "8" + symbol[1:], true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
