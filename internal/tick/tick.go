// Package tick quantizes order prices to valid exchange tick sizes.
//
// HK pricing follows the HKEX Part A spread table: the tick size depends on
// the price band, and quantized prices must be exact multiples of the band
// tick. All other markets round to 0.01.
package tick

import (
	"github.com/shopspring/decimal"

	"tiger-trader/internal/model"
)

// band is a half-open price band [Lower, Upper) with its tick size.
type band struct {
	lower decimal.Decimal
	tick  decimal.Decimal
}

// hkBands is ordered by descending lower bound so the first match wins.
var hkBands = []band{
	{dec("5000"), dec("5.00")},
	{dec("2000"), dec("2.00")},
	{dec("1000"), dec("1.00")},
	{dec("500"), dec("0.50")},
	{dec("200"), dec("0.20")},
	{dec("100"), dec("0.10")},
	{dec("20"), dec("0.05")},
	{dec("10"), dec("0.02")},
	{dec("0.50"), dec("0.01")},
	{dec("0.25"), dec("0.005")},
	{dec("0"), dec("0.001")},
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Quantize rounds price to the nearest valid tick for the given market.
// HK: nearest multiple of the band tick (half away from zero), then rounded
// to 3 decimal places to strip float noise. Everything else: 2 decimal
// places. Pure function; primary and fallback-counter pricing both use it.
func Quantize(price float64, market model.Market) float64 {
	p := decimal.NewFromFloat(price)

	if market != model.MarketHK {
		f, _ := p.Round(2).Float64()
		return f
	}

	t := HKTickSize(price)
	// Round(0) rounds half away from zero, matching exchange convention.
	q := p.Div(t).Round(0).Mul(t).Round(3)
	f, _ := q.Float64()
	return f
}

// HKTickSize returns the HKEX tick size for a price.
func HKTickSize(price float64) decimal.Decimal {
	p := decimal.NewFromFloat(price)
	for _, b := range hkBands {
		if p.GreaterThanOrEqual(b.lower) {
			return b.tick
		}
	}
	// Negative prices never reach the gateway; quantize like the lowest band.
	return hkBands[len(hkBands)-1].tick
}

// QuantizeForSymbol picks the market from the symbol heuristic and quantizes.
func QuantizeForSymbol(price float64, symbol string) float64 {
	return Quantize(price, model.MarketForSymbol(symbol))
}
