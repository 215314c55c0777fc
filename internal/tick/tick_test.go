package tick

import (
	"math"
	"testing"

	"tiger-trader/internal/model"
)

func TestQuantize_US(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{37.5049, 37.50},
		{37.505, 37.51},
		{0.004, 0.00},
		{0.005, 0.01},
		{123.456, 123.46},
		{100.0, 100.0},
	}
	for _, c := range cases {
		if got := Quantize(c.in, model.MarketUS); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("Quantize(%v, US) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestQuantize_HKBands(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		// [20, 100) -> 0.05
		{37.50, 37.50},
		{37.52, 37.50},
		{37.53, 37.55},
		// [0.25, 0.50) -> 0.005
		{0.30, 0.30},
		{0.302, 0.30},
		{0.303, 0.305},
		// [0, 0.25) -> 0.001
		{0.1234, 0.123},
		{0.1235, 0.124},
		// [0.50, 10) -> 0.01
		{9.994, 9.99},
		{9.996, 10.00},
		// [10, 20) -> 0.02
		{15.01, 15.02},
		{15.009, 15.00},
		// [100, 200) -> 0.10
		{152.34, 152.30},
		{152.35, 152.40},
		// [200, 500) -> 0.20
		{321.49, 321.40},
		// [500, 1000) -> 0.50
		{750.74, 750.50},
		{750.75, 751.00},
		// [1000, 2000) -> 1.00
		{1500.49, 1500.00},
		// [2000, 5000) -> 2.00
		{2001.0, 2002.00},
		// [5000, inf) -> 5.00
		{5002.4, 5000.00},
		{5002.5, 5005.00},
	}
	for _, c := range cases {
		if got := Quantize(c.in, model.MarketHK); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("Quantize(%v, HK) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestQuantize_HKResultIsTickMultiple(t *testing.T) {
	for _, in := range []float64{0.123, 0.37, 5.678, 12.345, 37.52, 152.34, 321.49, 750.74, 1500.3, 2345.6, 8888.8} {
		got := Quantize(in, model.MarketHK)
		tk, _ := HKTickSize(in).Float64()
		ratio := got / tk
		if math.Abs(ratio-math.Round(ratio)) > 1e-6 {
			t.Errorf("Quantize(%v, HK) = %v is not a multiple of tick %v", in, got, tk)
		}
	}
}

func TestQuantizeForSymbol(t *testing.T) {
	// 5-digit numeric symbol classifies as HK.
	if got := QuantizeForSymbol(37.52, "00700"); math.Abs(got-37.50) > 1e-9 {
		t.Errorf("QuantizeForSymbol(37.52, 00700) = %v, want 37.50", got)
	}
	// Everything else classifies as US.
	if got := QuantizeForSymbol(37.52, "AAPL"); math.Abs(got-37.52) > 1e-9 {
		t.Errorf("QuantizeForSymbol(37.52, AAPL) = %v, want 37.52", got)
	}
}
