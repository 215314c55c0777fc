package model

import (
	"testing"
	"time"
)

func timeNowFixed() time.Time {
	return time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)
}

func TestParseOrderStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want OrderStatus
	}{
		{"Filled", StatusFilled},
		{"FILLED", StatusFilled},
		{"HK_Filled", StatusFilled},
		{"PartiallyFilled", StatusPartiallyFilled},
		{"PARTIALLY_FILLED", StatusPartiallyFilled},
		{"Submitted", StatusSubmitted},
		{"PendingSubmit", StatusSubmitted},
		{"PENDING_NEW", StatusSubmitted},
		{"New", StatusNew},
		{"Initial", StatusNew},
		{"Rejected", StatusRejected},
		{"REJECTED (insufficient funds)", StatusRejected},
		{"Expired", StatusExpired},
		{"Expired (GTC)", StatusExpired},
		{"Cancelled", StatusCancelled},
		{"PendingCancel", StatusCancelled},
		{"", StatusUnknown},
		{"Inactive", StatusUnknown},
		{"garbage", StatusUnknown},
	}
	for _, c := range cases {
		if got := ParseOrderStatus(c.raw); got != c.want {
			t.Errorf("ParseOrderStatus(%q) = %v, want %v", c.raw, got, c.want)
		}
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	terminal := []OrderStatus{StatusFilled, StatusRejected, StatusExpired, StatusCancelled}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%v should be terminal", s)
		}
	}
	active := []OrderStatus{StatusNew, StatusSubmitted, StatusPartiallyFilled, StatusUnknown}
	for _, s := range active {
		if s.Terminal() {
			t.Errorf("%v should not be terminal", s)
		}
	}
}

func TestNormalizeSymbol(t *testing.T) {
	cases := []struct{ in, want string }{
		{"700", "00700"},
		{"2828", "02828"},
		{"00700", "00700"},
		{"80388", "80388"},
		{"AAPL", "AAPL"},
		{"", ""},
		{" 700 ", "00700"},
	}
	for _, c := range cases {
		if got := NormalizeSymbol(c.in); got != c.want {
			t.Errorf("NormalizeSymbol(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestRMBCounterSymbol(t *testing.T) {
	if sym, ok := RMBCounterSymbol("00388"); !ok || sym != "80388" {
		t.Errorf("RMBCounterSymbol(00388) = %q, %v; want 80388, true", sym, ok)
	}
	// 4-digit symbols are not eligible.
	if _, ok := RMBCounterSymbol("2800"); ok {
		t.Error("RMBCounterSymbol(2800) should not be eligible")
	}
	// 5-digit symbols not starting with '0' are not eligible.
	if _, ok := RMBCounterSymbol("80388"); ok {
		t.Error("RMBCounterSymbol(80388) should not be eligible")
	}
	if _, ok := RMBCounterSymbol("AAPL"); ok {
		t.Error("RMBCounterSymbol(AAPL) should not be eligible")
	}
}

func TestOrderFromGateway(t *testing.T) {
	g := GatewayOrder{ID: "42", Symbol: "00700", Action: "BUY", Quantity: 100, LimitPrice: 321.4, Status: "Submitted"}
	o, err := OrderFromGateway(g, VenuePrimary, timeNowFixed())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Status != StatusSubmitted || o.RawStatus != "Submitted" {
		t.Errorf("status mapping: got %v raw=%q", o.Status, o.RawStatus)
	}

	if _, err := OrderFromGateway(GatewayOrder{Symbol: "00700"}, VenuePrimary, timeNowFixed()); err != ErrMissingOrderID {
		t.Errorf("expected ErrMissingOrderID, got %v", err)
	}
	if _, err := OrderFromGateway(GatewayOrder{ID: "1"}, VenuePrimary, timeNowFixed()); err != ErrMissingSymbol {
		t.Errorf("expected ErrMissingSymbol, got %v", err)
	}
}
