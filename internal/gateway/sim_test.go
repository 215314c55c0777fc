package gateway

import (
	"context"
	"testing"

	"tiger-trader/internal/model"
)

func TestSimQuotes_BarsEndAtLatestPrice(t *testing.T) {
	q := NewSimQuotes(42)
	ctx := context.Background()

	bars, err := q.GetBars(ctx, "00700", model.BarDay, 30)
	if err != nil {
		t.Fatalf("GetBars: %v", err)
	}
	if len(bars) != 30 {
		t.Fatalf("got %d bars, want 30", len(bars))
	}
	for i := 1; i < len(bars); i++ {
		if !bars[i].Time.After(bars[i-1].Time) {
			t.Fatalf("bars not oldest-first at %d", i)
		}
	}
	for _, b := range bars {
		if b.High < b.Low || b.Close <= 0 {
			t.Fatalf("malformed bar %+v", b)
		}
	}
}

func TestSimAccount_PositionsFromFills(t *testing.T) {
	quotes := NewSimQuotes(42)
	g := NewPaperGateway(0)
	acct := NewSimAccount(g, quotes, map[string]float64{"HKD": 100000})
	ctx := context.Background()

	if _, err := g.PlaceOrder(ctx, model.OrderRequest{
		Symbol: "00700", Action: model.ActionBuy, Quantity: 100, LimitPrice: 300,
	}); err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	positions, err := acct.GetPositions(ctx)
	if err != nil {
		t.Fatalf("GetPositions: %v", err)
	}
	if len(positions) != 1 || positions[0].Symbol != "00700" || positions[0].Quantity != 100 {
		t.Fatalf("positions = %+v", positions)
	}
	if positions[0].AverageCost != 300 {
		t.Errorf("avg cost = %v, want 300", positions[0].AverageCost)
	}

	sum, err := acct.GetSummary(ctx)
	if err != nil {
		t.Fatalf("GetSummary: %v", err)
	}
	if sum.NetLiquidation <= 0 || sum.CashBalance != 100000 {
		t.Errorf("summary = %+v", sum)
	}

	// Selling the whole position removes it.
	if _, err := g.PlaceOrder(ctx, model.OrderRequest{
		Symbol: "00700", Action: model.ActionSell, Quantity: 100, LimitPrice: 310,
	}); err != nil {
		t.Fatalf("PlaceOrder sell: %v", err)
	}
	positions, _ = acct.GetPositions(ctx)
	if len(positions) != 0 {
		t.Errorf("positions after full exit = %+v", positions)
	}
}
