package gateway

import (
	"context"
	"hash/fnv"
	"math/rand"
	"sync"
	"time"

	"tiger-trader/internal/model"
)

// SimQuotes is a deterministic quote provider for paper trading. Prices
// start from a symbol-derived base and random-walk per query; bars are
// synthesized backwards from the current price. Markets always report open.
type SimQuotes struct {
	mu     sync.Mutex
	prices map[string]float64
	rng    *rand.Rand
}

func NewSimQuotes(seed int64) *SimQuotes {
	return &SimQuotes{
		prices: make(map[string]float64),
		rng:    rand.New(rand.NewSource(seed)),
	}
}

func (s *SimQuotes) GetLatestPrice(ctx context.Context, symbol string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.walk(symbol), nil
}

func (s *SimQuotes) GetBars(ctx context.Context, symbol string, period model.BarPeriod, limit int) ([]model.Bar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	step := 24 * time.Hour
	if period == model.BarWeek {
		step = 7 * 24 * time.Hour
	}

	price := s.walk(symbol)
	bars := make([]model.Bar, limit)
	ts := time.Now().Truncate(step)
	// Generate backwards so the newest bar closes at the current price.
	for i := limit - 1; i >= 0; i-- {
		open := price * (1 + (s.rng.Float64()-0.5)*0.04)
		high := maxF(open, price) * (1 + s.rng.Float64()*0.01)
		low := minF(open, price) * (1 - s.rng.Float64()*0.01)
		bars[i] = model.Bar{
			Symbol: symbol,
			Time:   ts,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  price,
			Volume: 1_000_000 + s.rng.Int63n(9_000_000),
		}
		price = open
		ts = ts.Add(-step)
	}
	return bars, nil
}

func (s *SimQuotes) GetBrief(ctx context.Context, symbol string) (model.Brief, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.walk(symbol)
	return model.Brief{
		Symbol:      symbol,
		LatestPrice: p,
		Open:        p * 0.995,
		High:        p * 1.01,
		Low:         p * 0.99,
		PrevClose:   p * 0.997,
		Volume:      5_000_000,
	}, nil
}

func (s *SimQuotes) GetMarketStatus(ctx context.Context, market model.Market) (model.MarketStatus, error) {
	return model.MarketStatus{Market: market, Open: true, Status: "SIMULATED"}, nil
}

// walk advances a symbol's price one step. Caller holds the lock.
func (s *SimQuotes) walk(symbol string) float64 {
	p, ok := s.prices[symbol]
	if !ok {
		p = basePrice(symbol)
	}
	p *= 1 + (s.rng.Float64()-0.5)*0.002
	s.prices[symbol] = p
	return p
}

// basePrice derives a stable starting price in [10, 500) from the symbol.
func basePrice(symbol string) float64 {
	h := fnv.New32a()
	h.Write([]byte(symbol))
	return 10 + float64(h.Sum32()%490)
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// SimAccount derives account state from the paper gateway's fills on top of
// a starting cash balance per currency.
type SimAccount struct {
	gateway *PaperGateway
	quotes  *SimQuotes

	mu   sync.Mutex
	cash map[string]float64
}

func NewSimAccount(gateway *PaperGateway, quotes *SimQuotes, startingCash map[string]float64) *SimAccount {
	cash := make(map[string]float64, len(startingCash))
	for k, v := range startingCash {
		cash[k] = v
	}
	return &SimAccount{gateway: gateway, quotes: quotes, cash: cash}
}

func (a *SimAccount) GetPositions(ctx context.Context) ([]model.Position, error) {
	filled := a.filledBySymbol()
	positions := make([]model.Position, 0, len(filled))
	for symbol, agg := range filled {
		if agg.qty <= 0 {
			continue
		}
		price, err := a.quotes.GetLatestPrice(ctx, symbol)
		if err != nil {
			price = agg.cost / float64(agg.qty)
		}
		avgCost := agg.cost / float64(agg.qty)
		positions = append(positions, model.Position{
			Symbol:        symbol,
			Quantity:      agg.qty,
			AverageCost:   avgCost,
			MarketPrice:   price,
			MarketValue:   price * float64(agg.qty),
			UnrealizedPnL: (price - avgCost) * float64(agg.qty),
		})
	}
	return positions, nil
}

func (a *SimAccount) GetFunds(ctx context.Context) (model.FundsSnapshot, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	funds := make(model.FundsSnapshot, len(a.cash))
	for currency, amount := range a.cash {
		funds[currency] = model.CurrencyFunds{
			AvailableForTrade: amount,
			CashBalance:       amount,
			BuyingPower:       amount,
		}
	}
	return funds, nil
}

func (a *SimAccount) GetSummary(ctx context.Context) (model.PortfolioSummary, error) {
	positions, err := a.GetPositions(ctx)
	if err != nil {
		return model.PortfolioSummary{}, err
	}
	var gross float64
	for _, p := range positions {
		gross += p.MarketValue
	}

	a.mu.Lock()
	var cash float64
	for _, amount := range a.cash {
		cash += amount
	}
	a.mu.Unlock()

	return model.PortfolioSummary{
		NetLiquidation:     cash + gross,
		CashBalance:        cash,
		GrossPositionValue: gross,
	}, nil
}

type fillAgg struct {
	qty  int64
	cost float64
}

func (a *SimAccount) filledBySymbol() map[string]fillAgg {
	agg := make(map[string]fillAgg)
	for _, o := range a.gateway.Orders() {
		if model.ParseOrderStatus(o.Status) != model.StatusFilled {
			continue
		}
		cur := agg[o.Symbol]
		switch model.Action(o.Action) {
		case model.ActionBuy:
			cur.qty += o.FilledQty
			cur.cost += o.LimitPrice * float64(o.FilledQty)
		case model.ActionSell:
			if cur.qty > 0 {
				cur.cost -= cur.cost / float64(cur.qty) * float64(o.FilledQty)
			}
			cur.qty -= o.FilledQty
		}
		agg[o.Symbol] = cur
	}
	return agg
}
