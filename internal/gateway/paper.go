// Package gateway provides the in-process paper OrderGateway used for
// development and tests. The real broker SDK binding lives out of tree and
// is consumed only through model.OrderGateway.
package gateway

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"tiger-trader/internal/model"
)

// PaperGateway simulates order execution without broker calls. Limit orders
// fill immediately at the limit price adjusted by configured slippage;
// market orders rest as SUBMITTED until cancelled, since there is no book
// to fill them against.
type PaperGateway struct {
	mu       sync.RWMutex
	orders   map[string]*model.GatewayOrder
	orderSeq int64

	slippageBps int64 // basis points, 5 = 0.05%

	// rejectSymbols forces a REJECTED status for matching symbols; used to
	// exercise the venue-fallback path end to end.
	rejectSymbols map[string]bool
}

func NewPaperGateway(slippageBps int64) *PaperGateway {
	return &PaperGateway{
		orders:        make(map[string]*model.GatewayOrder),
		slippageBps:   slippageBps,
		rejectSymbols: make(map[string]bool),
	}
}

// RejectSymbol makes future placements for symbol come back REJECTED.
func (p *PaperGateway) RejectSymbol(symbol string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rejectSymbols[symbol] = true
}

// Orders returns a snapshot of every order the gateway has seen.
func (p *PaperGateway) Orders() []model.GatewayOrder {
	p.mu.RLock()
	defer p.mu.RUnlock()
	orders := make([]model.GatewayOrder, 0, len(p.orders))
	for _, o := range p.orders {
		orders = append(orders, *o)
	}
	return orders
}

func (p *PaperGateway) PlaceOrder(ctx context.Context, req model.OrderRequest) (model.GatewayOrder, error) {
	if req.Quantity <= 0 {
		return model.GatewayOrder{}, fmt.Errorf("paper: %w: quantity %d", model.ErrInvalidOrderRequest, req.Quantity)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.orderSeq++
	order := &model.GatewayOrder{
		ID:         fmt.Sprintf("PAPER-%d", p.orderSeq),
		Symbol:     req.Symbol,
		Action:     string(req.Action),
		Quantity:   req.Quantity,
		LimitPrice: req.LimitPrice,
	}

	switch {
	case p.rejectSymbols[req.Symbol]:
		order.Status = "REJECTED"
	case req.LimitPrice > 0:
		order.LimitPrice = p.slip(req.LimitPrice, req.Action)
		order.Status = "FILLED"
		order.FilledQty = req.Quantity
	default:
		order.Status = "SUBMITTED"
	}

	p.orders[order.ID] = order
	log.Printf("[paper] %s %s qty=%d limit=%.3f -> %s (%s)",
		order.Action, order.Symbol, order.Quantity, order.LimitPrice, order.Status, order.ID)
	return *order, nil
}

func (p *PaperGateway) GetOrder(ctx context.Context, orderID string) (model.GatewayOrder, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	order, ok := p.orders[orderID]
	if !ok {
		return model.GatewayOrder{}, fmt.Errorf("paper: order %s: %w", orderID, model.ErrProviderUnavailable)
	}
	return *order, nil
}

func (p *PaperGateway) GetOpenOrders(ctx context.Context) ([]model.GatewayOrder, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var open []model.GatewayOrder
	for _, o := range p.orders {
		if model.ParseOrderStatus(o.Status).Active() {
			open = append(open, *o)
		}
	}
	return open, nil
}

func (p *PaperGateway) CancelOrder(ctx context.Context, orderID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	order, ok := p.orders[orderID]
	if !ok {
		return fmt.Errorf("paper: cancel %s: order not found", orderID)
	}
	if model.ParseOrderStatus(order.Status).Terminal() {
		return fmt.Errorf("paper: cancel %s: already %s", orderID, strings.ToLower(order.Status))
	}
	order.Status = "CANCELLED"
	log.Printf("[paper] cancelled %s", orderID)
	return nil
}

func (p *PaperGateway) ModifyOrder(ctx context.Context, orderID string, newPrice float64) error {
	if newPrice <= 0 {
		return fmt.Errorf("paper: modify %s: %w: price %.3f", orderID, model.ErrInvalidOrderRequest, newPrice)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	order, ok := p.orders[orderID]
	if !ok {
		return fmt.Errorf("paper: modify %s: order not found", orderID)
	}
	if model.ParseOrderStatus(order.Status).Terminal() {
		return fmt.Errorf("paper: modify %s: already %s", orderID, strings.ToLower(order.Status))
	}
	order.LimitPrice = newPrice
	log.Printf("[paper] modified %s -> %.3f", orderID, newPrice)
	return nil
}

func (p *PaperGateway) slip(price float64, action model.Action) float64 {
	if p.slippageBps <= 0 {
		return price
	}
	slip := price * float64(p.slippageBps) / 10000
	if action == model.ActionBuy {
		return price + slip
	}
	return price - slip
}
