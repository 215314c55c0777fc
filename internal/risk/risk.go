// Package risk converts position-management recommendations into sized exit
// orders. Exits are market-intent (price 0); downstream execution applies
// the market-to-limit conversion policy.
package risk

import (
	"context"
	"log"
	"math"

	"tiger-trader/internal/agent"
	"tiger-trader/internal/model"
)

// OrderPlacer executes one decision. Satisfied by execution.Manager.
type OrderPlacer interface {
	Place(ctx context.Context, dec model.Decision) (*model.Order, error)
}

// Manager turns risk-control sell recommendations into exit orders.
type Manager struct {
	provider agent.DecisionProvider
	placer   OrderPlacer
}

// New creates a risk manager.
func New(provider agent.DecisionProvider, placer OrderPlacer) *Manager {
	return &Manager{provider: provider, placer: placer}
}

// Run obtains recommendations for the current holdings and executes the
// resulting exits. At most one order is issued per symbol per cycle, and a
// failure on one symbol never blocks the others. Returns the orders placed.
func (m *Manager) Run(ctx context.Context, holdings []model.Position) []model.Order {
	if len(holdings) == 0 {
		return nil
	}

	recs := m.provider.ManagePositions(ctx, holdings)
	if len(recs) == 0 {
		return nil
	}

	bySymbol := make(map[string]model.Position, len(holdings))
	for _, p := range holdings {
		bySymbol[p.Symbol] = p
	}

	var placed []model.Order
	done := make(map[string]bool)
	for _, rec := range recs {
		if rec.Action != model.ActionSell {
			continue
		}
		if done[rec.Symbol] {
			log.Printf("[risk] duplicate recommendation for %s ignored", rec.Symbol)
			continue
		}
		pos, ok := bySymbol[rec.Symbol]
		if !ok {
			log.Printf("[risk] recommendation for %s ignored: not held", rec.Symbol)
			continue
		}

		sellQty := int64(math.Floor(float64(pos.Quantity) * rec.Percentage))
		if sellQty <= 0 {
			log.Printf("[risk] %s: computed sell quantity is 0 (qty=%d pct=%.2f), skipping",
				rec.Symbol, pos.Quantity, rec.Percentage)
			continue
		}
		done[rec.Symbol] = true

		log.Printf("[risk] exit %s qty=%d reason=%q", rec.Symbol, sellQty, rec.Reason)
		order, err := m.placer.Place(ctx, model.Decision{
			Action:   model.ActionSell,
			Symbol:   rec.Symbol,
			Quantity: sellQty,
			Price:    0, // market intent: immediate exit
			Reason:   rec.Reason,
			Source:   "risk_control",
		})
		if err != nil {
			// Isolated: one symbol's failure must not stop the rest.
			log.Printf("[risk] exit for %s failed: %v", rec.Symbol, err)
			continue
		}
		if order != nil {
			placed = append(placed, *order)
		}
	}
	return placed
}
