// Package reconcile applies keep/cancel/modify verdicts to currently open
// orders.
//
// Policy notes: an order id missing from the decision provider's output is
// an implicit KEEP, and a MODIFY without a new price is invalid and skipped,
// never defaulted. Enforcement is isolated per order; one failure does not
// block the rest.
package reconcile

import (
	"context"
	"log"
	"time"

	"tiger-trader/internal/agent"
	"tiger-trader/internal/metrics"
	"tiger-trader/internal/model"
	"tiger-trader/internal/tick"
)

// Reconciler drives one reconciliation pass over the open orders.
type Reconciler struct {
	gateway  model.OrderGateway
	quotes   model.QuoteProvider
	provider agent.DecisionProvider
	metrics  *metrics.Metrics
}

// New creates a reconciler. metrics may be nil.
func New(gateway model.OrderGateway, quotes model.QuoteProvider, provider agent.DecisionProvider, m *metrics.Metrics) *Reconciler {
	return &Reconciler{gateway: gateway, quotes: quotes, provider: provider, metrics: m}
}

// Run fetches the open orders, asks the decision provider for a verdict per
// order, and enforces the verdicts. Returns the number of orders reviewed.
func (r *Reconciler) Run(ctx context.Context) (int, error) {
	raw, err := r.gateway.GetOpenOrders(ctx)
	if err != nil {
		return 0, err
	}
	if len(raw) == 0 {
		return 0, nil
	}

	orders := make([]model.Order, 0, len(raw))
	for _, g := range raw {
		o, err := model.OrderFromGateway(g, model.VenuePrimary, time.Now())
		if err != nil {
			log.Printf("[reconcile] skipping malformed gateway order: %v", err)
			continue
		}
		orders = append(orders, o)
	}
	if len(orders) == 0 {
		return 0, nil
	}
	log.Printf("[reconcile] managing %d pending orders", len(orders))

	// Fresh reference price per distinct symbol; an explicit unavailable
	// marker when the quote fails.
	prices := make(map[string]agent.PendingOrderContext, len(orders))
	octx := make([]agent.PendingOrderContext, 0, len(orders))
	for _, o := range orders {
		pc, seen := prices[o.Symbol]
		if !seen {
			p, err := r.quotes.GetLatestPrice(ctx, o.Symbol)
			pc = agent.PendingOrderContext{MarketPrice: p, PriceKnown: err == nil && p > 0}
			if !pc.PriceKnown {
				log.Printf("[reconcile] no reference price for %s", o.Symbol)
			}
			prices[o.Symbol] = pc
		}
		pc.Order = o
		octx = append(octx, pc)
	}

	verdicts := r.provider.ManagePendingOrders(ctx, octx)
	byID := make(map[string]model.PendingAction, len(verdicts))
	for _, v := range verdicts {
		byID[v.OrderID] = v
	}

	for _, o := range orders {
		v, ok := byID[o.ID]
		if !ok {
			// Implicit KEEP: orders the provider omitted are left alone.
			log.Printf("[reconcile] order %s: no verdict, implicit KEEP", o.ID)
			r.count("KEEP")
			continue
		}
		r.enforce(ctx, o, v)
	}
	return len(orders), nil
}

// enforce applies one verdict. Failures are logged and isolated.
func (r *Reconciler) enforce(ctx context.Context, o model.Order, v model.PendingAction) {
	switch v.Action {
	case model.PendingKeep:
		log.Printf("[reconcile] order %s: KEEP (%s)", o.ID, v.Reason)
		r.count("KEEP")

	case model.PendingCancel:
		log.Printf("[reconcile] order %s: CANCEL (%s)", o.ID, v.Reason)
		if err := r.gateway.CancelOrder(ctx, o.ID); err != nil {
			log.Printf("[reconcile] cancel %s failed: %v", o.ID, err)
			return
		}
		r.count("CANCEL")

	case model.PendingModify:
		if v.NewPrice <= 0 {
			log.Printf("[reconcile] order %s: MODIFY missing new_price, skipping", o.ID)
			if r.metrics != nil {
				r.metrics.PendingSkipped.Inc()
			}
			return
		}
		price := tick.QuantizeForSymbol(v.NewPrice, o.Symbol)
		log.Printf("[reconcile] order %s: MODIFY price -> %.4f (%s)", o.ID, price, v.Reason)
		if err := r.gateway.ModifyOrder(ctx, o.ID, price); err != nil {
			log.Printf("[reconcile] modify %s failed: %v", o.ID, err)
			return
		}
		r.count("MODIFY")

	default:
		log.Printf("[reconcile] order %s: unknown verdict %q ignored", o.ID, v.Action)
	}
}

func (r *Reconciler) count(action string) {
	if r.metrics != nil {
		r.metrics.PendingActions.WithLabelValues(action).Inc()
	}
}
