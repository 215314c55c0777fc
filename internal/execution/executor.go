// Package execution places orders through the broker gateway and manages
// their immediate lifecycle: market-to-limit conversion, one-shot status
// verification, and the single-retry RMB-counter fallback for dual-counter
// HK listings.
package execution

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"tiger-trader/internal/metrics"
	"tiger-trader/internal/model"
	"tiger-trader/internal/notification"
	"tiger-trader/internal/tick"
)

// priceBuffer is the limit-price cushion applied when converting a market
// intent into a marketable limit: BUY pays up 2%, SELL gives up 2%.
const priceBuffer = 0.02

// defaultVerifyDelay is how long to wait after placement before the single
// status poll, covering gateway propagation.
const defaultVerifyDelay = 2 * time.Second

// Limiter gates metered gateway actions. Satisfied by ratelimit.Limiter.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Manager is the order lifecycle manager. Recorder, notifier, limiter and
// metrics are optional collaborators attached via Options.
type Manager struct {
	gateway  model.OrderGateway
	quotes   model.QuoteProvider
	recorder model.TradeRecorder
	notifier notification.Notifier
	limiter  Limiter
	metrics  *metrics.Metrics

	verifyDelay time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

// Option configures a Manager.
type Option func(*Manager)

// WithRecorder attaches a trade recorder.
func WithRecorder(r model.TradeRecorder) Option { return func(m *Manager) { m.recorder = r } }

// WithNotifier attaches an alert notifier.
func WithNotifier(n notification.Notifier) Option { return func(m *Manager) { m.notifier = n } }

// WithLimiter gates placements on a rate limiter.
func WithLimiter(l Limiter) Option { return func(m *Manager) { m.limiter = l } }

// WithMetrics attaches Prometheus metrics.
func WithMetrics(mm *metrics.Metrics) Option { return func(m *Manager) { m.metrics = mm } }

// WithVerifyDelay overrides the delay before the verification poll.
func WithVerifyDelay(d time.Duration) Option { return func(m *Manager) { m.verifyDelay = d } }

// New creates an order lifecycle manager.
func New(gateway model.OrderGateway, quotes model.QuoteProvider, opts ...Option) *Manager {
	m := &Manager{
		gateway:     gateway,
		quotes:      quotes,
		verifyDelay: defaultVerifyDelay,
		sleep:       sleepCtx,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Place executes one trade decision.
//
// HOLD returns (nil, nil) with no gateway call. A non-positive quantity
// returns ErrInvalidOrderRequest with no gateway call. A market intent
// (price <= 0) is converted to a marketable limit when a reference price is
// available, otherwise submitted as a raw market order. The placed order is
// verified once after a fixed delay; on REJECTED/EXPIRED an eligible HK
// symbol gets exactly one fallback attempt on its RMB counter.
//
// The returned order is the last one placed (the fallback order when the
// fallback path ran), carrying its verified status.
func (m *Manager) Place(ctx context.Context, dec model.Decision) (*model.Order, error) {
	if dec.Action == model.ActionHold {
		log.Printf("[executor] action is HOLD for %s, no order placed", dec.Symbol)
		return nil, nil
	}
	if dec.Action != model.ActionBuy && dec.Action != model.ActionSell {
		return nil, fmt.Errorf("%w: unknown action %q", model.ErrInvalidOrderRequest, dec.Action)
	}
	if dec.Quantity <= 0 {
		log.Printf("[executor] invalid quantity %d for %s, no order placed", dec.Quantity, dec.Symbol)
		return nil, fmt.Errorf("%w: quantity %d", model.ErrInvalidOrderRequest, dec.Quantity)
	}

	// Market-order conversion on the primary counter.
	price := dec.Price
	if price <= 0 {
		price = m.convertToLimit(ctx, dec.Symbol, dec.Action)
	}

	order, err := m.submitAndVerify(ctx, dec, dec.Symbol, price, model.VenuePrimary)
	if err != nil {
		return nil, err
	}

	if order.Status != model.StatusRejected && order.Status != model.StatusExpired {
		return order, nil
	}
	m.countRejection()

	rmbSymbol, eligible := model.RMBCounterSymbol(dec.Symbol)
	if !eligible {
		log.Printf("[executor] %s failed with status %s, no fallback counter available",
			dec.Symbol, order.RawStatus)
		return order, nil
	}

	// Single-shot venue fallback: one retry on the RMB counter, never
	// recursive.
	log.Printf("[executor] fallback: retrying %s on RMB counter %s", dec.Symbol, rmbSymbol)
	m.notify(ctx, notification.VenueFallback(dec.Symbol, rmbSymbol))
	if m.metrics != nil {
		m.metrics.OrderFallbacks.Inc()
	}

	fbPrice := m.convertToLimit(ctx, rmbSymbol, dec.Action)
	fbOrder, err := m.submitAndVerify(ctx, dec, rmbSymbol, fbPrice, model.VenueRMBCounter)
	if err != nil {
		log.Printf("[executor] fallback placement for %s failed: %v", rmbSymbol, err)
		return order, nil
	}
	return fbOrder, nil
}

// convertToLimit fetches a reference price and computes the buffered,
// tick-quantized limit. Returns 0 (raw market order, degraded path) when no
// reference price is available.
func (m *Manager) convertToLimit(ctx context.Context, symbol string, action model.Action) float64 {
	ref, err := m.quotes.GetLatestPrice(ctx, symbol)
	if err != nil || ref <= 0 {
		log.Printf("[executor] no reference price for %s (%v), proceeding with raw market order", symbol, err)
		return 0
	}

	raw := ref * (1 + priceBuffer)
	if action == model.ActionSell {
		raw = ref * (1 - priceBuffer)
	}
	limit := tick.QuantizeForSymbol(raw, symbol)
	log.Printf("[executor] converted market intent for %s: ref %.4f -> limit %.4f", symbol, ref, limit)
	return limit
}

// submitAndVerify places one order and polls its status exactly once after
// the fixed delay.
func (m *Manager) submitAndVerify(ctx context.Context, dec model.Decision, symbol string, price float64, venue model.Venue) (*model.Order, error) {
	if m.limiter != nil {
		if err := m.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req := model.OrderRequest{
		Symbol:     symbol,
		Action:     dec.Action,
		Quantity:   dec.Quantity,
		LimitPrice: price,
		Currency:   model.CurrencyForSymbol(symbol),
		ClientRef:  uuid.NewString(),
	}

	gw, err := m.gateway.PlaceOrder(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: place %s %s: %v", model.ErrProviderUnavailable, dec.Action, symbol, err)
	}
	order, err := model.OrderFromGateway(gw, venue, time.Now())
	if err != nil {
		return nil, err
	}
	order.ClientRef = req.ClientRef
	order.CreatedAt = time.Now()

	log.Printf("[executor] order placed: id=%s %s %s qty=%d limit=%.4f venue=%s",
		order.ID, dec.Action, symbol, dec.Quantity, price, venue)
	if m.metrics != nil {
		m.metrics.OrdersPlaced.WithLabelValues(string(dec.Action), string(venue)).Inc()
	}

	// Placement happens-before its one status check.
	if err := m.sleep(ctx, m.verifyDelay); err != nil {
		return &order, err
	}
	m.verify(ctx, &order)

	m.record(ctx, dec, &order)
	return &order, nil
}

// verify polls the order status once and classifies it. Non-terminal states
// are informational only; nothing is retried within the cycle.
func (m *Manager) verify(ctx context.Context, order *model.Order) {
	gw, err := m.gateway.GetOrder(ctx, order.ID)
	if err != nil {
		log.Printf("[executor] could not fetch status for order %s: %v", order.ID, err)
		return
	}
	order.Status = model.ParseOrderStatus(gw.Status)
	order.RawStatus = gw.Status
	order.FilledQty = gw.FilledQty
	order.UpdatedAt = time.Now()

	if m.metrics != nil {
		m.metrics.VerifyOutcomes.WithLabelValues(order.Status.String()).Inc()
	}

	switch {
	case order.Status == model.StatusFilled:
		log.Printf("[executor] order %s filled: %d/%d", order.ID, order.FilledQty, order.Quantity)
		m.notify(ctx, notification.OrderFilled(*order))
	case order.Status.Active():
		log.Printf("[executor] order %s is active and waiting to be filled (status %q)", order.ID, gw.Status)
	case order.Status == model.StatusRejected || order.Status == model.StatusExpired:
		log.Printf("[executor] order %s failed with status %q", order.ID, gw.Status)
	default:
		// Unmapped or cancelled: log the raw status verbatim, take no
		// further action this cycle.
		log.Printf("[executor] order %s state: %q", order.ID, gw.Status)
	}
}

func (m *Manager) record(ctx context.Context, dec model.Decision, order *model.Order) {
	if m.recorder == nil {
		return
	}
	rec := model.TradeRecord{
		Symbol:    order.Symbol,
		Action:    order.Action,
		Quantity:  order.Quantity,
		Price:     order.Price,
		Reason:    dec.Reason,
		OrderID:   order.ID,
		Status:    order.Status.String(),
		Timestamp: time.Now(),
	}
	if err := m.recorder.RecordTrade(ctx, rec); err != nil {
		log.Printf("[executor] trade record failed for order %s: %v", order.ID, err)
	}
}

func (m *Manager) notify(ctx context.Context, alert notification.Alert) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Send(ctx, alert); err != nil {
		log.Printf("[executor] notify failed: %v", err)
	}
}

func (m *Manager) countRejection() {
	if m.metrics != nil {
		m.metrics.OrderRejections.Inc()
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
