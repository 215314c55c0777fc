package model

import "time"

// Action represents a trading action.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// Venue identifies the trading counter an order was routed to.
type Venue string

const (
	// VenuePrimary is the default counter for a symbol (HKD for HK
	// listings, USD for US listings).
	VenuePrimary Venue = "PRIMARY"

	// VenueRMBCounter is the alternate RMB-denominated counter for
	// dual-counter HK listings (e.g. 00388 -> 80388).
	VenueRMBCounter Venue = "RMB_COUNTER"
)

// Order is the typed view of a broker order. Gateway responses are converted
// to this shape exactly once at the boundary (see OrderFromGateway); the rest
// of the system never probes loosely typed broker objects.
type Order struct {
	ID        string      `json:"id"`
	Symbol    string      `json:"symbol"`
	Action    Action      `json:"action"`
	Quantity  int64       `json:"quantity"`
	Price     float64     `json:"price"` // limit price; 0 = market intent
	Status    OrderStatus `json:"status"`
	RawStatus string      `json:"raw_status"` // gateway status text, verbatim
	FilledQty int64       `json:"filled_qty"`
	Venue     Venue       `json:"venue"`
	ClientRef string      `json:"client_ref"` // client-side reference (uuid)
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Terminal reports whether the order can no longer change state.
func (o *Order) Terminal() bool {
	return o.Status.Terminal()
}

// GatewayOrder is the loosely typed order shape returned by broker gateways.
// Status is free text and matched tolerantly via ParseOrderStatus.
type GatewayOrder struct {
	ID         string  `json:"id"`
	Symbol     string  `json:"symbol"`
	Action     string  `json:"action"`
	Quantity   int64   `json:"quantity"`
	LimitPrice float64 `json:"limit_price"`
	Status     string  `json:"status"`
	FilledQty  int64   `json:"filled_qty"`
}

// OrderFromGateway converts a gateway order into the typed Order, failing
// fast when mandatory fields are missing instead of letting callers probe
// per use site.
func OrderFromGateway(g GatewayOrder, venue Venue, now time.Time) (Order, error) {
	if g.ID == "" {
		return Order{}, ErrMissingOrderID
	}
	if g.Symbol == "" {
		return Order{}, ErrMissingSymbol
	}
	return Order{
		ID:        g.ID,
		Symbol:    g.Symbol,
		Action:    Action(g.Action),
		Quantity:  g.Quantity,
		Price:     g.LimitPrice,
		Status:    ParseOrderStatus(g.Status),
		RawStatus: g.Status,
		FilledQty: g.FilledQty,
		Venue:     venue,
		UpdatedAt: now,
	}, nil
}
