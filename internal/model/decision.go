package model

// Decision is a trade decision produced by the decision provider.
type Decision struct {
	Action   Action  `json:"action"` // BUY, SELL, HOLD
	Symbol   string  `json:"symbol"`
	Price    float64 `json:"price"` // 0 = market-order intent
	Quantity int64   `json:"quantity"`
	Reason   string  `json:"reason"`
	Source   string  `json:"source"` // provenance tag, e.g. "analyst", "risk_control"
}

// TickerSelection is the decision provider's target-symbol pick.
type TickerSelection struct {
	Symbol      string `json:"symbol"`
	CompanyName string `json:"company_name"`
	Reason      string `json:"reason"`
}

// RiskRecommendation is a position-management recommendation for one holding.
// Percentage is the fraction of the current quantity to exit, (0, 1].
type RiskRecommendation struct {
	Action     Action  `json:"action"`
	Symbol     string  `json:"symbol"`
	Percentage float64 `json:"percentage"`
	Reason     string  `json:"reason"`
}

// PendingActionType is what to do with one open order.
type PendingActionType string

const (
	PendingKeep   PendingActionType = "KEEP"
	PendingCancel PendingActionType = "CANCEL"
	PendingModify PendingActionType = "MODIFY"
)

// PendingAction is the decision provider's verdict on one open order.
// NewPrice is meaningful only when Action is MODIFY; a MODIFY without it is
// invalid and must be skipped, never defaulted.
type PendingAction struct {
	OrderID  string            `json:"order_id"`
	Action   PendingActionType `json:"action"`
	NewPrice float64           `json:"new_price,omitempty"`
	Reason   string            `json:"reason,omitempty"`
}
