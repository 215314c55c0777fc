package model

import "strings"

// OrderStatus is the typed order lifecycle state. Broker gateways report
// status as free text with undocumented variants; ParseOrderStatus maps that
// vocabulary into this enum and everything unmapped lands on StatusUnknown
// rather than silently falling through.
type OrderStatus int

const (
	StatusUnknown OrderStatus = iota
	StatusNew
	StatusSubmitted
	StatusPartiallyFilled
	StatusFilled
	StatusRejected
	StatusExpired
	StatusCancelled
)

func (s OrderStatus) String() string {
	switch s {
	case StatusNew:
		return "NEW"
	case StatusSubmitted:
		return "SUBMITTED"
	case StatusPartiallyFilled:
		return "PARTIALLY_FILLED"
	case StatusFilled:
		return "FILLED"
	case StatusRejected:
		return "REJECTED"
	case StatusExpired:
		return "EXPIRED"
	case StatusCancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether the status is final.
func (s OrderStatus) Terminal() bool {
	switch s {
	case StatusFilled, StatusRejected, StatusExpired, StatusCancelled:
		return true
	default:
		return false
	}
}

// Active reports whether the order is accepted and still working
// (NEW / SUBMITTED / PENDING-like / partially filled).
func (s OrderStatus) Active() bool {
	switch s {
	case StatusNew, StatusSubmitted, StatusPartiallyFilled:
		return true
	default:
		return false
	}
}

// ParseOrderStatus maps a raw gateway status string to the typed enum.
// Matching is case-insensitive and substring-tolerant ("HK_Filled",
// "PendingSubmit", "Expired (GTC)" all resolve). Order of checks matters:
// PARTIALLY_FILLED contains FILLED, CANCELLED must win over substrings of
// longer variants.
func ParseOrderStatus(raw string) OrderStatus {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return StatusUnknown
	}
	switch {
	case strings.Contains(s, "PARTIAL"):
		return StatusPartiallyFilled
	case strings.Contains(s, "FILLED"):
		return StatusFilled
	case strings.Contains(s, "CANCEL"):
		return StatusCancelled
	case strings.Contains(s, "REJECT"):
		return StatusRejected
	case strings.Contains(s, "EXPIRE"):
		return StatusExpired
	case strings.Contains(s, "SUBMIT"), strings.Contains(s, "PENDING"):
		return StatusSubmitted
	case strings.Contains(s, "NEW"), strings.Contains(s, "INITIAL"):
		return StatusNew
	default:
		return StatusUnknown
	}
}
