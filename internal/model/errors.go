package model

import "errors"

// Error taxonomy shared across components. Callers branch with errors.Is.
var (
	// ErrProviderUnavailable means a data source or gateway is down.
	// Callers degrade to the next fallback or skip the cycle step.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrMalformedResponse means decision-provider output failed its schema.
	// Callers substitute the documented safe default and log.
	ErrMalformedResponse = errors.New("malformed provider response")

	// ErrInvalidOrderRequest means a non-positive quantity or a HOLD was
	// handed to execution. No gateway call is made.
	ErrInvalidOrderRequest = errors.New("invalid order request")

	// ErrRejectedExecution means the broker rejected or expired the order.
	ErrRejectedExecution = errors.New("execution rejected")

	// Boundary adapter failures: mandatory gateway fields missing.
	ErrMissingOrderID = errors.New("gateway order missing order id")
	ErrMissingSymbol  = errors.New("gateway order missing symbol")
)
