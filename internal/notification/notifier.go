// Package notification delivers trading alerts to external channels
// (Telegram, webhooks) and to the process log.
package notification

import (
	"context"
	"fmt"
	"log"

	"tiger-trader/internal/model"
)

// AlertLevel represents the severity of an alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)

// Alert represents a notification to be sent.
type Alert struct {
	Level   AlertLevel `json:"level"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	// Send delivers an alert. Returns error if delivery fails.
	Send(ctx context.Context, alert Alert) error
}

// OrderFilled builds the alert for a confirmed fill.
func OrderFilled(order model.Order) Alert {
	return Alert{
		Level: AlertInfo,
		Title: "Order filled",
		Message: fmt.Sprintf("%s %s x%d @ %.3f (%s, %s)",
			order.Action, order.Symbol, order.Quantity, order.Price, order.Venue, order.ID),
	}
}

// VenueFallback builds the alert for an RMB-counter retry.
func VenueFallback(original, fallback string) Alert {
	return Alert{
		Level:   AlertWarning,
		Title:   "Venue fallback",
		Message: fmt.Sprintf("%s rejected, retrying on RMB counter %s", original, fallback),
	}
}

// LogNotifier writes alerts to the process log. Used in development and as
// the default when no channel is configured.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	log.Printf("[notify] [%s] %s: %s", alert.Level, alert.Title, alert.Message)
	return nil
}

// Fanout sends every alert to all configured backends. A backend failure is
// logged and does not block the others.
type Fanout struct {
	backends []Notifier
}

func NewFanout(backends ...Notifier) *Fanout {
	return &Fanout{backends: backends}
}

func (f *Fanout) Send(ctx context.Context, alert Alert) error {
	var lastErr error
	for _, b := range f.backends {
		if err := b.Send(ctx, alert); err != nil {
			log.Printf("[notify] backend %T failed: %v", b, err)
			lastErr = err
		}
	}
	return lastErr
}
