package notification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tiger-trader/internal/model"
)

type recordingNotifier struct {
	alerts []Alert
	err    error
}

func (r *recordingNotifier) Send(ctx context.Context, alert Alert) error {
	r.alerts = append(r.alerts, alert)
	return r.err
}

func TestFanout_DeliversToAllBackends(t *testing.T) {
	a := &recordingNotifier{}
	b := &recordingNotifier{err: errors.New("channel down")}
	c := &recordingNotifier{}
	f := NewFanout(a, b, c)

	err := f.Send(context.Background(), Alert{Level: AlertInfo, Title: "t", Message: "m"})
	if err == nil {
		t.Error("fanout swallowed the backend failure")
	}
	for i, r := range []*recordingNotifier{a, b, c} {
		if len(r.alerts) != 1 {
			t.Errorf("backend %d got %d alerts, want 1", i, len(r.alerts))
		}
	}
}

func TestOrderFilledAlert(t *testing.T) {
	alert := OrderFilled(model.Order{
		ID: "ord-1", Symbol: "00700", Action: model.ActionBuy,
		Quantity: 100, Price: 321.4, Venue: model.VenuePrimary,
	})
	if alert.Level != AlertInfo {
		t.Errorf("level = %s", alert.Level)
	}
	for _, want := range []string{"00700", "BUY", "100", "321.400"} {
		if !strings.Contains(alert.Message, want) {
			t.Errorf("message %q missing %q", alert.Message, want)
		}
	}
}

func TestVenueFallbackAlert(t *testing.T) {
	alert := VenueFallback("00388", "80388")
	if alert.Level != AlertWarning {
		t.Errorf("level = %s, want WARNING", alert.Level)
	}
	if !strings.Contains(alert.Message, "80388") {
		t.Errorf("message %q missing fallback symbol", alert.Message)
	}
}

func TestWebhookNotifier_PostsJSON(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL)
	err := n.Send(context.Background(), Alert{Level: AlertCritical, Title: "Cycle failed", Message: "boom"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got["level"] != "CRITICAL" || got["title"] != "Cycle failed" || got["source"] != "tiger-trader" {
		t.Errorf("payload = %v", got)
	}
}

func TestWebhookNotifier_Non2xxFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL)
	if err := n.Send(context.Background(), Alert{Level: AlertInfo}); err == nil {
		t.Fatal("502 response treated as success")
	}
}
