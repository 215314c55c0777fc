package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"tiger-trader/internal/model"
)

// DeepSeekAgent implements DecisionProvider over an OpenAI-compatible
// chat-completions endpoint.
type DeepSeekAgent struct {
	baseURL string
	apiKey  string
	mdl     string
	client  *http.Client
}

// Config configures the DeepSeek client.
type Config struct {
	BaseURL string // e.g. "https://api.deepseek.com"
	APIKey  string
	Model   string // e.g. "deepseek-reasoner"
	Timeout time.Duration
}

// NewDeepSeekAgent creates a provider client.
func NewDeepSeekAgent(cfg Config) *DeepSeekAgent {
	if cfg.Model == "" {
		cfg.Model = "deepseek-reasoner"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &DeepSeekAgent{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		mdl:     cfg.Model,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// complete sends one prompt and returns the raw completion text.
func (a *DeepSeekAgent) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       a.mdl,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.1,
	})
	if err != nil {
		return "", fmt.Errorf("deepseek: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("deepseek: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: deepseek: %v", model.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: deepseek: status %d", model.ErrProviderUnavailable, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("deepseek: read response: %w", err)
	}

	var cr chatResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrMalformedResponse, err)
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", model.ErrMalformedResponse)
	}
	return cr.Choices[0].Message.Content, nil
}

// SelectTicker picks one symbol from the configured universe. Any failure
// falls back to FallbackSymbol.
func (a *DeepSeekAgent) SelectTicker(ctx context.Context, strategy string, holdings []model.Position) model.TickerSelection {
	holdingsCtx := "No current holdings."
	if len(holdings) > 0 {
		parts := make([]string, 0, len(holdings))
		for _, h := range holdings {
			parts = append(parts, fmt.Sprintf("%s (%d shares)", h.Symbol, h.Quantity))
		}
		holdingsCtx = "Current holdings: " + strings.Join(parts, ", ")
	}

	prompt := fmt.Sprintf(`You are an expert portfolio manager.
Strategy: %s
Universe constraint: HSI, HSCEI, CSI 300 constituents and index ETFs.
%s

Select the SINGLE best ticker matching the strategy. If unsure, pick the
Tracker Fund ETF '2800'.

Return ONLY a JSON object:
{"symbol": "TICKER", "company_name": "NAME", "reason": "why"}`, strategy, holdingsCtx)

	raw, err := a.complete(ctx, prompt)
	if err != nil {
		log.Printf("[agent] ticker selection failed: %v", err)
		return model.TickerSelection{Symbol: FallbackSymbol, Reason: "fallback due to provider error"}
	}

	var sel model.TickerSelection
	if err := decodeObject(raw, &sel); err != nil || sel.Symbol == "" {
		log.Printf("[agent] ticker selection unparseable: %v", err)
		return model.TickerSelection{Symbol: FallbackSymbol, Reason: "fallback due to malformed response"}
	}
	return sel
}

// AnalyzeMarket produces the BUY/SELL/HOLD decision for a symbol. Any
// failure falls back to HOLD.
func (a *DeepSeekAgent) AnalyzeMarket(ctx context.Context, in AnalysisInput) model.Decision {
	hold := model.Decision{Action: model.ActionHold, Symbol: in.Symbol, Source: "analyst"}

	daily, _ := json.Marshal(tailBars(in.DailyBars, 14))
	weekly, _ := json.Marshal(tailBars(in.WeeklyBars, 14))
	brief, _ := json.Marshal(in.Brief)

	posCtx := "None"
	if in.Position != nil {
		b, _ := json.Marshal(in.Position)
		posCtx = string(b)
	}
	cashCtx := "No cash info available."
	if cur := model.CurrencyForSymbol(in.Symbol); in.Funds != nil {
		if f, ok := in.Funds[cur]; ok {
			cashCtx = fmt.Sprintf("Available cash (%s): %.2f", cur, f.AvailableForTrade)
		}
	}

	prompt := fmt.Sprintf(`You are a trading analyst analyzing stock: %s

USER STRATEGY: %s
CURRENT POSITION: %s
AVAILABLE FUNDS: %s
FUNDAMENTALS: %s
DAILY BARS (last 14): %s
WEEKLY BARS (last 14): %s

Decide whether to BUY, SELL or HOLD. Respond with ONLY a JSON object:
{"action": "BUY", "symbol": "%s", "price": 0, "quantity": 10, "reason": "..."}

Rules: action is BUY, SELL or HOLD; price 0 means market order; quantity
must not exceed available cash.`,
		in.Symbol, in.Strategy, posCtx, cashCtx, brief, daily, weekly, in.Symbol)

	raw, err := a.complete(ctx, prompt)
	if err != nil {
		log.Printf("[agent] analysis failed for %s: %v", in.Symbol, err)
		hold.Reason = "provider error"
		return hold
	}

	var dec model.Decision
	if err := decodeObject(raw, &dec); err != nil {
		log.Printf("[agent] analysis unparseable for %s: %v", in.Symbol, err)
		hold.Reason = "malformed response"
		return hold
	}
	dec.Action = model.Action(strings.ToUpper(string(dec.Action)))
	if dec.Action != model.ActionBuy && dec.Action != model.ActionSell && dec.Action != model.ActionHold {
		log.Printf("[agent] analysis returned unknown action %q for %s", dec.Action, in.Symbol)
		hold.Reason = "unknown action"
		return hold
	}
	if dec.Symbol == "" {
		dec.Symbol = in.Symbol
	}
	dec.Source = "analyst"
	return dec
}

// ManagePositions returns risk-control exit recommendations. Any failure
// returns an empty list.
func (a *DeepSeekAgent) ManagePositions(ctx context.Context, holdings []model.Position) []model.RiskRecommendation {
	if len(holdings) == 0 {
		return nil
	}
	b, _ := json.Marshal(holdings)

	prompt := fmt.Sprintf(`You are a risk manager reviewing current holdings:
%s

For each holding decide whether part of the position should be SOLD to
control risk. Only recommend action where warranted.

Return ONLY a JSON list (possibly empty):
[{"action": "SELL", "symbol": "TICKER", "percentage": 0.5, "reason": "..."}]

percentage is the fraction of the current quantity to exit, in (0, 1].`, b)

	raw, err := a.complete(ctx, prompt)
	if err != nil {
		log.Printf("[agent] position management failed: %v", err)
		return nil
	}
	var recs []model.RiskRecommendation
	if err := decodeList(raw, &recs); err != nil {
		log.Printf("[agent] position management unparseable: %v", err)
		return nil
	}
	return recs
}

// ManagePendingOrders returns one KEEP/CANCEL/MODIFY verdict per open
// order. Any failure returns an empty list (the reconciler treats missing
// verdicts as implicit KEEP).
func (a *DeepSeekAgent) ManagePendingOrders(ctx context.Context, orders []PendingOrderContext) []model.PendingAction {
	if len(orders) == 0 {
		return nil
	}

	type orderCtx struct {
		ID          string       `json:"id"`
		Symbol      string       `json:"symbol"`
		Action      model.Action `json:"action"`
		LimitPrice  float64      `json:"limit_price"`
		Filled      int64        `json:"filled"`
		Quantity    int64        `json:"quantity"`
		Status      string       `json:"status"`
		MarketPrice interface{}  `json:"market_price"`
	}
	octx := make([]orderCtx, 0, len(orders))
	for _, o := range orders {
		var mp interface{} = "Unknown"
		if o.PriceKnown {
			mp = o.MarketPrice
		}
		octx = append(octx, orderCtx{
			ID:          o.Order.ID,
			Symbol:      o.Order.Symbol,
			Action:      o.Order.Action,
			LimitPrice:  o.Order.Price,
			Filled:      o.Order.FilledQty,
			Quantity:    o.Order.Quantity,
			Status:      o.Order.RawStatus,
			MarketPrice: mp,
		})
	}
	b, _ := json.Marshal(octx)

	prompt := fmt.Sprintf(`You are a trading order manager reviewing pending orders:
%s

Compare limit_price with market_price. If the market has moved away,
consider MODIFY or CANCEL; otherwise KEEP.

Return ONLY a JSON list with one entry per order:
[{"order_id": "ID", "action": "KEEP", "new_price": 0, "reason": "..."}]

action is KEEP, CANCEL or MODIFY; new_price is required if MODIFY.`, b)

	raw, err := a.complete(ctx, prompt)
	if err != nil {
		log.Printf("[agent] pending-order management failed: %v", err)
		return nil
	}
	var actions []model.PendingAction
	if err := decodeList(raw, &actions); err != nil {
		log.Printf("[agent] pending-order management unparseable: %v", err)
		return nil
	}
	return actions
}

func tailBars(bars []model.Bar, n int) []model.Bar {
	if len(bars) <= n {
		return bars
	}
	return bars[len(bars)-n:]
}
