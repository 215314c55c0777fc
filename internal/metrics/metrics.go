// Package metrics exposes Prometheus metrics and a health endpoint for the
// trading loop.
package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the trading loop.
type Metrics struct {
	CyclesTotal     prometheus.Counter
	CycleErrors     prometheus.Counter
	CycleDuration   prometheus.Histogram
	MarketOpenGauge *prometheus.GaugeVec // labels: market

	OrdersPlaced    *prometheus.CounterVec // labels: action, venue
	OrderFallbacks  prometheus.Counter
	OrderRejections prometheus.Counter
	VerifyOutcomes  *prometheus.CounterVec // labels: status

	RateLimitDenials prometheus.Counter
	RateLimitWaits   prometheus.Histogram

	RiskExits prometheus.Counter

	PendingActions *prometheus.CounterVec // labels: action
	PendingSkipped prometheus.Counter     // MODIFY without new_price

	SummaryTierUsed *prometheus.CounterVec // labels: source

	ProviderCalls    *prometheus.CounterVec // labels: op
	ProviderFailures *prometheus.CounterVec // labels: op
}

// NewMetrics registers and returns all Prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trader_cycles_total",
			Help: "Total control loop cycles started",
		}),
		CycleErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trader_cycle_errors_total",
			Help: "Cycles that escaped to the loop boundary with an error",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "trader_cycle_duration_seconds",
			Help:    "Wall time of one cycle excluding the cooldown sleep",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		MarketOpenGauge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "trader_market_open",
			Help: "1 when the market domain reports open",
		}, []string{"market"}),

		OrdersPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trader_orders_placed_total",
			Help: "Orders submitted to the gateway",
		}, []string{"action", "venue"}),
		OrderFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trader_order_fallbacks_total",
			Help: "RMB-counter fallback retries attempted",
		}),
		OrderRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trader_order_rejections_total",
			Help: "Orders rejected or expired at verification",
		}),
		VerifyOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trader_order_verify_outcomes_total",
			Help: "Order status observed at the single verification poll",
		}, []string{"status"}),

		RateLimitDenials: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trader_rate_limit_denials_total",
			Help: "Non-blocking rate limit checks that were denied",
		}),
		RateLimitWaits: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "trader_rate_limit_wait_seconds",
			Help:    "Time spent blocked waiting for a rate limit slot",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),

		RiskExits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trader_risk_exits_total",
			Help: "Risk-control exit orders placed",
		}),

		PendingActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trader_pending_actions_total",
			Help: "Reconciliation verdicts enforced on open orders",
		}, []string{"action"}),
		PendingSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trader_pending_skipped_total",
			Help: "Invalid reconciliation verdicts skipped (MODIFY without price)",
		}),

		SummaryTierUsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trader_summary_tier_used_total",
			Help: "Which tier served a portfolio summary query",
		}, []string{"source"}),

		ProviderCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trader_provider_calls_total",
			Help: "Decision provider calls by operation",
		}, []string{"op"}),
		ProviderFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trader_provider_failures_total",
			Help: "Decision provider calls that fell back to a safe default",
		}, []string{"op"}),
	}

	prometheus.MustRegister(
		m.CyclesTotal, m.CycleErrors, m.CycleDuration, m.MarketOpenGauge,
		m.OrdersPlaced, m.OrderFallbacks, m.OrderRejections, m.VerifyOutcomes,
		m.RateLimitDenials, m.RateLimitWaits,
		m.RiskExits,
		m.PendingActions, m.PendingSkipped,
		m.SummaryTierUsed,
		m.ProviderCalls, m.ProviderFailures,
	)
	return m
}

// HealthStatus tracks dependency health for the /healthz endpoint.
type HealthStatus struct {
	mu sync.RWMutex

	StartedAt       time.Time
	LastCycleAt     time.Time
	RedisConnected  bool
	RedisLatencyMs  float64
	SQLiteOK        bool
	SQLiteLatencyMs float64
	LastCheckAt     time.Time
}

// NewHealthStatus creates health tracking state.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{StartedAt: time.Now()}
}

// MarkCycle records that a cycle just completed.
func (h *HealthStatus) MarkCycle() {
	h.mu.Lock()
	h.LastCycleAt = time.Now()
	h.mu.Unlock()
}

// CheckRedis pings Redis and records latency + health.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// CheckSQLite runs a trivial query and records latency + health.
func (h *HealthStatus) CheckSQLite(ctx context.Context, db *sql.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.SQLiteOK = err == nil
	h.SQLiteLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, sqlDB *sql.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				if rdb != nil {
					h.CheckRedis(probeCtx, rdb)
				}
				if sqlDB != nil {
					h.CheckSQLite(probeCtx, sqlDB)
				}
				cancel()
			}
		}
	}()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overallStatus := "healthy"
	httpCode := http.StatusOK
	if !h.SQLiteOK {
		overallStatus = "degraded"
		httpCode = http.StatusServiceUnavailable
	}

	lastCycle := ""
	if !h.LastCycleAt.IsZero() {
		lastCycle = time.Since(h.LastCycleAt).Round(time.Second).String()
	}

	status := struct {
		Status          string  `json:"status"`
		Uptime          string  `json:"uptime"`
		LastCycleAge    string  `json:"last_cycle_age"`
		RedisConnected  bool    `json:"redis_connected"`
		RedisLatencyMs  float64 `json:"redis_latency_ms"`
		SQLiteOK        bool    `json:"sqlite_ok"`
		SQLiteLatencyMs float64 `json:"sqlite_latency_ms"`
		LastCheckAt     string  `json:"last_check_at"`
	}{
		Status:          overallStatus,
		Uptime:          time.Since(h.StartedAt).Round(time.Second).String(),
		LastCycleAge:    lastCycle,
		RedisConnected:  h.RedisConnected,
		RedisLatencyMs:  h.RedisLatencyMs,
		SQLiteOK:        h.SQLiteOK,
		SQLiteLatencyMs: h.SQLiteLatencyMs,
		LastCheckAt:     h.LastCheckAt.Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	health *HealthStatus
	addr   string
	srv    *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		health: health,
		addr:   addr,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
