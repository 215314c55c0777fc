// Package api serves the dashboard HTTP surface: the tiered portfolio
// summary, positions and performance read from the position log, trade
// history from sqlite, a websocket event stream, and TOTP-guarded control
// endpoints that flip the cross-process pause flag.
package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/pquerna/otp/totp"

	"tiger-trader/internal/model"
	"tiger-trader/internal/poslog"
	"tiger-trader/internal/summary"
)

const (
	defaultPerformanceDays = 7
	defaultTradeLimit      = 50
	broadcastInterval      = 10 * time.Second
)

// TradeReader serves the dashboard trade history.
type TradeReader interface {
	RecentTrades(ctx context.Context, limit int) ([]model.TradeRecord, error)
}

// PauseControl flips and reads the trading pause flag.
type PauseControl interface {
	SetPaused(ctx context.Context, paused bool) error
	Paused(ctx context.Context) bool
}

// PositionSource serves position and history queries from the position log.
type PositionSource interface {
	Latest() (*poslog.Snapshot, error)
	History(days int) ([]model.PortfolioSnapshot, error)
	PositionHistory(symbol string, days int) ([]poslog.Snapshot, error)
}

// Server is the dashboard API server.
type Server struct {
	summary *summary.Resolver
	posLog  PositionSource
	trades  TradeReader
	pause   PauseControl
	hub     *Hub

	totpSecret string // empty disables the control endpoints

	srv *http.Server
}

// Config wires the server. Any of PosLog, Trades and Pause may be nil; the
// matching endpoints then answer 503.
type Config struct {
	Addr       string
	Summary    *summary.Resolver
	PosLog     PositionSource
	Trades     TradeReader
	Pause      PauseControl
	TOTPSecret string
}

func NewServer(cfg Config) *Server {
	s := &Server{
		summary:    cfg.Summary,
		posLog:     cfg.PosLog,
		trades:     cfg.Trades,
		pause:      cfg.Pause,
		hub:        NewHub(),
		totpSecret: cfg.TOTPSecret,
	}
	s.srv = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	return s
}

// Routes builds the handler mux. Exposed for tests.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/summary", s.handleSummary)
	mux.HandleFunc("/api/positions", s.handlePositions)
	mux.HandleFunc("/api/performance", s.handlePerformance)
	mux.HandleFunc("/api/position_history", s.handlePositionHistory)
	mux.HandleFunc("/api/trades", s.handleTrades)
	mux.HandleFunc("/api/control/pause", s.guarded(s.handlePause(true)))
	mux.HandleFunc("/api/control/resume", s.guarded(s.handlePause(false)))
	mux.HandleFunc("/ws", s.hub.ServeWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return mux
}

// Start runs the server and the periodic websocket broadcast until ctx is
// cancelled.
func (s *Server) Start(ctx context.Context) error {
	go s.broadcastLoop(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.srv.Shutdown(shutdownCtx)
	}()
	log.Printf("[api] dashboard listening on %s", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) broadcastLoop(ctx context.Context) {
	ticker := time.NewTicker(broadcastInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.hub.ClientCount() == 0 {
				continue
			}
			s.hub.Broadcast("summary", s.summary.Resolve(ctx))
			if s.posLog != nil {
				if snap, err := s.posLog.Latest(); err == nil && snap != nil {
					s.hub.Broadcast("positions", snap.Positions)
				}
			}
		}
	}
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.summary.Resolve(r.Context()))
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	if s.posLog == nil {
		writeError(w, http.StatusServiceUnavailable, "position log not configured")
		return
	}
	snap, err := s.posLog.Latest()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if snap == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"positions": []model.Position{}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"timestamp": snap.Timestamp,
		"positions": snap.Positions,
	})
}

func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	if s.posLog == nil {
		writeError(w, http.StatusServiceUnavailable, "position log not configured")
		return
	}
	days := queryInt(r, "days", defaultPerformanceDays)
	history, err := s.posLog.History(days)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"days": days, "history": history})
}

func (s *Server) handlePositionHistory(w http.ResponseWriter, r *http.Request) {
	if s.posLog == nil {
		writeError(w, http.StatusServiceUnavailable, "position log not configured")
		return
	}
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	days := queryInt(r, "days", defaultPerformanceDays)
	history, err := s.posLog.PositionHistory(model.NormalizeSymbol(symbol), days)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"symbol": symbol, "history": history})
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	if s.trades == nil {
		writeError(w, http.StatusServiceUnavailable, "trade store not configured")
		return
	}
	limit := queryInt(r, "limit", defaultTradeLimit)
	trades, err := s.trades.RecentTrades(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"trades": trades})
}

func (s *Server) handlePause(paused bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "POST required")
			return
		}
		if s.pause == nil {
			writeError(w, http.StatusServiceUnavailable, "pause control not configured")
			return
		}
		if err := s.pause.SetPaused(r.Context(), paused); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		log.Printf("[api] trading paused=%v", paused)
		s.hub.Broadcast("control", map[string]bool{"paused": paused})
		writeJSON(w, http.StatusOK, map[string]bool{"paused": paused})
	}
}

// guarded requires a valid TOTP code in the X-TOTP-Code header. With no
// secret configured the endpoint is disabled outright rather than open.
func (s *Server) guarded(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.totpSecret == "" {
			writeError(w, http.StatusForbidden, "control endpoints disabled")
			return
		}
		code := r.Header.Get("X-TOTP-Code")
		if code == "" || !totp.Validate(code, s.totpSecret) {
			writeError(w, http.StatusUnauthorized, "invalid TOTP code")
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[api] encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
