package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"tiger-trader/config"
	"tiger-trader/internal/api"
	"tiger-trader/internal/logger"
	"tiger-trader/internal/metrics"
	"tiger-trader/internal/poslog"
	redisstore "tiger-trader/internal/store/redis"
	"tiger-trader/internal/store/sqlite"
	"tiger-trader/internal/summary"
)

// The dashboard runs beside the trader process and only reads its stores
// and logs. With no live brokerage connection the summary resolver starts
// at the database tier.
func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	cfg := config.Load()
	logger.Init("dashboard", slog.LevelInfo)

	store, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("[dashboard] sqlite init failed: %v", err)
	}
	defer store.Close()

	posLog, err := poslog.New(filepath.Join(cfg.LogDir, "positions.log"))
	if err != nil {
		log.Fatalf("[dashboard] position log init failed: %v", err)
	}

	var pause api.PauseControl
	cache, err := redisstore.Open(redisstore.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		log.Printf("[dashboard] redis unavailable, pause control disabled: %v", err)
	} else {
		defer cache.Close()
		pause = cache
	}

	m := metrics.NewMetrics()
	server := api.NewServer(api.Config{
		Addr:       cfg.DashboardAddr,
		Summary:    summary.New(nil, store, posLog, m),
		PosLog:     posLog,
		Trades:     store,
		Pause:      pause,
		TOTPSecret: cfg.TOTPSecret,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Printf("[dashboard] shutdown signal received")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		log.Fatalf("[dashboard] server exited: %v", err)
	}
}
