package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"tiger-trader/config"
	"tiger-trader/internal/agent"
	"tiger-trader/internal/dataengine"
	"tiger-trader/internal/execution"
	"tiger-trader/internal/gateway"
	"tiger-trader/internal/logger"
	"tiger-trader/internal/loop"
	"tiger-trader/internal/marketstatus"
	"tiger-trader/internal/metrics"
	"tiger-trader/internal/model"
	"tiger-trader/internal/notification"
	"tiger-trader/internal/poslog"
	"tiger-trader/internal/ratelimit"
	"tiger-trader/internal/reconcile"
	"tiger-trader/internal/risk"
	redisstore "tiger-trader/internal/store/redis"
	"tiger-trader/internal/store/sqlite"
	"tiger-trader/internal/summary"
)

const marketClosedBackoff = 60 * time.Second

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	cfg := config.Load()
	if cfg.DeepSeekAPIKey == "" {
		log.Fatalf("[trader] DEEPSEEK_API_KEY not set")
	}
	logger.InitFile("trader", slog.LevelInfo, cfg.LogDir, "trading.log")
	markets := cfg.ParseMarkets()
	log.Printf("[trader] markets %v, cooldown %v, paper=%v", markets, cfg.LoopCooldown, cfg.PaperTrading)

	m := metrics.NewMetrics()
	health := metrics.NewHealthStatus()

	// Stores. Redis is optional; without it price caching and the pause
	// flag are disabled.
	cache, err := redisstore.Open(redisstore.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		log.Printf("[trader] redis unavailable, caching and pause control disabled: %v", err)
		cache = nil
	}

	store, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("[trader] sqlite init failed: %v", err)
	}
	defer store.Close()

	posLog, err := poslog.New(filepath.Join(cfg.LogDir, "positions.log"))
	if err != nil {
		log.Fatalf("[trader] position log init failed: %v", err)
	}

	notifier := buildNotifier(cfg)
	provider := agent.NewDeepSeekAgent(agent.Config{
		BaseURL: cfg.DeepSeekBaseURL,
		APIKey:  cfg.DeepSeekAPIKey,
		Model:   cfg.DeepSeekModel,
	})

	// Broker bindings. Only the paper stack ships in tree; a real broker
	// SDK plugs in through the model port interfaces.
	if !cfg.PaperTrading {
		log.Fatalf("[trader] live trading requires an out-of-tree gateway binding")
	}
	simQuotes := gateway.NewSimQuotes(time.Now().UnixNano())
	broker := gateway.NewPaperGateway(5)
	account := gateway.NewSimAccount(broker, simQuotes, map[string]float64{
		"HKD": 500_000,
		"USD": 50_000,
	})

	var quotes model.QuoteProvider = simQuotes
	if cache != nil {
		quotes = dataengine.New(simQuotes, cache)
	}

	limiter := ratelimit.New(cfg.RateLimitMax, cfg.RateLimitSpan)
	executor := execution.New(broker, quotes,
		execution.WithLimiter(limiter),
		execution.WithRecorder(store),
		execution.WithNotifier(notifier),
		execution.WithMetrics(m),
	)

	deps := loop.Deps{
		Limiter:    limiter,
		Gate:       marketstatus.New(quotes, markets, marketClosedBackoff),
		Account:    account,
		Quotes:     quotes,
		Provider:   provider,
		Risk:       risk.New(provider, executor),
		Executor:   executor,
		Reconciler: reconcile.New(broker, quotes, provider, m),
		PosLog:     posLog,
		Snapshots:  store,
		Notifier:   notifier,
		Metrics:    m,
		Health:     health,
		Strategy:   cfg.Strategy,
		Cooldown:   cfg.LoopCooldown,
	}
	if cache != nil {
		deps.Pause = cache
	}
	controlLoop := loop.New(deps)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Printf("[trader] shutdown signal received")
		cancel()
	}()

	var redisClient *goredis.Client
	if cache != nil {
		redisClient = cache.Client()
	}
	health.StartLivenessChecker(ctx, redisClient, store.DB(), 30*time.Second)
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()
	defer func() {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		metricsSrv.Stop(shutdownCtx)
	}()

	// Also export the tiered summary through logs on shutdown for operators.
	resolver := summary.New(account, store, posLog, m)
	defer func() {
		sum := resolver.Resolve(context.Background())
		log.Printf("[trader] final summary: netLiq=%.2f cash=%.2f source=%s",
			sum.NetLiquidation, sum.CashBalance, sum.Source)
	}()

	if err := controlLoop.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("[trader] loop exited: %v", err)
	}
}

// buildNotifier fans out to every configured channel, always including the
// process log.
func buildNotifier(cfg *config.Config) notification.Notifier {
	backends := []notification.Notifier{notification.NewLogNotifier()}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		backends = append(backends, notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID))
	}
	if cfg.WebhookURL != "" {
		backends = append(backends, notification.NewWebhookNotifier(cfg.WebhookURL))
	}
	if len(backends) == 1 {
		return backends[0]
	}
	return notification.NewFanout(backends...)
}
