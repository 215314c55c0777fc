package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"tiger-trader/internal/model"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Decision provider (OpenAI-compatible chat completions)
	DeepSeekAPIKey  string
	DeepSeekBaseURL string
	DeepSeekModel   string

	// Brokerage account
	AccountID string

	// Trading
	Strategy      string
	Markets       string // comma-separated market domains, e.g. "HK,US"
	LoopCooldown  time.Duration
	RateLimitMax  int
	RateLimitSpan time.Duration
	PaperTrading  bool

	// Infrastructure
	RedisAddr     string
	RedisPassword string
	SQLitePath    string
	MetricsAddr   string
	LogDir        string

	// Notifications
	TelegramBotToken string
	TelegramChatID   string
	WebhookURL       string

	// Dashboard
	DashboardAddr string
	TOTPSecret    string
}

// Load reads configuration from the environment with sensible defaults. A
// .env file in the working directory is loaded first when present.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		log.Printf("[config] loaded .env")
	}

	return &Config{
		DeepSeekAPIKey:  getEnv("DEEPSEEK_API_KEY", ""),
		DeepSeekBaseURL: getEnv("DEEPSEEK_BASE_URL", "https://api.deepseek.com"),
		DeepSeekModel:   getEnv("DEEPSEEK_MODEL", "deepseek-reasoner"),

		AccountID: getEnv("ACCOUNT_ID", ""),

		Strategy:      getEnv("STRATEGY", "swing"),
		Markets:       getEnv("MARKETS", "HK,US"),
		LoopCooldown:  getDuration("LOOP_COOLDOWN", 3*time.Minute),
		RateLimitMax:  getInt("RATE_LIMIT_MAX", 5),
		RateLimitSpan: getDuration("RATE_LIMIT_SPAN", time.Minute),
		PaperTrading:  getBool("PAPER_TRADING", true),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		SQLitePath:    getEnv("SQLITE_PATH", "data/trading.db"),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),
		LogDir:        getEnv("LOG_DIR", "logs"),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),

		DashboardAddr: getEnv("DASHBOARD_ADDR", ":8080"),
		TOTPSecret:    getEnv("DASHBOARD_TOTP_SECRET", ""),
	}
}

// ParseMarkets parses the Markets string into market domains. Unknown
// entries are skipped with a log line.
func (c *Config) ParseMarkets() []model.Market {
	parts := strings.Split(c.Markets, ",")
	markets := make([]model.Market, 0, len(parts))
	for _, p := range parts {
		switch m := model.Market(strings.ToUpper(strings.TrimSpace(p))); m {
		case model.MarketUS, model.MarketHK, model.MarketCN:
			markets = append(markets, m)
		case "":
		default:
			log.Printf("[config] skipping unknown market: %q", p)
		}
	}
	if len(markets) == 0 {
		markets = []model.Market{model.MarketHK, model.MarketUS}
	}
	return markets
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("[config] invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("[config] invalid %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return d
}
