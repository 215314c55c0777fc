// Package redis holds the shared redis bindings: a short-TTL latest-price
// cache fronting the quote provider, and the cross-process pause flag the
// dashboard uses to halt trading. All calls go through a circuit breaker so
// a dead redis degrades to pass-through instead of stalling the loop.
package redis

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

const (
	latestPriceKeyPrefix = "quote:latest:"
	pauseKey             = "trader:paused"

	defaultQuoteTTL = 5 * time.Minute

	breakerMaxFailures  = 5
	breakerResetTimeout = 10 * time.Second
)

// Config configures the redis connection.
type Config struct {
	Addr     string // e.g. "localhost:6379"
	Password string
	DB       int
	QuoteTTL time.Duration // latest-price expiry; 0 means defaultQuoteTTL
}

// Cache is the process's handle on redis.
type Cache struct {
	client  *goredis.Client
	breaker *CircuitBreaker
	ttl     time.Duration
}

// Open connects and pings the server.
func Open(cfg Config) (*Cache, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	breaker := NewCircuitBreaker(breakerMaxFailures, breakerResetTimeout)
	breaker.OnStateChange = func(from, to State) {
		log.Printf("[redis] circuit breaker %s -> %s", from, to)
	}

	ttl := cfg.QuoteTTL
	if ttl <= 0 {
		ttl = defaultQuoteTTL
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return &Cache{client: client, breaker: breaker, ttl: ttl}, nil
}

// Client returns the underlying client for health checks.
func (c *Cache) Client() *goredis.Client { return c.client }

func (c *Cache) Close() error { return c.client.Close() }

// SetLatestPrice caches a symbol's last traded price with the quote TTL.
func (c *Cache) SetLatestPrice(ctx context.Context, symbol string, price float64) error {
	return c.breaker.Execute(func() error {
		return c.client.Set(ctx, latestPriceKeyPrefix+symbol,
			strconv.FormatFloat(price, 'f', -1, 64), c.ttl).Err()
	})
}

// LatestPrice returns a cached price and whether the key was present.
func (c *Cache) LatestPrice(ctx context.Context, symbol string) (float64, bool, error) {
	var price float64
	var found bool
	err := c.breaker.Execute(func() error {
		raw, err := c.client.Get(ctx, latestPriceKeyPrefix+symbol).Result()
		if err == goredis.Nil {
			return nil
		}
		if err != nil {
			return err
		}
		p, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			// Treat a corrupt entry as a miss; it will be overwritten.
			log.Printf("[redis] corrupt price entry for %s: %q", symbol, raw)
			return nil
		}
		price, found = p, true
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return price, found, nil
}

// SetPaused flips the cross-process pause flag. The flag has no expiry;
// a pause survives restarts until explicitly resumed.
func (c *Cache) SetPaused(ctx context.Context, paused bool) error {
	val := "0"
	if paused {
		val = "1"
	}
	return c.breaker.Execute(func() error {
		return c.client.Set(ctx, pauseKey, val, 0).Err()
	})
}

// Paused reports the pause flag. If redis is unreachable the flag reads as
// false: trading continues and the outage is logged rather than acting as
// an accidental kill switch.
func (c *Cache) Paused(ctx context.Context) bool {
	var paused bool
	err := c.breaker.Execute(func() error {
		raw, err := c.client.Get(ctx, pauseKey).Result()
		if err == goredis.Nil {
			return nil
		}
		if err != nil {
			return err
		}
		paused = raw == "1"
		return nil
	})
	if err != nil {
		log.Printf("[redis] pause flag unreadable: %v", err)
		return false
	}
	return paused
}
