// Package cache provides a caching market-data client: a short in-process
// TTL tier in front of an optional Redis tier, wrapped around the upstream
// client. A scan touching the same symbol on several timeframes then costs
// one upstream fetch per (symbol, interval) instead of one per worker.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"crypto-signal-bot/internal/binance"
)

// candleKeyPrefix namespaces candle cache entries in Redis.
// Format: signal:candles:{symbol}:{interval}:{limit}
const candleKeyPrefix = "signal:candles"

// DefaultCandleTTL keeps candles fresh within one 1-minute sub-candle.
const DefaultCandleTTL = 30 * time.Second

type memoryEntry struct {
	klines    []binance.Kline
	expiresAt time.Time
}

// CandleCache implements binance.MarketDataClient by delegating to upstream
// on miss. Redis failures degrade silently to the memory tier.
type CandleCache struct {
	upstream binance.MarketDataClient
	redis    *redis.Client
	ttl      time.Duration
	logger   zerolog.Logger

	mu     sync.RWMutex
	memory map[string]memoryEntry
}

// NewCandleCache wraps upstream. redisClient may be nil for memory-only
// caching; ttl of zero uses DefaultCandleTTL.
func NewCandleCache(upstream binance.MarketDataClient, redisClient *redis.Client, ttl time.Duration, logger zerolog.Logger) *CandleCache {
	if ttl <= 0 {
		ttl = DefaultCandleTTL
	}
	return &CandleCache{
		upstream: upstream,
		redis:    redisClient,
		ttl:      ttl,
		logger:   logger,
		memory:   make(map[string]memoryEntry),
	}
}

func candleKey(symbol, interval string, limit int) string {
	return fmt.Sprintf("%s:%s:%s:%d", candleKeyPrefix, symbol, interval, limit)
}

// GetKlines serves candles from cache when fresh, otherwise fetches from
// upstream and populates both tiers.
func (c *CandleCache) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]binance.Kline, error) {
	key := candleKey(symbol, interval, limit)

	c.mu.RLock()
	entry, ok := c.memory[key]
	c.mu.RUnlock()
	if ok && time.Now().Before(entry.expiresAt) {
		return entry.klines, nil
	}

	if c.redis != nil {
		if data, err := c.redis.Get(ctx, key).Result(); err == nil {
			var klines []binance.Kline
			if err := json.Unmarshal([]byte(data), &klines); err == nil {
				c.storeMemory(key, klines)
				return klines, nil
			}
		}
	}

	klines, err := c.upstream.GetKlines(ctx, symbol, interval, limit)
	if err != nil {
		return nil, err
	}

	c.storeMemory(key, klines)
	if c.redis != nil {
		if data, err := json.Marshal(klines); err == nil {
			if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
				c.logger.Debug().Err(err).Str("key", key).Msg("redis candle cache write failed")
			}
		}
	}

	return klines, nil
}

// GetCurrentPrice is never cached: the monitor needs the live price.
func (c *CandleCache) GetCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	return c.upstream.GetCurrentPrice(ctx, symbol)
}

func (c *CandleCache) storeMemory(key string, klines []binance.Kline) {
	c.mu.Lock()
	c.memory[key] = memoryEntry{klines: klines, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

// Purge drops every expired memory entry. Called periodically by the owner
// to bound memory on long-running processes.
func (c *CandleCache) Purge() {
	now := time.Now()
	c.mu.Lock()
	for key, entry := range c.memory {
		if now.After(entry.expiresAt) {
			delete(c.memory, key)
		}
	}
	c.mu.Unlock()
}
