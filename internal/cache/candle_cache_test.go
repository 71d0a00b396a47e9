package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"crypto-signal-bot/internal/binance"
)

// countingClient wraps the mock client and counts upstream fetches.
type countingClient struct {
	*binance.MockClient
	mu    sync.Mutex
	calls int
}

func (c *countingClient) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]binance.Kline, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.MockClient.GetKlines(ctx, symbol, interval, limit)
}

func (c *countingClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func TestCacheHitAvoidsUpstream(t *testing.T) {
	upstream := &countingClient{MockClient: binance.NewMockClient()}
	c := NewCandleCache(upstream, nil, time.Minute, zerolog.Nop())
	ctx := context.Background()

	first, err := c.GetKlines(ctx, "BTCUSDT", "15m", 50)
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.GetKlines(ctx, "BTCUSDT", "15m", 50)
	if err != nil {
		t.Fatal(err)
	}

	if upstream.callCount() != 1 {
		t.Errorf("upstream calls = %d, want 1", upstream.callCount())
	}
	if len(first) != len(second) || first[0] != second[0] {
		t.Error("cached candles differ from upstream candles")
	}
}

func TestDistinctRequestsMiss(t *testing.T) {
	upstream := &countingClient{MockClient: binance.NewMockClient()}
	c := NewCandleCache(upstream, nil, time.Minute, zerolog.Nop())
	ctx := context.Background()

	c.GetKlines(ctx, "BTCUSDT", "15m", 50)
	c.GetKlines(ctx, "BTCUSDT", "4h", 50)
	c.GetKlines(ctx, "ETHUSDT", "15m", 50)
	c.GetKlines(ctx, "BTCUSDT", "15m", 100)

	if upstream.callCount() != 4 {
		t.Errorf("upstream calls = %d, want 4 distinct fetches", upstream.callCount())
	}
}

func TestExpiredEntryRefetches(t *testing.T) {
	upstream := &countingClient{MockClient: binance.NewMockClient()}
	c := NewCandleCache(upstream, nil, time.Millisecond, zerolog.Nop())
	ctx := context.Background()

	c.GetKlines(ctx, "BTCUSDT", "15m", 50)
	time.Sleep(5 * time.Millisecond)
	c.GetKlines(ctx, "BTCUSDT", "15m", 50)

	if upstream.callCount() != 2 {
		t.Errorf("upstream calls = %d, want 2 after expiry", upstream.callCount())
	}
}

func TestUpstreamErrorNotCached(t *testing.T) {
	mock := binance.NewMockClient()
	mock.Unavailable["DOWNUSDT"] = true
	upstream := &countingClient{MockClient: mock}
	c := NewCandleCache(upstream, nil, time.Minute, zerolog.Nop())
	ctx := context.Background()

	if _, err := c.GetKlines(ctx, "DOWNUSDT", "15m", 50); err == nil {
		t.Fatal("expected upstream error")
	}
	mock.Unavailable["DOWNUSDT"] = false
	if _, err := c.GetKlines(ctx, "DOWNUSDT", "15m", 50); err != nil {
		t.Fatalf("recovered upstream should serve: %v", err)
	}
	if upstream.callCount() != 2 {
		t.Errorf("upstream calls = %d, want 2", upstream.callCount())
	}
}

func TestPurgeDropsExpired(t *testing.T) {
	upstream := &countingClient{MockClient: binance.NewMockClient()}
	c := NewCandleCache(upstream, nil, time.Millisecond, zerolog.Nop())
	ctx := context.Background()

	c.GetKlines(ctx, "BTCUSDT", "15m", 50)
	time.Sleep(5 * time.Millisecond)
	c.Purge()

	c.mu.RLock()
	size := len(c.memory)
	c.mu.RUnlock()
	if size != 0 {
		t.Errorf("memory entries after purge = %d, want 0", size)
	}
}
