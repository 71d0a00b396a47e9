package binance

import (
	"context"
	"hash/fnv"
	"math"
	"time"
)

// MockClient serves deterministic synthetic candles. It backs mock mode when
// the exchange is unreachable and doubles as the offline test data source.
// The same (symbol, interval, limit) always yields the same candles.
type MockClient struct {
	// Unavailable lists symbols that fail with DataUnavailableError,
	// letting tests exercise partial-failure handling.
	Unavailable map[string]bool

	// Delay is an artificial per-call latency for concurrency tests.
	Delay time.Duration
}

// NewMockClient creates a mock market-data client.
func NewMockClient() *MockClient {
	return &MockClient{Unavailable: make(map[string]bool)}
}

// GetKlines returns synthetic candles ordered by open time ascending.
func (m *MockClient) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]Kline, error) {
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.Unavailable[symbol] {
		return nil, &DataUnavailableError{Symbol: symbol, Interval: interval, Cause: context.Canceled}
	}

	step := intervalMillis(interval)
	base := basePrice(symbol)
	// Anchor to a fixed epoch so repeated calls are bit-for-bit identical.
	start := int64(1700000000000) - int64(limit)*step

	klines := make([]Kline, limit)
	for i := 0; i < limit; i++ {
		phase := float64(i) / 12.0
		open := base * (1 + 0.02*math.Sin(phase))
		closePrice := base * (1 + 0.02*math.Sin(phase+0.08))
		high := math.Max(open, closePrice) * 1.004
		low := math.Min(open, closePrice) * 0.996
		volume := 1000 + 400*math.Abs(math.Sin(phase*1.7))

		klines[i] = Kline{
			OpenTime:  start + int64(i)*step,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    volume,
			CloseTime: start + int64(i+1)*step - 1,
		}
	}
	return klines, nil
}

// GetCurrentPrice returns the close of the most recent synthetic candle.
func (m *MockClient) GetCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	klines, err := m.GetKlines(ctx, symbol, "15m", 1)
	if err != nil {
		return 0, err
	}
	return klines[0].Close, nil
}

func basePrice(symbol string) float64 {
	h := fnv.New32a()
	h.Write([]byte(symbol))
	// Spread base prices over [10, 50010) so symbols are distinguishable.
	return 10 + float64(h.Sum32()%50000)
}

func intervalMillis(interval string) int64 {
	switch interval {
	case "1d":
		return 24 * 60 * 60 * 1000
	case "4h":
		return 4 * 60 * 60 * 1000
	case "1h":
		return 60 * 60 * 1000
	case "15m":
		return 15 * 60 * 1000
	case "5m":
		return 5 * 60 * 1000
	default:
		return 60 * 1000
	}
}
