package binance

import "context"

// MarketDataClient is the candle source consumed by the analysis core.
// Implementations must return klines ordered by open time ascending.
type MarketDataClient interface {
	GetKlines(ctx context.Context, symbol, interval string, limit int) ([]Kline, error)
	GetCurrentPrice(ctx context.Context, symbol string) (float64, error)
}
