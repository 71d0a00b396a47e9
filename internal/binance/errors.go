package binance

import (
	"fmt"
	"time"
)

// DataUnavailableError indicates the exchange could not provide data for a
// symbol/interval. It is recoverable: scans record it per symbol and move on.
type DataUnavailableError struct {
	Symbol   string
	Interval string
	Cause    error
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("market data unavailable for %s %s: %v", e.Symbol, e.Interval, e.Cause)
}

func (e *DataUnavailableError) Unwrap() error {
	return e.Cause
}

// RateLimitedError indicates the exchange rejected a request for rate-limit
// reasons (HTTP 429/418). The client retries with backoff before surfacing it.
type RateLimitedError struct {
	Endpoint   string
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited on %s (retry after %s)", e.Endpoint, e.RetryAfter)
}
