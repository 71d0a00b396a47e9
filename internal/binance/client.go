package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

const (
	maxRetries     = 3
	initialBackoff = 500 * time.Millisecond
)

// Client talks to the Binance Futures public market-data API.
// It is read-only: no order or account endpoints are exposed.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *RateLimiter
	logger      zerolog.Logger
}

// NewClient creates a new market-data client.
func NewClient(baseURL string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		rateLimiter: NewRateLimiter(),
		logger:      logger.With().Str("component", "binance").Logger(),
	}
}

// Kline represents a candlestick
type Kline struct {
	OpenTime  int64   `json:"openTime"`
	Open      float64 `json:"open,string"`
	High      float64 `json:"high,string"`
	Low       float64 `json:"low,string"`
	Close     float64 `json:"close,string"`
	Volume    float64 `json:"volume,string"`
	CloseTime int64   `json:"closeTime"`
}

// IsBullish reports whether the candle closed above its open.
func (k Kline) IsBullish() bool {
	return k.Close > k.Open
}

// GetKlines fetches candlestick data ordered by open time ascending.
// Rate-limit responses are retried with exponential backoff; the final
// failure surfaces as *RateLimitedError. Other failures surface as
// *DataUnavailableError.
func (c *Client) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]Kline, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", interval)
	params.Set("limit", strconv.Itoa(limit))

	endpoint := fmt.Sprintf("%s/fapi/v1/klines?%s", c.baseURL, params.Encode())

	body, err := c.getWithRetry(ctx, endpoint, "/fapi/v1/klines")
	if err != nil {
		if _, ok := err.(*RateLimitedError); ok {
			return nil, err
		}
		return nil, &DataUnavailableError{Symbol: symbol, Interval: interval, Cause: err}
	}

	var rawKlines [][]interface{}
	if err := json.Unmarshal(body, &rawKlines); err != nil {
		return nil, &DataUnavailableError{Symbol: symbol, Interval: interval, Cause: fmt.Errorf("error parsing klines: %w", err)}
	}

	klines := make([]Kline, len(rawKlines))
	for i, raw := range rawKlines {
		if len(raw) < 7 {
			return nil, &DataUnavailableError{Symbol: symbol, Interval: interval, Cause: fmt.Errorf("malformed kline row %d", i)}
		}
		klines[i] = Kline{
			OpenTime:  int64(asFloat(raw[0])),
			Open:      parseFloat(raw[1]),
			High:      parseFloat(raw[2]),
			Low:       parseFloat(raw[3]),
			Close:     parseFloat(raw[4]),
			Volume:    parseFloat(raw[5]),
			CloseTime: int64(asFloat(raw[6])),
		}
	}

	return klines, nil
}

// GetCurrentPrice fetches the current mark price for a symbol.
func (c *Client) GetCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	endpoint := fmt.Sprintf("%s/fapi/v1/ticker/price?symbol=%s", c.baseURL, symbol)

	body, err := c.getWithRetry(ctx, endpoint, "/fapi/v1/ticker/price")
	if err != nil {
		if _, ok := err.(*RateLimitedError); ok {
			return 0, err
		}
		return 0, &DataUnavailableError{Symbol: symbol, Interval: "ticker", Cause: err}
	}

	var priceResp struct {
		Symbol string  `json:"symbol"`
		Price  float64 `json:"price,string"`
	}
	if err := json.Unmarshal(body, &priceResp); err != nil {
		return 0, &DataUnavailableError{Symbol: symbol, Interval: "ticker", Cause: fmt.Errorf("error parsing price: %w", err)}
	}

	return priceResp.Price, nil
}

// SymbolInfo represents basic symbol information
type SymbolInfo struct {
	Symbol     string `json:"symbol"`
	Status     string `json:"status"`
	BaseAsset  string `json:"baseAsset"`
	QuoteAsset string `json:"quoteAsset"`
}

// ExchangeInfo represents exchange information response
type ExchangeInfo struct {
	Symbols []SymbolInfo `json:"symbols"`
}

// GetExchangeInfo fetches exchange information including all trading symbols.
func (c *Client) GetExchangeInfo(ctx context.Context) (*ExchangeInfo, error) {
	endpoint := fmt.Sprintf("%s/fapi/v1/exchangeInfo", c.baseURL)

	body, err := c.getWithRetry(ctx, endpoint, "/fapi/v1/exchangeInfo")
	if err != nil {
		return nil, err
	}

	var exchangeInfo ExchangeInfo
	if err := json.Unmarshal(body, &exchangeInfo); err != nil {
		return nil, fmt.Errorf("error parsing exchange info: %w", err)
	}

	return &exchangeInfo, nil
}

// getWithRetry performs a GET honoring the weight limiter and retrying
// rate-limit responses with exponential backoff. Backoff happens here, at
// the adapter boundary, so callers never see transient 429s.
func (c *Client) getWithRetry(ctx context.Context, endpoint, path string) ([]byte, error) {
	backoff := initialBackoff

	var lastRateLimit *RateLimitedError
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Warn().
				Str("path", path).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("retrying rate-limited request")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff *= 2
		}

		if wait := c.rateLimiter.Reserve(path); wait > 0 {
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		body, retryAfter, err := c.get(ctx, endpoint)
		if err == nil {
			return body, nil
		}

		rl, ok := err.(*RateLimitedError)
		if !ok {
			return nil, err
		}
		lastRateLimit = rl
		if retryAfter > backoff {
			backoff = retryAfter
		}
		c.rateLimiter.NoteRejection()
	}

	return nil, lastRateLimit
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("error reading response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return body, 0, nil
	case http.StatusTooManyRequests, 418: // 418 = Binance IP auto-ban
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, retryAfter, &RateLimitedError{Endpoint: req.URL.Path, RetryAfter: retryAfter}
	default:
		return nil, 0, fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	secs, err := strconv.Atoi(header)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func parseFloat(val interface{}) float64 {
	switch v := val.(type) {
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	case float64:
		return v
	default:
		return 0
	}
}

func asFloat(val interface{}) float64 {
	f, _ := val.(float64)
	return f
}
