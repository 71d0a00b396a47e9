package binance

import (
	"sync"
	"time"
)

// Endpoint weights for the Binance Futures public API. Weight budgets reset
// every minute; the limiter reserves weight before a request goes out so the
// client throttles itself instead of eating 429s.
var endpointWeights = map[string]int{
	"/fapi/v1/klines":       5,
	"/fapi/v1/ticker/price": 1,
	"/fapi/v1/exchangeInfo": 1,
}

const (
	maxWeightPerMinute = 2400
	// Leave headroom so a burst of scans never consumes the full budget.
	weightCeiling = maxWeightPerMinute * 80 / 100
)

// RateLimiter implements proactive weight-based rate limiting for the
// Binance Futures API.
type RateLimiter struct {
	mu sync.Mutex

	currentWeight int
	windowResetAt time.Time

	// Cooldown set after the exchange rejects a request anyway.
	cooldownUntil time.Time
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		windowResetAt: time.Now().Add(time.Minute),
	}
}

// Reserve books the weight for a request against the current window and
// returns how long the caller should wait before sending it. A zero return
// means the request may go out immediately.
func (rl *RateLimiter) Reserve(path string) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.After(rl.windowResetAt) {
		rl.currentWeight = 0
		rl.windowResetAt = now.Add(time.Minute)
	}

	weight, ok := endpointWeights[path]
	if !ok {
		weight = 1
	}

	wait := time.Duration(0)
	if rl.cooldownUntil.After(now) {
		wait = rl.cooldownUntil.Sub(now)
	}

	if rl.currentWeight+weight > weightCeiling {
		// Budget exhausted: book the request into the next window. The
		// reset point advances from the window boundary, not from now,
		// so concurrent reservers cannot compound it.
		untilReset := rl.windowResetAt.Sub(now)
		if untilReset > wait {
			wait = untilReset
		}
		rl.currentWeight = weight
		rl.windowResetAt = rl.windowResetAt.Add(time.Minute)
		return wait
	}

	rl.currentWeight += weight
	return wait
}

// NoteRejection records a server-side rate-limit rejection and opens a short
// cooldown so concurrent callers back off together.
func (rl *RateLimiter) NoteRejection() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cooldown := time.Now().Add(5 * time.Second)
	if cooldown.After(rl.cooldownUntil) {
		rl.cooldownUntil = cooldown
	}
}

// Usage returns the percentage of the current window's weight budget in use.
func (rl *RateLimiter) Usage() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if time.Now().After(rl.windowResetAt) {
		return 0
	}
	return float64(rl.currentWeight) / float64(weightCeiling) * 100
}
