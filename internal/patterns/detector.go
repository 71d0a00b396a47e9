// Package patterns detects candlestick patterns over the most recent one to
// three candles of a sequence and returns exactly one classification.
package patterns

import "crypto-signal-bot/internal/binance"

// PatternType represents different candlestick patterns
type PatternType string

const (
	None             PatternType = "none"
	BullishEngulfing PatternType = "bullish_engulfing"
	BearishEngulfing PatternType = "bearish_engulfing"
	MorningStar      PatternType = "morning_star"
	EveningStar      PatternType = "evening_star"
	Hammer           PatternType = "hammer"
	ShootingStar     PatternType = "shooting_star"
)

// Direction of the pattern's implied move.
type Direction string

const (
	Bullish Direction = "bullish"
	Bearish Direction = "bearish"
	Neutral Direction = "neutral"
)

// Detection is the single pattern classification for a candle sequence.
type Detection struct {
	Type      PatternType `json:"type"`
	Direction Direction   `json:"direction"`
	// Strength is a fixed per-pattern weight in [0,1] used by the scorer:
	// three-candle patterns outrank two-candle, which outrank single-candle.
	Strength float64 `json:"strength"`
}

// Detect classifies the most recent candles of the sequence. Ties are broken
// by a fixed priority: engulfing, then star patterns, then
// hammer/shooting-star, then none.
func Detect(klines []binance.Kline) Detection {
	n := len(klines)
	if n < 2 {
		return Detection{Type: None, Direction: Neutral}
	}

	prev, last := klines[n-2], klines[n-1]

	if isBullishEngulfing(prev, last) {
		return Detection{Type: BullishEngulfing, Direction: Bullish, Strength: 0.8}
	}
	if isBearishEngulfing(prev, last) {
		return Detection{Type: BearishEngulfing, Direction: Bearish, Strength: 0.8}
	}

	if n >= 3 {
		first := klines[n-3]
		if isMorningStar(first, prev, last) {
			return Detection{Type: MorningStar, Direction: Bullish, Strength: 1.0}
		}
		if isEveningStar(first, prev, last) {
			return Detection{Type: EveningStar, Direction: Bearish, Strength: 1.0}
		}
	}

	if isHammer(last, prev) {
		return Detection{Type: Hammer, Direction: Bullish, Strength: 0.6}
	}
	if isShootingStar(last, prev) {
		return Detection{Type: ShootingStar, Direction: Bearish, Strength: 0.6}
	}

	return Detection{Type: None, Direction: Neutral}
}

// isBullishEngulfing checks for a bullish candle whose body completely
// engulfs the previous bearish body.
func isBullishEngulfing(c1, c2 binance.Kline) bool {
	if c1.Close >= c1.Open {
		return false
	}
	if c2.Close <= c2.Open {
		return false
	}
	return c2.Open <= c1.Close && c2.Close >= c1.Open
}

// isBearishEngulfing checks for a bearish candle whose body completely
// engulfs the previous bullish body.
func isBearishEngulfing(c1, c2 binance.Kline) bool {
	if c1.Close <= c1.Open {
		return false
	}
	if c2.Close >= c2.Open {
		return false
	}
	return c2.Open >= c1.Close && c2.Close <= c1.Open
}

// isMorningStar checks for a long bearish candle, a small indecision candle,
// and a long bullish candle closing above the first candle's midpoint.
func isMorningStar(c1, c2, c3 binance.Kline) bool {
	if c1.Close >= c1.Open {
		return false
	}
	body1 := c1.Open - c1.Close
	if range1 := c1.High - c1.Low; body1 < range1*0.6 {
		return false
	}

	if abs(c2.Close-c2.Open) > body1*0.4 {
		return false
	}

	if c3.Close <= c3.Open {
		return false
	}
	body3 := c3.Close - c3.Open
	if range3 := c3.High - c3.Low; body3 < range3*0.6 {
		return false
	}

	return c3.Close >= (c1.Open+c1.Close)/2
}

// isEveningStar checks for a long bullish candle, a small indecision candle,
// and a long bearish candle closing below the first candle's midpoint.
func isEveningStar(c1, c2, c3 binance.Kline) bool {
	if c1.Close <= c1.Open {
		return false
	}
	body1 := c1.Close - c1.Open
	if range1 := c1.High - c1.Low; body1 < range1*0.6 {
		return false
	}

	if abs(c2.Close-c2.Open) > body1*0.4 {
		return false
	}

	if c3.Close >= c3.Open {
		return false
	}
	body3 := c3.Open - c3.Close
	if range3 := c3.High - c3.Low; body3 < range3*0.6 {
		return false
	}

	return c3.Close <= (c1.Open+c1.Close)/2
}

// isHammer checks for a long lower wick after a bearish candle.
func isHammer(candle, prev binance.Kline) bool {
	body := abs(candle.Close - candle.Open)
	upperWick := candle.High - max(candle.Open, candle.Close)
	lowerWick := min(candle.Open, candle.Close) - candle.Low

	if lowerWick < body*2 {
		return false
	}
	if upperWick > body*0.3 {
		return false
	}
	// Needs a preceding down move to reverse.
	return prev.Close < prev.Open
}

// isShootingStar checks for a long upper wick after a bullish candle.
func isShootingStar(candle, prev binance.Kline) bool {
	body := abs(candle.Close - candle.Open)
	upperWick := candle.High - max(candle.Open, candle.Close)
	lowerWick := min(candle.Open, candle.Close) - candle.Low

	if upperWick < body*2 {
		return false
	}
	if lowerWick > body*0.3 {
		return false
	}
	return prev.Close > prev.Open
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
