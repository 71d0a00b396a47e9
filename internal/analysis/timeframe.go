package analysis

import "fmt"

// Timeframe represents a candle aggregation interval.
type Timeframe string

const (
	TF5m  Timeframe = "5m"
	TF15m Timeframe = "15m"
	TF1h  Timeframe = "1h"
	TF4h  Timeframe = "4h"
	TF1d  Timeframe = "1d"
)

// Timeframes lists all supported timeframes, shortest first.
var Timeframes = []Timeframe{TF5m, TF15m, TF1h, TF4h, TF1d}

// ParseTimeframe validates and normalizes a timeframe string.
func ParseTimeframe(s string) (Timeframe, error) {
	for _, tf := range Timeframes {
		if string(tf) == s {
			return tf, nil
		}
	}
	return "", fmt.Errorf("unsupported timeframe %q", s)
}

// MinCandles returns the minimum candle count needed for a valid computation
// on this timeframe. Scalping timeframes carry the full indicator set
// including the 200-period EMA; the higher confirmation timeframes only need
// enough history for trend snapshots.
func (tf Timeframe) MinCandles() int {
	switch tf {
	case TF5m, TF15m:
		return FullLookback
	case TF1h, TF4h:
		return TrendLookback
	case TF1d:
		return TrendLookback
	default:
		return FullLookback
	}
}

// Interval returns the exchange interval string for this timeframe.
func (tf Timeframe) Interval() string {
	return string(tf)
}
