package analysis

import (
	"math"

	"crypto-signal-bot/internal/binance"
)

// All exponential smoothing in this package uses multiplier 2/(period+1),
// seeded with the SMA of the first period values. RSI uses the standard
// Wilder smoothing (1/period). Identical input always produces identical
// output.

func closes(klines []binance.Kline) []float64 {
	out := make([]float64, len(klines))
	for i, k := range klines {
		out[i] = k.Close
	}
	return out
}

// SMA calculates the simple moving average of the last period values.
func SMA(values []float64, period int) float64 {
	if len(values) < period || period <= 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return sum / float64(period)
}

// EMASeries calculates the exponential moving average series. The first
// period-1 entries are NaN; entry period-1 is the SMA seed.
func EMASeries(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if len(values) < period || period <= 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}

	for i := 0; i < period-1; i++ {
		out[i] = math.NaN()
	}

	seed := 0.0
	for _, v := range values[:period] {
		seed += v
	}
	ema := seed / float64(period)
	out[period-1] = ema

	multiplier := 2.0 / float64(period+1)
	for i := period; i < len(values); i++ {
		ema = (values[i]-ema)*multiplier + ema
		out[i] = ema
	}
	return out
}

// EMA calculates the exponential moving average of the full series.
func EMA(values []float64, period int) float64 {
	series := EMASeries(values, period)
	if len(series) == 0 {
		return math.NaN()
	}
	return series[len(series)-1]
}

// RSISeries calculates the Relative Strength Index series using Wilder
// smoothing. Entries before the first full period are NaN.
func RSISeries(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}
	if len(values) < period+1 || period <= 0 {
		return out
	}

	avgGain, avgLoss := 0.0, 0.0
	for i := 1; i <= period; i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss += -change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiFrom(avgGain, avgLoss)

	for i := period + 1; i < len(values); i++ {
		change := values[i] - values[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiFrom(avgGain, avgLoss)
	}
	return out
}

func rsiFrom(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// MACDValues holds the MACD line, signal line, and histogram for one bar.
type MACDValues struct {
	MACD      float64
	Signal    float64
	Histogram float64
}

// MACDSeries calculates MACD with a true signal line: the EMA of the MACD
// series itself, not an approximation.
func MACDSeries(values []float64, fastPeriod, slowPeriod, signalPeriod int) []MACDValues {
	out := make([]MACDValues, len(values))
	fast := EMASeries(values, fastPeriod)
	slow := EMASeries(values, slowPeriod)

	macdLine := make([]float64, len(values))
	for i := range values {
		macdLine[i] = fast[i] - slow[i]
	}

	// The signal EMA starts where the MACD line becomes defined.
	start := slowPeriod - 1
	var signal []float64
	if start < len(values) {
		signal = EMASeries(macdLine[start:], signalPeriod)
	}

	for i := range values {
		m := macdLine[i]
		s := math.NaN()
		if i >= start && signal != nil {
			s = signal[i-start]
		}
		out[i] = MACDValues{MACD: m, Signal: s, Histogram: m - s}
	}
	return out
}

// BollingerBands holds Bollinger Band values for one bar.
type BollingerBands struct {
	Upper  float64
	Middle float64
	Lower  float64
	Width  float64
}

// Bollinger calculates Bollinger Bands over the last period values.
func Bollinger(values []float64, period int, stdDevMultiplier float64) BollingerBands {
	middle := SMA(values, period)
	if math.IsNaN(middle) {
		return BollingerBands{Upper: math.NaN(), Middle: math.NaN(), Lower: math.NaN(), Width: math.NaN()}
	}

	variance := 0.0
	for _, v := range values[len(values)-period:] {
		diff := v - middle
		variance += diff * diff
	}
	stdDev := math.Sqrt(variance / float64(period))

	upper := middle + stdDev*stdDevMultiplier
	lower := middle - stdDev*stdDevMultiplier
	width := math.NaN()
	if middle != 0 {
		width = (upper - lower) / middle
	}
	return BollingerBands{Upper: upper, Middle: middle, Lower: lower, Width: width}
}

// bollingerWidthAt computes the band width ending at index end (inclusive).
func bollingerWidthAt(values []float64, end, period int, stdDevMultiplier float64) float64 {
	if end+1 < period {
		return math.NaN()
	}
	return Bollinger(values[:end+1], period, stdDevMultiplier).Width
}

// ATR calculates the Average True Range over the last period candles.
func ATR(klines []binance.Kline, period int) float64 {
	if len(klines) < period+1 || period <= 0 {
		return math.NaN()
	}

	trSum := 0.0
	for i := len(klines) - period; i < len(klines); i++ {
		high := klines[i].High
		low := klines[i].Low
		prevClose := klines[i-1].Close

		tr := math.Max(high-low, math.Max(math.Abs(high-prevClose), math.Abs(low-prevClose)))
		trSum += tr
	}
	return trSum / float64(period)
}

// Stochastic holds %K and %D for one bar.
type Stochastic struct {
	K float64
	D float64
}

// StochasticAt calculates the stochastic oscillator at index end, with %D as
// the dPeriod-bar SMA of %K.
func StochasticAt(klines []binance.Kline, end, kPeriod, dPeriod int) Stochastic {
	ks := make([]float64, 0, dPeriod)
	for i := end - dPeriod + 1; i <= end; i++ {
		ks = append(ks, stochasticKAt(klines, i, kPeriod))
	}

	k := ks[len(ks)-1]
	sum, n := 0.0, 0
	for _, v := range ks {
		if !math.IsNaN(v) {
			sum += v
			n++
		}
	}
	d := math.NaN()
	if n > 0 {
		d = sum / float64(n)
	}
	return Stochastic{K: k, D: d}
}

func stochasticKAt(klines []binance.Kline, end, kPeriod int) float64 {
	if end < 0 || end >= len(klines) || end+1 < kPeriod {
		return math.NaN()
	}

	highest := klines[end-kPeriod+1].High
	lowest := klines[end-kPeriod+1].Low
	for i := end - kPeriod + 1; i <= end; i++ {
		if klines[i].High > highest {
			highest = klines[i].High
		}
		if klines[i].Low < lowest {
			lowest = klines[i].Low
		}
	}

	if highest == lowest {
		return 50
	}
	return (klines[end].Close - lowest) / (highest - lowest) * 100
}

// OBVSeries calculates the On Balance Volume series.
func OBVSeries(klines []binance.Kline) []float64 {
	out := make([]float64, len(klines))
	if len(klines) == 0 {
		return out
	}
	out[0] = 0
	for i := 1; i < len(klines); i++ {
		switch {
		case klines[i].Close > klines[i-1].Close:
			out[i] = out[i-1] + klines[i].Volume
		case klines[i].Close < klines[i-1].Close:
			out[i] = out[i-1] - klines[i].Volume
		default:
			out[i] = out[i-1]
		}
	}
	return out
}

// VolumeRatio returns the last candle's volume relative to the mean volume
// of the preceding period candles.
func VolumeRatio(klines []binance.Kline, period int) float64 {
	if len(klines) < period+1 || period <= 0 {
		return math.NaN()
	}

	sum := 0.0
	for _, k := range klines[len(klines)-period-1 : len(klines)-1] {
		sum += k.Volume
	}
	avg := sum / float64(period)
	if avg == 0 {
		return math.NaN()
	}
	return klines[len(klines)-1].Volume / avg
}

// meanDiff returns the mean bar-to-bar change of the last n+1 values, the
// slope proxy the volume and momentum analyses use.
func meanDiff(values []float64, n int) float64 {
	if len(values) < n+1 || n <= 0 {
		return math.NaN()
	}
	sum := 0.0
	for i := len(values) - n; i < len(values); i++ {
		sum += values[i] - values[i-1]
	}
	return sum / float64(n)
}
