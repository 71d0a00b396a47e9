package analysis

import (
	"fmt"
	"math"

	"crypto-signal-bot/internal/binance"
	"crypto-signal-bot/internal/patterns"
)

const (
	// FullLookback is the candle count needed for the full indicator set.
	// The 200-period EMA dominates; one extra bar feeds the previous-value
	// comparisons (MA cross, MACD cross, stochastic cross).
	FullLookback = 201

	// TrendLookback is the candle count needed for a trend snapshot on a
	// confirmation timeframe (SMA25 plus the previous bar, with slack).
	TrendLookback = 30
)

// InsufficientDataError is returned when a candle sequence is too short for
// the indicators that must be produced. The engine never truncates a window
// to produce misleading values.
type InsufficientDataError struct {
	Need int
	Got  int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient candle data: need %d, got %d", e.Need, e.Got)
}

// TrendDirection represents the current trend
type TrendDirection string

const (
	TrendUp       TrendDirection = "UPTREND"
	TrendDown     TrendDirection = "DOWNTREND"
	TrendSideways TrendDirection = "SIDEWAYS"
)

// TrendIndicators holds the trend family of one snapshot.
type TrendIndicators struct {
	SMA7      float64 `json:"sma7"`
	SMA25     float64 `json:"sma25"`
	PrevSMA7  float64 `json:"prev_sma7"`
	PrevSMA25 float64 `json:"prev_sma25"`
	EMA9      float64 `json:"ema9"`
	EMA21     float64 `json:"ema21"`
	EMA50     float64 `json:"ema50"`
	EMA200    float64 `json:"ema200"`

	MACD         float64 `json:"macd"`
	MACDSignal   float64 `json:"macd_signal"`
	MACDHist     float64 `json:"macd_hist"`
	PrevMACDHist float64 `json:"prev_macd_hist"`
}

// MomentumIndicators holds the momentum family of one snapshot.
type MomentumIndicators struct {
	RSI        float64 `json:"rsi"`
	RSISlope   float64 `json:"rsi_slope"`
	StochK     float64 `json:"stoch_k"`
	StochD     float64 `json:"stoch_d"`
	PrevStochK float64 `json:"prev_stoch_k"`
	PrevStochD float64 `json:"prev_stoch_d"`
}

// VolatilityIndicators holds the volatility family of one snapshot.
type VolatilityIndicators struct {
	Bands   BollingerBands `json:"bands"`
	ATR     float64        `json:"atr"`
	Squeeze bool           `json:"squeeze"`
}

// VolumeIndicators holds the volume family of one snapshot.
type VolumeIndicators struct {
	Ratio      float64 `json:"ratio"`
	OBVSlope   float64 `json:"obv_slope"`
	PriceSlope float64 `json:"price_slope"`
}

// IndicatorSet is the full per-(symbol, timeframe) indicator snapshot.
// It is derived data: recomputed every scan, never mutated after creation.
// Individual values may be NaN where a sub-window was degenerate; consumers
// treat NaN as "unavailable", never as zero.
type IndicatorSet struct {
	Price      float64              `json:"price"`
	Trend      TrendIndicators      `json:"trend"`
	Momentum   MomentumIndicators   `json:"momentum"`
	Volatility VolatilityIndicators `json:"volatility"`
	Volume     VolumeIndicators     `json:"volume"`
	Pattern    patterns.Detection   `json:"pattern"`
}

// Compute builds the full indicator set from an ordered candle sequence.
// It is a pure function of its input: the same candles always produce
// bit-for-bit identical output.
func Compute(klines []binance.Kline) (*IndicatorSet, error) {
	if len(klines) < FullLookback {
		return nil, &InsufficientDataError{Need: FullLookback, Got: len(klines)}
	}

	cl := closes(klines)
	last := len(cl) - 1

	macd := MACDSeries(cl, 12, 26, 9)
	bands := Bollinger(cl, 20, 2)
	rsi := RSISeries(cl, 14)
	stoch := StochasticAt(klines, last, 14, 3)
	prevStoch := StochasticAt(klines, last-1, 14, 3)
	obv := OBVSeries(klines)

	set := &IndicatorSet{
		Price: cl[last],
		Trend: TrendIndicators{
			SMA7:         SMA(cl, 7),
			SMA25:        SMA(cl, 25),
			PrevSMA7:     SMA(cl[:last], 7),
			PrevSMA25:    SMA(cl[:last], 25),
			EMA9:         EMA(cl, 9),
			EMA21:        EMA(cl, 21),
			EMA50:        EMA(cl, 50),
			EMA200:       EMA(cl, 200),
			MACD:         macd[last].MACD,
			MACDSignal:   macd[last].Signal,
			MACDHist:     macd[last].Histogram,
			PrevMACDHist: macd[last-1].Histogram,
		},
		Momentum: MomentumIndicators{
			RSI:        rsi[last],
			RSISlope:   meanDiff(rsi, 5),
			StochK:     stoch.K,
			StochD:     stoch.D,
			PrevStochK: prevStoch.K,
			PrevStochD: prevStoch.D,
		},
		Volatility: VolatilityIndicators{
			Bands:   bands,
			ATR:     ATR(klines, 14),
			Squeeze: detectSqueeze(cl, bands.Width),
		},
		Volume: VolumeIndicators{
			Ratio:      VolumeRatio(klines, 20),
			OBVSlope:   meanDiff(obv, 5),
			PriceSlope: meanDiff(cl, 5),
		},
		Pattern: patterns.Detect(klines),
	}

	return set, nil
}

// detectSqueeze flags a Bollinger squeeze: current band width below 70% of
// its 20-bar average.
func detectSqueeze(cl []float64, currentWidth float64) bool {
	if math.IsNaN(currentWidth) {
		return false
	}

	last := len(cl) - 1
	sum, n := 0.0, 0
	for i := last - 19; i <= last; i++ {
		w := bollingerWidthAt(cl, i, 20, 2)
		if !math.IsNaN(w) {
			sum += w
			n++
		}
	}
	if n == 0 {
		return false
	}
	return currentWidth < (sum/float64(n))*0.7
}

// TrendSnapshot is the reduced indicator view computed on confirmation
// timeframes, where the full lookback is not required.
type TrendSnapshot struct {
	Price     float64 `json:"price"`
	SMA7      float64 `json:"sma7"`
	SMA20     float64 `json:"sma20"`
	SMA25     float64 `json:"sma25"`
	PrevSMA7  float64 `json:"prev_sma7"`
	PrevSMA25 float64 `json:"prev_sma25"`
}

// ComputeTrendSnapshot builds the trend snapshot for a confirmation
// timeframe. Pure and deterministic like Compute.
func ComputeTrendSnapshot(klines []binance.Kline) (*TrendSnapshot, error) {
	if len(klines) < TrendLookback {
		return nil, &InsufficientDataError{Need: TrendLookback, Got: len(klines)}
	}

	cl := closes(klines)
	last := len(cl) - 1

	return &TrendSnapshot{
		Price:     cl[last],
		SMA7:      SMA(cl, 7),
		SMA20:     SMA(cl, 20),
		SMA25:     SMA(cl, 25),
		PrevSMA7:  SMA(cl[:last], 7),
		PrevSMA25: SMA(cl[:last], 25),
	}, nil
}

// Direction classifies the snapshot's trend: price against the 20-period
// SMA, with the SMA7/SMA25 relation as tie-breaker.
func (s *TrendSnapshot) Direction() TrendDirection {
	switch {
	case s.Price > s.SMA20:
		return TrendUp
	case s.Price < s.SMA20:
		return TrendDown
	case s.SMA7 > s.SMA25:
		return TrendUp
	case s.SMA7 < s.SMA25:
		return TrendDown
	default:
		return TrendSideways
	}
}
