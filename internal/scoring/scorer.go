// Package scoring converts indicator snapshots into weighted opportunity
// scores. Every sub-score is a total, monotonic mapping into [0,100] with 50
// as the neutral midpoint; indicator values that are unavailable (NaN)
// contribute neutrally instead of failing.
package scoring

import (
	"fmt"
	"math"

	"crypto-signal-bot/internal/analysis"
	"crypto-signal-bot/internal/patterns"
)

// ContractViolationError reports a programming error: a weight set that does
// not sum to 1.0 or a sub-score outside [0,100]. It is never silently
// corrected.
type ContractViolationError struct {
	Detail string
}

func (e *ContractViolationError) Error() string {
	return "scoring contract violation: " + e.Detail
}

// Weights holds the five component weights. They must sum to 1.0.
type Weights struct {
	Trend      float64 `json:"trend"`
	Momentum   float64 `json:"momentum"`
	Volatility float64 `json:"volatility"`
	Volume     float64 `json:"volume"`
	Pattern    float64 `json:"pattern"`
}

// DefaultWeights returns the standard component weighting.
func DefaultWeights() Weights {
	return Weights{
		Trend:      0.35,
		Momentum:   0.30,
		Volatility: 0.15,
		Volume:     0.15,
		Pattern:    0.05,
	}
}

// Validate checks the weight-sum invariant.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"trend": w.Trend, "momentum": w.Momentum, "volatility": w.Volatility,
		"volume": w.Volume, "pattern": w.Pattern,
	} {
		if v < 0 || v > 1 || math.IsNaN(v) {
			return &ContractViolationError{Detail: fmt.Sprintf("weight %s out of range: %v", name, v)}
		}
	}
	sum := w.Trend + w.Momentum + w.Volatility + w.Volume + w.Pattern
	if math.Abs(sum-1.0) > 1e-9 {
		return &ContractViolationError{Detail: fmt.Sprintf("weights sum to %.12f, want 1.0", sum)}
	}
	return nil
}

// ComponentScore holds the five sub-scores and their weighted combination.
type ComponentScore struct {
	Trend      float64 `json:"trend"`
	Momentum   float64 `json:"momentum"`
	Volatility float64 `json:"volatility"`
	Volume     float64 `json:"volume"`
	Pattern    float64 `json:"pattern"`

	// Opportunity is the weighted composite in [0,100].
	Opportunity float64 `json:"opportunity"`
}

// Scorer maps indicator sets to component scores with a fixed weight set.
type Scorer struct {
	weights Weights
}

// NewScorer creates a scorer, validating the weight-sum invariant at
// construction time.
func NewScorer(weights Weights) (*Scorer, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{weights: weights}, nil
}

// Weights returns the configured weights.
func (s *Scorer) Weights() Weights {
	return s.weights
}

// Score converts one indicator snapshot into a component score. Pure and
// deterministic: identical snapshots yield identical scores.
func (s *Scorer) Score(set *analysis.IndicatorSet) (*ComponentScore, error) {
	cs := &ComponentScore{
		Trend:      scoreTrend(set),
		Momentum:   scoreMomentum(set),
		Volatility: scoreVolatility(set),
		Volume:     scoreVolume(set),
		Pattern:    scorePattern(set.Pattern),
	}

	for name, v := range map[string]float64{
		"trend": cs.Trend, "momentum": cs.Momentum, "volatility": cs.Volatility,
		"volume": cs.Volume, "pattern": cs.Pattern,
	} {
		if math.IsNaN(v) || v < 0 || v > 100 {
			return nil, &ContractViolationError{Detail: fmt.Sprintf("sub-score %s out of range: %v", name, v)}
		}
	}

	cs.Opportunity = cs.Trend*s.weights.Trend +
		cs.Momentum*s.weights.Momentum +
		cs.Volatility*s.weights.Volatility +
		cs.Volume*s.weights.Volume +
		cs.Pattern*s.weights.Pattern

	return cs, nil
}

// scoreTrend scores EMA alignment, price position, and the MACD state.
// Delta range ±55, mapped onto [0,100] around 50.
func scoreTrend(set *analysis.IndicatorSet) float64 {
	t := set.Trend
	delta := 0.0

	switch {
	case allDefined(t.EMA9, t.EMA21, t.EMA50, t.EMA200) && t.EMA9 > t.EMA21 && t.EMA21 > t.EMA50 && t.EMA50 > t.EMA200:
		delta += 25
	case allDefined(t.EMA9, t.EMA21, t.EMA50) && t.EMA9 > t.EMA21 && t.EMA21 > t.EMA50:
		delta += 15
	case allDefined(t.EMA21, t.EMA50, t.EMA200) && t.EMA21 > t.EMA50 && t.EMA50 > t.EMA200:
		delta += 10
	case allDefined(t.EMA9, t.EMA21, t.EMA50, t.EMA200) && t.EMA9 < t.EMA21 && t.EMA21 < t.EMA50 && t.EMA50 < t.EMA200:
		delta -= 25
	case allDefined(t.EMA9, t.EMA21, t.EMA50) && t.EMA9 < t.EMA21 && t.EMA21 < t.EMA50:
		delta -= 15
	case allDefined(t.EMA21, t.EMA50, t.EMA200) && t.EMA21 < t.EMA50 && t.EMA50 < t.EMA200:
		delta -= 10
	}

	if allDefined(t.EMA9) {
		if set.Price > t.EMA9 {
			delta += 5
		} else {
			delta -= 5
		}
	}
	if allDefined(t.EMA200) {
		if set.Price > t.EMA200 {
			delta += 10
		} else {
			delta -= 10
		}
	}

	if allDefined(t.MACDHist, t.PrevMACDHist) {
		switch {
		case t.MACDHist > 0 && t.PrevMACDHist <= 0:
			delta += 15 // fresh bullish cross
		case t.MACDHist > 0:
			delta += 8
		case t.MACDHist < 0 && t.PrevMACDHist >= 0:
			delta -= 15 // fresh bearish cross
		case t.MACDHist < 0:
			delta -= 8
		}
	}

	return midpoint(delta, 55)
}

// scoreMomentum scores RSI bands, RSI/price divergence, and the stochastic
// oscillator. Delta range ±60.
func scoreMomentum(set *analysis.IndicatorSet) float64 {
	m := set.Momentum
	delta := 0.0

	if allDefined(m.RSI) {
		switch {
		case m.RSI < 30:
			delta += 20
		case m.RSI < 40:
			delta += 10
		case m.RSI > 70:
			delta -= 20
		case m.RSI > 60:
			delta -= 10
		}
	}

	if allDefined(m.RSISlope, set.Volume.PriceSlope) {
		if m.RSISlope > 0 && set.Volume.PriceSlope < 0 {
			delta += 15 // bullish divergence
		} else if m.RSISlope < 0 && set.Volume.PriceSlope > 0 {
			delta -= 15
		}
	}

	if allDefined(m.StochK, m.StochD, m.PrevStochK, m.PrevStochD) {
		switch {
		case m.StochK < 20:
			delta += 10
		case m.StochK > 80:
			delta -= 10
		}
		if m.StochK > m.StochD && m.PrevStochK <= m.PrevStochD && m.StochK < 50 {
			delta += 15
		} else if m.StochK < m.StochD && m.PrevStochK >= m.PrevStochD && m.StochK > 50 {
			delta -= 15
		}
	}

	return midpoint(delta, 60)
}

// scoreVolatility scores the price position inside the Bollinger Bands plus
// a squeeze bonus. Delta range ±25.
func scoreVolatility(set *analysis.IndicatorSet) float64 {
	v := set.Volatility
	delta := 0.0

	if allDefined(v.Bands.Upper, v.Bands.Lower) && v.Bands.Upper > v.Bands.Lower {
		position := (set.Price - v.Bands.Lower) / (v.Bands.Upper - v.Bands.Lower)
		switch {
		case set.Price <= v.Bands.Lower:
			delta += 20
		case position < 0.3:
			delta += 10
		case set.Price >= v.Bands.Upper:
			delta -= 20
		case position > 0.7:
			delta -= 10
		}
	}

	if v.Squeeze {
		delta += 5 // compressed bands precede a move
	}

	return midpoint(delta, 25)
}

// scoreVolume scores relative volume and OBV/price agreement. Delta
// range ±30.
func scoreVolume(set *analysis.IndicatorSet) float64 {
	vol := set.Volume
	delta := 0.0

	if allDefined(vol.Ratio) {
		switch {
		case vol.Ratio > 2:
			delta += 15
		case vol.Ratio > 1.5:
			delta += 10
		case vol.Ratio < 0.5:
			delta -= 5
		}
	}

	if allDefined(vol.OBVSlope, vol.PriceSlope) {
		switch {
		case vol.OBVSlope > 0 && vol.PriceSlope < 0:
			delta += 15 // accumulation against price
		case vol.OBVSlope < 0 && vol.PriceSlope > 0:
			delta -= 15
		case vol.OBVSlope > 0 && vol.PriceSlope > 0:
			delta += 10
		case vol.OBVSlope < 0 && vol.PriceSlope < 0:
			delta -= 10
		}
	}

	return midpoint(delta, 30)
}

// scorePattern scores the detected candlestick pattern by direction and
// per-pattern strength. Delta range ±25.
func scorePattern(det patterns.Detection) float64 {
	delta := 0.0
	switch det.Direction {
	case patterns.Bullish:
		delta = 25 * det.Strength
	case patterns.Bearish:
		delta = -25 * det.Strength
	}
	return midpoint(delta, 25)
}

// midpoint maps a delta in [-maxDelta, maxDelta] onto [0,100] around 50.
func midpoint(delta, maxDelta float64) float64 {
	return 50 + delta*50/maxDelta
}

func allDefined(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) {
			return false
		}
	}
	return true
}
