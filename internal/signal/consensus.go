package signal

import (
	"math"

	"crypto-signal-bot/internal/analysis"
	"crypto-signal-bot/internal/binance"
)

// Verdict is the direction reported by a confirmation source.
type Verdict string

const (
	VerdictBuy     Verdict = "buy"
	VerdictSell    Verdict = "sell"
	VerdictNeutral Verdict = "neutral"
)

// ConfirmationSource supplies the external indicator confirmation evidence.
// Implementations may derive it from the candle data itself or from an
// independent feed; the classifier only consumes the verdict.
type ConfirmationSource interface {
	Confirm(klines []binance.Kline) (Verdict, error)
}

// TechnicalConsensus derives a verdict from the candles using a vote across
// oscillators and moving averages, in the style of aggregate
// technical-rating feeds. Both vote groups must agree for a non-neutral
// verdict.
type TechnicalConsensus struct{}

// maVotePeriods are the EMA periods polled for price-position votes.
var maVotePeriods = []int{10, 20, 30, 50, 100, 200}

// Confirm tallies oscillator votes and moving average votes over the candle
// sequence. Returns VerdictBuy or VerdictSell only when both groups lean the
// same way.
func (TechnicalConsensus) Confirm(klines []binance.Kline) (Verdict, error) {
	if len(klines) < analysis.FullLookback {
		return VerdictNeutral, &analysis.InsufficientDataError{
			Need: analysis.FullLookback,
			Got:  len(klines),
		}
	}

	values := make([]float64, len(klines))
	for i, k := range klines {
		values[i] = k.Close
	}
	price := values[len(values)-1]

	oscBuy, oscSell := oscillatorVotes(klines, values)
	maBuy, maSell := movingAverageVotes(price, values)

	osc := summarize(oscBuy, oscSell)
	ma := summarize(maBuy, maSell)

	if osc == VerdictBuy && ma == VerdictBuy {
		return VerdictBuy, nil
	}
	if osc == VerdictSell && ma == VerdictSell {
		return VerdictSell, nil
	}
	return VerdictNeutral, nil
}

func oscillatorVotes(klines []binance.Kline, values []float64) (buy, sell int) {
	rsiSeries := analysis.RSISeries(values, 14)
	rsi := rsiSeries[len(rsiSeries)-1]
	if !math.IsNaN(rsi) {
		if rsi < 40 {
			buy++
		} else if rsi > 60 {
			sell++
		}
	}

	stoch := analysis.StochasticAt(klines, len(klines)-1, 14, 3)
	if !math.IsNaN(stoch.K) {
		if stoch.K < 20 {
			buy++
		} else if stoch.K > 80 {
			sell++
		}
	}

	return buy, sell
}

func movingAverageVotes(price float64, values []float64) (buy, sell int) {
	for _, period := range maVotePeriods {
		ema := analysis.EMA(values, period)
		if math.IsNaN(ema) {
			continue
		}
		if price > ema {
			buy++
		} else if price < ema {
			sell++
		}
	}
	return buy, sell
}

func summarize(buy, sell int) Verdict {
	switch {
	case buy > sell:
		return VerdictBuy
	case sell > buy:
		return VerdictSell
	default:
		return VerdictNeutral
	}
}
