package scanner

import (
	"context"

	"github.com/rs/zerolog"

	"crypto-signal-bot/internal/analysis"
	"crypto-signal-bot/internal/binance"
	"crypto-signal-bot/internal/scoring"
	"crypto-signal-bot/internal/signal"
)

// Evaluator runs the full per-symbol pipeline: fetch candles on the primary
// and confirmation timeframes, compute indicators, score, and classify. It
// is shared by the scanner workers and the single-symbol analyze endpoint.
type Evaluator struct {
	client       binance.MarketDataClient
	scorer       *scoring.Scorer
	confirmation signal.ConfirmationSource
	candlesLimit int
	logger       zerolog.Logger
}

// NewEvaluator wires the evaluation pipeline. candlesLimit below the full
// indicator lookback is raised to it.
func NewEvaluator(
	client binance.MarketDataClient,
	scorer *scoring.Scorer,
	confirmation signal.ConfirmationSource,
	candlesLimit int,
	logger zerolog.Logger,
) *Evaluator {
	if candlesLimit < analysis.FullLookback {
		candlesLimit = analysis.FullLookback
	}
	return &Evaluator{
		client:       client,
		scorer:       scorer,
		confirmation: confirmation,
		candlesLimit: candlesLimit,
		logger:       logger,
	}
}

// Evaluate scores and classifies one symbol on the given primary timeframe.
// The crossover evidence is always computed on 15m candles and the trend
// evidence on 4h candles, independent of the primary. Data-source and
// insufficient-data failures come back inside the report; the returned
// error is reserved for contract violations.
func (e *Evaluator) Evaluate(ctx context.Context, symbol string, tf analysis.Timeframe) (*SymbolReport, error) {
	report := &SymbolReport{Symbol: symbol}

	primary, err := e.client.GetKlines(ctx, symbol, tf.Interval(), e.candlesLimit)
	if err != nil {
		e.logger.Debug().Str("symbol", symbol).Err(err).Msg("primary candle fetch failed")
		report.Error = err.Error()
		return report, nil
	}

	confirm, err := e.client.GetKlines(ctx, symbol, analysis.TF4h.Interval(), analysis.TrendLookback+1)
	if err != nil {
		e.logger.Debug().Str("symbol", symbol).Err(err).Msg("confirmation candle fetch failed")
		report.Error = err.Error()
		return report, nil
	}

	set, err := analysis.Compute(primary)
	if err != nil {
		report.Error = err.Error()
		return report, nil
	}

	score, err := e.scorer.Score(set)
	if err != nil {
		// Contract violations are programming errors, not per-symbol noise.
		return nil, err
	}

	// The crossover evidence is always read on 15m, whatever timeframe the
	// scan scores on. When the primary already is 15m the fetched candles
	// are reused.
	fastKlines := primary
	if tf != analysis.TF15m {
		fastKlines, err = e.client.GetKlines(ctx, symbol, analysis.TF15m.Interval(), analysis.TrendLookback+1)
		if err != nil {
			e.logger.Debug().Str("symbol", symbol).Err(err).Msg("crossover candle fetch failed")
			report.Error = err.Error()
			return report, nil
		}
	}
	fastSnap, err := analysis.ComputeTrendSnapshot(fastKlines)
	if err != nil {
		report.Error = err.Error()
		return report, nil
	}
	slowSnap, err := analysis.ComputeTrendSnapshot(confirm)
	if err != nil {
		report.Error = err.Error()
		return report, nil
	}

	// A confirmation source that cannot produce a verdict degrades the
	// evidence to neutral instead of failing the symbol.
	verdict, err := e.confirmation.Confirm(primary)
	if err != nil {
		verdict = signal.VerdictNeutral
	}

	report.Price = set.Price
	report.Indicators = set
	report.Score = score
	report.Decision = signal.Classify(fastSnap, slowSnap, verdict)
	return report, nil
}
