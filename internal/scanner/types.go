package scanner

import (
	"time"

	"crypto-signal-bot/internal/analysis"
	"crypto-signal-bot/internal/scoring"
	"crypto-signal-bot/internal/signal"
)

// ScanOptions configures a single scan request.
type ScanOptions struct {
	Symbols        []string           `json:"symbols"`
	Timeframe      analysis.Timeframe `json:"timeframe"`
	MaxConcurrency int                `json:"max_concurrency"`
	TopK           int                `json:"top_k"`
}

// Defaults used when an option is zero.
const (
	DefaultMaxConcurrency = 5
	DefaultTopK           = 10
)

// SymbolReport is the per-symbol evaluation outcome. Exactly one of
// Score/Decision or Error is meaningful.
type SymbolReport struct {
	Symbol     string                 `json:"symbol"`
	Price      float64                `json:"price,omitempty"`
	Score      *scoring.ComponentScore `json:"score,omitempty"`
	Decision   signal.Decision        `json:"decision"`
	Indicators *analysis.IndicatorSet `json:"indicators,omitempty"`
	Error      string                 `json:"error,omitempty"`
}

// Failed reports whether the symbol could not be scored.
func (r *SymbolReport) Failed() bool {
	return r.Error != ""
}

// RankedEntry is one row of the final ranking.
type RankedEntry struct {
	Symbol string             `json:"symbol"`
	Score  float64            `json:"score"`
	Signal signal.SignalState `json:"signal"`
}

// Outcome distinguishes why a result list may be empty.
type Outcome string

const (
	// OutcomeSignals means at least one confirmed directional signal.
	OutcomeSignals Outcome = "signals_found"
	// OutcomeNoSignals means symbols were scored but none confirmed.
	OutcomeNoSignals Outcome = "no_qualifying_signals"
	// OutcomeNoData means not a single symbol could be scored.
	OutcomeNoData Outcome = "no_data"
)

// Progress is the completed/total counter pair for a scan.
type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// ScanResult is the ranked output of a scan. Before completion it holds the
// best-so-far ranking over completed entries only.
type ScanResult struct {
	ScanID    string        `json:"scan_id"`
	Requester string        `json:"requester"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
	Total     int           `json:"total"`
	Completed int           `json:"completed"`
	Scored    int           `json:"scored"`
	Failed    int           `json:"failed"`
	Cancelled bool          `json:"cancelled"`
	Outcome   Outcome       `json:"outcome"`
	Entries   []RankedEntry `json:"entries"`
}
