// Package signal implements the multi-timeframe conjunctive classifier: a
// directional call requires a fresh 15-minute MA7/MA25 cross, a matching
// 4-hour trend, and a matching external confirmation, all at once. The rule
// is deliberately strict; a high opportunity score with a WAIT signal is
// normal and expected.
package signal

import "crypto-signal-bot/internal/analysis"

// SignalState is the directional classification exposed to callers.
type SignalState string

const (
	SignalLong  SignalState = "LONG"
	SignalShort SignalState = "SHORT"
	SignalWait  SignalState = "WAIT"
)

// State is the classifier's internal terminal state for one evaluation.
// The machine is evaluated once per scan cycle; nothing carries over
// between scans.
type State string

const (
	StateNoSignal       State = "NO_SIGNAL"
	StateLongCandidate  State = "LONG_CANDIDATE"
	StateShortCandidate State = "SHORT_CANDIDATE"
	StateConfirmedLong  State = "CONFIRMED_LONG"
	StateConfirmedShort State = "CONFIRMED_SHORT"
)

// EvidenceDirection is the direction one piece of evidence points.
type EvidenceDirection string

const (
	EvidenceBullish EvidenceDirection = "bullish"
	EvidenceBearish EvidenceDirection = "bearish"
	EvidenceNeutral EvidenceDirection = "neutral"
)

// Evidence records the three inputs the classifier evaluated.
type Evidence struct {
	Cross        EvidenceDirection `json:"cross"`
	HigherTrend  EvidenceDirection `json:"higher_trend"`
	Confirmation EvidenceDirection `json:"confirmation"`
}

// Decision is the classifier output: the caller-facing signal, the terminal
// state it came from, and the evidence behind it.
type Decision struct {
	Signal   SignalState `json:"signal"`
	State    State       `json:"state"`
	Evidence Evidence    `json:"evidence"`
}

// Classify evaluates one instrument. fast is the 15-minute trend snapshot,
// slow the 4-hour one, verdict the external confirmation. Only when all
// three evidences agree does the signal leave WAIT.
func Classify(fast, slow *analysis.TrendSnapshot, verdict Verdict) Decision {
	ev := Evidence{
		Cross:        crossDirection(fast),
		HigherTrend:  trendDirection(slow),
		Confirmation: verdictDirection(verdict),
	}

	d := Decision{Signal: SignalWait, State: StateNoSignal, Evidence: ev}

	switch ev.Cross {
	case EvidenceBullish:
		d.State = StateLongCandidate
		if ev.HigherTrend == EvidenceBullish && ev.Confirmation == EvidenceBullish {
			d.State = StateConfirmedLong
			d.Signal = SignalLong
		}
	case EvidenceBearish:
		d.State = StateShortCandidate
		if ev.HigherTrend == EvidenceBearish && ev.Confirmation == EvidenceBearish {
			d.State = StateConfirmedShort
			d.Signal = SignalShort
		}
	}

	return d
}

// crossDirection reports a fresh MA7/MA25 crossover at the latest candle,
// not a mere above/below state.
func crossDirection(s *analysis.TrendSnapshot) EvidenceDirection {
	if s == nil {
		return EvidenceNeutral
	}
	if s.SMA7 > s.SMA25 && s.PrevSMA7 <= s.PrevSMA25 {
		return EvidenceBullish
	}
	if s.SMA7 < s.SMA25 && s.PrevSMA7 >= s.PrevSMA25 {
		return EvidenceBearish
	}
	return EvidenceNeutral
}

func trendDirection(s *analysis.TrendSnapshot) EvidenceDirection {
	if s == nil {
		return EvidenceNeutral
	}
	switch s.Direction() {
	case analysis.TrendUp:
		return EvidenceBullish
	case analysis.TrendDown:
		return EvidenceBearish
	default:
		return EvidenceNeutral
	}
}

func verdictDirection(v Verdict) EvidenceDirection {
	switch v {
	case VerdictBuy:
		return EvidenceBullish
	case VerdictSell:
		return EvidenceBearish
	default:
		return EvidenceNeutral
	}
}
