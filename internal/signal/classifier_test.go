package signal

import (
	"testing"

	"crypto-signal-bot/internal/analysis"
)

func bullishCross() *analysis.TrendSnapshot {
	return &analysis.TrendSnapshot{
		Price: 105, SMA7: 102, SMA20: 101, SMA25: 101.5,
		PrevSMA7: 100.5, PrevSMA25: 101.8,
	}
}

func bearishCross() *analysis.TrendSnapshot {
	return &analysis.TrendSnapshot{
		Price: 95, SMA7: 98, SMA20: 99, SMA25: 98.5,
		PrevSMA7: 99.5, PrevSMA25: 98.2,
	}
}

func noCross() *analysis.TrendSnapshot {
	return &analysis.TrendSnapshot{
		Price: 100, SMA7: 102, SMA20: 100, SMA25: 101,
		PrevSMA7: 102, PrevSMA25: 101,
	}
}

func uptrend() *analysis.TrendSnapshot {
	return &analysis.TrendSnapshot{Price: 110, SMA7: 108, SMA20: 105, SMA25: 104}
}

func downtrend() *analysis.TrendSnapshot {
	return &analysis.TrendSnapshot{Price: 90, SMA7: 92, SMA20: 95, SMA25: 96}
}

func TestClassifyConfirmedLong(t *testing.T) {
	d := Classify(bullishCross(), uptrend(), VerdictBuy)
	if d.State != StateConfirmedLong {
		t.Errorf("state = %s, want %s", d.State, StateConfirmedLong)
	}
	if d.Signal != SignalLong {
		t.Errorf("signal = %s, want %s", d.Signal, SignalLong)
	}
	if d.Evidence.Cross != EvidenceBullish || d.Evidence.HigherTrend != EvidenceBullish || d.Evidence.Confirmation != EvidenceBullish {
		t.Errorf("evidence should be uniformly bullish, got %+v", d.Evidence)
	}
}

func TestClassifyConfirmedShort(t *testing.T) {
	d := Classify(bearishCross(), downtrend(), VerdictSell)
	if d.State != StateConfirmedShort {
		t.Errorf("state = %s, want %s", d.State, StateConfirmedShort)
	}
	if d.Signal != SignalShort {
		t.Errorf("signal = %s, want %s", d.Signal, SignalShort)
	}
}

// A bullish cross with an uptrend but a non-buy confirmation stays a
// candidate and the caller-facing signal stays WAIT.
func TestClassifyCandidateWithoutConfirmation(t *testing.T) {
	d := Classify(bullishCross(), uptrend(), VerdictSell)
	if d.State != StateLongCandidate {
		t.Errorf("state = %s, want %s", d.State, StateLongCandidate)
	}
	if d.Signal != SignalWait {
		t.Errorf("signal = %s, want %s", d.Signal, SignalWait)
	}
}

// Flipping a single evidence from a WAIT combination must never produce a
// confirmed signal: confirmation requires all three at once.
func TestClassifySingleEvidenceNeverConfirms(t *testing.T) {
	cases := []struct {
		name    string
		fast    *analysis.TrendSnapshot
		slow    *analysis.TrendSnapshot
		verdict Verdict
	}{
		{"cross only", bullishCross(), downtrend(), VerdictNeutral},
		{"trend only", noCross(), uptrend(), VerdictNeutral},
		{"confirmation only", noCross(), downtrend(), VerdictBuy},
		{"cross and trend", bullishCross(), uptrend(), VerdictNeutral},
		{"cross and confirmation", bullishCross(), downtrend(), VerdictBuy},
		{"trend and confirmation", noCross(), uptrend(), VerdictBuy},
	}
	for _, tc := range cases {
		d := Classify(tc.fast, tc.slow, tc.verdict)
		if d.Signal != SignalWait {
			t.Errorf("%s: signal = %s, want WAIT", tc.name, d.Signal)
		}
		if d.State == StateConfirmedLong || d.State == StateConfirmedShort {
			t.Errorf("%s: state = %s, should not confirm", tc.name, d.State)
		}
	}
}

func TestClassifyMixedDirectionsWait(t *testing.T) {
	d := Classify(bullishCross(), downtrend(), VerdictSell)
	if d.Signal != SignalWait {
		t.Errorf("signal = %s, want WAIT when evidences disagree", d.Signal)
	}
}

func TestClassifyNilSnapshots(t *testing.T) {
	d := Classify(nil, nil, VerdictNeutral)
	if d.Signal != SignalWait || d.State != StateNoSignal {
		t.Errorf("nil inputs should yield WAIT/NO_SIGNAL, got %+v", d)
	}
}

func TestCrossNeedsFreshCrossover(t *testing.T) {
	// SMA7 already above SMA25 on both candles: state, not a cross.
	s := &analysis.TrendSnapshot{
		Price: 105, SMA7: 103, SMA20: 101, SMA25: 100,
		PrevSMA7: 102, PrevSMA25: 100,
	}
	if got := crossDirection(s); got != EvidenceNeutral {
		t.Errorf("crossDirection = %s, want neutral for persistent state", got)
	}
}
