package signal

import (
	"context"
	"errors"
	"testing"

	"crypto-signal-bot/internal/analysis"
	"crypto-signal-bot/internal/binance"
)

func TestConsensusInsufficientData(t *testing.T) {
	klines := make([]binance.Kline, 50)
	for i := range klines {
		klines[i] = binance.Kline{Open: 100, High: 101, Low: 99, Close: 100, Volume: 10}
	}

	verdict, err := TechnicalConsensus{}.Confirm(klines)
	if verdict != VerdictNeutral {
		t.Errorf("verdict = %s, want neutral on short input", verdict)
	}
	var insufficient *analysis.InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected *analysis.InsufficientDataError, got %v", err)
	}
	if insufficient.Got != 50 {
		t.Errorf("Got = %d, want 50", insufficient.Got)
	}
}

func TestConsensusDeterministic(t *testing.T) {
	mock := binance.NewMockClient()
	klines, err := mock.GetKlines(context.Background(), "BTCUSDT", "15m", analysis.FullLookback)
	if err != nil {
		t.Fatal(err)
	}

	a, err := TechnicalConsensus{}.Confirm(klines)
	if err != nil {
		t.Fatal(err)
	}
	b, err := TechnicalConsensus{}.Confirm(klines)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("same candles produced different verdicts: %s vs %s", a, b)
	}
}

func TestSummarize(t *testing.T) {
	cases := []struct {
		buy, sell int
		want      Verdict
	}{
		{3, 1, VerdictBuy},
		{1, 3, VerdictSell},
		{2, 2, VerdictNeutral},
		{0, 0, VerdictNeutral},
	}
	for _, tc := range cases {
		if got := summarize(tc.buy, tc.sell); got != tc.want {
			t.Errorf("summarize(%d, %d) = %s, want %s", tc.buy, tc.sell, got, tc.want)
		}
	}
}

// Both vote groups must lean the same way before the verdict leaves neutral.
func TestConsensusRequiresGroupAgreement(t *testing.T) {
	// Oscillators oversold but price below every moving average: the groups
	// disagree, so Confirm must stay neutral. Build a long decline.
	klines := make([]binance.Kline, analysis.FullLookback)
	price := 500.0
	for i := range klines {
		klines[i] = binance.Kline{
			Open:   price,
			High:   price + 1,
			Low:    price - 3,
			Close:  price - 2,
			Volume: 10,
		}
		price -= 2
	}

	verdict, err := TechnicalConsensus{}.Confirm(klines)
	if err != nil {
		t.Fatal(err)
	}
	if verdict != VerdictNeutral {
		t.Errorf("verdict = %s, want neutral when groups disagree", verdict)
	}
}
