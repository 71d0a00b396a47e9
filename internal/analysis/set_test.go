package analysis

import (
	"errors"
	"math"
	"testing"
)

func trendingCloses(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step + math.Sin(float64(i)/7)*2
	}
	return out
}

func TestComputeRejectsShortWindow(t *testing.T) {
	klines := klinesFromCloses(trendingCloses(FullLookback-1, 100, 0.5))
	_, err := Compute(klines)

	var insufficient *InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientDataError, got %v", err)
	}
	if insufficient.Need != FullLookback || insufficient.Got != FullLookback-1 {
		t.Errorf("unexpected error detail: %+v", insufficient)
	}
}

func TestComputeDeterministic(t *testing.T) {
	klines := klinesFromCloses(trendingCloses(FullLookback, 100, 0.5))

	a, err := Compute(klines)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Compute(klines)
	if err != nil {
		t.Fatal(err)
	}
	if *a != *b {
		t.Error("identical input should produce identical indicator sets")
	}
}

func TestComputeFullSet(t *testing.T) {
	klines := klinesFromCloses(trendingCloses(FullLookback, 100, 0.5))
	set, err := Compute(klines)
	if err != nil {
		t.Fatal(err)
	}

	if set.Price != klines[len(klines)-1].Close {
		t.Errorf("price = %v, want last close %v", set.Price, klines[len(klines)-1].Close)
	}
	for name, v := range map[string]float64{
		"sma7":   set.Trend.SMA7,
		"sma25":  set.Trend.SMA25,
		"ema200": set.Trend.EMA200,
		"macd":   set.Trend.MACD,
		"rsi":    set.Momentum.RSI,
		"atr":    set.Volatility.ATR,
		"ratio":  set.Volume.Ratio,
	} {
		if math.IsNaN(v) {
			t.Errorf("%s should be defined with a full lookback", name)
		}
	}
	// A steadily rising series keeps the fast average above the slow one.
	if set.Trend.SMA7 <= set.Trend.SMA25 {
		t.Errorf("uptrend should keep SMA7 (%v) above SMA25 (%v)", set.Trend.SMA7, set.Trend.SMA25)
	}
	if set.Momentum.RSI < 50 {
		t.Errorf("uptrend RSI = %v, want above 50", set.Momentum.RSI)
	}
}

func TestComputeTrendSnapshotRejectsShortWindow(t *testing.T) {
	klines := klinesFromCloses(trendingCloses(TrendLookback-1, 100, 1))
	_, err := ComputeTrendSnapshot(klines)

	var insufficient *InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientDataError, got %v", err)
	}
}

func TestTrendSnapshotDirection(t *testing.T) {
	tests := []struct {
		name string
		snap TrendSnapshot
		want TrendDirection
	}{
		{"price above sma20", TrendSnapshot{Price: 110, SMA20: 100}, TrendUp},
		{"price below sma20", TrendSnapshot{Price: 90, SMA20: 100}, TrendDown},
		{"tie broken by fast above slow", TrendSnapshot{Price: 100, SMA20: 100, SMA7: 101, SMA25: 99}, TrendUp},
		{"tie broken by fast below slow", TrendSnapshot{Price: 100, SMA20: 100, SMA7: 99, SMA25: 101}, TrendDown},
		{"all equal", TrendSnapshot{Price: 100, SMA20: 100, SMA7: 100, SMA25: 100}, TrendSideways},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.snap.Direction(); got != tt.want {
				t.Errorf("Direction() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseTimeframe(t *testing.T) {
	tf, err := ParseTimeframe("15m")
	if err != nil {
		t.Fatal(err)
	}
	if tf != TF15m {
		t.Errorf("expected TF15m, got %v", tf)
	}

	if _, err := ParseTimeframe("3m"); err == nil {
		t.Error("expected error for unsupported timeframe")
	}
}
