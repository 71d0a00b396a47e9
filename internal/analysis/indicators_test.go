package analysis

import (
	"math"
	"testing"

	"crypto-signal-bot/internal/binance"
)

func klinesFromCloses(closes []float64) []binance.Kline {
	out := make([]binance.Kline, len(closes))
	for i, c := range closes {
		out[i] = binance.Kline{
			OpenTime:  int64(i) * 900_000,
			Open:      c,
			High:      c * 1.01,
			Low:       c * 0.99,
			Close:     c,
			Volume:    100,
			CloseTime: int64(i)*900_000 + 899_999,
		}
	}
	return out
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSMA(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	if got := SMA(values, 5); !almostEqual(got, 3) {
		t.Errorf("SMA(1..5, 5) = %v, want 3", got)
	}
	if got := SMA(values, 2); !almostEqual(got, 4.5) {
		t.Errorf("SMA last two = %v, want 4.5", got)
	}
	if got := SMA(values, 6); !math.IsNaN(got) {
		t.Errorf("SMA over short series = %v, want NaN", got)
	}
	if got := SMA(values, 0); !math.IsNaN(got) {
		t.Errorf("SMA with zero period = %v, want NaN", got)
	}
}

func TestEMASeries(t *testing.T) {
	series := EMASeries([]float64{1, 2, 3, 4}, 2)

	if !math.IsNaN(series[0]) {
		t.Errorf("entry before seed should be NaN, got %v", series[0])
	}
	// Seed is the SMA of the first two values.
	if !almostEqual(series[1], 1.5) {
		t.Errorf("seed = %v, want 1.5", series[1])
	}
	if !almostEqual(series[2], 2.5) {
		t.Errorf("series[2] = %v, want 2.5", series[2])
	}
	if !almostEqual(series[3], 3.5) {
		t.Errorf("series[3] = %v, want 3.5", series[3])
	}
	if got := EMA([]float64{1, 2, 3, 4}, 2); !almostEqual(got, 3.5) {
		t.Errorf("EMA = %v, want 3.5", got)
	}
}

func TestRSISeries(t *testing.T) {
	rising := make([]float64, 20)
	for i := range rising {
		rising[i] = float64(100 + i)
	}
	rsi := RSISeries(rising, 14)
	if got := rsi[len(rsi)-1]; !almostEqual(got, 100) {
		t.Errorf("RSI of strictly rising series = %v, want 100", got)
	}
	for i := 0; i < 14; i++ {
		if !math.IsNaN(rsi[i]) {
			t.Fatalf("RSI before the first full period should be NaN at %d", i)
		}
	}

	flat := make([]float64, 20)
	for i := range flat {
		flat[i] = 100
	}
	if got := RSISeries(flat, 14)[19]; !almostEqual(got, 50) {
		t.Errorf("RSI of flat series = %v, want 50", got)
	}
}

func TestMACDSeriesSignalIsEMAOfMACD(t *testing.T) {
	values := make([]float64, 60)
	for i := range values {
		values[i] = 100 + math.Sin(float64(i)/5)*10
	}
	macd := MACDSeries(values, 12, 26, 9)

	last := macd[len(macd)-1]
	if math.IsNaN(last.MACD) || math.IsNaN(last.Signal) {
		t.Fatal("expected defined MACD and signal at the end of the series")
	}
	if !almostEqual(last.Histogram, last.MACD-last.Signal) {
		t.Errorf("histogram %v != macd-signal %v", last.Histogram, last.MACD-last.Signal)
	}
	// Before the slow EMA is defined there is no MACD value.
	if !math.IsNaN(macd[10].MACD) {
		t.Errorf("MACD before slow period should be NaN, got %v", macd[10].MACD)
	}
}

func TestBollinger(t *testing.T) {
	flat := make([]float64, 25)
	for i := range flat {
		flat[i] = 100
	}
	bands := Bollinger(flat, 20, 2)
	if !almostEqual(bands.Middle, 100) || !almostEqual(bands.Upper, 100) || !almostEqual(bands.Lower, 100) {
		t.Errorf("flat series should collapse the bands, got %+v", bands)
	}
	if !almostEqual(bands.Width, 0) {
		t.Errorf("flat series width = %v, want 0", bands.Width)
	}

	short := Bollinger([]float64{1, 2}, 20, 2)
	if !math.IsNaN(short.Middle) {
		t.Errorf("short series should produce NaN bands, got %+v", short)
	}
}

func TestATR(t *testing.T) {
	klines := make([]binance.Kline, 20)
	for i := range klines {
		klines[i] = binance.Kline{Open: 100, High: 102, Low: 98, Close: 100}
	}
	// Every true range is high-low = 4.
	if got := ATR(klines, 14); !almostEqual(got, 4) {
		t.Errorf("ATR = %v, want 4", got)
	}
	if got := ATR(klines[:10], 14); !math.IsNaN(got) {
		t.Errorf("ATR over short series = %v, want NaN", got)
	}
}

func TestOBVSeries(t *testing.T) {
	klines := []binance.Kline{
		{Close: 100, Volume: 10},
		{Close: 101, Volume: 20}, // up: +20
		{Close: 99, Volume: 5},   // down: -5
		{Close: 99, Volume: 50},  // flat: unchanged
	}
	obv := OBVSeries(klines)
	want := []float64{0, 20, 15, 15}
	for i := range want {
		if !almostEqual(obv[i], want[i]) {
			t.Errorf("obv[%d] = %v, want %v", i, obv[i], want[i])
		}
	}
}

func TestVolumeRatio(t *testing.T) {
	klines := make([]binance.Kline, 21)
	for i := range klines {
		klines[i] = binance.Kline{Close: 100, Volume: 10}
	}
	klines[20].Volume = 25
	if got := VolumeRatio(klines, 20); !almostEqual(got, 2.5) {
		t.Errorf("VolumeRatio = %v, want 2.5", got)
	}
	if got := VolumeRatio(klines[:10], 20); !math.IsNaN(got) {
		t.Errorf("VolumeRatio over short series = %v, want NaN", got)
	}
}

func TestStochasticAt(t *testing.T) {
	klines := make([]binance.Kline, 20)
	for i := range klines {
		price := 100 + float64(i)
		klines[i] = binance.Kline{High: price + 1, Low: price - 1, Close: price}
	}
	stoch := StochasticAt(klines, 19, 14, 3)
	if stoch.K < 90 {
		t.Errorf("rising series %%K = %v, want near 100", stoch.K)
	}
	if math.IsNaN(stoch.D) {
		t.Error("expected defined %D")
	}
}
