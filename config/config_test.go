package config

import (
	"testing"

	"crypto-signal-bot/internal/scoring"
)

func TestDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	if cfg.ScoringConfig.Weights != scoring.DefaultWeights() {
		t.Errorf("weights = %+v, want defaults", cfg.ScoringConfig.Weights)
	}
	// The client builds /fapi/v1/* paths, so the default host must be the
	// Futures API, not the spot one.
	if cfg.BinanceConfig.BaseURL != "https://fapi.binance.com" {
		t.Errorf("base_url = %s, want https://fapi.binance.com", cfg.BinanceConfig.BaseURL)
	}
	if cfg.ScoringConfig.CandlesLimit != 201 {
		t.Errorf("candles_limit = %d, want 201", cfg.ScoringConfig.CandlesLimit)
	}
	if cfg.ScoringConfig.DefaultTimeframe != "15m" {
		t.Errorf("default_timeframe = %s, want 15m", cfg.ScoringConfig.DefaultTimeframe)
	}
	if cfg.ScannerConfig.MaxConcurrency != 5 || cfg.ScannerConfig.TopK != 10 {
		t.Errorf("scanner defaults = %+v", cfg.ScannerConfig)
	}
	if len(cfg.ScannerConfig.Symbols) == 0 {
		t.Error("default symbol universe should not be empty")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SCAN_SYMBOLS", "btcusdt, ethusdt ,")
	t.Setenv("SCAN_MAX_CONCURRENCY", "12")
	t.Setenv("MIN_SIGNAL_SCORE", "75")
	t.Setenv("MOCK_MODE", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := &Config{}
	applyEnvOverrides(cfg)

	want := []string{"BTCUSDT", "ETHUSDT"}
	if len(cfg.ScannerConfig.Symbols) != len(want) {
		t.Fatalf("symbols = %v, want %v", cfg.ScannerConfig.Symbols, want)
	}
	for i, s := range want {
		if cfg.ScannerConfig.Symbols[i] != s {
			t.Errorf("symbol %d = %s, want %s", i, cfg.ScannerConfig.Symbols[i], s)
		}
	}
	if cfg.ScannerConfig.MaxConcurrency != 12 {
		t.Errorf("max_concurrency = %d, want 12", cfg.ScannerConfig.MaxConcurrency)
	}
	if cfg.ScoringConfig.MinSignalScore != 75 {
		t.Errorf("min_signal_score = %d, want 75", cfg.ScoringConfig.MinSignalScore)
	}
	if !cfg.BinanceConfig.MockMode {
		t.Error("mock_mode should be overridden to true")
	}
	if cfg.LoggingConfig.Level != "debug" {
		t.Errorf("log level = %s, want debug", cfg.LoggingConfig.Level)
	}
}

func TestValidateRejectsBadWeights(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.ScoringConfig.Weights = scoring.Weights{Trend: 0.9, Momentum: 0.9}

	if err := cfg.Validate(); err == nil {
		t.Error("expected weight-sum validation error")
	}
}

func TestValidateRejectsAuthWithoutSecret(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.AuthConfig.Enabled = true
	cfg.AuthConfig.JWTSecret = ""

	if err := cfg.Validate(); err == nil {
		t.Error("expected error for auth without JWT secret")
	}
}

func TestValidateRejectsOutOfRangeThreshold(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.ScoringConfig.MinSignalScore = 150

	if err := cfg.Validate(); err == nil {
		t.Error("expected error for min_signal_score above 100")
	}
}
