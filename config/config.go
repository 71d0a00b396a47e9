// Package config loads configuration from config.json with environment
// variable overrides. Environment values take precedence over the file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"crypto-signal-bot/internal/scoring"
)

type Config struct {
	BinanceConfig      BinanceConfig      `json:"binance"`
	ScoringConfig      ScoringConfig      `json:"scoring"`
	ScannerConfig      ScannerConfig      `json:"scanner"`
	MonitorConfig      MonitorConfig      `json:"monitor"`
	ServerConfig       ServerConfig       `json:"server"`
	AuthConfig         AuthConfig         `json:"auth"`
	RedisConfig        RedisConfig        `json:"redis"`
	NotificationConfig NotificationConfig `json:"notification"`
	LoggingConfig      LoggingConfig      `json:"logging"`
}

// BinanceConfig holds market-data source settings. The bot is read-only, so
// no API credentials are needed.
type BinanceConfig struct {
	BaseURL  string `json:"base_url"`
	MockMode bool   `json:"mock_mode"` // Serve synthetic candles instead of hitting the API
}

// ScoringConfig holds the component weights and signal display threshold.
type ScoringConfig struct {
	Weights          scoring.Weights `json:"weights"`
	MinSignalScore   int             `json:"min_signal_score"`  // Display threshold only, never a classifier input
	DefaultTimeframe string          `json:"default_timeframe"` // e.g. "15m"
	CandlesLimit     int             `json:"candles_limit"`     // Minimum candle count requested
}

// ScannerConfig holds scan defaults.
type ScannerConfig struct {
	Symbols        []string `json:"symbols"`
	MaxConcurrency int      `json:"max_concurrency"`
	TopK           int      `json:"top_k"`
	CacheTTLSecs   int      `json:"cache_ttl_secs"`
}

// MonitorConfig holds position-monitor settings.
type MonitorConfig struct {
	Enabled      bool `json:"enabled"`
	IntervalSecs int  `json:"interval_secs"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int    `json:"port"`
	Host            string `json:"host"`
	AllowedOrigins  string `json:"allowed_origins"`
	ReadTimeout     int    `json:"read_timeout"`
	WriteTimeout    int    `json:"write_timeout"`
	ShutdownTimeout int    `json:"shutdown_timeout"`
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	Enabled             bool          `json:"enabled"`
	JWTSecret           string        `json:"jwt_secret"`
	AccessTokenDuration time.Duration `json:"access_token_duration"`
	AccessKeyHash       string        `json:"access_key_hash"` // bcrypt hash of the shared access key
}

// RedisConfig holds Redis settings for the candle cache and the
// recommendation store.
type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
}

// NotificationConfig holds alert provider settings.
type NotificationConfig struct {
	Enabled  bool           `json:"enabled"`
	Telegram TelegramConfig `json:"telegram"`
	Discord  DiscordConfig  `json:"discord"`
}

type TelegramConfig struct {
	Enabled  bool   `json:"enabled"`
	BotToken string `json:"bot_token"`
	ChatID   string `json:"chat_id"`
}

type DiscordConfig struct {
	Enabled    bool   `json:"enabled"`
	WebhookURL string `json:"webhook_url"`
}

type LoggingConfig struct {
	Level  string `json:"level"`
	Output string `json:"output"`
	Pretty bool   `json:"pretty"`
}

// Load reads config.json when present and applies environment overrides.
func Load() (*Config, error) {
	cfg, err := loadFromFile("config.json")
	if err != nil {
		cfg = &Config{}
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field invariants. Weight validation delegates to the
// scoring package so the contract lives in one place.
func (c *Config) Validate() error {
	if err := c.ScoringConfig.Weights.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.ScoringConfig.MinSignalScore < 0 || c.ScoringConfig.MinSignalScore > 100 {
		return fmt.Errorf("config: min_signal_score %d outside [0,100]", c.ScoringConfig.MinSignalScore)
	}
	if c.AuthConfig.Enabled && c.AuthConfig.JWTSecret == "" {
		return fmt.Errorf("config: auth enabled without a JWT secret")
	}
	return nil
}

func loadFromFile(filename string) (*Config, error) {
	file, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	return &config, nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.BinanceConfig.BaseURL = getEnvOrDefault("BINANCE_BASE_URL", cfg.BinanceConfig.BaseURL)
	cfg.BinanceConfig.MockMode = getEnvBoolOrDefault("MOCK_MODE", cfg.BinanceConfig.MockMode)

	cfg.ScoringConfig.MinSignalScore = getEnvIntOrDefault("MIN_SIGNAL_SCORE", cfg.ScoringConfig.MinSignalScore)
	cfg.ScoringConfig.DefaultTimeframe = getEnvOrDefault("DEFAULT_TIMEFRAME", cfg.ScoringConfig.DefaultTimeframe)
	cfg.ScoringConfig.CandlesLimit = getEnvIntOrDefault("CANDLES_LIMIT", cfg.ScoringConfig.CandlesLimit)

	if symbols := os.Getenv("SCAN_SYMBOLS"); symbols != "" {
		cfg.ScannerConfig.Symbols = splitSymbols(symbols)
	}
	cfg.ScannerConfig.MaxConcurrency = getEnvIntOrDefault("SCAN_MAX_CONCURRENCY", cfg.ScannerConfig.MaxConcurrency)
	cfg.ScannerConfig.TopK = getEnvIntOrDefault("SCAN_TOP_K", cfg.ScannerConfig.TopK)
	cfg.ScannerConfig.CacheTTLSecs = getEnvIntOrDefault("SCAN_CACHE_TTL_SECS", cfg.ScannerConfig.CacheTTLSecs)

	cfg.MonitorConfig.Enabled = getEnvBoolOrDefault("MONITOR_ENABLED", cfg.MonitorConfig.Enabled)
	cfg.MonitorConfig.IntervalSecs = getEnvIntOrDefault("MONITOR_INTERVAL_SECS", cfg.MonitorConfig.IntervalSecs)

	cfg.ServerConfig.Port = getEnvIntOrDefault("WEB_PORT", cfg.ServerConfig.Port)
	cfg.ServerConfig.Host = getEnvOrDefault("WEB_HOST", cfg.ServerConfig.Host)
	cfg.ServerConfig.AllowedOrigins = getEnvOrDefault("SERVER_ALLOWED_ORIGINS", cfg.ServerConfig.AllowedOrigins)

	cfg.AuthConfig.Enabled = getEnvBoolOrDefault("AUTH_ENABLED", cfg.AuthConfig.Enabled)
	cfg.AuthConfig.JWTSecret = getEnvOrDefault("AUTH_JWT_SECRET", cfg.AuthConfig.JWTSecret)
	cfg.AuthConfig.AccessTokenDuration = getEnvDurationOrDefault("AUTH_ACCESS_TOKEN_DURATION", cfg.AuthConfig.AccessTokenDuration)
	cfg.AuthConfig.AccessKeyHash = getEnvOrDefault("AUTH_ACCESS_KEY_HASH", cfg.AuthConfig.AccessKeyHash)

	cfg.RedisConfig.Enabled = getEnvBoolOrDefault("REDIS_ENABLED", cfg.RedisConfig.Enabled)
	cfg.RedisConfig.Address = getEnvOrDefault("REDIS_ADDRESS", cfg.RedisConfig.Address)
	cfg.RedisConfig.Password = getEnvOrDefault("REDIS_PASSWORD", cfg.RedisConfig.Password)
	cfg.RedisConfig.DB = getEnvIntOrDefault("REDIS_DB", cfg.RedisConfig.DB)

	cfg.NotificationConfig.Enabled = getEnvBoolOrDefault("NOTIFICATIONS_ENABLED", cfg.NotificationConfig.Enabled)
	cfg.NotificationConfig.Telegram.Enabled = getEnvBoolOrDefault("TELEGRAM_ENABLED", cfg.NotificationConfig.Telegram.Enabled)
	cfg.NotificationConfig.Telegram.BotToken = getEnvOrDefault("TELEGRAM_BOT_TOKEN", cfg.NotificationConfig.Telegram.BotToken)
	cfg.NotificationConfig.Telegram.ChatID = getEnvOrDefault("TELEGRAM_CHAT_ID", cfg.NotificationConfig.Telegram.ChatID)
	cfg.NotificationConfig.Discord.Enabled = getEnvBoolOrDefault("DISCORD_ENABLED", cfg.NotificationConfig.Discord.Enabled)
	cfg.NotificationConfig.Discord.WebhookURL = getEnvOrDefault("DISCORD_WEBHOOK_URL", cfg.NotificationConfig.Discord.WebhookURL)

	cfg.LoggingConfig.Level = getEnvOrDefault("LOG_LEVEL", cfg.LoggingConfig.Level)
	cfg.LoggingConfig.Output = getEnvOrDefault("LOG_OUTPUT", cfg.LoggingConfig.Output)
	cfg.LoggingConfig.Pretty = getEnvBoolOrDefault("LOG_PRETTY", cfg.LoggingConfig.Pretty)
}

func applyDefaults(cfg *Config) {
	if cfg.BinanceConfig.BaseURL == "" {
		// The market-data client speaks the Futures API (/fapi/v1/*), so
		// the default host must be the Futures one.
		cfg.BinanceConfig.BaseURL = "https://fapi.binance.com"
	}
	zero := scoring.Weights{}
	if cfg.ScoringConfig.Weights == zero {
		cfg.ScoringConfig.Weights = scoring.DefaultWeights()
	}
	if cfg.ScoringConfig.MinSignalScore == 0 {
		cfg.ScoringConfig.MinSignalScore = 60
	}
	if cfg.ScoringConfig.DefaultTimeframe == "" {
		cfg.ScoringConfig.DefaultTimeframe = "15m"
	}
	if cfg.ScoringConfig.CandlesLimit == 0 {
		cfg.ScoringConfig.CandlesLimit = 201
	}
	if cfg.ScannerConfig.MaxConcurrency == 0 {
		cfg.ScannerConfig.MaxConcurrency = 5
	}
	if cfg.ScannerConfig.TopK == 0 {
		cfg.ScannerConfig.TopK = 10
	}
	if cfg.ScannerConfig.CacheTTLSecs == 0 {
		cfg.ScannerConfig.CacheTTLSecs = 30
	}
	if cfg.MonitorConfig.IntervalSecs == 0 {
		cfg.MonitorConfig.IntervalSecs = 30
	}
	if cfg.ServerConfig.Port == 0 {
		cfg.ServerConfig.Port = 8080
	}
	if cfg.ServerConfig.Host == "" {
		cfg.ServerConfig.Host = "0.0.0.0"
	}
	if cfg.ServerConfig.AllowedOrigins == "" {
		cfg.ServerConfig.AllowedOrigins = "*"
	}
	if cfg.ServerConfig.ReadTimeout == 0 {
		cfg.ServerConfig.ReadTimeout = 30
	}
	if cfg.ServerConfig.WriteTimeout == 0 {
		cfg.ServerConfig.WriteTimeout = 30
	}
	if cfg.ServerConfig.ShutdownTimeout == 0 {
		cfg.ServerConfig.ShutdownTimeout = 10
	}
	if cfg.AuthConfig.AccessTokenDuration == 0 {
		cfg.AuthConfig.AccessTokenDuration = 24 * time.Hour
	}
	if cfg.RedisConfig.Address == "" {
		cfg.RedisConfig.Address = "localhost:6379"
	}
	if cfg.RedisConfig.PoolSize == 0 {
		cfg.RedisConfig.PoolSize = 10
	}
	if cfg.LoggingConfig.Level == "" {
		cfg.LoggingConfig.Level = "info"
	}
	if len(cfg.ScannerConfig.Symbols) == 0 {
		cfg.ScannerConfig.Symbols = []string{
			"BTCUSDT", "ETHUSDT", "BNBUSDT", "SOLUSDT", "XRPUSDT",
			"ADAUSDT", "DOGEUSDT", "AVAXUSDT", "DOTUSDT", "LINKUSDT",
		}
	}
}

func splitSymbols(s string) []string {
	parts := strings.Split(s, ",")
	symbols := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			symbols = append(symbols, strings.ToUpper(trimmed))
		}
	}
	return symbols
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
