package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crypto-signal-bot/config"
	"crypto-signal-bot/internal/api"
	"crypto-signal-bot/internal/auth"
	"crypto-signal-bot/internal/binance"
	"crypto-signal-bot/internal/cache"
	"crypto-signal-bot/internal/events"
	"crypto-signal-bot/internal/logging"
	"crypto-signal-bot/internal/monitor"
	"crypto-signal-bot/internal/notification"
	"crypto-signal-bot/internal/scanner"
	"crypto-signal-bot/internal/scoring"
	sig "crypto-signal-bot/internal/signal"
	"crypto-signal-bot/internal/store"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	logger := logging.New(logging.Config{
		Level:  cfg.LoggingConfig.Level,
		Output: cfg.LoggingConfig.Output,
		Pretty: cfg.LoggingConfig.Pretty,
	})
	logger.Info().Msg("configuration loaded")

	bus := events.NewBus()

	var redisClient *redis.Client
	if cfg.RedisConfig.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisConfig.Address,
			Password: cfg.RedisConfig.Password,
			DB:       cfg.RedisConfig.DB,
			PoolSize: cfg.RedisConfig.PoolSize,
		})
		defer redisClient.Close()
	}

	var market binance.MarketDataClient
	if cfg.BinanceConfig.MockMode {
		logger.Warn().Msg("mock mode enabled, serving synthetic market data")
		market = binance.NewMockClient()
	} else {
		market = binance.NewClient(cfg.BinanceConfig.BaseURL, logger)
	}
	candleTTL := time.Duration(cfg.ScannerConfig.CacheTTLSecs) * time.Second
	market = cache.NewCandleCache(market, redisClient, candleTTL, logger)

	scorer, err := scoring.NewScorer(cfg.ScoringConfig.Weights)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid scoring weights")
	}

	evaluator := scanner.NewEvaluator(
		market,
		scorer,
		sig.TechnicalConsensus{},
		cfg.ScoringConfig.CandlesLimit,
		logger,
	)
	sc := scanner.NewScanner(evaluator, bus, logger)

	recs := store.NewRecommendationStore(redisClient, logger)

	var notifier *notification.Manager
	if cfg.NotificationConfig.Enabled {
		notifier = notification.NewManager()
		if cfg.NotificationConfig.Telegram.Enabled {
			notifier.AddProvider(notification.NewTelegramProvider(notification.TelegramConfig{
				BotToken: cfg.NotificationConfig.Telegram.BotToken,
				ChatID:   cfg.NotificationConfig.Telegram.ChatID,
				Enabled:  true,
			}))
			logger.Info().Msg("telegram notifications enabled")
		}
		if cfg.NotificationConfig.Discord.Enabled {
			notifier.AddProvider(notification.NewDiscordProvider(notification.DiscordConfig{
				WebhookURL: cfg.NotificationConfig.Discord.WebhookURL,
				Enabled:    true,
			}))
			logger.Info().Msg("discord notifications enabled")
		}
	}

	var mon *monitor.Monitor
	if cfg.MonitorConfig.Enabled {
		var monNotifier monitor.Notifier
		if notifier != nil {
			monNotifier = notifier
		}
		mon = monitor.NewMonitor(
			market,
			recs,
			bus,
			monNotifier,
			time.Duration(cfg.MonitorConfig.IntervalSecs)*time.Second,
			logger,
		)
		mon.Start()
		logger.Info().Int("interval_secs", cfg.MonitorConfig.IntervalSecs).Msg("position monitor started")
	}

	// Confirmed signals become tracked recommendations so the monitor can
	// watch their exit levels across restarts.
	trackSignals(bus, recs, logger, mon != nil)

	var authManager *auth.Manager
	if cfg.AuthConfig.Enabled {
		authManager = auth.NewManager(
			cfg.AuthConfig.JWTSecret,
			cfg.AuthConfig.AccessKeyHash,
			cfg.AuthConfig.AccessTokenDuration,
		)
		logger.Info().Msg("API authentication enabled")
	}

	server := api.NewServer(cfg, sc, evaluator, recs, bus, authManager, logger)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sigChan:
		logger.Info().Str("signal", s.String()).Msg("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			logger.Error().Err(err).Msg("server stopped unexpectedly")
		}
	}

	if mon != nil {
		mon.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.ServerConfig.ShutdownTimeout)*time.Second,
	)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}

	logger.Info().Msg("shutdown complete")
}

// Exit levels for tracked recommendations, relative to the entry price.
const (
	takeProfitPct = 0.03
	stopLossPct   = 0.015
)

// trackSignals persists every confirmed signal as a recommendation. When
// the monitor is disabled the recommendations are still stored for the
// recommendations endpoint.
func trackSignals(bus *events.Bus, recs *store.RecommendationStore, logger zerolog.Logger, monitored bool) {
	bus.Subscribe(events.EventSignalConfirmed, func(event events.Event) {
		symbol, _ := event.Data["symbol"].(string)
		signalState, _ := event.Data["signal"].(string)
		score, _ := event.Data["score"].(float64)
		price, _ := event.Data["price"].(float64)
		if symbol == "" || price <= 0 {
			return
		}

		rec := &store.Recommendation{
			ID:         uuid.NewString(),
			Symbol:     symbol,
			Direction:  sig.SignalState(signalState),
			EntryPrice: price,
			Score:      score,
		}
		switch rec.Direction {
		case sig.SignalLong:
			rec.TakeProfit = price * (1 + takeProfitPct)
			rec.StopLoss = price * (1 - stopLossPct)
		case sig.SignalShort:
			rec.TakeProfit = price * (1 - takeProfitPct)
			rec.StopLoss = price * (1 + stopLossPct)
		default:
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := recs.Save(ctx, rec); err != nil {
			logger.Error().Err(err).Str("symbol", symbol).Msg("failed to store recommendation")
			return
		}
		logger.Info().
			Str("symbol", symbol).
			Str("direction", signalState).
			Float64("entry", price).
			Bool("monitored", monitored).
			Msg("recommendation tracked")
	})
}
