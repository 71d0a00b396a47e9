// Package monitor tracks emitted recommendations until their take-profit or
// stop-loss resolves. It polls current prices on an interval and emits
// exactly one terminal event per recommendation; while a recommendation is
// open it also watches for a moving-average cross against the position and
// raises a non-terminal advisory.
package monitor

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"crypto-signal-bot/internal/analysis"
	"crypto-signal-bot/internal/binance"
	"crypto-signal-bot/internal/events"
	"crypto-signal-bot/internal/signal"
	"crypto-signal-bot/internal/store"
)

// Outcome is the per-poll verdict for one recommendation.
type Outcome string

const (
	OutcomeTakeProfitHit Outcome = "TP_HIT"
	OutcomeStopLossHit   Outcome = "SL_HIT"
	OutcomeStillOpen     Outcome = "STILL_OPEN"
)

// Notifier receives human-facing alerts for resolved recommendations.
type Notifier interface {
	Notify(ctx context.Context, title, message string) error
}

// Monitor polls open recommendations. One goroutine services all of them.
type Monitor struct {
	client   binance.MarketDataClient
	recs     *store.RecommendationStore
	bus      *events.Bus
	notifier Notifier
	interval time.Duration
	logger   zerolog.Logger

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewMonitor creates a monitor. bus and notifier may be nil.
func NewMonitor(
	client binance.MarketDataClient,
	recs *store.RecommendationStore,
	bus *events.Bus,
	notifier Notifier,
	interval time.Duration,
	logger zerolog.Logger,
) *Monitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Monitor{
		client:   client,
		recs:     recs,
		bus:      bus,
		notifier: notifier,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Track registers a recommendation for monitoring.
func (m *Monitor) Track(ctx context.Context, rec *store.Recommendation) error {
	return m.recs.Save(ctx, rec)
}

// Start launches the poll loop.
func (m *Monitor) Start() {
	m.wg.Add(1)
	go m.run()
	m.logger.Info().Dur("interval", m.interval).Msg("position monitor started")
}

// Stop shuts the poll loop down and waits for it.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
	m.wg.Wait()
}

func (m *Monitor) run() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Poll(context.Background())
		case <-m.stopChan:
			m.logger.Info().Msg("position monitor stopped")
			return
		}
	}
}

// Poll checks every open recommendation once. Exported so callers can force
// an immediate pass.
func (m *Monitor) Poll(ctx context.Context) {
	recs, err := m.recs.LoadAll(ctx)
	if err != nil {
		m.logger.Warn().Err(err).Msg("could not load recommendations")
		return
	}

	for _, rec := range recs {
		m.pollOne(ctx, rec)
	}
}

func (m *Monitor) pollOne(ctx context.Context, rec *store.Recommendation) {
	price, err := m.client.GetCurrentPrice(ctx, rec.Symbol)
	if err != nil {
		m.logger.Warn().Str("symbol", rec.Symbol).Err(err).Msg("price poll failed")
		return
	}

	switch Check(rec, price) {
	case OutcomeTakeProfitHit:
		m.resolve(ctx, rec, price, events.EventTakeProfitHit, "Take profit hit")
	case OutcomeStopLossHit:
		m.resolve(ctx, rec, price, events.EventStopLossHit, "Stop loss hit")
	case OutcomeStillOpen:
		m.checkReverseCross(ctx, rec, price)
	}
}

// Check classifies a recommendation against the current price. Pure
// function, one outcome per poll.
func Check(rec *store.Recommendation, price float64) Outcome {
	switch rec.Direction {
	case signal.SignalLong:
		if rec.TakeProfit > 0 && price >= rec.TakeProfit {
			return OutcomeTakeProfitHit
		}
		if rec.StopLoss > 0 && price <= rec.StopLoss {
			return OutcomeStopLossHit
		}
	case signal.SignalShort:
		if rec.TakeProfit > 0 && price <= rec.TakeProfit {
			return OutcomeTakeProfitHit
		}
		if rec.StopLoss > 0 && price >= rec.StopLoss {
			return OutcomeStopLossHit
		}
	}
	return OutcomeStillOpen
}

// resolve emits the terminal event, notifies, and removes the
// recommendation so it can never resolve twice.
func (m *Monitor) resolve(ctx context.Context, rec *store.Recommendation, price float64, event events.EventType, title string) {
	if err := m.recs.Delete(ctx, rec.Symbol); err != nil {
		m.logger.Warn().Str("symbol", rec.Symbol).Err(err).Msg("could not delete resolved recommendation")
	}

	m.logger.Info().
		Str("symbol", rec.Symbol).
		Str("direction", string(rec.Direction)).
		Float64("entry", rec.EntryPrice).
		Float64("price", price).
		Str("outcome", string(event)).
		Msg("recommendation resolved")

	if m.bus != nil {
		m.bus.PublishMonitorOutcome(event, rec.Symbol, string(rec.Direction), rec.EntryPrice, price)
	}
	if m.notifier != nil {
		msg := formatAlert(rec, price)
		if err := m.notifier.Notify(ctx, title, msg); err != nil {
			m.logger.Warn().Err(err).Msg("notification failed")
		}
	}
}

// checkReverseCross looks for a fresh MA7/MA25 cross against the open
// direction on the 15-minute timeframe and raises an advisory.
func (m *Monitor) checkReverseCross(ctx context.Context, rec *store.Recommendation, price float64) {
	klines, err := m.client.GetKlines(ctx, rec.Symbol, analysis.TF15m.Interval(), analysis.TrendLookback+1)
	if err != nil {
		return
	}
	snap, err := analysis.ComputeTrendSnapshot(klines)
	if err != nil {
		return
	}

	reversed := (rec.Direction == signal.SignalLong && snap.SMA7 < snap.SMA25 && snap.PrevSMA7 >= snap.PrevSMA25) ||
		(rec.Direction == signal.SignalShort && snap.SMA7 > snap.SMA25 && snap.PrevSMA7 <= snap.PrevSMA25)
	if !reversed {
		return
	}

	m.logger.Info().
		Str("symbol", rec.Symbol).
		Str("direction", string(rec.Direction)).
		Float64("price", price).
		Msg("reverse cross against open recommendation")
	if m.bus != nil {
		m.bus.PublishMonitorOutcome(events.EventReverseCross, rec.Symbol, string(rec.Direction), rec.EntryPrice, price)
	}
}

func formatAlert(rec *store.Recommendation, price float64) string {
	return fmt.Sprintf("%s %s entry %s now %s",
		rec.Symbol, rec.Direction,
		strconv.FormatFloat(rec.EntryPrice, 'f', -1, 64),
		strconv.FormatFloat(price, 'f', -1, 64))
}
