package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"crypto-signal-bot/internal/binance"
	"crypto-signal-bot/internal/events"
	"crypto-signal-bot/internal/signal"
	"crypto-signal-bot/internal/store"
)

// priceClient serves fixed prices per symbol and mock candles.
type priceClient struct {
	*binance.MockClient
	mu     sync.Mutex
	prices map[string]float64
}

func newPriceClient() *priceClient {
	return &priceClient{
		MockClient: binance.NewMockClient(),
		prices:     make(map[string]float64),
	}
}

func (p *priceClient) setPrice(symbol string, price float64) {
	p.mu.Lock()
	p.prices[symbol] = price
	p.mu.Unlock()
}

func (p *priceClient) GetCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.prices[symbol], nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(ctx context.Context, title, message string) error {
	n.mu.Lock()
	n.messages = append(n.messages, title)
	n.mu.Unlock()
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

func TestCheckOutcomes(t *testing.T) {
	long := &store.Recommendation{
		Direction: signal.SignalLong, EntryPrice: 100, TakeProfit: 110, StopLoss: 95,
	}
	short := &store.Recommendation{
		Direction: signal.SignalShort, EntryPrice: 100, TakeProfit: 90, StopLoss: 105,
	}

	cases := []struct {
		name  string
		rec   *store.Recommendation
		price float64
		want  Outcome
	}{
		{"long open", long, 105, OutcomeStillOpen},
		{"long tp", long, 110, OutcomeTakeProfitHit},
		{"long sl", long, 94, OutcomeStopLossHit},
		{"short open", short, 98, OutcomeStillOpen},
		{"short tp", short, 89.5, OutcomeTakeProfitHit},
		{"short sl", short, 106, OutcomeStopLossHit},
	}
	for _, tc := range cases {
		if got := Check(tc.rec, tc.price); got != tc.want {
			t.Errorf("%s: Check = %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestCheckUnsetLevels(t *testing.T) {
	rec := &store.Recommendation{Direction: signal.SignalLong, EntryPrice: 100}
	if got := Check(rec, 1e9); got != OutcomeStillOpen {
		t.Errorf("Check without TP/SL = %s, want %s", got, OutcomeStillOpen)
	}
}

func TestPollResolvesAndRemoves(t *testing.T) {
	client := newPriceClient()
	recs := store.NewRecommendationStore(nil, zerolog.Nop())
	bus := events.NewBus()
	notifier := &recordingNotifier{}

	var hits sync.WaitGroup
	hits.Add(1)
	bus.Subscribe(events.EventTakeProfitHit, func(events.Event) { hits.Done() })

	m := NewMonitor(client, recs, bus, notifier, time.Minute, zerolog.Nop())
	ctx := context.Background()

	err := m.Track(ctx, &store.Recommendation{
		ID: "rec-1", Symbol: "BTCUSDT", Direction: signal.SignalLong,
		EntryPrice: 100, TakeProfit: 110, StopLoss: 95,
	})
	if err != nil {
		t.Fatal(err)
	}

	client.setPrice("BTCUSDT", 111)
	m.Poll(ctx)

	waitDone := make(chan struct{})
	go func() { hits.Wait(); close(waitDone) }()
	select {
	case <-waitDone:
	case <-time.After(time.Second):
		t.Fatal("TP_HIT event never published")
	}

	if notifier.count() != 1 {
		t.Errorf("notifications = %d, want 1", notifier.count())
	}
	rec, err := recs.Load(ctx, "BTCUSDT")
	if err != nil {
		t.Fatal(err)
	}
	if rec != nil {
		t.Error("resolved recommendation should be removed from the store")
	}

	// A second poll must not resolve the same recommendation again.
	m.Poll(ctx)
	if notifier.count() != 1 {
		t.Errorf("notifications after second poll = %d, want still 1", notifier.count())
	}
}

func TestPollKeepsOpenRecommendation(t *testing.T) {
	client := newPriceClient()
	recs := store.NewRecommendationStore(nil, zerolog.Nop())
	m := NewMonitor(client, recs, nil, nil, time.Minute, zerolog.Nop())
	ctx := context.Background()

	err := m.Track(ctx, &store.Recommendation{
		ID: "rec-2", Symbol: "ETHUSDT", Direction: signal.SignalShort,
		EntryPrice: 2000, TakeProfit: 1900, StopLoss: 2100,
	})
	if err != nil {
		t.Fatal(err)
	}

	client.setPrice("ETHUSDT", 1990)
	m.Poll(ctx)

	rec, err := recs.Load(ctx, "ETHUSDT")
	if err != nil {
		t.Fatal(err)
	}
	if rec == nil {
		t.Error("open recommendation should stay tracked")
	}
}

func TestStartStop(t *testing.T) {
	client := newPriceClient()
	recs := store.NewRecommendationStore(nil, zerolog.Nop())
	m := NewMonitor(client, recs, nil, nil, 5*time.Millisecond, zerolog.Nop())

	m.Start()
	time.Sleep(20 * time.Millisecond)
	m.Stop()
	// Stop is idempotent.
	m.Stop()
}
