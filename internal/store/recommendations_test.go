package store

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"crypto-signal-bot/internal/signal"
)

// All tests run in memory-only mode (nil Redis client); the Redis path
// shares the same read/write logic behind the availability flag.

func memStore() *RecommendationStore {
	return NewRecommendationStore(nil, zerolog.Nop())
}

func TestSaveAndLoad(t *testing.T) {
	s := memStore()
	ctx := context.Background()

	rec := &Recommendation{
		ID:         "rec-1",
		Symbol:     "BTCUSDT",
		Direction:  signal.SignalLong,
		EntryPrice: 50000,
		TakeProfit: 52000,
		StopLoss:   49000,
		Score:      72.5,
	}
	if err := s.Save(ctx, rec); err != nil {
		t.Fatal(err)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("Save should stamp CreatedAt")
	}

	got, err := s.Load(ctx, "BTCUSDT")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.ID != "rec-1" || got.TakeProfit != 52000 {
		t.Errorf("loaded %+v, want the saved recommendation", got)
	}
}

func TestLoadMissingReturnsNil(t *testing.T) {
	s := memStore()
	got, err := s.Load(context.Background(), "NOSUCH")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil for missing symbol", got)
	}
}

func TestSaveNil(t *testing.T) {
	if err := memStore().Save(context.Background(), nil); err == nil {
		t.Error("expected error for nil recommendation")
	}
}

func TestLoadAllAndDelete(t *testing.T) {
	s := memStore()
	ctx := context.Background()

	for _, symbol := range []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"} {
		err := s.Save(ctx, &Recommendation{
			ID:        symbol + "-rec",
			Symbol:    symbol,
			Direction: signal.SignalShort,
			CreatedAt: time.Now(),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	all, err := s.LoadAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("loaded %d recommendations, want 3", len(all))
	}

	if err := s.Delete(ctx, "ETHUSDT"); err != nil {
		t.Fatal(err)
	}
	all, err = s.LoadAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("loaded %d after delete, want 2", len(all))
	}
	if _, ok := all["ETHUSDT"]; ok {
		t.Error("deleted symbol still present")
	}
}
