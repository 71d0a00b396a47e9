// Package store persists emitted recommendations in Redis so the position
// monitor survives restarts. When Redis is unavailable it falls back to an
// in-memory map and keeps serving.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"crypto-signal-bot/internal/signal"
)

const (
	// recommendationKeyPrefix is the key for one recommendation.
	// Format: signal:recommendation:{symbol}
	recommendationKeyPrefix = "signal:recommendation"

	// recommendationListKey is the set of symbols with an open recommendation.
	recommendationListKey = "signal:recommendations:list"

	// recommendationTTL keeps stale recommendations from accumulating when
	// the monitor never resolves them.
	recommendationTTL = 7 * 24 * time.Hour
)

// Recommendation is an emitted directional call the monitor tracks until its
// take-profit or stop-loss resolves.
type Recommendation struct {
	ID         string             `json:"id"`
	Symbol     string             `json:"symbol"`
	Direction  signal.SignalState `json:"direction"`
	EntryPrice float64            `json:"entry_price"`
	TakeProfit float64            `json:"take_profit"`
	StopLoss   float64            `json:"stop_loss"`
	Score      float64            `json:"score"`
	CreatedAt  time.Time          `json:"created_at"`
}

// RecommendationStore stores recommendations in Redis with an in-memory
// fallback. A nil client means memory-only mode.
type RecommendationStore struct {
	client         *redis.Client
	logger         zerolog.Logger
	mu             sync.RWMutex
	memory         map[string]*Recommendation
	redisAvailable atomic.Bool
}

// NewRecommendationStore creates the store and probes Redis availability.
func NewRecommendationStore(client *redis.Client, logger zerolog.Logger) *RecommendationStore {
	s := &RecommendationStore{
		client: client,
		logger: logger,
		memory: make(map[string]*Recommendation),
	}

	if client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Msg("redis unavailable at startup, using in-memory store")
		} else {
			logger.Info().Msg("redis connected")
			s.redisAvailable.Store(true)
		}
	}

	return s
}

func recommendationKey(symbol string) string {
	return fmt.Sprintf("%s:%s", recommendationKeyPrefix, symbol)
}

// Save persists one recommendation. The in-memory copy is always updated; a
// Redis failure downgrades to memory-only without surfacing an error.
func (s *RecommendationStore) Save(ctx context.Context, rec *Recommendation) error {
	if rec == nil {
		return fmt.Errorf("store: cannot save nil recommendation")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("store: marshal recommendation: %w", err)
	}

	s.mu.Lock()
	s.memory[rec.Symbol] = rec
	s.mu.Unlock()

	if s.client != nil && s.redisAvailable.Load() {
		pipe := s.client.TxPipeline()
		pipe.Set(ctx, recommendationKey(rec.Symbol), data, recommendationTTL)
		pipe.SAdd(ctx, recommendationListKey, rec.Symbol)
		pipe.Expire(ctx, recommendationListKey, recommendationTTL)
		if _, err := pipe.Exec(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("redis write failed, keeping in-memory copy")
			s.redisAvailable.Store(false)
		}
	}

	return nil
}

// Load fetches one recommendation. A missing symbol returns nil, nil.
func (s *RecommendationStore) Load(ctx context.Context, symbol string) (*Recommendation, error) {
	if s.client != nil && s.redisAvailable.Load() {
		data, err := s.client.Get(ctx, recommendationKey(symbol)).Result()
		if err != nil {
			if err == redis.Nil {
				return s.fromMemory(symbol), nil
			}
			s.logger.Warn().Err(err).Msg("redis read failed, using in-memory store")
			s.redisAvailable.Store(false)
			return s.fromMemory(symbol), nil
		}

		var rec Recommendation
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("store: unmarshal recommendation: %w", err)
		}

		s.mu.Lock()
		s.memory[symbol] = &rec
		s.mu.Unlock()
		return &rec, nil
	}

	return s.fromMemory(symbol), nil
}

// LoadAll fetches every open recommendation, keyed by symbol.
func (s *RecommendationStore) LoadAll(ctx context.Context) (map[string]*Recommendation, error) {
	if s.client != nil && s.redisAvailable.Load() {
		symbols, err := s.client.SMembers(ctx, recommendationListKey).Result()
		if err != nil && err != redis.Nil {
			s.logger.Warn().Err(err).Msg("redis read failed, using in-memory store")
			s.redisAvailable.Store(false)
			return s.allFromMemory(), nil
		}

		recs := make(map[string]*Recommendation, len(symbols))
		for _, symbol := range symbols {
			rec, err := s.Load(ctx, symbol)
			if err != nil {
				s.logger.Warn().Str("symbol", symbol).Err(err).Msg("skipping unreadable recommendation")
				continue
			}
			if rec != nil {
				recs[symbol] = rec
			}
		}
		return recs, nil
	}

	return s.allFromMemory(), nil
}

// Delete removes a resolved recommendation.
func (s *RecommendationStore) Delete(ctx context.Context, symbol string) error {
	s.mu.Lock()
	delete(s.memory, symbol)
	s.mu.Unlock()

	if s.client != nil && s.redisAvailable.Load() {
		pipe := s.client.TxPipeline()
		pipe.Del(ctx, recommendationKey(symbol))
		pipe.SRem(ctx, recommendationListKey, symbol)
		if _, err := pipe.Exec(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("redis delete failed")
			s.redisAvailable.Store(false)
		}
	}

	return nil
}

func (s *RecommendationStore) fromMemory(symbol string) *Recommendation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.memory[symbol]
}

func (s *RecommendationStore) allFromMemory() map[string]*Recommendation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := make(map[string]*Recommendation, len(s.memory))
	for symbol, rec := range s.memory {
		recs[symbol] = rec
	}
	return recs
}
