// Package scanner runs bounded-concurrency scans over a symbol universe,
// producing a ranked list of opportunities per scan request. A scan is
// request-scoped: it has a handle with progress, cancellation, and
// progressive results, and a requester has at most one scan in flight.
package scanner

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"crypto-signal-bot/internal/analysis"
	"crypto-signal-bot/internal/events"
	"crypto-signal-bot/internal/signal"
)

// ErrNoSymbols is returned when a scan request names no symbols.
var ErrNoSymbols = errors.New("scanner: no symbols to scan")

// Scanner dispatches scan requests over a worker pool. Safe for concurrent
// use by multiple requesters.
type Scanner struct {
	evaluator *Evaluator
	bus       *events.Bus
	logger    zerolog.Logger

	mu     sync.Mutex
	active map[string]*ScanHandle // one in-flight scan per requester
}

// NewScanner creates the orchestrator. bus may be nil when no event
// delivery is wanted.
func NewScanner(evaluator *Evaluator, bus *events.Bus, logger zerolog.Logger) *Scanner {
	return &Scanner{
		evaluator: evaluator,
		bus:       bus,
		logger:    logger,
		active:    make(map[string]*ScanHandle),
	}
}

// Scan starts a scan and returns immediately with its handle. A requester
// with a scan already in flight supersedes it: the old scan is cancelled and
// drained before the new one starts.
func (sc *Scanner) Scan(ctx context.Context, requester string, opts ScanOptions) (*ScanHandle, error) {
	if len(opts.Symbols) == 0 {
		return nil, ErrNoSymbols
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = DefaultMaxConcurrency
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.Timeframe == "" {
		opts.Timeframe = analysis.TF15m
	}

	sc.mu.Lock()
	for {
		prev, ok := sc.active[requester]
		if !ok {
			break
		}
		sc.mu.Unlock()
		prev.Cancel()
		<-prev.Done()
		sc.mu.Lock()
		// A concurrent Scan for the same requester may have registered its
		// own handle while the lock was released. Only clear the handle
		// that was just drained, then check the map again.
		if sc.active[requester] == prev {
			delete(sc.active, requester)
		}
	}

	scanCtx, cancel := context.WithCancel(ctx)
	handle := newScanHandle(uuid.NewString(), requester, opts.Symbols, opts.TopK, cancel)
	sc.active[requester] = handle
	sc.mu.Unlock()

	sc.logger.Info().
		Str("scan_id", handle.ID()).
		Str("requester", requester).
		Int("symbols", len(opts.Symbols)).
		Int("concurrency", opts.MaxConcurrency).
		Msg("scan started")
	if sc.bus != nil {
		sc.bus.PublishScanStarted(handle.ID(), requester, len(opts.Symbols))
	}

	go sc.run(scanCtx, handle, opts)
	return handle, nil
}

// Handle returns the requester's current scan handle, if any.
func (sc *Scanner) Handle(requester string) (*ScanHandle, bool) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	h, ok := sc.active[requester]
	return h, ok
}

// HandleByID finds a scan handle by scan id.
func (sc *Scanner) HandleByID(scanID string) (*ScanHandle, bool) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	for _, h := range sc.active {
		if h.ID() == scanID {
			return h, true
		}
	}
	return nil, false
}

// run executes the worker pool for one scan and finalizes the handle.
func (sc *Scanner) run(ctx context.Context, handle *ScanHandle, opts ScanOptions) {
	start := time.Now()

	type workItem struct {
		index  int
		symbol string
	}
	work := make(chan workItem)

	var wg sync.WaitGroup
	for i := 0; i < opts.MaxConcurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range work {
				// Cancellation is checked at each symbol boundary; the
				// in-flight symbol runs to completion.
				if ctx.Err() != nil {
					return
				}
				sc.scanSymbol(ctx, handle, item.index, item.symbol, opts.Timeframe)
			}
		}()
	}

	for i, symbol := range opts.Symbols {
		select {
		case work <- workItem{index: i, symbol: symbol}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(work)
	wg.Wait()

	cancelled := ctx.Err() != nil
	handle.finish(cancelled)

	progress := handle.Progress()
	result := handle.Result()
	if cancelled {
		sc.logger.Info().
			Str("scan_id", handle.ID()).
			Int("completed", progress.Completed).
			Int("total", progress.Total).
			Msg("scan cancelled")
		if sc.bus != nil {
			sc.bus.PublishScanCancelled(handle.ID(), progress.Completed, progress.Total)
		}
		return
	}

	sc.logger.Info().
		Str("scan_id", handle.ID()).
		Int("scored", result.Scored).
		Int("failed", result.Failed).
		Dur("duration", time.Since(start)).
		Msg("scan completed")
	if sc.bus != nil {
		sc.bus.PublishScanCompleted(handle.ID(), result.Scored, result.Failed, time.Since(start))
	}
}

// scanSymbol evaluates one symbol and writes its slot. Per-symbol failures
// never abort the scan.
func (sc *Scanner) scanSymbol(ctx context.Context, handle *ScanHandle, index int, symbol string, tf analysis.Timeframe) {
	report, err := sc.evaluator.Evaluate(ctx, symbol, tf)
	if err != nil {
		sc.logger.Error().Str("symbol", symbol).Err(err).Msg("evaluator contract violation")
		if sc.bus != nil {
			sc.bus.PublishError("scanner", err.Error())
		}
		report = &SymbolReport{Symbol: symbol, Error: err.Error()}
	}
	handle.setSlot(index, report)

	if sc.bus != nil {
		progress := handle.Progress()
		sc.bus.PublishScanProgress(handle.ID(), symbol, progress.Completed, progress.Total)
	}

	if report.Decision.Signal != "" && report.Decision.Signal != signal.SignalWait && sc.bus != nil {
		sc.bus.PublishSignalConfirmed(symbol, string(report.Decision.Signal), report.Score.Opportunity, report.Price)
	}
}
