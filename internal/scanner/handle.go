package scanner

import (
	"context"
	"sort"
	"sync"
	"time"

	"crypto-signal-bot/internal/signal"
)

// ScanHandle is the caller's view of a running scan. It is safe for
// concurrent use: progress and result queries may race with worker writes.
type ScanHandle struct {
	id        string
	requester string
	topK      int
	startTime time.Time

	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.RWMutex
	slots     []*SymbolReport // one per symbol, written at most once
	symbols   []string
	completed int
	cancelled bool
	endTime   time.Time
}

func newScanHandle(id, requester string, symbols []string, topK int, cancel context.CancelFunc) *ScanHandle {
	return &ScanHandle{
		id:        id,
		requester: requester,
		topK:      topK,
		startTime: time.Now(),
		cancel:    cancel,
		done:      make(chan struct{}),
		slots:     make([]*SymbolReport, len(symbols)),
		symbols:   symbols,
	}
}

// ID returns the scan's unique identifier.
func (h *ScanHandle) ID() string {
	return h.id
}

// Requester returns the identifier of the caller that issued the scan.
func (h *ScanHandle) Requester() string {
	return h.requester
}

// Progress returns the completed/total counters.
func (h *ScanHandle) Progress() Progress {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return Progress{Completed: h.completed, Total: len(h.slots)}
}

// Cancel requests cooperative cancellation. Workers finish the symbol they
// are on; completed entries stay in the partial ranking.
func (h *ScanHandle) Cancel() {
	h.cancel()
}

// Done is closed once every symbol has a result or cancellation has been
// observed by all workers.
func (h *ScanHandle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the scan finishes or ctx is done.
func (h *ScanHandle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Result builds the ranking from completed entries. Called before
// completion it returns the best-so-far view, which only improves as more
// entries land.
func (h *ScanHandle) Result() *ScanResult {
	h.mu.RLock()
	defer h.mu.RUnlock()

	res := &ScanResult{
		ScanID:    h.id,
		Requester: h.requester,
		StartTime: h.startTime,
		EndTime:   h.endTime,
		Total:     len(h.slots),
		Completed: h.completed,
		Cancelled: h.cancelled,
	}
	if !h.endTime.IsZero() {
		res.Duration = h.endTime.Sub(h.startTime)
	}

	confirmed := 0
	for _, slot := range h.slots {
		if slot == nil {
			continue
		}
		if slot.Failed() {
			res.Failed++
			continue
		}
		res.Scored++
		res.Entries = append(res.Entries, RankedEntry{
			Symbol: slot.Symbol,
			Score:  slot.Score.Opportunity,
			Signal: slot.Decision.Signal,
		})
		if slot.Decision.Signal != signal.SignalWait {
			confirmed++
		}
	}

	sort.Slice(res.Entries, func(i, j int) bool {
		if res.Entries[i].Score != res.Entries[j].Score {
			return res.Entries[i].Score > res.Entries[j].Score
		}
		return res.Entries[i].Symbol < res.Entries[j].Symbol
	})
	if h.topK > 0 && len(res.Entries) > h.topK {
		res.Entries = res.Entries[:h.topK]
	}

	switch {
	case res.Scored == 0:
		res.Outcome = OutcomeNoData
	case confirmed == 0:
		res.Outcome = OutcomeNoSignals
	default:
		res.Outcome = OutcomeSignals
	}

	return res
}

// Report returns the full per-symbol report for one completed slot, or nil.
func (h *ScanHandle) Report(symbol string) *SymbolReport {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, slot := range h.slots {
		if slot != nil && slot.Symbol == symbol {
			return slot
		}
	}
	return nil
}

// setSlot records one symbol's outcome. Each slot is written exactly once by
// its owning worker.
func (h *ScanHandle) setSlot(index int, report *SymbolReport) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.slots[index] != nil {
		return
	}
	h.slots[index] = report
	h.completed++
}

// finish marks the scan complete and closes Done.
func (h *ScanHandle) finish(cancelled bool) {
	h.mu.Lock()
	h.cancelled = cancelled
	h.endTime = time.Now()
	h.mu.Unlock()
	close(h.done)
}
