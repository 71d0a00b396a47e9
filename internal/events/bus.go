// Package events provides the in-process publish/subscribe bus that connects
// the scanner and monitor to the API layer and notifiers.
package events

import (
	"sync"
	"time"
)

// EventType identifies the kind of event on the bus.
type EventType string

const (
	EventScanStarted     EventType = "SCAN_STARTED"
	EventScanProgress    EventType = "SCAN_PROGRESS"
	EventScanCompleted   EventType = "SCAN_COMPLETED"
	EventScanCancelled   EventType = "SCAN_CANCELLED"
	EventSignalConfirmed EventType = "SIGNAL_CONFIRMED"
	EventTakeProfitHit   EventType = "TP_HIT"
	EventStopLossHit     EventType = "SL_HIT"
	EventReverseCross    EventType = "REVERSE_CROSS"
	EventError           EventType = "ERROR"
)

// Event is one bus message.
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Subscriber handles published events.
type Subscriber func(Event)

// Bus fans events out to subscribers. Publishing never blocks the
// publisher; each subscriber runs on its own goroutine.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]Subscriber
	allSubs     []Subscriber
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[EventType][]Subscriber),
	}
}

// Subscribe registers a subscriber for one event type.
func (b *Bus) Subscribe(eventType EventType, subscriber Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], subscriber)
}

// SubscribeAll registers a subscriber for every event type.
func (b *Bus) SubscribeAll(subscriber Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.allSubs = append(b.allSubs, subscriber)
}

// Publish delivers an event to matching subscribers.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	for _, sub := range b.subscribers[event.Type] {
		go sub(event)
	}
	for _, sub := range b.allSubs {
		go sub(event)
	}
}

// PublishScanStarted announces a new scan.
func (b *Bus) PublishScanStarted(scanID, requester string, total int) {
	b.Publish(Event{
		Type: EventScanStarted,
		Data: map[string]interface{}{
			"scan_id":   scanID,
			"requester": requester,
			"total":     total,
		},
	})
}

// PublishScanProgress announces one more symbol finishing within a scan.
func (b *Bus) PublishScanProgress(scanID, symbol string, completed, total int) {
	b.Publish(Event{
		Type: EventScanProgress,
		Data: map[string]interface{}{
			"scan_id":   scanID,
			"symbol":    symbol,
			"completed": completed,
			"total":     total,
		},
	})
}

// PublishScanCompleted announces a finished scan.
func (b *Bus) PublishScanCompleted(scanID string, scored, failed int, duration time.Duration) {
	b.Publish(Event{
		Type: EventScanCompleted,
		Data: map[string]interface{}{
			"scan_id":  scanID,
			"scored":   scored,
			"failed":   failed,
			"duration": duration.String(),
		},
	})
}

// PublishScanCancelled announces a cancelled scan.
func (b *Bus) PublishScanCancelled(scanID string, completed, total int) {
	b.Publish(Event{
		Type: EventScanCancelled,
		Data: map[string]interface{}{
			"scan_id":   scanID,
			"completed": completed,
			"total":     total,
		},
	})
}

// PublishSignalConfirmed announces a confirmed directional signal.
func (b *Bus) PublishSignalConfirmed(symbol, signal string, score, price float64) {
	b.Publish(Event{
		Type: EventSignalConfirmed,
		Data: map[string]interface{}{
			"symbol": symbol,
			"signal": signal,
			"score":  score,
			"price":  price,
		},
	})
}

// PublishMonitorOutcome announces a take-profit, stop-loss, or reverse-cross
// event for a tracked recommendation.
func (b *Bus) PublishMonitorOutcome(eventType EventType, symbol, direction string, entry, current float64) {
	b.Publish(Event{
		Type: eventType,
		Data: map[string]interface{}{
			"symbol":    symbol,
			"direction": direction,
			"entry":     entry,
			"price":     current,
		},
	})
}

// PublishError announces a component error.
func (b *Bus) PublishError(component, message string) {
	b.Publish(Event{
		Type: EventError,
		Data: map[string]interface{}{
			"component": component,
			"message":   message,
		},
	})
}
