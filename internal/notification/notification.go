// Package notification delivers signal and monitor alerts to chat providers.
package notification

import (
	"context"
	"fmt"
	"time"
)

// AlertType categorizes an outgoing alert.
type AlertType string

const (
	AlertSignal  AlertType = "signal"
	AlertOutcome AlertType = "outcome"
	AlertScan    AlertType = "scan"
	AlertError   AlertType = "error"
)

// Alert is one outgoing message.
type Alert struct {
	Type      AlertType
	Title     string
	Message   string
	Symbol    string
	Price     float64
	Score     float64
	Timestamp time.Time
}

// Provider delivers alerts to one destination.
type Provider interface {
	Send(ctx context.Context, alert *Alert) error
	Name() string
	IsEnabled() bool
}

// Manager fans alerts out to every enabled provider.
type Manager struct {
	providers []Provider
	enabled   bool
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{enabled: true}
}

// AddProvider registers a delivery target.
func (m *Manager) AddProvider(p Provider) {
	m.providers = append(m.providers, p)
}

// Send delivers an alert to all enabled providers. The last provider error
// wins; earlier failures do not stop later providers.
func (m *Manager) Send(ctx context.Context, alert *Alert) error {
	if !m.enabled {
		return nil
	}
	if alert.Timestamp.IsZero() {
		alert.Timestamp = time.Now()
	}

	var lastErr error
	for _, p := range m.providers {
		if p.IsEnabled() {
			if err := p.Send(ctx, alert); err != nil {
				lastErr = err
			}
		}
	}
	return lastErr
}

// Notify sends a plain titled message. Satisfies the monitor's notifier.
func (m *Manager) Notify(ctx context.Context, title, message string) error {
	return m.Send(ctx, &Alert{Type: AlertOutcome, Title: title, Message: message})
}

// SendSignal announces a confirmed directional signal.
func (m *Manager) SendSignal(ctx context.Context, symbol, direction string, score, price, takeProfit, stopLoss float64) error {
	emoji := "\U0001F7E2"
	if direction == "SHORT" {
		emoji = "\U0001F534"
	}

	return m.Send(ctx, &Alert{
		Type:    AlertSignal,
		Title:   fmt.Sprintf("%s %s %s", emoji, direction, symbol),
		Message: fmt.Sprintf("Score: %.1f\nEntry: %.4f\nTP: %.4f | SL: %.4f", score, price, takeProfit, stopLoss),
		Symbol:  symbol,
		Price:   price,
		Score:   score,
	})
}

// SendScanSummary announces a finished scan.
func (m *Manager) SendScanSummary(ctx context.Context, scanID string, scored, failed, signals int) error {
	return m.Send(ctx, &Alert{
		Type:    AlertScan,
		Title:   "Scan complete",
		Message: fmt.Sprintf("Scored %d symbols (%d failed), %d confirmed signals", scored, failed, signals),
	})
}

// SendError announces a component failure.
func (m *Manager) SendError(ctx context.Context, title, message string) error {
	return m.Send(ctx, &Alert{
		Type:    AlertError,
		Title:   "⚠️ " + title,
		Message: message,
	})
}
