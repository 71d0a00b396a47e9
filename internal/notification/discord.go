package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DiscordConfig holds the Discord webhook settings.
type DiscordConfig struct {
	WebhookURL string `json:"webhook_url"`
	Enabled    bool   `json:"enabled"`
}

// DiscordProvider sends alerts as Discord webhook embeds.
type DiscordProvider struct {
	webhookURL string
	enabled    bool
	client     *http.Client
}

// NewDiscordProvider creates a Discord provider. A missing webhook URL
// disables it.
func NewDiscordProvider(cfg DiscordConfig) *DiscordProvider {
	return &DiscordProvider{
		webhookURL: cfg.WebhookURL,
		enabled:    cfg.Enabled && cfg.WebhookURL != "",
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (d *DiscordProvider) Name() string {
	return "discord"
}

func (d *DiscordProvider) IsEnabled() bool {
	return d.enabled
}

// Send posts the alert as an embed, colored by alert type.
func (d *DiscordProvider) Send(ctx context.Context, alert *Alert) error {
	if !d.enabled {
		return nil
	}

	color := 0x3498DB
	switch alert.Type {
	case AlertSignal:
		color = 0x2ECC71
	case AlertError:
		color = 0xE74C3C
	}

	embed := map[string]interface{}{
		"title":       alert.Title,
		"description": alert.Message,
		"color":       color,
		"timestamp":   alert.Timestamp.Format(time.RFC3339),
	}
	if alert.Symbol != "" {
		fields := []map[string]interface{}{
			{"name": "Symbol", "value": alert.Symbol, "inline": true},
		}
		if alert.Price > 0 {
			fields = append(fields, map[string]interface{}{
				"name": "Price", "value": fmt.Sprintf("%.4f", alert.Price), "inline": true,
			})
		}
		if alert.Score > 0 {
			fields = append(fields, map[string]interface{}{
				"name": "Score", "value": fmt.Sprintf("%.1f", alert.Score), "inline": true,
			})
		}
		embed["fields"] = fields
	}

	data, err := json.Marshal(map[string]interface{}{
		"embeds": []map[string]interface{}{embed},
	})
	if err != nil {
		return fmt.Errorf("discord: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("discord: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("discord: send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("discord: API returned status %d", resp.StatusCode)
	}
	return nil
}
