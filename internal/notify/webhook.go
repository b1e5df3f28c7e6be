package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/discohub/disco-monitor/internal/util"
)

// WebhookPayload represents the data sent to webhook endpoints.
type WebhookPayload struct {
	Event     string  `json:"event"`
	Level     float64 `json:"level,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	SilenceMs int64   `json:"silence_ms,omitempty"`
	Message   string  `json:"message,omitempty"`
	Timestamp string  `json:"timestamp"`
}

// SendLampRedWebhook notifies the configured webhook that the silence
// lamp switched on.
func SendLampRedWebhook(webhookURL string, level, threshold float64, silence time.Duration) error {
	return sendWebhook(webhookURL, &WebhookPayload{
		Event:     "lamp_red",
		Level:     level,
		Threshold: threshold,
		SilenceMs: silence.Milliseconds(),
		Timestamp: timestampUTC(),
	})
}

// SendLampGreenWebhook notifies the configured webhook that sound was
// confirmed again.
func SendLampGreenWebhook(webhookURL string, level, threshold float64, precedingSilence time.Duration) error {
	return sendWebhook(webhookURL, &WebhookPayload{
		Event:     "lamp_green",
		Level:     level,
		Threshold: threshold,
		SilenceMs: precedingSilence.Milliseconds(),
		Timestamp: timestampUTC(),
	})
}

// SendTestWebhook sends a test webhook notification.
func SendTestWebhook(webhookURL string) error {
	if webhookURL == "" {
		return fmt.Errorf("webhook URL not configured")
	}

	return sendWebhook(webhookURL, &WebhookPayload{
		Event:     "test",
		Message:   "This is a test notification from " + AppName,
		Timestamp: timestampUTC(),
	})
}

// sendWebhook delivers a notification to the configured webhook endpoint.
func sendWebhook(webhookURL string, payload *WebhookPayload) error {
	if !util.IsConfigured(webhookURL) {
		return nil // Silently skip if not configured
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return util.WrapError("marshal payload", err)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Post(webhookURL, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return util.WrapError("send webhook request", err)
	}
	defer resp.Body.Close() //nolint:errcheck // Response body close error not actionable

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}
