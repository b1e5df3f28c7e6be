// Package telegram provides Telegram bot API access: sending alert
// messages to configured chats and a long-polling command bot.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/discohub/disco-monitor/internal/util"
)

const defaultAPIBase = "https://api.telegram.org"

// sendAttempts is how often a message is retried before giving up.
const sendAttempts = 3

// Client talks to the Telegram bot API for a single bot token.
type Client struct {
	token   string
	apiBase string
	http    *http.Client
}

// NewClient creates a client for the given bot token.
func NewClient(token string) *Client {
	return &Client{
		token:   token,
		apiBase: defaultAPIBase,
		http:    &http.Client{Timeout: 35 * time.Second},
	}
}

// apiResponse is the bot API envelope.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// Update is one long-polling update containing at most one message.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

// Message is an incoming chat message.
type Message struct {
	MessageID int64  `json:"message_id"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
}

// Chat identifies the conversation a message belongs to.
type Chat struct {
	ID int64 `json:"id"`
}

func (c *Client) endpoint(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.apiBase, c.token, method)
}

// call posts a JSON body to a bot API method and decodes the envelope.
func (c *Client) call(ctx context.Context, method string, body, result any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return util.WrapError("marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(method), bytes.NewReader(payload))
	if err != nil {
		return util.WrapError("build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return util.WrapError("call telegram", err)
	}
	defer resp.Body.Close() //nolint:errcheck // Response body close error not actionable

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return util.WrapError("decode response", err)
	}
	if !envelope.OK {
		return fmt.Errorf("telegram %s failed: %s", method, envelope.Description)
	}
	if result != nil {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return util.WrapError("decode result", err)
		}
	}
	return nil
}

// SendMessage sends an HTML-formatted message to one chat, retrying
// with exponential backoff on failure.
func (c *Client) SendMessage(ctx context.Context, chatID, text string) error {
	body := map[string]any{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
	}

	backoff := util.NewBackoff(time.Second, 10*time.Second)
	var lastErr error
	for attempt := 0; attempt < sendAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff.Next()):
			}
		}
		if lastErr = c.call(ctx, "sendMessage", body, nil); lastErr == nil {
			return nil
		}
	}
	return lastErr
}

// Broadcast sends the message to every chat, returning the last error
// when some deliveries failed.
func (c *Client) Broadcast(ctx context.Context, chatIDs []string, text string) error {
	var lastErr error
	for _, id := range chatIDs {
		if err := c.SendMessage(ctx, id, text); err != nil {
			lastErr = fmt.Errorf("chat %s: %w", id, err)
		}
	}
	return lastErr
}

// GetUpdates long-polls for updates after the given offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	body := map[string]any{
		"offset":          offset,
		"timeout":         int(timeout.Seconds()),
		"allowed_updates": []string{"message"},
	}
	var updates []Update
	if err := c.call(ctx, "getUpdates", body, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}
