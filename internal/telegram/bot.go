package telegram

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/discohub/disco-monitor/internal/util"
)

// pollTimeout is the long-polling timeout for getUpdates.
const pollTimeout = 30 * time.Second

// CommandFunc produces the reply text for one bot command. The
// argument is whatever followed the command word, trimmed.
type CommandFunc func(args string) string

// Bot is a long-polling command bot. Commands are registered before
// Run; unknown commands get a short hint listing the known ones.
type Bot struct {
	client  *Client
	allowed []string // chat IDs allowed to issue commands; empty = any

	mu       sync.RWMutex
	handlers map[string]CommandFunc
}

// NewBot creates a bot on the given client. Only the allowed chat IDs
// may issue commands; an empty list allows every chat.
func NewBot(client *Client, allowed []string) *Bot {
	return &Bot{
		client:   client,
		allowed:  slices.Clone(allowed),
		handlers: make(map[string]CommandFunc),
	}
}

// Handle registers the reply function for a command like "/status".
func (b *Bot) Handle(command string, fn CommandFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[command] = fn
}

// Run polls for updates until the context is cancelled. Transport
// errors back off and retry; the bot never crashes the host.
func (b *Bot) Run(ctx context.Context) {
	slog.Info("telegram bot started", "allowed_chats", len(b.allowed))
	backoff := util.NewBackoff(time.Second, time.Minute)

	var offset int64
	for {
		if ctx.Err() != nil {
			return
		}

		updates, err := b.client.GetUpdates(ctx, offset, pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			delay := backoff.Next()
			slog.Warn("telegram poll failed", "error", err, "retry_in", delay)
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			continue
		}
		backoff.Reset()

		for _, update := range updates {
			offset = update.UpdateID + 1
			b.dispatch(ctx, update)
		}
	}
}

// dispatch answers one update, if it is a command from an allowed chat.
func (b *Bot) dispatch(ctx context.Context, update Update) {
	msg := update.Message
	if msg == nil || !strings.HasPrefix(msg.Text, "/") {
		return
	}

	chatID := strconv.FormatInt(msg.Chat.ID, 10)
	if len(b.allowed) > 0 && !slices.Contains(b.allowed, chatID) {
		slog.Debug("ignoring command from unknown chat", "chat_id", chatID)
		return
	}

	command, args, _ := strings.Cut(strings.TrimSpace(msg.Text), " ")
	// Strip the bot mention from group commands ("/status@disco_bot").
	command, _, _ = strings.Cut(command, "@")

	b.mu.RLock()
	fn, ok := b.handlers[command]
	b.mu.RUnlock()

	var reply string
	if ok {
		reply = fn(strings.TrimSpace(args))
	} else {
		reply = "Unknown command. Try: " + strings.Join(b.commandList(), " ")
	}
	if reply == "" {
		return
	}

	if err := b.client.SendMessage(ctx, chatID, reply); err != nil {
		slog.Warn("telegram reply failed", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) commandList() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	commands := make([]string, 0, len(b.handlers))
	for command := range b.handlers {
		commands = append(commands, command)
	}
	slices.Sort(commands)
	return commands
}
