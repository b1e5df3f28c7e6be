// Package notify fans lamp and disco lifecycle events out to the
// configured channels: Telegram, webhook, log file and MQTT.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/discohub/disco-monitor/internal/config"
	"github.com/discohub/disco-monitor/internal/eventlog"
	"github.com/discohub/disco-monitor/internal/telegram"
	"github.com/discohub/disco-monitor/internal/util"
)

// sendTimeout bounds one outbound notification.
const sendTimeout = 30 * time.Second

// LampNotifier receives monitor events and triggers notifications. It
// satisfies the monitor's Events interface; every handler returns
// quickly and does the actual sending on its own goroutine.
type LampNotifier struct {
	cfg    *config.Config
	events *eventlog.Logger

	// mu protects the notification state fields below
	mu sync.Mutex

	lastLevel float64

	// Track which notifications have been sent for the current red phase
	telegramSent bool
	webhookSent  bool
	logSent      bool
	mqttSent     bool

	// Cached clients, rebuilt after config changes
	telegramClient *telegram.Client
	mqttPublisher  *MQTTPublisher
}

// NewLampNotifier returns a notifier over the given config and event log.
// The event log may be nil.
func NewLampNotifier(cfg *config.Config, events *eventlog.Logger) *LampNotifier {
	return &LampNotifier{cfg: cfg, events: events}
}

// InvalidateClients drops the cached Telegram and MQTT clients.
// Call this when notification configuration changes.
func (n *LampNotifier) InvalidateClients() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.telegramClient = nil
	if n.mqttPublisher != nil {
		n.mqttPublisher.Close()
		n.mqttPublisher = nil
	}
}

// getOrCreateTelegramClient returns the cached Telegram client,
// creating it if needed.
func (n *LampNotifier) getOrCreateTelegramClient(token string) *telegram.Client {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.telegramClient == nil {
		n.telegramClient = telegram.NewClient(token)
	}
	return n.telegramClient
}

// getOrCreateMQTTPublisher returns the cached MQTT publisher, connecting
// if needed.
//
//nolint:gocritic // hugeParam: copy is acceptable for infrequent notification events
func (n *LampNotifier) getOrCreateMQTTPublisher(cfg config.Snapshot) (*MQTTPublisher, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.mqttPublisher != nil {
		return n.mqttPublisher, nil
	}
	pub, err := NewMQTTPublisher(cfg.MQTTBroker, cfg.MQTTTopic, cfg.MQTTClientID, cfg.MQTTUsername, cfg.MQTTPassword)
	if err != nil {
		return nil, err
	}
	n.mqttPublisher = pub
	return pub, nil
}

// LevelUpdated remembers the latest smoothed level so lamp messages can
// include it.
func (n *LampNotifier) LevelUpdated(level float64) {
	n.mu.Lock()
	n.lastLevel = level
	n.mu.Unlock()
}

// SilenceOnset records the start of a silence streak in the event log.
// No external channel fires yet; most dips never become a red lamp.
func (n *LampNotifier) SilenceOnset(level float64) {
	if n.events == nil {
		return
	}
	cfg := n.cfg.Snapshot()
	_ = n.events.LogLamp(eventlog.SilenceOnset, "level dropped below threshold", level, cfg.Threshold, 0)
}

// SilenceWarning fires when the lamp turns red: notify every configured
// channel, once per red phase.
func (n *LampNotifier) SilenceWarning(silence time.Duration) {
	cfg := n.cfg.Snapshot()
	n.mu.Lock()
	level := n.lastLevel
	n.mu.Unlock()

	if n.events != nil {
		_ = n.events.LogLamp(eventlog.LampRed, "silence confirmed", level, cfg.Threshold, silence)
	}

	n.trySend(&n.telegramSent, cfg.HasTelegram(), func() { n.sendTelegramRed(cfg, silence) })
	n.trySend(&n.webhookSent, cfg.HasWebhook(), func() {
		util.LogNotifyResult(func() error {
			return SendLampRedWebhook(cfg.WebhookURL, level, cfg.Threshold, silence)
		}, "Lamp red webhook")
	})
	n.trySend(&n.logSent, cfg.HasLogPath(), func() {
		util.LogNotifyResult(func() error {
			return LogLampRed(cfg.LogPath, level, cfg.Threshold, silence)
		}, "Lamp red log")
	})
	n.trySend(&n.mqttSent, cfg.HasMQTT(), func() { n.publishMQTT(cfg, "lamp_red", level, silence) })
}

// SoundRestored fires when the lamp turns green. Recovery goes only to
// channels that received the corresponding red notification.
func (n *LampNotifier) SoundRestored(precedingSilence time.Duration) {
	cfg := n.cfg.Snapshot()

	n.mu.Lock()
	level := n.lastLevel
	sendTelegram := n.telegramSent
	sendWebhook := n.webhookSent
	sendLog := n.logSent
	sendMQTT := n.mqttSent
	// Reset notification state for the next red phase
	n.telegramSent = false
	n.webhookSent = false
	n.logSent = false
	n.mqttSent = false
	n.mu.Unlock()

	if n.events != nil {
		_ = n.events.LogLamp(eventlog.LampGreen, "sound confirmed", level, cfg.Threshold, precedingSilence)
	}

	if sendTelegram {
		go n.sendTelegramGreen(cfg, precedingSilence)
	}
	if sendWebhook {
		go util.LogNotifyResult(func() error {
			return SendLampGreenWebhook(cfg.WebhookURL, level, cfg.Threshold, precedingSilence)
		}, "Lamp green webhook")
	}
	if sendLog {
		go util.LogNotifyResult(func() error {
			return LogLampGreen(cfg.LogPath, level, cfg.Threshold, precedingSilence)
		}, "Lamp green log")
	}
	if sendMQTT {
		go n.publishMQTT(cfg, "lamp_green", level, precedingSilence)
	}
}

// trySend sends a notification if the condition is met and not already sent.
func (n *LampNotifier) trySend(sent *bool, condition bool, sender func()) {
	n.mu.Lock()
	shouldSend := !*sent && condition
	if shouldSend {
		*sent = true
	}
	n.mu.Unlock()
	if shouldSend {
		go sender()
	}
}

// Reset clears the per-phase notification state.
func (n *LampNotifier) Reset() {
	n.mu.Lock()
	n.telegramSent = false
	n.webhookSent = false
	n.logSent = false
	n.mqttSent = false
	n.mu.Unlock()
}

//nolint:gocritic // hugeParam: copy is acceptable for infrequent notification events
func (n *LampNotifier) sendTelegramRed(cfg config.Snapshot, silence time.Duration) {
	text := fmt.Sprintf(
		"🔴 <b>Silence on the dance floor!</b>\nNo sound for %s. Check the DJ booth and the amp.",
		util.FormatDuration(silence),
	)
	n.broadcastTelegram(cfg, text, "Lamp red telegram")
}

//nolint:gocritic // hugeParam: copy is acceptable for infrequent notification events
func (n *LampNotifier) sendTelegramGreen(cfg config.Snapshot, precedingSilence time.Duration) {
	text := fmt.Sprintf(
		"🟢 <b>Music is back.</b>\nThe silence lasted %s.",
		util.FormatDuration(precedingSilence),
	)
	n.broadcastTelegram(cfg, text, "Lamp green telegram")
}

// DiscoStarted announces the start of a disco evening.
func (n *LampNotifier) DiscoStarted(profile, playlist string, tracks int) {
	cfg := n.cfg.Snapshot()
	if n.events != nil {
		_ = n.events.LogDisco(eventlog.DiscoStarted, "disco started", profile, playlist, tracks, "")
	}
	if !cfg.HasTelegram() {
		return
	}
	text := fmt.Sprintf(
		"🪩 <b>Disco started</b> (%s)\nPlaylist: %d tracks. Doors open!",
		profile, tracks,
	)
	go n.broadcastTelegram(cfg, text, "Disco start telegram")
}

// DiscoStopped announces the end of a disco evening.
func (n *LampNotifier) DiscoStopped(reason string) {
	cfg := n.cfg.Snapshot()
	if n.events != nil {
		_ = n.events.LogDisco(eventlog.DiscoStopped, reason, "", "", 0, "")
	}
	if !cfg.HasTelegram() {
		return
	}
	go n.broadcastTelegram(cfg, "🌙 <b>Disco finished.</b> "+reason, "Disco stop telegram")
}

//nolint:gocritic // hugeParam: copy is acceptable for infrequent notification events
func (n *LampNotifier) broadcastTelegram(cfg config.Snapshot, text, label string) {
	client := n.getOrCreateTelegramClient(cfg.TelegramToken)
	util.LogNotifyResult(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		return client.Broadcast(ctx, cfg.TelegramChatIDs, text)
	}, label)
}

//nolint:gocritic // hugeParam: copy is acceptable for infrequent notification events
func (n *LampNotifier) publishMQTT(cfg config.Snapshot, event string, level float64, silence time.Duration) {
	util.LogNotifyResult(func() error {
		pub, err := n.getOrCreateMQTTPublisher(cfg)
		if err != nil {
			return err
		}
		return pub.PublishLamp(event, level, cfg.Threshold, silence)
	}, "Lamp MQTT")
}

// SendTest fires a test notification on the named channel.
func (n *LampNotifier) SendTest(channel string) error {
	cfg := n.cfg.Snapshot()
	switch channel {
	case "telegram":
		if !cfg.HasTelegram() {
			return fmt.Errorf("telegram not configured")
		}
		client := n.getOrCreateTelegramClient(cfg.TelegramToken)
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		return client.Broadcast(ctx, cfg.TelegramChatIDs, "Test notification from "+AppName)
	case "webhook":
		return SendTestWebhook(cfg.WebhookURL)
	case "log":
		return WriteTestLog(cfg.LogPath)
	case "mqtt":
		if !cfg.HasMQTT() {
			return fmt.Errorf("mqtt not configured")
		}
		pub, err := n.getOrCreateMQTTPublisher(cfg)
		if err != nil {
			return err
		}
		return pub.PublishLamp("test", 0, cfg.Threshold, 0)
	default:
		return fmt.Errorf("unknown channel %q", channel)
	}
}
