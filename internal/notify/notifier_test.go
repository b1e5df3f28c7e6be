package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/discohub/disco-monitor/internal/config"
)

func testNotifier(t *testing.T) (*LampNotifier, *config.Config) {
	t.Helper()
	cfg := config.New(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, cfg.Load())
	return NewLampNotifier(cfg, nil), cfg
}

func TestSendLampRedWebhook(t *testing.T) {
	var payload WebhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
	}))
	defer srv.Close()

	require.NoError(t, SendLampRedWebhook(srv.URL, 0.002, 0.01, 20*time.Second))
	assert.Equal(t, "lamp_red", payload.Event)
	assert.Equal(t, int64(20000), payload.SilenceMs)
	assert.Equal(t, 0.01, payload.Threshold)
	assert.NotEmpty(t, payload.Timestamp)
}

func TestSendWebhookSkipsWhenUnconfigured(t *testing.T) {
	assert.NoError(t, SendLampRedWebhook("", 0.002, 0.01, time.Second))
	assert.Error(t, SendTestWebhook(""), "explicit test demands a URL")
}

func TestSendWebhookRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := SendLampRedWebhook(srv.URL, 0.002, 0.01, time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestNotifierWebhookOncePerRedPhase(t *testing.T) {
	events := make(chan string, 10)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload WebhookPayload
		json.NewDecoder(r.Body).Decode(&payload)
		events <- payload.Event
	}))
	defer srv.Close()

	n, cfg := testNotifier(t)
	require.NoError(t, cfg.SetWebhookURL(srv.URL))

	n.LevelUpdated(0.002)
	n.SilenceWarning(20 * time.Second)
	n.SilenceWarning(25 * time.Second) // duplicate warning must not re-send

	select {
	case ev := <-events:
		assert.Equal(t, "lamp_red", ev)
	case <-time.After(2 * time.Second):
		t.Fatal("red webhook not sent")
	}
	select {
	case ev := <-events:
		t.Fatalf("unexpected second webhook %q", ev)
	case <-time.After(200 * time.Millisecond):
	}

	n.SoundRestored(25 * time.Second)
	select {
	case ev := <-events:
		assert.Equal(t, "lamp_green", ev)
	case <-time.After(2 * time.Second):
		t.Fatal("green webhook not sent")
	}

	// A new red phase notifies again.
	n.SilenceWarning(20 * time.Second)
	select {
	case ev := <-events:
		assert.Equal(t, "lamp_red", ev)
	case <-time.After(2 * time.Second):
		t.Fatal("second phase red webhook not sent")
	}
}

func TestNotifierNoRecoveryWithoutRed(t *testing.T) {
	events := make(chan string, 10)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		events <- "hit"
	}))
	defer srv.Close()

	n, cfg := testNotifier(t)
	require.NoError(t, cfg.SetWebhookURL(srv.URL))

	n.SoundRestored(5 * time.Second)
	select {
	case <-events:
		t.Fatal("recovery sent without a preceding red notification")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestLogChannel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lamp.log")

	require.NoError(t, LogLampRed(path, 0.002, 0.01, 20*time.Second))
	require.NoError(t, LogLampGreen(path, 0.5, 0.01, 25*time.Second))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"event":"lamp_red"`)
	assert.Contains(t, lines[1], `"event":"lamp_green"`)
	assert.Contains(t, lines[1], `"silence_ms":25000`)
}

func TestSendTestUnknownChannel(t *testing.T) {
	n, _ := testNotifier(t)
	assert.Error(t, n.SendTest("carrier-pigeon"))
	assert.Error(t, n.SendTest("telegram"), "telegram unconfigured")
}
