package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/discohub/disco-monitor/internal/config"
	"github.com/discohub/disco-monitor/internal/eventlog"
	"github.com/discohub/disco-monitor/internal/notify"
	"github.com/discohub/disco-monitor/internal/player"
	"github.com/discohub/disco-monitor/internal/playlist"
	"github.com/discohub/disco-monitor/internal/schedule"
	"github.com/discohub/disco-monitor/internal/types"
)

// newTestServer builds a server without an audio backend, the way the
// host runs on a machine with no capture device.
func newTestServer(t *testing.T) (*Server, http.Handler, *config.Config) {
	t.Helper()
	dir := t.TempDir()

	cfg := config.New(filepath.Join(dir, "config.json"))
	require.NoError(t, cfg.Load())

	events, err := eventlog.NewLogger(filepath.Join(dir, "events.jsonl"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = events.Close() })

	notifier := notify.NewLampNotifier(cfg, events)
	pl := player.New("", 8090, "disco")
	generator := playlist.NewGenerator(dir)
	disco := schedule.NewDisco(generator, pl, notifier, filepath.Join(dir, "disco.m3u"))
	scheduler := schedule.New(cfg, disco)

	srv := NewServer(cfg, Deps{
		Scheduler: scheduler,
		Player:    pl,
		Generator: generator,
		Notifier:  notifier,
		Events:    events,
	})
	t.Cleanup(srv.version.Stop)

	return srv, srv.SetupRoutes(), cfg
}

// doJSON performs a request against the handler and returns the recorder.
func doJSON(t *testing.T, h http.Handler, method, path string, body any, apiKey string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestAPIKeyAuth(t *testing.T) {
	_, h, cfg := newTestServer(t)

	// First-run state: no key configured, the API is open.
	rec := doJSON(t, h, http.MethodGet, "/api/status", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, cfg.SetAPIKey("sekrit"))

	rec = doJSON(t, h, http.MethodGet, "/api/status", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/status", nil, "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/status", nil, "sekrit")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatusEndpoint(t *testing.T) {
	_, h, cfg := newTestServer(t)

	rec := doJSON(t, h, http.MethodGet, "/api/status", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	status := decodeBody[types.StatusResponse](t, rec)
	assert.Equal(t, cfg.MonitoringEnabled(), status.Monitor.MonitoringEnabled)
	assert.False(t, status.Monitor.MonitoringActive, "no audio backend in tests")
	assert.False(t, status.Schedule.DiscoActive)
	assert.Equal(t, types.PlayerStopped, status.Player.State)
	assert.NotEmpty(t, status.Version.Current)
}

func TestConfigEndpoint(t *testing.T) {
	_, h, _ := newTestServer(t)

	rec := doJSON(t, h, http.MethodGet, "/api/config", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[types.ConfigResponse](t, rec)
	assert.False(t, resp.HasAPIKey)
	assert.False(t, resp.LibraryConfigured)
	assert.NotZero(t, resp.WebPort)
	assert.NotZero(t, resp.SilenceSeconds)
	assert.NotEmpty(t, resp.Platform)
}

func TestMonitoringUnavailableWithoutBackend(t *testing.T) {
	_, h, _ := newTestServer(t)

	rec := doJSON(t, h, http.MethodPut, "/api/monitoring", map[string]bool{"enabled": true}, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/soundcheck", map[string]int{"seconds": 2}, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/devices", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMonitoringToggleRequiresBody(t *testing.T) {
	_, h, _ := newTestServer(t)

	rec := doJSON(t, h, http.MethodPut, "/api/monitoring", map[string]string{}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "enabled")
}

func TestWindowCRUD(t *testing.T) {
	_, h, _ := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/schedule/windows", map[string]string{
		"weekday": "friday", "start": "18:00", "stop": "22:00",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	window := decodeBody[types.ScheduleWindow](t, rec)
	assert.Contains(t, window.ID, "window-")
	assert.True(t, window.Enabled)

	rec = doJSON(t, h, http.MethodPut, "/api/schedule/windows/"+window.ID, map[string]any{
		"weekday": "saturday", "start": "19:00", "stop": "23:00", "enabled": false,
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeBody[types.ScheduleWindow](t, rec)
	assert.Equal(t, "saturday", updated.Weekday)
	assert.False(t, updated.Enabled)

	rec = doJSON(t, h, http.MethodDelete, "/api/schedule/windows/"+window.ID, nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, "/api/schedule/windows/"+window.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWindowValidation(t *testing.T) {
	_, h, _ := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/schedule/windows", map[string]string{
		"weekday": "freitag", "start": "18:00", "stop": "22:00",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "weekday")

	rec = doJSON(t, h, http.MethodPost, "/api/schedule/windows", map[string]string{
		"weekday": "friday", "start": "6pm", "stop": "22:00",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "start")
}

func TestProfilesAndRotation(t *testing.T) {
	_, h, _ := newTestServer(t)

	rec := doJSON(t, h, http.MethodPut, "/api/schedule/profiles", map[string]any{
		"name": "pop-night", "folders": []string{"pop"}, "target_minutes": 180,
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPut, "/api/schedule/rotation", map[string]any{
		"rotation": []string{"pop-night"},
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	// A profile in the rotation cannot be removed.
	rec = doJSON(t, h, http.MethodDelete, "/api/schedule/profiles/pop-night", nil, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Unknown rotation entries are rejected.
	rec = doJSON(t, h, http.MethodPut, "/api/schedule/rotation", map[string]any{
		"rotation": []string{"nope"},
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDiscoStartWithoutProfiles(t *testing.T) {
	_, h, _ := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/disco/start", map[string]string{}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "profiles")
}

func TestPlayerCommandsNeedRunningPlayer(t *testing.T) {
	_, h, _ := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/player/next", nil, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, h, http.MethodPut, "/api/player/volume", map[string]int{"volume": 256}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPlayerVolumeValidation(t *testing.T) {
	_, h, _ := newTestServer(t)

	rec := doJSON(t, h, http.MethodPut, "/api/player/volume", map[string]int{"volume": 9999}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "volume")
}

func TestEventsEndpoint(t *testing.T) {
	srv, h, _ := newTestServer(t)

	require.NoError(t, srv.events.LogLamp(eventlog.LampRed, "silence confirmed", 0.001, 0.01, 0))
	require.NoError(t, srv.events.LogDisco(eventlog.DiscoStarted, "disco started", "pop", "disco.m3u", 40, ""))

	rec := doJSON(t, h, http.MethodGet, "/api/events?filter=lamp", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[struct {
		Events []eventlog.Event `json:"events"`
		More   bool             `json:"more"`
	}](t, rec)
	require.Len(t, resp.Events, 1)
	assert.Equal(t, eventlog.LampRed, resp.Events[0].Type)

	rec = doJSON(t, h, http.MethodGet, "/api/events?filter=bogus", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/events?limit=0", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLibraryEndpointsUnconfigured(t *testing.T) {
	_, h, _ := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/library/sync", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	// Cleanup needs no remote storage, it works on the local tree.
	rec = doJSON(t, h, http.MethodPost, "/api/library/cleanup", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegenerateAPIKey(t *testing.T) {
	_, h, cfg := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/apikey", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[map[string]string](t, rec)
	key := resp["api_key"]
	require.NotEmpty(t, key)
	assert.Equal(t, key, cfg.APIKey())

	// The new key is enforced immediately.
	rec = doJSON(t, h, http.MethodGet, "/api/status", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = doJSON(t, h, http.MethodGet, "/api/status", nil, key)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNotificationSettings(t *testing.T) {
	_, h, cfg := newTestServer(t)

	rec := doJSON(t, h, http.MethodPut, "/api/notifications/webhook", map[string]string{
		"url": "https://hooks.example.com/lamp",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://hooks.example.com/lamp", cfg.Snapshot().WebhookURL)

	rec = doJSON(t, h, http.MethodPut, "/api/notifications/webhook", map[string]string{
		"url": "not a url",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPut, "/api/notifications/log", map[string]string{
		"path": "../escape.log",
	}, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = doJSON(t, h, http.MethodPut, "/api/notifications/telegram", map[string]bool{
		"enabled": true,
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, cfg.Snapshot().TelegramEnabled)
}

func TestMethodNotAllowed(t *testing.T) {
	_, h, _ := newTestServer(t)

	rec := doJSON(t, h, http.MethodDelete, "/api/status", nil, "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSecurityHeaders(t *testing.T) {
	_, h, _ := newTestServer(t)

	rec := doJSON(t, h, http.MethodGet, "/api/status", nil, "")
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}
