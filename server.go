package main

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/discohub/disco-monitor/internal/audio"
	"github.com/discohub/disco-monitor/internal/config"
	"github.com/discohub/disco-monitor/internal/eventlog"
	"github.com/discohub/disco-monitor/internal/notify"
	"github.com/discohub/disco-monitor/internal/player"
	"github.com/discohub/disco-monitor/internal/playlist"
	"github.com/discohub/disco-monitor/internal/schedule"
	"github.com/discohub/disco-monitor/internal/server"
	"github.com/discohub/disco-monitor/internal/types"
)

// Server exposes the control API and the WebSocket status feed.
type Server struct {
	config    *config.Config
	host      audio.Host     // nil when no audio backend is available
	monitor   *audio.Monitor // nil in degraded mode
	scheduler *schedule.Scheduler
	player    *player.Player
	generator *playlist.Generator
	notifier  *notify.LampNotifier
	events    *eventlog.Logger
	version   *VersionChecker
}

// Deps bundles the subsystems the server fronts. Host and Monitor may
// be nil when the audio backend failed to initialize, the rest must be
// set.
type Deps struct {
	Host      audio.Host
	Monitor   *audio.Monitor
	Scheduler *schedule.Scheduler
	Player    *player.Player
	Generator *playlist.Generator
	Notifier  *notify.LampNotifier
	Events    *eventlog.Logger
}

// NewServer returns a new Server over the provided subsystems.
func NewServer(cfg *config.Config, deps Deps) *Server {
	return &Server{
		config:    cfg,
		host:      deps.Host,
		monitor:   deps.Monitor,
		scheduler: deps.Scheduler,
		player:    deps.Player,
		generator: deps.Generator,
		notifier:  deps.Notifier,
		events:    deps.Events,
		version:   NewVersionChecker(),
	}
}

// handleWebSocket streams levels and status to the control panel. The
// feed is push-only, commands go through the REST API.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := server.UpgradeConnection(w, r)
	if err != nil {
		slog.Error("WebSocket upgrade failed", "error", err)
		return
	}

	// Create buffered send channel for thread-safe writes.
	// Only the writer goroutine writes to the connection, preventing race conditions.
	send := make(chan any, 16)
	done := make(chan struct{})

	// Writer goroutine - sole writer to the connection
	go s.runWebSocketWriter(conn, send)

	// Reader goroutine - drains the connection so close frames and pings
	// are processed, and signals when the client goes away
	go s.runWebSocketReader(conn, done)

	s.runWebSocketEventLoop(send, done)
}

// runWebSocketWriter writes messages from the send channel to the connection.
func (s *Server) runWebSocketWriter(conn *websocket.Conn, send <-chan any) {
	defer func() {
		if err := conn.Close(); err != nil {
			slog.Debug("WebSocket close error", "error", err)
		}
	}()
	for msg := range send {
		if err := conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// runWebSocketReader discards incoming frames until the client disconnects.
func (s *Server) runWebSocketReader(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// runWebSocketEventLoop pushes periodic level and status frames.
func (s *Server) runWebSocketEventLoop(send chan any, done <-chan struct{}) {
	levelsTicker := time.NewTicker(100 * time.Millisecond)  // 10 fps for the VU meter
	statusTicker := time.NewTicker(3000 * time.Millisecond) // Status updates every 3s
	defer levelsTicker.Stop()
	defer statusTicker.Stop()

	// trySend attempts to send a message, returning false if done is closed
	trySend := func(msg any) bool {
		select {
		case send <- msg:
			return true
		case <-done:
			return false
		}
	}

	// Send initial status
	if !trySend(s.buildWSStatus()) {
		close(send)
		return
	}

	for {
		select {
		case <-done:
			close(send)
			return
		case <-levelsTicker.C:
			if !trySend(s.buildWSLevels()) {
				close(send)
				return
			}
		case <-statusTicker.C:
			if !trySend(s.buildWSStatus()) {
				close(send)
				return
			}
		}
	}
}

// buildWSLevels returns the current level push frame.
func (s *Server) buildWSLevels() types.WSLevelsMessage {
	msg := types.WSLevelsMessage{Type: "levels"}
	if s.monitor != nil {
		msg.Level = s.monitor.Level()
		msg.LampLit = s.monitor.LampLit()
	}
	return msg
}

// buildWSStatus returns the current status push frame.
func (s *Server) buildWSStatus() types.WSStatusMessage {
	return types.WSStatusMessage{
		Type:           "status",
		StatusResponse: s.buildStatus(),
	}
}

// buildStatus assembles the status payload shared by the REST endpoint
// and the WebSocket feed.
func (s *Server) buildStatus() types.StatusResponse {
	status := types.StatusResponse{
		Schedule: s.scheduler.Status(),
		Player:   s.playerSummary(),
		Version:  s.version.Info(),
	}
	if s.monitor != nil {
		status.Monitor = s.monitor.Status()
	} else {
		status.Monitor.MonitoringEnabled = s.config.MonitoringEnabled()
	}
	return status
}

// playerSummary returns the supervised player state without querying
// the player's HTTP interface.
func (s *Server) playerSummary() types.PlayerSummary {
	return types.PlayerSummary{
		State:         s.player.State(),
		Playlist:      s.player.Playlist(),
		UptimeSeconds: int64(s.player.Uptime().Seconds()),
		LastError:     s.player.LastError(),
	}
}

// SetupRoutes returns an [http.Handler] configured with all application routes.
func (s *Server) SetupRoutes() http.Handler {
	mux := http.NewServeMux()
	auth := s.apiKeyAuth

	mux.HandleFunc("GET /api/status", auth(s.handleStatus))
	mux.HandleFunc("GET /api/config", auth(s.handleConfig))
	mux.HandleFunc("GET /api/devices", auth(s.handleDevices))
	mux.HandleFunc("GET /api/events", auth(s.handleEvents))

	mux.HandleFunc("PUT /api/monitoring", auth(s.handleMonitoringToggle))
	mux.HandleFunc("PUT /api/monitoring/settings", auth(s.handleMonitoringSettings))
	mux.HandleFunc("POST /api/soundcheck", auth(s.handleSoundcheck))

	mux.HandleFunc("GET /api/schedule", auth(s.handleScheduleStatus))
	mux.HandleFunc("PUT /api/schedule", auth(s.handleScheduleToggle))
	mux.HandleFunc("GET /api/schedule/windows", auth(s.handleListWindows))
	mux.HandleFunc("POST /api/schedule/windows", auth(s.handleCreateWindow))
	mux.HandleFunc("PUT /api/schedule/windows/{id}", auth(s.handleUpdateWindow))
	mux.HandleFunc("DELETE /api/schedule/windows/{id}", auth(s.handleDeleteWindow))
	mux.HandleFunc("GET /api/schedule/profiles", auth(s.handleListProfiles))
	mux.HandleFunc("PUT /api/schedule/profiles", auth(s.handleUpsertProfile))
	mux.HandleFunc("DELETE /api/schedule/profiles/{name}", auth(s.handleDeleteProfile))
	mux.HandleFunc("PUT /api/schedule/rotation", auth(s.handleSetRotation))

	mux.HandleFunc("POST /api/disco/start", auth(s.handleDiscoStart))
	mux.HandleFunc("POST /api/disco/stop", auth(s.handleDiscoStop))
	mux.HandleFunc("POST /api/playlist/generate", auth(s.handlePlaylistGenerate))

	mux.HandleFunc("GET /api/player", auth(s.handlePlayerStatus))
	mux.HandleFunc("POST /api/player/next", auth(s.handlePlayerNext))
	mux.HandleFunc("POST /api/player/previous", auth(s.handlePlayerPrevious))
	mux.HandleFunc("POST /api/player/pause", auth(s.handlePlayerPause))
	mux.HandleFunc("POST /api/player/stop", auth(s.handlePlayerStop))
	mux.HandleFunc("PUT /api/player/volume", auth(s.handlePlayerVolume))

	mux.HandleFunc("PUT /api/notifications/telegram", auth(s.handleTelegramToggle))
	mux.HandleFunc("PUT /api/notifications/webhook", auth(s.handleWebhookUpdate))
	mux.HandleFunc("PUT /api/notifications/log", auth(s.handleLogUpdate))
	mux.HandleFunc("POST /api/notifications/test", auth(s.handleNotifyTest))

	mux.HandleFunc("POST /api/library/sync", auth(s.handleLibrarySync))
	mux.HandleFunc("POST /api/library/cleanup", auth(s.handleLibraryCleanup))
	mux.HandleFunc("POST /api/library/test", auth(s.handleLibraryTest))

	mux.HandleFunc("POST /api/apikey", auth(s.handleRegenerateAPIKey))

	mux.HandleFunc("GET /ws", auth(s.handleWebSocket))

	return securityHeaders(mux)
}

// securityHeaders returns middleware that wraps handlers with security headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// apiKeyAuth returns middleware for API key authentication. An empty
// configured key leaves the API open, which is the first-run state
// before an operator generates one.
func (s *Server) apiKeyAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apiKey := s.config.APIKey()
		if apiKey == "" {
			next(w, r)
			return
		}

		providedKey := r.Header.Get("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(providedKey), []byte(apiKey)) != 1 {
			server.WriteError(w, http.StatusUnauthorized, "invalid API key")
			return
		}
		next(w, r)
	}
}

// Start begins the HTTP server.
// Returns an *http.Server that can be used for graceful shutdown.
func (s *Server) Start() *http.Server {
	addr := fmt.Sprintf(":%d", s.config.Snapshot().WebPort)
	slog.Info("starting control API", "addr", addr)

	srv := &http.Server{
		Addr:    addr,
		Handler: s.SetupRoutes(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	return srv
}
