package main

import (
	"context"
	"log/slog"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/discohub/disco-monitor/internal/audio"
	"github.com/discohub/disco-monitor/internal/config"
	"github.com/discohub/disco-monitor/internal/eventlog"
	"github.com/discohub/disco-monitor/internal/library"
	"github.com/discohub/disco-monitor/internal/server"
	"github.com/discohub/disco-monitor/internal/types"
)

// monitorSettings maps the persisted monitor configuration to the
// audio package tunables.
func monitorSettings(snap config.Snapshot) audio.Settings {
	return audio.Settings{
		Threshold:         snap.Threshold,
		SilenceDuration:   snap.SilenceDuration(),
		SoundConfirmation: snap.SoundConfirmation(),
		BufferSize:        snap.BufferSize,
		Device:            snap.Device,
		SampleRate:        snap.SampleRate,
		ChunkFrames:       snap.ChunkFrames,
	}
}

// requireMonitor writes a 503 when the audio backend is unavailable.
func (s *Server) requireMonitor(w http.ResponseWriter) bool {
	if s.monitor == nil {
		server.WriteError(w, http.StatusServiceUnavailable, "audio backend unavailable")
		return false
	}
	return true
}

// handleStatus returns the combined system status.
// GET /api/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	server.WriteJSON(w, http.StatusOK, s.buildStatus())
}

// handleConfig returns the configuration for the control panel.
// GET /api/config
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	snap := s.config.Snapshot()

	resp := types.ConfigResponse{
		WebPort:      snap.WebPort,
		MusicDir:     snap.MusicDir,
		PlaylistPath: snap.PlaylistPath,
		EventLogPath: snap.EventLogPath,
		Platform:     runtime.GOOS,
		HasAPIKey:    snap.APIKey != "",

		MonitoringEnabled:        snap.MonitoringEnabled,
		Threshold:                snap.Threshold,
		SilenceSeconds:           snap.SilenceSeconds,
		SoundConfirmationSeconds: snap.SoundConfirmationSeconds,
		BufferSize:               snap.BufferSize,
		Device:                   snap.Device,
		SampleRate:               snap.SampleRate,
		ChunkFrames:              snap.ChunkFrames,
		SoundcheckSeconds:        snap.SoundcheckSeconds,

		ScheduleEnabled: snap.ScheduleEnabled,
		Windows:         snap.Windows,
		Profiles:        snap.Profiles,
		Rotation:        snap.Rotation,

		PlayerBinaryPath: snap.PlayerBinaryPath,
		PlayerHTTPPort:   snap.PlayerHTTPPort,

		LibraryEndpoint:   snap.LibraryEndpoint,
		LibraryRegion:     snap.LibraryRegion,
		LibraryBucket:     snap.LibraryBucket,
		LibraryPrefix:     snap.LibraryPrefix,
		LibraryConfigured: snap.HasLibrary(),
		CleanupOnStart:    snap.CleanupOnStart,

		TelegramEnabled:  snap.TelegramEnabled,
		TelegramChatIDs:  snap.TelegramChatIDs,
		TelegramCommands: snap.TelegramCommands,
		HasTelegramToken: snap.TelegramToken != "",
		WebhookURL:       snap.WebhookURL,
		LogPath:          snap.LogPath,
		MQTTBroker:       snap.MQTTBroker,
		MQTTTopic:        snap.MQTTTopic,
	}

	server.WriteJSON(w, http.StatusOK, resp)
}

// handleDevices lists the available capture devices.
// GET /api/devices
func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	if s.host == nil {
		server.WriteError(w, http.StatusServiceUnavailable, "audio backend unavailable")
		return
	}

	devices, err := s.host.Devices()
	if err != nil {
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := make([]types.DeviceResponse, 0, len(devices))
	for _, d := range devices {
		resp = append(resp, types.DeviceResponse{
			Index:         d.Index,
			Name:          d.Name,
			InputChannels: d.InputChannels,
			DefaultRate:   d.DefaultRate,
		})
	}
	server.WriteJSON(w, http.StatusOK, resp)
}

// handleEvents returns recent events, newest first.
// GET /api/events?limit=50&offset=0&filter=lamp
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	if limit < 1 || limit > 500 {
		server.WriteError(w, http.StatusBadRequest, "limit must be between 1 and 500")
		return
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		server.WriteError(w, http.StatusBadRequest, "offset must not be negative")
		return
	}

	if s.events == nil {
		server.WriteError(w, http.StatusServiceUnavailable, "event log unavailable")
		return
	}

	filter := eventlog.TypeFilter(r.URL.Query().Get("filter"))
	switch filter {
	case eventlog.FilterAll, eventlog.FilterLamp, eventlog.FilterMonitor,
		eventlog.FilterDisco, eventlog.FilterLibrary:
	default:
		server.WriteError(w, http.StatusBadRequest, "unknown filter")
		return
	}

	events, more, err := eventlog.ReadLast(s.events.Path(), limit, offset, filter)
	if err != nil {
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"more":   more,
	})
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return v
}

// handleMonitoringToggle starts or stops the silence monitor.
// PUT /api/monitoring
func (s *Server) handleMonitoringToggle(w http.ResponseWriter, r *http.Request) {
	req, ok := server.DecodeAndValidate[server.ToggleRequest](w, r)
	if !ok {
		return
	}
	if !s.requireMonitor(w) {
		return
	}
	enabled := *req.Enabled

	if err := s.config.SetMonitoringEnabled(enabled); err != nil {
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.monitor.SetEnabled(enabled)

	if enabled {
		if err := s.monitor.Start(); err != nil {
			s.logEvent(eventlog.MonitorFailed, err.Error())
			server.WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.logEvent(eventlog.MonitorStarted, "monitoring started by operator")
	} else {
		s.monitor.Stop()
		s.notifier.Reset()
		s.logEvent(eventlog.MonitorStopped, "monitoring stopped by operator")
	}

	server.WriteJSON(w, http.StatusOK, s.monitor.Status())
}

// handleMonitoringSettings applies a partial settings update.
// PUT /api/monitoring/settings
func (s *Server) handleMonitoringSettings(w http.ResponseWriter, r *http.Request) {
	req, ok := server.DecodeAndValidate[server.MonitorSettingsRequest](w, r)
	if !ok {
		return
	}
	if err := s.applyMonitorSettings(req); err != nil {
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	snap := s.config.Snapshot()
	if s.monitor != nil {
		s.monitor.Configure(monitorSettings(snap))
		// A device change needs a stream reopen, the other tunables
		// apply live.
		if req.Device != nil && s.monitor.Active() {
			s.monitor.Stop()
			if err := s.monitor.Start(); err != nil {
				s.logEvent(eventlog.MonitorFailed, err.Error())
				server.WriteError(w, http.StatusInternalServerError, err.Error())
				return
			}
		}
	}
	server.WriteJSON(w, http.StatusOK, map[string]string{"status": "settings_updated"})
}

func (s *Server) applyMonitorSettings(req *server.MonitorSettingsRequest) error {
	if req.Threshold != nil {
		if err := s.config.SetThreshold(*req.Threshold); err != nil {
			return err
		}
	}
	if req.SilenceSeconds != nil {
		if err := s.config.SetSilenceSeconds(*req.SilenceSeconds); err != nil {
			return err
		}
	}
	if req.SoundConfirmationSeconds != nil {
		if err := s.config.SetSoundConfirmationSeconds(*req.SoundConfirmationSeconds); err != nil {
			return err
		}
	}
	if req.BufferSize != nil {
		if err := s.config.SetBufferSize(*req.BufferSize); err != nil {
			return err
		}
	}
	if req.Device != nil {
		if err := s.config.SetDevice(*req.Device); err != nil {
			return err
		}
	}
	return nil
}

// handleSoundcheck runs a timed level capture. Monitoring must be
// stopped first, the capture needs exclusive access to the device.
// POST /api/soundcheck
func (s *Server) handleSoundcheck(w http.ResponseWriter, r *http.Request) {
	req, ok := server.DecodeAndValidate[server.SoundcheckRequest](w, r)
	if !ok {
		return
	}
	if s.host == nil {
		server.WriteError(w, http.StatusServiceUnavailable, "audio backend unavailable")
		return
	}
	if s.monitor != nil && s.monitor.Active() {
		server.WriteError(w, http.StatusConflict, "stop monitoring before running a soundcheck")
		return
	}

	snap := s.config.Snapshot()
	duration := snap.SoundcheckDuration()
	if req.Seconds > 0 {
		duration = time.Duration(req.Seconds) * time.Second
	}

	report, err := audio.Soundcheck(s.host, monitorSettings(snap), duration)
	if err != nil {
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	verdict := "soundcheck failed, average level below threshold"
	if report.Passed {
		verdict = "soundcheck passed"
	}
	s.logEvent(eventlog.Soundcheck, verdict)
	server.WriteJSON(w, http.StatusOK, report)
}

// handleScheduleStatus returns the weekly scheduler state.
// GET /api/schedule
func (s *Server) handleScheduleStatus(w http.ResponseWriter, r *http.Request) {
	server.WriteJSON(w, http.StatusOK, s.scheduler.Status())
}

// handleScheduleToggle enables or disables the weekly schedule.
// PUT /api/schedule
func (s *Server) handleScheduleToggle(w http.ResponseWriter, r *http.Request) {
	req, ok := server.DecodeAndValidate[server.ToggleRequest](w, r)
	if !ok {
		return
	}
	if err := s.config.SetScheduleEnabled(*req.Enabled); err != nil {
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	server.WriteJSON(w, http.StatusOK, s.scheduler.Status())
}

// handleListWindows returns all disco windows.
// GET /api/schedule/windows
func (s *Server) handleListWindows(w http.ResponseWriter, r *http.Request) {
	server.WriteJSON(w, http.StatusOK, s.config.Windows())
}

// handleCreateWindow adds a disco window.
// POST /api/schedule/windows
func (s *Server) handleCreateWindow(w http.ResponseWriter, r *http.Request) {
	req, ok := server.DecodeAndValidate[server.WindowRequest](w, r)
	if !ok {
		return
	}

	window := types.ScheduleWindow{
		Weekday: req.Weekday,
		Start:   req.Start,
		Stop:    req.Stop,
	}
	if err := s.config.AddWindow(&window); err != nil {
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if req.Enabled != nil && !*req.Enabled {
		window.Enabled = false
		if err := s.config.UpdateWindow(&window); err != nil {
			server.WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	server.WriteJSON(w, http.StatusCreated, window)
}

// handleUpdateWindow replaces a disco window.
// PUT /api/schedule/windows/{id}
func (s *Server) handleUpdateWindow(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	existing := s.config.Window(id)
	if existing == nil {
		server.WriteError(w, http.StatusNotFound, "window not found: "+id)
		return
	}

	req, ok := server.DecodeAndValidate[server.WindowRequest](w, r)
	if !ok {
		return
	}

	window := *existing
	window.Weekday = req.Weekday
	window.Start = req.Start
	window.Stop = req.Stop
	if req.Enabled != nil {
		window.Enabled = *req.Enabled
	}
	if err := s.config.UpdateWindow(&window); err != nil {
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	server.WriteJSON(w, http.StatusOK, window)
}

// handleDeleteWindow removes a disco window.
// DELETE /api/schedule/windows/{id}
func (s *Server) handleDeleteWindow(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.config.RemoveWindow(id); err != nil {
		server.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

// handleListProfiles returns all playlist profiles.
// GET /api/schedule/profiles
func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	server.WriteJSON(w, http.StatusOK, map[string]any{
		"profiles": s.config.Profiles(),
		"rotation": s.config.Snapshot().Rotation,
	})
}

// handleUpsertProfile creates or replaces a playlist profile.
// PUT /api/schedule/profiles
func (s *Server) handleUpsertProfile(w http.ResponseWriter, r *http.Request) {
	req, ok := server.DecodeAndValidate[server.ProfileRequest](w, r)
	if !ok {
		return
	}

	profile := types.PlaylistProfile{
		Name:          req.Name,
		Folders:       req.Folders,
		TargetMinutes: req.TargetMinutes,
	}
	if err := s.config.SetProfile(profile); err != nil {
		server.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	server.WriteJSON(w, http.StatusOK, profile)
}

// handleDeleteProfile removes a playlist profile.
// DELETE /api/schedule/profiles/{name}
func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := s.config.RemoveProfile(name); err != nil {
		status := http.StatusNotFound
		if strings.Contains(err.Error(), "rotation") {
			status = http.StatusConflict
		}
		server.WriteError(w, status, err.Error())
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted", "name": name})
}

// handleSetRotation replaces the weekly profile rotation.
// PUT /api/schedule/rotation
func (s *Server) handleSetRotation(w http.ResponseWriter, r *http.Request) {
	req, ok := server.DecodeAndValidate[server.RotationRequest](w, r)
	if !ok {
		return
	}
	if err := s.config.SetRotation(req.Rotation); err != nil {
		server.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{"rotation": req.Rotation})
}

// handleDiscoStart starts a disco session now.
// POST /api/disco/start
func (s *Server) handleDiscoStart(w http.ResponseWriter, r *http.Request) {
	req, ok := server.DecodeAndValidate[server.DiscoStartRequest](w, r)
	if !ok {
		return
	}
	if err := s.scheduler.StartNow(req.Profile); err != nil {
		server.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	server.WriteJSON(w, http.StatusOK, s.scheduler.Status())
}

// handleDiscoStop stops the running disco session.
// POST /api/disco/stop
func (s *Server) handleDiscoStop(w http.ResponseWriter, r *http.Request) {
	if err := s.scheduler.StopNow(); err != nil {
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	server.WriteJSON(w, http.StatusOK, s.scheduler.Status())
}

// handlePlaylistGenerate builds a playlist without starting the player.
// POST /api/playlist/generate
func (s *Server) handlePlaylistGenerate(w http.ResponseWriter, r *http.Request) {
	req, ok := server.DecodeAndValidate[server.PlaylistGenerateRequest](w, r)
	if !ok {
		return
	}
	profile := s.config.Profile(req.Profile)
	if profile == nil {
		server.WriteError(w, http.StatusNotFound, "profile not found: "+req.Profile)
		return
	}

	pl, err := s.generator.Generate(*profile)
	if err != nil {
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	path := s.config.Snapshot().PlaylistPath
	if err := pl.WriteM3U(path); err != nil {
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.logDisco(eventlog.PlaylistGenerated, "playlist generated", profile.Name, path, len(pl.Tracks), "")
	server.WriteJSON(w, http.StatusOK, map[string]any{
		"playlist":      path,
		"tracks":        len(pl.Tracks),
		"total_seconds": int64(pl.Total.Seconds()),
	})
}

// handlePlayerStatus returns the player state and track metadata.
// GET /api/player
func (s *Server) handlePlayerStatus(w http.ResponseWriter, r *http.Request) {
	resp := types.PlayerResponse{PlayerSummary: s.playerSummary()}
	if s.player.Running() {
		if track, err := s.player.Remote().Status(r.Context()); err == nil {
			resp.Track = &track
		} else {
			slog.Debug("player status query failed", "error", err)
		}
	}
	server.WriteJSON(w, http.StatusOK, resp)
}

// playerCommand guards and runs one remote player command.
func (s *Server) playerCommand(ctx context.Context, w http.ResponseWriter, name string, run func(context.Context) error) {
	if !s.player.Running() {
		server.WriteError(w, http.StatusConflict, "player is not running")
		return
	}
	if err := run(ctx); err != nil {
		server.WriteError(w, http.StatusBadGateway, err.Error())
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]string{"status": name})
}

// handlePlayerNext skips to the next track.
// POST /api/player/next
func (s *Server) handlePlayerNext(w http.ResponseWriter, r *http.Request) {
	s.playerCommand(r.Context(), w, "next", s.player.Remote().Next)
}

// handlePlayerPrevious returns to the previous track.
// POST /api/player/previous
func (s *Server) handlePlayerPrevious(w http.ResponseWriter, r *http.Request) {
	s.playerCommand(r.Context(), w, "previous", s.player.Remote().Previous)
}

// handlePlayerPause toggles pause.
// POST /api/player/pause
func (s *Server) handlePlayerPause(w http.ResponseWriter, r *http.Request) {
	s.playerCommand(r.Context(), w, "pause", s.player.Remote().PlayPause)
}

// handlePlayerStop stops playback without killing the player process.
// POST /api/player/stop
func (s *Server) handlePlayerStop(w http.ResponseWriter, r *http.Request) {
	s.playerCommand(r.Context(), w, "stopped", s.player.Remote().StopPlayback)
}

// handlePlayerVolume sets the player volume.
// PUT /api/player/volume
func (s *Server) handlePlayerVolume(w http.ResponseWriter, r *http.Request) {
	req, ok := server.DecodeAndValidate[server.VolumeRequest](w, r)
	if !ok {
		return
	}
	s.playerCommand(r.Context(), w, "volume_set", func(ctx context.Context) error {
		return s.player.Remote().SetVolume(ctx, *req.Volume)
	})
}

// handleTelegramToggle enables or disables Telegram notifications.
// PUT /api/notifications/telegram
func (s *Server) handleTelegramToggle(w http.ResponseWriter, r *http.Request) {
	req, ok := server.DecodeAndValidate[server.ToggleRequest](w, r)
	if !ok {
		return
	}
	if err := s.config.SetTelegramEnabled(*req.Enabled); err != nil {
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.notifier.InvalidateClients()
	server.WriteJSON(w, http.StatusOK, map[string]bool{"enabled": *req.Enabled})
}

// handleWebhookUpdate sets or clears the lamp webhook URL.
// PUT /api/notifications/webhook
func (s *Server) handleWebhookUpdate(w http.ResponseWriter, r *http.Request) {
	req, ok := server.DecodeAndValidate[server.WebhookUpdateRequest](w, r)
	if !ok {
		return
	}
	if err := s.config.SetWebhookURL(req.URL); err != nil {
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]string{"webhook_url": req.URL})
}

// handleLogUpdate sets or clears the lamp log file path.
// PUT /api/notifications/log
func (s *Server) handleLogUpdate(w http.ResponseWriter, r *http.Request) {
	req, ok := server.DecodeAndValidate[server.LogUpdateRequest](w, r)
	if !ok {
		return
	}
	if err := s.config.SetLogPath(req.Path); err != nil {
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]string{"log_path": req.Path})
}

// handleNotifyTest fires a test notification on one channel.
// POST /api/notifications/test
func (s *Server) handleNotifyTest(w http.ResponseWriter, r *http.Request) {
	req, ok := server.DecodeAndValidate[server.NotifyTestRequest](w, r)
	if !ok {
		return
	}
	if err := s.notifier.SendTest(req.Channel); err != nil {
		server.WriteError(w, http.StatusBadGateway, err.Error())
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]string{"status": "test_sent", "channel": req.Channel})
}

// openLibrary builds a library client from the current configuration.
func (s *Server) openLibrary(w http.ResponseWriter) (*library.Library, bool) {
	snap := s.config.Snapshot()
	if !snap.HasLibrary() {
		server.WriteError(w, http.StatusServiceUnavailable, "music library is not configured")
		return nil, false
	}
	lib, err := library.New(&library.Settings{
		Endpoint:  snap.LibraryEndpoint,
		Region:    snap.LibraryRegion,
		Bucket:    snap.LibraryBucket,
		AccessKey: snap.LibraryAccessKey,
		SecretKey: snap.LibrarySecretKey,
		Prefix:    snap.LibraryPrefix,
	}, snap.MusicDir)
	if err != nil {
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return lib, true
}

// handleLibrarySync uploads local changes and removes stale remote tracks.
// POST /api/library/sync
func (s *Server) handleLibrarySync(w http.ResponseWriter, r *http.Request) {
	lib, ok := s.openLibrary(w)
	if !ok {
		return
	}

	report, err := lib.Sync(r.Context())
	if err != nil {
		s.logLibrary(eventlog.SyncFailed, err.Error(), 0, 0, err.Error())
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logLibrary(eventlog.SyncCompleted, "library synced", report.Uploaded, report.Deleted, "")
	server.WriteJSON(w, http.StatusOK, report)
}

// handleLibraryCleanup removes OS junk files from the music tree.
// POST /api/library/cleanup
func (s *Server) handleLibraryCleanup(w http.ResponseWriter, r *http.Request) {
	report := library.CleanupJunk(s.config.MusicDir())
	if s.events != nil {
		if err := s.events.LogLibrary(eventlog.CleanupCompleted, "music tree cleaned",
			0, 0, report.FilesRemoved, strings.Join(report.Errors, "; ")); err != nil {
			slog.Warn("event log write failed", "error", err)
		}
	}
	server.WriteJSON(w, http.StatusOK, report)
}

// handleLibraryTest verifies the configured bucket accepts writes.
// POST /api/library/test
func (s *Server) handleLibraryTest(w http.ResponseWriter, r *http.Request) {
	lib, ok := s.openLibrary(w)
	if !ok {
		return
	}
	if err := lib.TestConnection(r.Context()); err != nil {
		server.WriteError(w, http.StatusBadGateway, err.Error())
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]string{"status": "connection_ok"})
}

// handleRegenerateAPIKey replaces the API key. The new key is returned
// once, afterwards only its presence is reported.
// POST /api/apikey
func (s *Server) handleRegenerateAPIKey(w http.ResponseWriter, r *http.Request) {
	key, err := config.GenerateAPIKey()
	if err != nil {
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.config.SetAPIKey(key); err != nil {
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]string{"api_key": key})
}

// logEvent writes a plain event, tolerating a missing logger.
func (s *Server) logEvent(eventType eventlog.EventType, message string) {
	if s.events == nil {
		return
	}
	if err := s.events.Log(&eventlog.Event{Type: eventType, Message: message}); err != nil {
		slog.Warn("event log write failed", "error", err)
	}
}

func (s *Server) logDisco(eventType eventlog.EventType, message, profile, playlist string, tracks int, errMsg string) {
	if s.events == nil {
		return
	}
	if err := s.events.LogDisco(eventType, message, profile, playlist, tracks, errMsg); err != nil {
		slog.Warn("event log write failed", "error", err)
	}
}

func (s *Server) logLibrary(eventType eventlog.EventType, message string, uploaded, deleted int, errMsg string) {
	if s.events == nil {
		return
	}
	if err := s.events.LogLibrary(eventType, message, uploaded, deleted, 0, errMsg); err != nil {
		slog.Warn("event log write failed", "error", err)
	}
}
