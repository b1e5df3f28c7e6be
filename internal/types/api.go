package types

// API and WebSocket response payloads.

// DeviceResponse describes one capture device for the API.
type DeviceResponse struct {
	Index         int     `json:"index"`
	Name          string  `json:"name"`
	InputChannels int     `json:"input_channels"`
	DefaultRate   float64 `json:"default_rate"`
}

// ConfigResponse is the GET /api/config payload. Secrets are reported
// as presence flags, never echoed back.
type ConfigResponse struct {
	WebPort      int    `json:"web_port"`
	MusicDir     string `json:"music_dir"`
	PlaylistPath string `json:"playlist_path"`
	EventLogPath string `json:"event_log_path"`
	Platform     string `json:"platform"`
	HasAPIKey    bool   `json:"has_api_key"`

	MonitoringEnabled        bool    `json:"monitoring_enabled"`
	Threshold                float64 `json:"threshold"`
	SilenceSeconds           int     `json:"silence_seconds"`
	SoundConfirmationSeconds int     `json:"sound_confirmation_seconds"`
	BufferSize               int     `json:"buffer_size"`
	Device                   int     `json:"device"`
	SampleRate               int     `json:"sample_rate"`
	ChunkFrames              int     `json:"chunk_frames"`
	SoundcheckSeconds        int     `json:"soundcheck_seconds"`

	ScheduleEnabled bool              `json:"schedule_enabled"`
	Windows         []ScheduleWindow  `json:"windows"`
	Profiles        []PlaylistProfile `json:"profiles"`
	Rotation        []string          `json:"rotation"`

	PlayerBinaryPath string `json:"player_binary_path,omitempty"`
	PlayerHTTPPort   int    `json:"player_http_port"`

	LibraryEndpoint   string `json:"library_endpoint,omitempty"`
	LibraryRegion     string `json:"library_region,omitempty"`
	LibraryBucket     string `json:"library_bucket,omitempty"`
	LibraryPrefix     string `json:"library_prefix,omitempty"`
	LibraryConfigured bool   `json:"library_configured"`
	CleanupOnStart    bool   `json:"cleanup_on_start"`

	TelegramEnabled  bool     `json:"telegram_enabled"`
	TelegramChatIDs  []string `json:"telegram_chat_ids,omitempty"`
	TelegramCommands bool     `json:"telegram_commands"`
	HasTelegramToken bool     `json:"has_telegram_token"`
	WebhookURL       string   `json:"webhook_url,omitempty"`
	LogPath          string   `json:"log_path,omitempty"`
	MQTTBroker       string   `json:"mqtt_broker,omitempty"`
	MQTTTopic        string   `json:"mqtt_topic,omitempty"`
}

// PlayerSummary is the supervised player state without track metadata.
type PlayerSummary struct {
	State         PlayerState `json:"state"`
	Playlist      string      `json:"playlist,omitempty"`
	UptimeSeconds int64       `json:"uptime_seconds"`
	LastError     string      `json:"last_error,omitempty"`
}

// PlayerResponse is the GET /api/player payload: the supervised state
// plus track metadata when the player interface answered.
type PlayerResponse struct {
	PlayerSummary
	Track *TrackInfo `json:"track,omitempty"`
}

// StatusResponse is the GET /api/status payload.
type StatusResponse struct {
	Monitor  MonitorStatus  `json:"monitor"`
	Schedule ScheduleStatus `json:"schedule"`
	Player   PlayerSummary  `json:"player"`
	Version  VersionInfo    `json:"version"`
}

// WSLevelsMessage is the high-rate level push frame for VU meters.
type WSLevelsMessage struct {
	Type    string  `json:"type"` // always "levels"
	Level   float64 `json:"level"`
	LampLit bool    `json:"lamp_lit"`
}

// WSStatusMessage is the periodic status push frame.
type WSStatusMessage struct {
	Type string `json:"type"` // always "status"
	StatusResponse
}
