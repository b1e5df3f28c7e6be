// Package config provides application configuration management.
package config

import (
	"cmp"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/discohub/disco-monitor/internal/types"
	"github.com/discohub/disco-monitor/internal/util"
)

// Configuration defaults are used when values are not specified.
const (
	DefaultWebPort             = 8080
	DefaultPlayerHTTPPort      = 8090
	DefaultPlayerHTTPPassword  = "disco"
	DefaultTargetMinutes       = 240 // 4 hour evening
	DefaultSoundcheckSeconds   = 10
	DefaultMusicDir            = "music"
	DefaultPlaylistPath        = "disco.m3u"
	DefaultEventLogPath        = "events.jsonl"
	DefaultVersionCheckMinutes = 60
)

// Validation patterns define regular expressions for configuration value validation.
var (
	clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
	weekdays     = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}
)

// SystemConfig holds system-level settings that require restart.
type SystemConfig struct {
	Port         int    `json:"port"`           // HTTP server port
	APIKey       string `json:"api_key"`        // API key for the control API (empty = open)
	MusicDir     string `json:"music_dir"`      // Root of the local music tree
	PlaylistPath string `json:"playlist_path"`  // Where generated playlists are written
	EventLogPath string `json:"event_log_path"` // JSON-lines event log
}

// MonitorConfig holds the audio monitor tunables. Durations are in
// seconds to match the operator-facing API.
type MonitorConfig struct {
	Enabled                  bool    `json:"enabled"`                    // Operator switch
	Threshold                float64 `json:"threshold"`                  // Smoothed RMS below this is silence
	SilenceSeconds           int     `json:"silence_seconds"`            // Silence before the lamp goes red
	SoundConfirmationSeconds int     `json:"sound_confirmation_seconds"` // Sound before the lamp goes green
	BufferSize               int     `json:"buffer_size"`                // Smoothing window in chunks
	Device                   int     `json:"device"`                     // Input device index, -1 = default
	SampleRate               int     `json:"sample_rate"`                // Preferred sample rate
	ChunkFrames              int     `json:"chunk_frames"`               // Preferred chunk size
	SoundcheckSeconds        int     `json:"soundcheck_seconds"`         // Soundcheck capture length
}

// ScheduleConfig holds the weekly disco schedule and playlist profiles.
type ScheduleConfig struct {
	Enabled  bool                    `json:"enabled"`  // Scheduler switch
	Windows  []types.ScheduleWindow  `json:"windows"`  // Weekly disco windows
	Profiles []types.PlaylistProfile `json:"profiles"` // Named playlist profiles
	Rotation []string                `json:"rotation"` // Profile names rotated by ISO week
}

// PlayerConfig holds the managed media player settings.
type PlayerConfig struct {
	BinaryPath   string `json:"binary_path"`   // Path to the VLC binary (empty = search)
	HTTPPort     int    `json:"http_port"`     // VLC HTTP interface port
	HTTPPassword string `json:"http_password"` // VLC HTTP interface password
}

// LibraryConfig holds S3 music library sync settings.
type LibraryConfig struct {
	Endpoint       string `json:"endpoint"`         // S3-compatible endpoint URL
	Region         string `json:"region"`           // Region (often "auto")
	Bucket         string `json:"bucket"`           // Bucket name
	AccessKey      string `json:"access_key"`       // Access key ID
	SecretKey      string `json:"secret_key"`       // Secret access key
	Prefix         string `json:"prefix"`           // Key prefix inside the bucket
	CleanupOnStart bool   `json:"cleanup_on_start"` // Remove macOS junk files at startup
}

// TelegramConfig holds Telegram bot notification and command settings.
type TelegramConfig struct {
	Enabled  bool     `json:"enabled"`  // Notification switch
	BotToken string   `json:"bot_token"`
	ChatIDs  []string `json:"chat_ids"` // Chats that receive alerts
	Commands bool     `json:"commands"` // Answer bot commands via long polling
}

// WebhookConfig holds webhook notification settings.
type WebhookConfig struct {
	URL string `json:"url"` // Webhook URL for lamp alerts
}

// LogConfig holds log file notification settings.
type LogConfig struct {
	Path string `json:"path"` // Log file path for lamp events
}

// MQTTConfig holds MQTT notification settings.
type MQTTConfig struct {
	Broker   string `json:"broker"` // tcp://host:port
	Topic    string `json:"topic"`
	ClientID string `json:"client_id"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// NotificationsConfig holds all notification channel settings.
type NotificationsConfig struct {
	Telegram TelegramConfig `json:"telegram"`
	Webhook  WebhookConfig  `json:"webhook"`
	Log      LogConfig      `json:"log"`
	MQTT     MQTTConfig     `json:"mqtt"`
}

// Config holds all application configuration. It is safe for concurrent use.
type Config struct {
	System        SystemConfig        `json:"system"`
	Monitor       MonitorConfig       `json:"monitor"`
	Schedule      ScheduleConfig      `json:"schedule"`
	Player        PlayerConfig        `json:"player"`
	Library       LibraryConfig       `json:"library"`
	Notifications NotificationsConfig `json:"notifications"`

	mu       sync.RWMutex
	filePath string
}

// New creates a new Config with default values. Non-zero defaults and
// the -1 device sentinel are set here so a config file that omits them
// keeps the defaults after Load. Monitoring starts disabled: a fresh
// install must not grab an input device until an operator turns the
// lamp watch on.
func New(filePath string) *Config {
	return &Config{
		System: SystemConfig{
			Port:         DefaultWebPort,
			MusicDir:     DefaultMusicDir,
			PlaylistPath: DefaultPlaylistPath,
			EventLogPath: DefaultEventLogPath,
		},
		Monitor: MonitorConfig{
			Threshold:                types.DefaultThreshold,
			SilenceSeconds:           types.DefaultSilenceSeconds,
			SoundConfirmationSeconds: types.DefaultConfirmationSecs,
			BufferSize:               types.DefaultLevelBufferSize,
			Device:                   -1,
			SampleRate:               types.DefaultSampleRate,
			ChunkFrames:              types.DefaultChunkFrames,
			SoundcheckSeconds:        DefaultSoundcheckSeconds,
		},
		Schedule: ScheduleConfig{
			Windows:  []types.ScheduleWindow{},
			Profiles: []types.PlaylistProfile{},
			Rotation: []string{},
		},
		Player: PlayerConfig{
			HTTPPort:     DefaultPlayerHTTPPort,
			HTTPPassword: DefaultPlayerHTTPPassword,
		},
		filePath: filePath,
	}
}

// Load reads config from file, creating a default if none exists.
// A file that cannot be read, parsed or validated leaves the in-memory
// configuration on the defaults and returns the error for logging: a
// broken config file must never keep the host from starting. The file
// on disk is left alone until the next save.
func (c *Config) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.filePath)
	if os.IsNotExist(err) {
		return c.saveLocked()
	}
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	if err := json.Unmarshal(data, c); err != nil {
		c.resetLocked()
		return util.WrapError("parse config", err)
	}

	c.applyDefaults()

	if err := c.validate(); err != nil {
		c.resetLocked()
		return err
	}
	return nil
}

// resetLocked discards whatever a bad config file left behind and
// restores the defaults. Caller must hold c.mu.
func (c *Config) resetLocked() {
	fresh := New(c.filePath)
	c.System = fresh.System
	c.Monitor = fresh.Monitor
	c.Schedule = fresh.Schedule
	c.Player = fresh.Player
	c.Library = fresh.Library
	c.Notifications = fresh.Notifications
}

// validate checks all configuration fields for correctness.
func (c *Config) validate() error {
	if c.Monitor.Threshold < 0 || c.Monitor.Threshold > 1 {
		return fmt.Errorf("invalid threshold %v: must be between 0 and 1", c.Monitor.Threshold)
	}
	if c.Monitor.SilenceSeconds < 1 {
		return fmt.Errorf("invalid silence_seconds %d: must be at least 1", c.Monitor.SilenceSeconds)
	}
	if c.Monitor.SoundConfirmationSeconds < 1 {
		return fmt.Errorf("invalid sound_confirmation_seconds %d: must be at least 1", c.Monitor.SoundConfirmationSeconds)
	}
	for _, w := range c.Schedule.Windows {
		if !slices.Contains(weekdays, strings.ToLower(w.Weekday)) {
			return fmt.Errorf("invalid schedule weekday %q", w.Weekday)
		}
		if !clockPattern.MatchString(w.Start) || !clockPattern.MatchString(w.Stop) {
			return fmt.Errorf("invalid schedule times %q-%q: must be HH:MM", w.Start, w.Stop)
		}
	}
	for _, name := range c.Schedule.Rotation {
		if c.findProfileIndex(name) == -1 {
			return fmt.Errorf("rotation references unknown profile %q", name)
		}
	}
	return nil
}

// applyDefaults sets default values for zero-value fields.
func (c *Config) applyDefaults() {
	if c.System.Port == 0 {
		c.System.Port = DefaultWebPort
	}
	if c.System.MusicDir == "" {
		c.System.MusicDir = DefaultMusicDir
	}
	if c.System.PlaylistPath == "" {
		c.System.PlaylistPath = DefaultPlaylistPath
	}
	if c.System.EventLogPath == "" {
		c.System.EventLogPath = DefaultEventLogPath
	}
	if c.Monitor.Threshold == 0 {
		c.Monitor.Threshold = types.DefaultThreshold
	}
	if c.Monitor.SilenceSeconds == 0 {
		c.Monitor.SilenceSeconds = types.DefaultSilenceSeconds
	}
	if c.Monitor.SoundConfirmationSeconds == 0 {
		c.Monitor.SoundConfirmationSeconds = types.DefaultConfirmationSecs
	}
	if c.Monitor.BufferSize == 0 {
		c.Monitor.BufferSize = types.DefaultLevelBufferSize
	}
	if c.Monitor.SampleRate == 0 {
		c.Monitor.SampleRate = types.DefaultSampleRate
	}
	if c.Monitor.ChunkFrames == 0 {
		c.Monitor.ChunkFrames = types.DefaultChunkFrames
	}
	if c.Monitor.SoundcheckSeconds == 0 {
		c.Monitor.SoundcheckSeconds = DefaultSoundcheckSeconds
	}
	if c.Player.HTTPPort == 0 {
		c.Player.HTTPPort = DefaultPlayerHTTPPort
	}
	if c.Player.HTTPPassword == "" {
		c.Player.HTTPPassword = DefaultPlayerHTTPPassword
	}
	if c.Schedule.Windows == nil {
		c.Schedule.Windows = []types.ScheduleWindow{}
	}
	for i := range c.Schedule.Windows {
		c.Schedule.Windows[i].Weekday = strings.ToLower(c.Schedule.Windows[i].Weekday)
		if c.Schedule.Windows[i].CreatedAt == 0 {
			c.Schedule.Windows[i].CreatedAt = time.Now().UnixMilli()
		}
	}
	if c.Schedule.Profiles == nil {
		c.Schedule.Profiles = []types.PlaylistProfile{}
	}
	for i := range c.Schedule.Profiles {
		if c.Schedule.Profiles[i].TargetMinutes == 0 {
			c.Schedule.Profiles[i].TargetMinutes = DefaultTargetMinutes
		}
	}
	if c.Schedule.Rotation == nil {
		c.Schedule.Rotation = []string{}
	}
}

// saveLocked persists configuration. Caller must hold c.mu.
func (c *Config) saveLocked() error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return util.WrapError("marshal config", err)
	}

	dir := filepath.Dir(c.filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return util.WrapError("create config directory", err)
	}

	if err := os.WriteFile(c.filePath, data, 0o600); err != nil {
		return util.WrapError("write config", err)
	}

	return nil
}

// --- Schedule window management ---

// Windows returns a copy of all schedule windows.
func (c *Config) Windows() []types.ScheduleWindow {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.Schedule.Windows)
}

// Window returns a copy of the window with the given ID, or nil if not found.
func (c *Config) Window(id string) *types.ScheduleWindow {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, w := range c.Schedule.Windows {
		if w.ID == id {
			window := w
			return &window
		}
	}
	return nil
}

// findWindowIndex returns the index of the window with the given ID, or -1 if not found.
func (c *Config) findWindowIndex(id string) int {
	for i, w := range c.Schedule.Windows {
		if w.ID == id {
			return i
		}
	}
	return -1
}

// AddWindow adds a new schedule window and saves the configuration.
func (c *Config) AddWindow(window *types.ScheduleWindow) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	shortID, err := generateShortID()
	if err != nil {
		return fmt.Errorf("failed to generate ID: %w", err)
	}
	window.ID = fmt.Sprintf("window-%s", shortID)
	window.Weekday = strings.ToLower(window.Weekday)

	// New windows are enabled by default
	window.Enabled = true
	window.CreatedAt = time.Now().UnixMilli()

	c.Schedule.Windows = append(c.Schedule.Windows, *window)
	return c.saveLocked()
}

// RemoveWindow removes a window by ID and saves the configuration.
func (c *Config) RemoveWindow(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.findWindowIndex(id)
	if i == -1 {
		return fmt.Errorf("window not found: %s", id)
	}

	c.Schedule.Windows = append(c.Schedule.Windows[:i], c.Schedule.Windows[i+1:]...)
	return c.saveLocked()
}

// UpdateWindow updates an existing window and saves the configuration.
func (c *Config) UpdateWindow(window *types.ScheduleWindow) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.findWindowIndex(window.ID)
	if i == -1 {
		return fmt.Errorf("window not found: %s", window.ID)
	}

	window.Weekday = strings.ToLower(window.Weekday)
	c.Schedule.Windows[i] = *window
	return c.saveLocked()
}

// --- Playlist profile management ---

// Profiles returns a copy of all playlist profiles.
func (c *Config) Profiles() []types.PlaylistProfile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.Schedule.Profiles)
}

// Profile returns a copy of the named profile, or nil if not found.
func (c *Config) Profile(name string) *types.PlaylistProfile {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i := c.findProfileIndex(name)
	if i == -1 {
		return nil
	}
	profile := c.Schedule.Profiles[i]
	profile.Folders = slices.Clone(profile.Folders)
	return &profile
}

// findProfileIndex returns the index of the named profile, or -1 if not found.
func (c *Config) findProfileIndex(name string) int {
	for i, p := range c.Schedule.Profiles {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// SetProfile adds or replaces a profile by name and saves the configuration.
func (c *Config) SetProfile(profile types.PlaylistProfile) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if profile.Name == "" {
		return fmt.Errorf("profile name is required")
	}
	if profile.TargetMinutes == 0 {
		profile.TargetMinutes = DefaultTargetMinutes
	}

	if i := c.findProfileIndex(profile.Name); i != -1 {
		c.Schedule.Profiles[i] = profile
	} else {
		c.Schedule.Profiles = append(c.Schedule.Profiles, profile)
	}
	return c.saveLocked()
}

// RemoveProfile removes a profile by name and saves the configuration.
// A profile referenced by the rotation cannot be removed.
func (c *Config) RemoveProfile(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if slices.Contains(c.Schedule.Rotation, name) {
		return fmt.Errorf("profile %s is in the rotation", name)
	}
	i := c.findProfileIndex(name)
	if i == -1 {
		return fmt.Errorf("profile not found: %s", name)
	}

	c.Schedule.Profiles = append(c.Schedule.Profiles[:i], c.Schedule.Profiles[i+1:]...)
	return c.saveLocked()
}

// SetRotation replaces the profile rotation order and saves.
func (c *Config) SetRotation(names []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, name := range names {
		if c.findProfileIndex(name) == -1 {
			return fmt.Errorf("rotation references unknown profile %q", name)
		}
	}
	c.Schedule.Rotation = slices.Clone(names)
	return c.saveLocked()
}

// --- Getters for individual settings ---

// MonitoringEnabled returns the operator's monitoring switch.
func (c *Config) MonitoringEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Monitor.Enabled
}

// ScheduleEnabled returns the scheduler switch.
func (c *Config) ScheduleEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Schedule.Enabled
}

// APIKey returns the control API key.
func (c *Config) APIKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.System.APIKey
}

// MusicDir returns the root of the local music tree.
func (c *Config) MusicDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.System.MusicDir
}

// --- Setters for individual settings ---

// SetMonitoringEnabled updates the monitoring switch and saves the configuration.
func (c *Config) SetMonitoringEnabled(enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Monitor.Enabled = enabled
	return c.saveLocked()
}

// SetScheduleEnabled updates the scheduler switch and saves the configuration.
func (c *Config) SetScheduleEnabled(enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Schedule.Enabled = enabled
	return c.saveLocked()
}

// SetThreshold updates the silence threshold and saves the configuration.
func (c *Config) SetThreshold(threshold float64) error {
	if threshold < 0 || threshold > 1 {
		return fmt.Errorf("invalid threshold %v: must be between 0 and 1", threshold)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Monitor.Threshold = threshold
	return c.saveLocked()
}

// SetSilenceSeconds updates the silence duration and saves the configuration.
func (c *Config) SetSilenceSeconds(seconds int) error {
	if seconds < 1 {
		return fmt.Errorf("invalid silence_seconds %d: must be at least 1", seconds)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Monitor.SilenceSeconds = seconds
	return c.saveLocked()
}

// SetSoundConfirmationSeconds updates the confirmation duration and saves the configuration.
func (c *Config) SetSoundConfirmationSeconds(seconds int) error {
	if seconds < 1 {
		return fmt.Errorf("invalid sound_confirmation_seconds %d: must be at least 1", seconds)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Monitor.SoundConfirmationSeconds = seconds
	return c.saveLocked()
}

// SetBufferSize updates the smoothing window and saves the configuration.
func (c *Config) SetBufferSize(size int) error {
	if size < 1 {
		return fmt.Errorf("invalid buffer_size %d: must be at least 1", size)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Monitor.BufferSize = size
	return c.saveLocked()
}

// SetDevice updates the input device index and saves the configuration.
func (c *Config) SetDevice(device int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Monitor.Device = device
	return c.saveLocked()
}

// SetTelegramEnabled updates the Telegram notification switch and saves.
func (c *Config) SetTelegramEnabled(enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Notifications.Telegram.Enabled = enabled
	return c.saveLocked()
}

// SetWebhookURL updates the webhook URL and saves the configuration.
func (c *Config) SetWebhookURL(url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Notifications.Webhook.URL = url
	return c.saveLocked()
}

// SetLogPath updates the log file path and saves the configuration.
// An empty path disables the lamp log.
func (c *Config) SetLogPath(path string) error {
	if path != "" {
		if err := util.ValidatePath("log_path", path); err != nil {
			return err
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Notifications.Log.Path = path
	return c.saveLocked()
}

// SetAPIKey updates the control API key and saves the configuration.
func (c *Config) SetAPIKey(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.System.APIKey = key
	return c.saveLocked()
}

// --- Snapshot for atomic reads ---

// Snapshot is a point-in-time copy of configuration values.
type Snapshot struct {
	// System
	WebPort      int
	APIKey       string
	MusicDir     string
	PlaylistPath string
	EventLogPath string

	// Monitor
	MonitoringEnabled        bool
	Threshold                float64
	SilenceSeconds           int
	SoundConfirmationSeconds int
	BufferSize               int
	Device                   int
	SampleRate               int
	ChunkFrames              int
	SoundcheckSeconds        int

	// Schedule
	ScheduleEnabled bool
	Windows         []types.ScheduleWindow
	Profiles        []types.PlaylistProfile
	Rotation        []string

	// Player
	PlayerBinaryPath   string
	PlayerHTTPPort     int
	PlayerHTTPPassword string

	// Library
	LibraryEndpoint  string
	LibraryRegion    string
	LibraryBucket    string
	LibraryAccessKey string
	LibrarySecretKey string
	LibraryPrefix    string
	CleanupOnStart   bool

	// Notifications
	TelegramEnabled  bool
	TelegramToken    string
	TelegramChatIDs  []string
	TelegramCommands bool
	WebhookURL       string
	LogPath          string
	MQTTBroker       string
	MQTTTopic        string
	MQTTClientID     string
	MQTTUsername     string
	MQTTPassword     string
}

// Snapshot returns a point-in-time copy of all configuration values.
func (c *Config) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Snapshot{
		// System
		WebPort:      c.System.Port,
		APIKey:       c.System.APIKey,
		MusicDir:     c.System.MusicDir,
		PlaylistPath: c.System.PlaylistPath,
		EventLogPath: c.System.EventLogPath,

		// Monitor (with defaults)
		MonitoringEnabled:        c.Monitor.Enabled,
		Threshold:                cmp.Or(c.Monitor.Threshold, types.DefaultThreshold),
		SilenceSeconds:           cmp.Or(c.Monitor.SilenceSeconds, types.DefaultSilenceSeconds),
		SoundConfirmationSeconds: cmp.Or(c.Monitor.SoundConfirmationSeconds, types.DefaultConfirmationSecs),
		BufferSize:               cmp.Or(c.Monitor.BufferSize, types.DefaultLevelBufferSize),
		Device:                   c.Monitor.Device,
		SampleRate:               cmp.Or(c.Monitor.SampleRate, types.DefaultSampleRate),
		ChunkFrames:              cmp.Or(c.Monitor.ChunkFrames, types.DefaultChunkFrames),
		SoundcheckSeconds:        cmp.Or(c.Monitor.SoundcheckSeconds, DefaultSoundcheckSeconds),

		// Schedule
		ScheduleEnabled: c.Schedule.Enabled,
		Windows:         slices.Clone(c.Schedule.Windows),
		Profiles:        slices.Clone(c.Schedule.Profiles),
		Rotation:        slices.Clone(c.Schedule.Rotation),

		// Player
		PlayerBinaryPath:   c.Player.BinaryPath,
		PlayerHTTPPort:     cmp.Or(c.Player.HTTPPort, DefaultPlayerHTTPPort),
		PlayerHTTPPassword: cmp.Or(c.Player.HTTPPassword, DefaultPlayerHTTPPassword),

		// Library
		LibraryEndpoint:  c.Library.Endpoint,
		LibraryRegion:    c.Library.Region,
		LibraryBucket:    c.Library.Bucket,
		LibraryAccessKey: c.Library.AccessKey,
		LibrarySecretKey: c.Library.SecretKey,
		LibraryPrefix:    c.Library.Prefix,
		CleanupOnStart:   c.Library.CleanupOnStart,

		// Notifications
		TelegramEnabled:  c.Notifications.Telegram.Enabled,
		TelegramToken:    c.Notifications.Telegram.BotToken,
		TelegramChatIDs:  slices.Clone(c.Notifications.Telegram.ChatIDs),
		TelegramCommands: c.Notifications.Telegram.Commands,
		WebhookURL:       c.Notifications.Webhook.URL,
		LogPath:          c.Notifications.Log.Path,
		MQTTBroker:       c.Notifications.MQTT.Broker,
		MQTTTopic:        c.Notifications.MQTT.Topic,
		MQTTClientID:     c.Notifications.MQTT.ClientID,
		MQTTUsername:     c.Notifications.MQTT.Username,
		MQTTPassword:     c.Notifications.MQTT.Password,
	}
}

// HasTelegram reports whether Telegram notifications are configured.
func (s *Snapshot) HasTelegram() bool {
	return s.TelegramEnabled && s.TelegramToken != "" && len(s.TelegramChatIDs) > 0
}

// HasWebhook reports whether a webhook URL is configured.
func (s *Snapshot) HasWebhook() bool {
	return s.WebhookURL != ""
}

// HasLogPath reports whether a log path is configured.
func (s *Snapshot) HasLogPath() bool {
	return s.LogPath != ""
}

// HasMQTT reports whether an MQTT broker and topic are configured.
func (s *Snapshot) HasMQTT() bool {
	return s.MQTTBroker != "" && s.MQTTTopic != ""
}

// HasLibrary reports whether the S3 music library is configured.
func (s *Snapshot) HasLibrary() bool {
	return s.LibraryEndpoint != "" && s.LibraryBucket != "" &&
		s.LibraryAccessKey != "" && s.LibrarySecretKey != ""
}

// SilenceDuration returns the silence duration as a time.Duration.
func (s *Snapshot) SilenceDuration() time.Duration {
	return time.Duration(s.SilenceSeconds) * time.Second
}

// SoundConfirmation returns the confirmation duration as a time.Duration.
func (s *Snapshot) SoundConfirmation() time.Duration {
	return time.Duration(s.SoundConfirmationSeconds) * time.Second
}

// SoundcheckDuration returns the soundcheck capture length as a time.Duration.
func (s *Snapshot) SoundcheckDuration() time.Duration {
	return time.Duration(s.SoundcheckSeconds) * time.Second
}

// --- Utility functions ---

// GenerateAPIKey generates a new random 32-character alphanumeric API key.
func GenerateAPIKey() (string, error) {
	const chars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const length = 32
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(chars))))
		if err != nil {
			return "", err
		}
		result[i] = chars[n.Int64()]
	}
	return string(result), nil
}

// generateShortID generates a random 8-character hex ID for schedule windows.
func generateShortID() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", b), nil
}
