// Package eventlog provides unified event logging for the disco host.
// It captures lamp transitions, monitor lifecycle, disco runs and
// library maintenance in a single JSON lines file.
package eventlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType represents the type of event.
type EventType string

// Lamp event types.
const (
	SilenceOnset EventType = "silence_onset"
	LampRed      EventType = "lamp_red"
	LampGreen    EventType = "lamp_green"
)

// Monitor event types.
const (
	MonitorStarted EventType = "monitor_started"
	MonitorStopped EventType = "monitor_stopped"
	MonitorFailed  EventType = "monitor_failed"
	Soundcheck     EventType = "soundcheck"
)

// Disco event types.
const (
	DiscoStarted      EventType = "disco_started"
	DiscoStopped      EventType = "disco_stopped"
	PlaylistGenerated EventType = "playlist_generated"
	PlayerError       EventType = "player_error"
)

// Library event types.
const (
	SyncCompleted    EventType = "sync_completed"
	SyncFailed       EventType = "sync_failed"
	CleanupCompleted EventType = "cleanup_completed"
)

// Event represents a single log entry with type-specific details.
type Event struct {
	Timestamp time.Time `json:"ts"`
	Type      EventType `json:"type"`
	Message   string    `json:"msg,omitempty"`
	Details   any       `json:"details,omitempty"`
}

// LampDetails contains lamp-specific event details.
type LampDetails struct {
	Level     float64 `json:"level"`
	Threshold float64 `json:"threshold"`
	SilenceMs int64   `json:"silence_ms,omitempty"`
}

// DiscoDetails contains disco run details.
type DiscoDetails struct {
	Profile  string `json:"profile,omitempty"`
	Playlist string `json:"playlist,omitempty"`
	Tracks   int    `json:"tracks,omitempty"`
	Error    string `json:"error,omitempty"`
}

// LibraryDetails contains music library maintenance details.
type LibraryDetails struct {
	Uploaded     int    `json:"uploaded,omitempty"`
	Deleted      int    `json:"deleted,omitempty"`
	FilesRemoved int    `json:"files_removed,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Logger writes events to a JSON lines file.
type Logger struct {
	mu       sync.Mutex
	filePath string
	file     *os.File
	encoder  *json.Encoder
}

// NewLogger creates a new event logger at the specified path.
func NewLogger(filePath string) (*Logger, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	return &Logger{
		filePath: filePath,
		file:     file,
		encoder:  json.NewEncoder(file),
	}, nil
}

// Log writes an event to the log file.
func (l *Logger) Log(event *Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	return l.encoder.Encode(event)
}

// LogLamp logs a lamp event with the evaluated level and threshold.
func (l *Logger) LogLamp(eventType EventType, message string, level, threshold float64, silence time.Duration) error {
	return l.Log(&Event{
		Timestamp: time.Now(),
		Type:      eventType,
		Message:   message,
		Details: &LampDetails{
			Level:     level,
			Threshold: threshold,
			SilenceMs: silence.Milliseconds(),
		},
	})
}

// LogDisco logs a disco run event.
func (l *Logger) LogDisco(eventType EventType, message, profile, playlist string, tracks int, errMsg string) error {
	return l.Log(&Event{
		Timestamp: time.Now(),
		Type:      eventType,
		Message:   message,
		Details: &DiscoDetails{
			Profile:  profile,
			Playlist: playlist,
			Tracks:   tracks,
			Error:    errMsg,
		},
	})
}

// LogLibrary logs a library maintenance event.
func (l *Logger) LogLibrary(eventType EventType, message string, uploaded, deleted, filesRemoved int, errMsg string) error {
	return l.Log(&Event{
		Timestamp: time.Now(),
		Type:      eventType,
		Message:   message,
		Details: &LibraryDetails{
			Uploaded:     uploaded,
			Deleted:      deleted,
			FilesRemoved: filesRemoved,
			Error:        errMsg,
		},
	})
}

// Close closes the log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Path returns the path to the log file.
func (l *Logger) Path() string {
	return l.filePath
}

// TypeFilter specifies which event types to include when reading.
type TypeFilter string

// Filter constants for ReadLast.
const (
	FilterAll     TypeFilter = ""
	FilterLamp    TypeFilter = "lamp"
	FilterMonitor TypeFilter = "monitor"
	FilterDisco   TypeFilter = "disco"
	FilterLibrary TypeFilter = "library"
)

// MaxReadLimit is the maximum number of events that can be read at once.
const MaxReadLimit = 500

// ReadLast reads events from the log file with pagination support.
// Returns up to n events starting from offset, filtered by type.
// Events are returned in reverse chronological order (newest first).
func ReadLast(filePath string, n, offset int, filter TypeFilter) ([]Event, bool, error) {
	if n > MaxReadLimit {
		n = MaxReadLimit
	}
	if n <= 0 {
		return []Event{}, false, nil
	}

	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []Event{}, false, nil
		}
		return nil, false, err
	}
	defer file.Close() //nolint:errcheck // Read-only operation, close error not critical

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, false, err
	}

	events := make([]Event, 0, n)
	skipped := 0
	hasMore := false
	for i := len(lines) - 1; i >= 0; i-- {
		var event Event
		if err := json.Unmarshal([]byte(lines[i]), &event); err != nil {
			continue // Skip malformed lines
		}
		if !matchesFilter(event.Type, filter) {
			continue
		}

		// Skip events until we reach the offset
		if skipped < offset {
			skipped++
			continue
		}

		if len(events) == n {
			hasMore = true
			break
		}
		events = append(events, event)
	}

	return events, hasMore, nil
}

func matchesFilter(t EventType, filter TypeFilter) bool {
	switch filter {
	case FilterLamp:
		return IsLampEvent(t)
	case FilterMonitor:
		return IsMonitorEvent(t)
	case FilterDisco:
		return IsDiscoEvent(t)
	case FilterLibrary:
		return IsLibraryEvent(t)
	default:
		return true
	}
}

// IsLampEvent returns true if the event type is a lamp event.
func IsLampEvent(t EventType) bool {
	return t == SilenceOnset || t == LampRed || t == LampGreen
}

// IsMonitorEvent returns true if the event type is a monitor lifecycle event.
func IsMonitorEvent(t EventType) bool {
	return t == MonitorStarted || t == MonitorStopped || t == MonitorFailed || t == Soundcheck
}

// IsDiscoEvent returns true if the event type is a disco run event.
func IsDiscoEvent(t EventType) bool {
	return t == DiscoStarted || t == DiscoStopped || t == PlaylistGenerated || t == PlayerError
}

// IsLibraryEvent returns true if the event type is a library maintenance event.
func IsLibraryEvent(t EventType) bool {
	return t == SyncCompleted || t == SyncFailed || t == CleanupCompleted
}
