// Package types provides shared type definitions used across the disco monitor.
package types

import (
	"time"
)

// LampState is the binary status indicator surfaced to operators.
type LampState string

const (
	// LampRed indicates confirmed silence (or unconfirmed sound at startup).
	LampRed LampState = "red"
	// LampGreen indicates sound confirmed for the full confirmation duration.
	LampGreen LampState = "green"
)

// MonitorStatus is a point-in-time snapshot of the audio monitor.
type MonitorStatus struct {
	LampLit           bool    `json:"lamp_lit"`           // true = red (silence)
	AudioLevel        float64 `json:"audio_level"`        // smoothed RMS, 0..1
	MonitoringActive  bool    `json:"monitoring_active"`  // sampling loop running
	MonitoringEnabled bool    `json:"monitoring_enabled"` // persisted operator intent
}

// PlayerState represents the state of the managed media player process.
type PlayerState string

const (
	// PlayerStopped indicates no player process is running.
	PlayerStopped PlayerState = "stopped"
	// PlayerRunning indicates the player process is active.
	PlayerRunning PlayerState = "running"
	// PlayerStopping indicates the player is shutting down.
	PlayerStopping PlayerState = "stopping"
)

// TrackInfo describes the track currently loaded in the player.
type TrackInfo struct {
	Title    string `json:"title"`
	Filename string `json:"filename"`
	State    string `json:"state"`    // playing, paused, stopped
	Position int    `json:"position"` // seconds into the track
	Length   int    `json:"length"`   // track length in seconds
	Volume   int    `json:"volume"`   // 0..512 in VLC units
}

// SoundcheckReport summarizes a one-shot timed level capture.
type SoundcheckReport struct {
	DurationMs  int64   `json:"duration_ms"`
	Chunks      int     `json:"chunks"`
	MinLevel    float64 `json:"min_level"`
	AvgLevel    float64 `json:"avg_level"`
	MaxLevel    float64 `json:"max_level"`
	SampleRate  int     `json:"sample_rate"`
	ChunkFrames int     `json:"chunk_frames"`
	Format      string  `json:"format"`
	Passed      bool    `json:"passed"` // avg level above the silence threshold
}

// LampLogEntry is one line in the operator-configured lamp log file.
type LampLogEntry struct {
	Timestamp string  `json:"timestamp"`
	Event     string  `json:"event"` // lamp_red, lamp_green, test
	Level     float64 `json:"level"`
	Threshold float64 `json:"threshold"`
	SilenceMs int64   `json:"silence_ms,omitempty"`
}

// ScheduleStatus reports the weekly scheduler state.
type ScheduleStatus struct {
	Enabled       bool   `json:"enabled"`
	DiscoActive   bool   `json:"disco_active"`
	ActiveProfile string `json:"active_profile"`
	NextStart     string `json:"next_start,omitempty"` // RFC3339, empty when disabled
	NextStop      string `json:"next_stop,omitempty"`
}

// Timing constants for the sampling loop and supervisor.
const (
	// MaxConsecutiveReadErrors is the number of consecutive read failures
	// after which the sampling loop gives up.
	MaxConsecutiveReadErrors = 5
	// ReadErrorPause is the pause after a failed read before retrying.
	ReadErrorPause = 500 * time.Millisecond
	// StreamRestartPause is the settle time around stream stop/start calls.
	StreamRestartPause = 100 * time.Millisecond
	// StopJoinTimeout is how long Stop waits for the sampling loop to exit
	// before closing the stream anyway.
	StopJoinTimeout = 2 * time.Second
)

// Default monitor tunables, used when the config file has no values.
const (
	DefaultThreshold          = 0.01
	DefaultSilenceSeconds     = 20
	DefaultConfirmationSecs   = 5
	DefaultLevelBufferSize    = 10
	DefaultSampleRate         = 44100
	DefaultChunkFrames        = 1024
	DefaultSoundcheckDuration = 10 * time.Second
)
