package audio

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/discohub/disco-monitor/internal/types"
)

// Device index sentinels for StreamConfig.Device.
const (
	// DeviceDefault lets the backend pick the system default input.
	DeviceDefault = -1
	// FallbackMixerDevice is the input slot where the system mixer
	// usually lands on the venue machines. Tried as a last resort.
	FallbackMixerDevice = 6
)

// ErrDeviceUnavailable is returned when every capture configuration and
// device fallback has been exhausted. Callers treat it as non-fatal:
// the host keeps running with monitoring unavailable.
var ErrDeviceUnavailable = errors.New("no usable audio input device")

// ErrDeviceBusy classifies open failures worth retrying on another
// device, as opposed to parameter errors that no device will accept.
// Backends wrap matching errors so negotiation can detect them.
var ErrDeviceBusy = errors.New("audio device busy or unavailable")

// DeviceInfo describes one capture device offered by a Host.
type DeviceInfo struct {
	Index         int
	Name          string
	InputChannels int
	DefaultRate   float64
}

// StreamConfig is one concrete capture configuration.
type StreamConfig struct {
	Format      SampleFormat
	SampleRate  int
	ChunkFrames int
	Device      int // device index, or DeviceDefault
}

func (c StreamConfig) String() string {
	return fmt.Sprintf("%s %dHz %d frames", c.Format, c.SampleRate, c.ChunkFrames)
}

// Stream is an opened mono capture stream.
type Stream interface {
	Start() error
	Stop() error
	Close() error
	// Active reports whether the stream is currently started.
	Active() bool
	// ReadChunk blocks for one chunk and returns its raw bytes.
	ReadChunk() ([]byte, error)
}

// Host abstracts the audio backend so negotiation and the sampling loop
// can be tested against fakes.
type Host interface {
	Devices() ([]DeviceInfo, error)
	// Supported reports whether the backend claims to support the
	// configuration. A non-nil error means the check itself failed,
	// in which case opening is still attempted.
	Supported(cfg StreamConfig) (bool, error)
	Open(cfg StreamConfig) (Stream, error)
	Close() error
}

// Candidates returns the capture configurations to try, in order of
// preference: best quality first, then progressively more conservative
// formats for flaky USB interfaces. The preferred rate and chunk size
// seed the first candidate; values below 1 fall back to the defaults.
func Candidates(preferredRate, preferredChunk int) []StreamConfig {
	if preferredRate < 1 {
		preferredRate = types.DefaultSampleRate
	}
	if preferredChunk < 1 {
		preferredChunk = types.DefaultChunkFrames
	}
	return []StreamConfig{
		{Format: FormatFloat32, SampleRate: preferredRate, ChunkFrames: preferredChunk},
		{Format: FormatInt16, SampleRate: 16000, ChunkFrames: 512},
		{Format: FormatInt16, SampleRate: 44100, ChunkFrames: 1024},
		{Format: FormatInt16, SampleRate: 8000, ChunkFrames: 256},
	}
}

// deviceChain returns the device indices to try for one candidate:
// the configured device, the system default, index 0, then the mixer
// slot, with duplicates removed.
func deviceChain(configured int) []int {
	chain := []int{configured, DeviceDefault, 0, FallbackMixerDevice}
	seen := make(map[int]bool, len(chain))
	out := chain[:0]
	for _, d := range chain {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}

// NegotiateAndOpen walks the candidate configurations against the host
// until one opens and survives a test read. For each candidate, open
// failures that look like device unavailability trigger the device
// fallback chain before the candidate is abandoned. The returned stream
// is stopped; the caller starts it when ready.
func NegotiateAndOpen(host Host, device, preferredRate, preferredChunk int) (Stream, StreamConfig, error) {
	for _, cand := range Candidates(preferredRate, preferredChunk) {
		cand.Device = device

		ok, err := host.Supported(cand)
		if err != nil {
			// The capability probe itself failed; the open below is
			// the authoritative check.
			slog.Debug("audio capability probe failed, trying open anyway",
				"config", cand.String(), "error", err)
		} else if !ok {
			slog.Debug("audio configuration not supported", "config", cand.String())
			continue
		}

		stream, opened, err := openWithFallback(host, cand)
		if err != nil {
			slog.Warn("audio configuration failed to open",
				"config", cand.String(), "error", err)
			continue
		}

		if err := testRead(stream); err != nil {
			slog.Warn("audio test read failed",
				"config", opened.String(), "device", opened.Device, "error", err)
			_ = stream.Close()
			continue
		}

		slog.Info("audio input negotiated",
			"format", opened.Format.String(),
			"sample_rate", opened.SampleRate,
			"chunk_frames", opened.ChunkFrames,
			"device", opened.Device)
		return stream, opened, nil
	}
	return nil, StreamConfig{}, ErrDeviceUnavailable
}

// openWithFallback opens the candidate on the first device in the
// fallback chain that accepts it. Only unavailability-class errors move
// on to the next device; anything else fails the candidate outright.
func openWithFallback(host Host, cand StreamConfig) (Stream, StreamConfig, error) {
	var lastErr error
	for _, dev := range deviceChain(cand.Device) {
		cfg := cand
		cfg.Device = dev
		stream, err := host.Open(cfg)
		if err == nil {
			return stream, cfg, nil
		}
		lastErr = err
		if !errors.Is(err, ErrDeviceBusy) {
			return nil, StreamConfig{}, err
		}
		slog.Debug("audio device unavailable, trying fallback",
			"device", dev, "error", err)
	}
	return nil, StreamConfig{}, lastErr
}

// testRead starts the stream, pulls one chunk to prove the device
// actually delivers data, and stops it again.
func testRead(stream Stream) error {
	if err := stream.Start(); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	if _, err := stream.ReadChunk(); err != nil {
		_ = stream.Stop()
		return fmt.Errorf("read: %w", err)
	}
	if err := stream.Stop(); err != nil {
		return fmt.Errorf("stop: %w", err)
	}
	time.Sleep(types.StreamRestartPause)
	return nil
}
