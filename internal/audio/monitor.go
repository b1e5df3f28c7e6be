package audio

import (
	"errors"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/discohub/disco-monitor/internal/types"
)

// ErrMonitoringDisabled is returned by Start when the operator has
// switched monitoring off. Not an error condition for callers; it just
// means no loop was launched.
var ErrMonitoringDisabled = errors.New("monitoring is disabled")

// Events receives lamp and level notifications from the sampling loop.
// Implementations must be fast and must never call back into the
// monitor's Start or Stop; they run on the loop goroutine.
type Events interface {
	// SilenceOnset fires when the level first drops below the threshold.
	SilenceOnset(level float64)
	// SilenceWarning fires when the lamp turns red after the full
	// silence duration.
	SilenceWarning(silence time.Duration)
	// SoundRestored fires when the lamp turns green, with the length
	// of the silence streak that preceded the recovery.
	SoundRestored(precedingSilence time.Duration)
	// LevelUpdated fires on every chunk with the new smoothed level.
	LevelUpdated(level float64)
}

// NopEvents is an Events implementation that ignores everything.
type NopEvents struct{}

func (NopEvents) SilenceOnset(float64)         {}
func (NopEvents) SilenceWarning(time.Duration) {}
func (NopEvents) SoundRestored(time.Duration)  {}
func (NopEvents) LevelUpdated(float64)         {}

// Settings are the monitor tunables. Threshold, durations and buffer
// size take effect on the next chunk even while the loop is running;
// device, rate and chunk size only apply on the next Start.
type Settings struct {
	Threshold         float64
	SilenceDuration   time.Duration
	SoundConfirmation time.Duration
	BufferSize        int
	Device            int // capture device index, or DeviceDefault
	SampleRate        int
	ChunkFrames       int
}

// DefaultSettings returns the stock tunables.
func DefaultSettings() Settings {
	return Settings{
		Threshold:         types.DefaultThreshold,
		SilenceDuration:   types.DefaultSilenceSeconds * time.Second,
		SoundConfirmation: types.DefaultConfirmationSecs * time.Second,
		BufferSize:        types.DefaultLevelBufferSize,
		Device:            DeviceDefault,
		SampleRate:        types.DefaultSampleRate,
		ChunkFrames:       types.DefaultChunkFrames,
	}
}

// Monitor supervises the sampling loop: it negotiates a capture stream,
// runs exactly one loop goroutine while active, and exposes a
// thread-safe status snapshot. Start and Stop may be called from any
// goroutine; the loop itself is the single writer of lamp and level
// state.
type Monitor struct {
	host   Host
	events Events
	lamp   *LampDetector
	meter  *LevelMeter

	mu       sync.Mutex // serializes start/stop transitions
	stream   Stream
	stopCh   chan struct{}
	doneCh   chan struct{}
	settings Settings

	enabled atomic.Bool
	running atomic.Bool
	lampLit atomic.Bool
	level   atomic.Uint64 // math.Float64bits of the smoothed level
}

// NewMonitor creates a stopped monitor. A nil events sink is replaced
// with NopEvents.
func NewMonitor(host Host, events Events, settings Settings) *Monitor {
	if events == nil {
		events = NopEvents{}
	}
	m := &Monitor{
		host:     host,
		events:   events,
		lamp:     NewLampDetector(),
		meter:    NewLevelMeter(settings.BufferSize),
		settings: settings,
	}
	m.enabled.Store(true)
	m.lampLit.Store(true)
	return m
}

// SetEnabled records the operator's monitoring switch. Disabling does
// not stop a running loop; callers stop it explicitly so the two
// effects stay visible in the logs.
func (m *Monitor) SetEnabled(enabled bool) {
	m.enabled.Store(enabled)
}

// Enabled reports the operator's monitoring switch.
func (m *Monitor) Enabled() bool {
	return m.enabled.Load()
}

// Active reports whether the sampling loop is running.
func (m *Monitor) Active() bool {
	return m.running.Load()
}

// LampLit reports the current lamp state (true = red).
func (m *Monitor) LampLit() bool {
	return m.lampLit.Load()
}

// Level returns the latest smoothed audio level.
func (m *Monitor) Level() float64 {
	return math.Float64frombits(m.level.Load())
}

// Status returns a point-in-time snapshot. Safe to call from any
// goroutine; never blocks on the sampling loop.
func (m *Monitor) Status() types.MonitorStatus {
	return types.MonitorStatus{
		LampLit:           m.lampLit.Load(),
		AudioLevel:        m.Level(),
		MonitoringActive:  m.running.Load(),
		MonitoringEnabled: m.enabled.Load(),
	}
}

// Configure replaces the tunables. Threshold, durations and buffer size
// apply from the next chunk; a changed buffer size rebuilds the window
// on the next Start.
func (m *Monitor) Configure(s Settings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = s
}

// tunables returns a copy of the current settings for one loop pass.
func (m *Monitor) tunables() Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings
}

// Start negotiates a capture stream and launches the sampling loop.
// Returns ErrMonitoringDisabled when the operator switch is off,
// ErrDeviceUnavailable (wrapped) when no input could be negotiated, and
// nil when the loop is running. A second Start while running is a no-op.
func (m *Monitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.enabled.Load() {
		slog.Info("monitoring disabled, not starting")
		return ErrMonitoringDisabled
	}
	if m.running.Load() {
		slog.Debug("monitoring already active")
		return nil
	}
	// A loop that gave up on its own leaves its stream behind; release
	// it before negotiating a new one.
	if m.stream != nil {
		_ = m.stream.Stop()
		_ = m.stream.Close()
		m.stream = nil
	}

	s := m.settings
	stream, negotiated, err := NegotiateAndOpen(m.host, s.Device, s.SampleRate, s.ChunkFrames)
	if err != nil {
		return err
	}
	// Keep the negotiated values so status and soundcheck report what
	// the device actually delivers.
	m.settings.SampleRate = negotiated.SampleRate
	m.settings.ChunkFrames = negotiated.ChunkFrames

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return err
	}

	// Every session starts from a clean slate: lamp red, timers and
	// the level window cleared.
	m.lamp.Reset()
	m.meter = NewLevelMeter(s.BufferSize)
	m.lampLit.Store(true)
	m.level.Store(math.Float64bits(0))

	m.stream = stream
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})
	m.running.Store(true)

	go m.loop(stream, negotiated.Format, m.stopCh, m.doneCh)

	slog.Info("monitoring started",
		"threshold", s.Threshold,
		"silence_duration", s.SilenceDuration,
		"sound_confirmation", s.SoundConfirmation)
	return nil
}

// Stop signals the loop, waits a bounded time for it to exit, then
// stops and closes the stream. Idempotent; safe after a loop that
// already gave up on its own.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopCh == nil {
		slog.Debug("monitoring already stopped")
		return
	}

	select {
	case <-m.stopCh:
	default:
		close(m.stopCh)
	}

	select {
	case <-m.doneCh:
	case <-time.After(types.StopJoinTimeout):
		slog.Warn("sampling loop did not exit in time, closing stream anyway")
	}
	m.running.Store(false)

	// Only closed after the join so the loop cannot be mid-read.
	if m.stream != nil {
		_ = m.stream.Stop()
		_ = m.stream.Close()
		m.stream = nil
	}
	m.stopCh = nil
	m.doneCh = nil
	slog.Info("monitoring stopped")
}

// loop is the sampling loop: read a chunk, fold it into the smoothed
// level, advance the lamp state machine, emit events. It exits when
// signalled or after too many consecutive read failures.
func (m *Monitor) loop(stream Stream, format SampleFormat, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	consecutiveErrors := 0
	for {
		select {
		case <-stopCh:
			return
		default:
		}

		if !stream.Active() {
			slog.Warn("audio stream inactive, attempting restart")
			if err := stream.Start(); err != nil {
				slog.Error("audio stream restart failed", "error", err)
			}
		}

		chunk, err := stream.ReadChunk()
		if err != nil {
			consecutiveErrors++
			slog.Warn("audio read failed",
				"consecutive_errors", consecutiveErrors, "error", err)
			if consecutiveErrors >= types.MaxConsecutiveReadErrors {
				slog.Error("too many consecutive read errors, abandoning monitoring",
					"errors", consecutiveErrors)
				m.running.Store(false)
				return
			}
			m.recoverStream(stream)
			select {
			case <-stopCh:
				return
			case <-time.After(types.ReadErrorPause):
			}
			continue
		}
		consecutiveErrors = 0

		level := m.meter.Push(RMS(DecodeSamples(format, chunk)))
		m.level.Store(math.Float64bits(level))
		m.events.LevelUpdated(level)

		s := m.tunables()
		ev := m.lamp.Process(level, LampConfig{
			Threshold:         s.Threshold,
			SilenceDuration:   s.SilenceDuration,
			SoundConfirmation: s.SoundConfirmation,
		}, time.Now())
		m.lampLit.Store(ev.Lit)

		if ev.SilenceOnset {
			slog.Debug("silence onset", "level", level)
			m.events.SilenceOnset(level)
		}
		if ev.ToRed {
			slog.Warn("silence confirmed, lamp red",
				"silence", ev.Silence.Round(time.Second), "level", level)
			m.events.SilenceWarning(ev.Silence)
		}
		if ev.ToGreen {
			slog.Info("sound confirmed, lamp green",
				"preceding_silence", ev.Silence.Round(time.Second), "level", level)
			m.events.SoundRestored(ev.Silence)
		}
	}
}

// recoverStream cycles the stream once after a failed read. Best
// effort; the next read decides whether it helped.
func (m *Monitor) recoverStream(stream Stream) {
	if err := stream.Stop(); err != nil {
		slog.Debug("stream stop during recovery failed", "error", err)
	}
	time.Sleep(types.StreamRestartPause)
	if err := stream.Start(); err != nil {
		slog.Debug("stream start during recovery failed", "error", err)
	}
}
