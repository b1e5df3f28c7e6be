package audio

import (
	"log/slog"
	"time"

	"github.com/discohub/disco-monitor/internal/types"
)

// Soundcheck captures audio for the given duration and reports the
// observed smoothed levels. Used before opening to verify the booth
// feed actually reaches the capture device. Must not run while the
// monitor holds the device; callers stop monitoring first.
func Soundcheck(host Host, s Settings, duration time.Duration) (types.SoundcheckReport, error) {
	if duration <= 0 {
		duration = types.DefaultSoundcheckDuration
	}

	stream, cfg, err := NegotiateAndOpen(host, s.Device, s.SampleRate, s.ChunkFrames)
	if err != nil {
		return types.SoundcheckReport{}, err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return types.SoundcheckReport{}, err
	}
	defer stream.Stop()

	meter := NewLevelMeter(s.BufferSize)
	report := types.SoundcheckReport{
		DurationMs:  duration.Milliseconds(),
		MinLevel:    1.0,
		SampleRate:  cfg.SampleRate,
		ChunkFrames: cfg.ChunkFrames,
		Format:      cfg.Format.String(),
	}

	var sum float64
	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		chunk, err := stream.ReadChunk()
		if err != nil {
			slog.Warn("soundcheck read failed", "error", err)
			time.Sleep(types.ReadErrorPause)
			continue
		}
		level := meter.Push(RMS(DecodeSamples(cfg.Format, chunk)))
		report.Chunks++
		sum += level
		if level < report.MinLevel {
			report.MinLevel = level
		}
		if level > report.MaxLevel {
			report.MaxLevel = level
		}
	}

	if report.Chunks == 0 {
		report.MinLevel = 0
	} else {
		report.AvgLevel = sum / float64(report.Chunks)
	}
	report.Passed = report.AvgLevel >= s.Threshold

	slog.Info("soundcheck complete",
		"chunks", report.Chunks,
		"avg_level", report.AvgLevel,
		"max_level", report.MaxLevel,
		"passed", report.Passed)
	return report, nil
}
