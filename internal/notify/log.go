package notify

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/discohub/disco-monitor/internal/types"
	"github.com/discohub/disco-monitor/internal/util"
)

// LogLampRed records a lamp-red event in the operator log file.
func LogLampRed(logPath string, level, threshold float64, silence time.Duration) error {
	return appendLogEntry(logPath, &types.LampLogEntry{
		Timestamp: timestampUTC(),
		Event:     "lamp_red",
		Level:     level,
		Threshold: threshold,
		SilenceMs: silence.Milliseconds(),
	})
}

// LogLampGreen records a lamp-green event in the operator log file.
func LogLampGreen(logPath string, level, threshold float64, precedingSilence time.Duration) error {
	return appendLogEntry(logPath, &types.LampLogEntry{
		Timestamp: timestampUTC(),
		Event:     "lamp_green",
		Level:     level,
		Threshold: threshold,
		SilenceMs: precedingSilence.Milliseconds(),
	})
}

// WriteTestLog writes a test log entry.
func WriteTestLog(logPath string) error {
	if logPath == "" {
		return fmt.Errorf("log file path not configured")
	}

	return appendLogEntry(logPath, &types.LampLogEntry{
		Timestamp: timestampUTC(),
		Event:     "test",
	})
}

// appendLogEntry appends a log entry to the file.
func appendLogEntry(logPath string, entry *types.LampLogEntry) error {
	if !util.IsConfigured(logPath) {
		return nil
	}

	jsonData, err := json.Marshal(entry)
	if err != nil {
		return util.WrapError("marshal log entry", err)
	}

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return util.WrapError("open log file", err)
	}
	defer f.Close() //nolint:errcheck // Append-only log, close error not actionable

	if _, err := f.Write(append(jsonData, '\n')); err != nil {
		return util.WrapError("write log entry", err)
	}

	return nil
}
