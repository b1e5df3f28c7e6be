package eventlog

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger(t *testing.T) *Logger {
	t.Helper()
	l, err := NewLogger(filepath.Join(t.TempDir(), "events.jsonl"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestLogAndReadLast(t *testing.T) {
	l := testLogger(t)

	require.NoError(t, l.LogLamp(SilenceOnset, "level dropped", 0.002, 0.01, 0))
	require.NoError(t, l.LogLamp(LampRed, "silence confirmed", 0.002, 0.01, 20*time.Second))
	require.NoError(t, l.LogDisco(DiscoStarted, "friday night", "week-a", "disco.m3u", 42, ""))

	events, hasMore, err := ReadLast(l.Path(), 10, 0, FilterAll)
	require.NoError(t, err)
	assert.False(t, hasMore)
	require.Len(t, events, 3)
	assert.Equal(t, DiscoStarted, events[0].Type, "newest first")
	assert.Equal(t, LampRed, events[1].Type)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestReadLastFilterAndPagination(t *testing.T) {
	l := testLogger(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, l.LogLamp(LampRed, "red", 0.001, 0.01, 20*time.Second))
		require.NoError(t, l.LogDisco(PlaylistGenerated, "generated", "week-b", "disco.m3u", 30, ""))
	}

	lamp, hasMore, err := ReadLast(l.Path(), 3, 0, FilterLamp)
	require.NoError(t, err)
	assert.True(t, hasMore, "two more lamp events remain")
	require.Len(t, lamp, 3)
	for _, ev := range lamp {
		assert.True(t, IsLampEvent(ev.Type))
	}

	rest, hasMore, err := ReadLast(l.Path(), 3, 3, FilterLamp)
	require.NoError(t, err)
	assert.False(t, hasMore)
	assert.Len(t, rest, 2)
}

func TestReadLastMissingFile(t *testing.T) {
	events, hasMore, err := ReadLast(filepath.Join(t.TempDir(), "nope.jsonl"), 10, 0, FilterAll)
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.False(t, hasMore)
}
