package player

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/discohub/disco-monitor/internal/types"
)

// fakeBinary writes an executable shell script standing in for VLC.
func fakeBinary(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script test binaries are unix only")
	}
	path := filepath.Join(t.TempDir(), "vlc")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755))
	return path
}

func fakePlaylist(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "disco.m3u")
	require.NoError(t, os.WriteFile(path, []byte("#EXTM3U\n"), 0o644))
	return path
}

func TestFindBinaryConfigured(t *testing.T) {
	bin := fakeBinary(t, "exec sleep 60")
	found, err := FindBinary(bin)
	require.NoError(t, err)
	assert.Equal(t, bin, found)

	_, err = FindBinary(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestPlayerStartStop(t *testing.T) {
	p := New(fakeBinary(t, "exec sleep 60"), 8090, "disco")
	playlist := fakePlaylist(t)

	require.NoError(t, p.Start(playlist))
	assert.True(t, p.Running())
	assert.Equal(t, playlist, p.Playlist())
	assert.Greater(t, p.Uptime(), time.Duration(0))

	require.NoError(t, p.Stop())
	assert.Equal(t, types.PlayerStopped, p.State())
	assert.Empty(t, p.LastError(), "intentional stop is not an error")

	require.NoError(t, p.Stop(), "second stop is a no-op")
}

func TestPlayerStartMissingPlaylist(t *testing.T) {
	p := New(fakeBinary(t, "exec sleep 60"), 8090, "disco")
	err := p.Start(filepath.Join(t.TempDir(), "missing.m3u"))
	require.Error(t, err)
	assert.Equal(t, types.PlayerStopped, p.State())
}

func TestPlayerRecordsUnexpectedExit(t *testing.T) {
	p := New(fakeBinary(t, `echo "cannot open audio output" >&2; exit 3`), 8090, "disco")
	require.NoError(t, p.Start(fakePlaylist(t)))

	require.Eventually(t, func() bool {
		return p.State() == types.PlayerStopped
	}, 5*time.Second, 20*time.Millisecond)
	assert.Contains(t, p.LastError(), "cannot open audio output")
}

func TestPlayerRestartReplacesProcess(t *testing.T) {
	p := New(fakeBinary(t, "exec sleep 60"), 8090, "disco")
	first := fakePlaylist(t)
	second := fakePlaylist(t)

	require.NoError(t, p.Start(first))
	require.NoError(t, p.Start(second))
	assert.True(t, p.Running())
	assert.Equal(t, second, p.Playlist())
	require.NoError(t, p.Stop())
}

const sampleStatusXML = `<?xml version="1.0" encoding="utf-8"?>
<root>
  <state>playing</state>
  <time>42</time>
  <length>181</length>
  <volume>256</volume>
  <information>
    <category name="meta">
      <info name="title">Boogie Wonderland</info>
      <info name="filename">boogie_wonderland.mp3</info>
    </category>
  </information>
</root>`

func fakeInterface(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(8090, "disco")
	c.baseURL = srv.URL
	return c
}

func TestClientStatus(t *testing.T) {
	c := fakeInterface(t, func(w http.ResponseWriter, r *http.Request) {
		_, password, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "disco", password)
		assert.Equal(t, "/requests/status.xml", r.URL.Path)
		_, _ = w.Write([]byte(sampleStatusXML))
	})

	info, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Boogie Wonderland", info.Title)
	assert.Equal(t, "boogie_wonderland.mp3", info.Filename)
	assert.Equal(t, "playing", info.State)
	assert.Equal(t, 42, info.Position)
	assert.Equal(t, 181, info.Length)
	assert.Equal(t, 256, info.Volume)
}

func TestClientStatusTitleFromFilename(t *testing.T) {
	c := fakeInterface(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<root><state>playing</state><information><category name="meta">` +
			`<info name="filename">/music/pop/last_dance.mp3</info></category></information></root>`))
	})

	info, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "last_dance", info.Title)
}

func TestClientCommands(t *testing.T) {
	commands := make(chan string, 10)
	c := fakeInterface(t, func(w http.ResponseWriter, r *http.Request) {
		cmd := r.URL.Query().Get("command")
		if val := r.URL.Query().Get("val"); val != "" {
			cmd += ":" + val
		}
		commands <- cmd
		_, _ = w.Write([]byte(`<root><state>playing</state></root>`))
	})

	ctx := context.Background()
	require.NoError(t, c.Next(ctx))
	require.NoError(t, c.Previous(ctx))
	require.NoError(t, c.PlayPause(ctx))
	require.NoError(t, c.StopPlayback(ctx))
	require.NoError(t, c.SetVolume(ctx, 200))

	assert.Equal(t, "pl_next", <-commands)
	assert.Equal(t, "pl_previous", <-commands)
	assert.Equal(t, "pl_pause", <-commands)
	assert.Equal(t, "pl_stop", <-commands)
	assert.Equal(t, "volume:200", <-commands)
}

func TestClientRejectsErrorStatus(t *testing.T) {
	c := fakeInterface(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	_, err := c.Status(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
