// Package player manages the VLC process that plays the disco
// playlist, and talks to its HTTP interface for track control.
package player

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/discohub/disco-monitor/internal/types"
	"github.com/discohub/disco-monitor/internal/util"
)

const (
	// gracefulStopTimeout is how long Stop waits after the interrupt
	// signal before force killing the player.
	gracefulStopTimeout = 5 * time.Second
	// killTimeout is how long Stop waits after a force kill.
	killTimeout = 2 * time.Second
)

// binaryCandidates lists where VLC is usually installed.
func binaryCandidates() []string {
	if runtime.GOOS == "windows" {
		return []string{
			`C:\Program Files\VideoLAN\VLC\vlc.exe`,
			`C:\Program Files (x86)\VideoLAN\VLC\vlc.exe`,
		}
	}
	return []string{
		"/usr/bin/vlc",
		"/usr/local/bin/vlc",
		"/snap/bin/vlc",
	}
}

// FindBinary resolves the VLC executable. A configured path wins; with
// no configuration the usual install locations and PATH are searched.
func FindBinary(configured string) (string, error) {
	if util.IsConfigured(configured) {
		if _, err := os.Stat(configured); err != nil {
			return "", util.WrapError("locate configured player binary", err)
		}
		return configured, nil
	}
	for _, candidate := range binaryCandidates() {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	if path, err := exec.LookPath("vlc"); err == nil {
		return path, nil
	}
	return "", fmt.Errorf("vlc not found, install it or set player.binary_path")
}

// Player supervises a single VLC process.
type Player struct {
	binary       string
	httpPort     int
	httpPassword string
	remote       *Client

	mu        sync.Mutex
	cmd       *exec.Cmd
	stderr    *bytes.Buffer
	waitDone  chan struct{}
	state     types.PlayerState
	playlist  string
	startedAt time.Time
	lastError string
}

// New returns a player that launches the given binary and controls it
// over the loopback HTTP interface.
func New(binary string, httpPort int, httpPassword string) *Player {
	return &Player{
		binary:       binary,
		httpPort:     httpPort,
		httpPassword: httpPassword,
		remote:       NewClient(httpPort, httpPassword),
		state:        types.PlayerStopped,
	}
}

// Remote returns the HTTP control client for the managed player.
func (p *Player) Remote() *Client { return p.remote }

// Start launches VLC with the playlist. A previously running instance
// is stopped first so only one player owns the audio device.
func (p *Player) Start(playlistPath string) error {
	if err := p.Stop(); err != nil {
		return err
	}
	if _, err := os.Stat(playlistPath); err != nil {
		return util.WrapError("open playlist", err)
	}

	args := []string{
		playlistPath,
		"--extraintf", "http",
		"--http-host", "127.0.0.1",
		"--http-port", strconv.Itoa(p.httpPort),
		"--http-password", p.httpPassword,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	cmd := exec.Command(p.binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	slog.Info("starting player", "binary", p.binary, "playlist", playlistPath, "http_port", p.httpPort)
	if err := cmd.Start(); err != nil {
		return util.WrapError("start player", err)
	}

	done := make(chan struct{})
	p.cmd = cmd
	p.stderr = &stderr
	p.waitDone = done
	p.state = types.PlayerRunning
	p.playlist = playlistPath
	p.startedAt = time.Now()
	p.lastError = ""

	go p.wait(cmd, &stderr, done)
	return nil
}

// wait reaps the process and records an unexpected exit.
func (p *Player) wait(cmd *exec.Cmd, stderr *bytes.Buffer, done chan struct{}) {
	err := cmd.Wait()
	close(done)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd != cmd {
		return // superseded by a newer session
	}
	wasStopping := p.state == types.PlayerStopping
	p.state = types.PlayerStopped
	p.cmd = nil

	if err != nil && !wasStopping {
		msg := util.ExtractLastError(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		p.lastError = msg
		slog.Error("player exited unexpectedly", "error", msg)
	}
}

// Stop terminates the player. The process first gets an interrupt
// signal; a force kill follows if it lingers.
func (p *Player) Stop() error {
	p.mu.Lock()
	if p.cmd == nil || p.state != types.PlayerRunning {
		p.mu.Unlock()
		return nil
	}
	p.state = types.PlayerStopping
	cmd := p.cmd
	done := p.waitDone
	p.mu.Unlock()

	slog.Info("stopping player")
	if err := util.GracefulSignal(cmd.Process); err != nil {
		slog.Warn("player signal failed, killing", "error", err)
		_ = cmd.Process.Kill()
	}

	select {
	case <-done:
	case <-time.After(gracefulStopTimeout):
		slog.Warn("player did not stop in time, killing")
		_ = cmd.Process.Kill()
		select {
		case <-done:
		case <-time.After(killTimeout):
			return fmt.Errorf("player process would not die")
		}
	}
	return nil
}

// State reports the supervisor state.
func (p *Player) State() types.PlayerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Running reports whether a player process is active.
func (p *Player) Running() bool {
	return p.State() == types.PlayerRunning
}

// Playlist returns the path of the playlist the current session plays.
func (p *Player) Playlist() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playlist
}

// Uptime returns how long the current session has been running.
func (p *Player) Uptime() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != types.PlayerRunning {
		return 0
	}
	return time.Since(p.startedAt)
}

// LastError returns the captured message of the last unexpected exit.
func (p *Player) LastError() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastError
}
