package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/mod/semver"

	"github.com/discohub/disco-monitor/internal/types"
	"github.com/discohub/disco-monitor/internal/util"
)

// Build metadata, injected at link time.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

const (
	githubRepo = "discohub/disco-monitor"

	// The first check waits until the host is up: the lamp and the
	// schedule come first, release polling can wait half a minute.
	releaseCheckDelay    = 30 * time.Second
	releaseCheckInterval = 24 * time.Hour
	releaseCheckTimeout  = 30 * time.Second
	releaseMaxRetries    = 3
	releaseRetryDelay    = 1 * time.Minute
)

// VersionChecker polls GitHub for new disco-monitor releases so the
// status endpoint can tell the operator an update is waiting. Safe for
// concurrent use.
type VersionChecker struct {
	mu     sync.RWMutex
	latest string
	etag   string // last release payload seen, for conditional requests
	stopCh chan struct{}
}

// NewVersionChecker starts the release polling loop in the background.
func NewVersionChecker() *VersionChecker {
	vc := &VersionChecker{
		stopCh: make(chan struct{}),
	}
	go vc.run()
	return vc
}

// Stop ends the polling loop. Called once during shutdown.
func (vc *VersionChecker) Stop() {
	close(vc.stopCh)
}

func (vc *VersionChecker) run() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("release check loop panicked", "panic", r)
		}
	}()

	select {
	case <-time.After(releaseCheckDelay):
		vc.checkWithRetry()
	case <-vc.stopCh:
		return
	}

	ticker := time.NewTicker(releaseCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			vc.checkWithRetry()
		case <-vc.stopCh:
			return
		}
	}
}

// checkWithRetry runs one check cycle, retrying transient failures a
// few times before giving up until the next interval.
func (vc *VersionChecker) checkWithRetry() {
	for attempt := range releaseMaxRetries {
		if vc.check() {
			return
		}
		if attempt < releaseMaxRetries-1 {
			select {
			case <-time.After(releaseRetryDelay):
			case <-vc.stopCh:
				return
			}
		}
	}
	slog.Debug("release check failed, will try again next interval")
}

type githubRelease struct {
	TagName    string `json:"tag_name"`
	Draft      bool   `json:"draft"`
	Prerelease bool   `json:"prerelease"`
}

// check asks GitHub for the latest release and records its tag. It
// reports whether the cycle is done: rate limits and server errors
// return false so the caller retries, everything else is final.
func (vc *VersionChecker) check() bool {
	ctx, cancel := context.WithTimeoutCause(
		context.Background(),
		releaseCheckTimeout,
		errors.New("github API request timeout"),
	)
	defer cancel()

	url := "https://api.github.com/repos/" + githubRepo + "/releases/latest"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return false
	}

	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "disco-monitor/"+Version)

	vc.mu.RLock()
	etag := vc.etag
	vc.mu.RUnlock()
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() //nolint:errcheck // Best-effort cleanup
	}()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotModified:
		// Nothing new since the last check.
		return true
	case http.StatusNotFound:
		// The repo has no releases yet.
		return true
	case http.StatusForbidden, http.StatusTooManyRequests:
		// Rate limited, back off and retry.
		return false
	default:
		if resp.StatusCode >= 500 {
			return false
		}
		return true
	}

	var release githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return false
	}

	// Drafts and prereleases are not something to nag the operator about.
	if release.Draft || release.Prerelease {
		return true
	}
	if release.TagName == "" {
		return false
	}

	vc.mu.Lock()
	vc.latest = trimVersionPrefix(release.TagName)
	if newEtag := resp.Header.Get("ETag"); newEtag != "" {
		vc.etag = newEtag
	}
	vc.mu.Unlock()

	return true
}

// Info reports the running build and, when known, the latest published
// release. Dev builds never claim an update is available.
func (vc *VersionChecker) Info() types.VersionInfo {
	vc.mu.RLock()
	defer vc.mu.RUnlock()

	current := trimVersionPrefix(Version)
	info := types.VersionInfo{
		Current:   current,
		Latest:    vc.latest,
		Commit:    Commit,
		BuildTime: util.FormatHumanTime(BuildTime),
	}

	if vc.latest != "" && current != "dev" && current != "unknown" {
		info.UpdateAvail = isNewerVersion(vc.latest, current)
	}

	return info
}

// trimVersionPrefix strips the tag's leading "v" for display.
func trimVersionPrefix(v string) string {
	return strings.TrimPrefix(strings.TrimSpace(v), "v")
}

// isNewerVersion reports whether latest is a higher semver than
// current. Both sides get the "v" prefix semver.Compare insists on.
func isNewerVersion(latest, current string) bool {
	return semver.Compare(withVersionPrefix(latest), withVersionPrefix(current)) > 0
}

func withVersionPrefix(v string) string {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}
