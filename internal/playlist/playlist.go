// Package playlist generates disco playlists from the local music
// tree: round-robin over a profile's folders, shuffled within each
// folder, filling up to the profile's target length.
package playlist

import (
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hajimehoshi/go-mp3"

	"github.com/discohub/disco-monitor/internal/types"
	"github.com/discohub/disco-monitor/internal/util"
)

// Track is one playlist entry.
type Track struct {
	Path     string
	Title    string
	Duration time.Duration
}

// Playlist is an ordered set of tracks with their combined length.
type Playlist struct {
	Tracks []Track
	Total  time.Duration
}

// Generator builds playlists from folders under the music directory.
type Generator struct {
	musicDir string

	// duration and shuffle are swappable for tests
	duration func(path string) (time.Duration, error)
	shuffle  func(n int, swap func(i, j int))
}

// NewGenerator creates a generator rooted at the music directory.
func NewGenerator(musicDir string) *Generator {
	return &Generator{
		musicDir: musicDir,
		duration: TrackDuration,
		shuffle:  rand.Shuffle,
	}
}

// Generate builds a playlist for the profile. Folders are visited
// round-robin in profile order, each folder's tracks shuffled and
// consumed without repeats. The first track that would push the total
// past the target ends the playlist; generation also stops when every
// folder is exhausted.
func (g *Generator) Generate(profile types.PlaylistProfile) (*Playlist, error) {
	if len(profile.Folders) == 0 {
		return nil, fmt.Errorf("profile %s has no folders", profile.Name)
	}
	target := time.Duration(profile.TargetMinutes) * time.Minute

	queues := make([][]string, len(profile.Folders))
	for i, folder := range profile.Folders {
		tracks, err := g.listTracks(filepath.Join(g.musicDir, folder))
		if err != nil {
			slog.Warn("skipping music folder", "folder", folder, "error", err)
			continue
		}
		g.shuffle(len(tracks), func(a, b int) {
			tracks[a], tracks[b] = tracks[b], tracks[a]
		})
		queues[i] = tracks
	}

	playlist := &Playlist{}
	for {
		progress := false
		for i := range queues {
			if len(queues[i]) == 0 {
				continue
			}
			path := queues[i][0]
			queues[i] = queues[i][1:]
			progress = true

			length, err := g.duration(path)
			if err != nil {
				slog.Warn("skipping unreadable track", "track", path, "error", err)
				continue
			}
			if playlist.Total+length > target {
				return g.finish(playlist, profile)
			}
			playlist.Tracks = append(playlist.Tracks, Track{
				Path:     path,
				Title:    trackTitle(path),
				Duration: length,
			})
			playlist.Total += length
		}
		if !progress {
			return g.finish(playlist, profile)
		}
	}
}

// finish validates and logs a completed playlist.
func (g *Generator) finish(playlist *Playlist, profile types.PlaylistProfile) (*Playlist, error) {
	if len(playlist.Tracks) == 0 {
		return nil, fmt.Errorf("no playable tracks for profile %s", profile.Name)
	}
	slog.Info("playlist generated",
		"profile", profile.Name,
		"tracks", len(playlist.Tracks),
		"length", playlist.Total.Round(time.Second))
	return playlist, nil
}

// listTracks returns the MP3 files directly inside the folder.
func (g *Generator) listTracks(folder string) ([]string, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, err
	}
	var tracks []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".mp3") {
			continue
		}
		tracks = append(tracks, filepath.Join(folder, entry.Name()))
	}
	return tracks, nil
}

// trackTitle derives the display title from the file name.
func trackTitle(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// WriteM3U writes the playlist as an extended M3U file, replacing any
// previous playlist at that path.
func (p *Playlist) WriteM3U(path string) error {
	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	for _, track := range p.Tracks {
		fmt.Fprintf(&b, "#EXTINF:%d,%s\n%s\n", int(track.Duration.Seconds()), track.Title, track.Path)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return util.WrapError("create playlist directory", err)
		}
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return util.WrapError("write playlist", err)
	}
	return nil
}

// TrackDuration returns an MP3 file's play length by decoding its
// header. go-mp3 reports the decoded PCM size as 16-bit stereo frames.
func TrackDuration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, util.WrapError("open track", err)
	}
	defer f.Close() //nolint:errcheck // Read-only operation, close error not critical

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		return 0, util.WrapError("decode track", err)
	}

	const bytesPerFrame = 4 // 2 channels x int16
	frames := decoder.Length() / bytesPerFrame
	if decoder.SampleRate() <= 0 {
		return 0, fmt.Errorf("track %s has no sample rate", path)
	}
	seconds := float64(frames) / float64(decoder.SampleRate())
	return time.Duration(seconds * float64(time.Second)), nil
}
