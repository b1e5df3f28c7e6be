package playlist

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/discohub/disco-monitor/internal/types"
)

// fakeLibrary builds a music tree with empty .mp3 placeholders and
// returns a generator whose durations come from the given table.
func fakeLibrary(t *testing.T, folders map[string][]string, durations map[string]time.Duration) *Generator {
	t.Helper()
	root := t.TempDir()
	for folder, tracks := range folders {
		require.NoError(t, os.MkdirAll(filepath.Join(root, folder), 0o755))
		for _, track := range tracks {
			require.NoError(t, os.WriteFile(filepath.Join(root, folder, track), nil, 0o644))
		}
	}

	g := NewGenerator(root)
	g.shuffle = func(int, func(i, j int)) {} // deterministic order
	g.duration = func(path string) (time.Duration, error) {
		if d, ok := durations[filepath.Base(path)]; ok {
			return d, nil
		}
		return 3 * time.Minute, nil
	}
	return g
}

func TestGenerateRoundRobin(t *testing.T) {
	g := fakeLibrary(t, map[string][]string{
		"pop":   {"p1.mp3", "p2.mp3"},
		"disco": {"d1.mp3", "d2.mp3"},
	}, nil)

	p, err := g.Generate(types.PlaylistProfile{
		Name:          "test",
		Folders:       []string{"pop", "disco"},
		TargetMinutes: 60,
	})
	require.NoError(t, err)

	var names []string
	for _, track := range p.Tracks {
		names = append(names, filepath.Base(track.Path))
	}
	assert.Equal(t, []string{"p1.mp3", "d1.mp3", "p2.mp3", "d2.mp3"}, names,
		"folders alternate, tracks are not repeated")
	assert.Equal(t, 12*time.Minute, p.Total)
}

func TestGenerateStopsAtTarget(t *testing.T) {
	g := fakeLibrary(t, map[string][]string{
		"pop": {"a.mp3", "b.mp3", "c.mp3"},
	}, map[string]time.Duration{
		"a.mp3": 4 * time.Minute,
		"b.mp3": 4 * time.Minute,
		"c.mp3": 4 * time.Minute,
	})

	p, err := g.Generate(types.PlaylistProfile{
		Name:          "short",
		Folders:       []string{"pop"},
		TargetMinutes: 10,
	})
	require.NoError(t, err)
	assert.Len(t, p.Tracks, 2, "a third track would overflow the target")
	assert.Equal(t, 8*time.Minute, p.Total)
}

func TestGenerateSkipsUnreadableTracks(t *testing.T) {
	g := fakeLibrary(t, map[string][]string{
		"pop": {"good.mp3", "broken.mp3"},
	}, nil)
	inner := g.duration
	g.duration = func(path string) (time.Duration, error) {
		if strings.Contains(path, "broken") {
			return 0, os.ErrInvalid
		}
		return inner(path)
	}

	p, err := g.Generate(types.PlaylistProfile{
		Name: "test", Folders: []string{"pop"}, TargetMinutes: 60,
	})
	require.NoError(t, err)
	require.Len(t, p.Tracks, 1)
	assert.Equal(t, "good", p.Tracks[0].Title)
}

func TestGenerateMissingFolderIsNotFatal(t *testing.T) {
	g := fakeLibrary(t, map[string][]string{
		"pop": {"a.mp3"},
	}, nil)

	p, err := g.Generate(types.PlaylistProfile{
		Name: "test", Folders: []string{"gone", "pop"}, TargetMinutes: 60,
	})
	require.NoError(t, err)
	assert.Len(t, p.Tracks, 1)
}

func TestGenerateEmptyProfileFails(t *testing.T) {
	g := fakeLibrary(t, nil, nil)
	_, err := g.Generate(types.PlaylistProfile{Name: "empty", TargetMinutes: 60})
	assert.Error(t, err)

	_, err = g.Generate(types.PlaylistProfile{
		Name: "hollow", Folders: []string{"gone"}, TargetMinutes: 60,
	})
	assert.Error(t, err, "no playable tracks")
}

func TestWriteM3U(t *testing.T) {
	p := &Playlist{
		Tracks: []Track{
			{Path: "/music/pop/a.mp3", Title: "a", Duration: 181 * time.Second},
			{Path: "/music/disco/b.mp3", Title: "b", Duration: 200 * time.Second},
		},
	}

	path := filepath.Join(t.TempDir(), "out", "disco.m3u")
	require.NoError(t, p.WriteM3U(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, "#EXTM3U", lines[0])
	assert.Equal(t, "#EXTINF:181,a", lines[1])
	assert.Equal(t, "/music/pop/a.mp3", lines[2])
	assert.Equal(t, "#EXTINF:200,b", lines[3])
}
