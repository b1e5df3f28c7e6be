package library

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore implements objectStore in memory and records mutations.
type fakeStore struct {
	objects map[string]int64 // key -> size
	pages   int              // objects per list page, 0 = all
	putErr  error

	puts    []string
	deletes []string
}

func (f *fakeStore) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	var keys []string
	for key := range f.objects {
		if strings.HasPrefix(key, aws.ToString(in.Prefix)) {
			keys = append(keys, key)
		}
	}
	// Stable order so pagination tokens mean something.
	for i := range keys {
		for j := i + 1; j < len(keys); j++ {
			if keys[j] < keys[i] {
				keys[i], keys[j] = keys[j], keys[i]
			}
		}
	}

	start := 0
	if token := aws.ToString(in.ContinuationToken); token != "" {
		for i, key := range keys {
			if key == token {
				start = i
				break
			}
		}
	}
	end := len(keys)
	if f.pages > 0 && start+f.pages < end {
		end = start + f.pages
	}

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(end < len(keys))}
	for _, key := range keys[start:end] {
		out.Contents = append(out.Contents, s3types.Object{
			Key:  aws.String(key),
			Size: aws.Int64(f.objects[key]),
		})
	}
	if end < len(keys) {
		out.NextContinuationToken = aws.String(keys[end])
	}
	return out, nil
}

func (f *fakeStore) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	key := aws.ToString(in.Key)
	f.puts = append(f.puts, key)
	if f.objects == nil {
		f.objects = make(map[string]int64)
	}
	f.objects[key] = aws.ToInt64(in.ContentLength)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeStore) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	key := aws.ToString(in.Key)
	f.deletes = append(f.deletes, key)
	delete(f.objects, key)
	return &s3.DeleteObjectOutput{}, nil
}

// musicTree writes named files with the given contents under a temp dir.
func musicTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func testLibrary(store *fakeStore, musicDir string) *Library {
	return &Library{store: store, bucket: "disco", prefix: "mp3/", musicDir: musicDir}
}

func TestSyncUploadsNewAndChangedDeletesStale(t *testing.T) {
	dir := musicTree(t, map[string]string{
		"pop/new.mp3":       "123456",
		"pop/changed.mp3":   "longer content",
		"disco/same.mp3":    "steady",
		"disco/notes.txt":   "ignored, not a track",
		"disco/cover.jpg":   "ignored",
		"pop/.DS_Store.mp3": "odd name but still a track",
	})
	store := &fakeStore{objects: map[string]int64{
		"mp3/pop/changed.mp3": 3, // size differs
		"mp3/disco/same.mp3":  int64(len("steady")),
		"mp3/gone/stale.mp3":  99,
	}}

	report, err := testLibrary(store, dir).Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, report.Uploaded)
	assert.Equal(t, 1, report.Deleted)
	assert.Equal(t, 1, report.Skipped)
	assert.Empty(t, report.Errors)
	assert.Contains(t, store.puts, "mp3/pop/new.mp3")
	assert.Contains(t, store.puts, "mp3/pop/changed.mp3")
	assert.Equal(t, []string{"mp3/gone/stale.mp3"}, store.deletes)
}

func TestSyncCollectsUploadErrors(t *testing.T) {
	dir := musicTree(t, map[string]string{"pop/a.mp3": "x"})
	store := &fakeStore{putErr: context.DeadlineExceeded}

	report, err := testLibrary(store, dir).Sync(context.Background())
	require.NoError(t, err, "per-file failures are not fatal")
	assert.Equal(t, 0, report.Uploaded)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "pop/a.mp3")
}

func TestSyncPaginatesRemoteListing(t *testing.T) {
	dir := musicTree(t, nil)
	store := &fakeStore{
		objects: map[string]int64{
			"mp3/a.mp3": 1, "mp3/b.mp3": 2, "mp3/c.mp3": 3,
		},
		pages: 1,
	}

	report, err := testLibrary(store, dir).Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, report.Deleted, "every page of stale objects is seen")
}

func TestConnectionProbe(t *testing.T) {
	store := &fakeStore{}
	lib := testLibrary(store, t.TempDir())

	require.NoError(t, lib.TestConnection(context.Background()))
	require.Len(t, store.puts, 1)
	require.Len(t, store.deletes, 1)
	assert.True(t, strings.HasPrefix(store.puts[0], "mp3/test-connection-"))
	assert.Equal(t, store.puts[0], store.deletes[0])
}

func TestNewRequiresConfiguration(t *testing.T) {
	_, err := New(&Settings{Bucket: "disco"}, t.TempDir())
	assert.Error(t, err)

	lib, err := New(&Settings{
		Bucket: "disco", AccessKey: "key", SecretKey: "secret", Prefix: "/mp3/",
	}, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "mp3/", lib.prefix)
}

func TestCleanupJunk(t *testing.T) {
	dir := musicTree(t, map[string]string{
		"pop/track.mp3":     "keep",
		"pop/._track.mp3":   "junk",
		"pop/.DS_Store":     "junk",
		"disco/Thumbs.db":   "junk",
		"disco/desktop.ini": "junk",
	})

	report := CleanupJunk(dir)
	assert.Equal(t, 4, report.FilesRemoved)
	assert.Equal(t, int64(16), report.FreedBytes)
	assert.Empty(t, report.Errors)

	_, err := os.Stat(filepath.Join(dir, "pop", "track.mp3"))
	assert.NoError(t, err, "real tracks survive")
}

func TestCleanupJunkMissingDir(t *testing.T) {
	report := CleanupJunk(filepath.Join(t.TempDir(), "missing"))
	assert.Equal(t, 0, report.FilesRemoved)
	assert.Empty(t, report.Errors)
}
