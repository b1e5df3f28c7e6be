// Package library keeps the local music tree mirrored to an S3 bucket
// and scrubs macOS and Windows junk files out of the tree.
package library

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/discohub/disco-monitor/internal/util"
)

// connectionTestTimeout bounds the upload-and-delete connectivity probe.
const connectionTestTimeout = 30 * time.Second

// Settings holds the bucket connection parameters.
type Settings struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	Prefix    string
}

// IsConfigured reports whether the settings are complete enough to sync.
func (s *Settings) IsConfigured() bool {
	return s.Bucket != "" && s.AccessKey != "" && s.SecretKey != ""
}

// objectStore is the slice of the S3 API the library uses.
type objectStore interface {
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Library syncs a local music directory against one bucket prefix.
type Library struct {
	store    objectStore
	bucket   string
	prefix   string
	musicDir string
}

// New returns a library over the configured bucket.
func New(settings *Settings, musicDir string) (*Library, error) {
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("library storage is not configured")
	}
	return &Library{
		store:    createS3Client(settings),
		bucket:   settings.Bucket,
		prefix:   normalizePrefix(settings.Prefix),
		musicDir: musicDir,
	}, nil
}

// createS3Client builds an S3 client with static credentials. A custom
// endpoint switches to path-style addressing for S3-compatible stores.
func createS3Client(settings *Settings) *s3.Client {
	creds := credentials.NewStaticCredentialsProvider(settings.AccessKey, settings.SecretKey, "")

	region := settings.Region
	if region == "" {
		region = "auto"
	}

	options := []func(*s3.Options){
		func(o *s3.Options) {
			o.Credentials = creds
			o.Region = region
		},
	}
	if settings.Endpoint != "" {
		options = append(options, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(settings.Endpoint)
			o.UsePathStyle = true
		})
	}
	return s3.New(s3.Options{}, options...)
}

// normalizePrefix guarantees a trailing slash on non-empty prefixes.
func normalizePrefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}

// SyncReport summarizes one sync run.
type SyncReport struct {
	Uploaded int      `json:"uploaded"`
	Deleted  int      `json:"deleted"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// Sync mirrors the music directory to the bucket: new and size-changed
// tracks are uploaded, remote tracks without a local counterpart are
// deleted. Per-file failures are collected, not fatal.
func (l *Library) Sync(ctx context.Context) (*SyncReport, error) {
	local, err := l.localTracks()
	if err != nil {
		return nil, err
	}
	remote, err := l.remoteTracks(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("library sync starting", "local_tracks", len(local), "remote_tracks", len(remote))

	report := &SyncReport{}
	for _, rel := range sortedKeys(local) {
		remoteSize, exists := remote[rel]
		if exists && remoteSize == local[rel] {
			report.Skipped++
			continue
		}
		if err := l.upload(ctx, rel); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("upload %s: %v", rel, err))
			continue
		}
		report.Uploaded++
	}
	for _, rel := range sortedKeys(remote) {
		if _, exists := local[rel]; exists {
			continue
		}
		if err := l.delete(ctx, rel); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("delete %s: %v", rel, err))
			continue
		}
		report.Deleted++
	}

	slog.Info("library sync finished",
		"uploaded", report.Uploaded, "deleted", report.Deleted,
		"skipped", report.Skipped, "errors", len(report.Errors))
	return report, nil
}

// localTracks walks the music directory and maps slash-separated
// relative paths of MP3 files to their sizes.
func (l *Library) localTracks() (map[string]int64, error) {
	tracks := make(map[string]int64)
	err := filepath.WalkDir(l.musicDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".mp3") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(l.musicDir, path)
		if err != nil {
			return err
		}
		tracks[filepath.ToSlash(rel)] = info.Size()
		return nil
	})
	if err != nil {
		return nil, util.WrapError("scan music directory", err)
	}
	return tracks, nil
}

// remoteTracks lists every object under the prefix, keyed by the path
// relative to the prefix.
func (l *Library) remoteTracks(ctx context.Context) (map[string]int64, error) {
	tracks := make(map[string]int64)
	var token *string
	for {
		out, err := l.store.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(l.bucket),
			Prefix:            aws.String(l.prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, util.WrapError("list bucket objects", err)
		}
		for _, obj := range out.Contents {
			key := strings.TrimPrefix(aws.ToString(obj.Key), l.prefix)
			if key == "" {
				continue
			}
			tracks[key] = aws.ToInt64(obj.Size)
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		token = out.NextContinuationToken
	}
	return tracks, nil
}

// upload sends one track to the bucket.
func (l *Library) upload(ctx context.Context, rel string) error {
	data, err := os.ReadFile(filepath.Join(l.musicDir, filepath.FromSlash(rel)))
	if err != nil {
		return err
	}
	slog.Info("uploading track", "track", rel, "bytes", len(data))
	_, err = l.store.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(l.bucket),
		Key:           aws.String(l.prefix + rel),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("audio/mpeg"),
	})
	return err
}

// delete removes one remote track.
func (l *Library) delete(ctx context.Context, rel string) error {
	slog.Info("deleting remote track", "track", rel)
	_, err := l.store.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(l.prefix + rel),
	})
	return err
}

// TestConnection verifies bucket access by uploading and deleting a
// probe object.
func (l *Library) TestConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, connectionTestTimeout)
	defer cancel()

	probeKey := fmt.Sprintf("%stest-connection-%d.txt", l.prefix, time.Now().UnixNano())
	probe := []byte("disco monitor connection test")

	_, err := l.store.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(l.bucket),
		Key:           aws.String(probeKey),
		Body:          bytes.NewReader(probe),
		ContentLength: aws.Int64(int64(len(probe))),
	})
	if err != nil {
		return util.WrapError("upload test object", err)
	}

	_, err = l.store.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(probeKey),
	})
	if err != nil {
		slog.Warn("failed to delete test object", "key", probeKey, "error", err)
	}
	return nil
}

// sortedKeys returns map keys in stable order so sync runs are
// reproducible in logs.
func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
