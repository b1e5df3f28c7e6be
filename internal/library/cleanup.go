package library

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// CleanupReport summarizes one junk-file sweep.
type CleanupReport struct {
	FilesRemoved int      `json:"files_removed"`
	FreedBytes   int64    `json:"freed_bytes"`
	Errors       []string `json:"errors,omitempty"`
}

// isJunkFile matches the service files macOS and Windows sprinkle into
// music folders copied from external drives.
func isJunkFile(name string) bool {
	switch name {
	case ".DS_Store", "Thumbs.db", "desktop.ini":
		return true
	}
	return strings.HasPrefix(name, "._")
}

// CleanupJunk removes service files from the music tree. A missing
// directory is not an error, there is simply nothing to clean.
func CleanupJunk(musicDir string) *CleanupReport {
	report := &CleanupReport{}
	if _, err := os.Stat(musicDir); err != nil {
		return report
	}

	err := filepath.WalkDir(musicDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			report.Errors = append(report.Errors, err.Error())
			return nil
		}
		if d.IsDir() || !isJunkFile(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			report.Errors = append(report.Errors, err.Error())
			return nil
		}
		if err := os.Remove(path); err != nil {
			report.Errors = append(report.Errors, err.Error())
			return nil
		}
		report.FilesRemoved++
		report.FreedBytes += info.Size()
		return nil
	})
	if err != nil {
		report.Errors = append(report.Errors, err.Error())
	}

	if report.FilesRemoved > 0 {
		slog.Info("music tree cleaned",
			"files_removed", report.FilesRemoved, "freed_bytes", report.FreedBytes)
	}
	return report
}
