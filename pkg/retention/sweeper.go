// Package retention removes downloaded files once they outlive their
// usefulness. Saved media is transient; consumers copy what
// they want to keep before the sweep window closes.
package retention

import (
	"os"
	"path/filepath"
	"time"

	"sharefetch/pkg/logger"
)

// Sweeper deletes aged files from a single directory. Subdirectories
// are never entered.
type Sweeper struct {
	logger logger.Logger
}

func NewSweeper(log logger.Logger) *Sweeper {
	return &Sweeper{logger: log}
}

// Sweep deletes regular files in dir whose modification time is older
// than maxAge and returns how many were removed. The directory is
// created if missing so a sweep on a cold start is a no-op rather than
// an error. Per-file failures are logged and skipped; a failure to
// list the directory is logged and reported as zero deletions.
//
// No lock is taken against concurrent writers. Image downloads land
// via a rename from a temp file; video downloads stream to the final
// path, but their mtime is fresh while the write is in flight, so an
// in-progress file always sits far inside the retention window.
func (s *Sweeper) Sweep(dir string, maxAge time.Duration) int {
	if err := os.MkdirAll(dir, 0755); err != nil {
		s.logger.WarnWithFields("cannot prepare sweep directory", map[string]interface{}{
			"directory": dir,
			"error":     err.Error(),
		})
		return 0
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		s.logger.WarnWithFields("cannot list sweep directory", map[string]interface{}{
			"directory": dir,
			"error":     err.Error(),
		})
		return 0
	}

	cutoff := time.Now().Add(-maxAge)
	deleted := 0

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			s.logger.WarnWithFields("cannot stat file", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
			continue
		}

		if info.ModTime().After(cutoff) {
			continue
		}

		if err := os.Remove(path); err != nil {
			s.logger.WarnWithFields("cannot delete expired file", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
			continue
		}

		s.logger.WithField("path", path).Info("Deleted expired file")
		deleted++
	}

	if deleted > 0 {
		logger.LogSweep(s.logger, dir, deleted)
	}
	return deleted
}
