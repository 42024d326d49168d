// Package staging reclaims disk space from finished runs: expired
// result archives and abandoned per-dataset working directories.
package staging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"smasher/internal/jobstore"
	"smasher/internal/logging"
	"smasher/internal/packaging"
)

// Result contains the outcome of a cleanup pass.
type Result struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// DatasetLister is the slice of the job store the expiry sweep needs.
type DatasetLister interface {
	ListDatasets(ctx context.Context) ([]*jobstore.Dataset, error)
	UpdateDataset(ctx context.Context, dataset *jobstore.Dataset) error
}

// SweepExpired marks past-expiry datasets unavailable and removes their
// archives from the local results directory. Datasets without an expiry
// or not yet delivered are left alone. Remote archives are not touched;
// their object lifecycle is managed bucket-side.
func SweepExpired(ctx context.Context, store DatasetLister, resultsDir string, logger *slog.Logger) Result {
	if logger == nil {
		logger = logging.NewNop()
	}
	result := Result{}

	datasets, err := store.ListDatasets(ctx)
	if err != nil {
		result.Errors = append(result.Errors, CleanupError{Path: resultsDir, Error: err})
		return result
	}

	now := time.Now()
	for _, dataset := range datasets {
		if !dataset.IsAvailable || dataset.ExpiresAt == nil || dataset.ExpiresAt.After(now) {
			continue
		}

		archivePath := filepath.Join(resultsDir, packaging.ArchiveName(dataset.ID))
		if err := os.Remove(archivePath); err != nil && !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: archivePath, Error: err})
			logging.WarnWithContext(logger, "failed to remove expired archive", "expiry_cleanup_failed",
				logging.String("path", archivePath),
				logging.Error(err),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}

		dataset.IsAvailable = false
		if err := store.UpdateDataset(ctx, dataset); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: archivePath, Error: err})
			continue
		}

		result.Removed = append(result.Removed, archivePath)
		logger.Info("expired dataset archive removed",
			logging.String(logging.FieldDatasetID, dataset.ID),
			logging.String("path", archivePath),
			logging.String(logging.FieldEventType, "expiry_cleanup"),
		)
	}

	return result
}

// CleanStale removes per-dataset working directories older than maxAge.
// Failed runs keep their output trees for debugging; this reclaims them
// once nobody is likely to look anymore.
func CleanStale(stagingDir string, maxAge time.Duration, logger *slog.Logger) Result {
	if logger == nil {
		logger = logging.NewNop()
	}
	result := Result{}

	stagingDir = strings.TrimSpace(stagingDir)
	if stagingDir == "" {
		return result
	}

	entries, err := os.ReadDir(stagingDir)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: stagingDir, Error: err})
		}
		return result
	}

	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		dirPath := filepath.Join(stagingDir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		if err := os.RemoveAll(dirPath); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
			logging.WarnWithContext(logger, "failed to remove stale working directory", "staging_cleanup_failed",
				logging.String("path", dirPath),
				logging.Error(err),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		result.Removed = append(result.Removed, dirPath)
		logger.Info("removed stale working directory",
			logging.String("path", dirPath),
			logging.Duration("age", time.Since(info.ModTime())),
			logging.String(logging.FieldEventType, "staging_cleanup"),
		)
	}

	return result
}
