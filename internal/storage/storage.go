// Package storage persists finished archives and reports where they
// ended up. Failures here never invalidate the computational result;
// they are delivery failures the pipeline logs and reports.
package storage

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"smasher/internal/config"
	"smasher/internal/fileutil"
)

// Location describes where an archive was stored.
type Location struct {
	Bucket      string
	Key         string
	URL         string
	SizeInBytes int64
	SHA1        string
}

// Service persists one archive file and returns its remote location.
type Service interface {
	Store(ctx context.Context, localPath, datasetID string) (Location, error)
}

// NewService selects a storage backend from configuration.
func NewService(cfg *config.Config) (Service, error) {
	switch cfg.Storage.Backend {
	case "local":
		return &localService{dir: cfg.Storage.ResultsDir, urlBase: cfg.Storage.PublicURLBase}, nil
	case "gcs":
		return newGCSService(cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

type localService struct {
	dir     string
	urlBase string
}

// Store copies the archive into the results directory.
func (s *localService) Store(_ context.Context, localPath, _ string) (Location, error) {
	digest, size, err := fileDigest(localPath)
	if err != nil {
		return Location{}, err
	}

	name := filepath.Base(localPath)
	target := filepath.Join(s.dir, name)
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return Location{}, fmt.Errorf("create results directory: %w", err)
	}
	if err := fileutil.CopyFileVerified(localPath, target); err != nil {
		return Location{}, fmt.Errorf("copy archive: %w", err)
	}

	location := Location{
		Key:         name,
		URL:         target,
		SizeInBytes: size,
		SHA1:        digest,
	}
	if s.urlBase != "" {
		location.URL = s.urlBase + "/" + name
	}
	return location, nil
}

// fileDigest returns the hex SHA1 and size of a file.
func fileDigest(path string) (string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("open archive: %w", err)
	}
	defer file.Close()

	hasher := sha1.New()
	size, err := io.Copy(hasher, file)
	if err != nil {
		return "", 0, fmt.Errorf("hash archive: %w", err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), size, nil
}
