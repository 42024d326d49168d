package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	gcs "cloud.google.com/go/storage"

	"smasher/internal/config"
)

type gcsService struct {
	client  *gcs.Client
	bucket  string
	prefix  string
	urlBase string
}

func newGCSService(cfg *config.Config) (Service, error) {
	client, err := gcs.NewClient(context.Background())
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &gcsService{
		client:  client,
		bucket:  cfg.Storage.Bucket,
		prefix:  cfg.Storage.Prefix,
		urlBase: cfg.Storage.PublicURLBase,
	}, nil
}

// Store uploads the archive to the configured bucket. Object lifecycle
// (expiry) is managed on the bucket, not here.
func (s *gcsService) Store(ctx context.Context, localPath, _ string) (Location, error) {
	digest, size, err := fileDigest(localPath)
	if err != nil {
		return Location{}, err
	}

	key := filepath.Base(localPath)
	if s.prefix != "" {
		key = path.Join(s.prefix, key)
	}

	source, err := os.Open(localPath)
	if err != nil {
		return Location{}, fmt.Errorf("open archive: %w", err)
	}
	defer source.Close()

	object := s.client.Bucket(s.bucket).Object(key)
	writer := object.NewWriter(ctx)
	writer.ContentType = "application/zip"
	if _, err := io.Copy(writer, source); err != nil {
		_ = writer.Close()
		return Location{}, fmt.Errorf("upload archive: %w", err)
	}
	if err := writer.Close(); err != nil {
		return Location{}, fmt.Errorf("finalize upload: %w", err)
	}

	location := Location{
		Bucket:      s.bucket,
		Key:         key,
		URL:         fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, key),
		SizeInBytes: size,
		SHA1:        digest,
	}
	if s.urlBase != "" {
		location.URL = s.urlBase + "/" + key
	}
	return location, nil
}
