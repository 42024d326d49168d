package storage

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"smasher/internal/config"
)

func TestLocalStore(t *testing.T) {
	resultsDir := t.TempDir()
	cfg := config.Default()
	cfg.Storage.Backend = "local"
	cfg.Storage.ResultsDir = resultsDir

	service, err := NewService(&cfg)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	content := []byte("zip bytes here")
	archivePath := filepath.Join(t.TempDir(), "ds-1.zip")
	if err := os.WriteFile(archivePath, content, 0o644); err != nil {
		t.Fatalf("write archive: %v", err)
	}

	location, err := service.Store(context.Background(), archivePath, "ds-1")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}

	if location.Key != "ds-1.zip" {
		t.Fatalf("key = %q", location.Key)
	}
	if location.SizeInBytes != int64(len(content)) {
		t.Fatalf("size = %d, want %d", location.SizeInBytes, len(content))
	}
	sum := sha1.Sum(content)
	if location.SHA1 != hex.EncodeToString(sum[:]) {
		t.Fatalf("sha1 = %q", location.SHA1)
	}

	stored, err := os.ReadFile(filepath.Join(resultsDir, "ds-1.zip"))
	if err != nil {
		t.Fatalf("read stored archive: %v", err)
	}
	if string(stored) != string(content) {
		t.Fatal("stored archive content differs")
	}
	if location.URL != filepath.Join(resultsDir, "ds-1.zip") {
		t.Fatalf("url = %q", location.URL)
	}
}

func TestLocalStorePublicURL(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Backend = "local"
	cfg.Storage.ResultsDir = t.TempDir()
	cfg.Storage.PublicURLBase = "https://results.example.org"

	service, err := NewService(&cfg)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	archivePath := filepath.Join(t.TempDir(), "ds-2.zip")
	if err := os.WriteFile(archivePath, []byte("x"), 0o644); err != nil {
		t.Fatalf("write archive: %v", err)
	}

	location, err := service.Store(context.Background(), archivePath, "ds-2")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if location.URL != "https://results.example.org/ds-2.zip" {
		t.Fatalf("url = %q", location.URL)
	}
}

func TestLocalStoreMissingArchive(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Backend = "local"
	cfg.Storage.ResultsDir = t.TempDir()

	service, err := NewService(&cfg)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	if _, err := service.Store(context.Background(), filepath.Join(t.TempDir(), "missing.zip"), "ds-3"); err == nil {
		t.Fatal("expected error for missing archive")
	}
}

func TestNewServiceUnknownBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Backend = "ftp"

	if _, err := NewService(&cfg); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
