package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "")

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved = %q exists = %v", resolved, exists)
	}
	if cfg.Storage.Backend != "local" {
		t.Fatalf("backend = %q, want local", cfg.Storage.Backend)
	}
	if cfg.Normalization.RequestTimeout != defaultNormalizationTimeout {
		t.Fatalf("normalization timeout = %d", cfg.Normalization.RequestTimeout)
	}
	if cfg.Notifications.DatasetURLBase != defaultDatasetURLBase {
		t.Fatalf("dataset url base = %q", cfg.Notifications.DatasetURLBase)
	}
	if !filepath.IsAbs(cfg.Paths.StagingDir) {
		t.Fatalf("staging dir not expanded: %q", cfg.Paths.StagingDir)
	}
}

func TestLoadOverrides(t *testing.T) {
	base := t.TempDir()
	path := writeConfig(t, fmt.Sprintf(`[paths]
staging_dir = %q
log_dir = %q

[normalization]
base_url = "http://qn.internal/"
request_timeout = 30

[storage]
backend = "gcs"
bucket = "smash-results"
prefix = "/archives/"
`, filepath.Join(base, "staging"), filepath.Join(base, "logs")))

	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Normalization.BaseURL != "http://qn.internal" {
		t.Fatalf("base url = %q, want trailing slash trimmed", cfg.Normalization.BaseURL)
	}
	if cfg.Normalization.RequestTimeout != 30 {
		t.Fatalf("timeout = %d, want 30", cfg.Normalization.RequestTimeout)
	}
	if cfg.Storage.Backend != "gcs" || cfg.Storage.Bucket != "smash-results" {
		t.Fatalf("storage = %+v", cfg.Storage)
	}
	if cfg.Storage.Prefix != "archives" {
		t.Fatalf("prefix = %q, want slashes trimmed", cfg.Storage.Prefix)
	}
}

func TestLoadRejectsBadStorageBackend(t *testing.T) {
	path := writeConfig(t, `[storage]
backend = "s3"
`)
	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown storage backend")
	}
}

func TestLoadRejectsGCSWithoutBucket(t *testing.T) {
	path := writeConfig(t, `[storage]
backend = "gcs"
`)
	_, _, _, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "storage.bucket") {
		t.Fatalf("expected bucket error, got %v", err)
	}
}

func TestLoadRejectsBadLogging(t *testing.T) {
	path := writeConfig(t, `[logging]
format = "xml"
`)
	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown log format")
	}
}

func TestNtfyTopicEnvFallback(t *testing.T) {
	t.Setenv("SMASHER_NTFY_TOPIC", "https://ntfy.sh/smash-test")
	path := writeConfig(t, "")

	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.sh/smash-test" {
		t.Fatalf("topic = %q", cfg.Notifications.NtfyTopic)
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	if err := WriteSample(target); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	if err := WriteSample(target); err == nil {
		t.Fatal("expected error when target exists")
	}

	content, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(content), "[paths]") {
		t.Fatalf("sample config missing paths section:\n%s", content)
	}
}

func TestEnsureDirectoriesAndDatabasePath(t *testing.T) {
	base := t.TempDir()
	cfg := Default()
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Storage.Backend = "local"
	cfg.Storage.ResultsDir = filepath.Join(base, "results")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StagingDir, cfg.Paths.LogDir, cfg.Storage.ResultsDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
	if got := cfg.DatabasePath(); got != filepath.Join(cfg.Paths.LogDir, "smasher.db") {
		t.Fatalf("DatabasePath = %q", got)
	}
}

func TestExpandPathTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	got, err := ExpandPath("~/data")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if got != filepath.Join(home, "data") {
		t.Fatalf("ExpandPath(~/data) = %q", got)
	}
}
