package testsupport

import (
	"path/filepath"
	"testing"

	"smasher/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Storage.Backend = "local"
	cfg.Storage.ResultsDir = filepath.Join(base, "results")

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithNormalizationURL points the config at a quantile normalization
// endpoint, usually an httptest server.
func WithNormalizationURL(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Normalization.BaseURL = url
	}
}

// WithNtfyTopic sets the requester notification topic on the test config.
func WithNtfyTopic(topic string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Notifications.NtfyTopic = topic
	}
}

// WithOpsWebhook sets the operations webhook URL on the test config.
func WithOpsWebhook(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Notifications.OpsWebhookURL = url
	}
}
