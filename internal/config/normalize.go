package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeStorage(); err != nil {
		return err
	}
	c.normalizeNormalization()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeStorage() error {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = defaultStorageBackend
	}
	c.Storage.Bucket = strings.TrimSpace(c.Storage.Bucket)
	c.Storage.Prefix = strings.Trim(strings.TrimSpace(c.Storage.Prefix), "/")
	c.Storage.PublicURLBase = strings.TrimRight(strings.TrimSpace(c.Storage.PublicURLBase), "/")
	if strings.TrimSpace(c.Storage.ResultsDir) == "" {
		c.Storage.ResultsDir = defaultResultsDir
	}
	var err error
	if c.Storage.ResultsDir, err = expandPath(c.Storage.ResultsDir); err != nil {
		return fmt.Errorf("storage.results_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeNormalization() {
	c.Normalization.BaseURL = strings.TrimRight(strings.TrimSpace(c.Normalization.BaseURL), "/")
	if c.Normalization.RequestTimeout <= 0 {
		c.Normalization.RequestTimeout = defaultNormalizationTimeout
	}
}

func (c *Config) normalizeNotifications() {
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("SMASHER_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = value
		}
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	c.Notifications.OpsWebhookURL = strings.TrimSpace(c.Notifications.OpsWebhookURL)
	c.Notifications.DatasetURLBase = strings.TrimRight(strings.TrimSpace(c.Notifications.DatasetURLBase), "/")
	if c.Notifications.DatasetURLBase == "" {
		c.Notifications.DatasetURLBase = defaultDatasetURLBase
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotificationTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
