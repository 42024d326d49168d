package config

const (
	defaultStagingDir           = "~/.local/share/smasher/staging"
	defaultLogDir               = "~/.local/share/smasher/logs"
	defaultResultsDir           = "~/.local/share/smasher/results"
	defaultStorageBackend       = "local"
	defaultNormalizationTimeout = 600
	defaultNotificationTimeout  = 10
	defaultDatasetURLBase       = "https://datasets.smasher.example.com/dataset"
	defaultLogFormat            = "auto"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
		},
		Normalization: Normalization{
			RequestTimeout: defaultNormalizationTimeout,
		},
		Storage: Storage{
			Backend:    defaultStorageBackend,
			ResultsDir: defaultResultsDir,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotificationTimeout,
			DatasetURLBase: defaultDatasetURLBase,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
