package config

const (
	defaultDatabasePath     = "~/.local/share/mediamerge/mediamerge.db"
	defaultQuarantineDir    = "~/.local/share/mediamerge/quarantine"
	defaultLogDir           = "~/.local/share/mediamerge/logs"
	defaultHashAlgorithm    = "blake3"
	defaultMinWorkers       = 1
	defaultMaxWorkers       = 32
	defaultHeavyFileMiB     = 256
	defaultVerifyMinGroup   = 4
	defaultVerifyMinMiB     = 1024
	defaultCleanupMode      = "report"
	defaultSimilarThreshold = 10
	defaultLogFormat        = "text"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DatabasePath:  defaultDatabasePath,
			QuarantineDir: defaultQuarantineDir,
			LogDir:        defaultLogDir,
		},
		Grouping: Grouping{
			HashAlgorithm: defaultHashAlgorithm,
			MinWorkers:    defaultMinWorkers,
			MaxWorkers:    defaultMaxWorkers,
			HeavyFileMiB:  defaultHeavyFileMiB,
		},
		Merge: Merge{
			VerifyMinGroup: defaultVerifyMinGroup,
			VerifyMinMiB:   defaultVerifyMinMiB,
		},
		Cleanup: Cleanup{
			Mode: defaultCleanupMode,
		},
		Scan: Scan{
			EXIF: true,
		},
		Similar: Similar{
			Threshold: defaultSimilarThreshold,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
