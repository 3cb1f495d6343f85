package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeGrouping()
	c.normalizeMerge()
	c.normalizeCleanup()
	c.normalizeScan()
	c.normalizeSimilar()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DatabasePath) == "" {
		c.Paths.DatabasePath = defaultDatabasePath
	}
	if c.Paths.DatabasePath, err = expandPath(c.Paths.DatabasePath); err != nil {
		return fmt.Errorf("paths.database_path: %w", err)
	}
	if strings.TrimSpace(c.Paths.QuarantineDir) == "" {
		c.Paths.QuarantineDir = defaultQuarantineDir
	}
	if c.Paths.QuarantineDir, err = expandPath(c.Paths.QuarantineDir); err != nil {
		return fmt.Errorf("paths.quarantine_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) != "" {
		if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
			return fmt.Errorf("paths.log_dir: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeGrouping() {
	c.Grouping.HashAlgorithm = strings.ToLower(strings.TrimSpace(c.Grouping.HashAlgorithm))
	if c.Grouping.HashAlgorithm == "" {
		c.Grouping.HashAlgorithm = defaultHashAlgorithm
	}
	if c.Grouping.MinWorkers <= 0 {
		c.Grouping.MinWorkers = defaultMinWorkers
	}
	if c.Grouping.MaxWorkers <= 0 {
		c.Grouping.MaxWorkers = defaultMaxWorkers
	}
	if c.Grouping.HeavyFileMiB <= 0 {
		c.Grouping.HeavyFileMiB = defaultHeavyFileMiB
	}
}

func (c *Config) normalizeMerge() {
	if c.Merge.VerifyMinGroup <= 0 {
		c.Merge.VerifyMinGroup = defaultVerifyMinGroup
	}
	if c.Merge.VerifyMinMiB <= 0 {
		c.Merge.VerifyMinMiB = defaultVerifyMinMiB
	}
}

func (c *Config) normalizeCleanup() {
	c.Cleanup.Mode = strings.ToLower(strings.TrimSpace(c.Cleanup.Mode))
	if c.Cleanup.Mode == "" {
		c.Cleanup.Mode = defaultCleanupMode
	}
}

func (c *Config) normalizeScan() {
	if c.Scan.Workers < 0 {
		c.Scan.Workers = 0
	}
}

func (c *Config) normalizeSimilar() {
	if c.Similar.Threshold < 0 {
		c.Similar.Threshold = defaultSimilarThreshold
	}
	if c.Similar.Workers < 0 {
		c.Similar.Workers = 0
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "text":
		c.Logging.Format = defaultLogFormat
	case "json":
	default:
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
