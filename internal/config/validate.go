package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateGrouping(); err != nil {
		return err
	}
	if err := c.validateMerge(); err != nil {
		return err
	}
	if err := c.validateCleanup(); err != nil {
		return err
	}
	if err := c.validateSimilar(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateGrouping() error {
	switch c.Grouping.HashAlgorithm {
	case "blake3", "sha256":
	default:
		return fmt.Errorf("grouping.hash_algorithm must be %q or %q, got %q", "blake3", "sha256", c.Grouping.HashAlgorithm)
	}
	if c.Grouping.MinWorkers <= 0 {
		return errors.New("grouping.min_workers must be positive")
	}
	if c.Grouping.MaxWorkers < c.Grouping.MinWorkers {
		return errors.New("grouping.max_workers must be >= grouping.min_workers")
	}
	if c.Grouping.HeavyFileMiB <= 0 {
		return errors.New("grouping.heavy_file_mib must be positive")
	}
	return nil
}

func (c *Config) validateMerge() error {
	if c.Merge.VerifyMinGroup < 2 {
		return errors.New("merge.verify_min_group must be >= 2")
	}
	if c.Merge.VerifyMinMiB <= 0 {
		return errors.New("merge.verify_min_mib must be positive")
	}
	return nil
}

func (c *Config) validateCleanup() error {
	switch c.Cleanup.Mode {
	case "report", "delete", "quarantine":
	default:
		return fmt.Errorf("cleanup.mode must be %q, %q or %q, got %q", "report", "delete", "quarantine", c.Cleanup.Mode)
	}
	if c.Cleanup.Mode == "quarantine" && c.Paths.QuarantineDir == "" {
		return errors.New("paths.quarantine_dir must be set when cleanup.mode is quarantine")
	}
	return nil
}

func (c *Config) validateSimilar() error {
	if c.Similar.Threshold > 64 {
		return errors.New("similar.threshold must be between 0 and 64")
	}
	return nil
}
