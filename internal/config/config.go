// Package config loads, normalizes, and validates mediamerge
// configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. Obtain settings through this
// package so downstream code receives sanitized paths, canonical log
// formats, and clear validation errors.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains file and directory locations.
type Paths struct {
	DatabasePath  string `toml:"database_path"`
	QuarantineDir string `toml:"quarantine_dir"`
	LogDir        string `toml:"log_dir"`
}

// Grouping contains settings for content comparison.
type Grouping struct {
	HashAlgorithm string `toml:"hash_algorithm"`
	MinWorkers    int    `toml:"min_workers"`
	MaxWorkers    int    `toml:"max_workers"`
	HeavyFileMiB  int    `toml:"heavy_file_mib"`
}

// Merge contains settings for duplicate resolution.
type Merge struct {
	Verify         bool `toml:"verify"`
	VerifyMinGroup int  `toml:"verify_min_group"`
	VerifyMinMiB   int  `toml:"verify_min_mib"`
}

// Cleanup contains settings for handling redundant copies.
type Cleanup struct {
	Mode string `toml:"mode"`
}

// Scan contains settings for archive discovery.
type Scan struct {
	Workers int  `toml:"workers"`
	EXIF    bool `toml:"exif"`
}

// Similar contains settings for near-duplicate detection.
type Similar struct {
	Threshold int `toml:"threshold"`
	Workers   int `toml:"workers"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config encapsulates all configuration values for mediamerge.
//
// Configuration sections by subsystem:
//   - Paths: database, quarantine and log locations
//   - Grouping: content hashing and worker pool bounds
//   - Merge: duplicate verification thresholds
//   - Cleanup: disposition of redundant copies
//   - Scan: archive discovery and metadata settings
//   - Similar: perceptual near-duplicate detection
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Grouping Grouping `toml:"grouping"`
	Merge    Merge    `toml:"merge"`
	Cleanup  Cleanup  `toml:"cleanup"`
	Scan     Scan     `toml:"scan"`
	Similar  Similar  `toml:"similar"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/mediamerge/config.toml")
}

// Load locates, parses, and validates a configuration file. The
// returned config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("mediamerge.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
