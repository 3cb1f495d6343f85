package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/gofrs/flock"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"mediamerge/internal/config"
	"mediamerge/internal/logging"
	"mediamerge/internal/storage"
)

var (
	configPath string
	dbOverride string
	logLevel   string
	noProgress bool
)

var rootCmd = &cobra.Command{
	Use:   "mediamerge",
	Short: "Consolidate photo and video archives",
	Long: `mediamerge consolidates media archives exported from multiple places.

It finds byte-identical copies of each photo or video across a year-folder
tree and its album folders, keeps one canonical copy per logical item, and
carries album membership and the best-known capture date across merges.
Redundant same-folder copies can then be deleted or quarantined.

Example usage:
  mediamerge consolidate ./takeout        # Find and merge identical copies
  mediamerge groups                       # Show the groups of the last run
  mediamerge clean --dry-run              # Preview duplicate cleanup
  mediamerge similar ./takeout            # Report visually similar images`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&dbOverride, "db", "", "Path to the database (overrides the config file)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides the config file)")
	rootCmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "Disable progress bars")
}

// loadConfig reads the configuration file and applies the persistent
// flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dbOverride != "" {
		expanded, err := config.ExpandPath(dbOverride)
		if err != nil {
			return nil, err
		}
		cfg.Paths.DatabasePath = expanded
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, nil
}

// newLogger builds the command's logger from the loaded configuration.
func newLogger(cfg *config.Config) (*slog.Logger, error) {
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
}

// openStore opens the signature and run database.
func openStore(cfg *config.Config) (*storage.Store, error) {
	store, err := storage.NewStore(cfg.Paths.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}

// acquireLock takes the archive lock kept beside the database so only
// one mutating command runs at a time. The caller must Unlock.
func acquireLock(cfg *config.Config) (*flock.Flock, error) {
	lock := flock.New(cfg.Paths.DatabasePath + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire archive lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another mediamerge instance is already working on this archive")
	}
	return lock, nil
}

// showProgress reports whether progress bars should render.
func showProgress() bool {
	if noProgress {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
