// Package janitor removes the duplicate files a consolidated collection
// no longer needs. Primaries and secondaries are never touched; the
// janitor only ever sees an entity's duplicate ranks, so at least one
// copy of every entity always survives.
package janitor

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"mediamerge/internal/fileutil"
	"mediamerge/internal/logging"
	"mediamerge/internal/media"
)

// Mode selects what a sweep does with each duplicate.
type Mode string

const (
	// ModeReport counts and reports without touching anything.
	ModeReport Mode = "report"

	// ModeDelete removes duplicates permanently.
	ModeDelete Mode = "delete"

	// ModeQuarantine moves duplicates into a holding directory,
	// mirroring their layout under the input root.
	ModeQuarantine Mode = "quarantine"
)

// ParseMode converts a user-supplied string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(s)) {
	case ModeReport:
		return ModeReport, nil
	case ModeDelete:
		return ModeDelete, nil
	case ModeQuarantine:
		return ModeQuarantine, nil
	default:
		return "", fmt.Errorf("unknown cleanup mode: %q", s)
	}
}

// Config configures a Janitor.
type Config struct {
	Mode Mode

	// InputRoot anchors the relative layout recreated under the
	// quarantine directory.
	InputRoot string

	// QuarantineDir receives quarantined files. Required for
	// ModeQuarantine.
	QuarantineDir string

	Logger *slog.Logger

	// OnFile is called after each file is handled. dest is where the
	// file went, empty for report and delete. err is nil on success.
	OnFile func(path, dest string, err error)
}

// Janitor sweeps duplicate files according to its mode.
type Janitor struct {
	mode          Mode
	inputRoot     string
	quarantineDir string
	logger        *slog.Logger
	onFile        func(path, dest string, err error)
}

// New creates a janitor from cfg.
func New(cfg Config) (*Janitor, error) {
	switch cfg.Mode {
	case ModeReport, ModeDelete, ModeQuarantine:
	case "":
		cfg.Mode = ModeReport
	default:
		return nil, fmt.Errorf("unknown cleanup mode: %q", cfg.Mode)
	}
	if cfg.Mode == ModeQuarantine && cfg.QuarantineDir == "" {
		return nil, fmt.Errorf("quarantine mode requires a quarantine directory")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Janitor{
		mode:          cfg.Mode,
		inputRoot:     cfg.InputRoot,
		quarantineDir: cfg.QuarantineDir,
		logger:        logger,
		onFile:        cfg.OnFile,
	}, nil
}

// Mode returns the janitor's mode.
func (j *Janitor) Mode() Mode { return j.mode }

// Result summarizes a sweep. Reclaimed is bytes actually freed, or in
// report mode the bytes a destructive sweep would free.
type Result struct {
	Eligible    int
	Removed     int
	Quarantined int
	Failed      int
	Reclaimed   int64
}

// Sweep handles every duplicate file in the collection. Failures are
// counted and logged per file; the sweep always continues. Shortcut
// entries are skipped because they are pointers, not byte copies.
func (j *Janitor) Sweep(col *media.Collection) Result {
	var paths []string
	for _, e := range col.Entities() {
		for _, d := range e.Duplicates() {
			if d.IsShortcut() {
				j.logger.Debug("skipping shortcut duplicate", "path", d.SourcePath())
				continue
			}
			paths = append(paths, d.SourcePath())
		}
	}
	return j.SweepFiles(paths)
}

// SweepFiles handles the given duplicate paths directly. The caller is
// responsible for only passing files that are safe to remove.
func (j *Janitor) SweepFiles(paths []string) Result {
	var result Result
	for _, path := range paths {
		result.Eligible++

		size, dest, err := j.handle(path)
		if j.onFile != nil {
			j.onFile(path, dest, err)
		}
		if err != nil {
			result.Failed++
			j.logger.Warn("failed to handle duplicate", "path", path, "mode", j.mode, "error", err)
			continue
		}

		result.Reclaimed += size
		switch j.mode {
		case ModeDelete:
			result.Removed++
			j.logger.Debug("deleted duplicate", "path", path, "size", size)
		case ModeQuarantine:
			result.Quarantined++
			j.logger.Debug("quarantined duplicate", "path", path, "dest", dest)
		}
	}
	return result
}

// handle processes one file and returns its size and, for quarantine,
// its new location. The size is read before anything destructive
// happens.
func (j *Janitor) handle(path string) (int64, string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, "", fmt.Errorf("failed to stat file: %w", err)
	}
	size := info.Size()

	switch j.mode {
	case ModeReport:
		return size, "", nil
	case ModeDelete:
		if err := os.Remove(path); err != nil {
			return 0, "", fmt.Errorf("failed to delete file: %w", err)
		}
		return size, "", nil
	case ModeQuarantine:
		dest, err := fileutil.Move(path, filepath.Join(j.quarantineDir, j.relativeDir(path)))
		if err != nil {
			return 0, "", fmt.Errorf("failed to quarantine file: %w", err)
		}
		return size, dest, nil
	}
	return 0, "", fmt.Errorf("unknown cleanup mode: %q", j.mode)
}

// relativeDir mirrors the file's directory under the input root. Paths
// outside the root fall back to a flat layout.
func (j *Janitor) relativeDir(path string) string {
	if j.inputRoot == "" {
		return ""
	}
	rel, err := filepath.Rel(j.inputRoot, filepath.Dir(path))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ""
	}
	return rel
}
