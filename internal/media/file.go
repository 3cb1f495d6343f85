package media

import (
	"path/filepath"
	"regexp"
	"strings"
)

// FileIdentity uniquely identifies a file reference. Two references with
// the same identity describe the same physical file and are never owned
// twice by one entity or one collection.
type FileIdentity struct {
	SourcePath string
	TargetPath string
	Shortcut   bool
}

// FileReference describes one physical file owned by an entity: its path,
// an optional shortcut target, whether the path lies under a canonical
// year folder, and its rank within the owning entity's file set.
type FileReference struct {
	sourcePath string
	targetPath string
	shortcut   bool
	canonical  bool
	rank       int
}

// NewFileReference creates a reference for a regular file.
func NewFileReference(sourcePath string) FileReference {
	return FileReference{
		sourcePath: sourcePath,
		canonical:  IsCanonicalPath(sourcePath),
	}
}

// NewShortcutReference creates a reference for a shortcut at sourcePath
// pointing at targetPath.
func NewShortcutReference(sourcePath, targetPath string) FileReference {
	return FileReference{
		sourcePath: sourcePath,
		targetPath: targetPath,
		shortcut:   true,
		canonical:  IsCanonicalPath(sourcePath),
	}
}

// SourcePath returns the file's path on disk.
func (f FileReference) SourcePath() string { return f.sourcePath }

// TargetPath returns the shortcut target, or "" for regular files.
func (f FileReference) TargetPath() string { return f.targetPath }

// IsShortcut reports whether the reference is a shortcut.
func (f FileReference) IsShortcut() bool { return f.shortcut }

// IsCanonical reports whether the path lies under a year-style folder.
func (f FileReference) IsCanonical() bool { return f.canonical }

// Rank returns the file's position in the owning entity's ordering.
// Rank 1 is the entity's primary file. Ranks are only meaningful among
// the files of the same entity snapshot and are recomputed whenever the
// file set changes.
func (f FileReference) Rank() int { return f.rank }

// Identity returns the deduplication key for the reference.
func (f FileReference) Identity() FileIdentity {
	return FileIdentity{SourcePath: f.sourcePath, TargetPath: f.targetPath, Shortcut: f.shortcut}
}

// Dir returns the directory containing the file.
func (f FileReference) Dir() string { return filepath.Dir(f.sourcePath) }

// Basename returns the file name without its directory.
func (f FileReference) Basename() string { return filepath.Base(f.sourcePath) }

// Year folder names: a bare 4-digit year or a localized
// "Photos from <year>" / "Fotos de <year>" export folder.
var (
	bareYearPattern  = regexp.MustCompile(`^(19|20)\d{2}$`)
	namedYearPattern = regexp.MustCompile(`(?i)^(photos from|fotos de)\s+(19|20)\d{2}$`)
)

// IsCanonicalPath reports whether any segment of path is a year-style
// folder name. Files under such folders are preferred over album-only
// copies when ranking.
func IsCanonicalPath(path string) bool {
	for _, segment := range strings.Split(filepath.ToSlash(path), "/") {
		if isYearSegment(segment) {
			return true
		}
	}
	return false
}

func isYearSegment(segment string) bool {
	return bareYearPattern.MatchString(segment) || namedYearPattern.MatchString(segment)
}
