// Package scan discovers media files under a directory tree and builds
// the starting collection for a consolidation run.
package scan

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"mediamerge/internal/content"
	"mediamerge/internal/logging"
	"mediamerge/internal/media"
)

// Date accuracy ordinals, lower is better. A sidecar written by the
// exporting service beats whatever is embedded in the file.
const (
	accuracySidecar = 1
	accuracyEXIF    = 2
)

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".webp": true, ".heic": true, ".heif": true,
	".tif": true, ".tiff": true, ".dng": true, ".nef": true,
	".cr2": true,
}

// IsMediaFile reports whether the path looks like a photo or video.
func IsMediaFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return imageExts[ext] || content.IsVideo(path)
}

// Scanner walks an export tree and builds one entity per media file.
type Scanner struct {
	workers    int
	readEXIF   bool
	logger     *slog.Logger
	progressFn func(scanned, total int, current string)
}

// Option configures a Scanner
type Option func(*Scanner)

// WithWorkers sets the number of parallel workers
func WithWorkers(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithEXIF enables reading capture dates from EXIF when no sidecar
// provides one.
func WithEXIF(enabled bool) Option {
	return func(s *Scanner) {
		s.readEXIF = enabled
	}
}

// WithLogger sets the scanner's logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithProgress sets a progress callback
func WithProgress(fn func(scanned, total int, current string)) Option {
	return func(s *Scanner) {
		s.progressFn = fn
	}
}

// NewScanner creates a new Scanner
func NewScanner(opts ...Option) *Scanner {
	s := &Scanner{
		workers: 8,
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScanRoot walks root and returns a collection with one entity per
// media file found. Unreadable directory entries are skipped, not
// fatal.
func (s *Scanner) ScanRoot(root string) (*media.Collection, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if d.IsDir() {
			return nil
		}
		if IsMediaFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk root: %w", err)
	}

	col := media.NewCollection()
	if len(paths) == 0 {
		return col, nil
	}

	var (
		results = make([]media.Entity, len(paths))
		wg      sync.WaitGroup
		scanned int64
		total   = len(paths)
	)

	work := make(chan int, len(paths))
	for i := range paths {
		work <- i
	}
	close(work)

	workers := s.workers
	if workers > len(paths) {
		workers = len(paths)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				path := paths[idx]
				results[idx] = s.buildEntity(root, path)

				n := atomic.AddInt64(&scanned, 1)
				if s.progressFn != nil {
					s.progressFn(int(n), total, path)
				}
			}
		}()
	}

	wg.Wait()

	for _, e := range results {
		col.Add(e)
	}
	s.logger.Info("scan complete", "root", root, "files", col.Len())
	return col, nil
}

// buildEntity creates the entity for one media file, attaching album
// membership and the best capture date it can find.
func (s *Scanner) buildEntity(root, path string) media.Entity {
	e := media.NewEntity(media.NewFileReference(path))

	if album, ok := detectAlbum(root, path); ok {
		e = e.WithAlbum(album)
	}

	if meta, ok := s.readSidecar(path); ok {
		if !meta.taken.IsZero() {
			e = e.WithDate(meta.taken, accuracySidecar, "sidecar")
		}
		if meta.partnerShared {
			e = e.WithPartnerShared(true)
		}
	}

	if s.readEXIF && e.DateAccuracy() == 0 {
		if taken, ok := s.readEXIFDate(path); ok {
			e = e.WithDate(taken, accuracyEXIF, "exif")
		}
	}
	return e
}

// detectAlbum treats a non-year parent folder as an album. Files
// directly under the root or inside the service's container folder
// belong to no album.
func detectAlbum(root, path string) (media.AlbumInfo, bool) {
	dir := filepath.Dir(path)
	if dir == root {
		return media.AlbumInfo{}, false
	}
	name := filepath.Base(dir)
	if name == "Google Photos" || media.IsCanonicalPath(name) {
		return media.AlbumInfo{}, false
	}
	return media.NewAlbumInfo(name, dir), true
}

type sidecarMeta struct {
	taken         time.Time
	partnerShared bool
}

type sidecarPayload struct {
	PhotoTakenTime struct {
		Timestamp string `json:"timestamp"`
	} `json:"photoTakenTime"`
	GooglePhotosOrigin struct {
		FromPartnerSharing map[string]any `json:"fromPartnerSharing"`
	} `json:"googlePhotosOrigin"`
}

// readSidecar looks for the JSON metadata file the export wrote next to
// the media file and pulls the capture time and sharing origin from it.
func (s *Scanner) readSidecar(path string) (sidecarMeta, bool) {
	candidates := []string{
		path + ".json",
		path + ".supplemental-metadata.json",
		strings.TrimSuffix(path, filepath.Ext(path)) + ".json",
	}

	for _, candidate := range candidates {
		data, err := os.ReadFile(candidate)
		if err != nil {
			continue
		}

		var payload sidecarPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			s.logger.Debug("skipping malformed sidecar", "path", candidate, "error", err)
			continue
		}

		var meta sidecarMeta
		if ts, err := strconv.ParseInt(payload.PhotoTakenTime.Timestamp, 10, 64); err == nil && ts > 0 {
			meta.taken = time.Unix(ts, 0).UTC()
		}
		meta.partnerShared = payload.GooglePhotosOrigin.FromPartnerSharing != nil
		return meta, true
	}
	return sidecarMeta{}, false
}

// readEXIFDate extracts the capture time embedded in the file itself.
func (s *Scanner) readEXIFDate(path string) (time.Time, bool) {
	file, err := os.Open(path)
	if err != nil {
		return time.Time{}, false
	}
	defer file.Close()

	ex, err := exif.Decode(file)
	if err != nil {
		return time.Time{}, false
	}
	taken, err := ex.DateTime()
	if err != nil {
		s.logger.Debug("file has no usable capture date", "path", path, "error", err)
		return time.Time{}, false
	}
	return taken, true
}
