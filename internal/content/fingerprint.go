package content

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/blake3"
)

const (
	// windowSize is how many bytes each fingerprint window covers.
	windowSize = 64 * 1024

	// largeFileSize is the size at which the middle window is skipped.
	largeFileSize int64 = 512 << 20
)

var videoExts = map[string]bool{
	".mp4": true, ".mov": true, ".avi": true, ".mkv": true,
	".m4v": true, ".mpg": true, ".mpeg": true, ".wmv": true,
	".webm": true, ".3gp": true, ".mts": true, ".m2ts": true,
}

// IsVideo reports whether the path has a video container extension.
func IsVideo(path string) bool {
	return videoExts[strings.ToLower(filepath.Ext(path))]
}

// Fingerprint hashes a few fixed windows of the file and returns the
// hex-encoded digest. Matching fingerprints do not prove equal contents;
// differing fingerprints prove the contents differ. Files at or above
// largeFileSize, and video containers of any size, are sampled with two
// windows instead of three because their middles are expensive to reach
// and rarely needed to separate them.
func Fingerprint(path string, size int64) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	hasher := blake3.New()
	buf := make([]byte, windowSize)
	for _, offset := range windowOffsets(path, size) {
		n, err := file.ReadAt(buf, offset)
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("failed to read window at %d: %w", offset, err)
		}
		hasher.Write(buf[:n])
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// windowOffsets picks the window start positions: head, middle and tail,
// or head and tail for large files and videos. Offsets never go negative
// so small files simply re-read their start.
func windowOffsets(path string, size int64) []int64 {
	tail := size - windowSize
	if tail < 0 {
		tail = 0
	}
	if size >= largeFileSize || IsVideo(path) {
		return []int64{0, tail}
	}
	mid := (size - windowSize) / 2
	if mid < 0 {
		mid = 0
	}
	return []int64{0, mid, tail}
}
