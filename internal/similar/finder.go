// Package similar finds entities whose primary images look alike even
// when their bytes differ. Its output is advisory: nothing is merged or
// removed because of it.
package similar

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/corona10/goimagehash"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"mediamerge/internal/logging"
	"mediamerge/internal/media"
)

// DefaultThreshold is the Hamming distance under which two perceptual
// hashes count as similar.
const DefaultThreshold = 10

// Finder clusters visually similar images using perceptual hashing.
type Finder struct {
	threshold int
	workers   int
	logger    *slog.Logger
}

// Option configures a Finder
type Option func(*Finder)

// WithWorkers sets the number of parallel workers
func WithWorkers(n int) Option {
	return func(f *Finder) {
		if n > 0 {
			f.workers = n
		}
	}
}

// WithLogger sets the finder's logger
func WithLogger(logger *slog.Logger) Option {
	return func(f *Finder) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFinder creates a Finder. A negative threshold selects the default.
func NewFinder(threshold int, opts ...Option) *Finder {
	if threshold < 0 {
		threshold = DefaultThreshold
	}
	f := &Finder{
		threshold: threshold,
		workers:   8,
		logger:    logging.Discard(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Threshold returns the finder's Hamming distance threshold.
func (f *Finder) Threshold() int { return f.threshold }

// Cluster is a set of paths whose images look alike.
type Cluster struct {
	Paths []string
}

// FindClusters hashes every decodable primary image in the collection
// and clusters the ones within the threshold. Videos and images that
// cannot be decoded are skipped.
//
// Uses a BK-tree for O(n log n) average-case performance instead of
// comparing every pair.
func (f *Finder) FindClusters(col *media.Collection) []Cluster {
	var paths []string
	for _, e := range col.Entities() {
		path := e.Primary().SourcePath()
		if isSupportedImage(path) {
			paths = append(paths, path)
		}
	}
	if len(paths) < 2 {
		return nil
	}

	hashes := f.hashAll(paths)

	type hashed struct {
		path string
		hash uint64
	}
	var images []hashed
	for i, h := range hashes {
		if h.ok {
			images = append(images, hashed{path: paths[i], hash: h.hash})
		}
	}
	if len(images) < 2 {
		return nil
	}

	// Union-Find groups everything the BK-tree finds within threshold.
	uf := newUnionFind(len(images))
	tree := newBKTree(hammingDistance)
	for i, img := range images {
		for _, j := range tree.findWithinDistance(img.hash, f.threshold) {
			uf.union(i, j)
		}
		tree.insert(img.hash, i)
	}

	byRoot := make(map[int][]string)
	for i, img := range images {
		root := uf.find(i)
		byRoot[root] = append(byRoot[root], img.path)
	}

	var clusters []Cluster
	for _, members := range byRoot {
		if len(members) < 2 {
			continue
		}
		sort.Strings(members)
		clusters = append(clusters, Cluster{Paths: members})
	}
	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i].Paths[0] < clusters[j].Paths[0]
	})
	return clusters
}

type hashResult struct {
	hash uint64
	ok   bool
}

// hashAll computes perceptual hashes in parallel, index-aligned with
// the input paths.
func (f *Finder) hashAll(paths []string) []hashResult {
	results := make([]hashResult, len(paths))

	work := make(chan int, len(paths))
	for i := range paths {
		work <- i
	}
	close(work)

	workers := f.workers
	if workers > len(paths) {
		workers = len(paths)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				hash, err := perceptualHash(paths[idx])
				if err != nil {
					f.logger.Debug("skipping undecodable image", "path", paths[idx], "error", err)
					continue
				}
				results[idx] = hashResult{hash: hash, ok: true}
			}
		}()
	}
	wg.Wait()
	return results
}

// perceptualHash decodes the image and computes its perception hash.
func perceptualHash(path string) (uint64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return 0, fmt.Errorf("failed to decode image: %w", err)
	}

	hash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return 0, fmt.Errorf("failed to compute hash: %w", err)
	}
	return hash.GetHash(), nil
}

// isSupportedImage checks if a file is a supported image format
func isSupportedImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".tiff", ".tif":
		return true
	default:
		return false
	}
}

// hammingDistance calculates the Hamming distance between two hashes
func hammingDistance(hash1, hash2 uint64) int {
	xor := hash1 ^ hash2
	count := 0
	for xor != 0 {
		count++
		xor &= xor - 1
	}
	return count
}
