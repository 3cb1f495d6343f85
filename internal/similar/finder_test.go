package similar

import (
	"os"
	"path/filepath"
	"testing"

	"mediamerge/internal/media"
)

// Minimal PNG (1x1 red pixel): signature + IHDR + IDAT + IEND.
var pngData = []byte{
	0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A,
	0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x02, 0x00, 0x00, 0x00, 0x90, 0x77, 0x53, 0xDE,
	0x00, 0x00, 0x00, 0x0C, 0x49, 0x44, 0x41, 0x54,
	0x08, 0xD7, 0x63, 0xF8, 0xFF, 0xFF, 0x3F, 0x00,
	0x05, 0xFE, 0x02, 0xFE, 0xDC, 0xCC, 0x59, 0xE7,
	0x00, 0x00, 0x00, 0x00, 0x49, 0x45, 0x4E, 0x44,
	0xAE, 0x42, 0x60, 0x82,
}

func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create test directory: %v", err)
	}
	if err := os.WriteFile(path, pngData, 0644); err != nil {
		t.Fatalf("failed to write test image: %v", err)
	}
	return path
}

func collectionOf(paths ...string) *media.Collection {
	col := media.NewCollection()
	for _, p := range paths {
		col.Add(media.NewEntity(media.NewFileReference(p)))
	}
	return col
}

func TestNewFinderDefaultsThreshold(t *testing.T) {
	f := NewFinder(-1)
	if f.Threshold() != DefaultThreshold {
		t.Errorf("Threshold = %d, want %d", f.Threshold(), DefaultThreshold)
	}
	f = NewFinder(5)
	if f.Threshold() != 5 {
		t.Errorf("Threshold = %d, want 5", f.Threshold())
	}
}

func TestFindClustersIdenticalImages(t *testing.T) {
	dir := t.TempDir()
	a := writePNG(t, dir, "a/img1.png")
	b := writePNG(t, dir, "b/img2.png")

	clusters := NewFinder(0).FindClusters(collectionOf(a, b))

	if len(clusters) != 1 {
		t.Fatalf("clusters = %d, want 1", len(clusters))
	}
	if len(clusters[0].Paths) != 2 {
		t.Errorf("cluster members = %d, want 2", len(clusters[0].Paths))
	}
}

func TestFindClustersSkipsUndecodable(t *testing.T) {
	dir := t.TempDir()
	a := writePNG(t, dir, "a/img1.png")
	b := writePNG(t, dir, "b/img2.png")
	broken := filepath.Join(dir, "broken.png")
	if err := os.WriteFile(broken, []byte("not a png"), 0644); err != nil {
		t.Fatalf("failed to write broken image: %v", err)
	}

	clusters := NewFinder(0).FindClusters(collectionOf(a, b, broken))

	if len(clusters) != 1 {
		t.Fatalf("clusters = %d, want 1", len(clusters))
	}
	for _, p := range clusters[0].Paths {
		if p == broken {
			t.Error("undecodable image should not appear in a cluster")
		}
	}
}

func TestFindClustersSkipsVideos(t *testing.T) {
	dir := t.TempDir()
	a := writePNG(t, dir, "a/img1.png")
	video := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(video, []byte("video bytes"), 0644); err != nil {
		t.Fatalf("failed to write video file: %v", err)
	}

	clusters := NewFinder(0).FindClusters(collectionOf(a, video))
	if clusters != nil {
		t.Errorf("one image and one video should produce no clusters, got %v", clusters)
	}
}

func TestFindClustersTooFewImages(t *testing.T) {
	dir := t.TempDir()
	a := writePNG(t, dir, "only.png")

	if clusters := NewFinder(0).FindClusters(collectionOf(a)); clusters != nil {
		t.Errorf("a single image should produce no clusters, got %v", clusters)
	}
	if clusters := NewFinder(0).FindClusters(media.NewCollection()); clusters != nil {
		t.Errorf("an empty collection should produce no clusters, got %v", clusters)
	}
}

func TestIsSupportedImage(t *testing.T) {
	if !isSupportedImage("/x/photo.JPG") {
		t.Error("jpg should be supported regardless of case")
	}
	if isSupportedImage("/x/clip.mp4") {
		t.Error("video containers are not decodable images")
	}
	if isSupportedImage("/x/raw.dng") {
		t.Error("raw formats are not decodable")
	}
}
