package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMove(t *testing.T) {
	srcDir := t.TempDir()
	destDir := filepath.Join(t.TempDir(), "quarantine")

	src := filepath.Join(srcDir, "photo.jpg")
	if err := os.WriteFile(src, []byte("content"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	dest, err := Move(src, destDir)
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if dest != filepath.Join(destDir, "photo.jpg") {
		t.Errorf("dest = %q, want %q", dest, filepath.Join(destDir, "photo.jpg"))
	}

	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("source file should be gone after the move")
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("failed to read moved file: %v", err)
	}
	if string(data) != "content" {
		t.Errorf("moved file contents = %q, want %q", data, "content")
	}
}

func TestMoveAvoidsNameCollisions(t *testing.T) {
	srcDir := t.TempDir()
	destDir := t.TempDir()

	if err := os.WriteFile(filepath.Join(destDir, "photo.jpg"), []byte("existing"), 0644); err != nil {
		t.Fatalf("failed to write existing file: %v", err)
	}
	src := filepath.Join(srcDir, "photo.jpg")
	if err := os.WriteFile(src, []byte("incoming"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	dest, err := Move(src, destDir)
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if dest != filepath.Join(destDir, "photo_1.jpg") {
		t.Errorf("dest = %q, want the counter suffix", dest)
	}

	existing, err := os.ReadFile(filepath.Join(destDir, "photo.jpg"))
	if err != nil {
		t.Fatalf("failed to read existing file: %v", err)
	}
	if string(existing) != "existing" {
		t.Error("Move overwrote an existing file")
	}
}

func TestMoveMissingSource(t *testing.T) {
	if _, err := Move(filepath.Join(t.TempDir(), "missing.jpg"), t.TempDir()); err == nil {
		t.Error("Move should fail for a missing source")
	}
}

func TestFindUniqueName(t *testing.T) {
	taken := map[string]bool{
		"photo.jpg":   true,
		"photo_1.jpg": true,
	}
	isAvailable := func(name string) bool { return !taken[name] }

	if got := findUniqueName("photo.jpg", isAvailable); got != "photo_2.jpg" {
		t.Errorf("findUniqueName = %q, want %q", got, "photo_2.jpg")
	}
	if got := findUniqueName("free.jpg", isAvailable); got != "free.jpg" {
		t.Errorf("findUniqueName = %q, want %q", got, "free.jpg")
	}
}

func TestCopyFilePreservesMode(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.jpg")
	if err := os.WriteFile(src, []byte("data"), 0600); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	dest := filepath.Join(dir, "dest.jpg")
	if err := copyFile(src, dest); err != nil {
		t.Fatalf("copyFile failed: %v", err)
	}

	info, err := os.Stat(dest)
	if err != nil {
		t.Fatalf("failed to stat copy: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("copy mode = %v, want 0600", info.Mode().Perm())
	}
}
