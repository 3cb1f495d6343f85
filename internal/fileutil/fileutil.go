// Package fileutil moves files safely across directories and
// filesystems.
package fileutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// Move moves a file into destDir and returns the path it ended up at.
// If a file with the same name exists, it appends a counter (e.g., file_1.jpg).
func Move(src, destDir string) (string, error) {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", err
	}

	filename := filepath.Base(src)
	destName := findUniqueName(filename, func(name string) bool {
		_, err := os.Stat(filepath.Join(destDir, name))
		return os.IsNotExist(err)
	})

	dest := filepath.Join(destDir, destName)
	if err := moveAcrossFS(src, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// findUniqueName finds a unique filename by appending a counter if needed.
// isAvailable should return true if the name can be used.
func findUniqueName(filename string, isAvailable func(string) bool) string {
	if isAvailable(filename) {
		return filename
	}

	ext := filepath.Ext(filename)
	name := strings.TrimSuffix(filename, ext)
	for counter := 1; ; counter++ {
		candidate := fmt.Sprintf("%s_%d%s", name, counter, ext)
		if isAvailable(candidate) {
			return candidate
		}
	}
}

// moveAcrossFS moves a file, falling back to copy+delete for cross-filesystem moves.
func moveAcrossFS(src, dest string) error {
	err := os.Rename(src, dest)
	if err == nil {
		return nil
	}

	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		if errors.Is(linkErr.Err, syscall.EXDEV) {
			// Cross-filesystem: copy then delete
			if err := copyFile(src, dest); err != nil {
				return err
			}
			return os.Remove(src)
		}
	}

	return err
}

// copyFile copies a file from src to dest.
func copyFile(src, dest string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return err
	}

	destFile, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, srcInfo.Mode())
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, srcFile); err != nil {
		os.Remove(dest) // Clean up on failure
		return err
	}

	return nil
}
