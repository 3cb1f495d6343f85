// Package content reads file contents for duplicate detection: sizes,
// windowed fingerprints and full-content hashes, plus a cache that
// remembers them between runs.
package content

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// Provider supplies file sizes and full-content hashes. Implementations
// must be safe for concurrent use.
type Provider interface {
	Size(path string) (int64, error)
	Hash(path string) (string, error)
}

// Supported hash algorithms.
const (
	AlgorithmSHA256 = "sha256"
	AlgorithmBLAKE3 = "blake3"
)

// FSProvider reads sizes and hashes from the local filesystem.
type FSProvider struct {
	algorithm string
}

// NewFSProvider creates a provider hashing with the given algorithm.
func NewFSProvider(algorithm string) (*FSProvider, error) {
	switch algorithm {
	case AlgorithmSHA256, AlgorithmBLAKE3:
		return &FSProvider{algorithm: algorithm}, nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm: %q", algorithm)
	}
}

// Algorithm returns the provider's hash algorithm name.
func (p *FSProvider) Algorithm() string { return p.algorithm }

// Size returns the file's size in bytes.
func (p *FSProvider) Size(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("failed to stat file: %w", err)
	}
	return info.Size(), nil
}

// Hash returns the hex-encoded digest of the file's full contents.
func (p *FSProvider) Hash(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	hasher := p.newHasher()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func (p *FSProvider) newHasher() hash.Hash {
	if p.algorithm == AlgorithmBLAKE3 {
		return blake3.New()
	}
	return sha256.New()
}
