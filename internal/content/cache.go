package content

import "sync"

// Signature holds what is known about a file's contents. Fingerprint and
// Hash are empty until computed.
type Signature struct {
	Size        int64
	Fingerprint string
	Hash        string
}

// Cache remembers file signatures across runs keyed by path. It is safe
// for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Signature
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]Signature)}
}

// Lookup returns the signature recorded for path.
func (c *Cache) Lookup(path string) (Signature, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sig, ok := c.entries[path]
	return sig, ok
}

// StoreSize records the file's current size. A size change invalidates
// any fingerprint and hash recorded for the old contents.
func (c *Cache) StoreSize(path string, size int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sig := c.entries[path]
	if sig.Size != size {
		sig = Signature{Size: size}
	}
	c.entries[path] = sig
}

// StoreFingerprint records a computed fingerprint.
func (c *Cache) StoreFingerprint(path, fingerprint string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sig := c.entries[path]
	sig.Fingerprint = fingerprint
	c.entries[path] = sig
}

// StoreHash records a computed full-content hash.
func (c *Cache) StoreHash(path, hash string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sig := c.entries[path]
	sig.Hash = hash
	c.entries[path] = sig
}

// Seed inserts a signature loaded from persistent storage.
func (c *Cache) Seed(path string, sig Signature) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[path] = sig
}

// Snapshot returns a copy of every entry, for persistence.
func (c *Cache) Snapshot() map[string]Signature {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]Signature, len(c.entries))
	for path, sig := range c.entries {
		out[path] = sig
	}
	return out
}

// Len returns the number of cached signatures.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
