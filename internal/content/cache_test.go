package content

import (
	"sync"
	"testing"
)

func TestCacheStoreAndLookup(t *testing.T) {
	cache := NewCache()

	cache.StoreSize("/a.jpg", 100)
	cache.StoreFingerprint("/a.jpg", "fp1")
	cache.StoreHash("/a.jpg", "hash1")

	sig, ok := cache.Lookup("/a.jpg")
	if !ok {
		t.Fatal("Lookup missed a stored path")
	}
	if sig.Size != 100 || sig.Fingerprint != "fp1" || sig.Hash != "hash1" {
		t.Errorf("Lookup = %+v, want size 100, fp1, hash1", sig)
	}

	if _, ok := cache.Lookup("/missing.jpg"); ok {
		t.Error("Lookup should miss an unknown path")
	}
}

func TestCacheSizeChangeInvalidates(t *testing.T) {
	cache := NewCache()
	cache.Seed("/a.jpg", Signature{Size: 100, Fingerprint: "fp1", Hash: "hash1"})

	cache.StoreSize("/a.jpg", 200)

	sig, _ := cache.Lookup("/a.jpg")
	if sig.Size != 200 {
		t.Errorf("Size = %d, want 200", sig.Size)
	}
	if sig.Fingerprint != "" || sig.Hash != "" {
		t.Errorf("size change should drop fingerprint and hash, got %+v", sig)
	}
}

func TestCacheSameSizeKeepsSignature(t *testing.T) {
	cache := NewCache()
	cache.Seed("/a.jpg", Signature{Size: 100, Fingerprint: "fp1", Hash: "hash1"})

	cache.StoreSize("/a.jpg", 100)

	sig, _ := cache.Lookup("/a.jpg")
	if sig.Fingerprint != "fp1" || sig.Hash != "hash1" {
		t.Errorf("unchanged size should keep the signature, got %+v", sig)
	}
}

func TestCacheSnapshotIsACopy(t *testing.T) {
	cache := NewCache()
	cache.StoreSize("/a.jpg", 100)

	snap := cache.Snapshot()
	snap["/a.jpg"] = Signature{Size: 999}

	sig, _ := cache.Lookup("/a.jpg")
	if sig.Size != 100 {
		t.Error("mutating the snapshot should not affect the cache")
	}
	if cache.Len() != 1 {
		t.Errorf("Len = %d, want 1", cache.Len())
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	cache := NewCache()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			path := string(rune('a'+n)) + ".jpg"
			cache.StoreSize(path, int64(n))
			cache.StoreFingerprint(path, "fp")
			cache.Lookup(path)
		}(i)
	}
	wg.Wait()

	if cache.Len() != 8 {
		t.Errorf("Len = %d, want 8", cache.Len())
	}
}
