// Package match finds entities whose primary files hold identical bytes
// and merges each confirmed group into a single surviving entity.
package match

import (
	"path/filepath"
	"strconv"
	"strings"

	"mediamerge/internal/media"
)

// KeyKind names the grouping phase that produced a key.
type KeyKind int

const (
	KindSize KeyKind = iota
	KindExtension
	KindFingerprint
	KindHash
	KindUnreadable
)

func (k KeyKind) String() string {
	switch k {
	case KindSize:
		return "size"
	case KindExtension:
		return "extension"
	case KindFingerprint:
		return "fingerprint"
	case KindHash:
		return "hash"
	case KindUnreadable:
		return "unreadable"
	default:
		return "unknown"
	}
}

// Key identifies a group. Value carries the full lineage of the phases
// that formed it, so a hash computed under one extension can never
// collide with the same hash under another.
type Key struct {
	Kind  KeyKind
	Value string
}

func sizeKey(size int64) string {
	return strconv.FormatInt(size, 10)
}

func extensionKey(parent, path string) string {
	return parent + "/" + strings.ToLower(filepath.Ext(path))
}

func digestKey(parent, digest string) string {
	return parent + "/" + digest
}

func unreadableKey(path string) string {
	return "unreadable/" + path
}

// Group is a set of entities the engine has placed together. Only hash
// groups with at least two members are confirmed duplicates; unreadable
// singletons are reported so the caller can surface them.
type Group struct {
	Key     Key
	Size    int64
	Members []media.FileIdentity
}

// Confirmed reports whether the group's members are proven byte-identical.
func (g Group) Confirmed() bool {
	return g.Key.Kind == KindHash && len(g.Members) >= 2
}
