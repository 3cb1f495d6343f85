package media

import (
	"sort"
	"time"
)

// Entity is an immutable snapshot of one logical media item and every
// file that holds a copy of it. Transforms return a new snapshot with
// the file set deduplicated and reranked; the receiver is never changed.
type Entity struct {
	primary       FileReference
	secondaries   []FileReference
	duplicates    []FileReference
	dateTaken     time.Time
	dateAccuracy  int
	dateMethod    string
	partnerShared bool
	albums        map[string]AlbumInfo
}

// NewEntity creates an entity owning the given files. Files sharing an
// identity are collapsed to one. Panics when no files are given; an
// entity without files has no identity.
func NewEntity(files ...FileReference) Entity {
	return build(files, Entity{})
}

// build constructs a snapshot from files while carrying base's metadata.
func build(files []FileReference, base Entity) Entity {
	primary, secondaries, duplicates := rankFiles(dedupeFiles(files))
	e := base
	e.primary = primary
	e.secondaries = secondaries
	e.duplicates = duplicates
	return e
}

// Primary returns the entity's best file, rank 1.
func (e Entity) Primary() FileReference { return e.primary }

// Secondaries returns the files kept because they are the best copy in a
// directory the primary does not live in.
func (e Entity) Secondaries() []FileReference {
	out := make([]FileReference, len(e.secondaries))
	copy(out, e.secondaries)
	return out
}

// Duplicates returns the files that are neither the primary nor a
// secondary. These are the removal candidates.
func (e Entity) Duplicates() []FileReference {
	out := make([]FileReference, len(e.duplicates))
	copy(out, e.duplicates)
	return out
}

// Files returns every owned file in rank order.
func (e Entity) Files() []FileReference {
	out := e.ownedFiles()
	sort.Slice(out, func(i, j int) bool { return out[i].rank < out[j].rank })
	return out
}

func (e Entity) ownedFiles() []FileReference {
	out := make([]FileReference, 0, e.FileCount())
	out = append(out, e.primary)
	out = append(out, e.secondaries...)
	out = append(out, e.duplicates...)
	return out
}

// FileCount returns the number of owned files.
func (e Entity) FileCount() int { return 1 + len(e.secondaries) + len(e.duplicates) }

// Identity returns the primary file's identity. It changes whenever a
// transform produces a snapshot with a different primary.
func (e Entity) Identity() FileIdentity { return e.primary.Identity() }

// DateTaken returns the capture time, or the zero time when unknown.
func (e Entity) DateTaken() time.Time { return e.dateTaken }

// DateAccuracy returns the capture time's accuracy ordinal. Lower is
// better; 0 means no accuracy recorded.
func (e Entity) DateAccuracy() int { return e.dateAccuracy }

// ExtractionMethod names how the capture time was obtained.
func (e Entity) ExtractionMethod() string { return e.dateMethod }

// PartnerShared reports whether any copy arrived via partner sharing.
func (e Entity) PartnerShared() bool { return e.partnerShared }

// Albums returns the entity's album memberships sorted by name.
func (e Entity) Albums() []AlbumInfo {
	out := make([]AlbumInfo, 0, len(e.albums))
	for _, a := range e.albums {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Album returns the membership with the given name.
func (e Entity) Album(name string) (AlbumInfo, bool) {
	a, ok := e.albums[name]
	return a, ok
}

// WithFile returns a snapshot that also owns f. Adding a file the entity
// already owns returns an equivalent snapshot.
func (e Entity) WithFile(f FileReference) Entity {
	return build(append(e.ownedFiles(), f), e)
}

// Promote returns a snapshot in which the file with the given identity
// ranks first. The remaining files keep their usual order. Promoting an
// identity the entity does not own returns the entity unchanged.
func (e Entity) Promote(id FileIdentity) Entity {
	files := e.ownedFiles()
	found := false
	for i := range files {
		files[i].rank = 0
		if files[i].Identity() == id {
			files[i].rank = forcedRank
			found = true
		}
	}
	if !found {
		return e
	}
	return build(files, e)
}

// WithDate returns a snapshot carrying the given capture time, accuracy
// ordinal and extraction method.
func (e Entity) WithDate(taken time.Time, accuracy int, method string) Entity {
	e.dateTaken = taken
	e.dateAccuracy = accuracy
	e.dateMethod = method
	return e
}

// WithPartnerShared returns a snapshot with the partner sharing flag set.
func (e Entity) WithPartnerShared(shared bool) Entity {
	e.partnerShared = shared
	return e
}

// WithAlbum returns a snapshot that also belongs to the given album.
// When a membership with the same name exists, the source directories
// are combined.
func (e Entity) WithAlbum(album AlbumInfo) Entity {
	albums := make(map[string]AlbumInfo, len(e.albums)+1)
	for name, a := range e.albums {
		albums[name] = a
	}
	if existing, ok := albums[album.name]; ok {
		albums[album.name] = existing.merge(album)
	} else {
		albums[album.name] = album
	}
	e.albums = albums
	return e
}

// Merge returns a snapshot owning the union of both entities' files.
// Albums are combined by name, partner sharing is sticky, and the better
// capture time wins: a recorded accuracy beats none, and a lower ordinal
// beats a higher one. On equal footing the receiver's metadata is kept.
func (e Entity) Merge(other Entity) Entity {
	merged := build(append(e.ownedFiles(), other.ownedFiles()...), e)

	switch {
	case other.dateAccuracy != 0 && (e.dateAccuracy == 0 || other.dateAccuracy < e.dateAccuracy):
		merged.dateTaken = other.dateTaken
		merged.dateAccuracy = other.dateAccuracy
		merged.dateMethod = other.dateMethod
	case e.dateAccuracy == 0 && other.dateAccuracy == 0:
		if merged.dateTaken.IsZero() {
			merged.dateTaken = other.dateTaken
		}
		if merged.dateMethod == "" {
			merged.dateMethod = other.dateMethod
		}
	}

	merged.partnerShared = e.partnerShared || other.partnerShared
	merged.albums = mergeAlbums(e.albums, other.albums)
	return merged
}

func mergeAlbums(a, b map[string]AlbumInfo) map[string]AlbumInfo {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	merged := make(map[string]AlbumInfo, len(a)+len(b))
	for name, album := range a {
		merged[name] = album
	}
	for name, album := range b {
		if existing, ok := merged[name]; ok {
			merged[name] = existing.merge(album)
			continue
		}
		merged[name] = album
	}
	return merged
}
