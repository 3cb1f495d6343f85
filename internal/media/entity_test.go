package media

import (
	"testing"
	"time"
)

func TestNewEntityRanksFiles(t *testing.T) {
	canonical := NewFileReference("/takeout/Photos from 2020/a.jpg")
	album := NewFileReference("/takeout/My Album/a.jpg")
	copy1 := NewFileReference("/takeout/My Album/a(1).jpg")

	e := NewEntity(album, copy1, canonical)

	if got := e.Primary().SourcePath(); got != canonical.SourcePath() {
		t.Errorf("primary = %q, want canonical copy %q", got, canonical.SourcePath())
	}
	if len(e.Secondaries()) != 1 || e.Secondaries()[0].SourcePath() != album.SourcePath() {
		t.Errorf("secondaries = %v, want the album copy", e.Secondaries())
	}
	if len(e.Duplicates()) != 1 || e.Duplicates()[0].SourcePath() != copy1.SourcePath() {
		t.Errorf("duplicates = %v, want the numbered copy", e.Duplicates())
	}
}

func TestEntityRanksAreSequential(t *testing.T) {
	e := NewEntity(
		NewFileReference("/x/b/longer-name.jpg"),
		NewFileReference("/x/a/img.jpg"),
		NewFileReference("/x/c/img.jpg"),
		NewFileReference("/x/a/img(1).jpg"),
	)

	files := e.Files()
	for i, f := range files {
		if f.Rank() != i+1 {
			t.Errorf("file %d has rank %d, want %d", i, f.Rank(), i+1)
		}
	}
	if files[0].Rank() != 1 {
		t.Errorf("first file rank = %d, want 1", files[0].Rank())
	}
}

func TestRankingIsOrderIndependent(t *testing.T) {
	paths := []string{
		"/takeout/2019/IMG_001.jpg",
		"/takeout/Trip/IMG_001.jpg",
		"/takeout/Trip/IMG_001(1).jpg",
		"/takeout/Other/img.jpg",
	}

	base := make([]FileReference, len(paths))
	for i, p := range paths {
		base[i] = NewFileReference(p)
	}
	want := NewEntity(base...)

	// Rotate the input and check the ranking never changes.
	for shift := 1; shift < len(base); shift++ {
		rotated := append(append([]FileReference{}, base[shift:]...), base[:shift]...)
		got := NewEntity(rotated...)
		if got.Identity() != want.Identity() {
			t.Errorf("rotation %d: primary %v, want %v", shift, got.Identity(), want.Identity())
		}
		gotFiles, wantFiles := got.Files(), want.Files()
		for i := range wantFiles {
			if gotFiles[i].SourcePath() != wantFiles[i].SourcePath() {
				t.Errorf("rotation %d: rank %d is %q, want %q",
					shift, i+1, gotFiles[i].SourcePath(), wantFiles[i].SourcePath())
			}
		}
	}
}

func TestShorterNameWinsWithinDirectory(t *testing.T) {
	short := NewFileReference("/album/img.jpg")
	numbered := NewFileReference("/album/img(1).jpg")

	e := NewEntity(numbered, short)

	if e.Primary().SourcePath() != short.SourcePath() {
		t.Errorf("primary = %q, want shorter name %q", e.Primary().SourcePath(), short.SourcePath())
	}
	if len(e.Secondaries()) != 0 {
		t.Errorf("same-directory copy should be a duplicate, got secondaries %v", e.Secondaries())
	}
	if len(e.Duplicates()) != 1 {
		t.Fatalf("expected one duplicate, got %d", len(e.Duplicates()))
	}
}

func TestNewEntityCollapsesSameIdentity(t *testing.T) {
	f := NewFileReference("/a/img.jpg")
	e := NewEntity(f, f, f)
	if e.FileCount() != 1 {
		t.Errorf("FileCount = %d, want 1", e.FileCount())
	}
}

func TestNewEntityPanicsWithoutFiles(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewEntity() with no files should panic")
		}
	}()
	NewEntity()
}

func TestWithFileDoesNotMutateReceiver(t *testing.T) {
	e := NewEntity(NewFileReference("/a/img.jpg"))
	grown := e.WithFile(NewFileReference("/b/img.jpg"))

	if e.FileCount() != 1 {
		t.Errorf("receiver FileCount changed to %d", e.FileCount())
	}
	if grown.FileCount() != 2 {
		t.Errorf("new snapshot FileCount = %d, want 2", grown.FileCount())
	}
}

func TestPromote(t *testing.T) {
	primary := NewFileReference("/takeout/2020/a.jpg")
	album := NewFileReference("/takeout/Album/a.jpg")
	e := NewEntity(primary, album)

	promoted := e.Promote(album.Identity())
	if promoted.Primary().Identity() != album.Identity() {
		t.Errorf("promoted primary = %v, want %v", promoted.Primary().Identity(), album.Identity())
	}
	if promoted.Primary().Rank() != 1 {
		t.Errorf("promoted primary rank = %d, want 1", promoted.Primary().Rank())
	}

	// The original snapshot keeps its ordering.
	if e.Primary().Identity() != primary.Identity() {
		t.Error("Promote mutated the receiver")
	}

	// Promoting an unknown identity is a no-op.
	same := e.Promote(FileIdentity{SourcePath: "/nope.jpg"})
	if same.Primary().Identity() != e.Primary().Identity() {
		t.Error("promoting an unowned identity should return the entity unchanged")
	}
}

func TestMergeUnionsFiles(t *testing.T) {
	shared := NewFileReference("/takeout/Album/a.jpg")
	a := NewEntity(NewFileReference("/takeout/2020/a.jpg"), shared)
	b := NewEntity(shared, NewFileReference("/takeout/Other/a.jpg"))

	merged := a.Merge(b)
	if merged.FileCount() != 3 {
		t.Errorf("merged FileCount = %d, want 3", merged.FileCount())
	}
	if a.FileCount() != 2 || b.FileCount() != 2 {
		t.Error("Merge mutated an input entity")
	}
}

func TestMergeFileSetIsSymmetric(t *testing.T) {
	a := NewEntity(NewFileReference("/x/2019/img.jpg"), NewFileReference("/x/Album/img.jpg"))
	b := NewEntity(NewFileReference("/y/Pics/img.jpg"))

	ab := a.Merge(b)
	ba := b.Merge(a)

	if ab.Identity() != ba.Identity() {
		t.Errorf("merge primaries differ: %v vs %v", ab.Identity(), ba.Identity())
	}
	if ab.FileCount() != ba.FileCount() {
		t.Errorf("merge file counts differ: %d vs %d", ab.FileCount(), ba.FileCount())
	}
}

func TestMergeDateRules(t *testing.T) {
	early := time.Date(2019, 6, 1, 12, 0, 0, 0, time.UTC)
	late := time.Date(2021, 3, 15, 9, 30, 0, 0, time.UTC)

	newDated := func(path string, taken time.Time, accuracy int, method string) Entity {
		e := NewEntity(NewFileReference(path))
		if accuracy != 0 || !taken.IsZero() || method != "" {
			e = e.WithDate(taken, accuracy, method)
		}
		return e
	}

	tests := []struct {
		name         string
		receiver     Entity
		other        Entity
		wantTaken    time.Time
		wantAccuracy int
		wantMethod   string
	}{
		{
			name:         "lower accuracy wins",
			receiver:     newDated("/a/1.jpg", late, 2, "exif"),
			other:        newDated("/b/1.jpg", early, 1, "sidecar"),
			wantTaken:    early,
			wantAccuracy: 1,
			wantMethod:   "sidecar",
		},
		{
			name:         "receiver keeps better accuracy",
			receiver:     newDated("/a/1.jpg", early, 1, "sidecar"),
			other:        newDated("/b/1.jpg", late, 2, "exif"),
			wantTaken:    early,
			wantAccuracy: 1,
			wantMethod:   "sidecar",
		},
		{
			name:         "recorded accuracy beats none",
			receiver:     newDated("/a/1.jpg", late, 0, ""),
			other:        newDated("/b/1.jpg", early, 3, "filename"),
			wantTaken:    early,
			wantAccuracy: 3,
			wantMethod:   "filename",
		},
		{
			name:         "equal accuracy keeps receiver",
			receiver:     newDated("/a/1.jpg", late, 2, "exif"),
			other:        newDated("/b/1.jpg", early, 2, "exif"),
			wantTaken:    late,
			wantAccuracy: 2,
			wantMethod:   "exif",
		},
		{
			name:         "no accuracy anywhere fills gaps from other",
			receiver:     newDated("/a/1.jpg", time.Time{}, 0, ""),
			other:        newDated("/b/1.jpg", early, 0, "guess"),
			wantTaken:    early,
			wantAccuracy: 0,
			wantMethod:   "guess",
		},
		{
			name:         "no accuracy anywhere keeps receiver fields",
			receiver:     newDated("/a/1.jpg", late, 0, "guess"),
			other:        newDated("/b/1.jpg", early, 0, "other"),
			wantTaken:    late,
			wantAccuracy: 0,
			wantMethod:   "guess",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.receiver.Merge(tt.other)
			if !got.DateTaken().Equal(tt.wantTaken) {
				t.Errorf("DateTaken = %v, want %v", got.DateTaken(), tt.wantTaken)
			}
			if got.DateAccuracy() != tt.wantAccuracy {
				t.Errorf("DateAccuracy = %d, want %d", got.DateAccuracy(), tt.wantAccuracy)
			}
			if got.ExtractionMethod() != tt.wantMethod {
				t.Errorf("ExtractionMethod = %q, want %q", got.ExtractionMethod(), tt.wantMethod)
			}
		})
	}
}

func TestMergePartnerSharedIsSticky(t *testing.T) {
	a := NewEntity(NewFileReference("/a/1.jpg")).WithPartnerShared(true)
	b := NewEntity(NewFileReference("/b/1.jpg"))

	if !a.Merge(b).PartnerShared() {
		t.Error("merge lost the partner sharing flag from the receiver")
	}
	if !b.Merge(a).PartnerShared() {
		t.Error("merge lost the partner sharing flag from the other side")
	}
}

func TestMergeCombinesAlbums(t *testing.T) {
	a := NewEntity(NewFileReference("/a/1.jpg")).
		WithAlbum(NewAlbumInfo("Trip", "/takeout/Trip"))
	b := NewEntity(NewFileReference("/b/1.jpg")).
		WithAlbum(NewAlbumInfo("Trip", "/other/Trip")).
		WithAlbum(NewAlbumInfo("Family", "/takeout/Family"))

	merged := a.Merge(b)
	albums := merged.Albums()
	if len(albums) != 2 {
		t.Fatalf("album count = %d, want 2", len(albums))
	}

	trip, ok := merged.Album("Trip")
	if !ok {
		t.Fatal("merged entity lost the Trip album")
	}
	dirs := trip.SourceDirs()
	if len(dirs) != 2 || dirs[0] != "/other/Trip" || dirs[1] != "/takeout/Trip" {
		t.Errorf("Trip source dirs = %v, want both inputs", dirs)
	}

	if _, ok := a.Album("Family"); ok {
		t.Error("Merge mutated the receiver's albums")
	}
}

func TestWithAlbumMergesSameName(t *testing.T) {
	e := NewEntity(NewFileReference("/a/1.jpg")).
		WithAlbum(NewAlbumInfo("Trip", "/x")).
		WithAlbum(NewAlbumInfo("Trip", "/y"))

	album, ok := e.Album("Trip")
	if !ok {
		t.Fatal("album not found")
	}
	if got := album.SourceDirs(); len(got) != 2 {
		t.Errorf("source dirs = %v, want 2 entries", got)
	}
}

func TestMergeAdoptsOtherPrimary(t *testing.T) {
	// When the other side holds the better copy the merged identity
	// follows it.
	a := NewEntity(NewFileReference("/x/Album/photo.jpg"))
	b := NewEntity(NewFileReference("/x/2020/photo.jpg"))

	merged := a.Merge(b)
	if merged.Identity() != b.Identity() {
		t.Errorf("merged identity = %v, want the canonical side %v", merged.Identity(), b.Identity())
	}
}
