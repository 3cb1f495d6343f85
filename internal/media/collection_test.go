package media

import "testing"

func TestCollectionAdd(t *testing.T) {
	a := NewEntity(NewFileReference("/x/a.jpg"))
	b := NewEntity(NewFileReference("/x/b.jpg"))

	c := NewCollection()
	if !c.Add(a) {
		t.Fatal("adding a new entity should succeed")
	}
	if !c.Add(b) {
		t.Fatal("adding a second entity should succeed")
	}
	if c.Add(a) {
		t.Error("adding an entity with a taken identity should fail")
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}

func TestCollectionGet(t *testing.T) {
	a := NewEntity(NewFileReference("/x/a.jpg"))
	c := NewCollection(a)

	got, ok := c.Get(a.Identity())
	if !ok {
		t.Fatal("Get should find the entity")
	}
	if got.Identity() != a.Identity() {
		t.Errorf("Get returned %v, want %v", got.Identity(), a.Identity())
	}

	if _, ok := c.Get(FileIdentity{SourcePath: "/missing.jpg"}); ok {
		t.Error("Get should miss an absent identity")
	}
}

func TestCollectionReplaceKeepsPosition(t *testing.T) {
	a := NewEntity(NewFileReference("/x/a.jpg"))
	b := NewEntity(NewFileReference("/x/b.jpg"))
	c := NewCollection(a, b)

	grown := a.WithFile(NewFileReference("/y/a.jpg"))
	if !c.Replace(a.Identity(), grown) {
		t.Fatal("Replace failed")
	}
	if c.At(0).FileCount() != 2 {
		t.Error("replacement did not keep the entity's position")
	}
}

func TestCollectionReplaceRekeysChangedIdentity(t *testing.T) {
	a := NewEntity(NewFileReference("/x/Album/photo.jpg"))
	c := NewCollection(a)

	// Adding a canonical copy changes the primary and with it the identity.
	grown := a.WithFile(NewFileReference("/x/2020/photo.jpg"))
	if grown.Identity() == a.Identity() {
		t.Fatal("test setup: identity should have changed")
	}
	if !c.Replace(a.Identity(), grown) {
		t.Fatal("Replace failed")
	}

	if _, ok := c.Get(a.Identity()); ok {
		t.Error("old identity should no longer resolve")
	}
	if _, ok := c.Get(grown.Identity()); !ok {
		t.Error("new identity should resolve")
	}
}

func TestCollectionReplaceRejectsConflicts(t *testing.T) {
	a := NewEntity(NewFileReference("/x/a.jpg"))
	b := NewEntity(NewFileReference("/x/b.jpg"))
	c := NewCollection(a, b)

	if c.Replace(FileIdentity{SourcePath: "/missing.jpg"}, a) {
		t.Error("Replace should fail for an absent identity")
	}
	if c.Replace(a.Identity(), b) {
		t.Error("Replace should fail when the new identity belongs to another entity")
	}
}

func TestCollectionRemoveAll(t *testing.T) {
	a := NewEntity(NewFileReference("/x/a.jpg"))
	b := NewEntity(NewFileReference("/x/b.jpg"))
	d := NewEntity(NewFileReference("/x/d.jpg"))
	c := NewCollection(a, b, d)

	removed := c.RemoveAll(map[FileIdentity]bool{
		a.Identity(): true,
		d.Identity(): true,
		{SourcePath: "/missing.jpg"}: true,
	})
	if removed != 2 {
		t.Errorf("RemoveAll returned %d, want 2", removed)
	}
	if c.Len() != 1 {
		t.Fatalf("Len = %d, want 1", c.Len())
	}
	if c.At(0).Identity() != b.Identity() {
		t.Error("surviving entity should be b")
	}
	if _, ok := c.Get(b.Identity()); !ok {
		t.Error("index lost the surviving entity")
	}
}

func TestCollectionRemoveAllEmptySet(t *testing.T) {
	a := NewEntity(NewFileReference("/x/a.jpg"))
	c := NewCollection(a)
	if removed := c.RemoveAll(nil); removed != 0 {
		t.Errorf("RemoveAll(nil) = %d, want 0", removed)
	}
	if c.Len() != 1 {
		t.Error("RemoveAll(nil) should not change the collection")
	}
}

func TestNewCollectionDropsCollidingEntities(t *testing.T) {
	a := NewEntity(NewFileReference("/x/a.jpg"))
	dup := NewEntity(NewFileReference("/x/a.jpg"))
	c := NewCollection(a, dup)
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}
