package similar

import "testing"

func TestBKTreeEmpty(t *testing.T) {
	tree := newBKTree(hammingDistance)

	results := tree.findWithinDistance(0, 10)
	if len(results) != 0 {
		t.Errorf("expected empty results for empty tree, got %d", len(results))
	}

	if tree.size() != 0 {
		t.Errorf("expected size 0, got %d", tree.size())
	}
}

func TestBKTreeSingleElement(t *testing.T) {
	tree := newBKTree(hammingDistance)
	tree.insert(0b1111, 0)

	// Exact match
	results := tree.findWithinDistance(0b1111, 0)
	if len(results) != 1 || results[0] != 0 {
		t.Errorf("expected [0], got %v", results)
	}

	// Within threshold
	results = tree.findWithinDistance(0b1110, 1) // distance 1
	if len(results) != 1 || results[0] != 0 {
		t.Errorf("expected [0], got %v", results)
	}

	// Outside threshold
	results = tree.findWithinDistance(0b0000, 3) // distance 4
	if len(results) != 0 {
		t.Errorf("expected [], got %v", results)
	}
}

func TestBKTreeMultipleElements(t *testing.T) {
	tree := newBKTree(hammingDistance)

	hashes := []uint64{
		0b0000, // index 0
		0b0001, // index 1, distance 1 from 0
		0b0011, // index 2, distance 2 from 0, distance 1 from 1
		0b1111, // index 3, distance 4 from 0
		0b0000, // index 4, distance 0 from 0 (duplicate hash)
	}
	for i, h := range hashes {
		tree.insert(h, i)
	}

	if tree.size() != 5 {
		t.Errorf("expected size 5, got %d", tree.size())
	}

	results := tree.findWithinDistance(0b0000, 1)
	wantSet := map[int]bool{0: true, 1: true, 4: true}
	if len(results) != len(wantSet) {
		t.Fatalf("expected %d results, got %v", len(wantSet), results)
	}
	for _, idx := range results {
		if !wantSet[idx] {
			t.Errorf("unexpected index %d in results", idx)
		}
	}
}

func TestHammingDistance(t *testing.T) {
	tests := []struct {
		a, b uint64
		want int
	}{
		{0, 0, 0},
		{0b1111, 0b1111, 0},
		{0b1111, 0b0000, 4},
		{0b1010, 0b0101, 4},
		{0xFFFFFFFFFFFFFFFF, 0, 64},
	}
	for _, tt := range tests {
		if got := hammingDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("hammingDistance(%b, %b) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestUnionFind(t *testing.T) {
	uf := newUnionFind(5)

	uf.union(0, 1)
	uf.union(1, 2)
	uf.union(3, 4)

	if uf.find(0) != uf.find(2) {
		t.Error("0 and 2 should share a root after chained unions")
	}
	if uf.find(3) != uf.find(4) {
		t.Error("3 and 4 should share a root")
	}
	if uf.find(0) == uf.find(3) {
		t.Error("separate groups should have distinct roots")
	}
}
