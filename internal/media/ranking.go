package media

import (
	"sort"
	"strings"
)

// forcedRank marks a file that must win ranking regardless of the usual
// ordering rules. Promote assigns it before reranking.
const forcedRank = -1

// compareFiles orders two file references. Negative means a ranks before
// b. The order is total: ties fall through to the raw paths and the
// shortcut flag so that no two distinct references compare equal.
func compareFiles(a, b FileReference) int {
	if a.rank == forcedRank && b.rank != forcedRank {
		return -1
	}
	if b.rank == forcedRank && a.rank != forcedRank {
		return 1
	}
	if a.canonical != b.canonical {
		if a.canonical {
			return -1
		}
		return 1
	}
	if la, lb := len(a.Basename()), len(b.Basename()); la != lb {
		return la - lb
	}
	if la, lb := len(a.sourcePath), len(b.sourcePath); la != lb {
		return la - lb
	}
	if c := strings.Compare(strings.ToLower(a.sourcePath), strings.ToLower(b.sourcePath)); c != 0 {
		return c
	}
	if c := strings.Compare(a.sourcePath, b.sourcePath); c != 0 {
		return c
	}
	if c := strings.Compare(a.targetPath, b.targetPath); c != 0 {
		return c
	}
	if a.shortcut != b.shortcut {
		if b.shortcut {
			return -1
		}
		return 1
	}
	return 0
}

// dedupeFiles removes references sharing an identity, keeping the one
// that ranks best.
func dedupeFiles(files []FileReference) []FileReference {
	best := make(map[FileIdentity]FileReference, len(files))
	for _, f := range files {
		id := f.Identity()
		prev, ok := best[id]
		if !ok || compareFiles(f, prev) < 0 {
			best[id] = f
		}
	}
	unique := make([]FileReference, 0, len(best))
	for _, f := range best {
		unique = append(unique, f)
	}
	return unique
}

// rankFiles sorts the files, assigns ranks 1..N, and partitions them into
// the primary, the secondaries (first file seen in each directory the
// primary does not live in) and the duplicates (everything else).
func rankFiles(files []FileReference) (primary FileReference, secondaries, duplicates []FileReference) {
	if len(files) == 0 {
		panic("media: cannot rank an entity with no files")
	}

	sorted := make([]FileReference, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool {
		return compareFiles(sorted[i], sorted[j]) < 0
	})
	for i := range sorted {
		sorted[i].rank = i + 1
	}

	primary = sorted[0]
	bestInDir := map[string]bool{primary.Dir(): true}
	for _, f := range sorted[1:] {
		dir := f.Dir()
		if !bestInDir[dir] {
			bestInDir[dir] = true
			secondaries = append(secondaries, f)
			continue
		}
		duplicates = append(duplicates, f)
	}
	return primary, secondaries, duplicates
}
