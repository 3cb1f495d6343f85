package media

import "sort"

// AlbumInfo records a named album an entity belongs to and the source
// directories the membership was observed in.
type AlbumInfo struct {
	name       string
	sourceDirs map[string]bool
}

// NewAlbumInfo creates album metadata with the given name and source
// directories.
func NewAlbumInfo(name string, sourceDirs ...string) AlbumInfo {
	dirs := make(map[string]bool, len(sourceDirs))
	for _, dir := range sourceDirs {
		dirs[dir] = true
	}
	return AlbumInfo{name: name, sourceDirs: dirs}
}

// Name returns the album's name.
func (a AlbumInfo) Name() string { return a.name }

// SourceDirs returns the directories the album membership was seen in,
// sorted for stable output.
func (a AlbumInfo) SourceDirs() []string {
	dirs := make([]string, 0, len(a.sourceDirs))
	for dir := range a.sourceDirs {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}

// merge returns album info combining the source directories of both sides.
func (a AlbumInfo) merge(other AlbumInfo) AlbumInfo {
	dirs := make(map[string]bool, len(a.sourceDirs)+len(other.sourceDirs))
	for dir := range a.sourceDirs {
		dirs[dir] = true
	}
	for dir := range other.sourceDirs {
		dirs[dir] = true
	}
	return AlbumInfo{name: a.name, sourceDirs: dirs}
}
