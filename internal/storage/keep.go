package storage

import "path/filepath"

// Keep decides which output paths survive a Prune. Paths are matched by
// their full path relative to the output root. Trees are kept together
// with everything below them. A path known to be only a directory, or only
// a file, is pruned when the output holds the other kind.
type Keep struct {
	paths map[string]struct{}
	trees map[string]struct{}
	dirs  map[string]struct{}
	files map[string]struct{}
}

// NewKeep returns an empty Keep.
func NewKeep() *Keep {
	return &Keep{
		paths: map[string]struct{}{},
		trees: map[string]struct{}{},
		dirs:  map[string]struct{}{},
		files: map[string]struct{}{},
	}
}

// Add keeps each path and all of its parent directories.
func (k *Keep) Add(paths ...string) *Keep {
	for _, p := range paths {
		p = filepath.Clean(p)
		k.addParents(p)
		if p != "." {
			k.paths[p] = struct{}{}
		}
	}
	return k
}

// AddFiles keeps each path as a regular file.
func (k *Keep) AddFiles(paths ...string) *Keep {
	for _, p := range paths {
		k.Add(p)
		k.files[filepath.Clean(p)] = struct{}{}
	}
	return k
}

// AddTree keeps dir and its whole subtree.
func (k *Keep) AddTree(dir string) *Keep {
	k.Add(dir)
	dir = filepath.Clean(dir)
	k.dirs[dir] = struct{}{}
	k.trees[dir] = struct{}{}
	return k
}

// AddEntries keeps the destination of every entry with the entry's kind.
func (k *Keep) AddEntries(entries []Entry) *Keep {
	for _, e := range entries {
		k.Add(e.Dest)
		dest := filepath.Clean(e.Dest)
		if e.Kind == KindDirectory {
			k.dirs[dest] = struct{}{}
		} else {
			k.files[dest] = struct{}{}
		}
	}
	return k
}

// Has reports whether rel is kept.
func (k *Keep) Has(rel string) bool {
	_, ok := k.paths[filepath.Clean(rel)]
	return ok
}

// fits reports whether a kept path may stay given whether it is a
// directory on disk.
func (k *Keep) fits(rel string, isDir bool) bool {
	rel = filepath.Clean(rel)
	_, dir := k.dirs[rel]
	_, file := k.files[rel]
	switch {
	case dir && !file:
		return isDir
	case file && !dir:
		return !isDir
	default:
		return true
	}
}

func (k *Keep) addParents(p string) {
	for p = filepath.Dir(p); p != "." && p != string(filepath.Separator); p = filepath.Dir(p) {
		k.paths[p] = struct{}{}
		k.dirs[p] = struct{}{}
	}
}

func (k *Keep) isTree(rel string) bool {
	_, ok := k.trees[filepath.Clean(rel)]
	return ok
}
