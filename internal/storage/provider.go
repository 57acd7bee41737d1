// Package storage classifies the content tree and manages the output tree.
package storage

// Output is the write side of a build: everything the pipeline does to the
// output directory goes through it.
type Output interface {
	// Root returns the absolute output directory.
	Root() string
	// Mkdir creates path (relative to root) and any missing parents.
	Mkdir(path string) error
	// CopyFile copies the file at src to path (relative to root).
	CopyFile(src, path string) error
	// Write atomically writes content to path (relative to root).
	Write(path string, content []byte) error
	// Read returns the bytes at path (relative to root).
	Read(path string) ([]byte, error)
	// Prune removes everything under dir not accepted by keep.
	Prune(dir string, keep *Keep) ([]string, error)
}

var _ Output = (*FS)(nil)
