package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/quire/internal/apperr"
)

// Kind classifies a content entry.
type Kind int

const (
	KindDirectory Kind = iota
	KindConvertible
	KindPassthrough
)

func (k Kind) String() string {
	switch k {
	case KindConvertible:
		return "convertible"
	case KindPassthrough:
		return "passthrough"
	default:
		return "directory"
	}
}

// Entry is one path of the input tree with its mirrored output path.
type Entry struct {
	Source string // relative to the input root
	Dest   string // relative to the output root
	Kind   Kind
}

// MarkdownExts lists the extensions converted to HTML.
var MarkdownExts = []string{".md", ".markdown"}

// IsMarkdown reports whether name has a Markdown extension.
func IsMarkdown(name string) bool {
	ext := filepath.Ext(name)
	for _, e := range MarkdownExts {
		if ext == e {
			return true
		}
	}
	return false
}

// DestPath maps a source path to its output path.
func DestPath(src string) string {
	if IsMarkdown(src) {
		return strings.TrimSuffix(src, filepath.Ext(src)) + ".html"
	}
	return src
}

// Scan walks root in lexical order and classifies every entry below it.
// Directories always precede their contents.
func Scan(root string) ([]Entry, error) {
	info, err := os.Stat(root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("storage: scan %s: %w", root, apperr.ErrInputMissing)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: scan: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: scan %s: not a directory: %w", root, apperr.ErrInputMissing)
	}

	var out []Entry
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if p == root {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		switch {
		case d.IsDir():
			out = append(out, Entry{Source: rel, Dest: rel, Kind: KindDirectory})
		case IsMarkdown(rel):
			out = append(out, Entry{Source: rel, Dest: DestPath(rel), Kind: KindConvertible})
		default:
			out = append(out, Entry{Source: rel, Dest: rel, Kind: KindPassthrough})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: scan: %w", err)
	}
	return out, nil
}

// Mirror scans root, creates every directory in out and copies every
// passthrough file. The returned entries include the convertible ones,
// which are left to the caller.
func Mirror(root string, out Output) ([]Entry, error) {
	entries, err := Scan(root)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		switch e.Kind {
		case KindDirectory:
			err = out.Mkdir(e.Dest)
		case KindPassthrough:
			err = out.CopyFile(filepath.Join(root, e.Source), e.Dest)
		}
		if err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// CopyTree copies root over out, overwriting existing files. A missing root
// is not an error. It returns every relative path written.
func CopyTree(root string, out Output) ([]string, error) {
	if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	entries, err := Scan(root)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Kind == KindDirectory {
			err = out.Mkdir(e.Source)
		} else {
			err = out.CopyFile(filepath.Join(root, e.Source), e.Source)
		}
		if err != nil {
			return nil, err
		}
		paths = append(paths, e.Source)
	}
	return paths, nil
}
