// Package testutil provides shared test helpers for building site trees and
// index databases.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/quire/internal/index"
)

// Templates is a minimal template set with predictable output.
var Templates = map[string]string{
	"page.html":    `{{ site.title }}|PAGE|{{ title }}|{{ content|safe }}`,
	"article.html": `{{ site.title }}|ARTICLE|{{ title }}|{{ date|date:"2006-01-02" }}|{{ tags|join:"," }}|{{ content|safe }}`,
	"archive.html": `{% for e in archive %}{{ e.dst }};{% endfor %}`,
	"tags.html":    `{% for t in tags %}{{ t.name }}={{ t.count }};{% endfor %}`,
	"tag.html":     `{{ tag }}:{% for e in archive %}{{ e.dst }};{% endfor %}`,
}

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "quire-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// WriteTree writes files (relative path → content) below root.
func WriteTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for p, content := range files {
		full := filepath.Join(root, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

// SiteDirs lays out content, templates, static and output directories
// under a fresh temp dir and returns their paths in that order.
func SiteDirs(t *testing.T, content map[string]string) (input, templates, static, output string) {
	t.Helper()
	root := t.TempDir()
	input = filepath.Join(root, "content")
	templates = filepath.Join(root, "templates")
	static = filepath.Join(root, "static")
	output = filepath.Join(root, "build")
	if err := os.MkdirAll(input, 0o755); err != nil {
		t.Fatal(err)
	}
	WriteTree(t, input, content)
	WriteTree(t, templates, Templates)
	return input, templates, static, output
}

// ReadFile returns the content of root/rel or fails the test.
func ReadFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}
