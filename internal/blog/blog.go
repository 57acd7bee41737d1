// Package blog derives the archive and tag listings from articles.
package blog

import (
	"cmp"
	"path/filepath"
	"slices"
	"strings"

	"github.com/starford/quire/internal/checksum"
	"github.com/starford/quire/internal/models"
)

// Tag is one tag with its occurrence count and member articles.
type Tag struct {
	Name     string
	Count    int
	Articles []models.Document
}

// SortArticles orders articles by date, newest first. Equal dates keep
// their relative order.
func SortArticles(articles []models.Document) {
	slices.SortStableFunc(articles, func(a, b models.Document) int {
		return b.Date().Compare(a.Date())
	})
}

// Entry returns the template context of an article with dst set to its
// URL path.
func Entry(d models.Document) map[string]any {
	return models.WithDest(d.Context(), filepath.ToSlash(d.Dest))
}

// Archive returns one entry per article in the given order.
func Archive(articles []models.Document) []map[string]any {
	out := make([]map[string]any, 0, len(articles))
	for _, a := range articles {
		out = append(out, Entry(a))
	}
	return out
}

// Tags builds the tag index. Count is the number of occurrences, so an
// article listing a tag twice counts twice but is a member once. Tags are
// ordered by count descending, ties by first occurrence.
func Tags(articles []models.Document) []Tag {
	var tags []Tag
	pos := map[string]int{}
	for _, a := range articles {
		seen := map[string]bool{}
		for _, name := range a.Tags() {
			i, ok := pos[name]
			if !ok {
				i = len(tags)
				pos[name] = i
				tags = append(tags, Tag{Name: name})
			}
			tags[i].Count++
			if !seen[name] {
				seen[name] = true
				tags[i].Articles = append(tags[i].Articles, a)
			}
		}
	}
	slices.SortStableFunc(tags, func(a, b Tag) int {
		return cmp.Compare(b.Count, a.Count)
	})
	return tags
}

// Index returns the tags template context.
func Index(tags []Tag) []map[string]any {
	out := make([]map[string]any, 0, len(tags))
	for _, t := range tags {
		out = append(out, map[string]any{
			"name":  t.Name,
			"count": t.Count,
			"dst":   filepath.ToSlash(t.Path()),
		})
	}
	return out
}

// Counts returns the tags as plain name/count pairs.
func Counts(tags []Tag) []models.TagCount {
	out := make([]models.TagCount, 0, len(tags))
	for _, t := range tags {
		out = append(out, models.TagCount{Name: t.Name, Count: t.Count})
	}
	return out
}

// Path returns the output path of the tag's page.
func (t Tag) Path() string {
	return TagPath(t.Name)
}

// TagPath returns the output path of the page listing the named tag.
func TagPath(name string) string {
	return filepath.Join("tags", TagFile(name)+".html")
}

// TagFile returns the file name stem of a tag page. Names that could
// escape the tags directory, hide the file or shadow the tags index fall
// back to a digest of the name.
func TagFile(name string) string {
	if name == "" || name == "index" || strings.HasPrefix(name, ".") ||
		strings.ContainsAny(name, "/\\%?#\x00") {
		return "tag-" + checksum.Sum([]byte(name))[:12]
	}
	return name
}
