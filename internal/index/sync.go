package index

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/starford/quire/internal/checksum"
	"github.com/starford/quire/internal/models"
)

// SyncStats summarizes one Sync pass.
type SyncStats struct {
	Indexed   int
	Unchanged int
	Removed   int
}

var (
	tagRe   = regexp.MustCompile(`<[^>]*>`)
	spaceRe = regexp.MustCompile(`\s+`)
)

// Sync brings the index up to date with a finished build:
//   - new/changed documents are upserted
//   - documents no longer produced by the build are deleted
func (db *DB) Sync(ctx context.Context, docs []models.Document) (SyncStats, error) {
	var stats SyncStats

	checksums, err := db.AllChecksums()
	if err != nil {
		return stats, err
	}

	built := make(map[string]struct{}, len(docs))
	now := time.Now()
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		row := documentRow(d)
		built[row.Path] = struct{}{}
		if checksums[row.Path] == row.Checksum {
			stats.Unchanged++
			continue
		}
		row.UpdatedAt = now
		if err := db.UpsertDocument(row, PlainText(d.Content)); err != nil {
			return stats, err
		}
		stats.Indexed++
	}

	for p := range checksums {
		if _, ok := built[p]; ok {
			continue
		}
		if err := db.DeleteDocument(p); err != nil {
			return stats, err
		}
		stats.Removed++
	}
	return stats, nil
}

func documentRow(d models.Document) DocumentRow {
	kind := KindPage
	if d.IsArticle() {
		kind = KindArticle
	}
	path := filepath.ToSlash(d.Dest)
	parts := []string{path, kind, d.Content}
	for _, k := range []string{"title", "description", "date", "tags"} {
		parts = append(parts, d.Meta.Get(k))
	}
	return DocumentRow{
		Path:        path,
		Kind:        kind,
		Title:       d.Title(),
		Description: d.Description(),
		Date:        d.Date(),
		Tags:        d.Tags(),
		Checksum:    checksum.Strings(parts...),
	}
}

// PlainText strips markup from rendered HTML for indexing.
func PlainText(html string) string {
	text := tagRe.ReplaceAllString(html, " ")
	return strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
}
