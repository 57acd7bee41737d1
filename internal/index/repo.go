package index

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/starford/quire/internal/models"
)

// Kinds stored in documents.kind.
const (
	KindArticle = "article"
	KindPage    = "page"
)

// DocumentRow represents a row in the documents table.
type DocumentRow struct {
	Path        string
	Kind        string
	Title       string
	Description string
	Date        time.Time
	Checksum    string
	Tags        []string
	UpdatedAt   time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// UpsertDocument inserts or replaces a document, its FTS entry and its tags
// within a transaction.
func (db *DB) UpsertDocument(d DocumentRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, _ := json.Marshal(tags)

	var date string
	var published int64
	if !d.Date.IsZero() {
		date = d.Date.Format(time.RFC3339)
		published = d.Date.Unix()
	}

	_, err = tx.Exec(`
		INSERT INTO documents (path, kind, title, description, date, published, checksum, tags, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			kind        = excluded.kind,
			title       = excluded.title,
			description = excluded.description,
			date        = excluded.date,
			published   = excluded.published,
			checksum    = excluded.checksum,
			tags        = excluded.tags,
			body        = excluded.body,
			updated_at  = excluded.updated_at
	`, d.Path, d.Kind, d.Title, d.Description, date, published, d.Checksum, string(tagsJSON), body, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert document: %w", err)
	}

	if err := ftsUpsert(tx, d.Path, d.Title, body, tags); err != nil {
		return err
	}

	_, _ = tx.Exec(`DELETE FROM document_tags WHERE path = ?`, d.Path)
	if len(tags) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO document_tags (path, position, tag) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare tag insert: %w", err)
		}
		defer stmt.Close()
		for i, tag := range tags {
			if _, err := stmt.Exec(d.Path, i, tag); err != nil {
				return fmt.Errorf("index: insert tag: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteDocument removes a document, its FTS entry and its tags.
func (db *DB) DeleteDocument(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM document_tags WHERE path = ?`, path)
	_, _ = tx.Exec(`DELETE FROM documents WHERE path = ?`, path)

	return tx.Commit()
}

// AllChecksums returns path → checksum for every indexed document.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// Articles lists articles newest first, optionally restricted to one tag.
func (db *DB) Articles(tag string, limit int) ([]models.Summary, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT path, title, description, date, tags, checksum FROM documents WHERE kind = ?`
	args := []any{KindArticle}
	if tag != "" {
		query += ` AND path IN (SELECT path FROM document_tags WHERE tag = ?)`
		args = append(args, tag)
	}
	query += ` ORDER BY published DESC, path LIMIT ?`
	args = append(args, limit)

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("index: articles: %w", err)
	}
	defer rows.Close()

	var out []models.Summary
	for rows.Next() {
		var (
			s              models.Summary
			date, tagsJSON string
		)
		if err := rows.Scan(&s.Path, &s.Title, &s.Description, &date, &tagsJSON, &s.Checksum); err != nil {
			return nil, err
		}
		if date != "" {
			s.Date, _ = time.Parse(time.RFC3339, date)
		}
		_ = json.Unmarshal([]byte(tagsJSON), &s.Tags)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Tags returns tag frequencies ordered by count descending, then name.
func (db *DB) Tags() ([]models.TagCount, error) {
	rows, err := db.conn.Query(`
		SELECT tag, count(*) AS n
		FROM document_tags
		GROUP BY tag
		ORDER BY n DESC, tag
	`)
	if err != nil {
		return nil, fmt.Errorf("index: tags: %w", err)
	}
	defer rows.Close()

	var out []models.TagCount
	for rows.Next() {
		var tc models.TagCount
		if err := rows.Scan(&tc.Name, &tc.Count); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}
