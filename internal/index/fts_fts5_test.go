//go:build sqlite_fts5

package index

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	require.NoError(t, db.conn.QueryRow(`SELECT count(*) FROM documents_fts`).Scan(&count))
}

func TestFTS5_SearchWithSnippet(t *testing.T) {
	db := testDB(t)
	row := DocumentRow{Path: "fts.html", Kind: KindPage, Title: "FTS Page", Checksum: "f1", Tags: []string{"search"}, UpdatedAt: time.Now()}
	require.NoError(t, db.UpsertDocument(row, "quire builds powerful static sites."))

	results, err := db.Search("powerful", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "fts.html", results[0].Path)
	assert.Contains(t, results[0].Snippet, "<b>powerful</b>")
}

func TestFTS5_DeleteRemovesFromFTS(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.UpsertDocument(DocumentRow{Path: "gone.html", Checksum: "g", UpdatedAt: time.Now()}, "vanishing content"))
	require.NoError(t, db.DeleteDocument("gone.html"))

	results, err := db.Search("vanishing", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFTS5_UpsertReplacesContent(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	require.NoError(t, db.UpsertDocument(DocumentRow{Path: "evo.html", Title: "Old", Checksum: "1", UpdatedAt: now}, "original text"))
	require.NoError(t, db.UpsertDocument(DocumentRow{Path: "evo.html", Title: "New", Checksum: "2", UpdatedAt: now}, "replacement text"))

	results, _ := db.Search("original", 10)
	assert.Empty(t, results)
	results, _ = db.Search("replacement", 10)
	require.Len(t, results, 1)
	assert.Equal(t, "New", results[0].Title)
}
