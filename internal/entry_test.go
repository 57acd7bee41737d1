package internal

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/index"
	"github.com/starford/quire/internal/models"
	"github.com/starford/quire/internal/site"
	"github.com/starford/quire/internal/testutil"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := NewDefaultConfig()
	cfg.Main = models.Site{
		BaseURL:     "https://example.com/",
		Title:       "Blog",
		Description: "a blog",
		Author:      "Jo",
	}
	cfg.Index.Path = filepath.Join(t.TempDir(), "state", "index.db")
	return cfg
}

func TestBuild_DoesNotCreateIndex(t *testing.T) {
	input, templates, static, output := testutil.SiteDirs(t, map[string]string{
		"about.md": "About.",
	})
	cfg := testConfig(t)

	_, err := Build(context.Background(),
		WithConfig(cfg),
		WithDirs(site.Dirs{Input: input, Output: output, Templates: templates, Static: static}),
	)
	require.NoError(t, err)
	assert.NoFileExists(t, cfg.Index.Path)
	assert.NoDirExists(t, filepath.Dir(cfg.Index.Path))
}

func TestBuild_SyncsExistingIndex(t *testing.T) {
	input, templates, static, output := testutil.SiteDirs(t, map[string]string{
		"posts/hello.md": "title: Hello\ndate: 2024-05-01\ntags: go\n\nHi.",
		"about.md":       "About.",
	})
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(cfg.Index.Path), 0o755))
	created, err := index.Open(cfg.Index.Path)
	require.NoError(t, err)
	require.NoError(t, created.Close())

	res, err := Build(context.Background(),
		WithConfig(cfg),
		WithDirs(site.Dirs{Input: input, Output: output, Templates: templates, Static: static}),
	)
	require.NoError(t, err)
	assert.Len(t, res.Articles, 1)
	assert.Len(t, res.Pages, 1)
	assert.FileExists(t, filepath.Join(output, "posts", "hello.html"))

	db, err := index.Open(cfg.Index.Path)
	require.NoError(t, err)
	defer db.Close()
	articles, err := db.Articles("", 0)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "posts/hello.html", articles[0].Path)
}

func TestBuild_RequiresConfigAndDirs(t *testing.T) {
	_, err := Build(context.Background())
	assert.Error(t, err)

	_, err = Build(context.Background(), WithConfig(testConfig(t)))
	assert.Error(t, err)
}

func TestBuild_InvalidLogLevel(t *testing.T) {
	cfg := testConfig(t)
	cfg.App.LogLevel = "loud"
	_, err := Build(context.Background(),
		WithConfig(cfg),
		WithDirs(site.Dirs{Input: t.TempDir(), Output: t.TempDir()}),
	)
	assert.Error(t, err)
}

func TestServeMCP_MissingContentDir(t *testing.T) {
	cfg := testConfig(t)
	input := filepath.Join(t.TempDir(), "content")

	err := ServeMCP(context.Background(),
		WithConfig(cfg),
		WithDirs(site.Dirs{Input: input, Output: t.TempDir()}),
	)
	require.ErrorIs(t, err, apperr.ErrInputMissing)
	assert.NoDirExists(t, input)
	assert.NoFileExists(t, cfg.Index.Path)
}
