package site

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/blog"
	"github.com/starford/quire/internal/models"
	"github.com/starford/quire/internal/testutil"
)

var testSite = models.Site{
	BaseURL:     "https://example.com",
	Title:       "Blog",
	Description: "a blog",
	Author:      "Jo",
}

func options(input, templates, static, output string) Options {
	return Options{
		Dirs: Dirs{Input: input, Output: output, Templates: templates, Static: static},
		Site: testSite,
	}
}

func TestBuild_ClassifiesContent(t *testing.T) {
	input, templates, static, output := testutil.SiteDirs(t, map[string]string{
		"about.md":          "title: About\n\nHello [post](posts/first.md).",
		"posts/first.md":    "title: First\ndate: 2024-01-02\ntags: Go, Web\n\nBody.",
		"posts/img/pic.png": "PNG",
		"notes.markdown":    "# Notes",
	})
	require.NoError(t, os.MkdirAll(filepath.Join(input, "empty", "nested"), 0o755))

	res, err := Build(context.Background(), options(input, templates, static, output))
	require.NoError(t, err)

	require.Len(t, res.Articles, 1)
	require.Len(t, res.Pages, 2)
	assert.Equal(t, filepath.Join("posts", "first.html"), res.Articles[0].Dest)

	assert.Equal(t, `Blog|PAGE|About|<p>Hello <a href="posts/first.html">post</a>.</p>`+"\n",
		testutil.ReadFile(t, output, "about.html"))
	assert.Equal(t, "Blog|ARTICLE|First|2024-01-02|go,web|<p>Body.</p>\n",
		testutil.ReadFile(t, output, "posts/first.html"))
	assert.Equal(t, "PNG", testutil.ReadFile(t, output, "posts/img/pic.png"))
	assert.Contains(t, testutil.ReadFile(t, output, "notes.html"), "PAGE|Notes|")
	assert.DirExists(t, filepath.Join(output, "empty", "nested"))

	for _, p := range []string{"about.md", "posts/first.md", "notes.markdown"} {
		assert.NoFileExists(t, filepath.Join(output, p))
	}
	for _, p := range []string{"index.html", "tags/index.html", "tags/go.html", "tags/web.html", "atom.xml"} {
		assert.FileExists(t, filepath.Join(output, p))
	}
}

func TestBuild_DateGatesArticlesAndOrdersArchive(t *testing.T) {
	input, templates, static, output := testutil.SiteDirs(t, map[string]string{
		"a.md":    "date: 2024-01-01\n\na",
		"b.md":    "date: 2024-03-01\n\nb",
		"c.md":    "date: 2024-01-01\n\nc",
		"d.md":    "date: 2024-02-01 12:30\n\nd",
		"page.md": "title: Page\n\nno date",
	})

	res, err := Build(context.Background(), options(input, templates, static, output))
	require.NoError(t, err)
	assert.Len(t, res.Pages, 1)
	assert.Equal(t, "b.html;d.html;a.html;c.html;", testutil.ReadFile(t, output, "index.html"))
}

func TestBuild_Tags(t *testing.T) {
	input, templates, static, output := testutil.SiteDirs(t, map[string]string{
		"a.md": "date: 2024-01-01\ntags: web, go\n\na",
		"b.md": "date: 2024-01-02\ntags: GO\n\nb",
		"c.md": "date: 2024-01-03\ntags: rust\n\nc",
	})

	res, err := Build(context.Background(), options(input, templates, static, output))
	require.NoError(t, err)
	require.Len(t, res.Tags, 3)
	assert.Equal(t, "go=2;rust=1;web=1;", testutil.ReadFile(t, output, "tags/index.html"))
	assert.Equal(t, "go:b.html;a.html;", testutil.ReadFile(t, output, "tags/go.html"))
	assert.Equal(t, "rust:c.html;", testutil.ReadFile(t, output, "tags/rust.html"))
}

func TestBuild_DerivesMissingTitle(t *testing.T) {
	input, templates, static, output := testutil.SiteDirs(t, map[string]string{
		"my-first_post.md": "date: 2024-01-01\n\nx",
	})
	res, err := Build(context.Background(), options(input, templates, static, output))
	require.NoError(t, err)
	assert.Equal(t, "My First Post", res.Articles[0].Title())
}

func TestBuild_ContentError(t *testing.T) {
	input, templates, static, output := testutil.SiteDirs(t, map[string]string{
		"bad.md": "date: not a date\n\nx",
	})
	_, err := Build(context.Background(), options(input, templates, static, output))
	require.Error(t, err)

	var contentErr *apperr.ContentError
	require.ErrorAs(t, err, &contentErr)
	assert.Equal(t, "bad.md", contentErr.Path)

	var stageErr *apperr.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageDocuments, stageErr.Stage)
}

func TestBuild_MissingTemplate(t *testing.T) {
	input, templates, static, output := testutil.SiteDirs(t, map[string]string{"a.md": "a"})
	require.NoError(t, os.Remove(filepath.Join(templates, "tag.html")))

	_, err := Build(context.Background(), options(input, templates, static, output))
	assert.ErrorIs(t, err, apperr.ErrTemplateNotFound)
	assert.ErrorContains(t, err, `"tag"`)

	opts := options(input, templates, static, output)
	opts.Fallback = true
	_, err = Build(context.Background(), opts)
	assert.NoError(t, err)
}

func TestBuild_MissingInput(t *testing.T) {
	_, templates, static, output := testutil.SiteDirs(t, nil)
	_, err := Build(context.Background(), options(filepath.Join(t.TempDir(), "nope"), templates, static, output))
	assert.ErrorIs(t, err, apperr.ErrInputMissing)
}

func TestBuild_InvalidConfig(t *testing.T) {
	input, templates, static, output := testutil.SiteDirs(t, nil)
	opts := options(input, templates, static, output)
	opts.Site.Author = ""
	_, err := Build(context.Background(), opts)
	assert.ErrorIs(t, err, apperr.ErrConfig)
	assert.ErrorContains(t, err, "author")
}

func TestBuild_BaseURLNormalizedInFeed(t *testing.T) {
	input, templates, static, output := testutil.SiteDirs(t, map[string]string{
		"post.md": "title: Post\ndate: 2024-01-01\n\nx",
	})
	_, err := Build(context.Background(), options(input, templates, static, output))
	require.NoError(t, err)
	atom := testutil.ReadFile(t, output, "atom.xml")
	assert.Contains(t, atom, `href="https://example.com/post.html"`)
}

func TestBuild_StaticOverridesAndSurvives(t *testing.T) {
	input, templates, static, output := testutil.SiteDirs(t, map[string]string{
		"style.css": "from content",
	})
	testutil.WriteTree(t, static, map[string]string{
		"style.css":  "from static",
		"js/site.js": "js",
	})

	_, err := Build(context.Background(), options(input, templates, static, output))
	require.NoError(t, err)
	assert.Equal(t, "from static", testutil.ReadFile(t, output, "style.css"))
	assert.Equal(t, "js", testutil.ReadFile(t, output, "js/site.js"))

	_, err = Build(context.Background(), options(input, templates, static, output))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(output, "js", "site.js"))
}

func TestBuild_RemovesStaleOutput(t *testing.T) {
	input, templates, static, output := testutil.SiteDirs(t, map[string]string{
		"keep.md":       "title: Keep\n\nk",
		"old.md":        "title: Old\ndate: 2024-01-01\ntags: gone\n\no",
		"dir/asset.txt": "a",
	})
	opts := options(input, templates, static, output)
	_, err := Build(context.Background(), opts)
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(output, "tags", "gone.html"))

	testutil.WriteTree(t, output, map[string]string{".hidden": "h", "stray/x.html": "x"})
	require.NoError(t, os.Remove(filepath.Join(input, "old.md")))
	require.NoError(t, os.RemoveAll(filepath.Join(input, "dir")))

	res, err := Build(context.Background(), opts)
	require.NoError(t, err)

	for _, p := range []string{"old.html", "dir", ".hidden", "stray", "tags/gone.html"} {
		assert.NoFileExists(t, filepath.Join(output, p))
		assert.NoDirExists(t, filepath.Join(output, p))
	}
	for _, p := range []string{"keep.html", "index.html", "atom.xml", "tags/index.html"} {
		assert.FileExists(t, filepath.Join(output, p))
	}
	assert.Contains(t, res.Removed, "old.html")
	assert.Contains(t, res.Removed, filepath.Join("tags", "gone.html"))
}

func TestBuild_ReplacesOutputOfChangedKind(t *testing.T) {
	input, templates, static, output := testutil.SiteDirs(t, map[string]string{
		"notes":       "plain file",
		"x/child.txt": "c",
	})
	opts := options(input, templates, static, output)
	_, err := Build(context.Background(), opts)
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(output, "notes"))
	require.FileExists(t, filepath.Join(output, "x", "child.txt"))

	require.NoError(t, os.Remove(filepath.Join(input, "notes")))
	require.NoError(t, os.RemoveAll(filepath.Join(input, "x")))
	testutil.WriteTree(t, input, map[string]string{"notes/a.txt": "a", "x": "now a file"})

	for range 2 {
		_, err = Build(context.Background(), opts)
		require.NoError(t, err)
		assert.Equal(t, "a", testutil.ReadFile(t, output, "notes/a.txt"))
		assert.Equal(t, "now a file", testutil.ReadFile(t, output, "x"))
	}
}

func TestBuild_TagNamesStayInsideTagsDir(t *testing.T) {
	input, templates, static, output := testutil.SiteDirs(t, map[string]string{
		"about.md": "title: About\n\nabout",
		"post.md":  "title: Post\ndate: 2024-01-01\ntags: index, ../about, go\n\np",
	})
	testutil.WriteTree(t, templates, map[string]string{
		"article.html": `{% for tag in tags %}{{ tag_path(tag) }};{% endfor %}`,
		"tags.html":    `{% for t in tags %}{{ t.name }}@{{ t.dst }};{% endfor %}`,
	})

	res, err := Build(context.Background(), options(input, templates, static, output))
	require.NoError(t, err)
	require.Len(t, res.Tags, 3)

	index := blog.TagFile("index")
	escape := blog.TagFile("../about")
	assert.NotEqual(t, "index", index)
	assert.NotContains(t, escape, "/")

	assert.Equal(t, "Blog|PAGE|About|<p>about</p>\n", testutil.ReadFile(t, output, "about.html"))
	assert.Equal(t,
		"index@tags/"+index+".html;../about@tags/"+escape+".html;go@tags/go.html;",
		testutil.ReadFile(t, output, "tags/index.html"))
	assert.Equal(t,
		"/tags/"+index+".html;/tags/"+escape+".html;/tags/go.html;",
		testutil.ReadFile(t, output, "post.html"))
	assert.Equal(t, "index:post.html;", testutil.ReadFile(t, output, "tags/"+index+".html"))
	assert.Equal(t, "../about:post.html;", testutil.ReadFile(t, output, "tags/"+escape+".html"))
}

func TestBuild_SyncsIndex(t *testing.T) {
	input, templates, static, output := testutil.SiteDirs(t, map[string]string{
		"post.md":  "title: Searchable\ndate: 2024-01-01\ntags: go\n\nneedle in here",
		"about.md": "title: About\n\nabout page",
	})
	db := testutil.TestDB(t)
	opts := options(input, templates, static, output)
	opts.Index = db

	_, err := Build(context.Background(), opts)
	require.NoError(t, err)

	hits, err := db.Search("needle", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "post.html", hits[0].Path)

	arts, err := db.Articles("go", 0)
	require.NoError(t, err)
	require.Len(t, arts, 1)
	assert.Equal(t, "Searchable", arts[0].Title)
}

type fakeRecorder struct {
	mu       sync.Mutex
	stages   []string
	outcomes []string
	docs     map[string]int
}

func (f *fakeRecorder) ObserveStageDuration(stage string, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stages = append(f.stages, stage)
}

func (f *fakeRecorder) ObserveBuildDuration(time.Duration) {}

func (f *fakeRecorder) IncBuildOutcome(outcome string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes = append(f.outcomes, outcome)
}

func (f *fakeRecorder) SetDocuments(kind string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.docs == nil {
		f.docs = map[string]int{}
	}
	f.docs[kind] = n
}

func TestBuild_RecordsStagesInOrder(t *testing.T) {
	input, templates, static, output := testutil.SiteDirs(t, map[string]string{"a.md": "date: 2024-01-01\n\na"})
	rec := &fakeRecorder{}
	opts := options(input, templates, static, output)
	opts.Recorder = rec

	_, err := Build(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, []string{
		StageOutput, StageContent, StageStatic, StageConfig, StageTemplates,
		StageDocuments, StageArchive, StageTags, StageFeed, StageIndex,
	}, rec.stages)
	assert.Equal(t, []string{"success"}, rec.outcomes)
	assert.Equal(t, map[string]int{"article": 1, "page": 0}, rec.docs)
}

func TestBuild_Canceled(t *testing.T) {
	input, templates, static, output := testutil.SiteDirs(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := &fakeRecorder{}
	opts := options(input, templates, static, output)
	opts.Recorder = rec

	_, err := Build(ctx, opts)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, []string{"canceled"}, rec.outcomes)
}

func TestTitleFromPath(t *testing.T) {
	assert.Equal(t, "My First Post", titleFromPath(filepath.Join("posts", "my-first-post.md")))
	assert.Equal(t, "Hello World", titleFromPath("hello__world.markdown"))
	assert.True(t, strings.HasPrefix(titleFromPath("x.md"), "X"))
}
