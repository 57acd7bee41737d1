package markdown

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert_MetadataAndBody(t *testing.T) {
	src := "Title: Hello World\nDescription: first\n    continued\nTags: Go, Web , go\n\n# Heading\n\nBody text.\n"

	html, meta, err := New().Convert([]byte(src))
	require.NoError(t, err)

	assert.Equal(t, "Hello World", meta.Get("title"))
	assert.Equal(t, "first\ncontinued", meta.Get("description"))
	assert.Equal(t, []string{"go", "web", "go"}, meta.Tags())
	assert.Contains(t, html, `<h1 id="heading">Heading</h1>`)
	assert.Contains(t, html, "<p>Body text.</p>")
	assert.NotContains(t, html, "Title:")
}

func TestConvert_NoMetadata(t *testing.T) {
	html, meta, err := New().Convert([]byte("# Only body\n"))
	require.NoError(t, err)
	assert.Empty(t, meta)
	assert.Contains(t, html, "Only body</h1>")
}

func TestConvert_DelimitedBlock(t *testing.T) {
	src := "---\ntitle: Fenced\n---\nBody\n"
	html, meta, err := New().Convert([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, "Fenced", meta.Get("title"))
	assert.Equal(t, "<p>Body</p>\n", html)
}

func TestConvert_CRLF(t *testing.T) {
	html, meta, err := New().Convert([]byte("title: Win\r\n\r\nBody\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "Win", meta.Get("title"))
	assert.Equal(t, "<p>Body</p>\n", html)
}

func TestConvert_Date(t *testing.T) {
	loc := time.FixedZone("test", 2*60*60)
	c := New(WithLocation(loc))

	_, meta, err := c.Convert([]byte("date: 2020-01-02 10:00\n\nx"))
	require.NoError(t, err)
	d, ok := meta.Date()
	require.True(t, ok)
	assert.True(t, time.Date(2020, 1, 2, 10, 0, 0, 0, loc).Equal(d), d)
	assert.Equal(t, loc, d.Location())

	_, meta, err = c.Convert([]byte("date: 2020-01-02T10:00:00Z\n\nx"))
	require.NoError(t, err)
	d, _ = meta.Date()
	assert.Equal(t, 12, d.Hour())
	assert.Equal(t, loc, d.Location())
}

func TestConvert_InvalidDate(t *testing.T) {
	for _, src := range []string{"date: \n\nx", "date: yesterday\n\nx"} {
		_, _, err := New().Convert([]byte(src))
		assert.Error(t, err, src)
	}
}

func TestConvert_Typography(t *testing.T) {
	html, _, err := New().Convert([]byte("a -- b --- c...\n\n`x -- y...`\n"))
	require.NoError(t, err)
	assert.Contains(t, html, "a &ndash; b &mdash; c&hellip;")
	assert.Contains(t, html, "<code>x -- y...</code>")
}

func TestConvert_HighlightsFencedCode(t *testing.T) {
	src := "Text -- here.\n\n```go\nfunc f() {\n\tx--\n}\n```\n\n```\nplain -- text\n```\n"
	html, _, err := New().Convert([]byte(src))
	require.NoError(t, err)

	assert.Contains(t, html, "Text &ndash; here.")
	assert.Contains(t, html, `<pre class="chroma">`)
	assert.Contains(t, html, `<span class="kd">func</span>`)
	assert.Contains(t, html, `<span class="o">--</span>`)
	assert.Contains(t, html, "plain -- text")
	assert.Equal(t, 1, strings.Count(html, "&ndash;"))
	assert.NotContains(t, html, "–")
}

func TestConvert_Links(t *testing.T) {
	src := "[a](foo.md) [b](https://example.com/x.md) [c][ref] [d](#top)\n\n[ref]: dir/bar.markdown#sec\n"
	html, _, err := New().Convert([]byte(src))
	require.NoError(t, err)
	assert.Contains(t, html, `<a href="foo.html">a</a>`)
	assert.Contains(t, html, `<a href="https://example.com/x.md">b</a>`)
	assert.Contains(t, html, `<a href="dir/bar.html#sec">c</a>`)
	assert.Contains(t, html, `<a href="#top">d</a>`)
}

func TestConvert_Independent(t *testing.T) {
	c := New()
	_, first, err := c.Convert([]byte("title: one\n\nx"))
	require.NoError(t, err)
	_, second, err := c.Convert([]byte("plain"))
	require.NoError(t, err)
	assert.Equal(t, "one", first.Get("title"))
	assert.Empty(t, second)
}

func TestConvert_Concurrent(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			html, meta, err := c.Convert([]byte("title: t\n\n[x](y.md)"))
			assert.NoError(t, err)
			assert.Equal(t, "t", meta.Get("title"))
			assert.Contains(t, html, "y.html")
		}()
	}
	wg.Wait()
}
