// Package markdown converts Markdown sources into HTML fragments and their
// leading metadata.
package markdown

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"

	"github.com/starford/quire/internal/models"
)

// Converter turns Markdown into HTML. A single instance is safe for
// concurrent use and keeps no state between calls.
type Converter struct {
	md  goldmark.Markdown
	loc *time.Location
}

// Option configures a Converter.
type Option func(*Converter)

// WithLocation sets the zone dates are normalized to. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(c *Converter) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// HighlightStyle is the chroma style fenced code is highlighted with. The
// markup carries class names only; the theme stylesheet colours them.
const HighlightStyle = "friendly"

// New constructs a Converter with GFM, typographic substitutions, code
// highlighting and link rewriting enabled.
func New(opts ...Option) *Converter {
	c := &Converter{loc: time.Local}
	for _, opt := range opts {
		opt(c)
	}
	c.md = goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
			highlighting.NewHighlighting(
				highlighting.WithStyle(HighlightStyle),
				highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(util.Prioritized(linkRewriter{}, 100)),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)
	return c
}

// Convert returns the HTML fragment and the metadata of src.
func (c *Converter) Convert(src []byte) (string, models.Metadata, error) {
	text := strings.ReplaceAll(string(src), "\r\n", "\n")
	raw, order, body := splitMeta(text)

	meta, err := c.typedMeta(raw, order)
	if err != nil {
		return "", nil, fmt.Errorf("markdown: metadata: %w", err)
	}

	var buf bytes.Buffer
	if err := c.md.Convert([]byte(body), &buf); err != nil {
		return "", nil, fmt.Errorf("markdown: convert: %w", err)
	}
	return buf.String(), meta, nil
}
