package markdown

import (
	"net/url"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

var markdownExts = []string{".md", ".markdown"}

// RewriteLink points relative links to Markdown sources at the generated
// HTML page. Links with a scheme or host, and links without a path, are
// returned unchanged. Query and fragment are preserved.
func RewriteLink(dest string) string {
	u, err := url.Parse(dest)
	if err != nil || u.Scheme != "" || u.Host != "" || u.Path == "" {
		return dest
	}
	end := strings.IndexAny(dest, "?#")
	if end < 0 {
		end = len(dest)
	}
	p, rest := dest[:end], dest[end:]
	for _, ext := range markdownExts {
		if strings.HasSuffix(p, ext) {
			return strings.TrimSuffix(p, ext) + ".html" + rest
		}
	}
	return dest
}

// linkRewriter applies RewriteLink to every link in the document. Reference
// links are resolved to ast.Link before transformers run.
type linkRewriter struct{}

func (linkRewriter) Transform(doc *ast.Document, _ text.Reader, _ parser.Context) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if link, ok := n.(*ast.Link); ok {
			link.Destination = []byte(RewriteLink(string(link.Destination)))
		}
		return ast.WalkContinue, nil
	})
}
