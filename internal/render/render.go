// Package render builds the per-build template environment and renders
// named templates with a context.
package render

import (
	"fmt"
	"maps"
	"path/filepath"
	"strings"

	"github.com/flosch/pongo2/v6"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/blog"
	"github.com/starford/quire/internal/models"
)

// Template names every build needs.
const (
	Page    = "page"
	Article = "article"
	Archive = "archive"
	Tags    = "tags"
	Tag     = "tag"
)

// Required lists the templates a build cannot do without.
var Required = []string{Page, Article, Archive, Tags, Tag}

// Options configures an Environment.
type Options struct {
	// Dir holds user templates. It may be missing.
	Dir string
	// Fallback consults the embedded theme for templates Dir lacks.
	Fallback bool
	Site     models.Site
	// Globals are extra values visible to every template.
	Globals map[string]any
}

// Environment renders templates by name. It carries the site global and
// has no process-wide state.
type Environment struct {
	set     *pongo2.TemplateSet
	loaders []pongo2.TemplateLoader
}

// New constructs an Environment from opts.
func New(opts Options) *Environment {
	loaders := []pongo2.TemplateLoader{dirLoader{dir: opts.Dir}}
	if opts.Fallback {
		loaders = append(loaders, themeLoader{})
	}
	set := pongo2.NewSet("quire", loaders...)

	globals := pongo2.Context{"livereload": false, "tag_path": TagURL}
	maps.Copy(globals, Sanitize(opts.Globals))
	globals["site"] = opts.Site.Map()
	set.Globals = globals

	return &Environment{set: set, loaders: loaders}
}

// Has reports whether name resolves in any loader.
func (e *Environment) Has(name string) bool {
	file := name + ".html"
	for _, l := range e.loaders {
		if _, err := l.Get(l.Abs("", file)); err == nil {
			return true
		}
	}
	return false
}

// Check fails with ErrTemplateNotFound for the first missing name.
func (e *Environment) Check(names ...string) error {
	for _, n := range names {
		if !e.Has(n) {
			return fmt.Errorf("render: %q: %w", n, apperr.ErrTemplateNotFound)
		}
	}
	return nil
}

// Render executes template name with ctx.
func (e *Environment) Render(name string, ctx map[string]any) ([]byte, error) {
	if !e.Has(name) {
		return nil, fmt.Errorf("render: %q: %w", name, apperr.ErrTemplateNotFound)
	}
	tpl, err := e.set.FromCache(name + ".html")
	if err != nil {
		return nil, fmt.Errorf("render: parse %s: %w", name, err)
	}
	out, err := tpl.ExecuteBytes(pongo2.Context(Sanitize(ctx)))
	if err != nil {
		return nil, fmt.Errorf("render: execute %s: %w", name, err)
	}
	return out, nil
}

// TagURL is the site-absolute URL of the page listing a tag.
func TagURL(name string) string {
	return "/" + filepath.ToSlash(blog.TagPath(name))
}

// Sanitize returns a copy of ctx whose keys are valid template identifiers.
func Sanitize(ctx map[string]any) map[string]any {
	out := make(map[string]any, len(ctx))
	for k, v := range ctx {
		out[identifier(k)] = v
	}
	return out
}

func identifier(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, key)
}
