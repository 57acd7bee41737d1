// Package models defines the domain types shared by the build pipeline.
package models

import (
	"maps"
	"time"
)

// Document is a converted source file. It is not modified after creation.
type Document struct {
	Source  string   `json:"source"`
	Dest    string   `json:"dest"`
	Content string   `json:"-"`
	Meta    Metadata `json:"-"`
}

// IsArticle reports whether the document carries a date.
func (d Document) IsArticle() bool {
	_, ok := d.Meta.Date()
	return ok
}

func (d Document) Title() string       { return d.Meta.Get("title") }
func (d Document) Description() string { return d.Meta.Get("description") }
func (d Document) Tags() []string      { return d.Meta.Tags() }

func (d Document) Date() time.Time {
	t, _ := d.Meta.Date()
	return t
}

// Context returns the template context: every metadata value plus content.
func (d Document) Context() map[string]any {
	ctx := make(map[string]any, len(d.Meta)+1)
	for k, v := range d.Meta {
		ctx[k] = v.Interface()
	}
	ctx["content"] = d.Content
	return ctx
}

// WithDest returns a copy of ctx with dst set.
func WithDest(ctx map[string]any, dst string) map[string]any {
	out := maps.Clone(ctx)
	out["dst"] = dst
	return out
}

// Summary is the list representation exposed by the API and MCP tools.
type Summary struct {
	Path        string    `json:"path"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Date        time.Time `json:"date,omitzero"`
	Tags        []string  `json:"tags,omitempty"`
	Checksum    string    `json:"checksum,omitempty"`
}

// TagCount is a tag with the number of articles carrying it.
type TagCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}
