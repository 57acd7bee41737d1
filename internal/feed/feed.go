// Package feed renders the Atom feed of a site's articles.
package feed

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/feeds"

	"github.com/starford/quire/internal/models"
)

// Path is the feed's location in the output tree.
const Path = "atom.xml"

// EntryID returns a stable identifier for the article at link.
func EntryID(link string) string {
	return "urn:uuid:" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(link)).String()
}

// New builds the feed for articles, which must already be in archive order.
func New(site models.Site, articles []models.Document) *feeds.Feed {
	f := &feeds.Feed{
		Title:       site.Title,
		Link:        &feeds.Link{Href: site.BaseURL},
		Description: site.Description,
		Author:      &feeds.Author{Name: site.Author},
		Id:          site.BaseURL,
	}

	for _, a := range articles {
		link := site.BaseURL + filepath.ToSlash(a.Dest)
		summary := a.Description()
		if summary == "" {
			summary = a.Title()
		}
		date := a.Date()
		if date.After(f.Updated) {
			f.Updated = date
		}
		f.Items = append(f.Items, &feeds.Item{
			Title:       a.Title(),
			Link:        &feeds.Link{Href: link},
			Description: summary,
			Content:     a.Content,
			Author:      &feeds.Author{Name: site.Author},
			Id:          EntryID(link),
			Created:     date,
			Updated:     date,
		})
	}
	if f.Updated.IsZero() {
		f.Updated = time.Now()
	}
	return f
}

// Atom renders the feed document.
func Atom(site models.Site, articles []models.Document) ([]byte, error) {
	out, err := New(site, articles).ToAtom()
	if err != nil {
		return nil, fmt.Errorf("feed: atom: %w", err)
	}
	return []byte(out), nil
}
