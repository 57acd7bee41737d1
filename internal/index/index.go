package index

import (
	"github.com/starford/quire/internal/models"
)

// Reader is the query side of the index served by the dev server API and
// the MCP tools.
type Reader interface {
	Search(query string, limit int) ([]SearchResult, error)
	Articles(tag string, limit int) ([]models.Summary, error)
	Tags() ([]models.TagCount, error)
}

var _ Reader = (*DB)(nil)
