package api

import (
	"github.com/starford/quire/internal/index"
	"github.com/starford/quire/internal/models"
)

// SearchResponse wraps search results.
type SearchResponse struct {
	Query   string               `json:"query"`
	Results []index.SearchResult `json:"results"`
}

// ArticleListResponse wraps article listings.
type ArticleListResponse struct {
	Articles []models.Summary `json:"articles"`
	Total    int              `json:"total"`
}

// TagListResponse wraps the tag index.
type TagListResponse struct {
	Tags []models.TagCount `json:"tags"`
}

// ReadyResponse is returned by /health/ready.
type ReadyResponse struct {
	Status       string `json:"status"`
	HasGoodBuild bool   `json:"has_good_build"`
	Builds       int    `json:"builds"`
	LastError    string `json:"last_error,omitempty"`
}
