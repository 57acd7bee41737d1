package models

import (
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Site holds the [main] section of the configuration. It is read-only once
// validated and injected into every template and the feed.
type Site struct {
	BaseURL     string `ini:"base_url" yaml:"base_url" json:"base_url"`
	Title       string `ini:"title" yaml:"title" json:"title"`
	Description string `ini:"description" yaml:"description" json:"description"`
	Author      string `ini:"author" yaml:"author" json:"author"`
}

// Validate checks required keys and appends a trailing slash to BaseURL.
func (s *Site) Validate() error {
	if err := validation.ValidateStruct(s,
		validation.Field(&s.BaseURL, validation.Required, is.URL),
		validation.Field(&s.Title, validation.Required),
		validation.Field(&s.Description, validation.Required),
		validation.Field(&s.Author, validation.Required),
	); err != nil {
		return err
	}
	if !strings.HasSuffix(s.BaseURL, "/") {
		slog.Warn("config: base_url does not end with a slash, adding it", slog.String("base_url", s.BaseURL))
		s.BaseURL += "/"
	}
	return nil
}

// Map returns the template representation of the site.
func (s Site) Map() map[string]any {
	return map[string]any{
		"base_url":    s.BaseURL,
		"title":       s.Title,
		"description": s.Description,
		"author":      s.Author,
	}
}
