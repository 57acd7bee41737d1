// Package api implements the development server's HTTP surface using chi.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/quire/internal/index"
	"github.com/starford/quire/internal/watch"
)

// StatusSource reports the outcome of recent builds.
type StatusSource interface {
	Snapshot() watch.Snapshot
}

// Deps are the collaborators mounted by NewRouter. Only Output is
// required; missing optional parts disable their routes.
type Deps struct {
	// Output is the directory served at /.
	Output  string
	Index   index.Reader
	Status  StatusSource
	Events  http.Handler
	Metrics http.Handler
}

// NewRouter mounts health checks, the JSON API, metrics and the output
// directory.
func NewRouter(d Deps) chi.Router {
	h := NewHandler(d.Index, d.Status)

	r := chi.NewRouter()

	r.Get("/health/live", h.Live)
	r.Get("/health/ready", h.Ready)

	r.Route("/api", func(r chi.Router) {
		r.Get("/search", h.Search)
		r.Get("/articles", h.Articles)
		r.Get("/tags", h.Tags)
		if d.Events != nil {
			r.Get("/events", d.Events.ServeHTTP)
		}
	})

	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics)
	}

	r.With(NoCache).Handle("/*", http.FileServer(http.Dir(d.Output)))
	return r
}
