package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/index"
	"github.com/starford/quire/internal/models"
)

// Handler holds API route handlers.
type Handler struct {
	idx    index.Reader
	status StatusSource
}

// NewHandler creates a new Handler. Either argument may be nil.
func NewHandler(idx index.Reader, status StatusSource) *Handler {
	return &Handler{idx: idx, status: status}
}

// Live handles GET /health/live.
func (h *Handler) Live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready handles GET /health/ready. The server is ready once one build has
// succeeded; a later failure is reported but does not make it unready.
func (h *Handler) Ready(w http.ResponseWriter, _ *http.Request) {
	if h.status == nil {
		writeJSON(w, http.StatusOK, ReadyResponse{Status: "ok", HasGoodBuild: true})
		return
	}
	snap := h.status.Snapshot()
	resp := ReadyResponse{Status: "ok", HasGoodBuild: snap.HasGoodBuild, Builds: snap.Builds}
	if snap.LastError != nil {
		resp.LastError = snap.LastError.Error()
	}
	status := http.StatusOK
	if !snap.HasGoodBuild {
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// Search handles GET /api/search?q=&limit=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	if !h.indexEnabled(w) {
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	results, err := h.idx.Search(q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if results == nil {
		results = []index.SearchResult{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Query: q, Results: results})
}

// Articles handles GET /api/articles?tag=&limit=.
func (h *Handler) Articles(w http.ResponseWriter, r *http.Request) {
	if !h.indexEnabled(w) {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := h.idx.Articles(r.URL.Query().Get("tag"), limit)
	if err != nil {
		slog.Error("list articles failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if items == nil {
		items = []models.Summary{}
	}
	writeJSON(w, http.StatusOK, ArticleListResponse{Articles: items, Total: len(items)})
}

// Tags handles GET /api/tags.
func (h *Handler) Tags(w http.ResponseWriter, _ *http.Request) {
	if !h.indexEnabled(w) {
		return
	}
	tags, err := h.idx.Tags()
	if err != nil {
		slog.Error("list tags failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if tags == nil {
		tags = []models.TagCount{}
	}
	writeJSON(w, http.StatusOK, TagListResponse{Tags: tags})
}

func (h *Handler) indexEnabled(w http.ResponseWriter) bool {
	if h.idx == nil {
		writeError(w, http.StatusServiceUnavailable, apperr.ErrIndexDisabled.Error())
		return false
	}
	return true
}
