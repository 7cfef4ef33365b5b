package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/starford/idmkit/internal/outlineservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *outlineservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *outlineservice.Service) *Handler {
	return &Handler{svc: svc}
}

// Outline handles GET /api/outline.
//
//	@Summary		Get the IDM text of a collection subtree
//	@Tags			outline
//	@Produce		plain
//	@Produce		json
//	@Param			path	query		string	false	"Headline path, e.g. notes/daily"
//	@Param			format	query		string	false	"Response format"	Enums(idm, json)
//	@Success		200		{object}	OutlineDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/outline [get]
func (h *Handler) Outline(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	detail, err := h.svc.Outline(r.Context(), q.Get("path"))
	if err != nil {
		writeError(w, "outline", err)
		return
	}
	if q.Get("format") == "json" {
		writeJSON(w, http.StatusOK, detail)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("ETag", strconv.Quote(detail.Checksum))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(detail.Text))
}

// Files handles GET /api/files.
//
//	@Summary		List indexed collection files
//	@Tags			outline
//	@Produce		json
//	@Success		200	{object}	FilesResponse
//	@Security		BearerAuth
//	@Router			/files [get]
func (h *Handler) Files(w http.ResponseWriter, r *http.Request) {
	files, err := h.svc.Files(r.Context())
	if err != nil {
		writeError(w, "list files", err)
		return
	}
	writeJSON(w, http.StatusOK, FilesResponse{Files: files})
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across sections
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Tags handles GET /api/tags.
//
//	@Summary		Tag usage counts
//	@Tags			search
//	@Produce		json
//	@Success		200	{object}	TagsResponse
//	@Security		BearerAuth
//	@Router			/tags [get]
func (h *Handler) Tags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.svc.Tags(r.Context())
	if err != nil {
		writeError(w, "tags", err)
		return
	}
	writeJSON(w, http.StatusOK, TagsResponse{Tags: tags})
}

// FindURI handles GET /api/uri.
//
//	@Summary		Find sections by uri attribute
//	@Tags			search
//	@Produce		json
//	@Param			u	query		string	true	"URI, compared in normalized form"
//	@Success		200	{object}	SectionsResponse
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/uri [get]
func (h *Handler) FindURI(w http.ResponseWriter, r *http.Request) {
	u := r.URL.Query().Get("u")
	if u == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'u' is required"))
		return
	}
	sections, err := h.svc.FindURI(r.Context(), u)
	if err != nil {
		writeError(w, "find uri", err)
		return
	}
	writeJSON(w, http.StatusOK, SectionsResponse{Sections: sections})
}

// Reindex handles POST /api/reindex.
//
//	@Summary		Re-read the collection and update the index
//	@Tags			search
//	@Produce		json
//	@Success		200	{object}	ReindexResponse
//	@Failure		422	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/reindex [post]
func (h *Handler) Reindex(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Reindex(r.Context())
	if err != nil {
		writeError(w, "reindex", err)
		return
	}
	writeJSON(w, http.StatusOK, ReindexResponse{
		Created: nonNil(report.Created),
		Updated: nonNil(report.Updated),
		Deleted: nonNil(report.Deleted),
	})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
