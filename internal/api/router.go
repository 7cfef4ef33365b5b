package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/idmkit/internal/outlineservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *outlineservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Collection reads.
	r.Get("/outline", h.Outline)
	r.Get("/files", h.Files)

	// Index queries.
	r.Get("/search", h.Search)
	r.Get("/tags", h.Tags)
	r.Get("/uri", h.FindURI)
	r.Post("/reindex", h.Reindex)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
