package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/namohub/internal/itemservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *itemservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Items.
	r.Get("/items", h.ListItems)
	r.Post("/items", h.CreateItem)
	r.Delete("/items", h.ClearItems)
	r.Get("/items/{id}", h.GetItem)
	r.Put("/items/{id}/status", h.SetStatus)

	r.Post("/classify", h.Classify)

	// Import / export of the whole collection.
	r.Post("/import", h.Import)
	r.Get("/export", h.Export)

	r.Get("/search", h.Search)
	r.Get("/views/{mode}", h.View)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
