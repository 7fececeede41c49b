package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(h *Handler, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/notes", h.ListNotes)

	r.Route("/focus", func(r chi.Router) {
		r.Get("/", h.GetFocus)
		r.Delete("/", h.ResetFocus)
		r.Get("/html", h.FocusHTML)
		r.Post("/refresh", h.RefreshFocus)
		r.Post("/regenerate", h.RegenerateFocus)
	})

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
