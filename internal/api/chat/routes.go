package chat

import "github.com/go-chi/chi/v5"

// RegisterRoutes mounts chat endpoints on the router.
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/chat", func(r chi.Router) {
		r.Post("/query", h.Query)
	})
}
