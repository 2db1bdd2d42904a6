package survey

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers maturity survey routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/maturity-questions", func(r chi.Router) {
		r.Get("/", h.ListQuestions)
		r.Post("/chat", h.Chat)
		r.Get("/sessions/{id}", h.GetProgress)
		r.Get("/sessions/{id}/result", h.GetResult)
	})
}
