package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates the chi router with all routes. Method gating and
// 405 responses come from the router; the websocket handler is passed
// in plain so this package stays free of the upgrade machinery.
func NewRouter(answer *AnswerHandler, search *SearchHandler, status *StatusHandler, answerStream http.HandlerFunc) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(NewCorsHandler().CorsMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/answer", answer.HandleAnswer)
		r.Get("/answer/ws", answerStream)
		r.Post("/documents/search", search.HandleSearch)
		r.Get("/status", status.HandleStatus)
	})

	return r
}
