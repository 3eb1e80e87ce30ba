package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter собирает маршруты API.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(Logger)
	r.Use(chiMiddleware.Recoverer)

	r.Get("/health", h.health)

	r.Route("/students", func(r chi.Router) {
		r.Post("/", h.createStudent)
		r.Get("/", h.listStudents)
		r.Get("/{studentID}", h.getStudent)
	})

	r.Post("/analyze", h.analyze)
	r.Post("/generate_plan", h.generatePlan)

	return r
}
