package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-verify/internal/web/handlers"
	"github.com/kozaktomas/face-verify/internal/web/middleware"
)

func (s *Server) setupRoutes() {
	verifyHandler := handlers.NewVerifyHandler(s.verifier)
	attemptsHandler := handlers.NewAttemptsHandler(s.attempts)

	s.router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAPIKey(s.config.Web.APIKey))

		// Path used by existing mobile clients
		r.Post("/verify_identity", verifyHandler.Verify)

		r.Route("/api/v1", func(r chi.Router) {
			r.Post("/verify", verifyHandler.Verify)

			r.Get("/attempts", attemptsHandler.List)
			r.Get("/attempts/{id}", attemptsHandler.Get)
		})
	})
}
