package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Router builds the route table. Registration, login, and the reset flow are
// open; profile requires an identity resolved by the configured extractor.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(s.requestLogger)

	r.Get("/", s.handleIndex)
	r.Post("/users", s.handleRegister)
	r.Post("/sessions", s.handleLogin)
	r.Delete("/sessions", s.handleLogout)
	r.Post("/reset_password", s.handleResetRequest)
	r.Put("/reset_password", s.handleResetConsume)

	r.Group(func(r chi.Router) {
		r.Use(s.requireIdentity)
		r.Get("/profile", s.handleProfile)
	})

	return r
}
