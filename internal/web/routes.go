// Package web exposes fraud predictions and account management as a JSON API.
//
// Routes:
//   - GET  /healthz
//   - POST /api/register, /api/login, /api/logout, /api/password/reset
//   - GET  /api/me, /api/history, /api/history/export (signed in)
//   - POST /api/predict (signed in)
package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Routes builds the API router.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(h.sessions.Middleware)

	r.Get("/healthz", h.Health)

	r.Route("/api", func(api chi.Router) {
		api.Post("/register", h.Register)
		api.Post("/login", h.Login)
		api.Post("/logout", h.Logout)
		api.Post("/password/reset", h.ResetPassword)

		api.Group(func(signedIn chi.Router) {
			signedIn.Use(h.sessions.Require)
			signedIn.Get("/me", h.Me)
			signedIn.Post("/predict", h.Predict)
			signedIn.Get("/history", h.History)
			signedIn.Get("/history/export", h.ExportHistory)
		})
	})

	return r
}
