package http

import (
	"net/http"

	"github.com/atinyakov/catsapi/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs the HTTP handler that serves the API.
//
// Routes:
//
//	GET  /                          → service banner
//	GET  /health                    → liveness probe
//	GET  /api/v1/user               → accountHandler.List
//	POST /api/v1/user               → accountHandler.Register
//	GET  /api/v1/user/{username}    → accountHandler.Get
//	POST /api/v1/login              → accountHandler.Login
//	GET  /api/v1/me                 → accountHandler.Me (bearer token required)
//	GET  /api/v1/breeds             → breedHandler.List
//	GET  /api/v1/breeds/search      → breedHandler.Search
//	GET  /api/v1/breeds/{id}        → breedHandler.Get
func NewRouter(
	accountHandler *AccountHandler,
	breedHandler *BreedHandler,
	verifier middleware.TokenVerifier,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	// Requests with a body must be JSON
	r.Use(chiMiddleware.AllowContentType("application/json"))
	r.Use(middleware.WithRequestLogging(logger))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Cats API"})
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/user", func(r chi.Router) {
			r.Get("/", accountHandler.List)
			r.Post("/", accountHandler.Register)
			r.Get("/{username}", accountHandler.Get)
		})
		r.Post("/login", accountHandler.Login)

		// Protected group: requires a valid bearer token
		r.Group(func(r chi.Router) {
			r.Use(middleware.BearerAuth(verifier))
			r.Get("/me", accountHandler.Me)
		})

		r.Route("/breeds", func(r chi.Router) {
			r.Get("/", breedHandler.List)
			r.Get("/search", breedHandler.Search)
			r.Get("/{id}", breedHandler.Get)
		})
	})

	return r
}
