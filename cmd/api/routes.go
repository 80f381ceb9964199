package main

import (
	"moviehub/proj/internal/domain/models"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

func (app *Application) routes() http.Handler {
	router := chi.NewRouter()
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		app.Http.NotFound(w, r, "Page not found")
	})
	router.MethodNotAllowed(app.Http.MethodNotAllowed)
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   app.cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	}).Handler)
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(app.Recoverer)
	router.Use(app.RateLimiter)
	router.Use(app.Authenticate)
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthcheck", app.healthcheck)
		r.Route("/session", func(r chi.Router) {
			r.Get("/", app.getSession)
			r.Delete("/", app.logout)
			r.Post("/login", app.login)
			r.Post("/register", app.register)
		})
		r.Route("/profiles", func(r chi.Router) {
			r.Use(app.requireAuthenticatedUser)
			r.Get("/", app.getProfiles)
			r.Post("/", app.createProfile)
			r.Post("/refresh", app.refreshProfiles)
			r.Post("/reconcile", app.reconcileProfiles)
			r.Put("/active", app.selectProfile)
			r.Put("/{id}", app.updateProfile)
			r.Delete("/{id}", app.deleteProfile)
		})
		r.Route("/movies", func(r chi.Router) {
			r.Use(app.requireAuthenticatedUser)
			r.Get("/", app.getMovies)
			r.Get("/{id}", app.getMovie)
			r.Group(func(r chi.Router) {
				r.Use(app.requireRole(models.RoleOwner))
				r.Post("/", app.createMovie)
				r.Put("/{id}", app.updateMovie)
				r.Delete("/{id}", app.deleteMovie)
			})
		})
		r.Route("/watchlist", func(r chi.Router) {
			r.Get("/", app.getWatchlist)
			r.Post("/", app.addToWatchlist)
			r.Delete("/", app.clearWatchlist)
			r.Delete("/{id}", app.removeFromWatchlist)
		})
		r.Get("/gate", app.gate)
		r.Get("/guard", app.guard)
		r.Get("/notices", app.listNotices)
		r.Route("/theme", func(r chi.Router) {
			r.Get("/", app.getTheme)
			r.Put("/", app.setTheme)
			r.Post("/toggle", app.toggleTheme)
		})
	})
	return router
}
