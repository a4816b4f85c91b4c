package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/tasknest/tasknest-go/internal/handler"
	"github.com/tasknest/tasknest-go/internal/metrics"
	"github.com/tasknest/tasknest-go/internal/middleware"
)

type routes struct {
	auth           *handler.AuthHandler
	tasks          *handler.TaskHandler
	authenticate   func(http.Handler) http.Handler
	metrics        *metrics.Metrics
	allowedOrigins []string
}

func newRouter(rt routes) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics(rt.metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", handler.HandleHealth)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", rt.auth.HandleRegister)
		r.Post("/login", rt.auth.HandleLogin)
		r.Post("/refresh", rt.auth.HandleRefresh)
		r.Post("/logout", rt.auth.HandleLogout)
		r.With(rt.authenticate).Get("/me", rt.auth.HandleMe)
	})

	r.Route("/tasks", func(r chi.Router) {
		r.Use(rt.authenticate)
		r.Get("/", rt.tasks.HandleListTasks)
		r.Post("/", rt.tasks.HandleCreateTask)
		r.Patch("/{id}", rt.tasks.HandleUpdateTask)
		r.Delete("/{id}", rt.tasks.HandleDeleteTask)
		r.Patch("/{id}/toggle", rt.tasks.HandleToggleTask)
	})

	return r
}

// newMetricsRouter serves /metrics on the separate, internal-only listener.
func newMetricsRouter(m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Method(http.MethodGet, "/metrics", m.Handler())
	return r
}
