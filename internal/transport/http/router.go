package http

import (
	"net/http"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/observability"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterConfig carries everything the HTTP surface needs.
type RouterConfig struct {
	Attempts  *app.AttemptService
	Catalog   *app.CatalogService
	Admin     *AdminAuth
	Collector *observability.Collector
	// StaticDir, when set, is served for every path no API route matches.
	StaticDir string
	// Tick is the websocket countdown interval.
	Tick time.Duration
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Collector != nil {
		r.Use(cfg.Collector.Middleware)
		r.Get("/metrics", cfg.Collector.MetricsHandler)
	} else {
		r.Use(middleware.Logger)
	}

	attempts := NewAttemptHandler(cfg.Attempts)
	catalog := NewCatalogHandler(cfg.Catalog)
	admin := NewAdminHandler(cfg.Catalog, cfg.Attempts)
	ws := NewWSHandler(cfg.Attempts, cfg.Catalog, cfg.Tick)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		})

		api.Get("/quizzes", catalog.List)
		api.Get("/quizzes/{id}", catalog.Get)

		api.Post("/attempts", attempts.Start)
		api.Get("/attempts/{id}", attempts.Get)
		api.Post("/attempts/{id}/answer", attempts.Answer)
		api.Post("/attempts/{id}/submit", attempts.Submit)

		api.Group(func(secure chi.Router) {
			secure.Use(cfg.Admin.Middleware)
			secure.Post("/admin/quizzes", admin.CreateQuiz)
			secure.Get("/admin/quizzes/{id}/attempts.xlsx", admin.AttemptsReport)
		})
	})

	r.Get("/ws", ws.ServeWS)

	if cfg.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(cfg.StaticDir)))
	}
	return r
}
