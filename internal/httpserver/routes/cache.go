package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/voxroute/switchboard/internal/httpserver/deps"
	"github.com/voxroute/switchboard/internal/httpserver/handlers"
)

func init() { Register(registerCache) }

func registerCache(r chi.Router, d deps.Deps) {
	r.Route("/api/cache", func(r chi.Router) {
		r.Get("/stats", handlers.CacheStats(d))
		r.Delete("/", handlers.InvalidateAllDecisions(d))
		r.Delete("/{name}", handlers.InvalidateDecision(d))
	})
}
