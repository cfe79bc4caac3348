package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/voxroute/switchboard/internal/httpserver/deps"
	"github.com/voxroute/switchboard/internal/httpserver/handlers"
)

func init() { Register(registerServices) }

func registerServices(r chi.Router, d deps.Deps) {
	r.Route("/api/services", func(r chi.Router) {
		r.Get("/", handlers.ListServices(d))
		r.Post("/", handlers.RegisterService(d))
		r.Post("/bulk-mode", handlers.BulkMode(d))
		r.Get("/{name}/decision", handlers.GetDecision(d))
		r.Get("/{name}/health", handlers.GetHealth(d))
		r.Put("/{name}/mode", handlers.SetMode(d))
		r.Put("/{name}/active", handlers.SetActive(d))
	})

	r.Post("/api/migrate-global-flag", handlers.MigrateGlobalFlag(d))
}
