package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/voxroute/switchboard/internal/httpserver/deps"
	"github.com/voxroute/switchboard/internal/httpserver/handlers"
)

func init() { Register(registerObservations) }

func registerObservations(r chi.Router, d deps.Deps) {
	r.Post("/api/health/observations", handlers.PostObservation(d))
	r.Post("/api/health/probe", handlers.TriggerProbe(d))
}
