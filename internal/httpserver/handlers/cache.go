package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/voxroute/switchboard/internal/httpserver/deps"
	"github.com/voxroute/switchboard/internal/logger"
)

// InvalidateDecision drops the cached routing decision for one service.
// The next dispatch recomputes from the directory and health board.
func InvalidateDecision(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		d.Registry.InvalidateDecision(r.Context(), name)
		d.Logger.Info("decision invalidated", logger.String("service", name))
		w.WriteHeader(http.StatusNoContent)
	}
}

// InvalidateAllDecisions flushes the whole decision cache.
func InvalidateAllDecisions(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.Registry.InvalidateAll(r.Context())
		d.Logger.Info("decision cache flushed")
		w.WriteHeader(http.StatusNoContent)
	}
}

// CacheStats exposes hit/miss/invalidation counters.
func CacheStats(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Registry.CacheStats())
	}
}
