package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/voxroute/switchboard/internal/domain"
	"github.com/voxroute/switchboard/internal/httpserver/deps"
	"github.com/voxroute/switchboard/internal/logger"
)

type observationRequest struct {
	Service    string    `json:"service"`
	Status     string    `json:"status"`
	ObservedAt time.Time `json:"observed_at"` // zero = now
	LatencyMS  int64     `json:"latency_ms"`
	Source     string    `json:"source"`
}

var validStatuses = map[domain.Status]bool{
	domain.StatusHealthy:     true,
	domain.StatusDegraded:    true,
	domain.StatusUnreachable: true,
	domain.StatusUnknown:     true,
}

// PostObservation accepts an externally reported health observation.
// Observations older than what the board already holds are dropped.
func PostObservation(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req observationRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
			return
		}
		if req.Service == "" {
			writeError(w, http.StatusBadRequest, "service must not be empty")
			return
		}
		status := domain.Status(req.Status)
		if !validStatuses[status] {
			writeError(w, http.StatusBadRequest, "invalid status "+req.Status)
			return
		}

		obs := domain.Observation{
			Name:       req.Service,
			Status:     status,
			ObservedAt: req.ObservedAt,
			Latency:    time.Duration(req.LatencyMS) * time.Millisecond,
			Source:     req.Source,
		}
		if obs.ObservedAt.IsZero() {
			obs.ObservedAt = d.TimeNow()
		}
		if obs.Source == "" {
			obs.Source = "api"
		}

		d.Board.Apply(obs)
		d.Logger.Debug("observation applied",
			logger.String("service", req.Service),
			logger.String("status", string(status)),
			logger.String("source", obs.Source))
		w.WriteHeader(http.StatusAccepted)
	}
}

// TriggerProbe kicks off an immediate health sweep without waiting for
// the next ticker fire. Non-blocking: a sweep already pending wins.
func TriggerProbe(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.ProbeTrigger == nil {
			writeError(w, http.StatusServiceUnavailable, "prober not running")
			return
		}
		select {
		case d.ProbeTrigger <- struct{}{}:
		default:
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

// GetHealth returns the current (staleness-adjusted) snapshot for one service.
func GetHealth(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		snap := d.Board.Snapshot(name)
		snap.Status = snap.EffectiveStatus(d.TimeNow())
		writeJSON(w, http.StatusOK, snap)
	}
}
