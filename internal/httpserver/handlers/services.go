package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/voxroute/switchboard/internal/domain"
	"github.com/voxroute/switchboard/internal/httpserver/deps"
	"github.com/voxroute/switchboard/internal/logger"
)

type serviceView struct {
	Name            string    `json:"name"`
	DisplayName     string    `json:"display_name"`
	DeclaredMode    string    `json:"declared_mode"`
	HasLocalHandler bool      `json:"has_local_handler"`
	Active          bool      `json:"active"`
	ProbeURL        string    `json:"probe_url,omitempty"`
	Health          string    `json:"health"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toView(desc *domain.ServiceDescriptor, health domain.Status) serviceView {
	return serviceView{
		Name:            desc.Name,
		DisplayName:     desc.DisplayName,
		DeclaredMode:    string(desc.DeclaredMode),
		HasLocalHandler: desc.HasLocalHandler,
		Active:          desc.Active,
		ProbeURL:        desc.ProbeURL,
		Health:          string(health),
		CreatedAt:       desc.CreatedAt,
		UpdatedAt:       desc.UpdatedAt,
	}
}

// ListServices returns every registered service with its current health.
func ListServices(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		descs, err := d.Registry.List(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "directory unavailable")
			return
		}
		views := make([]serviceView, 0, len(descs))
		for _, desc := range descs {
			views = append(views, toView(desc, d.Board.Status(desc.Name)))
		}
		writeJSON(w, http.StatusOK, views)
	}
}

type registerRequest struct {
	Name            string `json:"name"`
	DisplayName     string `json:"display_name"`
	HasLocalHandler bool   `json:"has_local_handler"`
	ProbeURL        string `json:"probe_url"`
}

// RegisterService creates a new service entry (declared REMOTE, active).
func RegisterService(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
			return
		}
		if err := d.Registry.Register(r.Context(), req.Name, req.DisplayName, req.HasLocalHandler, req.ProbeURL); err != nil {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		d.Logger.Info("service registered",
			logger.String("service", req.Name),
			logger.Bool("has_local_handler", req.HasLocalHandler))
		w.WriteHeader(http.StatusCreated)
	}
}

// GetDecision returns the effective routing decision for one service.
func GetDecision(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		dec, err := d.Registry.GetDecision(r.Context(), name)
		if err != nil {
			if errors.Is(err, domain.ErrServiceNotFound) {
				writeError(w, http.StatusNotFound, "unknown service "+name)
				return
			}
			writeError(w, http.StatusInternalServerError, "directory unavailable")
			return
		}
		writeJSON(w, http.StatusOK, dec)
	}
}

type modeRequest struct {
	Mode string `json:"mode"`
}

// SetMode updates the declared mode for one service. The cached decision
// is invalidated before the response is written.
func SetMode(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")

		var req modeRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
			return
		}
		mode, err := domain.ParseMode(req.Mode)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		if err := d.Registry.UpdateDeclaredMode(r.Context(), name, mode); err != nil {
			if errors.Is(err, domain.ErrServiceNotFound) {
				writeError(w, http.StatusNotFound, "unknown service "+name)
				return
			}
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		d.Logger.Info("declared mode updated",
			logger.String("service", name),
			logger.String("mode", string(mode)))
		w.WriteHeader(http.StatusNoContent)
	}
}

type activeRequest struct {
	Active bool `json:"active"`
}

// SetActive soft-enables or soft-disables a service.
func SetActive(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")

		var req activeRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
			return
		}

		if err := d.Registry.SetActive(r.Context(), name, req.Active); err != nil {
			if errors.Is(err, domain.ErrServiceNotFound) {
				writeError(w, http.StatusNotFound, "unknown service "+name)
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		d.Logger.Info("service active flag updated",
			logger.String("service", name),
			logger.Bool("active", req.Active))
		w.WriteHeader(http.StatusNoContent)
	}
}

type bulkModeRequest struct {
	Modes map[string]string `json:"modes"`
}

// BulkMode applies declared-mode updates for several services at once.
// Per-name failures (unknown service, invalid mode) never abort the batch.
func BulkMode(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bulkModeRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
			return
		}
		if len(req.Modes) == 0 {
			writeError(w, http.StatusBadRequest, "modes must not be empty")
			return
		}

		parsed := make(map[string]domain.Mode, len(req.Modes))
		parseFailed := make(map[string]string)
		for name, raw := range req.Modes {
			mode, err := domain.ParseMode(raw)
			if err != nil {
				parseFailed[name] = err.Error()
				continue
			}
			parsed[name] = mode
		}

		res := d.Registry.BulkUpdate(r.Context(), parsed)
		for name, msg := range parseFailed {
			if res.Failed == nil {
				res.Failed = make(map[string]string, len(parseFailed))
			}
			res.Failed[name] = msg
		}

		d.Logger.Info("bulk mode update applied",
			logger.Int("updated", len(res.Updated)),
			logger.Int("failed", len(res.Failed)))
		writeJSON(w, http.StatusOK, res)
	}
}

type migrateRequest struct {
	LocalEnabled bool `json:"local_enabled"`
}

type migrateResponse struct {
	Plan  map[string]domain.Mode `json:"plan"`
	Error string                 `json:"error,omitempty"`
}

// MigrateGlobalFlag converts a legacy all-or-nothing routing flag into
// per-service declared modes. Safe to call more than once.
func MigrateGlobalFlag(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req migrateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
			return
		}

		plan, err := d.Registry.MigrateFromGlobalFlag(r.Context(), req.LocalEnabled)
		if err != nil {
			// Partial application: report what was applied so a re-run
			// can pick up the rest.
			writeJSON(w, http.StatusInternalServerError, migrateResponse{Plan: plan, Error: err.Error()})
			return
		}

		d.Logger.Info("global flag migration applied",
			logger.Bool("local_enabled", req.LocalEnabled),
			logger.Int("services", len(plan)))
		writeJSON(w, http.StatusOK, migrateResponse{Plan: plan})
	}
}
