package handlers

import (
	"net/http"

	"github.com/voxroute/switchboard/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready    bool `json:"ready"`
	Services int  `json:"services"`
}

// Readyz reports ready once the directory store answers a List. A failing
// backend (redis down at startup) makes the instance not-ready.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		descs, err := d.Registry.List(r.Context())
		if err != nil {
			writeJSON(w, http.StatusServiceUnavailable, readyzResponse{Ready: false})
			return
		}
		writeJSON(w, http.StatusOK, readyzResponse{Ready: true, Services: len(descs)})
	}
}
