package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/voxroute/switchboard/internal/httpserver/deps"
	"github.com/voxroute/switchboard/internal/httpserver/handlers"
	"github.com/voxroute/switchboard/internal/httpserver/mw"
)

func init() { Register(registerDispatch) }

func registerDispatch(r chi.Router, d deps.Deps) {
	h := handlers.Dispatch(d)

	if d.DispatchBurst > 0 {
		limited := r.With(mw.RateLimit(mw.RateLimitConfig{
			Burst:             d.DispatchBurst,
			RefillPerIPPerMin: d.DispatchRefillMin,
			TrustProxy:        d.TrustProxy,
		}))
		limited.Post("/api/dispatch/{service}/{operation}", h)
		return
	}

	r.Post("/api/dispatch/{service}/{operation}", h)
}
