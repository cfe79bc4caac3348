package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/voxroute/switchboard/internal/domain"
	"github.com/voxroute/switchboard/internal/httpserver/deps"
	"github.com/voxroute/switchboard/internal/logger"
)

const maxDispatchBody = 4 << 20 // 4 MiB

// Dispatch routes one call through the proxy. The response body is the
// raw payload returned by the handler or the remote service.
//
// Error mapping:
//   - disabled / unknown service  -> 403
//   - all delivery attempts failed -> 503
//   - client went away             -> 499 (nginx convention)
//   - business error               -> 502, body passed through
func Dispatch(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		service := chi.URLParam(r, "service")
		operation := chi.URLParam(r, "operation")

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxDispatchBody))
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read body")
			return
		}

		out, err := d.Proxy.Dispatch(r.Context(), service, operation, payload)
		if err != nil {
			var de *domain.DisabledError
			var ue *domain.UnavailableError
			var be *domain.BusinessError
			switch {
			case errors.As(err, &de):
				writeError(w, http.StatusForbidden, de.Error())
			case errors.As(err, &ue):
				writeError(w, http.StatusServiceUnavailable, ue.Error())
			case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
				// 499: client closed request before we finished.
				writeError(w, 499, "request cancelled")
			case errors.As(err, &be):
				writeError(w, http.StatusBadGateway, be.Error())
			default:
				d.Logger.Warn("dispatch failed",
					logger.String("service", service),
					logger.String("operation", operation),
					logger.Error(err))
				writeError(w, http.StatusInternalServerError, err.Error())
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(out)
	}
}
