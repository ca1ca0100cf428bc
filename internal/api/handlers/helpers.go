package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"delivery-analytics-service/internal/platform/obs"
	"delivery-analytics-service/internal/regression"
	"delivery-analytics-service/internal/services"

	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("encode failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// writeServiceError maps service sentinels to status codes; anything else is a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrBadSelection), errors.Is(err, services.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNoData):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, regression.ErrModelUnavailable):
		writeError(w, r, http.StatusServiceUnavailable, err.Error())
	default:
		zap.L().Error("request failed",
			zap.String("req_id", obs.RequestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}
