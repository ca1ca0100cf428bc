package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"delivery-analytics-service/internal/api/dto"
	"delivery-analytics-service/internal/services"
)

type PredictHandler struct {
	Predictor *services.Predictor
}

func (h *PredictHandler) Form(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, services.Form())
}

// Predict runs one delivery-time prediction for the posted form values.
func (h *PredictHandler) Predict(w http.ResponseWriter, r *http.Request) {
	var req dto.PredictRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	in := req.Input(services.DefaultInput())
	minutes, err := h.Predictor.Predict(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.PredictResponse{
		PredictedMinutes: minutes,
		Label:            fmt.Sprintf("%.1f minutes", minutes),
		Input:            in,
	})
}
