package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/futurisys/attrition/internal/adapters/repository"
	"github.com/futurisys/attrition/internal/domain/record"
)

// PredictHandler serves both prediction entry points.
type PredictHandler struct {
	deps Dependencies
}

// NewPredictHandler creates a prediction handler.
func NewPredictHandler(deps Dependencies) *PredictHandler {
	return &PredictHandler{deps: deps}
}

// HandlePredict handles POST /predict. The body is decoded with UseNumber
// so the validator can distinguish strict integers from floats.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}

	pred, err := h.deps.Predict(r.Context(), raw)
	if err != nil {
		h.writePredictError(w, r, "/predict", err)
		return
	}
	writeJSON(w, http.StatusOK, pred)
}

// HandlePredictByID handles GET /predict/by-id/{id}.
func (h *PredictHandler) HandlePredictByID(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict_by_id"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/predict/by-id/")
	id, err := strconv.ParseInt(path, 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "bad_request", newKind(op, ErrBadRequest))
		return
	}

	pred, err := h.deps.PredictByID(r.Context(), id)
	if err != nil {
		// Missing feature rows surface as unprocessable input, same as a
		// payload that fails validation.
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusUnprocessableEntity, "not_found", err)
			return
		}
		h.writePredictError(w, r, r.URL.Path, err)
		return
	}
	writeJSON(w, http.StatusOK, pred)
}

// writePredictError translates pipeline failures: validation errors carry
// field detail at 422, everything else is an opaque 500 with a correlation
// id and a best-effort error-log row. Internals never leak.
func (h *PredictHandler) writePredictError(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	if errors.Is(err, record.ErrValidation) {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", err)
		return
	}

	errorID := uuid.NewString()
	h.deps.RecordError(r.Context(), endpoint, http.StatusInternalServerError, "ModelError", err.Error(), map[string]any{
		"error_id": errorID,
		"method":   r.Method,
	})
	writeJSON(w, http.StatusInternalServerError, errorResponse{
		Code:    "internal_error",
		Message: "prediction failed",
		ErrorID: errorID,
	})
}
