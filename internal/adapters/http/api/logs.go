package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/futurisys/attrition/internal/adapters/repository"
)

// LogsHandler exposes the latest audit entry per employee.
type LogsHandler struct {
	deps Dependencies
}

// NewLogsHandler creates a logs handler.
func NewLogsHandler(deps Dependencies) *LogsHandler {
	return &LogsHandler{deps: deps}
}

// HandleGetPredictionLog handles GET /logs/prediction/{id}.
func (h *LogsHandler) HandleGetPredictionLog(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_prediction_log"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/logs/prediction/")
	id, err := strconv.ParseInt(path, 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "bad_request", newKind(op, ErrBadRequest))
		return
	}

	view, err := h.deps.LatestLog(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
