// Package api declares the HTTP contracts and route registration for the
// prediction service.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/futurisys/attrition/internal/domain/types"
)

// Dependencies bundles everything the handlers need from the orchestrator.
// An interface keeps the handler layer decoupled from the service package.
type Dependencies interface {
	// Predict classifies a raw client payload.
	Predict(ctx context.Context, raw map[string]any) (types.Prediction, error)

	// PredictByID classifies from the stored feature row.
	PredictByID(ctx context.Context, id int64) (types.Prediction, error)

	// LatestLog returns the newest audit entry for an employee.
	LatestLog(ctx context.Context, id int64) (types.PredictionLogView, error)

	// RecordError persists a best-effort error-log row for 5xx responses.
	RecordError(ctx context.Context, endpoint string, httpStatus int, errorClass, message string, detail map[string]any)
}

// Server wires HTTP routes for the prediction API.
type Server struct {
	predictHandler *PredictHandler
	logsHandler    *LogsHandler
	healthHandler  *HealthHandler
	auth           *authGuard
}

// NewServer creates the API server. An empty apiKey disables authentication.
func NewServer(deps Dependencies, apiKey string) *Server {
	return &Server{
		predictHandler: NewPredictHandler(deps),
		logsHandler:    NewLogsHandler(deps),
		healthHandler:  NewHealthHandler(),
		auth:           &authGuard{expected: apiKey},
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/health", MetricsMiddleware(s.healthHandler.HandleHealth, "health"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/predict", MetricsMiddleware(s.auth.require(s.predictHandler.HandlePredict), "predict"))
	mux.HandleFunc("/predict/by-id/", MetricsMiddleware(s.auth.require(s.predictHandler.HandlePredictByID), "predict_by_id"))
	mux.HandleFunc("/logs/prediction/", MetricsMiddleware(s.auth.require(s.logsHandler.HandleGetPredictionLog), "logs_prediction"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	ErrorID string `json:"error_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
