// Package service orchestrates one prediction request end to end:
// validate, normalize, predict, audit, respond.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/futurisys/attrition/internal/adapters/repository"
	"github.com/futurisys/attrition/internal/domain/features"
	"github.com/futurisys/attrition/internal/domain/model"
	"github.com/futurisys/attrition/internal/domain/record"
	"github.com/futurisys/attrition/internal/domain/types"
	"github.com/futurisys/attrition/pkg/logger"
	"github.com/futurisys/attrition/pkg/metrics"
)

// Audit write deadline once the caller's context no longer applies.
const auditTimeout = 5 * time.Second

// Service wires the prediction pipeline. All collaborators are injected;
// there is no package-level state.
type Service struct {
	logger    logger.Logger
	engine    model.Predictor
	logs      repository.LogStore
	employees repository.FeatureStore
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPredictor sets the prediction engine.
func WithPredictor(p model.Predictor) Option {
	return func(s *Service) {
		if p != nil {
			s.engine = p
		}
	}
}

// WithLogStore sets the audit log store.
func WithLogStore(store repository.LogStore) Option {
	return func(s *Service) {
		if store != nil {
			s.logs = store
		}
	}
}

// WithFeatureStore sets the employee feature reader.
func WithFeatureStore(store repository.FeatureStore) Option {
	return func(s *Service) {
		if store != nil {
			s.employees = store
		}
	}
}

// New constructs a Service from options. Engine and stores must be provided
// by the caller; the logger falls back to the global one on first use.
func New(opts ...Option) *Service {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// log returns the injected logger, falling back to the global one without
// caching it: concurrent requests share the Service.
func (s *Service) log() logger.Logger {
	if s.logger != nil {
		return s.logger
	}
	return logger.Get()
}

// Predict validates the raw client payload, runs the classifier and answers
// with the OUI/NON label. Validation failures and engine failures propagate;
// an audit write failure never does.
func (s *Service) Predict(ctx context.Context, raw map[string]any) (types.Prediction, error) {
	start := time.Now()

	rec, err := record.FromMap(raw)
	if err != nil {
		metrics.RecordValidationError()
		return types.Prediction{}, err
	}

	vec := features.FromRecord(rec)
	label, err := s.engine.PredictLabel(ctx, vec)
	if err != nil {
		metrics.RecordModelError()
		return types.Prediction{}, fmt.Errorf("predict employee %d: %w", rec.IDEmployee, err)
	}
	pred := labelString(label)
	metrics.RecordPrediction(pred)
	metrics.RecordPredictionLatency(float64(time.Since(start).Milliseconds()))

	id := rec.IDEmployee
	latency := time.Since(start).Milliseconds()
	s.audit(ctx, repository.PredictionLog{
		Endpoint:   "/predict",
		EmployeeID: &id,
		LatencyMS:  &latency,
		Status:     "OK",
		Payload:    map[string]any(vec),
		Output:     map[string]any{"pred_quitte_entreprise": pred},
	})

	return types.Prediction{EmployeeID: &id, Label: pred}, nil
}

// PredictByID reads the stored feature row for id, applies the same
// normalization rules as the client path and predicts. Returns
// repository.ErrNotFound when the subject has no stored features.
func (s *Service) PredictByID(ctx context.Context, id int64) (types.Prediction, error) {
	start := time.Now()

	row, err := s.employees.GetEmployee(ctx, id)
	if err != nil {
		return types.Prediction{}, err
	}

	vec := features.FromStored(row)
	label, err := s.engine.PredictLabel(ctx, vec)
	if err != nil {
		metrics.RecordModelError()
		return types.Prediction{}, fmt.Errorf("predict employee %d: %w", id, err)
	}
	pred := labelString(label)
	metrics.RecordPrediction(pred)
	metrics.RecordPredictionLatency(float64(time.Since(start).Milliseconds()))

	latency := time.Since(start).Milliseconds()
	s.audit(ctx, repository.PredictionLog{
		Endpoint:   fmt.Sprintf("/predict/by-id/%d", id),
		EmployeeID: &id,
		LatencyMS:  &latency,
		Status:     "OK",
		Payload:    map[string]any{"employee_id": id, "features": map[string]any(vec)},
		Output:     map[string]any{"pred_quitte_entreprise": pred},
	})

	return types.Prediction{EmployeeID: &id, Label: pred}, nil
}

// LatestLog returns the newest audit row for an employee.
func (s *Service) LatestLog(ctx context.Context, id int64) (types.PredictionLogView, error) {
	row, err := s.logs.LatestPrediction(ctx, id)
	if err != nil {
		return types.PredictionLogView{}, err
	}
	view := types.PredictionLogView{
		EmployeeID: id,
		Payload:    row.Payload,
	}
	if pred, ok := row.Output["pred_quitte_entreprise"].(string); ok {
		view.Label = pred
	}
	return view, nil
}

// RecordError writes a best-effort error-log row for a failed request.
// Used by the HTTP layer for 5xx responses; failures are only logged.
func (s *Service) RecordError(ctx context.Context, endpoint string, httpStatus int, errorClass, message string, detail map[string]any) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()

	entry := repository.ErrorLog{
		Endpoint:     &endpoint,
		HTTPStatus:   &httpStatus,
		ErrorClass:   &errorClass,
		ErrorMessage: &message,
		Context:      detail,
	}
	if _, err := s.logs.SaveError(ctx, entry); err != nil {
		s.log().Warn(ctx, "error log write failed",
			logger.String("endpoint", endpoint),
			logger.Error(err),
		)
	}
}

// audit upserts the prediction log row. The write survives caller
// cancellation but is bounded, and its error is deliberately discarded at
// warn level: auditing never blocks or fails the response.
func (s *Service) audit(ctx context.Context, entry repository.PredictionLog) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()

	if _, err := s.logs.SavePrediction(ctx, entry); err != nil {
		metrics.RecordAuditFailure()
		s.log().Warn(ctx, "prediction audit write failed",
			logger.String("endpoint", entry.Endpoint),
			logger.Error(err),
		)
		return
	}
	metrics.RecordAuditWrite()
}

func labelString(label int) string {
	if label == 1 {
		return types.LabelLeave
	}
	return types.LabelStay
}
