// Package repository defines the persistence interfaces and their Postgres
// implementations: the prediction audit log, the error log, and the
// read-only employee feature table.
package repository

import (
	"context"
	"time"

	"github.com/futurisys/attrition/internal/domain/record"
)

// PredictionLog is one persisted audit row. At most one live row exists per
// employee id; rows without an employee id accumulate.
type PredictionLog struct {
	ID          int64
	CreatedAt   time.Time
	Endpoint    string
	RequestedBy *string
	EmployeeID  *int64
	LatencyMS   *int64
	Status      string
	Payload     map[string]any
	Output      map[string]any
}

// ErrorLog is one persisted server-failure row, keyed by the opaque error id
// returned to the client.
type ErrorLog struct {
	ID           int64
	CreatedAt    time.Time
	Endpoint     *string
	HTTPStatus   *int
	ErrorClass   *string
	ErrorMessage *string
	Context      map[string]any
}

// LogStore provides write access to the audit tables and read access to the
// latest prediction row per subject.
type LogStore interface {
	// SavePrediction upserts one audit row. With a non-nil EmployeeID the
	// newest existing row for that subject is overwritten in place;
	// otherwise a new row is always inserted. Payload and output are
	// sanitized to JSON-native values before persisting. Returns the
	// persisted row with its generated id.
	SavePrediction(ctx context.Context, entry PredictionLog) (PredictionLog, error)

	// LatestPrediction returns the newest audit row for employeeID
	// (ties broken by highest id), or ErrNotFound.
	LatestPrediction(ctx context.Context, employeeID int64) (PredictionLog, error)

	// SaveError appends one error-log row. Append-only, no natural key.
	SaveError(ctx context.Context, entry ErrorLog) (ErrorLog, error)
}

// FeatureStore reads pre-loaded employee feature rows. The table is owned by
// an external loader; this service never writes it.
type FeatureStore interface {
	// GetEmployee returns the feature row for id, or ErrNotFound.
	GetEmployee(ctx context.Context, id int64) (*record.Stored, error)
}
