// Package types contains response shapes shared between the orchestrator
// and the HTTP layer.
package types

// Label values returned to clients.
const (
	LabelLeave = "OUI"
	LabelStay  = "NON"
)

// Prediction is the answer to both prediction endpoints.
type Prediction struct {
	EmployeeID *int64 `json:"employee_id"`
	Label      string `json:"pred_quitte_entreprise"`
}

// PredictionLogView is the client-facing projection of the latest audit row
// for one employee.
type PredictionLogView struct {
	EmployeeID int64          `json:"employee_id"`
	Payload    map[string]any `json:"payload"`
	Label      string         `json:"pred_quitte_entreprise,omitempty"`
}
