package models

import "time"

// CalculationType identifies which amortization calculator produced a run.
type CalculationType string

const (
	CalculationTypeDebtSchedule         CalculationType = "debt_schedule"
	CalculationTypeDepreciationSchedule CalculationType = "depreciation_schedule"
)

// CalculationStatus tracks the lifecycle of a calculation run.
type CalculationStatus string

const (
	CalculationStatusRunning   CalculationStatus = "running"
	CalculationStatusCompleted CalculationStatus = "completed"
	CalculationStatusFailed    CalculationStatus = "failed"
)

// CalculationRun records one execution of an amortization calculator,
// with the input snapshot it consumed and the schedule blob it produced.
type CalculationRun struct {
	Base
	ProjectID       string            `gorm:"type:uuid;not null;index" json:"project_id"`
	CalculationType CalculationType   `gorm:"not null" json:"calculation_type"`
	Status          CalculationStatus `gorm:"not null" json:"status"`
	RunName         string            `json:"run_name,omitempty"`
	TriggeredBy     string            `gorm:"type:uuid" json:"triggered_by"`
	InputData       string            `json:"-"`
	OutputData      string            `json:"-"`
	ErrorMessage    string            `json:"error_message,omitempty"`
	ExecutionTimeMS int64             `json:"execution_time_ms"`
	CompletedAt     *time.Time        `json:"completed_at,omitempty"`
}
