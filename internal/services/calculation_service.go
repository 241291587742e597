package services

import (
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"refiwizard/internal/calc"
	apperrors "refiwizard/internal/errors"
	"refiwizard/internal/logger"
	"refiwizard/internal/models"
	"refiwizard/internal/pagination"
	"refiwizard/internal/schema"
)

// calculationService runs the amortization calculators against the current
// data-entry records and persists each execution as a calculation run.
type calculationService struct {
	db      *gorm.DB
	records VersionedRecordServicer
}

// NewCalculationService creates a new CalculationServicer.
func NewCalculationService(db *gorm.DB, records VersionedRecordServicer) CalculationServicer {
	return &calculationService{db: db, records: records}
}

// Run executes the requested calculator synchronously. Invalid inputs are
// persisted as failed runs with their error message; storage failures
// propagate without leaving a run row.
func (s *calculationService) Run(projectID string, calcType models.CalculationType, runName, actor string) (*models.CalculationRun, error) {
	started := time.Now()
	input, output, calcErr := s.execute(projectID, calcType)
	elapsed := time.Since(started)

	if calcErr != nil && !errors.Is(calcErr, apperrors.ErrInvalidCalculation) {
		return nil, calcErr
	}

	inputDoc, err := json.Marshal(input)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	run := &models.CalculationRun{
		ProjectID:       projectID,
		CalculationType: calcType,
		Status:          models.CalculationStatusRunning,
		RunName:         runName,
		TriggeredBy:     actor,
		InputData:       string(inputDoc),
	}
	if err := s.db.Create(run).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	if calcErr != nil {
		return s.fail(run, calcErr)
	}

	outputDoc, err := json.Marshal(output)
	if err != nil {
		return s.fail(run, err)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":            models.CalculationStatusCompleted,
		"output_data":       string(outputDoc),
		"execution_time_ms": elapsed.Milliseconds(),
		"completed_at":      now,
	}
	if err := s.db.Model(run).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	run.Status = models.CalculationStatusCompleted
	run.OutputData = string(outputDoc)
	run.ExecutionTimeMS = elapsed.Milliseconds()
	run.CompletedAt = &now
	return run, nil
}

func (s *calculationService) fail(run *models.CalculationRun, cause error) (*models.CalculationRun, error) {
	logger.Get().Errorw("calculation run failed",
		"run_id", run.ID,
		"project_id", run.ProjectID,
		"calculation_type", run.CalculationType,
		"error", cause.Error(),
	)

	now := time.Now()
	updates := map[string]interface{}{
		"status":        models.CalculationStatusFailed,
		"error_message": cause.Error(),
		"completed_at":  now,
	}
	if err := s.db.Model(run).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	run.Status = models.CalculationStatusFailed
	run.ErrorMessage = cause.Error()
	run.CompletedAt = &now
	return run, nil
}

// execute gathers calculator input from the current records and runs the
// requested schedule.
func (s *calculationService) execute(projectID string, calcType models.CalculationType) (map[string]interface{}, map[string]interface{}, error) {
	switch calcType {
	case models.CalculationTypeDebtSchedule:
		return s.debtSchedule(projectID)
	case models.CalculationTypeDepreciationSchedule:
		return s.depreciationSchedule(projectID)
	default:
		return nil, nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Unsupported calculation type")
	}
}

func (s *calculationService) debtSchedule(projectID string) (map[string]interface{}, map[string]interface{}, error) {
	record, err := s.records.Get(schema.DebtStructure.EntityType, projectID)
	if err != nil {
		return nil, nil, err
	}
	if record == nil {
		return nil, nil, apperrors.WithMessage(apperrors.ErrInvalidCalculation, "No debt structure data for this project")
	}
	fields := record.Fields

	tranches := []calc.DebtTranche{
		{
			Name:      "senior_secured",
			Principal: fieldNumber(fields, "total_debt") + fieldNumber(fields, "additional_loan_senior_secured"),
			AnnualRatePercent: fieldNumber(fields, "bank_base_rate_senior_secured") +
				fieldNumber(fields, "liquidity_premiums_senior_secured") +
				fieldNumber(fields, "credit_risk_premiums_senior_secured"),
			MaturityYears: fieldNumber(fields, "maturity_y_senior_secured"),
		},
		{
			Name:      "short_term",
			Principal: fieldNumber(fields, "additional_loan_short_term"),
			AnnualRatePercent: fieldNumber(fields, "bank_base_rate_short_term") +
				fieldNumber(fields, "liquidity_premiums_short_term") +
				fieldNumber(fields, "credit_risk_premiums_short_term"),
			MaturityYears: fieldNumber(fields, "maturity_y_short_term"),
		},
	}

	input := map[string]interface{}{"tranches": tranches, "source_version": record.Version}

	rows, err := calc.DebtSchedule(tranches)
	if err != nil {
		return input, nil, apperrors.WithMessage(apperrors.ErrInvalidCalculation, err.Error())
	}
	return input, map[string]interface{}{"schedule": rows}, nil
}

func (s *calculationService) depreciationSchedule(projectID string) (map[string]interface{}, map[string]interface{}, error) {
	record, err := s.records.Get(schema.BalanceSheet.EntityType, projectID)
	if err != nil {
		return nil, nil, err
	}
	if record == nil {
		return nil, nil, apperrors.WithMessage(apperrors.ErrInvalidCalculation, "No balance sheet data for this project")
	}
	fields := record.Fields

	input := calc.DepreciationInput{
		CapexAdditions: fieldNumber(fields, "capital_expenditure_additions"),
		AssetLifeYears: int(fieldNumber(fields, "asset_depreciated_over_years")),
	}
	inputDoc := map[string]interface{}{
		"capex_additions":  input.CapexAdditions,
		"asset_life_years": input.AssetLifeYears,
		"source_version":   record.Version,
	}

	rows, err := calc.StraightLineDepreciation(input)
	if err != nil {
		return inputDoc, nil, apperrors.WithMessage(apperrors.ErrInvalidCalculation, err.Error())
	}
	return inputDoc, map[string]interface{}{"schedule": rows}, nil
}

// History returns a page of calculation runs for a project, newest first.
func (s *calculationService) History(projectID string, page pagination.PageRequest) (pagination.PageResponse[models.CalculationRun], error) {
	page.Defaults()

	var total int64
	if err := s.db.Model(&models.CalculationRun{}).Where("project_id = ?", projectID).Count(&total).Error; err != nil {
		return pagination.PageResponse[models.CalculationRun]{}, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	var runs []models.CalculationRun
	err := s.db.
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Scopes(pagination.Paginate(page)).
		Find(&runs).Error
	if err != nil {
		return pagination.PageResponse[models.CalculationRun]{}, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return pagination.NewPageResponse(runs, page.Page, page.PageSize, total), nil
}

// GetRun returns one run with its output blob decoded.
func (s *calculationService) GetRun(runID string) (*models.CalculationRun, map[string]interface{}, error) {
	var run models.CalculationRun
	if err := s.db.Where("id = ?", runID).First(&run).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.ErrCalculationNotFound
		}
		return nil, nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	output := map[string]interface{}{}
	if run.OutputData != "" {
		if err := json.Unmarshal([]byte(run.OutputData), &output); err != nil {
			return nil, nil, apperrors.Wrap(apperrors.ErrStorage, err)
		}
	}
	return &run, output, nil
}

// fieldNumber reads a numeric field from a decoded record, treating null
// and missing values as 0.
func fieldNumber(fields map[string]interface{}, name string) float64 {
	switch v := fields[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}
