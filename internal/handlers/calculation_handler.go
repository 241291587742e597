package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "refiwizard/internal/errors"
	"refiwizard/internal/models"
	"refiwizard/internal/pagination"
	"refiwizard/internal/services"
	"refiwizard/internal/uuid"
)

// CalculationHandler handles calculation run requests.
type CalculationHandler struct {
	calculationService services.CalculationServicer
}

// NewCalculationHandler creates a new CalculationHandler.
func NewCalculationHandler(calculationService services.CalculationServicer) *CalculationHandler {
	return &CalculationHandler{calculationService: calculationService}
}

// RunCalculationRequest is the optional body for a calculation run.
type RunCalculationRequest struct {
	RunName string `json:"run_name" binding:"max=255"`
}

// RunDebtSchedule handles generating a debt amortization schedule.
// @Summary     Run debt schedule calculation
// @Description Build an annuity amortization schedule from the project's debt structure data
// @Tags        calculations
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       projectId path string true "Project ID"
// @Param       request body RunCalculationRequest false "Optional run name"
// @Success     200 {object} map[string]interface{} "Completed calculation run"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     422 {object} ErrorResponse "Calculation inputs invalid"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /projects/{projectId}/calculations/debt-schedule [post]
func (h *CalculationHandler) RunDebtSchedule(c *gin.Context) {
	h.run(c, models.CalculationTypeDebtSchedule)
}

// RunDepreciationSchedule handles generating a depreciation schedule.
// @Summary     Run depreciation schedule calculation
// @Description Build a straight-line depreciation schedule from the project's balance sheet data
// @Tags        calculations
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       projectId path string true "Project ID"
// @Param       request body RunCalculationRequest false "Optional run name"
// @Success     200 {object} map[string]interface{} "Completed calculation run"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     422 {object} ErrorResponse "Calculation inputs invalid"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /projects/{projectId}/calculations/depreciation-schedule [post]
func (h *CalculationHandler) RunDepreciationSchedule(c *gin.Context) {
	h.run(c, models.CalculationTypeDepreciationSchedule)
}

func (h *CalculationHandler) run(c *gin.Context, calcType models.CalculationType) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	projectID, err := parseProjectID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req RunCalculationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
	}

	run, err := h.calculationService.Run(projectID, calcType, req.RunName, userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	message := "Calculation completed successfully"
	if run.Status == models.CalculationStatusFailed {
		message = "Calculation failed"
	}
	respondOK(c, http.StatusOK, run, message, nil)
}

// ListCalculations handles listing a project's calculation runs.
// @Summary     List calculation runs
// @Description Get the project's calculation runs, newest first
// @Tags        calculations
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       projectId path  string true  "Project ID"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Page size (default 20, max 100)"
// @Success     200 {object} map[string]interface{} "Page of calculation runs"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /projects/{projectId}/calculations [get]
func (h *CalculationHandler) ListCalculations(c *gin.Context) {
	projectID, err := parseProjectID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	runs, err := h.calculationService.History(projectID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, runs, "Calculation runs retrieved successfully", nil)
}

// GetCalculation handles retrieving one calculation run with its output.
// @Summary     Get calculation run
// @Description Get one calculation run with its decoded output schedule
// @Tags        calculations
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       projectId path string true "Project ID"
// @Param       runId     path string true "Calculation run ID"
// @Success     200 {object} map[string]interface{} "Calculation run with output"
// @Failure     400 {object} ErrorResponse "Invalid run ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Run not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /projects/{projectId}/calculations/{runId} [get]
func (h *CalculationHandler) GetCalculation(c *gin.Context) {
	projectID, err := parseProjectID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	runID := c.Param("runId")
	if !uuid.IsValid(runID) {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid calculation run ID"))
		return
	}

	run, output, err := h.calculationService.GetRun(runID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if run.ProjectID != projectID {
		respondWithError(c, apperrors.ErrCalculationNotFound)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"run": run, "output": output}, "Calculation run retrieved successfully", nil)
}
