package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "refiwizard/internal/errors"
	"refiwizard/internal/schema"
	"refiwizard/internal/services"
)

// ResourceHandler serves one data-entry resource (profit & loss, debt
// structure, ...) through the uniform versioned-record contract. One
// instance is mounted per registered schema.
type ResourceHandler struct {
	schema       *schema.Schema
	records      services.VersionedRecordServicer
	auditQueries services.AuditQueryServicer
}

// NewResourceHandler creates a ResourceHandler for the given schema.
func NewResourceHandler(sch *schema.Schema, records services.VersionedRecordServicer, auditQueries services.AuditQueryServicer) *ResourceHandler {
	return &ResourceHandler{schema: sch, records: records, auditQueries: auditQueries}
}

// RegisterRoutes mounts the resource's routes on the given project group.
func (h *ResourceHandler) RegisterRoutes(projects *gin.RouterGroup) {
	res := projects.Group("/" + h.schema.ResourcePath)
	res.GET("", h.Get)
	res.PUT("", h.Save)
	res.PATCH("", h.Save)
	res.DELETE("", h.Delete)
	res.GET("/audit-history", h.AuditHistory)
	res.GET("/audit-stats", h.AuditStats)
}

// Get handles retrieving the current record for a project.
// @Summary     Get data entry record
// @Description Get the current versioned record of a resource for a project
// @Tags        data-entry
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       projectId path string true "Project ID"
// @Success     200 {object} map[string]interface{} "Current record or null"
// @Failure     400 {object} ErrorResponse "Invalid project ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /projects/{projectId}/{resource} [get]
func (h *ResourceHandler) Get(c *gin.Context) {
	projectID, err := parseProjectID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	record, err := h.records.Get(h.schema.EntityType, projectID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	message := "Data retrieved successfully"
	if record == nil {
		message = "No data found"
	}
	respondOK(c, http.StatusOK, record, message, nil)
}

// Save handles creating or updating the record from a full or partial
// candidate payload. Fields absent from the payload are left untouched.
// @Summary     Save data entry record
// @Description Create or partially update the record; only fields whose values actually changed are written and audited
// @Tags        data-entry
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       projectId path string true "Project ID"
// @Param       request body map[string]interface{} true "Candidate fields, optionally with change_reason"
// @Success     200 {object} map[string]interface{} "Saved record with audit summary"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Concurrent modification"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /projects/{projectId}/{resource} [put]
func (h *ResourceHandler) Save(c *gin.Context) {
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

	var payload map[string]interface{}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	if len(payload) == 0 {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "At least one field must be provided"))
		return
	}

	reason, _ := payload["change_reason"].(string)
	delete(payload, "change_reason")

	result, err := h.records.Save(h.schema.EntityType, projectID, payload, userID, reason, c.ClientIP())
	if err != nil {
		respondWithError(c, err)
		return
	}

	message := "Data updated successfully"
	switch {
	case result.Audit.IsNewRecord:
		message = "Data created successfully"
	case !result.Audit.ChangesDetected:
		message = "No changes detected"
	}
	respondOK(c, http.StatusOK, result.Record, message, result.Audit)
}

// Delete handles removing the record. Deleting a project without data is a
// success with no audit entry.
// @Summary     Delete data entry record
// @Description Delete the record, appending a terminal audit event with the full pre-delete snapshot
// @Tags        data-entry
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       projectId path string true "Project ID"
// @Success     200 {object} map[string]interface{} "Deleted snapshot with audit summary"
// @Failure     400 {object} ErrorResponse "Invalid project ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /projects/{projectId}/{resource} [delete]
func (h *ResourceHandler) Delete(c *gin.Context) {
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

	result, err := h.records.Delete(h.schema.EntityType, projectID, userID, c.Query("change_reason"), c.ClientIP())
	if err != nil {
		respondWithError(c, err)
		return
	}

	message := "Data deleted successfully"
	if !result.Audit.ChangesDetected {
		message = "No data found to delete"
	}
	respondOK(c, http.StatusOK, result.Record, message, result.Audit)
}

// AuditHistory handles listing the record's change history.
// @Summary     Get audit history
// @Description Get the change history of the record, newest first; filter by field with ?field=
// @Tags        data-entry
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       projectId path  string true  "Project ID"
// @Param       limit     query int    false "Maximum entries (default 50)"
// @Param       offset    query int    false "Entries to skip"
// @Param       field     query string false "Only events that changed this field"
// @Success     200 {object} map[string]interface{} "Audit entries"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /projects/{projectId}/{resource}/audit-history [get]
func (h *ResourceHandler) AuditHistory(c *gin.Context) {
	projectID, err := parseProjectID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	limit, offset, err := parseHistoryWindow(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var entries []services.AuditEntry
	if field := c.Query("field"); field != "" {
		entries, err = h.auditQueries.FieldHistory(h.schema.EntityType, projectID, field, limit)
	} else {
		entries, err = h.auditQueries.History(h.schema.EntityType, projectID, limit, offset)
	}
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, entries, "Audit history retrieved successfully", nil)
}

// AuditStats handles aggregating the record's change history.
// @Summary     Get audit statistics
// @Description Get total changes, last modification, per-action counts and most changed fields
// @Tags        data-entry
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       projectId path string true "Project ID"
// @Success     200 {object} map[string]interface{} "Audit statistics"
// @Failure     400 {object} ErrorResponse "Invalid project ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /projects/{projectId}/{resource}/audit-stats [get]
func (h *ResourceHandler) AuditStats(c *gin.Context) {
	projectID, err := parseProjectID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	stats, err := h.auditQueries.Stats(h.schema.EntityType, projectID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, stats, "Audit statistics retrieved successfully", nil)
}

// parseHistoryWindow reads the limit/offset query parameters. A zero limit
// lets the service apply its own default.
func parseHistoryWindow(c *gin.Context) (limit, offset int, err error) {
	if v := c.Query("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 1 || limit > 500 {
			return 0, 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "limit must be between 1 and 500")
		}
	}
	if v := c.Query("offset"); v != "" {
		offset, err = strconv.Atoi(v)
		if err != nil || offset < 0 {
			return 0, 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "offset must be a non-negative integer")
		}
	}
	return limit, offset, nil
}
