package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"refiwizard/internal/services"
)

// ProjectAuditHandler serves the audit history across every resource of a
// project.
type ProjectAuditHandler struct {
	auditQueries services.AuditQueryServicer
}

// NewProjectAuditHandler creates a new ProjectAuditHandler.
func NewProjectAuditHandler(auditQueries services.AuditQueryServicer) *ProjectAuditHandler {
	return &ProjectAuditHandler{auditQueries: auditQueries}
}

// History handles listing the project-wide audit history.
// @Summary     Get project audit history
// @Description Get the change history across all resources of a project, newest first
// @Tags        audit
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       projectId path  string true  "Project ID"
// @Param       limit     query int   false "Maximum entries (default 100)"
// @Param       offset    query int   false "Entries to skip"
// @Success     200 {object} map[string]interface{} "Audit entries"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /projects/{projectId}/audit-history [get]
func (h *ProjectAuditHandler) History(c *gin.Context) {
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

	entries, err := h.auditQueries.ProjectHistory(projectID, limit, offset)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, entries, "Audit history retrieved successfully", nil)
}
