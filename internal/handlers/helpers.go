package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "refiwizard/internal/errors"
	"refiwizard/internal/logger"
	"refiwizard/internal/uuid"
)

// getUserID extracts the authenticated user ID from the Gin context.
// Returns ErrUnauthorized if not present.
func getUserID(c *gin.Context) (string, error) {
	userID, exists := c.Get("userID")
	if !exists {
		return "", apperrors.ErrUnauthorized
	}
	return userID.(string), nil
}

// parseProjectID validates the projectId path parameter as a UUID.
func parseProjectID(c *gin.Context) (string, error) {
	projectID := c.Param("projectId")
	if !uuid.IsValid(projectID) {
		return "", apperrors.ErrInvalidProjectID
	}
	return projectID, nil
}

// respondOK writes the standard success envelope. audit may be nil; it is
// present only on mutating calls.
func respondOK(c *gin.Context, status int, data interface{}, message string, audit interface{}) {
	body := gin.H{
		"success": true,
		"data":    data,
		"message": message,
	}
	if audit != nil {
		body["audit"] = audit
	}
	c.JSON(status, body)
}

// respondWithError writes a consistent JSON error response. If the error is an
// *AppError it uses the error's status code, code, and message. Otherwise it
// logs the unexpected error and returns a generic internal server error.
func respondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			logger.Get().Errorw("app error",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
			)
		}
		c.JSON(appErr.StatusCode, gin.H{
			"success": false,
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
		return
	}

	logger.Get().Errorw("unexpected error",
		"error", err.Error(),
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
	)
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error": gin.H{
			"code":    apperrors.ErrInternalServer.Code,
			"message": apperrors.ErrInternalServer.Message,
		},
	})
}
