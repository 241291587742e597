// Package errors provides custom error types for the Refi Wizard API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is matches AppErrors by code, so errors.Is works against the sentinel
// values even after Wrap or WithMessage produced a copy.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Versioned record errors. RECORD_NOT_FOUND on a get or delete is recovered
// by the orchestrator and reported as a normal empty result; it surfaces only
// when an update addresses a record that no longer exists.
var (
	ErrInvalidProjectID  = &AppError{Code: "INVALID_PROJECT_ID", Message: "Project ID must be a valid UUID", StatusCode: http.StatusBadRequest}
	ErrUnknownEntityType = &AppError{Code: "UNKNOWN_ENTITY_TYPE", Message: "Unknown data entry resource", StatusCode: http.StatusNotFound}
	ErrRecordNotFound    = &AppError{Code: "RECORD_NOT_FOUND", Message: "No data found for this project", StatusCode: http.StatusNotFound}
	ErrDuplicateRecord   = &AppError{Code: "DUPLICATE_RECORD", Message: "A record already exists for this project", StatusCode: http.StatusConflict}
	ErrVersionConflict   = &AppError{Code: "VERSION_CONFLICT", Message: "The record was modified concurrently, please retry", StatusCode: http.StatusConflict}
	ErrStorage           = &AppError{Code: "STORAGE_ERROR", Message: "Failed to access the data store", StatusCode: http.StatusInternalServerError}
	// ErrPartialWrite flags a record write and its audit entry diverging.
	// It carries its own code so operators can find and reconcile the gap
	// instead of chasing a generic 500.
	ErrPartialWrite = &AppError{Code: "PARTIAL_WRITE", Message: "The record was written but its audit entry failed", StatusCode: http.StatusInternalServerError}
)

// Calculation run errors.
var (
	ErrCalculationNotFound = &AppError{Code: "CALCULATION_NOT_FOUND", Message: "Calculation run not found", StatusCode: http.StatusNotFound}
	ErrInvalidCalculation  = &AppError{Code: "INVALID_CALCULATION", Message: "Calculation inputs are incomplete", StatusCode: http.StatusBadRequest}
)
