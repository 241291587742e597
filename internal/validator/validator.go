// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"refiwizard/internal/schema"
	"refiwizard/internal/uuid"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("entity_type", validateEntityType)
		_ = v.RegisterValidation("calculation_type", validateCalculationType)
		_ = v.RegisterValidation("record_uuid", validateRecordUUID)
	}
}

func validateEntityType(fl validator.FieldLevel) bool {
	_, ok := schema.Lookup(fl.Field().String())
	return ok
}

func validateCalculationType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debt_schedule", "depreciation_schedule":
		return true
	}
	return false
}

func validateRecordUUID(fl validator.FieldLevel) bool {
	return uuid.IsValid(fl.Field().String())
}
