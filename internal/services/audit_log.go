package services

import (
	"gorm.io/gorm"

	apperrors "refiwizard/internal/errors"
	"refiwizard/internal/models"
)

// auditLog is the GORM-backed append-only change log.
type auditLog struct {
	db *gorm.DB
}

// NewAuditLog creates a new AuditLogger.
func NewAuditLog(db *gorm.DB) AuditLogger {
	return &auditLog{db: db}
}

// Append writes one event inside the caller's transaction so a record write
// and its audit entry commit or roll back together.
func (l *auditLog) Append(tx *gorm.DB, event *models.AuditEvent) error {
	if err := tx.Create(event).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return nil
}

// QueryByOwner returns the events for one record, newest first.
func (l *auditLog) QueryByOwner(entityType, ownerKey string, limit, offset int) ([]models.AuditEvent, error) {
	var events []models.AuditEvent
	err := l.db.
		Where("entity_type = ? AND owner_key = ?", entityType, ownerKey).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&events).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return events, nil
}

// QueryByField returns the events that changed the given field, newest
// first. ChangedFields is stored as a JSON string array, so the filter
// matches the quoted field name inside the document.
func (l *auditLog) QueryByField(entityType, ownerKey, fieldName string, limit int) ([]models.AuditEvent, error) {
	var events []models.AuditEvent
	err := l.db.
		Where("entity_type = ? AND owner_key = ?", entityType, ownerKey).
		Where("changed_fields LIKE ?", `%"`+fieldName+`"%`).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return events, nil
}

// QueryByProject returns the events for every entity type of one project,
// newest first.
func (l *auditLog) QueryByProject(ownerKey string, limit, offset int) ([]models.AuditEvent, error) {
	var events []models.AuditEvent
	err := l.db.
		Where("owner_key = ?", ownerKey).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&events).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return events, nil
}
