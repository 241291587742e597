package services

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "refiwizard/internal/errors"
	"refiwizard/internal/models"
)

// recordStore persists the one-row-per-project versioned records.
type recordStore struct {
	db *gorm.DB
}

// NewRecordStore creates a new RecordStorer backed by GORM.
func NewRecordStore(db *gorm.DB) RecordStorer {
	return &recordStore{db: db}
}

// Get returns the record for the given entity type and project, or
// (nil, nil) when none exists.
func (s *recordStore) Get(entityType, ownerKey string) (*models.DataRecord, error) {
	var record models.DataRecord
	err := s.db.Where("entity_type = ? AND owner_key = ?", entityType, ownerKey).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return &record, nil
}

// Insert creates the initial row at version 1. A unique index on
// (entity_type, owner_key) backs the duplicate check.
func (s *recordStore) Insert(tx *gorm.DB, entityType, ownerKey string, fields map[string]interface{}, actor, reason string) (*models.DataRecord, error) {
	doc, err := json.Marshal(fields)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	record := &models.DataRecord{
		EntityType:   entityType,
		OwnerKey:     ownerKey,
		Fields:       string(doc),
		Version:      1,
		CreatedBy:    actor,
		UpdatedBy:    actor,
		ChangeReason: reason,
	}

	if err := tx.Create(record).Error; err != nil {
		if isDuplicateKeyError(err) {
			return nil, apperrors.Wrap(apperrors.ErrDuplicateRecord, err)
		}
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return record, nil
}

// PartialUpdate merges changes into the field document carried by current
// and writes the result back, conditioned on the version current was read
// at. The version guard is what serializes concurrent writers: the loser's
// update matches zero rows and is retried by the orchestrator against a
// fresh read.
func (s *recordStore) PartialUpdate(tx *gorm.DB, current *models.DataRecord, changes map[string]interface{}, actor, reason string) (*models.DataRecord, error) {
	fields, err := current.FieldMap()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	for name, value := range changes {
		fields[name] = value
	}

	doc, err := json.Marshal(fields)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	now := time.Now()
	result := tx.Model(&models.DataRecord{}).
		Where("id = ? AND version = ?", current.ID, current.Version).
		Updates(map[string]interface{}{
			"fields":        string(doc),
			"version":       current.Version + 1,
			"updated_by":    actor,
			"change_reason": reason,
			"updated_at":    now,
		})
	if result.Error != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, result.Error)
	}

	if result.RowsAffected == 0 {
		// Either a concurrent writer bumped the version or a concurrent
		// delete removed the row; look again to tell the two apart.
		var check models.DataRecord
		err := tx.Where("id = ?", current.ID).First(&check).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrStorage, err)
		}
		return nil, apperrors.ErrVersionConflict
	}

	updated := *current
	updated.Fields = string(doc)
	updated.Version = current.Version + 1
	updated.UpdatedBy = actor
	updated.ChangeReason = reason
	updated.UpdatedAt = now
	return &updated, nil
}

// Delete removes the row and returns its pre-delete snapshot, or (nil, nil)
// when nothing existed.
func (s *recordStore) Delete(tx *gorm.DB, entityType, ownerKey string) (*models.DataRecord, error) {
	var record models.DataRecord
	err := tx.Where("entity_type = ? AND owner_key = ?", entityType, ownerKey).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	if err := tx.Delete(&record).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return &record, nil
}

// isDuplicateKeyError matches unique constraint violations across the
// postgres and sqlite drivers.
func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
