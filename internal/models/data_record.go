package models

import (
	"encoding/json"
	"time"

	"refiwizard/internal/uuid"

	"gorm.io/gorm"
)

// DataRecord is the single versioned row an entity type keeps per project.
// Field values live in Fields as a JSON document keyed by schema field name.
// Version starts at 1 on creation and increments by exactly one for every
// write that detected at least one changed field. Records are hard-deleted;
// a later save for the same project starts a fresh cycle at version 1.
type DataRecord struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	EntityType   string    `gorm:"not null;uniqueIndex:idx_data_records_entity_owner" json:"entity_type"`
	OwnerKey     string    `gorm:"type:uuid;not null;uniqueIndex:idx_data_records_entity_owner" json:"owner_key"`
	Fields       string    `gorm:"not null" json:"-"`
	Version      int       `gorm:"not null;default:1" json:"version"`
	CreatedBy    string    `gorm:"type:uuid" json:"created_by"`
	UpdatedBy    string    `gorm:"type:uuid" json:"updated_by"`
	ChangeReason string    `json:"change_reason"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (r *DataRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New()
	}
	return nil
}

// FieldMap decodes the stored JSON field document.
func (r *DataRecord) FieldMap() (map[string]interface{}, error) {
	fields := make(map[string]interface{})
	if r.Fields == "" {
		return fields, nil
	}
	if err := json.Unmarshal([]byte(r.Fields), &fields); err != nil {
		return nil, err
	}
	return fields, nil
}
