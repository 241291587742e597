package models

import (
	"time"

	"refiwizard/internal/uuid"

	"gorm.io/gorm"
)

// AuditAction identifies the kind of change an audit event records.
type AuditAction string

const (
	AuditActionCreate AuditAction = "CREATE"
	AuditActionUpdate AuditAction = "UPDATE"
	AuditActionDelete AuditAction = "DELETE"
)

// AuditEvent is one immutable entry in the append-only change log. Events
// are never updated or deleted and outlive the record they describe.
// OldValues and NewValues hold full field snapshots as JSON documents;
// ChangedFields holds the minimal delta as a JSON string array in schema
// declaration order.
type AuditEvent struct {
	ID            string      `gorm:"type:uuid;primaryKey" json:"id"`
	EntityType    string      `gorm:"not null;index:idx_audit_events_entity_owner" json:"entity_type"`
	OwnerKey      string      `gorm:"type:uuid;not null;index:idx_audit_events_entity_owner;index" json:"owner_key"`
	Action        AuditAction `gorm:"not null" json:"action"`
	OldValues     string      `json:"-"`
	NewValues     string      `json:"-"`
	ChangedFields string      `json:"-"`
	Actor         string      `gorm:"type:uuid;not null" json:"actor"`
	Reason        string      `json:"reason"`
	SourceIP      string      `json:"source_ip,omitempty"`
	CreatedAt     time.Time   `gorm:"index" json:"created_at"`
}

// BeforeCreate hook generates a UUIDv7 for new events
func (e *AuditEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New()
	}
	return nil
}
