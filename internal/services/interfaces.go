package services

import (
	"time"

	"gorm.io/gorm"

	"refiwizard/internal/models"
	"refiwizard/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
}

// RecordStorer is the storage contract for the single versioned row each
// entity type keeps per project. Get returns (nil, nil) when no record
// exists; absence is an expected result, not an error. Mutating methods take
// a transaction handle so the orchestrator can commit the record write and
// its audit entry atomically.
type RecordStorer interface {
	Get(entityType, ownerKey string) (*models.DataRecord, error)
	Insert(tx *gorm.DB, entityType, ownerKey string, fields map[string]interface{}, actor, reason string) (*models.DataRecord, error)
	// PartialUpdate merges changes into the snapshot carried by current and
	// writes it back guarded by `WHERE version = current.Version`. It
	// returns ErrVersionConflict when a concurrent writer got there first,
	// and (nil, nil) when the record was deleted underneath the caller.
	PartialUpdate(tx *gorm.DB, current *models.DataRecord, changes map[string]interface{}, actor, reason string) (*models.DataRecord, error)
	// Delete removes the row and returns the pre-delete snapshot, or
	// (nil, nil) when nothing existed.
	Delete(tx *gorm.DB, entityType, ownerKey string) (*models.DataRecord, error)
}

// AuditLogger is the append-only change log. Append participates in the
// caller's transaction; the query methods order by created_at descending.
type AuditLogger interface {
	Append(tx *gorm.DB, event *models.AuditEvent) error
	QueryByOwner(entityType, ownerKey string, limit, offset int) ([]models.AuditEvent, error)
	QueryByField(entityType, ownerKey, fieldName string, limit int) ([]models.AuditEvent, error)
	QueryByProject(ownerKey string, limit, offset int) ([]models.AuditEvent, error)
}

// RecordView is a DataRecord with its field document decoded for responses.
type RecordView struct {
	ID           string                 `json:"id"`
	EntityType   string                 `json:"entity_type"`
	OwnerKey     string                 `json:"project_id"`
	Fields       map[string]interface{} `json:"fields"`
	Version      int                    `json:"version"`
	CreatedBy    string                 `json:"created_by"`
	UpdatedBy    string                 `json:"updated_by"`
	ChangeReason string                 `json:"change_reason"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// AuditSummary reports what a save or delete actually did.
type AuditSummary struct {
	ChangesDetected bool     `json:"changesDetected"`
	ChangedFields   []string `json:"changedFields"`
	Version         int      `json:"version,omitempty"`
	IsNewRecord     bool     `json:"isNewRecord"`
}

// SaveResult pairs the affected record with its audit summary. Record is nil
// when a delete found nothing to remove.
type SaveResult struct {
	Record *RecordView  `json:"record"`
	Audit  AuditSummary `json:"audit"`
}

// VersionedRecordServicer orchestrates the save/delete workflow: read
// current state, detect changes, write only when something changed, and
// append an audit event in the same transaction. A save that detects no
// change performs no write and emits no audit entry.
type VersionedRecordServicer interface {
	Get(entityType, ownerKey string) (*RecordView, error)
	Save(entityType, ownerKey string, candidate map[string]interface{}, actor, reason, sourceIP string) (*SaveResult, error)
	Delete(entityType, ownerKey, actor, reason, sourceIP string) (*SaveResult, error)
}

// AuditEntry is an audit event with its JSON documents decoded.
type AuditEntry struct {
	ID            string                 `json:"id"`
	EntityType    string                 `json:"entity_type"`
	OwnerKey      string                 `json:"project_id"`
	Action        models.AuditAction     `json:"action"`
	OldValues     map[string]interface{} `json:"old_values"`
	NewValues     map[string]interface{} `json:"new_values"`
	ChangedFields []string               `json:"changed_fields"`
	Actor         string                 `json:"actor"`
	Reason        string                 `json:"reason"`
	SourceIP      string                 `json:"source_ip,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

// FieldChangeCount ranks one field by how often it changed.
type FieldChangeCount struct {
	Field string `json:"field"`
	Count int    `json:"count"`
}

// AuditStats aggregates the change history of one record.
type AuditStats struct {
	TotalChanges      int64                        `json:"totalChanges"`
	LastModifiedAt    *time.Time                   `json:"lastModifiedAt"`
	ChangesByAction   map[models.AuditAction]int64 `json:"changesByAction"`
	MostChangedFields []FieldChangeCount           `json:"mostChangedFields"`
}

// AuditQueryServicer is the read side over the audit log.
type AuditQueryServicer interface {
	History(entityType, ownerKey string, limit, offset int) ([]AuditEntry, error)
	FieldHistory(entityType, ownerKey, fieldName string, limit int) ([]AuditEntry, error)
	Stats(entityType, ownerKey string) (*AuditStats, error)
	ProjectHistory(ownerKey string, limit, offset int) ([]AuditEntry, error)
}

// CalculationServicer runs the amortization calculators and persists their
// input and output blobs as calculation runs.
type CalculationServicer interface {
	Run(projectID string, calcType models.CalculationType, runName, actor string) (*models.CalculationRun, error)
	History(projectID string, page pagination.PageRequest) (pagination.PageResponse[models.CalculationRun], error)
	GetRun(runID string) (*models.CalculationRun, map[string]interface{}, error)
}
