package services

import (
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	apperrors "refiwizard/internal/errors"
	"refiwizard/internal/logger"
	"refiwizard/internal/models"
	"refiwizard/internal/schema"
)

// Default change reasons applied when the caller supplies none.
const (
	DefaultCreateReason = "Initial creation"
	DefaultUpdateReason = "Updated via data entry form"
	DefaultDeleteReason = "Deleted via API"
)

// maxSaveAttempts bounds the optimistic-concurrency retry loop. Each retry
// re-reads the record and re-runs change detection against fresh state.
const maxSaveAttempts = 3

// versionedRecordService orchestrates the read-diff-write-audit workflow
// shared by every data-entry entity type.
type versionedRecordService struct {
	db    *gorm.DB
	store RecordStorer
	audit AuditLogger
}

// NewVersionedRecordService creates a new VersionedRecordServicer.
func NewVersionedRecordService(db *gorm.DB, store RecordStorer, audit AuditLogger) VersionedRecordServicer {
	return &versionedRecordService{db: db, store: store, audit: audit}
}

// Get returns the current record for the given entity type and project, or
// nil when none exists.
func (s *versionedRecordService) Get(entityType, ownerKey string) (*RecordView, error) {
	if _, ok := schema.Lookup(entityType); !ok {
		return nil, apperrors.ErrUnknownEntityType
	}

	record, err := s.store.Get(entityType, ownerKey)
	if err != nil || record == nil {
		return nil, err
	}
	return recordView(record)
}

// Save applies the candidate fields: it creates the record when none exists,
// updates only the fields whose coerced values actually differ, and returns
// without writing anything when no change is detected. Record write and
// audit append share one transaction. Version conflicts with concurrent
// writers are retried against freshly read state.
func (s *versionedRecordService) Save(entityType, ownerKey string, candidate map[string]interface{}, actor, reason, sourceIP string) (*SaveResult, error) {
	sch, ok := schema.Lookup(entityType)
	if !ok {
		return nil, apperrors.ErrUnknownEntityType
	}

	if sch.Derive != nil {
		candidate = sch.Derive(candidate)
	}

	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		current, err := s.store.Get(entityType, ownerKey)
		if err != nil {
			return nil, err
		}

		var currentFields map[string]interface{}
		if current != nil {
			if currentFields, err = current.FieldMap(); err != nil {
				return nil, apperrors.Wrap(apperrors.ErrStorage, err)
			}
		}

		changed, newValues := sch.Diff(currentFields, candidate)

		if current != nil && len(changed) == 0 {
			view, err := recordView(current)
			if err != nil {
				return nil, err
			}
			return &SaveResult{
				Record: view,
				Audit:  AuditSummary{ChangesDetected: false, ChangedFields: []string{}, Version: current.Version},
			}, nil
		}

		if current == nil {
			result, err := s.create(sch, ownerKey, newValues, changed, actor, orDefault(reason, DefaultCreateReason), sourceIP)
			if err != nil {
				// A concurrent save created the record first; re-read and
				// diff against it.
				if errors.Is(err, apperrors.ErrDuplicateRecord) {
					continue
				}
				return nil, err
			}
			return result, nil
		}

		result, err := s.update(sch, current, currentFields, newValues, changed, actor, orDefault(reason, DefaultUpdateReason), sourceIP)
		if err != nil {
			if errors.Is(err, apperrors.ErrVersionConflict) {
				logger.Get().Debugw("version conflict on save, retrying",
					"entity_type", entityType,
					"owner_key", ownerKey,
					"version", current.Version,
					"attempt", attempt+1,
				)
				continue
			}
			return nil, err
		}
		if result == nil {
			// Lost a race with a concurrent delete; start over, probably
			// down the create path.
			continue
		}
		return result, nil
	}

	return nil, apperrors.ErrVersionConflict
}

func (s *versionedRecordService) create(sch *schema.Schema, ownerKey string, fields map[string]interface{}, changed []string, actor, reason, sourceIP string) (*SaveResult, error) {
	var created *models.DataRecord

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		created, txErr = s.store.Insert(tx, sch.EntityType, ownerKey, fields, actor, reason)
		if txErr != nil {
			return txErr
		}

		event, txErr := newAuditEvent(sch.EntityType, ownerKey, models.AuditActionCreate, nil, fields, changed, actor, reason, sourceIP)
		if txErr != nil {
			return txErr
		}
		if txErr = s.audit.Append(tx, event); txErr != nil {
			return apperrors.Wrap(apperrors.ErrPartialWrite, txErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	view, err := recordView(created)
	if err != nil {
		return nil, err
	}
	return &SaveResult{
		Record: view,
		Audit: AuditSummary{
			ChangesDetected: true,
			ChangedFields:   changed,
			Version:         created.Version,
			IsNewRecord:     true,
		},
	}, nil
}

func (s *versionedRecordService) update(sch *schema.Schema, current *models.DataRecord, currentFields, changes map[string]interface{}, changed []string, actor, reason, sourceIP string) (*SaveResult, error) {
	var updated *models.DataRecord

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		updated, txErr = s.store.PartialUpdate(tx, current, changes, actor, reason)
		if txErr != nil {
			return txErr
		}
		if updated == nil {
			return nil
		}

		newFields, txErr := updated.FieldMap()
		if txErr != nil {
			return apperrors.Wrap(apperrors.ErrStorage, txErr)
		}

		event, txErr := newAuditEvent(sch.EntityType, current.OwnerKey, models.AuditActionUpdate, currentFields, newFields, changed, actor, reason, sourceIP)
		if txErr != nil {
			return txErr
		}
		if txErr = s.audit.Append(tx, event); txErr != nil {
			return apperrors.Wrap(apperrors.ErrPartialWrite, txErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, nil
	}

	view, err := recordView(updated)
	if err != nil {
		return nil, err
	}
	return &SaveResult{
		Record: view,
		Audit: AuditSummary{
			ChangesDetected: true,
			ChangedFields:   changed,
			Version:         updated.Version,
			IsNewRecord:     false,
		},
	}, nil
}

// Delete removes the record and appends a terminal audit event holding the
// full pre-delete snapshot. Deleting a record that does not exist is a
// no-op success, not an error.
func (s *versionedRecordService) Delete(entityType, ownerKey, actor, reason, sourceIP string) (*SaveResult, error) {
	sch, ok := schema.Lookup(entityType)
	if !ok {
		return nil, apperrors.ErrUnknownEntityType
	}
	reason = orDefault(reason, DefaultDeleteReason)

	var snapshot *models.DataRecord
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		snapshot, txErr = s.store.Delete(tx, entityType, ownerKey)
		if txErr != nil || snapshot == nil {
			return txErr
		}

		fields, txErr := snapshot.FieldMap()
		if txErr != nil {
			return apperrors.Wrap(apperrors.ErrStorage, txErr)
		}

		// Every stored field is gone; report them in schema order.
		changed := make([]string, 0, len(fields))
		for _, name := range sch.FieldNames() {
			if _, present := fields[name]; present {
				changed = append(changed, name)
			}
		}

		event, txErr := newAuditEvent(entityType, ownerKey, models.AuditActionDelete, fields, nil, changed, actor, reason, sourceIP)
		if txErr != nil {
			return txErr
		}
		if txErr = s.audit.Append(tx, event); txErr != nil {
			return apperrors.Wrap(apperrors.ErrPartialWrite, txErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if snapshot == nil {
		return &SaveResult{Audit: AuditSummary{ChangesDetected: false, ChangedFields: []string{}}}, nil
	}

	view, err := recordView(snapshot)
	if err != nil {
		return nil, err
	}

	fields, _ := snapshot.FieldMap()
	changed := make([]string, 0, len(fields))
	for _, name := range sch.FieldNames() {
		if _, present := fields[name]; present {
			changed = append(changed, name)
		}
	}

	return &SaveResult{
		Record: view,
		Audit:  AuditSummary{ChangesDetected: true, ChangedFields: changed},
	}, nil
}

// newAuditEvent marshals the before/after snapshots into an event row.
// Nil snapshots become empty JSON objects: CREATE has no old values, DELETE
// no new ones.
func newAuditEvent(entityType, ownerKey string, action models.AuditAction, oldValues, newValues map[string]interface{}, changed []string, actor, reason, sourceIP string) (*models.AuditEvent, error) {
	oldDoc, err := marshalSnapshot(oldValues)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	newDoc, err := marshalSnapshot(newValues)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	if changed == nil {
		changed = []string{}
	}
	changedDoc, err := json.Marshal(changed)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	return &models.AuditEvent{
		EntityType:    entityType,
		OwnerKey:      ownerKey,
		Action:        action,
		OldValues:     oldDoc,
		NewValues:     newDoc,
		ChangedFields: string(changedDoc),
		Actor:         actor,
		Reason:        reason,
		SourceIP:      sourceIP,
	}, nil
}

func marshalSnapshot(values map[string]interface{}) (string, error) {
	if values == nil {
		values = map[string]interface{}{}
	}
	doc, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(doc), nil
}

func recordView(record *models.DataRecord) (*RecordView, error) {
	fields, err := record.FieldMap()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return &RecordView{
		ID:           record.ID,
		EntityType:   record.EntityType,
		OwnerKey:     record.OwnerKey,
		Fields:       fields,
		Version:      record.Version,
		CreatedBy:    record.CreatedBy,
		UpdatedBy:    record.UpdatedBy,
		ChangeReason: record.ChangeReason,
		CreatedAt:    record.CreatedAt,
		UpdatedAt:    record.UpdatedAt,
	}, nil
}

func orDefault(reason, fallback string) string {
	if reason == "" {
		return fallback
	}
	return reason
}
