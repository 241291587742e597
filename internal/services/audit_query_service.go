package services

import (
	"encoding/json"
	"sort"
	"time"

	apperrors "refiwizard/internal/errors"
	"refiwizard/internal/models"
	"refiwizard/internal/schema"
)

// DefaultHistoryLimit caps audit history queries when the caller supplies
// no limit.
const DefaultHistoryLimit = 50

// topChangedFields bounds the most-changed-fields ranking in audit stats.
const topChangedFields = 10

// statsScanLimit bounds how much history the stats aggregation scans. Data
// entry records change at human speed; this covers years of edits.
const statsScanLimit = 10000

// auditQueryService is the read side over the audit log: per-record
// history, per-field history, project-wide history, and aggregates.
type auditQueryService struct {
	audit AuditLogger
}

// NewAuditQueryService creates a new AuditQueryServicer.
func NewAuditQueryService(audit AuditLogger) AuditQueryServicer {
	return &auditQueryService{audit: audit}
}

// History returns the decoded change history of one record, newest first.
func (s *auditQueryService) History(entityType, ownerKey string, limit, offset int) ([]AuditEntry, error) {
	if _, ok := schema.Lookup(entityType); !ok {
		return nil, apperrors.ErrUnknownEntityType
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	events, err := s.audit.QueryByOwner(entityType, ownerKey, limit, offset)
	if err != nil {
		return nil, err
	}
	return decodeEvents(events)
}

// FieldHistory returns the events that changed the given field, newest first.
func (s *auditQueryService) FieldHistory(entityType, ownerKey, fieldName string, limit int) ([]AuditEntry, error) {
	sch, ok := schema.Lookup(entityType)
	if !ok {
		return nil, apperrors.ErrUnknownEntityType
	}
	if _, ok := sch.Field(fieldName); !ok {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Unknown field: "+fieldName)
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	events, err := s.audit.QueryByField(entityType, ownerKey, fieldName, limit)
	if err != nil {
		return nil, err
	}
	return decodeEvents(events)
}

// ProjectHistory returns the change history across every entity type of a
// project, newest first.
func (s *auditQueryService) ProjectHistory(ownerKey string, limit, offset int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit * 2
	}

	events, err := s.audit.QueryByProject(ownerKey, limit, offset)
	if err != nil {
		return nil, err
	}
	return decodeEvents(events)
}

// Stats aggregates the full change history of one record: total changes,
// last modification time, counts per action, and the most frequently
// changed fields (top 10 by count, ties broken by most recent change).
func (s *auditQueryService) Stats(entityType, ownerKey string) (*AuditStats, error) {
	entries, err := s.History(entityType, ownerKey, statsScanLimit, 0)
	if err != nil {
		return nil, err
	}

	stats := &AuditStats{
		TotalChanges: int64(len(entries)),
		ChangesByAction: map[models.AuditAction]int64{
			models.AuditActionCreate: 0,
			models.AuditActionUpdate: 0,
			models.AuditActionDelete: 0,
		},
	}

	fieldCounts := make(map[string]int)
	fieldLastChanged := make(map[string]time.Time)

	for _, entry := range entries {
		stats.ChangesByAction[entry.Action]++
		if stats.LastModifiedAt == nil || entry.CreatedAt.After(*stats.LastModifiedAt) {
			at := entry.CreatedAt
			stats.LastModifiedAt = &at
		}
		for _, field := range entry.ChangedFields {
			fieldCounts[field]++
			if entry.CreatedAt.After(fieldLastChanged[field]) {
				fieldLastChanged[field] = entry.CreatedAt
			}
		}
	}

	ranked := make([]FieldChangeCount, 0, len(fieldCounts))
	for field, count := range fieldCounts {
		ranked = append(ranked, FieldChangeCount{Field: field, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return fieldLastChanged[ranked[i].Field].After(fieldLastChanged[ranked[j].Field])
	})
	if len(ranked) > topChangedFields {
		ranked = ranked[:topChangedFields]
	}
	stats.MostChangedFields = ranked

	return stats, nil
}

func decodeEvents(events []models.AuditEvent) ([]AuditEntry, error) {
	entries := make([]AuditEntry, 0, len(events))
	for i := range events {
		entry, err := decodeEvent(&events[i])
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

func decodeEvent(event *models.AuditEvent) (*AuditEntry, error) {
	entry := &AuditEntry{
		ID:            event.ID,
		EntityType:    event.EntityType,
		OwnerKey:      event.OwnerKey,
		Action:        event.Action,
		Actor:         event.Actor,
		Reason:        event.Reason,
		SourceIP:      event.SourceIP,
		CreatedAt:     event.CreatedAt,
		OldValues:     map[string]interface{}{},
		NewValues:     map[string]interface{}{},
		ChangedFields: []string{},
	}

	if event.OldValues != "" {
		if err := json.Unmarshal([]byte(event.OldValues), &entry.OldValues); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrStorage, err)
		}
	}
	if event.NewValues != "" {
		if err := json.Unmarshal([]byte(event.NewValues), &entry.NewValues); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrStorage, err)
		}
	}
	if event.ChangedFields != "" {
		if err := json.Unmarshal([]byte(event.ChangedFields), &entry.ChangedFields); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrStorage, err)
		}
	}
	return entry, nil
}
