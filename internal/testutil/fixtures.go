package testutil

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"testing"

	"refiwizard/internal/models"
	"refiwizard/internal/uuid"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// NewProjectID returns a fresh project identifier.
func NewProjectID() string {
	return uuid.New()
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestRecord creates a versioned record at version 1 with the given
// field document.
func CreateTestRecord(t *testing.T, db *gorm.DB, entityType, projectID string, fields map[string]interface{}) *models.DataRecord {
	t.Helper()

	doc, err := json.Marshal(fields)
	if err != nil {
		t.Fatalf("failed to encode field document: %v", err)
	}

	record := &models.DataRecord{
		EntityType: entityType,
		OwnerKey:   projectID,
		Fields:     string(doc),
		Version:    1,
		CreatedBy:  "test-user",
		UpdatedBy:  "test-user",
	}
	if err := db.Create(record).Error; err != nil {
		t.Fatalf("failed to create test record: %v", err)
	}
	return record
}

// CreateTestAuditEvent appends an audit event for the given record.
func CreateTestAuditEvent(t *testing.T, db *gorm.DB, entityType, projectID string, action models.AuditAction, changedFields []string) *models.AuditEvent {
	t.Helper()

	changed, err := json.Marshal(changedFields)
	if err != nil {
		t.Fatalf("failed to encode changed fields: %v", err)
	}

	event := &models.AuditEvent{
		EntityType:    entityType,
		OwnerKey:      projectID,
		Action:        action,
		OldValues:     "{}",
		NewValues:     "{}",
		ChangedFields: string(changed),
		Actor:         "test-user",
		Reason:        "test",
	}
	if err := db.Create(event).Error; err != nil {
		t.Fatalf("failed to create test audit event: %v", err)
	}
	return event
}
