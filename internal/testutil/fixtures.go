package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"entityaudit/internal/models"

	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// NextSubjectID returns a subject id that is unique within the test run.
func NextSubjectID() string {
	return fmt.Sprintf("subject-%d", nextID())
}

// CreateTestAuditLog inserts a successful audit log row for a subject.
func CreateTestAuditLog(t *testing.T, db *gorm.DB, subjectType, subjectID, action string) *models.AuditLog {
	t.Helper()

	row := &models.AuditLog{
		Action:        action,
		AuditableType: subjectType,
		Actor:         fmt.Sprintf("user-%d", nextID()),
		Success:       true,
	}
	if subjectID != "" {
		row.AuditableID = &subjectID
	}
	if err := db.Create(row).Error; err != nil {
		t.Fatalf("failed to create test audit log: %v", err)
	}
	return row
}

// CreateTestFailedAuditLog inserts a failed audit log row carrying message.
func CreateTestFailedAuditLog(t *testing.T, db *gorm.DB, subjectType, subjectID, action, message string) *models.AuditLog {
	t.Helper()

	row := &models.AuditLog{
		Action:        action,
		AuditableType: subjectType,
		AuditableID:   &subjectID,
		Success:       false,
		Exception:     &message,
	}
	if err := db.Create(row).Error; err != nil {
		t.Fatalf("failed to create test audit log: %v", err)
	}
	return row
}
