package models

import "gorm.io/datatypes"

// AuditLog is one audited operation on an entity. AuditableID is NULL for
// entities that had no primary key yet, and Metadata is NULL for actions
// that are not attribute mutations.
type AuditLog struct {
	Base
	Action        string         `gorm:"not null;index" json:"action"`
	AuditableType string         `gorm:"not null;index:idx_audit_logs_auditable,priority:1" json:"auditable_type"`
	AuditableID   *string        `gorm:"index:idx_audit_logs_auditable,priority:2" json:"auditable_id"`
	Actor         string         `json:"actor"`
	Metadata      datatypes.JSON `json:"metadata"`
	Success       bool           `gorm:"not null" json:"success"`
	Exception     *string        `json:"exception"`
}
