package services

import (
	"context"

	"entityaudit/internal/audit"
	"entityaudit/internal/pagination"
)

// AuditLogFilter narrows a subject's audit history.
type AuditLogFilter struct {
	Action  string
	Success *bool
}

// AuditLogServicer defines the contract for reading audit logs.
type AuditLogServicer interface {
	GetSubjectLogs(ctx context.Context, subjectType, subjectID string, filter AuditLogFilter, page pagination.PageRequest) (*pagination.PageResponse[audit.Record], error)
	GetRecentLogs(ctx context.Context, page pagination.PageRequest) (*pagination.PageResponse[audit.Record], error)
}

// RecentLister is implemented by stores that can list records across subjects.
type RecentLister interface {
	Recent(ctx context.Context, page pagination.PageRequest) (*pagination.PageResponse[audit.Record], error)
}
