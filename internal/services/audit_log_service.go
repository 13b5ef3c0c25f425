package services

import (
	"context"
	"errors"

	"entityaudit/internal/audit"
	apperrors "entityaudit/internal/errors"
	"entityaudit/internal/pagination"
)

// auditLogService reads audit records from the configured store.
type auditLogService struct {
	store audit.Store
}

// NewAuditLogService creates a new AuditLogServicer.
func NewAuditLogService(store audit.Store) AuditLogServicer {
	return &auditLogService{store: store}
}

// GetSubjectLogs returns one page of a subject's history, newest first.
func (s *auditLogService) GetSubjectLogs(ctx context.Context, subjectType, subjectID string, filter AuditLogFilter, page pagination.PageRequest) (*pagination.PageResponse[audit.Record], error) {
	records, err := s.store.Query(ctx, subjectType, subjectID)
	if err != nil {
		return nil, wrapStoreError(err)
	}

	if filter.Action != "" || filter.Success != nil {
		filtered := make([]audit.Record, 0, len(records))
		for _, rec := range records {
			if filter.Action != "" && rec.Action != filter.Action {
				continue
			}
			if filter.Success != nil && rec.Success != *filter.Success {
				continue
			}
			filtered = append(filtered, rec)
		}
		records = filtered
	}

	resp := pagination.Window(records, page)
	return &resp, nil
}

// GetRecentLogs returns the newest records across all subjects.
func (s *auditLogService) GetRecentLogs(ctx context.Context, page pagination.PageRequest) (*pagination.PageResponse[audit.Record], error) {
	lister, ok := s.store.(RecentLister)
	if !ok {
		return nil, apperrors.ErrNotImplemented
	}
	page.Defaults()
	resp, err := lister.Recent(ctx, page)
	if err != nil {
		return nil, wrapStoreError(err)
	}
	return resp, nil
}

func wrapStoreError(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}
