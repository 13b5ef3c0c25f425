// Package gormstore persists audit records in the audit_logs table.
package gormstore

import (
	"context"
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"entityaudit/internal/audit"
	apperrors "entityaudit/internal/errors"
	"entityaudit/internal/models"
	"entityaudit/internal/pagination"
	"entityaudit/internal/tracking"
)

// Store implements audit.Store on top of GORM.
type Store struct {
	db *gorm.DB
}

// New creates a store writing to db.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Create inserts a record. The ID and CreatedAt are assigned on insert.
func (s *Store) Create(ctx context.Context, rec audit.Record) (*audit.Record, error) {
	row, err := toModel(rec)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, err)
	}

	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	created, err := fromModel(row)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return created, nil
}

// Query returns a subject's records, newest first. An empty subjectID
// selects records written before the subject had a primary key.
func (s *Store) Query(ctx context.Context, subjectType, subjectID string) ([]audit.Record, error) {
	q := s.db.WithContext(ctx).Where("auditable_type = ?", subjectType)
	if subjectID == "" {
		q = q.Where("auditable_id IS NULL")
	} else {
		q = q.Where("auditable_id = ?", subjectID)
	}

	var rows []models.AuditLog
	if err := q.Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return fromModels(rows)
}

// Recent returns a page of records across all subjects, newest first.
func (s *Store) Recent(ctx context.Context, page pagination.PageRequest) (*pagination.PageResponse[audit.Record], error) {
	page.Defaults()

	var totalItems int64
	if err := s.db.WithContext(ctx).Model(&models.AuditLog{}).Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var rows []models.AuditLog
	if err := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").
		Scopes(pagination.Paginate(page)).Find(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	records, err := fromModels(rows)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	result := pagination.NewPageResponse(records, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func toModel(rec audit.Record) (*models.AuditLog, error) {
	row := &models.AuditLog{
		Action:        rec.Action,
		AuditableType: rec.SubjectType,
		Actor:         rec.Actor,
		Success:       rec.Success,
	}
	if rec.SubjectID != "" {
		id := rec.SubjectID
		row.AuditableID = &id
	}
	if rec.Error != "" {
		msg := rec.Error
		row.Exception = &msg
	}
	if rec.Metadata != nil {
		data, err := json.Marshal(rec.Metadata)
		if err != nil {
			return nil, err
		}
		row.Metadata = datatypes.JSON(data)
	}
	return row, nil
}

func fromModel(row *models.AuditLog) (*audit.Record, error) {
	rec := &audit.Record{
		ID:          row.ID,
		Action:      row.Action,
		SubjectType: row.AuditableType,
		Actor:       row.Actor,
		Success:     row.Success,
		CreatedAt:   row.CreatedAt,
	}
	if row.AuditableID != nil {
		rec.SubjectID = *row.AuditableID
	}
	if row.Exception != nil {
		rec.Error = *row.Exception
	}
	if len(row.Metadata) > 0 && string(row.Metadata) != "null" {
		var changes tracking.Changes
		if err := json.Unmarshal(row.Metadata, &changes); err != nil {
			return nil, err
		}
		rec.Metadata = changes
	}
	return rec, nil
}

func fromModels(rows []models.AuditLog) ([]audit.Record, error) {
	records := make([]audit.Record, 0, len(rows))
	for i := range rows {
		rec, err := fromModel(&rows[i])
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		records = append(records, *rec)
	}
	return records, nil
}
